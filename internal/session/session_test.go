package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"flora-shops.com/internal/identity"
	"flora-shops.com/internal/shop"
)

type fakeAuth struct {
	mu     sync.Mutex
	forces []bool
	block  chan struct{}

	loginRes  identity.AuthResult
	loginErr  error
	logoutErr error

	user   *identity.ProviderUser
	tokens identity.SessionTokens
	ok     bool
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (identity.AuthResult, error) {
	return f.loginRes, f.loginErr
}

func (f *fakeAuth) Register(ctx context.Context, email, password string) (identity.AuthResult, error) {
	return identity.AuthResult{NextStep: identity.StepConfirmSignUp}, nil
}

func (f *fakeAuth) VerifyCode(ctx context.Context, email, code string) (bool, error) {
	return true, nil
}

func (f *fakeAuth) Logout(ctx context.Context) error { return f.logoutErr }

func (f *fakeAuth) CurrentUser(ctx context.Context, forceRefresh bool) (*identity.ProviderUser, identity.SessionTokens, bool) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.forces = append(f.forces, forceRefresh)
	f.mu.Unlock()
	return f.user, f.tokens, f.ok
}

func (f *fakeAuth) currentUserCalls() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bool, len(f.forces))
	copy(out, f.forces)
	return out
}

func profileFetcher(profile shop.UserProfile, err *error) ProfileFetcher {
	return FetcherFunc(func(ctx context.Context, token string) (shop.UserProfile, error) {
		if err != nil && *err != nil {
			return shop.UserProfile{}, *err
		}
		return profile, nil
	})
}

func signedSession() *fakeAuth {
	return &fakeAuth{
		loginRes: identity.AuthResult{User: &identity.ProviderUser{Email: "u@x.test"}, NextStep: identity.StepDone},
		user:     &identity.ProviderUser{ID: "sub-1", Email: "u@x.test"},
		tokens:   identity.SessionTokens{IDToken: "id-token"},
		ok:       true,
	}
}

func TestLoginEstablishesSession(t *testing.T) {
	auth := signedSession()
	profile := shop.UserProfile{ID: "usr-1", Email: "u@x.test", Role: shop.RoleCustomer}
	s := New(auth, profileFetcher(profile, nil))

	res, err := s.Login(context.Background(), "u@x.test", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if res.User == nil {
		t.Fatalf("expected signed-in result, got %+v", res)
	}

	state := s.Snapshot()
	if !state.Authenticated {
		t.Fatalf("expected authenticated state: %+v", state)
	}
	if state.User == nil || state.Token == "" {
		t.Fatalf("authenticated state must carry user and token: %+v", state)
	}
	if state.User.ID != "usr-1" {
		t.Fatalf("expected synced backend profile, got %+v", state.User)
	}
	if state.Loading {
		t.Fatalf("loading flag stuck after login")
	}
}

func TestLoginConfirmStepDoesNotAuthenticate(t *testing.T) {
	auth := &fakeAuth{loginRes: identity.AuthResult{NextStep: identity.StepConfirmSignUp}}
	s := New(auth, profileFetcher(shop.UserProfile{}, nil))

	res, err := s.Login(context.Background(), "u@x.test", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if res.NextStep != identity.StepConfirmSignUp {
		t.Fatalf("unexpected next step %q", res.NextStep)
	}
	if len(auth.currentUserCalls()) != 0 {
		t.Fatalf("auth cycle must not run without a signed-in user")
	}
	if state := s.Snapshot(); state.Authenticated || state.Token != "" || state.User != nil {
		t.Fatalf("state leaked from unconfirmed login: %+v", state)
	}
}

func TestCheckAuthClearsStateAtomically(t *testing.T) {
	auth := signedSession()
	s := New(auth, profileFetcher(shop.UserProfile{ID: "usr-1"}, nil))
	if _, err := s.Login(context.Background(), "u@x.test", "pw"); err != nil {
		t.Fatal(err)
	}

	auth.mu.Lock()
	auth.ok = false
	auth.user = nil
	auth.tokens = identity.SessionTokens{}
	auth.mu.Unlock()

	if err := s.CheckAuth(context.Background()); err != nil {
		t.Fatal(err)
	}
	state := s.Snapshot()
	if state.Authenticated || state.User != nil || state.Token != "" {
		t.Fatalf("partial clear: %+v", state)
	}
}

func TestSyncFailureKeepsState(t *testing.T) {
	auth := signedSession()
	var fetchErr error
	s := New(auth, profileFetcher(shop.UserProfile{ID: "usr-1"}, &fetchErr))
	if _, err := s.Login(context.Background(), "u@x.test", "pw"); err != nil {
		t.Fatal(err)
	}

	fetchErr = errors.New("backend unavailable")
	if err := s.CheckAuth(context.Background()); err == nil {
		t.Fatalf("expected sync error")
	}

	state := s.Snapshot()
	if !state.Authenticated || state.User == nil || state.Token == "" {
		t.Fatalf("transient sync failure must not log the user out: %+v", state)
	}
}

func TestRefreshUserSessionForcesRefresh(t *testing.T) {
	auth := signedSession()
	s := New(auth, profileFetcher(shop.UserProfile{ID: "usr-1"}, nil))

	if err := s.RefreshUserSession(context.Background()); err != nil {
		t.Fatal(err)
	}
	calls := auth.currentUserCalls()
	if len(calls) != 1 || !calls[0] {
		t.Fatalf("expected one forced refresh, got %v", calls)
	}
}

func TestExpiredTokenForcesRefresh(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "usr-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}

	auth := signedSession()
	auth.tokens = identity.SessionTokens{IDToken: expired}
	s := New(auth, profileFetcher(shop.UserProfile{ID: "usr-1"}, nil))

	if err := s.CheckAuth(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.CheckAuth(context.Background()); err != nil {
		t.Fatal(err)
	}

	calls := auth.currentUserCalls()
	if len(calls) != 2 || calls[0] || !calls[1] {
		t.Fatalf("expected the second cycle to force a refresh, got %v", calls)
	}
}

func TestForceLogoutClearsState(t *testing.T) {
	auth := signedSession()
	s := New(auth, profileFetcher(shop.UserProfile{ID: "usr-1"}, nil))
	if _, err := s.Login(context.Background(), "u@x.test", "pw"); err != nil {
		t.Fatal(err)
	}

	s.ForceLogout("GET /api/cart returned 401")

	state := s.Snapshot()
	if state.Authenticated || state.User != nil || state.Token != "" {
		t.Fatalf("state survived forced logout: %+v", state)
	}
}

func TestLogoutClearsStateDespiteProviderError(t *testing.T) {
	auth := signedSession()
	auth.logoutErr = errors.New("revoke failed")
	s := New(auth, profileFetcher(shop.UserProfile{ID: "usr-1"}, nil))
	if _, err := s.Login(context.Background(), "u@x.test", "pw"); err != nil {
		t.Fatal(err)
	}

	s.Logout(context.Background())

	state := s.Snapshot()
	if state.Authenticated || state.Token != "" || state.Loading {
		t.Fatalf("logout left state behind: %+v", state)
	}
}

func TestConcurrentCheckAuthCollapses(t *testing.T) {
	auth := signedSession()
	auth.block = make(chan struct{})
	s := New(auth, profileFetcher(shop.UserProfile{ID: "usr-1"}, nil))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.CheckAuth(context.Background())
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(auth.block)
	wg.Wait()

	if calls := auth.currentUserCalls(); len(calls) != 1 {
		t.Fatalf("expected concurrent cycles to collapse into one, got %d", len(calls))
	}
}

func TestSnapshotCopiesProfile(t *testing.T) {
	auth := signedSession()
	s := New(auth, profileFetcher(shop.UserProfile{ID: "usr-1", Role: shop.RoleCustomer}, nil))
	if _, err := s.Login(context.Background(), "u@x.test", "pw"); err != nil {
		t.Fatal(err)
	}

	first := s.Snapshot()
	first.User.Role = shop.RoleAdmin

	if second := s.Snapshot(); second.User.Role != shop.RoleCustomer {
		t.Fatalf("snapshot aliasing: %+v", second.User)
	}
}
