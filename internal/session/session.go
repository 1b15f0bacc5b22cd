// Package session owns the process-wide authentication state and the
// login, token refresh and backend-sync orchestration around it.
//
// The split between "provider says you're signed in" and "backend confirms
// your profile" is deliberate: the provider session lacks the application
// role, and every authorization decision goes through the synced profile.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"flora-shops.com/internal/identity"
	"flora-shops.com/internal/obs"
	"flora-shops.com/internal/shop"
)

// Authenticator is the identity-provider surface the session drives.
// *identity.Adapter satisfies it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (identity.AuthResult, error)
	Register(ctx context.Context, email, password string) (identity.AuthResult, error)
	VerifyCode(ctx context.Context, email, code string) (bool, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context, forceRefresh bool) (*identity.ProviderUser, identity.SessionTokens, bool)
}

// ProfileFetcher resolves a bearer token into the canonical user profile.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, token string) (shop.UserProfile, error)
}

// FetcherFunc adapts a function to ProfileFetcher.
type FetcherFunc func(ctx context.Context, token string) (shop.UserProfile, error)

// FetchProfile calls f.
func (f FetcherFunc) FetchProfile(ctx context.Context, token string) (shop.UserProfile, error) {
	return f(ctx, token)
}

// State is an immutable snapshot of the session.
//
// Invariant: Authenticated implies User != nil and Token != "".
type State struct {
	Token         string
	User          *shop.UserProfile
	Authenticated bool
	Loading       bool
	Err           string
}

// Session is the explicitly constructed session context. One instance lives
// for the application lifetime; repositories and the route guard read it,
// only the session itself mutates it.
type Session struct {
	auth     Authenticator
	profiles ProfileFetcher
	now      func() time.Time

	mu            sync.Mutex
	token         string
	user          *shop.UserProfile
	authenticated bool
	loading       bool
	lastErr       string

	// opMu serializes session-mutating operations; flight collapses
	// concurrent auth cycles into a single provider round-trip.
	opMu   sync.Mutex
	flight singleflight.Group
}

// Option configures the session.
type Option func(*Session)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Session) {
		if fn != nil {
			s.now = fn
		}
	}
}

// New constructs a session bound to an authenticator and a profile fetcher.
func New(auth Authenticator, profiles ProfileFetcher, opts ...Option) *Session {
	s := &Session{
		auth:     auth,
		profiles: profiles,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state. The profile is copied so callers can
// never mutate session-held data.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Token:         s.token,
		Authenticated: s.authenticated,
		Loading:       s.loading,
		Err:           s.lastErr,
	}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	return st
}

// Token returns the current bearer credential; empty means unauthenticated.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Login runs the full chain: provider sign-in, then (for a signed-in user)
// CheckAuth to pull a fresh token and synced profile. The raw AuthResult is
// returned so the caller can branch on CONFIRM_SIGN_UP and friends; login by
// itself never populates user or token.
func (s *Session) Login(ctx context.Context, email, password string) (identity.AuthResult, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.beginOp()
	defer s.endOp()

	res, err := s.auth.Login(ctx, email, password)
	if err != nil {
		s.recordErr(err, "login failed")
		return identity.AuthResult{}, err
	}
	if res.User != nil {
		if err := s.CheckAuth(ctx); err != nil {
			s.recordErr(err, "login failed")
			return res, err
		}
	}
	return res, nil
}

// CheckAuth asks the provider for the current session and syncs the profile.
func (s *Session) CheckAuth(ctx context.Context) error {
	return s.CheckAuthForce(ctx, false)
}

// CheckAuthForce is CheckAuth with an explicit token-refresh request. A
// refresh is also forced when the held token has already expired; a stale
// cached token does not carry roles granted after it was issued.
//
// Concurrent callers with the same force flag share one in-flight cycle.
func (s *Session) CheckAuthForce(ctx context.Context, force bool) error {
	if !force && s.tokenExpired() {
		force = true
	}
	key := fmt.Sprintf("check_auth:%t", force)
	_, err, _ := s.flight.Do(key, func() (any, error) {
		return nil, s.checkAuth(ctx, force)
	})
	return err
}

func (s *Session) checkAuth(ctx context.Context, force bool) error {
	s.beginOp()
	defer s.endOp()

	user, tokens, ok := s.auth.CurrentUser(ctx, force)
	token := tokens.Token()
	if !ok || token == "" {
		// No usable session: reset user, token and authenticated together.
		s.mu.Lock()
		s.clearLocked()
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if err := s.SyncWithBackend(ctx); err != nil {
		obs.Error("profile sync failed", err, map[string]any{"user": user.Email})
		return err
	}
	return nil
}

// RefreshUserSession re-runs the auth cycle with a forced token refresh.
// Call it after a backend action that changes the token's claims, e.g. a
// seller application being approved.
func (s *Session) RefreshUserSession(ctx context.Context) error {
	return s.CheckAuthForce(ctx, true)
}

// SyncWithBackend resolves the held token into the canonical profile.
//
// A transient failure leaves the session untouched: forcing a logout here
// would log users out whenever the backend blips. The transport-level 401
// hook (ForceLogout) is the only path that clears state for a dead token.
func (s *Session) SyncWithBackend(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		return nil
	}
	profile, err := s.profiles.FetchProfile(ctx, token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.user = &profile
	s.authenticated = true
	s.mu.Unlock()
	return nil
}

// Logout signs out of the provider (best effort) and clears local state
// unconditionally. Keeping stale local state after a failed provider
// sign-out would show the user as logged in with a dead session.
func (s *Session) Logout(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.beginOp()
	if err := s.auth.Logout(ctx); err != nil {
		obs.Error("provider sign-out failed", err, nil)
	}
	s.mu.Lock()
	s.clearLocked()
	s.loading = false
	s.mu.Unlock()
}

// ForceLogout clears local state without a provider round-trip. It is the
// target of the transport 401 hook: the token is already dead, there is
// nothing to revoke.
func (s *Session) ForceLogout(reason string) {
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()
	obs.Log(map[string]any{"level": "warn", "msg": "forced logout", "reason": reason})
}

// Register delegates to the provider.
func (s *Session) Register(ctx context.Context, email, password string) (identity.AuthResult, error) {
	s.beginOp()
	defer s.endOp()
	res, err := s.auth.Register(ctx, email, password)
	if err != nil {
		s.recordErr(err, "registration failed")
		return identity.AuthResult{}, err
	}
	return res, nil
}

// VerifyCode submits an email confirmation code.
func (s *Session) VerifyCode(ctx context.Context, email, code string) (bool, error) {
	s.beginOp()
	defer s.endOp()
	ok, err := s.auth.VerifyCode(ctx, email, code)
	if err != nil {
		s.recordErr(err, "verification failed")
		return false, err
	}
	return ok, nil
}

// Helpers -----------------------------------------------------------------

// clearLocked resets user, token and authenticated as one atomic transition.
// Partial clears are the bug class this method exists to prevent.
func (s *Session) clearLocked() {
	s.user = nil
	s.token = ""
	s.authenticated = false
}

func (s *Session) beginOp() {
	s.mu.Lock()
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *Session) endOp() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *Session) recordErr(err error, fallback string) {
	msg := fallback
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

// tokenExpired peeks at the held token's exp claim without verifying the
// signature; verification is the backend's job, this only decides whether a
// refresh is worth forcing.
func (s *Session) tokenExpired() bool {
	token := s.Token()
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.Before(s.now())
}
