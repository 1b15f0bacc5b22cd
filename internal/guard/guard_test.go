package guard

import (
	"context"
	"sync"
	"testing"
	"time"

	"flora-shops.com/internal/session"
	"flora-shops.com/internal/shop"
)

type stubSource struct {
	mu    sync.Mutex
	state session.State
}

func (s *stubSource) Snapshot() session.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *stubSource) set(state session.State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func authedState(role shop.Role) session.State {
	return session.State{
		Token:         "token-1",
		User:          &shop.UserProfile{ID: "usr-1", Role: role},
		Authenticated: true,
	}
}

func TestPublicRouteAlwaysAllowed(t *testing.T) {
	g := New(&stubSource{}, Config{})
	d := g.Check(context.Background(), Route{Name: "/flowers"})
	if !d.Allowed {
		t.Fatalf("public route denied: %+v", d)
	}
}

func TestAuthRouteRedirectsAnonymous(t *testing.T) {
	g := New(&stubSource{}, Config{})
	d := g.Check(context.Background(), Route{Name: "/orders", RequiresAuth: true})
	if d.Allowed || d.RedirectTo != "/login" {
		t.Fatalf("expected redirect to /login, got %+v", d)
	}
}

func TestAuthRouteAllowsAuthenticated(t *testing.T) {
	src := &stubSource{state: authedState(shop.RoleCustomer)}
	g := New(src, Config{})
	d := g.Check(context.Background(), Route{Name: "/orders", RequiresAuth: true})
	if !d.Allowed {
		t.Fatalf("authenticated user denied: %+v", d)
	}
}

func TestSellerRouteDeniesCustomer(t *testing.T) {
	src := &stubSource{state: authedState(shop.RoleCustomer)}
	g := New(src, Config{})
	d := g.Check(context.Background(), Route{Name: "/seller", RequiresAuth: true, RequiresSeller: true})
	if d.Allowed || d.RedirectTo != "/profile" {
		t.Fatalf("expected redirect to /profile, got %+v", d)
	}
	if d.Notice == "" {
		t.Fatalf("denial must carry a user-visible notice")
	}
}

func TestSellerRouteAllowsSellerAndAdmin(t *testing.T) {
	for _, role := range []shop.Role{shop.RoleSeller, shop.RoleAdmin} {
		src := &stubSource{state: authedState(role)}
		g := New(src, Config{})
		d := g.Check(context.Background(), Route{Name: "/seller", RequiresAuth: true, RequiresSeller: true})
		if !d.Allowed {
			t.Fatalf("role %s denied: %+v", role, d)
		}
	}
}

func TestFailFastDecidesOnLoadingSnapshot(t *testing.T) {
	src := &stubSource{state: session.State{Loading: true}}
	g := New(src, Config{})
	d := g.Check(context.Background(), Route{Name: "/orders", RequiresAuth: true})
	if d.Allowed || d.RedirectTo != "/login" {
		t.Fatalf("fail-fast should deny while loading: %+v", d)
	}
}

func TestWaitModeBlocksUntilSettled(t *testing.T) {
	src := &stubSource{state: session.State{Loading: true}}
	g := New(src, Config{WaitForSession: true, PollInterval: 2 * time.Millisecond})

	go func() {
		time.Sleep(20 * time.Millisecond)
		src.set(authedState(shop.RoleCustomer))
	}()

	d := g.Check(context.Background(), Route{Name: "/orders", RequiresAuth: true})
	if !d.Allowed {
		t.Fatalf("wait mode should see the settled session: %+v", d)
	}
}

func TestWaitModeGivesUpOnContext(t *testing.T) {
	src := &stubSource{state: session.State{Loading: true}}
	g := New(src, Config{WaitForSession: true, PollInterval: 2 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()

	d := g.Check(ctx, Route{Name: "/orders", RequiresAuth: true})
	if d.Allowed {
		t.Fatalf("expired wait must deny: %+v", d)
	}
}
