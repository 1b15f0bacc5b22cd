// Package guard decides navigation against session state. It reads the
// synced profile, never provider session state: only the backend profile
// carries the role.
package guard

import (
	"context"
	"time"

	"flora-shops.com/internal/session"
)

// Route describes a navigation target's requirements.
type Route struct {
	Name           string
	RequiresAuth   bool
	RequiresSeller bool
}

// Decision is the guard's verdict for one navigation attempt.
type Decision struct {
	Allowed    bool
	RedirectTo string
	// Notice is a blocking user-visible message accompanying a denial.
	Notice string
}

const (
	loginRoute   = "/login"
	profileRoute = "/profile"

	sellerDeniedNotice = "Access Denied: Merchant Zone Only."
)

// StateSource yields the current session snapshot (the session itself).
type StateSource interface {
	Snapshot() session.State
}

// Config selects how the guard treats a session that is still rehydrating
// after a reload. Fail-fast decides on the current snapshot and may deny
// access that a finished CheckAuth would grant; wait mode blocks until the
// loading flag settles or the context expires.
type Config struct {
	WaitForSession bool
	// PollInterval is the loading-flag poll cadence in wait mode.
	PollInterval time.Duration
}

// Guard gates navigation using session snapshots.
type Guard struct {
	source StateSource
	cfg    Config
}

// New constructs a guard. The zero Config is fail-fast.
func New(source StateSource, cfg Config) *Guard {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 25 * time.Millisecond
	}
	return &Guard{source: source, cfg: cfg}
}

// Check decides whether navigation to the route is allowed.
func (g *Guard) Check(ctx context.Context, route Route) Decision {
	state := g.source.Snapshot()
	if g.cfg.WaitForSession && state.Loading {
		state = g.waitSettled(ctx)
	}

	if route.RequiresAuth && state.Token == "" {
		return Decision{RedirectTo: loginRoute}
	}
	if route.RequiresSeller {
		if state.User == nil || !state.User.Role.IsSeller() {
			return Decision{
				RedirectTo: profileRoute,
				Notice:     sellerDeniedNotice,
			}
		}
	}
	return Decision{Allowed: true}
}

func (g *Guard) waitSettled(ctx context.Context) session.State {
	ticker := time.NewTicker(g.cfg.PollInterval)
	defer ticker.Stop()
	for {
		state := g.source.Snapshot()
		if !state.Loading {
			return state
		}
		select {
		case <-ctx.Done():
			return state
		case <-ticker.C:
		}
	}
}
