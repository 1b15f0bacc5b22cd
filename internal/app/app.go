// Package app wires the client stack: identity provider, session, remote
// client, cart and route guard, all bound to one Config. Both binaries use
// it so the wiring never drifts between them.
package app

import (
	"context"

	"flora-shops.com/internal/cart"
	"flora-shops.com/internal/config"
	"flora-shops.com/internal/guard"
	"flora-shops.com/internal/identity"
	"flora-shops.com/internal/identity/cognito"
	"flora-shops.com/internal/session"
	"flora-shops.com/internal/shop"
	"flora-shops.com/internal/shop/remote"
)

// App is the assembled client stack.
type App struct {
	Config  config.Config
	Session *session.Session
	Client  *remote.Client
	Cart    *cart.Cart
	Guard   *guard.Guard
}

// New assembles the stack from configuration.
//
// The session and the remote client depend on each other (the session syncs
// profiles through the client, the client reads bearer tokens from the
// session), so the session gets the client through a late-bound fetcher.
func New(cfg config.Config) *App {
	provider := cognito.New(cfg.IDPURL, cfg.IDPClientID)
	adapter := identity.NewAdapter(provider)

	var client *remote.Client
	sess := session.New(adapter, session.FetcherFunc(
		func(ctx context.Context, token string) (shop.UserProfile, error) {
			return client.FetchProfile(ctx, token)
		}))
	client = remote.New(cfg.APIURL, sess,
		remote.WithTimeout(cfg.HTTPTimeout),
		remote.WithUnauthorizedHook(sess.ForceLogout),
	)

	return &App{
		Config:  cfg,
		Session: sess,
		Client:  client,
		Cart:    cart.New(client.Cart(), client.Orders(), sess),
		Guard:   guard.New(sess, guard.Config{WaitForSession: cfg.GuardWait}),
	}
}
