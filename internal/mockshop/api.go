// Package mockshop is an in-memory stand-in for the Flora backend and its
// identity provider. It exists so the client SDK, the CLI and the smoke test
// run against the full REST contract with zero infrastructure.
package mockshop

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"flora-shops.com/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// API is the HTTP layer of the stub.
type API struct {
	router  chi.Router
	store   *Store
	tokens  *tokenIssuer
	version string
}

// New wires the stub's routes.
func New(tokenSecret, version string) *API {
	a := &API{
		store:   NewStore(),
		tokens:  newTokenIssuer(tokenSecret),
		version: version,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(LoggingJSON)
	r.Use(SecurityHeaders)
	r.Use(CORS)

	r.Get("/healthz", a.Healthz)
	r.Handle("/metrics", obs.Handler())
	r.Post("/idp", a.IDP)
	r.Put("/uploads/*", a.AcceptUpload)

	r.Route("/api", func(r chi.Router) {
		r.Get("/public/flowers", a.ListFlowers)
		r.Get("/public/flowers/{id}", a.GetFlower)

		r.Group(func(r chi.Router) {
			r.Use(a.withAuth)
			r.Get("/users/me", a.Me)

			r.Get("/cart", a.Cart)
			r.Post("/cart", a.AddToCart)
			r.Patch("/cart/{id}", a.UpdateCartItem)
			r.Delete("/cart/{id}", a.RemoveCartItem)

			r.Post("/orders/checkout", a.Checkout)
			r.Get("/orders", a.Orders)
			r.Patch("/orders/{id}/status", a.UpdateOrderStatus)

			r.Get("/addresses", a.Addresses)
			r.Post("/addresses", a.SaveAddress)
			r.Delete("/addresses/{id}", a.DeleteAddress)

			r.Post("/seller/apply", a.SellerApply)
			r.Get("/seller/status", a.SellerStatus)
			r.Get("/seller/flowers", a.SellerInventory)
			r.Post("/seller/flowers", a.SellerCreateFlower)
			r.Put("/seller/flowers/{id}", a.SellerUpdateFlower)
			r.Delete("/seller/flowers/{id}", a.SellerDeleteFlower)
			r.Get("/seller/flowers/upload-url", a.SellerUploadURL)
			r.Get("/seller/orders", a.SellerOrders)
			r.Patch("/seller/orders/{id}/ship", a.SellerShip)
		})
	})

	// Dev-only helper: stands in for the admin review queue so the
	// role-upgrade → forced-refresh flow can be exercised locally.
	r.Post("/dev/approve-seller/{id}", a.ApproveSeller)

	a.router = r
	return a
}

// Handler returns the stub's root handler, rate limited per client IP.
func (a *API) Handler() http.Handler {
	return MaxBodyBytes(RateLimit(a.router, 100, 50), 1<<20)
}

// Store exposes the backing store for test seeding.
func (a *API) Store() *Store { return a.store }

// Authn --------------------------------------------------------------------

type userKey struct{}

func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}
		claims, err := a.tokens.Verify(token)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "invalid token")
			return
		}
		u, ok := a.store.FindUserByID(claims.Subject)
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "unknown user")
			return
		}
		// Authorization follows the token's role claim, not the live store
		// record; a role granted after issuance needs a token refresh.
		view := *u
		view.Role = claims.Role
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, &view)))
	})
}

func userFrom(r *http.Request) *User {
	u, _ := r.Context().Value(userKey{}).(*User)
	return u
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingBearer
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errBadAuthScheme
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errMissingBearer
	}
	return token, nil
}

// Helpers ------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func (a *API) logCode(email string) {
	obs.Log(map[string]any{
		"msg":   "confirmation code issued",
		"email": email,
		"code":  confirmationCode,
	})
}
