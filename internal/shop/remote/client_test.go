package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"flora-shops.com/internal/shop"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func TestRequestCarriesBearerAndRequestID(t *testing.T) {
	var gotAuth, gotRID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRID = r.Header.Get("X-Request-Id")
		_ = json.NewEncoder(w).Encode([]shop.CartItem{})
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokens("tok-1"))
	if _, err := c.Cart().List(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("authorization header: %q", gotAuth)
	}
	if gotRID == "" {
		t.Fatalf("request id header missing")
	}
}

func TestAnonymousRequestOmitsBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]shop.Flower{})
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokens(""))
	if _, err := c.Flowers().List(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "" {
		t.Fatalf("anonymous request must not carry a bearer: %q", gotAuth)
	}
}

func TestUnauthorizedFiresHookOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
	}))
	defer srv.Close()

	var hooks int32
	c := New(srv.URL, staticTokens("dead-token"),
		WithUnauthorizedHook(func(reason string) { atomic.AddInt32(&hooks, 1) }))

	_, err := c.Cart().List(context.Background())
	if !errors.Is(err, shop.ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if got := atomic.LoadInt32(&hooks); got != 1 {
		t.Fatalf("hook fired %d times", got)
	}
}

func TestAPIErrorExtraction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "quantity must be at least 1", "request_id": "rid-1"})
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokens("tok"))
	err := c.Cart().UpdateQuantity(context.Background(), 1, 0)

	var apiErr *shop.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != 400 || apiErr.Message != "quantity must be at least 1" || apiErr.RequestID != "rid-1" {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
	if !errors.Is(err, shop.ErrInvalidInput) {
		t.Fatalf("400 should map to ErrInvalidInput")
	}
}

func TestCheckoutSendsIdempotencyKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		_ = json.NewEncoder(w).Encode(shop.CheckoutResponse{Message: "ok", OrderID: 42})
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokens("tok"))
	resp, err := c.Orders().Checkout(context.Background(), shop.CheckoutRequest{
		ReceiverName: "A", ReceiverPhone: "555", ShippingAddress: "12 Lane",
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.OrderID != 42 {
		t.Fatalf("orderId not decoded: %+v", resp)
	}
	if gotKey == "" {
		t.Fatalf("idempotency key missing")
	}
}

func TestFlowersListCaches(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode([]shop.Flower{{ID: 1, Name: "Rose", Price: 100}})
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokens(""))
	for i := 0; i < 3; i++ {
		page, err := c.Flowers().List(context.Background(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(page.List) != 1 || page.Total != 1 {
			t.Fatalf("unexpected page: %+v", page)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected one backend call, got %d", got)
	}
}

func TestFlowersListAcceptsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(shop.FlowerPage{
			List: []shop.Flower{{ID: 1}, {ID: 2}}, Total: 12, Page: 2, PageSize: 2,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokens(""))
	page, err := c.Flowers().List(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.List) != 2 || page.Total != 12 || page.Page != 2 {
		t.Fatalf("envelope not decoded: %+v", page)
	}
}

func TestFlowerGetDegradesToNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "flower not found"})
	}))
	defer srv.Close()

	if f := New(srv.URL, staticTokens("")).Flowers().Get(context.Background(), 99); f != nil {
		t.Fatalf("expected nil for missing flower, got %+v", f)
	}
}

func TestSellerStatusDegradesToNone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokens("tok"))
	if status := c.Seller().Status(context.Background()); status != shop.StatusNone {
		t.Fatalf("expected NONE on failure, got %q", status)
	}
}

func TestFetchProfileUsesExplicitToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(shop.UserProfile{ID: "usr-1", Role: shop.RoleCustomer})
	}))
	defer srv.Close()

	// The ambient token source is empty: during the auth cycle the session
	// passes the fresh token before exposing it.
	c := New(srv.URL, staticTokens(""))
	profile, err := c.FetchProfile(context.Background(), "fresh-token")
	if err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer fresh-token" {
		t.Fatalf("explicit token not used: %q", gotAuth)
	}
	if profile.ID != "usr-1" {
		t.Fatalf("profile not decoded: %+v", profile)
	}
}
