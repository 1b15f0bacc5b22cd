// Package remote is the HTTP client for the Flora backend REST API. It owns
// the cross-cutting transport behavior (bearer injection, request ids,
// metrics, rate limiting, the centralized 401 reaction) so the per-resource
// repositories stay thin and stateless.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"flora-shops.com/internal/obs"
	"flora-shops.com/internal/shop"
)

const (
	defaultTimeout = 20 * time.Second
	apiPrefix      = "/api"

	requestIDHeader = "X-Request-Id"
)

// TokenSource yields the current bearer credential; empty means anonymous.
// The session satisfies it.
type TokenSource interface {
	Token() string
}

// Client wraps the backend REST API.
type Client struct {
	baseURL string
	httpc   *http.Client
	uploadc *http.Client
	tokens  TokenSource

	// onUnauthorized centralizes the "token invalid" reaction; it fires once
	// per 401 response instead of being duplicated at every call site.
	onUnauthorized func(reason string)

	limiter *rate.Limiter
	catalog *cache.Cache
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client. Its transport is
// still wrapped with metrics instrumentation.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpc = h
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpc.Timeout = d
		}
	}
}

// WithUnauthorizedHook installs the forced-logout reaction for 401 replies.
func WithUnauthorizedHook(fn func(reason string)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithRateLimit applies a client-side token bucket to outbound requests.
func WithRateLimit(perSecond, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// New creates a client with sensible defaults for the given base URL
// (without the /api suffix, which is appended here).
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
		uploadc: &http.Client{Timeout: 60 * time.Second},
		tokens:  tokens,
		catalog: cache.New(30*time.Second, time.Minute),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpc.Transport = obs.InstrumentTransport(c.httpc.Transport)
	return c
}

// Repositories ------------------------------------------------------------

// Cart returns the cart repository.
func (c *Client) Cart() *CartRepo { return &CartRepo{c: c} }

// Orders returns the order repository.
func (c *Client) Orders() *OrdersRepo { return &OrdersRepo{c: c} }

// Addresses returns the address-book repository.
func (c *Client) Addresses() *AddressesRepo { return &AddressesRepo{c: c} }

// Flowers returns the public catalog repository.
func (c *Client) Flowers() *FlowersRepo { return &FlowersRepo{c: c} }

// Seller returns the seller repository.
func (c *Client) Seller() *SellerRepo { return &SellerRepo{c: c} }

// FetchProfile resolves a bearer token into the canonical user profile via
// GET /api/users/me. The token is passed explicitly: during the auth cycle
// the session calls this before it would answer Token() itself.
func (c *Client) FetchProfile(ctx context.Context, token string) (shop.UserProfile, error) {
	var profile shop.UserProfile
	err := c.doToken(ctx, http.MethodGet, "/users/me", nil, nil, &profile, token, nil)
	return profile, err
}

// Helpers -----------------------------------------------------------------

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	token := ""
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	return c.doToken(ctx, method, path, query, body, out, token, nil)
}

func (c *Client) doToken(ctx context.Context, method, path string, query url.Values, body, out any, token string, extra map[string]string) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("remote: rate limit wait: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("remote: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	u := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("remote: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("remote: read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized(fmt.Sprintf("%s %s returned 401", method, path))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("remote: decode response: %w", err)
	}
	return nil
}

// apiError extracts the backend's error payload, best effort: the error or
// message JSON field when present, the raw body otherwise, a generic status
// text as the last resort.
func apiError(resp *http.Response, data []byte) error {
	msg := ""
	var payload struct {
		Error     string `json:"error"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Error != "" {
			msg = payload.Error
		} else if payload.Message != "" {
			msg = payload.Message
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(data))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	rid := payload.RequestID
	if rid == "" {
		rid = resp.Header.Get(requestIDHeader)
	}
	return &shop.APIError{Status: resp.StatusCode, Message: msg, RequestID: rid}
}
