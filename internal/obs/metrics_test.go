package obs

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInstrumentTransportPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	client := &http.Client{Transport: InstrumentTransport(nil)}
	resp, err := client.Get(srv.URL + "/cart")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Fatalf("status lost through instrumentation: %d", resp.StatusCode)
	}
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestInstrumentTransportPropagatesErrors(t *testing.T) {
	rt := InstrumentTransport(failingTransport{})
	req := httptest.NewRequest(http.MethodGet, "http://shop.invalid/cart", nil)
	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatalf("transport error swallowed")
	}
}
