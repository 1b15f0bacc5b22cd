package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"flora-shops.com/internal/shop"
)

// FlowersRepo is the public, unauthenticated catalog surface.
type FlowersRepo struct {
	c *Client
}

// List fetches the public catalog. Deployments disagree on the response
// shape (bare array vs. paged envelope); both are accepted. Results are
// cached briefly per query to spare the backend on hot pages.
func (r *FlowersRepo) List(ctx context.Context, params url.Values) (shop.FlowerPage, error) {
	key := "flowers:" + params.Encode()
	if cached, ok := r.c.catalog.Get(key); ok {
		return cached.(shop.FlowerPage), nil
	}

	var raw json.RawMessage
	if err := r.c.do(ctx, http.MethodGet, "/public/flowers", params, nil, &raw); err != nil {
		return shop.FlowerPage{}, err
	}

	page, err := decodeFlowerPage(raw)
	if err != nil {
		return shop.FlowerPage{}, err
	}
	r.c.catalog.SetDefault(key, page)
	return page, nil
}

// Get fetches a single product. A read op with no actionable recovery: any
// failure degrades to nil.
func (r *FlowersRepo) Get(ctx context.Context, id int64) *shop.Flower {
	var f shop.Flower
	if err := r.c.do(ctx, http.MethodGet, fmt.Sprintf("/public/flowers/%d", id), nil, nil, &f); err != nil {
		return nil
	}
	return &f
}

func decodeFlowerPage(raw json.RawMessage) (shop.FlowerPage, error) {
	var page shop.FlowerPage
	if err := json.Unmarshal(raw, &page); err == nil && page.List != nil {
		return page, nil
	}
	var list []shop.Flower
	if err := json.Unmarshal(raw, &list); err != nil {
		return shop.FlowerPage{}, fmt.Errorf("remote: unexpected catalog shape: %w", err)
	}
	return shop.FlowerPage{List: list, Total: len(list)}, nil
}
