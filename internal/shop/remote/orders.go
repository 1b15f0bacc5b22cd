package remote

import (
	"context"
	"fmt"
	"net/http"

	"flora-shops.com/internal/ids"
	"flora-shops.com/internal/shop"
)

// OrdersRepo is the order placement and history surface.
type OrdersRepo struct {
	c *Client
}

// Checkout places an order from the current cart. Each attempt carries a
// fresh Idempotency-Key so a retried submit cannot double-charge.
func (r *OrdersRepo) Checkout(ctx context.Context, req shop.CheckoutRequest) (shop.CheckoutResponse, error) {
	token := ""
	if r.c.tokens != nil {
		token = r.c.tokens.Token()
	}
	var resp shop.CheckoutResponse
	err := r.c.doToken(ctx, http.MethodPost, "/orders/checkout", nil, req, &resp, token,
		map[string]string{"Idempotency-Key": ids.New()})
	return resp, err
}

// List fetches the current user's order history.
func (r *OrdersRepo) List(ctx context.Context) ([]shop.Order, error) {
	var orders []shop.Order
	if err := r.c.do(ctx, http.MethodGet, "/orders", nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus transitions an order to a new status.
func (r *OrdersRepo) UpdateStatus(ctx context.Context, orderID int64, status string) error {
	body := map[string]any{"status": status}
	return r.c.do(ctx, http.MethodPatch, fmt.Sprintf("/orders/%d/status", orderID), nil, body, nil)
}
