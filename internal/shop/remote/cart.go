package remote

import (
	"context"
	"fmt"
	"net/http"

	"flora-shops.com/internal/shop"
)

// CartRepo is the authenticated cart CRUD surface.
type CartRepo struct {
	c *Client
}

// List fetches the current user's cart lines.
func (r *CartRepo) List(ctx context.Context) ([]shop.CartItem, error) {
	var items []shop.CartItem
	if err := r.c.do(ctx, http.MethodGet, "/cart", nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Add puts quantity units of a flower into the cart.
func (r *CartRepo) Add(ctx context.Context, flowerID int64, quantity int) error {
	if quantity <= 0 {
		quantity = 1
	}
	body := map[string]any{
		"flowerId": flowerID,
		"quantity": quantity,
	}
	return r.c.do(ctx, http.MethodPost, "/cart", nil, body, nil)
}

// UpdateQuantity sets the quantity of an existing cart line.
func (r *CartRepo) UpdateQuantity(ctx context.Context, cartID int64, quantity int) error {
	body := map[string]any{"quantity": quantity}
	return r.c.do(ctx, http.MethodPatch, fmt.Sprintf("/cart/%d", cartID), nil, body, nil)
}

// Remove deletes a cart line.
func (r *CartRepo) Remove(ctx context.Context, cartID int64) error {
	return r.c.do(ctx, http.MethodDelete, fmt.Sprintf("/cart/%d", cartID), nil, nil, nil)
}
