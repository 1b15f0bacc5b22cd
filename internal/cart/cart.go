// Package cart holds the local view of the user's cart and the checkout
// action over it. The remote repositories stay stateless; this container is
// the only writer of the local line items.
package cart

import (
	"context"
	"errors"
	"sync"

	"flora-shops.com/internal/obs"
	"flora-shops.com/internal/shop"
)

// ErrNotLoggedIn is returned for cart actions attempted without a session.
var ErrNotLoggedIn = errors.New("cart: login required")

// TokenSource reports whether a bearer credential is currently held.
type TokenSource interface {
	Token() string
}

// CartAPI is the remote surface the container drives (remote.CartRepo).
type CartAPI interface {
	List(ctx context.Context) ([]shop.CartItem, error)
	Add(ctx context.Context, flowerID int64, quantity int) error
	UpdateQuantity(ctx context.Context, cartID int64, quantity int) error
	Remove(ctx context.Context, cartID int64) error
}

// CheckoutAPI is the order placement surface (remote.OrdersRepo).
type CheckoutAPI interface {
	Checkout(ctx context.Context, req shop.CheckoutRequest) (shop.CheckoutResponse, error)
}

// Result is the outcome of a checkout attempt.
type Result struct {
	Success bool
	OrderID int64
	Err     string
}

// Cart is the mutable cart state container.
type Cart struct {
	api    CartAPI
	orders CheckoutAPI
	tokens TokenSource

	mu    sync.Mutex
	items []shop.CartItem
}

// New constructs an empty cart bound to the remote repositories.
func New(api CartAPI, orders CheckoutAPI, tokens TokenSource) *Cart {
	return &Cart{api: api, orders: orders, tokens: tokens}
}

// Items returns a copy of the current lines.
func (c *Cart) Items() []shop.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]shop.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// TotalItems sums line quantities.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, it := range c.items {
		total += it.Quantity
	}
	return total
}

// TotalPrice sums line subtotals.
func (c *Cart) TotalPrice() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total int64
	for _, it := range c.items {
		total += it.Subtotal
	}
	return total
}

// Fetch reloads the cart from the backend. Without a session the cart is
// simply empty, not an error.
func (c *Cart) Fetch(ctx context.Context) error {
	if c.tokens.Token() == "" {
		c.setItems(nil)
		return nil
	}
	items, err := c.api.List(ctx)
	if err != nil {
		return err
	}
	c.setItems(items)
	return nil
}

// Add puts a flower into the cart and refreshes the local view.
func (c *Cart) Add(ctx context.Context, flowerID int64, quantity int) error {
	if c.tokens.Token() == "" {
		return ErrNotLoggedIn
	}
	if err := c.api.Add(ctx, flowerID, quantity); err != nil {
		return err
	}
	return c.Fetch(ctx)
}

// ChangeQuantity adjusts a line by delta. The local view is updated
// optimistically; on a backend failure the cart is refetched, reverting the
// optimistic write. Dropping to zero or below removes the line.
func (c *Cart) ChangeQuantity(ctx context.Context, cartID int64, delta int) error {
	c.mu.Lock()
	var current int
	found := false
	for _, it := range c.items {
		if it.ID == cartID {
			current = it.Quantity
			found = true
			break
		}
	}
	c.mu.Unlock()
	if !found {
		return shop.ErrNotFound
	}

	newQty := current + delta
	if newQty <= 0 {
		return c.Remove(ctx, cartID)
	}

	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID == cartID {
			c.items[i].Quantity = newQty
			c.items[i].Subtotal = c.items[i].Price * int64(newQty)
		}
	}
	c.mu.Unlock()

	if err := c.api.UpdateQuantity(ctx, cartID, newQty); err != nil {
		obs.Error("quantity update failed, reverting", err, map[string]any{"cart_id": cartID})
		if ferr := c.Fetch(ctx); ferr != nil {
			return errors.Join(err, ferr)
		}
		return err
	}
	return nil
}

// Remove deletes a line; the local view drops it on success and is refetched
// on failure.
func (c *Cart) Remove(ctx context.Context, cartID int64) error {
	if err := c.api.Remove(ctx, cartID); err != nil {
		if ferr := c.Fetch(ctx); ferr != nil {
			return errors.Join(err, ferr)
		}
		return err
	}
	c.mu.Lock()
	kept := c.items[:0]
	for _, it := range c.items {
		if it.ID != cartID {
			kept = append(kept, it)
		}
	}
	c.items = kept
	c.mu.Unlock()
	return nil
}

// Checkout places the order and empties the local cart on success. Failures
// carry the backend's extracted message, never a silent drop.
func (c *Cart) Checkout(ctx context.Context, shippingAddress, receiverName, receiverPhone string) Result {
	if c.tokens.Token() == "" {
		return Result{Err: ErrNotLoggedIn.Error()}
	}
	resp, err := c.orders.Checkout(ctx, shop.CheckoutRequest{
		ShippingAddress: shippingAddress,
		ReceiverName:    receiverName,
		ReceiverPhone:   receiverPhone,
	})
	if err != nil {
		msg := "Checkout failed."
		var apiErr *shop.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return Result{Err: msg}
	}
	c.setItems(nil)
	return Result{Success: true, OrderID: resp.OrderID}
}

func (c *Cart) setItems(items []shop.CartItem) {
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}
