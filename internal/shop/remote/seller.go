package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"flora-shops.com/internal/obs"
	"flora-shops.com/internal/shop"
)

// SellerRepo is the seller onboarding and inventory surface.
type SellerRepo struct {
	c *Client
}

// Apply submits a seller application for review.
func (r *SellerRepo) Apply(ctx context.Context, app shop.SellerApplication) error {
	return r.c.do(ctx, http.MethodPost, "/seller/apply", nil, app, nil)
}

// Status returns the application review state. A fetch failure degrades to
// StatusNone so first-time visitors and backend blips look the same.
func (r *SellerRepo) Status(ctx context.Context) shop.SellerStatus {
	var raw string
	if err := r.c.do(ctx, http.MethodGet, "/seller/status", nil, nil, &raw); err != nil {
		obs.Error("seller status fetch failed", err, nil)
		return shop.StatusNone
	}
	return shop.ParseSellerStatus(raw)
}

// Inventory lists the seller's own flowers.
func (r *SellerRepo) Inventory(ctx context.Context) ([]shop.Flower, error) {
	var flowers []shop.Flower
	if err := r.c.do(ctx, http.MethodGet, "/seller/flowers", nil, nil, &flowers); err != nil {
		return nil, err
	}
	return flowers, nil
}

// CreateFlower lists a new product.
func (r *SellerRepo) CreateFlower(ctx context.Context, data shop.FlowerData) error {
	return r.c.do(ctx, http.MethodPost, "/seller/flowers", nil, data, nil)
}

// UpdateFlower replaces an existing product.
func (r *SellerRepo) UpdateFlower(ctx context.Context, id int64, data shop.FlowerData) error {
	return r.c.do(ctx, http.MethodPut, fmt.Sprintf("/seller/flowers/%d", id), nil, data, nil)
}

// DeleteFlower removes a product from the inventory.
func (r *SellerRepo) DeleteFlower(ctx context.Context, id int64) error {
	return r.c.do(ctx, http.MethodDelete, fmt.Sprintf("/seller/flowers/%d", id), nil, nil, nil)
}

// UploadURL obtains a presigned object-storage upload grant.
func (r *SellerRepo) UploadURL(ctx context.Context, contentType, fileName string) (shop.UploadTicket, error) {
	q := url.Values{}
	q.Set("contentType", contentType)
	q.Set("fileName", fileName)
	var ticket shop.UploadTicket
	err := r.c.do(ctx, http.MethodGet, "/seller/flowers/upload-url", q, nil, &ticket)
	return ticket, err
}

// UploadImage puts file bytes straight to object storage using a presigned
// grant. This deliberately bypasses the API transport: the URL is
// pre-authorized and the target is not the backend.
func (r *SellerRepo) UploadImage(ctx context.Context, ticket shop.UploadTicket, body io.Reader, size int64, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, ticket.UploadURL, body)
	if err != nil {
		return fmt.Errorf("remote: build upload: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if size > 0 {
		req.ContentLength = size
	}
	resp, err := r.c.uploadc.Do(req)
	if err != nil {
		return fmt.Errorf("remote: upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("remote: upload rejected with status %d", resp.StatusCode)
	}
	return nil
}

// Orders lists the seller's incoming orders.
func (r *SellerRepo) Orders(ctx context.Context) ([]shop.Order, error) {
	var orders []shop.Order
	if err := r.c.do(ctx, http.MethodGet, "/seller/orders", nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Ship marks an incoming order as shipped.
func (r *SellerRepo) Ship(ctx context.Context, orderID int64) error {
	return r.c.do(ctx, http.MethodPatch, fmt.Sprintf("/seller/orders/%d/ship", orderID), nil, nil, nil)
}
