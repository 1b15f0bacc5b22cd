package remote

import (
	"context"
	"fmt"
	"net/http"

	"flora-shops.com/internal/shop"
)

// AddressesRepo is the address-book CRUD surface.
type AddressesRepo struct {
	c *Client
}

// List fetches the current user's saved addresses.
func (r *AddressesRepo) List(ctx context.Context) ([]shop.Address, error) {
	var addrs []shop.Address
	if err := r.c.do(ctx, http.MethodGet, "/addresses", nil, nil, &addrs); err != nil {
		return nil, err
	}
	return addrs, nil
}

// Save creates or updates an address and returns the stored record with its
// assigned id.
func (r *AddressesRepo) Save(ctx context.Context, addr shop.Address) (shop.Address, error) {
	var saved shop.Address
	err := r.c.do(ctx, http.MethodPost, "/addresses", nil, addr, &saved)
	return saved, err
}

// Delete removes an address.
func (r *AddressesRepo) Delete(ctx context.Context, id int64) error {
	return r.c.do(ctx, http.MethodDelete, fmt.Sprintf("/addresses/%d", id), nil, nil, nil)
}
