package mockshop

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"flora-shops.com/internal/shop"
)

// Healthz reports liveness.
func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "mockshop",
		"version": a.version,
	})
}

// Me serves the synced backend profile.
func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	profile, ok := a.store.Profile(userFrom(r).ID)
	if !ok {
		writeError(w, r, http.StatusNotFound, "profile not found")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Catalog ------------------------------------------------------------------

// ListFlowers serves the public catalog with optional paging. Paged requests
// get the envelope shape, plain requests the bare array, matching the two
// response shapes seen in production.
func (a *API) ListFlowers(w http.ResponseWriter, r *http.Request) {
	flowers := a.store.ListFlowers()

	pageParam := r.URL.Query().Get("page")
	if pageParam == "" {
		writeJSON(w, http.StatusOK, flowers)
		return
	}

	page, _ := strconv.Atoi(pageParam)
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if size < 1 {
		size = 10
	}
	start := (page - 1) * size
	if start > len(flowers) {
		start = len(flowers)
	}
	end := start + size
	if end > len(flowers) {
		end = len(flowers)
	}
	writeJSON(w, http.StatusOK, shop.FlowerPage{
		List:     flowers[start:end],
		Total:    len(flowers),
		Page:     page,
		PageSize: size,
	})
}

// GetFlower serves one product.
func (a *API) GetFlower(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid flower id")
		return
	}
	f, ok := a.store.GetFlower(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "flower not found")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// Cart ---------------------------------------------------------------------

// Cart serves the caller's cart lines.
func (a *API) Cart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.store.CartItems(userFrom(r).ID))
}

// AddToCart merges a flower into the caller's cart.
func (a *API) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FlowerID int64 `json:"flowerId"`
		Quantity int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	if err := a.store.AddToCart(userFrom(r).ID, req.FlowerID, req.Quantity); err != nil {
		writeError(w, r, http.StatusNotFound, "flower not found")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "added"})
}

// UpdateCartItem sets a line quantity.
func (a *API) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid cart id")
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity < 1 {
		writeError(w, r, http.StatusBadRequest, "quantity must be at least 1")
		return
	}
	if err := a.store.UpdateCartQuantity(userFrom(r).ID, id, req.Quantity); err != nil {
		writeError(w, r, http.StatusNotFound, "cart item not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "updated"})
}

// RemoveCartItem drops a line.
func (a *API) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid cart id")
		return
	}
	if err := a.store.RemoveFromCart(userFrom(r).ID, id); err != nil {
		writeError(w, r, http.StatusNotFound, "cart item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Orders -------------------------------------------------------------------

// Checkout places an order from the caller's cart.
func (a *API) Checkout(w http.ResponseWriter, r *http.Request) {
	var req shop.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.ShippingAddress == "" || req.ReceiverName == "" || req.ReceiverPhone == "" {
		writeError(w, r, http.StatusBadRequest, "receiver name, phone and shipping address are required")
		return
	}
	order, err := a.store.Checkout(userFrom(r).ID, req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "cart is empty")
		return
	}
	writeJSON(w, http.StatusOK, shop.CheckoutResponse{Message: "ok", OrderID: order.ID})
}

// Orders serves the caller's order history.
func (a *API) Orders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.store.Orders(userFrom(r).ID))
}

// UpdateOrderStatus transitions one of the caller's orders.
func (a *API) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid order id")
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeError(w, r, http.StatusBadRequest, "status is required")
		return
	}
	if err := a.store.UpdateOrderStatus(userFrom(r).ID, id, req.Status); err != nil {
		writeError(w, r, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "updated"})
}

// Addresses ----------------------------------------------------------------

// Addresses serves the caller's address book.
func (a *API) Addresses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.store.Addresses(userFrom(r).ID))
}

// SaveAddress creates or updates an address.
func (a *API) SaveAddress(w http.ResponseWriter, r *http.Request) {
	var addr shop.Address
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	writeJSON(w, http.StatusOK, a.store.SaveAddress(userFrom(r).ID, addr))
}

// DeleteAddress removes an address.
func (a *API) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid address id")
		return
	}
	if err := a.store.DeleteAddress(userFrom(r).ID, id); err != nil {
		writeError(w, r, http.StatusNotFound, "address not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Seller -------------------------------------------------------------------

// SellerApply files a seller application.
func (a *API) SellerApply(w http.ResponseWriter, r *http.Request) {
	var app shop.SellerApplication
	if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	if app.RealName == "" || app.IDCardNumber == "" {
		writeError(w, r, http.StatusBadRequest, "real name and id card number are required")
		return
	}
	a.store.ApplySeller(userFrom(r).ID, app)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Application submitted"})
}

// SellerStatus serves the caller's review state.
func (a *API) SellerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.store.SellerStatus(userFrom(r).ID))
}

func (a *API) requireSeller(w http.ResponseWriter, r *http.Request) *User {
	u := userFrom(r)
	if !u.Role.IsSeller() {
		writeError(w, r, http.StatusForbidden, "seller role required")
		return nil
	}
	return u
}

// SellerInventory lists the caller's products.
func (a *API) SellerInventory(w http.ResponseWriter, r *http.Request) {
	u := a.requireSeller(w, r)
	if u == nil {
		return
	}
	writeJSON(w, http.StatusOK, a.store.Inventory(u.ID))
}

// SellerCreateFlower lists a new product.
func (a *API) SellerCreateFlower(w http.ResponseWriter, r *http.Request) {
	u := a.requireSeller(w, r)
	if u == nil {
		return
	}
	var data shop.FlowerData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil || data.Name == "" {
		writeError(w, r, http.StatusBadRequest, "flower name is required")
		return
	}
	writeJSON(w, http.StatusCreated, a.store.CreateFlower(u.ID, data))
}

// SellerUpdateFlower replaces a product.
func (a *API) SellerUpdateFlower(w http.ResponseWriter, r *http.Request) {
	u := a.requireSeller(w, r)
	if u == nil {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid flower id")
		return
	}
	var data shop.FlowerData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := a.store.UpdateFlower(u.ID, id, data); err != nil {
		writeError(w, r, http.StatusNotFound, "flower not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "updated"})
}

// SellerDeleteFlower removes a product.
func (a *API) SellerDeleteFlower(w http.ResponseWriter, r *http.Request) {
	u := a.requireSeller(w, r)
	if u == nil {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid flower id")
		return
	}
	if err := a.store.DeleteFlower(u.ID, id); err != nil {
		writeError(w, r, http.StatusNotFound, "flower not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SellerUploadURL grants a presigned upload. The stub signs nothing: the
// grant simply points back at its own PUT /uploads sink.
func (a *API) SellerUploadURL(w http.ResponseWriter, r *http.Request) {
	u := a.requireSeller(w, r)
	if u == nil {
		return
	}
	name := r.URL.Query().Get("fileName")
	if name == "" {
		name = "upload.bin"
	}
	key := fmt.Sprintf("flowers/%s/%s", u.ID, name)
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	writeJSON(w, http.StatusOK, shop.UploadTicket{
		UploadURL: fmt.Sprintf("%s://%s/uploads/%s", scheme, r.Host, key),
		Key:       key,
	})
}

// AcceptUpload is the stub's object-storage sink; bytes are discarded.
func (a *API) AcceptUpload(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// SellerOrders serves incoming orders.
func (a *API) SellerOrders(w http.ResponseWriter, r *http.Request) {
	u := a.requireSeller(w, r)
	if u == nil {
		return
	}
	writeJSON(w, http.StatusOK, a.store.AllOrders())
}

// SellerShip marks an order shipped.
func (a *API) SellerShip(w http.ResponseWriter, r *http.Request) {
	u := a.requireSeller(w, r)
	if u == nil {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid order id")
		return
	}
	if err := a.store.ShipOrder(id); err != nil {
		writeError(w, r, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "shipped"})
}

// ApproveSeller is the dev-only review-queue shortcut.
func (a *API) ApproveSeller(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.store.ApproveSeller(id); err != nil {
		writeError(w, r, http.StatusNotFound, "no application for user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "approved"})
}

func pathID(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, key), 10, 64)
}
