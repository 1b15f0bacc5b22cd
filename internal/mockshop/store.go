package mockshop

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"flora-shops.com/internal/shop"
)

// User is a provider account plus its backend profile fields.
type User struct {
	ID        string
	Email     string
	Username  string
	Password  string
	Role      shop.Role
	Confirmed bool
	// Code is the pending email confirmation code.
	Code string
}

type sellerRecord struct {
	Application shop.SellerApplication
	Status      shop.SellerStatus
}

// Store is the in-memory world the stub backend serves. Everything lives for
// the process lifetime; restarting the stub resets the shop.
type Store struct {
	mu sync.Mutex

	users   map[string]*User // keyed by email
	byID    map[string]*User
	flowers map[int64]*shop.Flower
	owners  map[int64]string // flower id -> seller user id
	carts   map[string][]shop.CartItem
	orders  map[string][]*shop.Order
	addrs   map[string][]shop.Address
	sellers map[string]*sellerRecord

	nextFlowerID int64
	nextCartID   int64
	nextOrderID  int64
	nextAddrID   int64

	now func() time.Time
}

// NewStore builds a store seeded with a small public catalog.
func NewStore() *Store {
	s := &Store{
		users:        make(map[string]*User),
		byID:         make(map[string]*User),
		flowers:      make(map[int64]*shop.Flower),
		owners:       make(map[int64]string),
		carts:        make(map[string][]shop.CartItem),
		orders:       make(map[string][]*shop.Order),
		addrs:        make(map[string][]shop.Address),
		sellers:      make(map[string]*sellerRecord),
		nextFlowerID: 1,
		nextCartID:   1,
		nextOrderID:  1,
		nextAddrID:   1,
		now:          time.Now,
	}
	s.seed()
	return s
}

func (s *Store) seed() {
	for _, f := range []shop.Flower{
		{Name: "Sincere Violet", Price: 1280, Stock: 5, Category: "Legacy", Description: "Named after the giver. Eternal sincerity for those who cannot say it aloud."},
		{Name: "White Camellia", Price: 980, Stock: 12, Category: "Classic", Description: "Unblemished white, like a first meeting on a snowfield."},
		{Name: "Royal Red Rose", Price: 1520, Stock: 20, Category: "Romantic", Description: "A cliché, and still the plainest confession of love."},
	} {
		f := f
		f.ID = s.nextFlowerID
		s.nextFlowerID++
		s.flowers[f.ID] = &f
	}
}

// Users --------------------------------------------------------------------

// CreateUser registers an unconfirmed account with a pending code.
func (s *Store) CreateUser(email, password, code string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	if _, ok := s.users[email]; ok {
		return nil, errUserExists
	}
	u := &User{
		ID:       fmt.Sprintf("usr-%d", len(s.users)+1),
		Email:    email,
		Username: strings.SplitN(email, "@", 2)[0],
		Password: password,
		Role:     shop.RoleCustomer,
		Code:     code,
	}
	s.users[email] = u
	s.byID[u.ID] = u
	return u, nil
}

// FindUser looks an account up by email.
func (s *Store) FindUser(email string) (*User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	return u, ok
}

// FindUserByID looks an account up by id.
func (s *Store) FindUserByID(id string) (*User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	return u, ok
}

// Confirm marks the account confirmed when the code matches.
func (s *Store) Confirm(email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return errNoSuchUser
	}
	if u.Code != code {
		return errCodeMismatch
	}
	u.Confirmed = true
	u.Code = ""
	return nil
}

// Profile returns the synced backend profile for an account.
func (s *Store) Profile(id string) (shop.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return shop.UserProfile{}, false
	}
	return shop.UserProfile{ID: u.ID, Email: u.Email, Username: u.Username, Role: u.Role}, true
}

// Catalog ------------------------------------------------------------------

// ListFlowers returns the whole public catalog.
func (s *Store) ListFlowers() []shop.Flower {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]shop.Flower, 0, len(s.flowers))
	for id := int64(1); id < s.nextFlowerID; id++ {
		if f, ok := s.flowers[id]; ok {
			out = append(out, *f)
		}
	}
	return out
}

// GetFlower returns one product.
func (s *Store) GetFlower(id int64) (shop.Flower, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flowers[id]
	if !ok {
		return shop.Flower{}, false
	}
	return *f, true
}

// CreateFlower adds a seller-owned product.
func (s *Store) CreateFlower(sellerID string, data shop.FlowerData) shop.Flower {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := shop.Flower{
		ID:          s.nextFlowerID,
		Name:        data.Name,
		Description: data.Description,
		Price:       data.Price,
		Stock:       data.Stock,
		Category:    data.Category,
		ImageURL:    data.ImageURL,
	}
	s.nextFlowerID++
	s.flowers[f.ID] = &f
	s.owners[f.ID] = sellerID
	return f
}

// UpdateFlower replaces a seller-owned product.
func (s *Store) UpdateFlower(sellerID string, id int64, data shop.FlowerData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owners[id] != sellerID {
		return errNoSuchFlower
	}
	f, ok := s.flowers[id]
	if !ok {
		return errNoSuchFlower
	}
	f.Name = data.Name
	f.Description = data.Description
	f.Price = data.Price
	f.Stock = data.Stock
	f.Category = data.Category
	f.ImageURL = data.ImageURL
	return nil
}

// DeleteFlower removes a seller-owned product.
func (s *Store) DeleteFlower(sellerID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owners[id] != sellerID {
		return errNoSuchFlower
	}
	delete(s.flowers, id)
	delete(s.owners, id)
	return nil
}

// Inventory lists a seller's own products.
func (s *Store) Inventory(sellerID string) []shop.Flower {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []shop.Flower{}
	for id, owner := range s.owners {
		if owner == sellerID {
			if f, ok := s.flowers[id]; ok {
				out = append(out, *f)
			}
		}
	}
	return out
}

// Cart ---------------------------------------------------------------------

// CartItems returns the user's cart.
func (s *Store) CartItems(userID string) []shop.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]shop.CartItem, len(s.carts[userID]))
	copy(out, s.carts[userID])
	return out
}

// AddToCart merges a flower into the user's cart.
func (s *Store) AddToCart(userID string, flowerID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flowers[flowerID]
	if !ok {
		return errNoSuchFlower
	}
	items := s.carts[userID]
	for i := range items {
		if items[i].FlowerID == flowerID {
			items[i].Quantity += quantity
			items[i].Subtotal = items[i].Price * int64(items[i].Quantity)
			s.carts[userID] = items
			return nil
		}
	}
	items = append(items, shop.CartItem{
		ID:       s.nextCartID,
		FlowerID: flowerID,
		Name:     f.Name,
		Price:    f.Price,
		ImageURL: f.ImageURL,
		Quantity: quantity,
		Subtotal: f.Price * int64(quantity),
	})
	s.nextCartID++
	s.carts[userID] = items
	return nil
}

// UpdateCartQuantity sets a line's quantity.
func (s *Store) UpdateCartQuantity(userID string, cartID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.carts[userID]
	for i := range items {
		if items[i].ID == cartID {
			items[i].Quantity = quantity
			items[i].Subtotal = items[i].Price * int64(quantity)
			s.carts[userID] = items
			return nil
		}
	}
	return errNoSuchCartItem
}

// RemoveFromCart drops a line.
func (s *Store) RemoveFromCart(userID string, cartID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.carts[userID]
	for i := range items {
		if items[i].ID == cartID {
			s.carts[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return errNoSuchCartItem
}

// Orders -------------------------------------------------------------------

// Checkout turns the user's cart into an order and empties the cart.
func (s *Store) Checkout(userID string, req shop.CheckoutRequest) (*shop.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.carts[userID]
	if len(items) == 0 {
		return nil, errEmptyCart
	}
	order := &shop.Order{
		ID:              s.nextOrderID,
		Status:          "PAID",
		CreatedAt:       s.now().UTC(),
		ShippingAddress: req.ShippingAddress,
		ReceiverName:    req.ReceiverName,
		ReceiverPhone:   req.ReceiverPhone,
	}
	s.nextOrderID++
	for _, it := range items {
		order.TotalPrice += it.Subtotal
		order.Items = append(order.Items, shop.OrderItem{
			ID:              it.ID,
			FlowerName:      it.Name,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.Price,
			ImageURL:        it.ImageURL,
		})
	}
	s.orders[userID] = append(s.orders[userID], order)
	delete(s.carts, userID)
	return order, nil
}

// Orders returns the user's order history.
func (s *Store) Orders(userID string) []shop.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]shop.Order, 0, len(s.orders[userID]))
	for _, o := range s.orders[userID] {
		out = append(out, *o)
	}
	return out
}

// UpdateOrderStatus transitions one of the user's orders.
func (s *Store) UpdateOrderStatus(userID string, orderID int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders[userID] {
		if o.ID == orderID {
			o.Status = status
			return nil
		}
	}
	return errNoSuchOrder
}

// AllOrders flattens every order; the stub treats each seller as seeing the
// whole shop's order flow.
func (s *Store) AllOrders() []shop.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []shop.Order{}
	for _, list := range s.orders {
		for _, o := range list {
			out = append(out, *o)
		}
	}
	return out
}

// ShipOrder marks any order shipped.
func (s *Store) ShipOrder(orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range s.orders {
		for _, o := range list {
			if o.ID == orderID {
				o.Status = "SHIPPED"
				return nil
			}
		}
	}
	return errNoSuchOrder
}

// Addresses ----------------------------------------------------------------

// Addresses returns the user's address book.
func (s *Store) Addresses(userID string) []shop.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]shop.Address, len(s.addrs[userID]))
	copy(out, s.addrs[userID])
	return out
}

// SaveAddress creates or updates an address.
func (s *Store) SaveAddress(userID string, addr shop.Address) shop.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	if addr.ID != 0 {
		for i := range s.addrs[userID] {
			if s.addrs[userID][i].ID == addr.ID {
				s.addrs[userID][i] = addr
				return addr
			}
		}
	}
	addr.ID = s.nextAddrID
	s.nextAddrID++
	s.addrs[userID] = append(s.addrs[userID], addr)
	return addr
}

// DeleteAddress removes an address.
func (s *Store) DeleteAddress(userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.addrs[userID] {
		if s.addrs[userID][i].ID == id {
			s.addrs[userID] = append(s.addrs[userID][:i], s.addrs[userID][i+1:]...)
			return nil
		}
	}
	return errNoSuchAddress
}

// Seller -------------------------------------------------------------------

// ApplySeller files an application; re-applying resets it to pending.
func (s *Store) ApplySeller(userID string, app shop.SellerApplication) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sellers[userID] = &sellerRecord{Application: app, Status: shop.StatusPendingReview}
}

// SellerStatus returns the review state, NONE for never-applied users.
func (s *Store) SellerStatus(userID string) shop.SellerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sellers[userID]
	if !ok {
		return shop.StatusNone
	}
	return rec.Status
}

// ApproveSeller flips an application to approved and upgrades the role.
// The role change reaches clients only through freshly issued tokens.
func (s *Store) ApproveSeller(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sellers[userID]
	if !ok {
		return errNoSuchUser
	}
	rec.Status = shop.StatusApproved
	if u, ok := s.byID[userID]; ok {
		u.Role = shop.RoleSeller
	}
	return nil
}
