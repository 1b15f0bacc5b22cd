package shop

import "time"

// Role is the application role that drives authorization decisions.
// It comes from the synced backend profile, never from provider session state.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleSeller   Role = "SELLER"
	RoleAdmin    Role = "ADMIN"
)

// IsSeller reports whether the role grants access to the merchant zone.
func (r Role) IsSeller() bool {
	return r == RoleSeller || r == RoleAdmin
}

// UserProfile is the canonical user record served by GET /api/users/me.
type UserProfile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Flower is a catalog product.
type Flower struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
	Category    string `json:"category,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// FlowerPage is the paged envelope some catalog deployments return.
// The client also accepts a bare array; see remote.Flowers.List.
type FlowerPage struct {
	List     []Flower `json:"list"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
}

// FlowerData is the seller-side create/update payload.
type FlowerData struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl"`
}

// CartItem is one line of the authenticated user's cart.
type CartItem struct {
	ID       int64  `json:"id"`
	FlowerID int64  `json:"flowerId"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	ImageURL string `json:"imageUrl,omitempty"`
	Quantity int    `json:"quantity"`
	Subtotal int64  `json:"subtotal"`
}

// OrderItem is one purchased line inside an order.
type OrderItem struct {
	ID              int64  `json:"id"`
	FlowerName      string `json:"flowerName"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase int64  `json:"priceAtPurchase"`
	ImageURL        string `json:"imageUrl,omitempty"`
}

// Order is a placed order as returned by the order history endpoints.
type Order struct {
	ID              int64       `json:"id"`
	TotalPrice      int64       `json:"totalPrice"`
	Status          string      `json:"status"`
	CreatedAt       time.Time   `json:"createdAt"`
	ShippingAddress string      `json:"shippingAddress"`
	ReceiverName    string      `json:"receiverName,omitempty"`
	ReceiverPhone   string      `json:"receiverPhone,omitempty"`
	ReceiverEmail   string      `json:"receiverEmail,omitempty"`
	Items           []OrderItem `json:"items"`
}

// CheckoutRequest is the payload of POST /api/orders/checkout.
type CheckoutRequest struct {
	ReceiverName    string `json:"receiverName"`
	ReceiverPhone   string `json:"receiverPhone"`
	ShippingAddress string `json:"shippingAddress"`
}

// CheckoutResponse is the backend's checkout acknowledgement.
type CheckoutResponse struct {
	Message string `json:"message"`
	OrderID int64  `json:"orderId"`
}

// Address is an address-book entry.
type Address struct {
	ID            int64  `json:"id,omitempty"`
	RecipientName string `json:"recipientName"`
	PhoneNumber   string `json:"phoneNumber"`
	FullAddress   string `json:"fullAddress"`
	Default       bool   `json:"default"`
}

// SellerApplication is the onboarding payload of POST /api/seller/apply.
type SellerApplication struct {
	RealName        string `json:"realName"`
	IDCardNumber    string `json:"idCardNumber"`
	PhoneNumber     string `json:"phoneNumber"`
	BusinessAddress string `json:"businessAddress"`
}

// SellerStatus is the review state of a seller application.
type SellerStatus string

const (
	StatusNone          SellerStatus = "NONE"
	StatusPendingReview SellerStatus = "PENDING_REVIEW"
	StatusApproved      SellerStatus = "APPROVED"
	StatusRejected      SellerStatus = "REJECTED"
)

// ParseSellerStatus maps a backend status string onto the closed status set.
// Legacy deployments returned PENDING/ACTIVE; anything unknown decays to NONE.
func ParseSellerStatus(s string) SellerStatus {
	switch SellerStatus(s) {
	case StatusPendingReview, StatusApproved, StatusRejected, StatusNone:
		return SellerStatus(s)
	}
	switch s {
	case "PENDING":
		return StatusPendingReview
	case "ACTIVE":
		return StatusApproved
	}
	return StatusNone
}

// UploadTicket is a presigned object-storage upload grant.
type UploadTicket struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
}
