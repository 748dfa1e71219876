package domain

import (
	"context"
	"time"
)

// Shipping and tax rules are deliberately fixed: real rate computation is
// out of scope.
const (
	FreeShippingThreshold = 2000.0
	FlatShippingCost      = 100.0
	TaxRate               = 0.18
)

type OrderFilter struct {
	Page   int
	Limit  int
	Status string
	Search string
}

// --- Cart Entities ---

type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	// Derived sums, computed at read time and never stored.
	TotalAmount float64 `json:"totalAmount"`
	TotalItems  int     `json:"totalItems"`
}

// ComputeTotals fills TotalAmount/TotalItems from the item list.
func (c *Cart) ComputeTotals() {
	c.TotalAmount = 0
	c.TotalItems = 0
	for _, item := range c.Items {
		c.TotalAmount += item.Price * float64(item.Quantity)
		c.TotalItems += item.Quantity
	}
}

// CartItem is one (product, size) line. Price is captured at
// insertion/update time from the resolved variant price; later product
// price edits do not change it.
type CartItem struct {
	ID        string  `json:"id"`
	CartID    string  `json:"cartId"`
	ProductID string  `json:"productId"`
	Product   Product `json:"product"`
	Quantity  int     `json:"quantity"`
	Size      *string `json:"size"`
	Price     float64 `json:"price"`
}

// --- Order Entities ---

// Order is immutable after creation except through the status state
// machine. Items are frozen deep copies of cart lines so later catalog
// edits or deletions never alter order history.
type Order struct {
	ID              string      `json:"id"`
	OrderNumber     string      `json:"orderNumber"`
	UserID          string      `json:"userId"`
	Items           []OrderItem `json:"items"`
	ShippingAddress JSONB       `json:"shippingAddress"`
	PaymentMethod   string      `json:"paymentMethod"`
	PaymentStatus   string      `json:"paymentStatus"`
	Subtotal        float64     `json:"subtotal"`
	ShippingCost    float64     `json:"shippingCost"`
	Tax             float64     `json:"tax"`
	TotalAmount     float64     `json:"totalAmount"`
	Status          string      `json:"orderStatus"`
	TrackingNumber  *string     `json:"trackingNumber"`
	DeliveredAt     *time.Time  `json:"deliveredAt"`
	CancelledAt     *time.Time  `json:"cancelledAt"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// OrderItem is a frozen snapshot of a cart line at checkout time.
type OrderItem struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"orderId"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
	Size      *string `json:"size"`
	Color     string  `json:"color"`
	Price     float64 `json:"price"`
}

// ComputeOrderTotals applies the fixed shipping threshold and tax rate to
// a subtotal. Totals are computed once at order creation and never again.
func ComputeOrderTotals(subtotal float64) (shippingCost, tax, total float64) {
	shippingCost = FlatShippingCost
	if subtotal > FreeShippingThreshold {
		shippingCost = 0
	}
	tax = subtotal * TaxRate
	return shippingCost, tax, subtotal + shippingCost + tax
}

// --- Interfaces ---

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetByUserID(ctx context.Context, userID string) ([]Order, error)
	GetAll(ctx context.Context, filter OrderFilter) ([]Order, int64, error)
	// UpdateStatus persists status, tracking number and the transition
	// timestamps that are set on the order.
	UpdateStatus(ctx context.Context, order *Order) error

	// Cart
	GetCartByUserID(ctx context.Context, userID string) (*Cart, error)
	CreateCart(ctx context.Context, cart *Cart) error
	GetCartItems(ctx context.Context, cartID string) ([]CartItem, error)
	// UpsertCartItem adds quantity to an existing (product, size) line and
	// refreshes its price, or appends a new line.
	UpsertCartItem(ctx context.Context, cartID, productID string, size *string, quantity int, price float64) error
	UpdateCartItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error
	RemoveCartItem(ctx context.Context, cartID, itemID string) error
	ClearCart(ctx context.Context, cartID string) error

	HasDeliveredProduct(ctx context.Context, userID, productID string) (bool, error)
}
