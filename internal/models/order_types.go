package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status values.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// orderTransitions lists the statuses reachable from each status.
// Delivered and cancelled orders are final.
var orderTransitions = map[string][]string{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderShipped, OrderCancelled},
	OrderShipped:   {OrderDelivered},
	OrderDelivered: nil,
	OrderCancelled: nil,
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransition reports whether an order may move from one status to another.
// Setting the current status again is always allowed.
func CanTransition(from, to string) bool {
	if from == to {
		return ValidOrderStatus(to)
	}
	return contains(orderTransitions[from], to)
}

// ShippingAddress is the optional structured delivery address of an order.
type ShippingAddress struct {
	Street  string `json:"street" db:"shipping_street"`
	City    string `json:"city" db:"shipping_city"`
	State   string `json:"state" db:"shipping_state"`
	ZipCode string `json:"zipCode" db:"shipping_zip_code"`
	Country string `json:"country" db:"shipping_country"`
}

// Order is the model for the 'orders' table.
type Order struct {
	ID                int64           `json:"id" db:"id"`
	OrderNumber       string          `json:"orderNumber" db:"order_number"`
	UserID            int64           `json:"userId" db:"user_id"`
	Items             []OrderLine     `json:"items" db:"-"`
	TotalAmount       decimal.Decimal `json:"totalAmount" db:"total_amount"`
	Status            string          `json:"status" db:"status"`
	ShippingAddress   ShippingAddress `json:"shippingAddress"`
	TrackingNumber    *string         `json:"trackingNumber" db:"tracking_number"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery" db:"estimated_delivery"`
	Notes             string          `json:"notes" db:"notes"`
	CreatedAt         time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderLine is the model for the 'order_items' table: a point-in-time copy
// of the purchased product. It is not tied to the live product row.
type OrderLine struct {
	ID        int64           `json:"id" db:"id"`
	OrderID   int64           `json:"orderId" db:"order_id"`
	ProductID int64           `json:"productId" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"` // unit price at purchase time
	Title     string          `json:"title" db:"title"`
	Image     string          `json:"image" db:"image"`

	// Live product for display only; nil once the product is deleted.
	Product *ProductSummary `json:"product" db:"-"`
}

// Subtotal is price times quantity.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
