package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart defines the struct for the 'carts' table.
// There is exactly one cart per user.
type Cart struct {
	ID          int64           `json:"id" db:"id"`
	UserID      int64           `json:"userId" db:"user_id"`
	Items       []CartItem      `json:"items" db:"-"`
	TotalAmount decimal.Decimal `json:"totalAmount" db:"total_amount"`
	ItemCount   int             `json:"itemCount" db:"item_count"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// CartItem defines the struct for the 'cart_items' table.
type CartItem struct {
	ID        int64     `json:"id" db:"id"`
	CartID    int64     `json:"cartId" db:"cart_id"`
	ProductID int64     `json:"productId" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	AddedAt   time.Time `json:"addedAt" db:"added_at"`

	// Joined live product; nil when the product no longer exists.
	Product *ProductSummary `json:"product" db:"-"`
}

// FindItem returns the item with the given id, or nil.
func (c *Cart) FindItem(itemID int64) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}
