// Package store persists products, carts, orders and users.
//
// Reads of carts and orders come back expanded: every cart item and order
// line carries a summary of its live product (nil once the product is gone).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/01moynul/ecofinds-golang/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrNotAvailable = errors.New("product is not available")
	ErrDuplicate    = errors.New("duplicate key")
)

// ProductFilter selects a page of available products.
type ProductFilter struct {
	Category string // exact match, empty for all
	Search   string // case-insensitive substring of title or description
	Offset   int
	Limit    int
}

type Products interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	// ListProducts returns one page of available products, newest first,
	// and the number of products matching the filter.
	ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int, error)
	ListProductsBySeller(ctx context.Context, sellerID int64) ([]models.Product, error)
	ListProductsByBuyer(ctx context.Context, buyerID int64) ([]models.Product, error)
	// UpdateProduct rewrites the editable fields of a product. It returns
	// ErrNotAvailable when the product has been sold.
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	// MarkSold flips an available product to sold and records its buyer.
	// It returns ErrNotAvailable when the product is missing or not available.
	MarkSold(ctx context.Context, productID, buyerID int64, at time.Time) error
}

type Carts interface {
	GetCart(ctx context.Context, userID int64) (*models.Cart, error)
	CreateCart(ctx context.Context, cart *models.Cart) error
	// AddCartItem inserts a line or adds quantity to the existing line for the product.
	AddCartItem(ctx context.Context, cartID, productID int64, quantity int, at time.Time) error
	SetCartItemQuantity(ctx context.Context, cartID, itemID int64, quantity int) error
	DeleteCartItem(ctx context.Context, cartID, itemID int64) error
	// ClearCart removes every line and zeroes the stored totals.
	ClearCart(ctx context.Context, cartID int64, at time.Time) error
	SaveCartTotals(ctx context.Context, cartID int64, total decimal.Decimal, count int, at time.Time) error
}

type Orders interface {
	// CreateOrder inserts the order with its lines. A reused order number
	// yields ErrDuplicate.
	CreateOrder(ctx context.Context, o *models.Order) error
	UpdateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error)
	ListOrders(ctx context.Context, userID int64) ([]models.Order, error)
	// ShipOrders moves confirmed orders created at or before cutoff to shipped.
	ShipOrders(ctx context.Context, cutoff, at time.Time) (int64, error)
	// DeliverOrders moves shipped orders whose estimated delivery is due to delivered.
	DeliverOrders(ctx context.Context, at time.Time) (int64, error)
}

type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Store is the full persistence surface used by the services.
type Store interface {
	Products
	Carts
	Orders
	Users

	// InTx runs fn against a transactional view of the store. Everything fn
	// writes is committed together when it returns nil and discarded otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

var (
	_ Store = (*MySQL)(nil)
	_ Store = (*Memory)(nil)
)
