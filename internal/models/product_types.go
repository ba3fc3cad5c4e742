package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product status values.
const (
	ProductAvailable = "available"
	ProductPending   = "pending"
	ProductSold      = "sold"
)

// DefaultImage is served for listings created without an upload.
const DefaultImage = "/no-image.svg"

// Categories is the fixed set of listing categories.
var Categories = []string{
	"Electronics",
	"Clothing",
	"Books",
	"Home & Garden",
	"Sports & Outdoors",
	"Toys & Games",
	"Automotive",
	"Health & Beauty",
	"Other",
}

// Conditions is the fixed set of item conditions.
var Conditions = []string{"New", "Like New", "Good", "Fair", "Poor"}

// Field limits for seller-supplied text.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

func ValidCategory(c string) bool  { return contains(Categories, c) }
func ValidCondition(c string) bool { return contains(Conditions, c) }

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Product is the model for the 'products' table.
type Product struct {
	ID          int64           `json:"id" db:"id"`
	SellerID    int64           `json:"sellerId" db:"seller_id"`
	BuyerID     *int64          `json:"buyerId" db:"buyer_id"`
	Title       string          `json:"title" db:"title"`
	Description string          `json:"description" db:"description"`
	Category    string          `json:"category" db:"category"`
	Price       decimal.Decimal `json:"price" db:"price"`

	// --- Media ---
	Image  string         `json:"image" db:"image"`   // primary image URL
	Images []ProductImage `json:"images" db:"images"` // stored as JSON

	Status    string `json:"status" db:"status"`
	Condition string `json:"condition" db:"item_condition"`
	Location  string `json:"location" db:"location"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ProductImage is one hosted image of a product.
type ProductImage struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Format   string `json:"format,omitempty"`
}

// PublicIDs returns the hosting identifiers of the product's images.
func (p *Product) PublicIDs() []string {
	ids := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img.PublicID != "" {
			ids = append(ids, img.PublicID)
		}
	}
	return ids
}

// ProductSummary is the live product data shown next to cart items and order lines.
type ProductSummary struct {
	ID        int64           `json:"id"`
	SellerID  int64           `json:"sellerId"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Category  string          `json:"category"`
	Condition string          `json:"condition"`
	Location  string          `json:"location"`
	Status    string          `json:"status"`
}

// Summary projects the product onto the fields used by joined reads.
func (p *Product) Summary() *ProductSummary {
	return &ProductSummary{
		ID:        p.ID,
		SellerID:  p.SellerID,
		Title:     p.Title,
		Price:     p.Price,
		Image:     p.Image,
		Category:  p.Category,
		Condition: p.Condition,
		Location:  p.Location,
		Status:    p.Status,
	}
}
