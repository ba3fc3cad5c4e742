package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/01moynul/ecofinds-golang/internal/media"
	"github.com/01moynul/ecofinds-golang/internal/models"
	"github.com/01moynul/ecofinds-golang/internal/store"
	"github.com/shopspring/decimal"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ProductQuery selects a page of the catalog.
type ProductQuery struct {
	Category string // "" or "all" for every category
	Search   string
	Page     int
	Limit    int
}

// ProductPage is one page of catalog results.
type ProductPage struct {
	Products    []models.Product `json:"products"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
	Total       int              `json:"total"`
}

// ProductInput holds the seller-editable fields of a new listing.
type ProductInput struct {
	Title       string
	Description string
	Category    string
	Price       decimal.Decimal
	Condition   string
	Location    string
}

// ProductPatch is a partial product update; empty strings and a nil price
// keep the current value.
type ProductPatch struct {
	Title       string
	Description string
	Category    string
	Price       *decimal.Decimal
	Condition   string
	Location    string
}

// ListProducts searches available products, newest first.
func (s *Service) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	category := strings.TrimSpace(q.Category)
	if strings.EqualFold(category, "all") {
		category = ""
	}

	products, total, err := s.store.ListProducts(ctx, store.ProductFilter{
		Category: category,
		Search:   strings.TrimSpace(q.Search),
		Offset:   (q.Page - 1) * q.Limit,
		Limit:    q.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}

	return &ProductPage{
		Products:    products,
		TotalPages:  (total + q.Limit - 1) / q.Limit,
		CurrentPage: q.Page,
		Total:       total,
	}, nil
}

// GetProduct returns one product.
func (s *Service) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	if id <= 0 {
		return nil, validation("Invalid product ID format")
	}
	return s.getProduct(ctx, s.store, id)
}

// CreateProduct lists a new product for sale. Images are uploaded first;
// without any the product gets the placeholder image.
func (s *Service) CreateProduct(ctx context.Context, sellerID int64, in ProductInput, files []media.File) (*models.Product, error) {
	// 1. --- Validate ---
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	// 2. --- Upload images ---
	images, err := s.uploadImages(ctx, files)
	if err != nil {
		return nil, err
	}

	// 3. --- Save ---
	now := s.now()
	p := &models.Product{
		SellerID:    sellerID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Image:       models.DefaultImage,
		Images:      images,
		Status:      models.ProductAvailable,
		Condition:   in.Condition,
		Location:    in.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(images) > 0 {
		p.Image = images[0].URL
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		media.DeleteAll(context.WithoutCancel(ctx), s.media, publicIDs(images))
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// UpdateProduct edits the seller's own product. New images replace the
// old ones, which are then removed from the image store.
func (s *Service) UpdateProduct(ctx context.Context, userID, id int64, patch ProductPatch, files []media.File) (*models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.SellerID != userID {
		return nil, forbidden("Not authorized to update this product")
	}
	if p.Status == models.ProductSold {
		return nil, conflict("Sold products cannot be edited")
	}

	in := ProductInput{
		Title:       keep(strings.TrimSpace(patch.Title), p.Title),
		Description: keep(strings.TrimSpace(patch.Description), p.Description),
		Category:    keep(patch.Category, p.Category),
		Price:       p.Price,
		Condition:   keep(patch.Condition, p.Condition),
		Location:    keep(strings.TrimSpace(patch.Location), p.Location),
	}
	if patch.Price != nil {
		in.Price = *patch.Price
	}
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	images, err := s.uploadImages(ctx, files)
	if err != nil {
		return nil, err
	}

	var replaced []string
	if len(images) > 0 {
		replaced = p.PublicIDs()
		p.Images = images
		p.Image = images[0].URL
	}
	p.Title, p.Description, p.Category = in.Title, in.Description, in.Category
	p.Price, p.Condition, p.Location = in.Price, in.Condition, in.Location
	p.UpdatedAt = s.now()

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		media.DeleteAll(context.WithoutCancel(ctx), s.media, publicIDs(images))
		switch {
		case errors.Is(err, store.ErrNotAvailable):
			return nil, conflict("Sold products cannot be edited")
		case errors.Is(err, store.ErrNotFound):
			return nil, notFound("Product not found")
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	if len(replaced) > 0 {
		media.DeleteAll(ctx, s.media, replaced)
	}
	return p, nil
}

// DeleteProduct removes the seller's own product and, best effort, its images.
// Orders keep their own copy of the product.
func (s *Service) DeleteProduct(ctx context.Context, userID, id int64) error {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if p.SellerID != userID {
		return forbidden("Not authorized to delete this product")
	}

	if err := s.store.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("Product not found")
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if ids := p.PublicIDs(); len(ids) > 0 && s.media != nil {
		media.DeleteAll(ctx, s.media, ids)
	}
	return nil
}

// ListSellerProducts returns every product the user listed, in any status.
func (s *Service) ListSellerProducts(ctx context.Context, sellerID int64) ([]models.Product, error) {
	products, err := s.store.ListProductsBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list seller products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// ListPurchases returns the products the user bought.
func (s *Service) ListPurchases(ctx context.Context, buyerID int64) ([]models.Product, error) {
	products, err := s.store.ListProductsByBuyer(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// PurchaseProduct buys a single product directly, without the cart.
func (s *Service) PurchaseProduct(ctx context.Context, buyerID, productID int64) (*models.Product, error) {
	if productID <= 0 {
		return nil, validation("Invalid product ID format")
	}

	var bought *models.Product
	err := s.store.InTx(ctx, func(tx store.Store) error {
		p, err := s.getProduct(ctx, tx, productID)
		if err != nil {
			return err
		}
		if p.Status != models.ProductAvailable {
			return conflict("Product is not available")
		}
		if p.SellerID == buyerID {
			return conflict("You cannot buy your own product")
		}

		if err := tx.MarkSold(ctx, productID, buyerID, s.now()); err != nil {
			if errors.Is(err, store.ErrNotAvailable) {
				return conflict("Product is not available")
			}
			return fmt.Errorf("mark product %d sold: %w", productID, err)
		}
		bought, err = s.getProduct(ctx, tx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bought, nil
}

func (s *Service) getProduct(ctx context.Context, st store.Store, id int64) (*models.Product, error) {
	p, err := st.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Product not found")
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// UploadImages stores standalone images, e.g. for a listing that is still
// being drafted.
func (s *Service) UploadImages(ctx context.Context, files []media.File) ([]models.ProductImage, error) {
	if len(files) == 0 {
		return nil, validation("No file uploaded")
	}
	return s.uploadImages(ctx, files)
}

func (s *Service) uploadImages(ctx context.Context, files []media.File) ([]models.ProductImage, error) {
	if len(files) == 0 {
		return []models.ProductImage{}, nil
	}
	if s.media == nil {
		return nil, &Error{Kind: ErrUpstream, Message: "Image uploads are not available"}
	}

	images, err := media.UploadAll(ctx, s.media, files)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedType) || errors.Is(err, media.ErrTooLarge) {
			return nil, &Error{Kind: ErrValidation, Message: err.Error(), Err: err}
		}
		return nil, &Error{Kind: ErrUpstream, Message: "Error uploading images", Err: err}
	}
	return images, nil
}

func validateProduct(in ProductInput) error {
	switch {
	case in.Title == "":
		return validation("Title is required")
	case utf8.RuneCountInString(in.Title) > models.MaxTitleLength:
		return validation(fmt.Sprintf("Title cannot exceed %d characters", models.MaxTitleLength))
	case in.Description == "":
		return validation("Description is required")
	case utf8.RuneCountInString(in.Description) > models.MaxDescriptionLength:
		return validation(fmt.Sprintf("Description cannot exceed %d characters", models.MaxDescriptionLength))
	case !models.ValidCategory(in.Category):
		return validation("Invalid category")
	case !models.ValidCondition(in.Condition):
		return validation("Invalid condition")
	case in.Location == "":
		return validation("Location is required")
	case in.Price.IsNegative():
		return validation("Price cannot be negative")
	}
	return nil
}

func keep(v, current string) string {
	if v == "" {
		return current
	}
	return v
}

func publicIDs(images []models.ProductImage) []string {
	ids := make([]string, 0, len(images))
	for _, img := range images {
		ids = append(ids, img.PublicID)
	}
	return ids
}
