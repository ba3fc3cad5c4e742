package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/ecofinds-golang/internal/models"
	"github.com/shopspring/decimal"
)

const productColumns = `id, seller_id, buyer_id, title, description, category, price,
	image, images, status, item_condition, location, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var buyer sql.NullInt64
	var images []byte

	if err := row.Scan(
		&p.ID, &p.SellerID, &buyer, &p.Title, &p.Description, &p.Category, &p.Price,
		&p.Image, &images, &p.Status, &p.Condition, &p.Location, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if buyer.Valid {
		id := buyer.Int64
		p.BuyerID = &id
	}

	p.Images = []models.ProductImage{}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("decode images of product %d: %w", p.ID, err)
		}
	}
	return &p, nil
}

func (s *MySQL) queryProducts(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func marshalImages(images []models.ProductImage) (string, error) {
	if images == nil {
		images = []models.ProductImage{}
	}
	b, err := json.Marshal(images)
	return string(b), err
}

func (s *MySQL) CreateProduct(ctx context.Context, p *models.Product) error {
	images, err := marshalImages(p.Images)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products
		(seller_id, buyer_id, title, description, category, price,
		image, images, status, item_condition, location, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := s.q.ExecContext(ctx, query,
		p.SellerID, p.BuyerID, p.Title, p.Description, p.Category, p.Price,
		p.Image, images, p.Status, p.Condition, p.Location, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (s *MySQL) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *MySQL) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int, error) {
	var where strings.Builder
	var args []any

	// 1. --- Only listings that can still be bought ---
	where.WriteString(" WHERE status = ?")
	args = append(args, models.ProductAvailable)

	if f.Category != "" {
		where.WriteString(" AND category = ?")
		args = append(args, f.Category)
	}
	if f.Search != "" {
		where.WriteString(" AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		term := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
		args = append(args, term, term)
	}

	// 2. --- Count ---
	var total int
	if err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM products"+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	// 3. --- Page ---
	query := "SELECT " + productColumns + " FROM products" + where.String() +
		" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	products, err := s.queryProducts(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

func (s *MySQL) ListProductsBySeller(ctx context.Context, sellerID int64) ([]models.Product, error) {
	return s.queryProducts(ctx,
		"SELECT "+productColumns+" FROM products WHERE seller_id = ? ORDER BY created_at DESC, id DESC", sellerID)
}

func (s *MySQL) ListProductsByBuyer(ctx context.Context, buyerID int64) ([]models.Product, error) {
	return s.queryProducts(ctx,
		"SELECT "+productColumns+" FROM products WHERE buyer_id = ? ORDER BY created_at DESC, id DESC", buyerID)
}

func (s *MySQL) UpdateProduct(ctx context.Context, p *models.Product) error {
	images, err := marshalImages(p.Images)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET title = ?, description = ?, category = ?, price = ?, image = ?, images = ?,
			item_condition = ?, location = ?, updated_at = ?
		WHERE id = ? AND status <> ?`

	res, err := s.q.ExecContext(ctx, query,
		p.Title, p.Description, p.Category, p.Price, p.Image, images,
		p.Condition, p.Location, p.UpdatedAt, p.ID, models.ProductSold,
	)
	if err != nil {
		return fmt.Errorf("update product %d: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	// MySQL reports zero rows for an unchanged row too, so look at why.
	var status string
	err = s.q.QueryRowContext(ctx, "SELECT status FROM products WHERE id = ?", p.ID).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case err != nil:
		return fmt.Errorf("update product %d: %w", p.ID, err)
	case status == models.ProductSold:
		return ErrNotAvailable
	}
	return nil
}

func (s *MySQL) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	return expectOneRow(res)
}

func (s *MySQL) MarkSold(ctx context.Context, productID, buyerID int64, at time.Time) error {
	// Conditional write: the status check and the update are one statement,
	// so two buyers cannot both win the same listing.
	query := `
		UPDATE products
		SET status = ?, buyer_id = ?, updated_at = ?
		WHERE id = ? AND status = ?`

	res, err := s.q.ExecContext(ctx, query, models.ProductSold, buyerID, at, productID, models.ProductAvailable)
	if err != nil {
		return fmt.Errorf("mark product %d sold: %w", productID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotAvailable
	}
	return nil
}

// joinedProduct holds the nullable product columns of a LEFT JOIN.
type joinedProduct struct {
	ID        sql.NullInt64
	SellerID  sql.NullInt64
	Title     sql.NullString
	Price     decimal.NullDecimal
	Image     sql.NullString
	Category  sql.NullString
	Condition sql.NullString
	Location  sql.NullString
	Status    sql.NullString
}

const joinedProductColumns = `p.id, p.seller_id, p.title, p.price, p.image,
	p.category, p.item_condition, p.location, p.status`

func (j *joinedProduct) dest() []any {
	return []any{&j.ID, &j.SellerID, &j.Title, &j.Price, &j.Image, &j.Category, &j.Condition, &j.Location, &j.Status}
}

func (j *joinedProduct) summary() *models.ProductSummary {
	if !j.ID.Valid {
		return nil
	}
	return &models.ProductSummary{
		ID:        j.ID.Int64,
		SellerID:  j.SellerID.Int64,
		Title:     j.Title.String,
		Price:     j.Price.Decimal,
		Image:     j.Image.String,
		Category:  j.Category.String,
		Condition: j.Condition.String,
		Location:  j.Location.String,
		Status:    j.Status.String,
	}
}
