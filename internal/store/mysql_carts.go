package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/ecofinds-golang/internal/models"
	"github.com/shopspring/decimal"
)

func (s *MySQL) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	// 1. --- Find the Cart ---
	var cart models.Cart
	err := s.q.QueryRowContext(ctx,
		"SELECT id, user_id, total_amount, item_count, created_at, updated_at FROM carts WHERE user_id = ?", userID,
	).Scan(&cart.ID, &cart.UserID, &cart.TotalAmount, &cart.ItemCount, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find cart: %w", err)
	}

	// 2. --- Items joined with their live product ---
	query := `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.added_at, ` + joinedProductColumns + `
		FROM cart_items ci
		LEFT JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = ?
		ORDER BY ci.id`

	rows, err := s.q.QueryContext(ctx, query, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	cart.Items = []models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		var jp joinedProduct
		dest := append([]any{&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.AddedAt}, jp.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		item.Product = jp.summary()
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *MySQL) CreateCart(ctx context.Context, cart *models.Cart) error {
	res, err := s.q.ExecContext(ctx,
		"INSERT INTO carts (user_id, total_amount, item_count, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		cart.UserID, cart.TotalAmount, cart.ItemCount, cart.CreatedAt, cart.UpdatedAt,
	)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create cart: %w", err)
	}
	cart.ID, err = res.LastInsertId()
	return err
}

func (s *MySQL) AddCartItem(ctx context.Context, cartID, productID int64, quantity int, at time.Time) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity, added_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)`,
		cartID, productID, quantity, at)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

func (s *MySQL) SetCartItemQuantity(ctx context.Context, cartID, itemID int64, quantity int) error {
	// RowsAffected is 0 when the quantity is unchanged, so existence is the caller's check.
	_, err := s.q.ExecContext(ctx,
		"UPDATE cart_items SET quantity = ? WHERE id = ? AND cart_id = ?", quantity, itemID, cartID)
	if err != nil {
		return fmt.Errorf("update cart item %d: %w", itemID, err)
	}
	return nil
}

func (s *MySQL) DeleteCartItem(ctx context.Context, cartID, itemID int64) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM cart_items WHERE id = ? AND cart_id = ?", itemID, cartID)
	if err != nil {
		return fmt.Errorf("delete cart item %d: %w", itemID, err)
	}
	return expectOneRow(res)
}

func (s *MySQL) ClearCart(ctx context.Context, cartID int64, at time.Time) error {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = ?", cartID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	return s.SaveCartTotals(ctx, cartID, decimal.Zero, 0, at)
}

func (s *MySQL) SaveCartTotals(ctx context.Context, cartID int64, total decimal.Decimal, count int, at time.Time) error {
	_, err := s.q.ExecContext(ctx,
		"UPDATE carts SET total_amount = ?, item_count = ?, updated_at = ? WHERE id = ?",
		total, count, at, cartID)
	if err != nil {
		return fmt.Errorf("save cart totals: %w", err)
	}
	return nil
}
