package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/ecofinds-golang/internal/models"
)

const orderColumns = `id, order_number, user_id, total_amount, status,
	shipping_street, shipping_city, shipping_state, shipping_zip_code, shipping_country,
	tracking_number, estimated_delivery, notes, created_at, updated_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var tracking sql.NullString
	var eta sql.NullTime
	var notes sql.NullString
	a := &o.ShippingAddress

	if err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.TotalAmount, &o.Status,
		&a.Street, &a.City, &a.State, &a.ZipCode, &a.Country,
		&tracking, &eta, &notes, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if tracking.Valid {
		o.TrackingNumber = &tracking.String
	}
	if eta.Valid {
		o.EstimatedDelivery = &eta.Time
	}
	o.Notes = notes.String
	o.Items = []models.OrderLine{}
	return &o, nil
}

func (s *MySQL) CreateOrder(ctx context.Context, o *models.Order) error {
	a := o.ShippingAddress
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO orders
		(order_number, user_id, total_amount, status,
		shipping_street, shipping_city, shipping_state, shipping_zip_code, shipping_country,
		tracking_number, estimated_delivery, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.OrderNumber, o.UserID, o.TotalAmount, o.Status,
		a.Street, a.City, a.State, a.ZipCode, a.Country,
		o.TrackingNumber, o.EstimatedDelivery, o.Notes, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert order: %w", err)
	}
	if o.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	// Snapshot each line into order_items
	itemQuery := `
		INSERT INTO order_items (order_id, product_id, quantity, price, title, image)
		VALUES (?, ?, ?, ?, ?, ?)`
	for i := range o.Items {
		line := &o.Items[i]
		line.OrderID = o.ID
		res, err := s.q.ExecContext(ctx, itemQuery, o.ID, line.ProductID, line.Quantity, line.Price, line.Title, line.Image)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
		if line.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return nil
}

func (s *MySQL) UpdateOrder(ctx context.Context, o *models.Order) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, tracking_number = ?, estimated_delivery = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		o.Status, o.TrackingNumber, o.EstimatedDelivery, o.Notes, o.UpdatedAt, o.ID)
	if err != nil {
		return fmt.Errorf("update order %d: %w", o.ID, err)
	}
	return nil
}

func (s *MySQL) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ? AND user_id = ?", orderID, userID)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch order: %w", err)
	}

	orders := []models.Order{*o}
	if err := s.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (s *MySQL) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachLines loads the lines of all given orders in one query, joined
// with the live product for display.
func (s *MySQL) attachLines(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	index := make(map[int64]int, len(orders))
	args := make([]any, 0, len(orders))
	for i, o := range orders {
		index[o.ID] = i
		args = append(args, o.ID)
	}

	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price, oi.title, oi.image, ` + joinedProductColumns + `
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id IN (` + placeholders(len(args)) + `)
		ORDER BY oi.id`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("fetch order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line models.OrderLine
		var jp joinedProduct
		dest := append([]any{&line.ID, &line.OrderID, &line.ProductID, &line.Quantity, &line.Price, &line.Title, &line.Image}, jp.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		line.Product = jp.summary()
		if i, ok := index[line.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, line)
		}
	}
	return rows.Err()
}

func (s *MySQL) ShipOrders(ctx context.Context, cutoff, at time.Time) (int64, error) {
	res, err := s.q.ExecContext(ctx,
		"UPDATE orders SET status = ?, updated_at = ? WHERE status = ? AND created_at <= ?",
		models.OrderShipped, at, models.OrderConfirmed, cutoff)
	if err != nil {
		return 0, fmt.Errorf("ship orders: %w", err)
	}
	return res.RowsAffected()
}

func (s *MySQL) DeliverOrders(ctx context.Context, at time.Time) (int64, error) {
	res, err := s.q.ExecContext(ctx,
		"UPDATE orders SET status = ?, updated_at = ? WHERE status = ? AND estimated_delivery <= ?",
		models.OrderDelivered, at, models.OrderShipped, at)
	if err != nil {
		return 0, fmt.Errorf("deliver orders: %w", err)
	}
	return res.RowsAffected()
}
