package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/ecofinds-golang/internal/models"
	"github.com/01moynul/ecofinds-golang/internal/store"
)

// OrderUpdate is a partial update. Empty strings and a nil time keep the
// current value.
type OrderUpdate struct {
	Status            string
	TrackingNumber    string
	EstimatedDelivery *time.Time
	Notes             string
}

// ListOrders returns the user's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	orders, err := s.store.ListOrders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// GetOrder returns one of the user's orders. Orders of other users are
// reported as not found.
func (s *Service) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	return s.orderFor(ctx, s.store, userID, orderID)
}

// UpdateOrder applies a partial update. Status changes must follow the
// order status transition table.
func (s *Service) UpdateOrder(ctx context.Context, userID, orderID int64, upd OrderUpdate) (*models.Order, error) {
	if upd.Status != "" && !models.ValidOrderStatus(upd.Status) {
		return nil, validation(fmt.Sprintf("Invalid order status %q", upd.Status))
	}

	var order *models.Order
	err := s.store.InTx(ctx, func(tx store.Store) error {
		var err error
		order, err = s.orderFor(ctx, tx, userID, orderID)
		if err != nil {
			return err
		}

		if upd.Status != "" {
			if !models.CanTransition(order.Status, upd.Status) {
				return conflict(fmt.Sprintf("Cannot change order status from %s to %s", order.Status, upd.Status))
			}
			order.Status = upd.Status
		}
		if upd.TrackingNumber != "" {
			order.TrackingNumber = &upd.TrackingNumber
		}
		if upd.EstimatedDelivery != nil {
			order.EstimatedDelivery = upd.EstimatedDelivery
		}
		if upd.Notes != "" {
			order.Notes = upd.Notes
		}
		order.UpdatedAt = s.now()

		if err := tx.UpdateOrder(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) orderFor(ctx context.Context, st store.Store, userID, orderID int64) (*models.Order, error) {
	order, err := st.GetOrder(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Order not found")
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// AdvanceShipments is the shipment simulator. Confirmed orders older than
// the ship-after delay are shipped, and shipped orders whose estimated
// delivery has passed are delivered.
func (s *Service) AdvanceShipments(ctx context.Context, now time.Time) (shipped, delivered int64, err error) {
	shipped, err = s.store.ShipOrders(ctx, now.Add(-s.shipAfter), now)
	if err != nil {
		return 0, 0, fmt.Errorf("ship orders: %w", err)
	}
	delivered, err = s.store.DeliverOrders(ctx, now)
	if err != nil {
		return shipped, 0, fmt.Errorf("deliver orders: %w", err)
	}
	return shipped, delivered, nil
}
