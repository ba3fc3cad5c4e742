package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/01moynul/ecofinds-golang/internal/email"
	"github.com/01moynul/ecofinds-golang/internal/models"
	"github.com/01moynul/ecofinds-golang/internal/store"
	"github.com/shopspring/decimal"
)

const (
	deliveryWindow      = 7 * 24 * time.Hour
	orderNumberAttempts = 3
)

// CheckoutResult is a confirmed order plus its fulfilment details.
type CheckoutResult struct {
	Order             *models.Order
	OrderNumber       string
	TrackingNumber    string
	EstimatedDelivery time.Time
}

// Checkout turns the user's cart into a confirmed order, marks every
// purchased product sold to the user and empties the cart. All of it
// happens in one transaction: on any failure nothing is written.
func (s *Service) Checkout(ctx context.Context, userID int64, address models.ShippingAddress) (*CheckoutResult, error) {
	var (
		order *models.Order
		res   CheckoutResult
	)

	err := s.store.InTx(ctx, func(tx store.Store) error {
		// 1. --- Load the cart with live product data ---
		cart, err := tx.GetCart(ctx, userID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("get cart: %w", err)
		}

		// 2. --- Reject an empty cart ---
		if cart == nil || len(cart.Items) == 0 {
			return &Error{Kind: ErrEmptyCart, Message: "Cart is empty"}
		}
		log.Printf("Checkout: user %d, cart %d loaded with %d item(s)", userID, cart.ID, len(cart.Items))

		// 3. --- Every product must still be for sale ---
		for _, item := range cart.Items {
			p := item.Product
			if p == nil {
				return &UnavailableProductError{ProductID: item.ProductID}
			}
			if p.Status != models.ProductAvailable {
				return &UnavailableProductError{ProductID: p.ID, Title: p.Title}
			}
			if p.SellerID == userID {
				return conflict(fmt.Sprintf("You cannot purchase your own product %q", p.Title))
			}
		}

		// 4. --- Snapshot the lines and total them ---
		now := s.now()
		order = &models.Order{
			UserID:          userID,
			Items:           snapshotLines(cart.Items),
			Status:          models.OrderPending,
			ShippingAddress: address,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		order.TotalAmount = orderTotal(order.Items)

		// 5. --- Persist the pending order under a fresh number ---
		if err := s.createOrder(ctx, tx, order); err != nil {
			return err
		}
		log.Printf("Checkout: order %s created for user %d (total %s)", order.OrderNumber, userID, order.TotalAmount)

		// 6. --- Mark products sold; losing a race fails the whole checkout ---
		for _, line := range order.Items {
			if err := tx.MarkSold(ctx, line.ProductID, userID, now); err != nil {
				if errors.Is(err, store.ErrNotAvailable) {
					return &UnavailableProductError{ProductID: line.ProductID, Title: line.Title}
				}
				return fmt.Errorf("mark product %d sold: %w", line.ProductID, err)
			}
		}
		log.Printf("Checkout: %d product(s) marked sold for order %s", len(order.Items), order.OrderNumber)

		// 7. --- Simulated fulfilment ---
		tracking := newTrackingNumber(now)
		eta := now.Add(deliveryWindow)
		order.Status = models.OrderConfirmed
		order.TrackingNumber = &tracking
		order.EstimatedDelivery = &eta
		if err := tx.UpdateOrder(ctx, order); err != nil {
			return fmt.Errorf("confirm order: %w", err)
		}

		// 8. --- Empty the cart ---
		if err := tx.ClearCart(ctx, cart.ID, now); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		log.Printf("Checkout: cart %d cleared", cart.ID)

		res = CheckoutResult{
			OrderNumber:       order.OrderNumber,
			TrackingNumber:    tracking,
			EstimatedDelivery: eta,
		}
		return nil
	})
	if err != nil {
		log.Printf("Checkout failed for user %d: %v", userID, err)
		return nil, err
	}

	// Re-read so the lines carry their live product summaries.
	res.Order = order
	if full, err := s.store.GetOrder(ctx, userID, order.ID); err == nil {
		res.Order = full
	} else {
		log.Printf("WARNING: reload of order %s failed: %v", order.OrderNumber, err)
	}

	s.sendConfirmation(ctx, userID, res.Order)
	return &res, nil
}

// sendConfirmation mails the buyer their order summary. The order is
// already committed, so failures are only logged.
func (s *Service) sendConfirmation(ctx context.Context, userID int64, order *models.Order) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		log.Printf("WARNING: no confirmation for order %s, user %d lookup failed: %v", order.OrderNumber, userID, err)
		return
	}
	if err := s.mailer.Send(ctx, email.OrderConfirmation(user.Email, user.Name, order)); err != nil {
		log.Printf("WARNING: confirmation for order %s not sent: %v", order.OrderNumber, err)
		return
	}
	log.Printf("Checkout: confirmation for order %s sent to %s", order.OrderNumber, user.Email)
}

// createOrder inserts the order, drawing a new number on collision.
func (s *Service) createOrder(ctx context.Context, tx store.Store, order *models.Order) error {
	for attempt := 1; attempt <= orderNumberAttempts; attempt++ {
		order.OrderNumber = newOrderNumber(s.now(), s.randN)
		err := tx.CreateOrder(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("create order: %w", err)
		}
		log.Printf("Checkout: order number %s already taken (attempt %d)", order.OrderNumber, attempt)
	}
	return conflict("Could not allocate a unique order number, please retry")
}

func snapshotLines(items []models.CartItem) []models.OrderLine {
	lines := make([]models.OrderLine, 0, len(items))
	for _, item := range items {
		image := item.Product.Image
		if image == "" {
			image = models.DefaultImage
		}
		lines = append(lines, models.OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Product.Price,
			Title:     item.Product.Title,
			Image:     image,
		})
	}
	return lines
}

func orderTotal(lines []models.OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
