package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/01moynul/ecofinds-golang/internal/models"
	"github.com/01moynul/ecofinds-golang/internal/store"
	"github.com/shopspring/decimal"
)

// GetOrCreateCart returns the user's cart, creating an empty one on first access.
func (s *Service) GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	cart, err := s.store.GetCart(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	now := s.now()
	cart = &models.Cart{
		UserID:      userID,
		Items:       []models.CartItem{},
		TotalAmount: decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateCart(ctx, cart); err != nil {
		if !errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("create cart: %w", err)
		}
		// A concurrent request created it first.
		cart, err = s.store.GetCart(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("get cart: %w", err)
		}
	}
	return cart, nil
}

// AddItem puts quantity units of a product in the user's cart. Adding a
// product that is already there increases its quantity.
func (s *Service) AddItem(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error) {
	// 1. --- Validate input ---
	if productID <= 0 {
		return nil, validation("Invalid product ID format")
	}
	if quantity < 1 {
		return nil, validation("Quantity must be at least 1")
	}

	// 2. --- Check the product can be bought by this user ---
	product, err := s.getProduct(ctx, s.store, productID)
	if err != nil {
		return nil, err
	}
	if product.Status != models.ProductAvailable {
		return nil, conflict("Product is not available")
	}
	if product.SellerID == userID {
		return nil, conflict("You cannot add your own product to cart")
	}

	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 3. --- Add the line and refresh totals together ---
	var updated *models.Cart
	err = s.store.InTx(ctx, func(tx store.Store) error {
		if err := tx.AddCartItem(ctx, cart.ID, productID, quantity, s.now()); err != nil {
			return fmt.Errorf("add cart item: %w", err)
		}
		updated, err = s.refreshTotals(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateItemQuantity sets the quantity of one cart line.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, validation("Quantity must be at least 1")
	}

	var updated *models.Cart
	err := s.store.InTx(ctx, func(tx store.Store) error {
		cart, err := s.cartFor(ctx, tx, userID)
		if err != nil {
			return err
		}
		if cart.FindItem(itemID) == nil {
			return notFound("Item not found in cart")
		}
		if err := tx.SetCartItemQuantity(ctx, cart.ID, itemID, quantity); err != nil {
			return fmt.Errorf("update cart item: %w", err)
		}
		updated, err = s.refreshTotals(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveItem deletes one cart line.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID int64) (*models.Cart, error) {
	var updated *models.Cart
	err := s.store.InTx(ctx, func(tx store.Store) error {
		cart, err := s.cartFor(ctx, tx, userID)
		if err != nil {
			return err
		}
		if cart.FindItem(itemID) == nil {
			return notFound("Item not found in cart")
		}
		if err := tx.DeleteCartItem(ctx, cart.ID, itemID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return notFound("Item not found in cart")
			}
			return fmt.Errorf("delete cart item: %w", err)
		}
		updated, err = s.refreshTotals(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ClearCart empties the user's cart.
func (s *Service) ClearCart(ctx context.Context, userID int64) (*models.Cart, error) {
	cart, err := s.cartFor(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.store.ClearCart(ctx, cart.ID, now); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}
	cart.Items = []models.CartItem{}
	cart.TotalAmount = decimal.Zero
	cart.ItemCount = 0
	cart.UpdatedAt = now
	return cart, nil
}

func (s *Service) cartFor(ctx context.Context, st store.Store, userID int64) (*models.Cart, error) {
	cart, err := st.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Cart not found")
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// refreshTotals re-reads the cart with live prices, recomputes its totals
// and stores them.
func (s *Service) refreshTotals(ctx context.Context, st store.Store, userID int64) (*models.Cart, error) {
	cart, err := s.cartFor(ctx, st, userID)
	if err != nil {
		return nil, err
	}

	totals := RecomputeTotals(cart.Items, livePrices(cart.Items))
	now := s.now()
	if err := st.SaveCartTotals(ctx, cart.ID, totals.Total, totals.Count, now); err != nil {
		return nil, fmt.Errorf("save cart totals: %w", err)
	}
	cart.TotalAmount = totals.Total
	cart.ItemCount = totals.Count
	cart.UpdatedAt = now
	return cart, nil
}
