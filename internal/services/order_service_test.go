package services

import (
	"context"
	"testing"
	"time"

	"github.com/01moynul/ecofinds-golang/internal/models"
	"github.com/01moynul/ecofinds-golang/internal/store"
)

func checkedOut(t *testing.T, svc *Service, st store.Store) *models.Order {
	t.Helper()
	ctx := context.Background()
	p := &models.Product{
		SellerID: seller, Title: "book", Description: "a book", Category: "Books",
		Status: models.ProductAvailable, Condition: "Good", Location: "Porto",
		CreatedAt: testNow, UpdatedAt: testNow,
	}
	if err := st.CreateProduct(ctx, p); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if _, err := svc.AddItem(ctx, buyer, p.ID, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	res, err := svc.Checkout(ctx, buyer, models.ShippingAddress{City: "Porto"})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	return res.Order
}

func TestGetOrder_Ownership(t *testing.T) {
	svc, st, _ := newTestService(t)
	o := checkedOut(t, svc, st)

	if _, err := svc.GetOrder(context.Background(), buyer, o.ID); err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	_, err := svc.GetOrder(context.Background(), other, o.ID)
	assertKind(t, err, ErrNotFound)
}

func TestUpdateOrder(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	o := checkedOut(t, svc, st)

	// Partial update keeps what is not given.
	updated, err := svc.UpdateOrder(ctx, buyer, o.ID, OrderUpdate{Notes: "leave at the door"})
	if err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}
	if updated.Notes != "leave at the door" || updated.Status != models.OrderConfirmed {
		t.Fatalf("unexpected order %+v", updated)
	}
	if *updated.TrackingNumber != *o.TrackingNumber {
		t.Fatalf("tracking number changed")
	}

	eta := testNow.Add(3 * 24 * time.Hour)
	updated, err = svc.UpdateOrder(ctx, buyer, o.ID, OrderUpdate{Status: models.OrderShipped, TrackingNumber: "TRK1", EstimatedDelivery: &eta})
	if err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}
	if updated.Status != models.OrderShipped || *updated.TrackingNumber != "TRK1" || !updated.EstimatedDelivery.Equal(eta) {
		t.Fatalf("unexpected order %+v", updated)
	}
	if updated.Notes != "leave at the door" {
		t.Fatalf("notes lost")
	}

	_, err = svc.UpdateOrder(ctx, buyer, o.ID, OrderUpdate{Status: models.OrderPending})
	assertKind(t, err, ErrConflict)
	_, err = svc.UpdateOrder(ctx, buyer, o.ID, OrderUpdate{Status: "lost"})
	assertKind(t, err, ErrValidation)
	_, err = svc.UpdateOrder(ctx, other, o.ID, OrderUpdate{Notes: "x"})
	assertKind(t, err, ErrNotFound)

	stored, _ := svc.GetOrder(ctx, buyer, o.ID)
	if stored.Status != models.OrderShipped {
		t.Fatalf("stored status = %s", stored.Status)
	}
}

func TestAdvanceShipments(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	o := checkedOut(t, svc, st)

	shipped, delivered, err := svc.AdvanceShipments(ctx, testNow.Add(time.Hour))
	if err != nil || shipped != 0 || delivered != 0 {
		t.Fatalf("too early: shipped=%d delivered=%d err=%v", shipped, delivered, err)
	}

	shipped, _, err = svc.AdvanceShipments(ctx, testNow.Add(25*time.Hour))
	if err != nil || shipped != 1 {
		t.Fatalf("shipped=%d err=%v", shipped, err)
	}

	_, delivered, err = svc.AdvanceShipments(ctx, testNow.Add(8*24*time.Hour))
	if err != nil || delivered != 1 {
		t.Fatalf("delivered=%d err=%v", delivered, err)
	}

	got, _ := svc.GetOrder(ctx, buyer, o.ID)
	if got.Status != models.OrderDelivered {
		t.Fatalf("status = %s, want delivered", got.Status)
	}
}
