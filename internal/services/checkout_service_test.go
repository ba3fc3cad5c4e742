package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/01moynul/ecofinds-golang/internal/models"
	"github.com/01moynul/ecofinds-golang/internal/store"
	"github.com/shopspring/decimal"
)

var orderNumberPattern = regexp.MustCompile(`^ECO-\d{6}-[0-9A-Z]{6}$`)

func TestCheckout_Success(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	a := seedProduct(t, st, seller, "book", "10")
	b := seedProduct(t, st, seller, "mug", "5")

	if _, err := svc.AddItem(ctx, buyer, a.ID, 2); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := svc.AddItem(ctx, buyer, b.ID, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	addr := models.ShippingAddress{Street: "1 Rua Augusta", City: "Lisbon", Country: "PT"}
	res, err := svc.Checkout(ctx, buyer, addr)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	// Order
	o := res.Order
	if o.Status != models.OrderConfirmed {
		t.Fatalf("status = %s, want confirmed", o.Status)
	}
	if !o.TotalAmount.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("total = %s, want 25", o.TotalAmount)
	}
	if len(o.Items) != 2 {
		t.Fatalf("lines = %d, want 2", len(o.Items))
	}
	if !orderNumberPattern.MatchString(res.OrderNumber) || o.OrderNumber != res.OrderNumber {
		t.Fatalf("bad order number %q / %q", res.OrderNumber, o.OrderNumber)
	}
	if o.TrackingNumber == nil || *o.TrackingNumber != res.TrackingNumber || res.TrackingNumber == "" {
		t.Fatalf("tracking number not set: %v / %q", o.TrackingNumber, res.TrackingNumber)
	}
	if o.EstimatedDelivery == nil || !o.EstimatedDelivery.Equal(o.CreatedAt.Add(7*24*time.Hour)) {
		t.Fatalf("estimated delivery = %v, created = %v", o.EstimatedDelivery, o.CreatedAt)
	}
	if !res.EstimatedDelivery.Equal(*o.EstimatedDelivery) {
		t.Fatalf("result eta %v differs from order eta %v", res.EstimatedDelivery, *o.EstimatedDelivery)
	}
	if o.ShippingAddress != addr {
		t.Fatalf("shipping address = %+v", o.ShippingAddress)
	}

	// Products
	for _, id := range []int64{a.ID, b.ID} {
		p, err := st.GetProduct(ctx, id)
		if err != nil {
			t.Fatalf("GetProduct: %v", err)
		}
		if p.Status != models.ProductSold || p.BuyerID == nil || *p.BuyerID != buyer {
			t.Fatalf("product %d not sold to buyer: status=%s buyer=%v", id, p.Status, p.BuyerID)
		}
	}

	// Cart
	cart, err := st.GetCart(ctx, buyer)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(cart.Items) != 0 || cart.ItemCount != 0 || !cart.TotalAmount.IsZero() {
		t.Fatalf("cart not emptied: %+v", cart)
	}

	orders, _ := svc.ListOrders(ctx, buyer)
	if len(orders) != 1 {
		t.Fatalf("orders = %d, want 1", len(orders))
	}
}

func TestCheckout_LinesAreSnapshots(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, st, seller, "lamp", "30")
	p.Image = ""
	if err := st.UpdateProduct(ctx, p); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}

	if _, err := svc.AddItem(ctx, buyer, p.ID, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	res, err := svc.Checkout(ctx, buyer, models.ShippingAddress{})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if err := st.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}

	o, err := svc.GetOrder(ctx, buyer, res.Order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	line := o.Items[0]
	if line.Title != "lamp" || !line.Price.Equal(decimal.NewFromInt(30)) || line.Image != models.DefaultImage {
		t.Fatalf("line snapshot lost: %+v", line)
	}
	if line.Product != nil {
		t.Fatalf("deleted product should not be joined")
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	// No cart at all.
	_, err := svc.Checkout(ctx, buyer, models.ShippingAddress{})
	assertKind(t, err, ErrEmptyCart)

	// An existing but empty cart.
	if _, err := svc.GetOrCreateCart(ctx, buyer); err != nil {
		t.Fatalf("GetOrCreateCart: %v", err)
	}
	_, err = svc.Checkout(ctx, buyer, models.ShippingAddress{})
	assertKind(t, err, ErrEmptyCart)

	orders, _ := st.ListOrders(ctx, buyer)
	if len(orders) != 0 {
		t.Fatalf("no order should have been written, got %d", len(orders))
	}
}

func TestCheckout_UnavailableProduct(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	a := seedProduct(t, st, seller, "book", "10")
	b := seedProduct(t, st, seller, "vintage camera", "90")

	for _, id := range []int64{a.ID, b.ID} {
		if _, err := svc.AddItem(ctx, buyer, id, 1); err != nil {
			t.Fatalf("AddItem: %v", err)
		}
	}
	// Someone else buys b first.
	if _, err := svc.PurchaseProduct(ctx, other, b.ID); err != nil {
		t.Fatalf("PurchaseProduct: %v", err)
	}

	_, err := svc.Checkout(ctx, buyer, models.ShippingAddress{})
	var unavailable *UnavailableProductError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected UnavailableProductError, got %v", err)
	}
	if unavailable.ProductID != b.ID || unavailable.Error() != `Product "vintage camera" is no longer available` {
		t.Fatalf("unexpected error %+v: %v", unavailable, unavailable)
	}
	assertKind(t, err, ErrConflict)

	orders, _ := st.ListOrders(ctx, buyer)
	if len(orders) != 0 {
		t.Fatalf("no order should have been written")
	}
	stillA, _ := st.GetProduct(ctx, a.ID)
	if stillA.Status != models.ProductAvailable {
		t.Fatalf("product a should still be available, got %s", stillA.Status)
	}
	cart, _ := st.GetCart(ctx, buyer)
	if len(cart.Items) != 2 {
		t.Fatalf("cart should be untouched, has %d items", len(cart.Items))
	}
}

func TestCheckout_DeletedProduct(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, st, seller, "book", "10")
	if _, err := svc.AddItem(ctx, buyer, p.ID, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := st.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}

	_, err := svc.Checkout(ctx, buyer, models.ShippingAddress{})
	var unavailable *UnavailableProductError
	if !errors.As(err, &unavailable) || unavailable.ProductID != p.ID {
		t.Fatalf("expected UnavailableProductError for %d, got %v", p.ID, err)
	}
}

func TestCheckout_RetriesOrderNumberCollision(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	a := seedProduct(t, st, seller, "book", "10")
	b := seedProduct(t, st, seller, "mug", "5")

	calls := 0
	svc.randN = func(int) int {
		calls++
		if calls <= 12 { // the first two numbers drawn are identical
			return 0
		}
		return 1
	}

	if _, err := svc.AddItem(ctx, buyer, a.ID, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	first, err := svc.Checkout(ctx, buyer, models.ShippingAddress{})
	if err != nil {
		t.Fatalf("first Checkout: %v", err)
	}

	if _, err := svc.AddItem(ctx, other, b.ID, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	second, err := svc.Checkout(ctx, other, models.ShippingAddress{})
	if err != nil {
		t.Fatalf("second Checkout: %v", err)
	}
	if first.OrderNumber == second.OrderNumber {
		t.Fatalf("order numbers collide: %s", first.OrderNumber)
	}
}

func TestCheckout_OrderNumberExhausted(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	svc.randN = func(int) int { return 0 }
	a := seedProduct(t, st, seller, "book", "10")
	b := seedProduct(t, st, seller, "mug", "5")

	if _, err := svc.AddItem(ctx, buyer, a.ID, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := svc.Checkout(ctx, buyer, models.ShippingAddress{}); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if _, err := svc.AddItem(ctx, other, b.ID, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	_, err := svc.Checkout(ctx, other, models.ShippingAddress{})
	assertKind(t, err, ErrConflict)

	// The failed checkout left nothing behind.
	stillB, _ := st.GetProduct(ctx, b.ID)
	if stillB.Status != models.ProductAvailable {
		t.Fatalf("product b should still be available")
	}
	orders, _ := st.ListOrders(ctx, other)
	if len(orders) != 0 {
		t.Fatalf("no order should exist for the second buyer")
	}
}

// racingStore loses the MarkSold race for one product, as if another
// buyer's checkout committed between the cart read and the write.
type racingStore struct {
	store.Store
	lostID int64
}

func (r *racingStore) InTx(ctx context.Context, fn func(tx store.Store) error) error {
	return r.Store.InTx(ctx, func(tx store.Store) error {
		return fn(&racingStore{Store: tx, lostID: r.lostID})
	})
}

func (r *racingStore) MarkSold(ctx context.Context, productID, buyerID int64, at time.Time) error {
	if productID == r.lostID {
		return store.ErrNotAvailable
	}
	return r.Store.MarkSold(ctx, productID, buyerID, at)
}

func TestCheckout_LosesMarkSoldRace(t *testing.T) {
	_, st, fm := newTestService(t)
	ctx := context.Background()
	a := seedProduct(t, st, seller, "book", "10")
	b := seedProduct(t, st, seller, "vintage camera", "90")

	svc := NewService(&racingStore{Store: st, lostID: b.ID}, fm, fakeTokens{}, 24*time.Hour)
	svc.now = func() time.Time { return testNow }
	for _, id := range []int64{a.ID, b.ID} {
		if _, err := svc.AddItem(ctx, buyer, id, 1); err != nil {
			t.Fatalf("AddItem: %v", err)
		}
	}

	_, err := svc.Checkout(ctx, buyer, models.ShippingAddress{})
	var unavailable *UnavailableProductError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected UnavailableProductError, got %v", err)
	}
	if unavailable.ProductID != b.ID || unavailable.Title != "vintage camera" {
		t.Fatalf("unexpected error %+v", unavailable)
	}
	assertKind(t, err, ErrConflict)

	// The pending order and the sale of a were rolled back with it.
	orders, _ := st.ListOrders(ctx, buyer)
	if len(orders) != 0 {
		t.Fatalf("no order should have been written, got %d", len(orders))
	}
	stillA, _ := st.GetProduct(ctx, a.ID)
	if stillA.Status != models.ProductAvailable || stillA.BuyerID != nil {
		t.Fatalf("product a should still be available: %+v", stillA)
	}
	cart, _ := st.GetCart(ctx, buyer)
	if len(cart.Items) != 2 {
		t.Fatalf("cart should be untouched, has %d items", len(cart.Items))
	}
}

func TestCheckout_SendsConfirmation(t *testing.T) {
	svc, st, _ := newTestService(t)
	mailer := &fakeMailer{}
	svc.UseMailer(mailer)
	ctx := context.Background()

	session, err := svc.Register(ctx, "Ana", "ana@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	p := seedProduct(t, st, seller, "book", "10")
	if _, err := svc.AddItem(ctx, session.User.ID, p.ID, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	res, err := svc.Checkout(ctx, session.User.ID, models.ShippingAddress{})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.To != "ana@example.com" || !strings.Contains(msg.Subject, res.OrderNumber) {
		t.Fatalf("unexpected message %+v", msg)
	}
	if !strings.Contains(msg.Body, res.TrackingNumber) {
		t.Fatalf("body lacks tracking number:\n%s", msg.Body)
	}
}

func TestCheckout_MailFailureKeepsOrder(t *testing.T) {
	svc, st, _ := newTestService(t)
	svc.UseMailer(&fakeMailer{err: errors.New("relay down")})
	ctx := context.Background()

	session, err := svc.Register(ctx, "Ana", "ana@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	p := seedProduct(t, st, seller, "book", "10")
	if _, err := svc.AddItem(ctx, session.User.ID, p.ID, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if _, err := svc.Checkout(ctx, session.User.ID, models.ShippingAddress{}); err != nil {
		t.Fatalf("Checkout should succeed without mail: %v", err)
	}
	orders, _ := st.ListOrders(ctx, session.User.ID)
	if len(orders) != 1 || orders[0].Status != models.OrderConfirmed {
		t.Fatalf("order not confirmed: %+v", orders)
	}
}
