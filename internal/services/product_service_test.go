package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/01moynul/ecofinds-golang/internal/media"
	"github.com/01moynul/ecofinds-golang/internal/models"
	"github.com/01moynul/ecofinds-golang/internal/store"
	"github.com/shopspring/decimal"
)

func validInput() ProductInput {
	return ProductInput{
		Title:       "Film camera",
		Description: "35mm, works fine",
		Category:    "Electronics",
		Price:       decimal.RequireFromString("45.00"),
		Condition:   "Good",
		Location:    "Braga",
	}
}

func TestListProducts_Search(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	seedProduct(t, st, seller, "Canon Camera", "100")
	withDesc := seedProduct(t, st, seller, "Lens bundle", "50")
	withDesc.Description = "fits any CAMERA body"
	if err := st.UpdateProduct(ctx, withDesc); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	seedProduct(t, st, seller, "Desk lamp", "20")
	sold := seedProduct(t, st, seller, "camera strap", "5")
	if err := st.MarkSold(ctx, sold.ID, buyer, testNow); err != nil {
		t.Fatalf("MarkSold: %v", err)
	}

	page, err := svc.ListProducts(ctx, ProductQuery{Search: "camera"})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if page.Total != 2 || len(page.Products) != 2 {
		t.Fatalf("expected 2 matches, got %d", page.Total)
	}
	for _, p := range page.Products {
		text := strings.ToLower(p.Title + " " + p.Description)
		if !strings.Contains(text, "camera") || p.Status != models.ProductAvailable {
			t.Fatalf("unexpected match %q (%s)", p.Title, p.Status)
		}
	}
}

func TestListProducts_Paging(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		seedProduct(t, st, seller, "item", "1")
	}

	page, err := svc.ListProducts(ctx, ProductQuery{Category: "all", Page: 2, Limit: 3})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if page.Total != 7 || page.TotalPages != 3 || page.CurrentPage != 2 || len(page.Products) != 3 {
		t.Fatalf("unexpected page %+v", page)
	}

	page, _ = svc.ListProducts(ctx, ProductQuery{Category: "Books"})
	if page.Total != 0 || page.Products == nil || page.CurrentPage != 1 {
		t.Fatalf("unexpected empty page %+v", page)
	}
}

func TestCreateProduct(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, seller, validInput(), nil)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.Image != models.DefaultImage || p.Status != models.ProductAvailable || p.SellerID != seller {
		t.Fatalf("unexpected product %+v", p)
	}

	p, err = svc.CreateProduct(ctx, seller, validInput(), []media.File{namedFile("a.jpg"), namedFile("b.jpg")})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.Image != "/uploads/a.jpg" || len(p.Images) != 2 {
		t.Fatalf("images not attached: %+v", p.Images)
	}

	_, err = svc.CreateProduct(ctx, seller, validInput(), []media.File{namedFile("fail")})
	assertKind(t, err, ErrUpstream)
}

func TestCreateProduct_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)

	tests := []struct {
		name   string
		mutate func(in *ProductInput)
	}{
		{"missing title", func(in *ProductInput) { in.Title = "  " }},
		{"long title", func(in *ProductInput) { in.Title = strings.Repeat("x", 101) }},
		{"long description", func(in *ProductInput) { in.Description = strings.Repeat("x", 501) }},
		{"bad category", func(in *ProductInput) { in.Category = "Weapons" }},
		{"bad condition", func(in *ProductInput) { in.Condition = "Broken" }},
		{"no location", func(in *ProductInput) { in.Location = "" }},
		{"negative price", func(in *ProductInput) { in.Price = decimal.NewFromInt(-1) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := svc.CreateProduct(context.Background(), seller, in, nil)
			assertKind(t, err, ErrValidation)
		})
	}
}

func TestUpdateProduct(t *testing.T) {
	svc, _, fm := newTestService(t)
	ctx := context.Background()
	p, err := svc.CreateProduct(ctx, seller, validInput(), []media.File{namedFile("old.jpg")})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	_, err = svc.UpdateProduct(ctx, buyer, p.ID, ProductPatch{Title: "mine now"}, nil)
	assertKind(t, err, ErrForbidden)

	price := decimal.NewFromInt(30)
	updated, err := svc.UpdateProduct(ctx, seller, p.ID, ProductPatch{Price: &price}, []media.File{namedFile("new.jpg")})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.Title != "Film camera" || !updated.Price.Equal(price) || updated.Image != "/uploads/new.jpg" {
		t.Fatalf("unexpected update %+v", updated)
	}
	if len(fm.deleted) != 1 || fm.deleted[0] != "old.jpg" {
		t.Fatalf("old image not removed: %v", fm.deleted)
	}

	if _, err := svc.PurchaseProduct(ctx, buyer, p.ID); err != nil {
		t.Fatalf("PurchaseProduct: %v", err)
	}
	_, err = svc.UpdateProduct(ctx, seller, p.ID, ProductPatch{Title: "too late"}, nil)
	assertKind(t, err, ErrConflict)

	_, err = svc.UpdateProduct(ctx, seller, 9999, ProductPatch{}, nil)
	assertKind(t, err, ErrNotFound)
}

// sellsDuringEdit sells the product right before the edit is written.
type sellsDuringEdit struct {
	store.Store
}

func (s sellsDuringEdit) UpdateProduct(ctx context.Context, p *models.Product) error {
	if err := s.Store.MarkSold(ctx, p.ID, buyer, testNow); err != nil {
		return err
	}
	return s.Store.UpdateProduct(ctx, p)
}

func TestUpdateProduct_SoldDuringEdit(t *testing.T) {
	_, st, fm := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, st, seller, "film camera", "45")

	svc := NewService(sellsDuringEdit{st}, fm, fakeTokens{}, 24*time.Hour)
	svc.now = func() time.Time { return testNow }

	_, err := svc.UpdateProduct(ctx, seller, p.ID, ProductPatch{Title: "too late"}, []media.File{namedFile("new.jpg")})
	assertKind(t, err, ErrConflict)

	got, _ := st.GetProduct(ctx, p.ID)
	if got.Title != "film camera" || got.Status != models.ProductSold {
		t.Fatalf("sold product was edited: %+v", got)
	}
	if len(fm.deleted) != 1 || fm.deleted[0] != "new.jpg" {
		t.Fatalf("new image not cleaned up: %v", fm.deleted)
	}
}

func TestDeleteProduct(t *testing.T) {
	svc, st, fm := newTestService(t)
	ctx := context.Background()
	p, err := svc.CreateProduct(ctx, seller, validInput(), []media.File{namedFile("pic.jpg")})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	assertKind(t, svc.DeleteProduct(ctx, buyer, p.ID), ErrForbidden)
	if err := svc.DeleteProduct(ctx, seller, p.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if _, err := st.GetProduct(ctx, p.ID); err == nil {
		t.Fatalf("product still stored")
	}
	if len(fm.deleted) != 1 || fm.deleted[0] != "pic.jpg" {
		t.Fatalf("image not removed: %v", fm.deleted)
	}
	assertKind(t, svc.DeleteProduct(ctx, seller, p.ID), ErrNotFound)
}

func TestPurchaseProduct(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, st, seller, "guitar", "150")

	_, err := svc.PurchaseProduct(ctx, seller, p.ID)
	assertKind(t, err, ErrConflict)
	_, err = svc.PurchaseProduct(ctx, buyer, 9999)
	assertKind(t, err, ErrNotFound)

	bought, err := svc.PurchaseProduct(ctx, buyer, p.ID)
	if err != nil {
		t.Fatalf("PurchaseProduct: %v", err)
	}
	if bought.Status != models.ProductSold || *bought.BuyerID != buyer {
		t.Fatalf("unexpected product %+v", bought)
	}

	_, err = svc.PurchaseProduct(ctx, other, p.ID)
	assertKind(t, err, ErrConflict)

	purchases, _ := svc.ListPurchases(ctx, buyer)
	if len(purchases) != 1 || purchases[0].ID != p.ID {
		t.Fatalf("purchases = %+v", purchases)
	}
	mine, _ := svc.ListSellerProducts(ctx, seller)
	if len(mine) != 1 {
		t.Fatalf("seller products = %d", len(mine))
	}
	none, _ := svc.ListPurchases(ctx, other)
	if none == nil || len(none) != 0 {
		t.Fatalf("expected empty purchases, got %v", none)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, "Ana", "Ana@Example.com", "secret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if sess.User.Email != "ana@example.com" || sess.Token == "" {
		t.Fatalf("unexpected session %+v", sess)
	}

	_, err = svc.Register(ctx, "Ana again", "ana@example.com", "secret2")
	assertKind(t, err, ErrConflict)
	_, err = svc.Register(ctx, "Bob", "not-an-email", "secret1")
	assertKind(t, err, ErrValidation)
	_, err = svc.Register(ctx, "Bob", "bob@example.com", "123")
	assertKind(t, err, ErrValidation)

	if _, err := svc.Login(ctx, "ANA@example.com", "secret1"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	_, err = svc.Login(ctx, "ana@example.com", "wrong")
	assertKind(t, err, ErrUnauthorized)
	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assertKind(t, err, ErrUnauthorized)
}
