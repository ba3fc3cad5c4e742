package services

import (
	"github.com/01moynul/ecofinds-golang/internal/models"
	"github.com/shopspring/decimal"
)

// PriceLookup resolves the current price of a product.
type PriceLookup interface {
	PriceOf(productID int64) (decimal.Decimal, bool)
}

// PriceTable is a PriceLookup backed by a map.
type PriceTable map[int64]decimal.Decimal

func (t PriceTable) PriceOf(productID int64) (decimal.Decimal, bool) {
	p, ok := t[productID]
	return p, ok
}

// Totals is the derived state of a cart.
type Totals struct {
	Total decimal.Decimal
	Count int // number of lines, not units
}

// RecomputeTotals sums price times quantity over the items. Items whose
// price is unknown (deleted products) add nothing to the total.
func RecomputeTotals(items []models.CartItem, prices PriceLookup) Totals {
	t := Totals{Total: decimal.Zero, Count: len(items)}
	for _, item := range items {
		price, ok := prices.PriceOf(item.ProductID)
		if !ok {
			continue
		}
		t.Total = t.Total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return t
}

// livePrices collects the joined product prices of expanded cart items.
func livePrices(items []models.CartItem) PriceTable {
	prices := make(PriceTable, len(items))
	for _, item := range items {
		if item.Product != nil {
			prices[item.ProductID] = item.Product.Price
		}
	}
	return prices
}
