package portfolio

import (
	"github.com/shopspring/decimal"

	"stacker/internal/model"
)

// Compute sums the ledger and values it at the current price.
// FiatValue is a mark-to-market valuation, not the amount spent; it stays zero
// until a quote is known.
func Compute(records []model.Purchase, price model.PriceState) model.Totals {
	totals := model.Totals{
		Count:         len(records),
		AssetQuantity: decimal.Zero,
		FiatSpent:     decimal.Zero,
		FiatValue:     decimal.Zero,
		Price:         decimal.Zero,
	}
	for _, p := range records {
		totals.AssetQuantity = totals.AssetQuantity.Add(p.AssetAmount)
		totals.FiatSpent = totals.FiatSpent.Add(p.FiatAmount)
	}
	if price.HasQuote {
		totals.Valued = true
		totals.Price = price.Quote.Price
		totals.FiatValue = totals.AssetQuantity.Mul(price.Quote.Price)
	}
	return totals
}
