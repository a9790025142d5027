package cli

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"stacker/internal/model"
	"stacker/internal/portfolio"
)

func TestFormatFiat(t *testing.T) {
	assert.Equal(t, "$240.00", formatFiat(decimal.RequireFromString("240"), "usd"))
	assert.Equal(t, "$60,000.00", formatFiat(decimal.NewFromInt(60000), "USD"))
	assert.Equal(t, "$0.01", formatFiat(decimal.RequireFromString("0.005"), "usd"))
	assert.Equal(t, "12.50 XYZ", formatFiat(decimal.RequireFromString("12.5"), "xyz"))
}

func TestFormatAsset(t *testing.T) {
	assert.Equal(t, "0.00400000 BTC", formatAsset(decimal.RequireFromString("0.004"), "BTC"))
}

func TestPriceMarkdown(t *testing.T) {
	fetched := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	q := model.Quote{Price: decimal.NewFromInt(70000), Source: "coingecko", FetchedAt: fetched}

	assert.Contains(t, priceMarkdown(model.PriceState{Status: model.PriceLoading}, "usd"), "Fetching price")

	out := priceMarkdown(model.PriceState{Status: model.PriceAvailable, Quote: q, HasQuote: true}, "usd")
	assert.Contains(t, out, "$70,000.00")
	assert.Contains(t, out, "coingecko")

	out = priceMarkdown(model.PriceState{Status: model.PriceError, Quote: q, HasQuote: true, Err: "status 500"}, "usd")
	assert.Contains(t, out, "Price unavailable")
	assert.Contains(t, out, "status 500")
	assert.Contains(t, out, "Last known price: $70,000.00")
}

func TestReportMarkdown(t *testing.T) {
	records := []model.Purchase{
		{ID: 1, FiatAmount: decimal.NewFromInt(100), AssetAmount: decimal.RequireFromString("0.002"), Timestamp: time.Now()},
		{ID: 2, FiatAmount: decimal.NewFromInt(50), AssetAmount: decimal.RequireFromString("0.002"), Timestamp: time.Now()},
	}
	price := model.PriceState{Status: model.PriceAvailable, Quote: model.Quote{Price: decimal.NewFromInt(60000)}, HasQuote: true}
	snap := portfolio.Snapshot{Records: records, Price: price, Totals: portfolio.Compute(records, price)}

	out := reportMarkdown(snap, "usd", "BTC")
	assert.Contains(t, out, "# BTC stacker")
	assert.Contains(t, out, "| 1 | $100.00 | 0.00200000 BTC |")
	assert.Contains(t, out, "Total BTC: **0.00400000 BTC**")
	assert.Contains(t, out, "Total value: **$240.00**")
	assert.Contains(t, out, "Total spent: $150.00")
}

func TestHistoryMarkdown_Empty(t *testing.T) {
	assert.Contains(t, historyMarkdown(nil, "usd", "BTC"), "No purchases yet.")
}

func TestTotalsMarkdown_Unvalued(t *testing.T) {
	out := totalsMarkdown(model.Totals{AssetQuantity: decimal.Zero, FiatSpent: decimal.Zero}, "usd", "BTC")
	assert.Contains(t, out, "unknown until a price is available")
}
