package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"stacker/internal/model"
	"stacker/internal/portfolio"
)

// formatFiat renders an amount with the currency symbol and its minor units, e.g. "$60,000.00".
func formatFiat(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(code)
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// formatAsset renders an asset quantity with 8 decimals, e.g. "0.00200000 BTC".
func formatAsset(amount decimal.Decimal, unit string) string {
	return amount.StringFixed(8) + " " + unit
}

func priceMarkdown(st model.PriceState, fiat string) string {
	var b strings.Builder
	switch st.Status {
	case model.PriceLoading:
		b.WriteString("Fetching price...\n")
	case model.PriceError:
		fmt.Fprintf(&b, "**Price unavailable:** %s\n", st.Err)
		if st.HasQuote {
			fmt.Fprintf(&b, "\nLast known price: %s (%s)\n", formatFiat(st.Quote.Price, fiat), st.Quote.FetchedAt.Format(time.TimeOnly))
		}
	case model.PriceAvailable:
		fmt.Fprintf(&b, "Current price: **%s** (%s, %s)\n",
			formatFiat(st.Quote.Price, fiat), st.Quote.Source, st.Quote.FetchedAt.Format(time.TimeOnly))
	}
	return b.String()
}

func historyMarkdown(records []model.Purchase, fiat, unit string) string {
	var b strings.Builder
	b.WriteString("## Transaction History\n\n")
	if len(records) == 0 {
		b.WriteString("No purchases yet.\n")
		return b.String()
	}
	b.WriteString("| ID | Fiat | Asset | Date |\n")
	b.WriteString("|---:|---:|---:|---|\n")
	for _, p := range records {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n",
			p.ID, formatFiat(p.FiatAmount, fiat), formatAsset(p.AssetAmount, unit), p.Timestamp.Local().Format(time.DateTime))
	}
	return b.String()
}

func totalsMarkdown(t model.Totals, fiat, unit string) string {
	var b strings.Builder
	b.WriteString("## Totals\n\n")
	fmt.Fprintf(&b, "- Total %s: **%s**\n", unit, formatAsset(t.AssetQuantity, unit))
	if t.Valued {
		fmt.Fprintf(&b, "- Total value: **%s**\n", formatFiat(t.FiatValue, fiat))
	} else {
		b.WriteString("- Total value: unknown until a price is available\n")
	}
	fmt.Fprintf(&b, "- Total spent: %s\n", formatFiat(t.FiatSpent, fiat))
	return b.String()
}

// reportMarkdown is the full screen: price, history and totals.
func reportMarkdown(s portfolio.Snapshot, fiat, unit string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s stacker\n\n", unit)
	b.WriteString(priceMarkdown(s.Price, fiat))
	b.WriteString("\n")
	b.WriteString(historyMarkdown(s.Records, fiat, unit))
	b.WriteString("\n")
	b.WriteString(totalsMarkdown(s.Totals, fiat, unit))
	return b.String()
}
