package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase represents a single fiat-for-asset purchase kept in the ledger.
// AssetAmount is frozen at purchase time and never repriced.
type Purchase struct {
	ID          int64           `db:"id"`
	FiatAmount  decimal.Decimal `db:"fiat_amount"`
	AssetAmount decimal.Decimal `db:"asset_amount"`
	Timestamp   time.Time       `db:"timestamp"`
}

// Quote is the latest known price of one asset unit in fiat.
type Quote struct {
	Asset     string
	Fiat      string
	Source    string
	Price     decimal.Decimal
	FetchedAt time.Time
}

// PriceStatus is the state of the price display.
type PriceStatus int

const (
	PriceLoading PriceStatus = iota
	PriceAvailable
	PriceError
)

func (s PriceStatus) String() string {
	switch s {
	case PriceAvailable:
		return "available"
	case PriceError:
		return "error"
	default:
		return "loading"
	}
}

// PriceState is a snapshot of the price sync loop.
// In the error state Quote still holds the last good value, if any.
type PriceState struct {
	Status   PriceStatus
	Quote    Quote
	HasQuote bool
	Err      string
}

// Totals is the derived view over the ledger and the current price.
type Totals struct {
	Count         int
	AssetQuantity decimal.Decimal
	FiatSpent     decimal.Decimal
	FiatValue     decimal.Decimal
	Price         decimal.Decimal
	Valued        bool
}
