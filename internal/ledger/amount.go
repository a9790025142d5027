package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a user supplied amount and checks it is strictly positive.
func ParseAmount(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: field, Value: s, Reason: "empty"}
	}
	// decimal accepts exponents but never NaN or Inf, which are rejected here
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: field, Value: s, Reason: "not a number"}
	}
	if err := checkPositive(field, d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

func checkPositive(field string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return &ValidationError{Field: field, Value: d.String(), Reason: "must be positive"}
	}
	return nil
}
