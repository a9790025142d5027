package ledger

import (
	"errors"
	"fmt"

	"stacker/internal/database"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("invalid purchase")
	// ErrNotFound is returned when deleting an id that is not in the ledger.
	ErrNotFound = database.ErrNotFound
	// ErrPriceUnavailable is returned when a purchase is attempted before any price is known.
	ErrPriceUnavailable = errors.New("price unavailable")
)

// ValidationError reports a rejected user input.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
