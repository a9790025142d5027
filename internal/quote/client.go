package quote

import (
	"context"
	"errors"
	"fmt"

	"stacker/internal/model"
)

// ErrFetch matches every *FetchError.
var ErrFetch = errors.New("price fetch failed")

// Fetcher defines the standard interface for all quote sources.
// Fetch makes exactly one call to the remote service.
type Fetcher interface {
	GetName() string
	Fetch(ctx context.Context) (model.Quote, error)
}

// FetchError reports an unreachable quote service or an unusable answer.
// StatusCode is zero when no HTTP response was received.
type FetchError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }
