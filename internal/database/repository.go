package database

import (
	"context"
	"errors"

	"stacker/internal/model"
)

// ErrNotFound is returned when a purchase id does not exist.
var ErrNotFound = errors.New("purchase not found")

// Repository defines the standard interface for database operations.
// Insert returns the stored purchase with its generated id.
// List returns purchases in insertion order.
type Repository interface {
	Insert(ctx context.Context, p model.Purchase) (model.Purchase, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]model.Purchase, error)
	Close() error
}
