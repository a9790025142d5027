// Package ledger keeps the ordered list of purchases and notifies observers of
// every committed change.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"stacker/internal/database"
	"stacker/internal/model"
	"stacker/internal/notify"
)

// ChangeKind tells what happened to the ledger.
type ChangeKind int

const (
	Inserted ChangeKind = iota
	Deleted
)

func (k ChangeKind) String() string {
	if k == Deleted {
		return "deleted"
	}
	return "inserted"
}

// Change is published after a write has been committed to the repository.
type Change struct {
	Kind     ChangeKind
	Purchase model.Purchase
}

// Store validates purchases and persists them through a database.Repository.
// Every mutation returns only once the repository has committed it.
type Store struct {
	logger  *slog.Logger
	repo    database.Repository
	changes *notify.Broadcaster[Change]
	now     func() time.Time
}

// NewStore creates a new Store on top of repo.
func NewStore(logger *slog.Logger, repo database.Repository) *Store {
	return &Store{
		logger:  logger,
		repo:    repo,
		changes: notify.NewBroadcaster[Change](),
		now:     time.Now,
	}
}

// Insert appends a new purchase. Both amounts must be strictly positive.
// A zero timestamp is replaced by the current time.
func (s *Store) Insert(ctx context.Context, fiat, asset decimal.Decimal, ts time.Time) (model.Purchase, error) {
	if err := checkPositive("fiat amount", fiat); err != nil {
		return model.Purchase{}, err
	}
	if err := checkPositive("asset amount", asset); err != nil {
		return model.Purchase{}, err
	}
	if ts.IsZero() {
		ts = s.now()
	}

	p, err := s.repo.Insert(ctx, model.Purchase{FiatAmount: fiat, AssetAmount: asset, Timestamp: ts})
	if err != nil {
		return model.Purchase{}, fmt.Errorf("insert purchase: %w", err)
	}
	s.logger.Info("Purchase recorded", "id", p.ID, "fiat", p.FiatAmount.String(), "asset", p.AssetAmount.String())
	s.changes.Publish(Change{Kind: Inserted, Purchase: p})
	return p, nil
}

// Purchase records spending fiat at the given price. The asset amount is
// computed once here and never recomputed.
func (s *Store) Purchase(ctx context.Context, fiat, price decimal.Decimal) (model.Purchase, error) {
	if err := checkPositive("fiat amount", fiat); err != nil {
		return model.Purchase{}, err
	}
	if price.IsZero() {
		return model.Purchase{}, ErrPriceUnavailable
	}
	if err := checkPositive("price", price); err != nil {
		return model.Purchase{}, err
	}
	asset := fiat.Div(price)
	if !asset.IsPositive() {
		return model.Purchase{}, &ValidationError{
			Field:  "fiat amount",
			Value:  fiat.String(),
			Reason: fmt.Sprintf("too small to buy any asset at price %s", price),
		}
	}
	return s.Insert(ctx, fiat, asset, time.Time{})
}

// Delete removes the purchase with the given id.
// Unknown ids return ErrNotFound and leave the ledger untouched.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete purchase: %w", err)
	}
	s.logger.Info("Purchase deleted", "id", id)
	s.changes.Publish(Change{Kind: Deleted, Purchase: model.Purchase{ID: id}})
	return nil
}

// ListAll returns all purchases in insertion order.
func (s *Store) ListAll(ctx context.Context) ([]model.Purchase, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return list, nil
}

// Subscribe returns a channel receiving every committed change.
// Slow readers may miss intermediate changes; re-read with ListAll.
func (s *Store) Subscribe(buffer int) (<-chan Change, func()) {
	return s.changes.Subscribe(buffer)
}
