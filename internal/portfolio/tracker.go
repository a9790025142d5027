// Package portfolio derives running totals from the ledger and the live price.
package portfolio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"stacker/internal/ledger"
	"stacker/internal/model"
	"stacker/internal/notify"
)

// Ledger is the part of ledger.Store the tracker reads.
type Ledger interface {
	ListAll(ctx context.Context) ([]model.Purchase, error)
	Subscribe(buffer int) (<-chan ledger.Change, func())
}

// PriceSource is the part of pricesync.Syncer the tracker reads.
type PriceSource interface {
	State() model.PriceState
	Subscribe(buffer int) (<-chan model.PriceState, func())
}

// Snapshot is one consistent view of records, price and totals.
type Snapshot struct {
	Records []model.Purchase
	Price   model.PriceState
	Totals  model.Totals
}

// Tracker recomputes totals whenever the ledger or the price changes.
type Tracker struct {
	logger    *slog.Logger
	ledger    Ledger
	prices    PriceSource
	snapshots *notify.Broadcaster[Snapshot]

	// recompute orders read, store and publish so latest never goes back in time
	recompute sync.Mutex
	mu        sync.RWMutex
	latest Snapshot
}

// NewTracker creates a new instance of the Tracker.
func NewTracker(logger *slog.Logger, l Ledger, prices PriceSource) *Tracker {
	return &Tracker{
		logger:    logger,
		ledger:    l,
		prices:    prices,
		snapshots: notify.NewBroadcaster[Snapshot](),
	}
}

// Current reads the ledger and the price now and returns fresh totals.
// It always reflects every write that returned before the call.
func (t *Tracker) Current(ctx context.Context) (Snapshot, error) {
	records, err := t.ledger.ListAll(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read ledger: %w", err)
	}
	price := t.prices.State()
	return Snapshot{
		Records: records,
		Price:   price,
		Totals:  Compute(records, price),
	}, nil
}

// Latest returns the snapshot published last by Run.
func (t *Tracker) Latest() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.latest
}

// Subscribe returns a channel receiving every snapshot published by Run.
func (t *Tracker) Subscribe(buffer int) (<-chan Snapshot, func()) {
	return t.snapshots.Subscribe(buffer)
}

// Recompute refreshes and publishes the snapshot. Concurrent calls are serialized.
func (t *Tracker) Recompute(ctx context.Context) error {
	t.recompute.Lock()
	defer t.recompute.Unlock()

	snap, err := t.Current(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.latest = snap
	t.mu.Unlock()

	t.snapshots.Publish(snap)
	return nil
}

// Run publishes an initial snapshot and a new one after every ledger or price
// change, until ctx is done.
func (t *Tracker) Run(ctx context.Context) {
	changes, cancelChanges := t.ledger.Subscribe(16)
	defer cancelChanges()
	states, cancelStates := t.prices.Subscribe(1)
	defer cancelStates()

	t.recomputeAndLog(ctx, "startup")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Tracker: context cancelled, shutting down")
			return
		case c := <-changes:
			t.recomputeAndLog(ctx, "purchase "+c.Kind.String())
		case <-states:
			t.recomputeAndLog(ctx, "price")
		}
	}
}

func (t *Tracker) recomputeAndLog(ctx context.Context, reason string) {
	if err := t.Recompute(ctx); err != nil {
		if ctx.Err() == nil {
			t.logger.Error("Tracker: failed to recompute totals", "reason", reason, "error", err)
		}
		return
	}
	totals := t.Latest().Totals
	t.logger.Debug("Tracker: totals recomputed",
		"reason", reason,
		"count", totals.Count,
		"asset", totals.AssetQuantity.String(),
		"value", totals.FiatValue.String(),
	)
}
