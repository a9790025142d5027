// Package pricesync keeps the current asset price up to date.
//
// A Syncer fetches once at startup, then on a fixed interval, and whenever a
// manual retry is requested. At most one fetch is in flight at any time:
// concurrent callers of Refresh share the result of the running fetch.
package pricesync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"stacker/internal/model"
	"stacker/internal/notify"
	"stacker/internal/quote"
)

// DefaultInterval is the refresh period used when none is configured.
const DefaultInterval = time.Minute

// Syncer owns the current price state.
type Syncer struct {
	logger   *slog.Logger
	fetcher  quote.Fetcher
	interval time.Duration

	group   singleflight.Group
	trigger chan struct{}
	states  *notify.Broadcaster[model.PriceState]

	mu    sync.RWMutex
	state model.PriceState
}

// NewSyncer creates a new Syncer. A non-positive interval selects DefaultInterval.
func NewSyncer(logger *slog.Logger, fetcher quote.Fetcher, interval time.Duration) *Syncer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Syncer{
		logger:   logger,
		fetcher:  fetcher,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		states:   notify.NewBroadcaster[model.PriceState](),
		state:    model.PriceState{Status: model.PriceLoading},
	}
}

// State returns a snapshot of the current price state.
func (s *Syncer) State() model.PriceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe returns a channel receiving every new price state.
func (s *Syncer) Subscribe(buffer int) (<-chan model.PriceState, func()) {
	return s.states.Subscribe(buffer)
}

// Refresh fetches the price once. On success the quote replaces the current
// one and the error is cleared; on failure the previous quote is kept and the
// error is recorded. The returned error is a *quote.FetchError or a context error.
//
// The fetch itself is shared by every concurrent caller and is detached from
// their contexts; it is bounded by the fetcher timeout. A caller whose ctx is
// done stops waiting without affecting the others.
func (s *Syncer) Refresh(ctx context.Context) (model.Quote, error) {
	if err := ctx.Err(); err != nil {
		return model.Quote{}, err
	}
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("refresh", func() (any, error) {
		return s.refresh(fetchCtx)
	})
	select {
	case res := <-ch:
		if res.Shared {
			s.logger.Debug("Syncer: joined in-flight refresh")
		}
		q, _ := res.Val.(model.Quote)
		return q, res.Err
	case <-ctx.Done():
		return model.Quote{}, ctx.Err()
	}
}

func (s *Syncer) refresh(ctx context.Context) (model.Quote, error) {
	q, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.setState(func(st *model.PriceState) {
			st.Status = model.PriceError
			st.Err = err.Error()
		})
		return model.Quote{}, err
	}

	s.setState(func(st *model.PriceState) {
		st.Status = model.PriceAvailable
		st.Quote = q
		st.HasQuote = true
		st.Err = ""
	})
	return q, nil
}

func (s *Syncer) setState(update func(st *model.PriceState)) {
	s.mu.Lock()
	update(&s.state)
	st := s.state
	s.mu.Unlock()

	s.states.Publish(st)
}

// Trigger requests a manual refresh from Run. It never blocks; requests made
// before Run picks up the previous one are merged into it.
func (s *Syncer) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run refreshes immediately, then every interval and on Trigger, until ctx is done.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Syncer: starting", "source", s.fetcher.GetName(), "interval", s.interval)
	s.refreshAndLog(ctx, "startup")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Syncer: context cancelled, shutting down")
			return
		case <-ticker.C:
			s.refreshAndLog(ctx, "interval")
		case <-s.trigger:
			s.refreshAndLog(ctx, "manual")
		}
	}
}

func (s *Syncer) refreshAndLog(ctx context.Context, reason string) {
	q, err := s.Refresh(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("Syncer: failed to refresh price", "reason", reason, "error", err)
		}
		return
	}
	s.logger.Info("Syncer: price updated", "reason", reason, "price", q.Price.String(), "fiat", q.Fiat)
}
