package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"stacker/internal/model"
)

const binanceStreamURL = "wss://stream.binance.com:9443/ws"

// BinanceTicker implements the Fetcher interface on the Binance ticker stream.
// Each Fetch opens the stream, reads one ticker event and closes it.
type BinanceTicker struct {
	logger  *slog.Logger
	baseURL string
	symbol  string
	asset   string
	fiat    string
	timeout time.Duration
	now     func() time.Time
}

// NewBinanceTicker creates a new BinanceTicker for a symbol such as "btcusdt".
// An empty baseURL selects the public Binance endpoint.
func NewBinanceTicker(logger *slog.Logger, baseURL, symbol, asset, fiat string, timeout time.Duration) *BinanceTicker {
	if baseURL == "" {
		baseURL = binanceStreamURL
	}
	return &BinanceTicker{
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		symbol:  strings.ToLower(symbol),
		asset:   asset,
		fiat:    fiat,
		timeout: timeout,
		now:     time.Now,
	}
}

func (b *BinanceTicker) GetName() string {
	return "binance"
}

// tickerEvent holds the fields used from a 24hrTicker event.
type tickerEvent struct {
	Event     string `json:"e"`
	Symbol    string `json:"s"`
	LastPrice string `json:"c"`
}

// Fetch connects to the ticker stream and returns the last trade price of the first event.
func (b *BinanceTicker) Fetch(ctx context.Context) (model.Quote, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	wsURL := fmt.Sprintf("%s/%s@ticker", b.baseURL, b.symbol)
	c, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return model.Quote{}, b.fail(status, fmt.Errorf("dial %s: %w", wsURL, err))
	}
	defer c.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.SetReadDeadline(deadline)
	}
	// unblock ReadMessage when ctx is cancelled without a deadline
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			return model.Quote{}, b.fail(0, fmt.Errorf("read ticker: %w", err))
		}

		var ev tickerEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			return model.Quote{}, b.fail(0, fmt.Errorf("malformed ticker: %w", err))
		}
		// skip non-ticker frames such as subscription acks
		if ev.Event != "24hrTicker" {
			b.logger.Debug("BinanceTicker: skipping message", "event", ev.Event)
			continue
		}
		if ev.LastPrice == "" {
			return model.Quote{}, b.fail(0, errors.New("ticker without last price"))
		}

		price, err := toDecimal(ev.LastPrice)
		if err != nil {
			return model.Quote{}, b.fail(0, fmt.Errorf("last price %q: %w", ev.LastPrice, err))
		}
		if !price.IsPositive() {
			return model.Quote{}, b.fail(0, fmt.Errorf("last price is not positive: %s", price))
		}

		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))

		b.logger.Debug("BinanceTicker: price fetched", "symbol", ev.Symbol, "price", price.String())
		return model.Quote{
			Asset:     b.asset,
			Fiat:      b.fiat,
			Source:    b.GetName(),
			Price:     price,
			FetchedAt: b.now(),
		}, nil
	}
}

func (b *BinanceTicker) fail(status int, err error) error {
	b.logger.Warn("BinanceTicker: fetch failed", "status", status, "error", err)
	return &FetchError{Source: b.GetName(), StatusCode: status, Err: err}
}
