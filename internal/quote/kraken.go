package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"stacker/internal/model"
)

const krakenStreamURL = "wss://ws.kraken.com"

// KrakenTicker implements the Fetcher interface on the Kraken public websocket.
// Each Fetch subscribes to the ticker channel, waits for one update and disconnects.
type KrakenTicker struct {
	logger  *slog.Logger
	wsURL   string
	pair    string
	asset   string
	fiat    string
	timeout time.Duration
	now     func() time.Time
}

// NewKrakenTicker creates a new KrakenTicker for a pair such as "XBT/USD".
// An empty wsURL selects the public Kraken endpoint.
func NewKrakenTicker(logger *slog.Logger, wsURL, pair, asset, fiat string, timeout time.Duration) *KrakenTicker {
	if wsURL == "" {
		wsURL = krakenStreamURL
	}
	return &KrakenTicker{
		logger:  logger,
		wsURL:   wsURL,
		pair:    pair,
		asset:   asset,
		fiat:    fiat,
		timeout: timeout,
		now:     time.Now,
	}
}

func (k *KrakenTicker) GetName() string {
	return "kraken"
}

type krakenEvent struct {
	Event        string `json:"event"`
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage"`
}

// krakenTicker holds the fields used from a ticker payload; c is [price, lot volume].
type krakenTicker struct {
	Close []string `json:"c"`
}

// Fetch subscribes to the pair ticker and returns the last trade price of the first update.
func (k *KrakenTicker) Fetch(ctx context.Context) (model.Quote, error) {
	if k.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.timeout)
		defer cancel()
	}

	c, resp, err := websocket.DefaultDialer.DialContext(ctx, k.wsURL, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return model.Quote{}, k.fail(status, fmt.Errorf("dial %s: %w", k.wsURL, err))
	}
	defer c.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.SetReadDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	subscription := map[string]interface{}{
		"event": "subscribe",
		"pair":  []string{k.pair},
		"subscription": map[string]string{
			"name": "ticker",
		},
	}
	if err := c.WriteJSON(subscription); err != nil {
		return model.Quote{}, k.fail(0, fmt.Errorf("send subscription: %w", err))
	}

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			return model.Quote{}, k.fail(0, fmt.Errorf("read ticker: %w", err))
		}

		// events are objects, channel data are arrays
		if len(message) > 0 && message[0] == '{' {
			var ev krakenEvent
			if err := json.Unmarshal(message, &ev); err != nil {
				return model.Quote{}, k.fail(0, fmt.Errorf("malformed event: %w", err))
			}
			if ev.Event == "subscriptionStatus" && ev.Status == "error" {
				return model.Quote{}, k.fail(0, fmt.Errorf("subscription rejected: %s", ev.ErrorMessage))
			}
			k.logger.Debug("KrakenTicker: skipping event", "event", ev.Event)
			continue
		}

		// [channelID, tickerData, channelName, pair]
		var frame []json.RawMessage
		if err := json.Unmarshal(message, &frame); err != nil || len(frame) < 3 {
			return model.Quote{}, k.fail(0, fmt.Errorf("malformed ticker frame: %s", message))
		}
		var channel string
		if err := json.Unmarshal(frame[2], &channel); err != nil || channel != "ticker" {
			continue
		}
		var t krakenTicker
		if err := json.Unmarshal(frame[1], &t); err != nil {
			return model.Quote{}, k.fail(0, fmt.Errorf("malformed ticker: %w", err))
		}
		if len(t.Close) == 0 {
			return model.Quote{}, k.fail(0, errors.New("ticker without last trade"))
		}
		price, err := toDecimal(t.Close[0])
		if err != nil {
			return model.Quote{}, k.fail(0, fmt.Errorf("last trade %q: %w", t.Close[0], err))
		}
		if !price.IsPositive() {
			return model.Quote{}, k.fail(0, fmt.Errorf("last trade is not positive: %s", price))
		}

		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))

		k.logger.Debug("KrakenTicker: price fetched", "pair", k.pair, "price", price.String())
		return model.Quote{
			Asset:     k.asset,
			Fiat:      k.fiat,
			Source:    k.GetName(),
			Price:     price,
			FetchedAt: k.now(),
		}, nil
	}
}

func (k *KrakenTicker) fail(status int, err error) error {
	k.logger.Warn("KrakenTicker: fetch failed", "status", status, "error", err)
	return &FetchError{Source: k.GetName(), StatusCode: status, Err: err}
}
