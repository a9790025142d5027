package quote

import (
	"fmt"
	"log/slog"

	"stacker/internal/config"
)

// NewFetcher creates the quote source named by cfg.Source.
func NewFetcher(logger *slog.Logger, cfg config.QuoteConfig) (Fetcher, error) {
	switch cfg.Source {
	case "coingecko":
		return NewCoinGeckoClient(logger, cfg.URL, cfg.Asset, cfg.Fiat, cfg.Timeout), nil
	case "binance":
		return NewBinanceTicker(logger, "", cfg.Symbol, cfg.Asset, cfg.Fiat, cfg.Timeout), nil
	case "kraken":
		return NewKrakenTicker(logger, "", cfg.Pair, cfg.Asset, cfg.Fiat, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown quote source: %s", cfg.Source)
	}
}
