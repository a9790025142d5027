package quote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"stacker/internal/model"
)

// CoinGeckoClient implements the Fetcher interface for the CoinGecko simple price API.
//
//	GET /api/v3/simple/price?ids=bitcoin&vs_currencies=usd
//	{"bitcoin":{"usd":70000}}
type CoinGeckoClient struct {
	logger   *slog.Logger
	client   *http.Client
	endpoint string
	asset    string
	fiat     string
	now      func() time.Time
}

// NewCoinGeckoClient creates a new CoinGeckoClient. A zero timeout means none.
func NewCoinGeckoClient(logger *slog.Logger, endpoint, asset, fiat string, timeout time.Duration) *CoinGeckoClient {
	return &CoinGeckoClient{
		logger:   logger,
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		asset:    asset,
		fiat:     fiat,
		now:      time.Now,
	}
}

func (c *CoinGeckoClient) GetName() string {
	return "coingecko"
}

// pricePath locates the price in the response; bracket notation keeps asset ids like "usd-coin" intact.
func (c *CoinGeckoClient) pricePath() string {
	return fmt.Sprintf("$[%q][%q]", c.asset, c.fiat)
}

// Fetch performs one GET and extracts the asset price.
func (c *CoinGeckoClient) Fetch(ctx context.Context) (model.Quote, error) {
	addr, err := url.Parse(c.endpoint)
	if err != nil {
		return model.Quote{}, c.fail(0, fmt.Errorf("bad endpoint: %w", err))
	}
	q := addr.Query()
	q.Set("ids", c.asset)
	q.Set("vs_currencies", c.fiat)
	addr.RawQuery = q.Encode()

	var jobj any
	if status, err := c.getJSON(ctx, addr.String(), &jobj); err != nil {
		return model.Quote{}, c.fail(status, err)
	}

	path := c.pricePath()
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return model.Quote{}, c.fail(0, fmt.Errorf("no price at %s: %w", path, err))
	}
	price, err := toDecimal(jval)
	if err != nil {
		return model.Quote{}, c.fail(0, fmt.Errorf("price at %s: %w", path, err))
	}
	if !price.IsPositive() {
		return model.Quote{}, c.fail(0, fmt.Errorf("price at %s is not positive: %s", path, price))
	}

	c.logger.Debug("CoinGeckoClient: price fetched", "asset", c.asset, "fiat", c.fiat, "price", price.String())
	return model.Quote{
		Asset:     c.asset,
		Fiat:      c.fiat,
		Source:    c.GetName(),
		Price:     price,
		FetchedAt: c.now(),
	}, nil
}

// getJSON performs a GET and decodes a 2xx JSON body into data, keeping numbers exact.
func (c *CoinGeckoClient) getJSON(ctx context.Context, addr string, data any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return resp.StatusCode, err
	}
	dec := json.NewDecoder(&buf)
	dec.UseNumber()
	if err := dec.Decode(data); err != nil {
		return resp.StatusCode, fmt.Errorf("malformed body: %w", err)
	}
	return resp.StatusCode, nil
}

func (c *CoinGeckoClient) fail(status int, err error) error {
	c.logger.Warn("CoinGeckoClient: fetch failed", "status", status, "error", err)
	return &FetchError{Source: c.GetName(), StatusCode: status, Err: err}
}

func toDecimal(v any) (decimal.Decimal, error) {
	// jsonpath may wrap a single answer in a list
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return decimal.Zero, errors.New("empty result")
		}
		v = list[0]
	}
	switch n := v.(type) {
	case json.Number:
		return decimal.NewFromString(n.String())
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		return decimal.NewFromString(n)
	default:
		return decimal.Zero, fmt.Errorf("not a number: %v", v)
	}
}
