// Package pricefeed fetches the BTC spot price used to show the euro value of
// a child's sats.
package pricefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sats-family/chore-hub/internal/domain/earnings"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/pkg/circuitbreaker"
	"github.com/sats-family/chore-hub/pkg/retry"
)

// DefaultBaseURL is the public CoinGecko API.
const DefaultBaseURL = "https://api.coingecko.com"

// ErrPriceMissing is returned when the response has no price for the currency.
var ErrPriceMissing = errors.New("pricefeed: price missing in response")

// Config configures the CoinGecko client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

// CoinGecko reads /api/v3/simple/price.
type CoinGecko struct {
	baseURL    string
	httpClient *http.Client
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
	logger     *slog.Logger
}

var _ earnings.PriceFeed = (*CoinGecko)(nil)

// NewCoinGecko creates a client. Zero config values use the defaults.
func NewCoinGecko(cfg Config) *CoinGecko {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("component", "pricefeed")

	return &CoinGecko{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retrier:    retry.PriceFeedRetrier(),
		breaker: circuitbreaker.PriceFeedBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		}),
		logger: logger,
	}
}

// WithRetrier replaces the retry policy. Used by tests.
func (c *CoinGecko) WithRetrier(r *retry.Retrier) *CoinGecko {
	c.retrier = r
	return c
}

// BTCPrice returns the price of one bitcoin in currency (e.g. "eur").
func (c *CoinGecko) BTCPrice(ctx context.Context, currency string) (float64, error) {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		return 0, shared.NewDomainError("pricefeed", "BTCPrice", shared.ErrValidation, "currency is required")
	}

	var price float64
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		price, err = retry.DoWithData(ctx, c.retrier, func(ctx context.Context) (float64, error) {
			return c.fetch(ctx, currency)
		})
		return err
	})
	if err != nil {
		c.logger.Warn("btc price unavailable", "currency", currency, "error", err)
		return 0, shared.WrapError("pricefeed", "BTCPrice", shared.ErrExternalService, "btc price unavailable", err)
	}
	return price, nil
}

func (c *CoinGecko) fetch(ctx context.Context, currency string) (float64, error) {
	q := url.Values{}
	q.Set("ids", "bitcoin")
	q.Set("vs_currencies", currency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/simple/price?"+q.Encode(), nil)
	if err != nil {
		return 0, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, retry.Retryable(fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("coingecko status %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return 0, retry.Retryable(err)
		}
		return 0, retry.Permanent(err)
	}

	// {"bitcoin":{"eur":61234.5}}
	var body map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, retry.Permanent(fmt.Errorf("decode response: %w", err))
	}
	price, ok := body["bitcoin"][currency]
	if !ok || price <= 0 {
		return 0, retry.Permanent(ErrPriceMissing)
	}
	return price, nil
}
