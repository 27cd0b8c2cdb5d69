package pricefeed

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/sats-family/chore-hub/internal/domain/earnings"
)

// QuoteStore keeps recent quotes. It is implemented by the Redis PriceCache.
type QuoteStore interface {
	GetPrice(ctx context.Context, currency string) (float64, bool, error)
	SetPrice(ctx context.Context, currency string, price float64) error
}

// Cached serves quotes from a QuoteStore and collapses concurrent misses into
// one upstream call. Store errors are logged and bypassed.
type Cached struct {
	feed   earnings.PriceFeed
	store  QuoteStore
	group  singleflight.Group
	logger *slog.Logger
}

var _ earnings.PriceFeed = (*Cached)(nil)

// NewCached wraps feed with store.
func NewCached(feed earnings.PriceFeed, store QuoteStore, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{feed: feed, store: store, logger: logger.With("component", "pricefeed_cache")}
}

// BTCPrice implements earnings.PriceFeed.
func (c *Cached) BTCPrice(ctx context.Context, currency string) (float64, error) {
	currency = strings.ToLower(strings.TrimSpace(currency))

	if price, ok, err := c.store.GetPrice(ctx, currency); err != nil {
		c.logger.Warn("quote cache read failed", "error", err)
	} else if ok {
		return price, nil
	}

	v, err, _ := c.group.Do(currency, func() (interface{}, error) {
		price, err := c.feed.BTCPrice(ctx, currency)
		if err != nil {
			return 0.0, err
		}
		if err := c.store.SetPrice(ctx, currency, price); err != nil {
			c.logger.Warn("quote cache write failed", "error", err)
		}
		return price, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}
