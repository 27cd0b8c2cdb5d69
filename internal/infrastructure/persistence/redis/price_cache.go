package redis

import (
	"context"
	"errors"
	"time"
)

// PriceQuote is a cached BTC price.
type PriceQuote struct {
	Currency  string    `json:"currency"`
	Price     float64   `json:"price"`
	FetchedAt time.Time `json:"fetched_at"`
}

// PriceCache shares BTC quotes between replicas so that the public price API
// is hit at most once per TTL.
type PriceCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewPriceCache creates a PriceCache. A non-positive ttl uses TTLPriceQuote.
func NewPriceCache(cache *Cache, ttl time.Duration) *PriceCache {
	if ttl <= 0 {
		ttl = TTLPriceQuote
	}
	return &PriceCache{cache: cache, ttl: ttl}
}

// GetPrice returns the cached price; ok=false on a miss.
func (p *PriceCache) GetPrice(ctx context.Context, currency string) (float64, bool, error) {
	var q PriceQuote
	if err := p.cache.Get(ctx, PriceKey(currency), &q); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return q.Price, true, nil
}

// SetPrice stores a fresh quote.
func (p *PriceCache) SetPrice(ctx context.Context, currency string, price float64) error {
	return p.cache.Set(ctx, PriceKey(currency), PriceQuote{
		Currency:  currency,
		Price:     price,
		FetchedAt: time.Now().UTC(),
	}, p.ttl)
}
