package pricefeed

import (
	"context"
	"sync"

	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// Static is a fixed price feed for offline runs and tests.
// A zero price behaves like an unreachable feed.
type Static struct {
	mu    sync.Mutex
	price float64
	calls int
}

// NewStatic returns a feed that always answers price.
func NewStatic(price float64) *Static {
	return &Static{price: price}
}

// BTCPrice returns the configured price.
func (s *Static) BTCPrice(context.Context, string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.price <= 0 {
		return 0, shared.NewDomainError("pricefeed", "BTCPrice", shared.ErrServiceUnavailable, "no price configured")
	}
	return s.price, nil
}

// SetPrice changes the answer; zero makes the feed fail.
func (s *Static) SetPrice(price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.price = price
}

// Calls returns how often the feed was asked.
func (s *Static) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
