package earnings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEURValue(t *testing.T) {
	// 50_000 sats at 60_000 EUR/BTC = 30 EUR.
	assert.Equal(t, 30.0, EURValue(50_000, 60_000))
	assert.Equal(t, 0.0, EURValue(0, 60_000))
	assert.Equal(t, 0.06, EURValue(100, 60_000))
}

func TestEntry_EURValue(t *testing.T) {
	e := Entry{CumulativeSats: 1_000_000}
	_, ok := e.EURValue()
	assert.False(t, ok)

	price := 50_000.0
	e.BTCPriceEUR = &price
	v, ok := e.EURValue()
	assert.True(t, ok)
	assert.Equal(t, 500.0, v)
}

func TestSeriesOf(t *testing.T) {
	t0 := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	low, high := 40_000.0, 60_000.0

	// Newest first, the way the repository returns them.
	entries := []Entry{
		{CumulativeSats: 300_000, BTCPriceEUR: &low, CreatedAt: t0.Add(48 * time.Hour)},
		{CumulativeSats: 200_000, CreatedAt: t0.Add(24 * time.Hour)},
		{CumulativeSats: 100_000, BTCPriceEUR: &high, CreatedAt: t0},
	}

	s := SeriesOf(entries)
	assert.Equal(t, 3, s.Points)
	assert.Equal(t, t0, s.From)
	assert.Equal(t, t0.Add(48*time.Hour), s.To)
	// 100k sats @ 60k = 60 EUR, 300k sats @ 40k = 120 EUR.
	assert.Equal(t, 60.0, *s.MinValueEUR)
	assert.Equal(t, 120.0, *s.MaxValueEUR)
	assert.Equal(t, low, *s.MinPriceEUR)
	assert.Equal(t, high, *s.MaxPriceEUR)
}

func TestSeriesOf_NoPrices(t *testing.T) {
	s := SeriesOf([]Entry{{CumulativeSats: 10}})
	assert.Equal(t, 1, s.Points)
	assert.Nil(t, s.MinValueEUR)
	assert.Nil(t, s.MaxPriceEUR)

	empty := SeriesOf(nil)
	assert.Zero(t, empty.Points)
	assert.True(t, empty.From.IsZero())
}
