package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sats-family/chore-hub/internal/domain/family"
)

func TestScore_RespectsRankingOrder(t *testing.T) {
	higherLevel := family.Standing{ChoreLevel: 2}
	moreApproved := family.Standing{ChoreLevel: 1, ApprovedCount: 5, LearningXP: 999_999}
	moreXP := family.Standing{ChoreLevel: 1, ApprovedCount: 4, LearningXP: 10_000}

	assert.Greater(t, Score(higherLevel), Score(moreApproved))
	assert.Greater(t, Score(moreApproved), Score(moreXP))
}

func TestScore_ClampsOverflowingParts(t *testing.T) {
	huge := family.Standing{ChoreLevel: 1, ApprovedCount: 5, LearningXP: 50_000_000}
	nextApproved := family.Standing{ChoreLevel: 1, ApprovedCount: 6}

	assert.Less(t, Score(huge), Score(nextApproved))
	assert.Equal(t, float64(0), Score(family.Standing{ApprovedCount: -3}))
}

func TestConfigOptions(t *testing.T) {
	t.Run("host and port", func(t *testing.T) {
		opts, err := DefaultConfig().Options()
		assert.NoError(t, err)
		assert.Equal(t, "localhost:6379", opts.Addr)
	})

	t.Run("url wins", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.URL = "redis://:secret@cache.internal:6380/2"
		opts, err := cfg.Options()
		assert.NoError(t, err)
		assert.Equal(t, "cache.internal:6380", opts.Addr)
		assert.Equal(t, "secret", opts.Password)
		assert.Equal(t, 2, opts.DB)
	})

	t.Run("bad url", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.URL = "http://nope"
		_, err := cfg.Options()
		assert.ErrorIs(t, err, ErrCacheConnection)
	})
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "chorehub:price:eur", PriceKey("eur"))
	assert.Equal(t, "chorehub:lock:retry_pending_milestones", LockKey("retry_pending_milestones"))
}
