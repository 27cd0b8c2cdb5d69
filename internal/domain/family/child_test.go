package family

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sats-family/chore-hub/internal/domain/shared"
)

var now = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func TestNewChild_Validation(t *testing.T) {
	_, err := NewChild(0, "fam", "Mia", now)
	assert.True(t, shared.IsValidation(err))

	_, err = NewChild(7, "", "Mia", now)
	assert.True(t, shared.IsValidation(err))

	_, err = NewChild(7, "fam", "  ", now)
	assert.True(t, shared.IsValidation(err))

	c, err := NewChild(7, "fam", " Mia ", now)
	require.NoError(t, err)
	assert.Equal(t, "Mia", c.DisplayName)
}

func TestCounters_UnlockWalkthrough(t *testing.T) {
	c := NewCounters(7)

	for i := 0; i < 3; i++ {
		c.RecordApproval(true, now)
	}
	assert.Equal(t, 1, c.Unlock().FreeSlots)
	assert.Equal(t, 0, c.Unlock().ProgressToNext)

	require.NoError(t, c.ConsumePaidSlot(now))
	assert.Equal(t, 0, c.Unlock().FreeSlots)

	err := c.ConsumePaidSlot(now)
	var locked *shared.LockedError
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, 0, locked.Completed)
	assert.Equal(t, 3, locked.Required)
	assert.Equal(t, 1, c.PaidConsumed, "failed consume does not change counters")
}

func TestCounters_LevelAndCache(t *testing.T) {
	c := NewCounters(7)
	for i := 0; i < 6; i++ {
		c.RecordApproval(false, now)
	}

	assert.Equal(t, 2, c.ChoreLevel())
	assert.Equal(t, 0, c.CompletedRequired)
	assert.True(t, c.LevelLags())

	assert.True(t, c.AdvanceCachedLevel(2, now))
	assert.False(t, c.AdvanceCachedLevel(1, now))
	assert.Equal(t, 2, c.CachedChoreLevel)
	assert.False(t, c.LevelLags())
}
