package challenge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/pkg/timeutil"
)

func TestPool_WellFormed(t *testing.T) {
	require.NotEmpty(t, Pool)
	seen := map[string]bool{}
	for _, tpl := range Pool {
		assert.False(t, seen[tpl.ID], "duplicate id %s", tpl.ID)
		seen[tpl.ID] = true
		assert.True(t, tpl.ValidAnswer(tpl.Correct), tpl.ID)
		assert.Positive(t, tpl.RewardXP, tpl.ID)
	}
}

func TestSelector_DeterministicPerDay(t *testing.T) {
	s := NewSelector(nil)
	day := timeutil.NewDate(2026, 10, 14)

	first := s.ForDay(7, day)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first.ID, s.ForDay(7, day).ID)
	}
	assert.NotEqual(t, first.ID, s.ForDay(7, day.AddDays(1)).ID)
}

func TestSelector_IndexFormula(t *testing.T) {
	s := NewSelector(nil)
	day := timeutil.NewDate(2026, 1, 10) // day of year 10

	assert.Equal(t, (10+7)%len(Pool), s.Index(7, day))
	assert.Equal(t, 10%len(Pool), s.Index(0, day))
	for child := int64(-30); child < 30; child++ {
		i := s.Index(shared.ChildID(child), day)
		assert.GreaterOrEqual(t, i, 0)
		assert.Less(t, i, len(Pool))
	}
}

func TestSelector_CustomPool(t *testing.T) {
	pool := []Template{{ID: "a"}, {ID: "b"}}
	s := NewSelector(pool)
	day := timeutil.NewDate(2026, 1, 1) // day of year 1

	assert.Equal(t, "b", s.ForDay(0, day).ID)
	assert.Equal(t, "a", s.ForDay(1, day).ID)
	assert.Equal(t, 2, s.Size())
}

func TestPermutation_SameSeedSameOrder(t *testing.T) {
	seed := Seed("bitcoin-basics", 2)
	a := Permutation(4, seed)
	b := Permutation(4, seed)

	assert.Equal(t, a, b)
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, a)
}

func TestPermutation_DifferentSeeds(t *testing.T) {
	assert.NotEqual(t, Seed("bitcoin-basics", 0), Seed("bitcoin-basics", 1))
	assert.NotEqual(t, Seed("saving", 0), Seed("bitcoin-basics", 0))
}

func TestShuffleOptions_MapsBack(t *testing.T) {
	options := []string{"a", "b", "c", "d"}
	shuffled, perm := ShuffleOptions("saving", 1, options)

	for i, src := range perm {
		assert.Equal(t, options[src], shuffled[i])
	}
	again, _ := ShuffleOptions("saving", 1, options)
	assert.Equal(t, shuffled, again)
}

func TestPermutation_Trivial(t *testing.T) {
	assert.Equal(t, []int{}, Permutation(0, Seed("x", 0)))
	assert.Equal(t, []int{0}, Permutation(1, Seed("x", 0)))
}
