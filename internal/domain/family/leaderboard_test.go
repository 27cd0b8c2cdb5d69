package family

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sats-family/chore-hub/internal/domain/shared"
)

func TestRank_OrdersByLevelThenApprovedThenXP(t *testing.T) {
	in := []Standing{
		{ChildID: 1, ChoreLevel: 1, ApprovedCount: 4, LearningXP: 900},
		{ChildID: 2, ChoreLevel: 2, ApprovedCount: 6, LearningXP: 0},
		{ChildID: 3, ChoreLevel: 1, ApprovedCount: 5, LearningXP: 10},
		{ChildID: 4, ChoreLevel: 1, ApprovedCount: 5, LearningXP: 20},
	}

	out := Rank(in)

	ids := make([]shared.ChildID, len(out))
	for i, s := range out {
		ids[i] = s.ChildID
	}
	assert.Equal(t, []shared.ChildID{2, 4, 3, 1}, ids)
	assert.Equal(t, 1, out[0].Rank)
	assert.Equal(t, 4, out[3].Rank)
	assert.Zero(t, in[0].Rank, "input must not be modified")
}

func TestRank_TiesShareRank(t *testing.T) {
	out := Rank([]Standing{
		{ChildID: 9, ChoreLevel: 1, ApprovedCount: 3},
		{ChildID: 5, ChoreLevel: 1, ApprovedCount: 3},
		{ChildID: 7},
	})

	assert.Equal(t, shared.ChildID(5), out[0].ChildID)
	assert.Equal(t, 1, out[0].Rank)
	assert.Equal(t, 1, out[1].Rank)
	assert.Equal(t, 3, out[2].Rank)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil))
}
