package chore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sats-family/chore-hub/internal/domain/shared"
)

var now = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func paidTask(t *testing.T) *Task {
	t.Helper()
	task, err := NewTask(NewTaskParams{FamilyID: "fam", Title: "Wash the car", Sats: 500}, now)
	require.NoError(t, err)
	return task
}

func TestNewTask_Validation(t *testing.T) {
	tests := []struct {
		name   string
		params NewTaskParams
	}{
		{"missing family", NewTaskParams{Title: "x"}},
		{"blank title", NewTaskParams{FamilyID: "fam", Title: "   "}},
		{"negative sats", NewTaskParams{FamilyID: "fam", Title: "x", Sats: -1}},
		{"required with sats", NewTaskParams{FamilyID: "fam", Title: "x", Sats: 10, IsRequired: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTask(tt.params, now)
			assert.True(t, shared.IsValidation(err), "got %v", err)
		})
	}
}

func TestNewTask_RequiredDropsBypass(t *testing.T) {
	task, err := NewTask(NewTaskParams{FamilyID: "fam", Title: "Dishes", IsRequired: true, BypassRatio: true}, now)
	require.NoError(t, err)

	assert.False(t, task.BypassRatio)
	assert.False(t, task.RequiresUnlock())
	assert.Equal(t, StatusOpen, task.Status)
	assert.True(t, task.ID.IsValid())
}

func TestTask_RequiresUnlock(t *testing.T) {
	task := paidTask(t)
	assert.True(t, task.RequiresUnlock())

	task.BypassRatio = true
	assert.False(t, task.RequiresUnlock())
}

func TestTask_FullLifecycle(t *testing.T) {
	task := paidTask(t)

	require.NoError(t, task.Assign(7, now))
	assert.Equal(t, shared.ChildID(7), task.AssignedTo)

	assert.True(t, shared.IsForbidden(task.Submit(8, "photo", now)))
	require.NoError(t, task.Submit(7, "photo-1", now))
	require.NoError(t, task.Approve(now))

	assert.Equal(t, StatusApproved, task.Status)
	assert.NotNil(t, task.ApprovedAt)
	assert.False(t, task.CanDelete())
}

func TestTask_TransitionsNeverGoBackward(t *testing.T) {
	task := paidTask(t)
	require.NoError(t, task.Assign(7, now))

	assert.True(t, shared.IsStateConflict(task.Assign(8, now)))
	assert.True(t, shared.IsStateConflict(task.Approve(now)))
	assert.Equal(t, shared.ChildID(7), task.AssignedTo)

	require.NoError(t, task.Submit(0, "", now))
	require.NoError(t, task.Approve(now))
	assert.True(t, shared.IsStateConflict(task.Approve(now)))
	assert.True(t, shared.IsStateConflict(task.Submit(7, "", now)))
}

func TestStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, StatusOpen.CanTransitionTo(StatusAssigned))
	assert.True(t, StatusSubmitted.CanTransitionTo(StatusApproved))
	assert.False(t, StatusOpen.CanTransitionTo(StatusSubmitted))
	assert.False(t, StatusApproved.CanTransitionTo(StatusOpen))
	assert.False(t, Status("bogus").CanTransitionTo(StatusOpen))
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" Submitted ")
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, st)

	_, err = ParseStatus("done")
	assert.Error(t, err)
}
