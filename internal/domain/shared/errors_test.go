package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("handler: %w", ErrTaskNotSubmitted)

	assert.True(t, IsStateConflict(err))
	assert.False(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "chore.Approve")
}

func TestWrapError_KeepsCause(t *testing.T) {
	cause := errors.New("wallet 503")
	err := WrapError("chore", "Approve", ErrSettlementFailed, "settlement failed", cause)

	assert.True(t, IsSettlementFailure(err))
	assert.True(t, IsRetryable(err))
	assert.ErrorIs(t, err, cause)
}

func TestLockedError(t *testing.T) {
	var err error = &LockedError{Completed: 2, Required: 3}

	assert.True(t, IsLocked(err))
	var locked *LockedError
	assert.True(t, errors.As(fmt.Errorf("wrap: %w", err), &locked))
	assert.Equal(t, 2, locked.Completed)
	assert.Equal(t, "paid chore locked: 2/3 family chores done", err.Error())
}

func TestParseIDs(t *testing.T) {
	id, err := ParseChildID(" 7 ")
	assert.NoError(t, err)
	assert.Equal(t, ChildID(7), id)

	_, err = ParseChildID("0")
	assert.True(t, IsValidation(err))

	_, err = ParseTaskID("not-a-uuid")
	assert.True(t, IsValidation(err))

	tid := NewTaskID()
	assert.True(t, tid.IsValid())
}
