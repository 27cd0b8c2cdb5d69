package settlement

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sats-family/chore-hub/internal/domain/shared"
)

func TestRequest_Validate(t *testing.T) {
	ok := Request{ChildID: 7, Sats: 100, Reason: ReasonChore, IdempotencyKey: "task:1"}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.Sats = 0
	assert.True(t, shared.IsValidation(bad.Validate()))

	bad = ok
	bad.IdempotencyKey = " "
	assert.True(t, shared.IsValidation(bad.Validate()))

	bad = ok
	bad.ChildID = 0
	assert.True(t, shared.IsValidation(bad.Validate()))
}

func TestFailed(t *testing.T) {
	cause := errors.New("wallet down")
	err := Failed("Approve", cause)

	assert.True(t, shared.IsSettlementFailure(err))
	assert.ErrorIs(t, err, cause)
}
