package wallet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sats-family/chore-hub/internal/domain/shared"
)

func TestMemorySettler_DedupesByKey(t *testing.T) {
	m := NewMemorySettler()
	ctx := context.Background()

	first, err := m.Settle(ctx, choreRequest())
	require.NoError(t, err)
	second, err := m.Settle(ctx, choreRequest())
	require.NoError(t, err)

	assert.Equal(t, first.Reference, second.Reference)
	assert.Equal(t, shared.Sats(150), m.Balance(7))
	assert.Len(t, m.Payments(), 1)
	assert.Equal(t, 2, m.Calls())
}

func TestMemorySettler_FailureInjection(t *testing.T) {
	m := NewMemorySettler()
	ctx := context.Background()

	m.FailNext(1)
	_, err := m.Settle(ctx, choreRequest())
	assert.True(t, shared.IsSettlementFailure(err))
	assert.ErrorIs(t, err, ErrInjected)
	assert.Zero(t, m.Balance(7))

	_, err = m.Settle(ctx, choreRequest())
	require.NoError(t, err)

	m.SetFailing(true)
	req := choreRequest()
	req.IdempotencyKey = "task:other"
	_, err = m.Settle(ctx, req)
	assert.Error(t, err)

	assert.Equal(t, shared.Sats(150), m.Balance(7))
	assert.Equal(t, 3, m.Calls())
}
