package messaging

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sats-family/chore-hub/internal/domain/shared"
)

func syncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{EnableMetrics: true})
}

func TestInMemoryEventBus_DeliversByType(t *testing.T) {
	bus := syncBus()
	var approved, all atomic.Int32

	require.NoError(t, bus.Subscribe(shared.EventTaskApproved, func(shared.Event) error {
		approved.Add(1)
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		all.Add(1)
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewTaskEvent(shared.EventTaskCreated, "fam", "t1", 0)))
	require.NoError(t, bus.Publish(shared.NewTaskEvent(shared.EventTaskApproved, "fam", "t1", 7)))

	assert.Equal(t, int32(1), approved.Load())
	assert.Equal(t, int32(2), all.Load())
}

func TestInMemoryEventBus_HandlerFailuresAreContained(t *testing.T) {
	bus := syncBus()
	var after atomic.Int32

	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return errors.New("boom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("kaboom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		after.Add(1)
		return nil
	}))

	err := bus.Publish(shared.NewTaskEvent(shared.EventTaskSubmitted, "fam", "t1", 7))
	require.NoError(t, err)

	assert.Equal(t, int32(1), after.Load())
	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(3), snap.HandlerExecutions)
	assert.Equal(t, int64(2), snap.HandlerFailures)
	assert.Equal(t, int64(1), snap.Published[shared.EventTaskSubmitted])
}

func TestInMemoryEventBus_AsyncWait(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	var seen atomic.Int32
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		seen.Add(1)
		return nil
	}))

	for i := 0; i < 20; i++ {
		require.NoError(t, bus.Publish(shared.NewTaskEvent(shared.EventTaskCreated, "fam", "t", 0)))
	}
	bus.Wait()

	assert.Equal(t, int32(20), seen.Load())
}

func TestInMemoryEventBus_Closed(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewTaskEvent(shared.EventTaskCreated, "fam", "t", 0)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)
}
