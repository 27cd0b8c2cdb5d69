package eventhandler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/internal/infrastructure/messaging"
)

type spyCache struct {
	invalidated []shared.FamilyID
	err         error
}

func (s *spyCache) Get(context.Context, shared.FamilyID) ([]family.Standing, bool, error) {
	return nil, false, nil
}

func (s *spyCache) Set(context.Context, shared.FamilyID, []family.Standing, time.Duration) error {
	return nil
}

func (s *spyCache) Invalidate(_ context.Context, id shared.FamilyID) error {
	s.invalidated = append(s.invalidated, id)
	return s.err
}

func syncBus(t *testing.T) *messaging.InMemoryEventBus {
	t.Helper()
	cfg := messaging.DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = false
	bus := messaging.NewInMemoryEventBus(cfg)
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestOnProgressChanged_InvalidatesFamily(t *testing.T) {
	cache := &spyCache{}
	bus := syncBus(t)
	require.NoError(t, NewOnProgressChangedHandler(cache, nil).Register(bus))

	require.NoError(t, bus.Publish(shared.NewTaskApprovedEvent("fam-1", shared.NewTaskID(), 1, 100, false, "ref")))
	require.NoError(t, bus.Publish(shared.NewChoreLevelUpEvent("fam-2", 2, 0, 1)))
	require.NoError(t, bus.Publish(shared.NewTaskEvent(shared.EventTaskCreated, "fam-3", shared.NewTaskID(), 0)))

	assert.Equal(t, []shared.FamilyID{"fam-1", "fam-2"}, cache.invalidated)
}

func TestOnProgressChanged_IgnoresUnscopedAndReportsErrors(t *testing.T) {
	cache := &spyCache{err: errors.New("redis down")}
	h := NewOnProgressChangedHandler(cache, nil)

	assert.NoError(t, h.Handle(shared.NewChoreLevelUpEvent("", 2, 0, 1)))
	assert.Empty(t, cache.invalidated)

	assert.Error(t, h.Handle(shared.NewChoreLevelUpEvent("fam-1", 2, 0, 1)))
}

func TestActivityLog_WritesEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := NewActivityLogHandler(logger)

	require.NoError(t, h.Handle(shared.NewMilestonePaidEvent("fam-1", 7, 5, 210)))

	out := buf.String()
	assert.Contains(t, out, `"event_type":"progression.milestone_paid"`)
	assert.Contains(t, out, `"family_id":"fam-1"`)
	assert.Contains(t, out, `"sats":210`)
}
