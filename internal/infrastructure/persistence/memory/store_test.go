package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sats-family/chore-hub/internal/domain/bonus"
	"github.com/sats-family/chore-hub/internal/domain/chore"
	"github.com/sats-family/chore-hub/internal/domain/earnings"
	"github.com/sats-family/chore-hub/internal/domain/settlement"
	"github.com/sats-family/chore-hub/internal/domain/shared"
)

var now = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func newTask(t *testing.T) *chore.Task {
	t.Helper()
	task, err := chore.NewTask(chore.NewTaskParams{FamilyID: "fam", Title: "Rake leaves", Sats: 100}, now)
	require.NoError(t, err)
	return task
}

func TestStore_RollbackDiscardsChanges(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	task := newTask(t)

	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Tasks().Create(ctx, task))
	require.NoError(t, uow.Rollback(ctx))

	uow, err = store.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback(ctx)
	_, err = uow.Tasks().GetByID(ctx, task.ID)
	assert.True(t, shared.IsNotFound(err))
}

func TestStore_CommitPersists(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	task := newTask(t)

	uow, _ := store.Begin(ctx)
	require.NoError(t, uow.Tasks().Create(ctx, task))
	require.NoError(t, uow.Commit(ctx))
	assert.NoError(t, uow.Rollback(ctx), "rollback after commit is a no-op")

	uow, _ = store.Begin(ctx)
	defer uow.Rollback(ctx)
	got, err := uow.Tasks().GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Title, got.Title)
}

func TestStore_ConditionalUpdatesFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	task := newTask(t)

	uow, _ := store.Begin(ctx)
	require.NoError(t, uow.Tasks().Create(ctx, task))
	require.NoError(t, uow.Commit(ctx))

	var wg sync.WaitGroup
	results := make(chan bool, 5)
	for i := 1; i <= 5; i++ {
		wg.Add(1)
		go func(child shared.ChildID) {
			defer wg.Done()
			u, err := store.Begin(ctx)
			if !assert.NoError(t, err) {
				return
			}
			applied, _ := u.Tasks().Assign(ctx, task.ID, child, now)
			_ = u.Commit(ctx)
			results <- applied
		}(shared.ChildID(i))
	}
	wg.Wait()
	close(results)

	wins := 0
	for applied := range results {
		if applied {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}

func TestStore_LedgersAreUnique(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	uow, _ := store.Begin(ctx)
	defer uow.Rollback(ctx)

	inserted, err := uow.Payouts().Insert(ctx, bonus.Payout{ChildID: 7, Level: 5, Sats: 210, PaidAt: now})
	require.NoError(t, err)
	assert.True(t, inserted)
	inserted, _ = uow.Payouts().Insert(ctx, bonus.Payout{ChildID: 7, Level: 5, Sats: 210, PaidAt: now})
	assert.False(t, inserted)

	e := &earnings.Entry{ChildID: 7, Sats: 100, Reason: settlement.ReasonChore, Reference: "task:a", CreatedAt: now}
	inserted, _ = uow.Earnings().Append(ctx, e)
	assert.True(t, inserted)
	e2 := &earnings.Entry{ChildID: 7, Sats: 50, Reason: settlement.ReasonChore, Reference: "task:b", CreatedAt: now}
	_, _ = uow.Earnings().Append(ctx, e2)
	assert.Equal(t, shared.Sats(150), e2.CumulativeSats)

	dup := &earnings.Entry{ChildID: 7, Sats: 100, Reference: "task:a"}
	inserted, _ = uow.Earnings().Append(ctx, dup)
	assert.False(t, inserted)

	total, _ := uow.Earnings().Total(ctx, 7)
	assert.Equal(t, shared.Sats(150), total)

	list, _ := uow.Earnings().ListByChild(ctx, 7, 1)
	require.Len(t, list, 1)
	assert.Equal(t, "task:b", list[0].Reference)
}

func TestStore_DeleteRefusesApproved(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	task := newTask(t)
	require.NoError(t, task.Assign(7, now))
	require.NoError(t, task.Submit(7, "", now))
	require.NoError(t, task.Approve(now))

	uow, _ := store.Begin(ctx)
	defer uow.Rollback(ctx)
	require.NoError(t, uow.Tasks().Create(ctx, task))

	deleted, err := uow.Tasks().Delete(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
