package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sats-family/chore-hub/internal/application/command"
	"github.com/sats-family/chore-hub/internal/application/query"
	"github.com/sats-family/chore-hub/internal/domain/bonus"
	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/internal/infrastructure/external/wallet"
	"github.com/sats-family/chore-hub/internal/infrastructure/persistence/memory"
	"github.com/sats-family/chore-hub/pkg/timeutil"
)

const fam = shared.FamilyID("fam-jobs")

func seedLaggingChild(t *testing.T, store *memory.Store, id shared.ChildID, approved int) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	child, err := family.NewChild(id, fam, "Kid", now)
	require.NoError(t, err)
	require.NoError(t, tx.Children().Create(ctx, child))
	require.NoError(t, tx.Counters().Save(ctx, &family.Counters{ChildID: id, ApprovedCount: approved}))
	require.NoError(t, tx.BonusSettings().Upsert(ctx, bonus.Settings{
		FamilyID:          fam,
		BonusSats:         50,
		MilestoneInterval: 1,
		IsActive:          true,
	}))
	require.NoError(t, tx.Commit(ctx))
}

func newIssuer(store *memory.Store, settler *wallet.MemorySettler) *command.IssueMilestonesHandler {
	clock := timeutil.NewFixedClock(time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC))
	return command.NewIssueMilestonesHandler(store, settler, nil, nil, clock, nil, command.DefaultPriceConfig())
}

func TestRetryMilestonesJob_PaysLaggingLevelsOnce(t *testing.T) {
	store := memory.NewStore()
	settler := wallet.NewMemorySettler()
	seedLaggingChild(t, store, 4, 6)

	job := NewRetryMilestonesJob(store, newIssuer(store, settler), nil, DefaultRetryMilestonesConfig())
	require.NoError(t, job.Run(context.Background()))

	stats := job.LastStats()
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.Candidates)
	assert.Equal(t, 2, stats.BonusesPaid)
	assert.Equal(t, shared.Sats(100), settler.Balance(4))

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 0, job.LastStats().Candidates)
	assert.Equal(t, shared.Sats(100), settler.Balance(4))
}

func TestRetryMilestonesJob_SettlementFailureKeepsChildPending(t *testing.T) {
	store := memory.NewStore()
	settler := wallet.NewMemorySettler()
	seedLaggingChild(t, store, 5, 3)
	settler.SetFailing(true)

	job := NewRetryMilestonesJob(store, newIssuer(store, settler), nil, DefaultRetryMilestonesConfig())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, job.LastStats().SettleFailed)

	settler.SetFailing(false)
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, job.LastStats().BonusesPaid)
	assert.Equal(t, shared.Sats(50), settler.Balance(5))
}

func TestRetryMilestonesJob_FailingChildDoesNotStarveTheRest(t *testing.T) {
	store := memory.NewStore()
	settler := wallet.NewMemorySettler()
	seedLaggingChild(t, store, 1, 3)
	seedLaggingChild(t, store, 2, 3)

	cfg := DefaultRetryMilestonesConfig()
	cfg.BatchSize = 1
	job := NewRetryMilestonesJob(store, newIssuer(store, settler), nil, cfg)

	// child 1 fails and stays lagging
	settler.FailNext(1)
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, job.LastStats().SettleFailed)
	assert.Equal(t, shared.Sats(0), settler.Balance(1))

	// the next run moves past child 1
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, job.LastStats().BonusesPaid)
	assert.Equal(t, shared.Sats(50), settler.Balance(2))
	assert.Equal(t, shared.Sats(0), settler.Balance(1))

	// and then wraps around to it
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, job.LastStats().BonusesPaid)
	assert.Equal(t, shared.Sats(50), settler.Balance(1))

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 0, job.LastStats().Candidates)
}

func TestRebuildLeaderboardJob_RefreshesEveryFamily(t *testing.T) {
	store := memory.NewStore()
	seedLaggingChild(t, store, 1, 3)

	refresher := query.NewGetLeaderboardHandler(store, nil, query.DefaultGetLeaderboardHandlerConfig(), nil)
	job := NewRebuildLeaderboardJob(store, refresher, nil, time.Minute)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, job.LastFamilyCount())
	assert.Equal(t, "rebuild_leaderboard", job.Name())
}
