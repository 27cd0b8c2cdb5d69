package query

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sats-family/chore-hub/internal/domain/challenge"
	"github.com/sats-family/chore-hub/internal/domain/chore"
	"github.com/sats-family/chore-hub/internal/domain/earnings"
	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/settlement"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/internal/infrastructure/external/pricefeed"
	"github.com/sats-family/chore-hub/internal/infrastructure/persistence/memory"
	"github.com/sats-family/chore-hub/pkg/timeutil"
)

const fam = shared.FamilyID("fam-q")

var now = time.Date(2026, time.April, 2, 8, 0, 0, 0, time.UTC)

func seed(t *testing.T, store *memory.Store, fn func(ctx context.Context, uow family.UnitOfWork)) {
	t.Helper()
	ctx := context.Background()
	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	fn(ctx, uow)
	require.NoError(t, uow.Commit(ctx))
}

func addChild(t *testing.T, ctx context.Context, uow family.UnitOfWork, id shared.ChildID, name string, approved, xp int) {
	t.Helper()
	child, err := family.NewChild(id, fam, name, now)
	require.NoError(t, err)
	require.NoError(t, uow.Children().Create(ctx, child))

	counters := family.NewCounters(id)
	counters.ApprovedCount = approved
	require.NoError(t, uow.Counters().Save(ctx, counters))

	if xp > 0 {
		p, err := uow.Learning().Get(ctx, id)
		require.NoError(t, err)
		p.AwardXP(xp, timeutil.DateOf(now), now)
		require.NoError(t, uow.Learning().Save(ctx, p))
	}
}

func TestGetUnlockStatus(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, func(ctx context.Context, uow family.UnitOfWork) {
		addChild(t, ctx, uow, 1, "Ana", 0, 0)
		c := family.NewCounters(1)
		c.CompletedRequired = 4
		c.PaidConsumed = 1
		require.NoError(t, uow.Counters().Save(ctx, c))
	})
	h := NewGetUnlockStatusHandler(store)

	status, err := h.Handle(context.Background(), ChildQuery{ChildID: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, status.FreeSlots)
	assert.Equal(t, 1, status.ProgressToNext)
	assert.Equal(t, 3, status.Required)

	_, err = h.Handle(context.Background(), ChildQuery{ChildID: 99})
	assert.True(t, shared.IsNotFound(err))

	_, err = h.Handle(context.Background(), ChildQuery{})
	assert.True(t, shared.IsValidation(err))
}

func TestGetLevel(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, func(ctx context.Context, uow family.UnitOfWork) {
		addChild(t, ctx, uow, 1, "Ana", 7, 120)
	})

	level, err := NewGetLevelHandler(store).Handle(context.Background(), ChildQuery{ChildID: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, level.ChoreLevel)
	assert.Equal(t, 2, level.ChoresToNextLevel)
	assert.Equal(t, 2, level.LearningLevel)
	assert.Equal(t, 120, level.XP)
	assert.Equal(t, 130, level.XPToNextLevel)
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[shared.FamilyID][]family.Standing
	sets    int
}

func (f *fakeCache) Get(_ context.Context, id shared.FamilyID) ([]family.Standing, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.entries[id]
	return s, ok, nil
}

func (f *fakeCache) Set(_ context.Context, id shared.FamilyID, s []family.Standing, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entries == nil {
		f.entries = make(map[shared.FamilyID][]family.Standing)
	}
	f.entries[id] = s
	f.sets++
	return nil
}

func (f *fakeCache) Invalidate(_ context.Context, id shared.FamilyID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, id)
	return nil
}

func TestGetLeaderboard_RanksAndCaches(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, func(ctx context.Context, uow family.UnitOfWork) {
		addChild(t, ctx, uow, 1, "Ana", 3, 0)
		addChild(t, ctx, uow, 2, "Ben", 7, 0)
		addChild(t, ctx, uow, 3, "Cid", 3, 300)
	})
	cache := &fakeCache{}
	h := NewGetLeaderboardHandler(store, cache, DefaultGetLeaderboardHandlerConfig(), nil)

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{FamilyID: fam})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	require.Len(t, res.Entries, 3)
	assert.Equal(t, shared.ChildID(2), res.Entries[0].ChildID)
	assert.Equal(t, shared.ChildID(3), res.Entries[1].ChildID)
	assert.Equal(t, shared.ChildID(1), res.Entries[2].ChildID)
	assert.Equal(t, 1, res.Entries[0].Rank)
	assert.Equal(t, 1, cache.sets)

	res, err = h.Handle(context.Background(), GetLeaderboardQuery{FamilyID: fam})
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, 1, cache.sets)

	require.NoError(t, cache.Invalidate(context.Background(), fam))
	res, err = h.Handle(context.Background(), GetLeaderboardQuery{FamilyID: fam})
	require.NoError(t, err)
	assert.False(t, res.Cached)
}

func TestGetLeaderboard_WithoutCache(t *testing.T) {
	store := memory.NewStore()
	h := NewGetLeaderboardHandler(store, nil, GetLeaderboardHandlerConfig{}, nil)

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{FamilyID: fam})
	require.NoError(t, err)
	assert.Empty(t, res.Entries)

	_, err = h.Handle(context.Background(), GetLeaderboardQuery{})
	assert.True(t, shared.IsValidation(err))
}

func TestGetTodaysChallenge_HidesAnswer(t *testing.T) {
	store := memory.NewStore()
	clock := timeutil.NewFixedClock(now)
	seed(t, store, func(ctx context.Context, uow family.UnitOfWork) {
		addChild(t, ctx, uow, 7, "Ana", 0, 0)
	})
	h := NewGetTodaysChallengeHandler(store, nil, clock)

	dto, err := h.Handle(context.Background(), ChildQuery{ChildID: 7})
	require.NoError(t, err)
	want := challenge.NewSelector(nil).ForDay(7, timeutil.DateOf(now))
	assert.Equal(t, want.ID, dto.ChallengeID)
	assert.Equal(t, want.Options, dto.Options)
	assert.False(t, dto.CompletedToday)

	seed(t, store, func(ctx context.Context, uow family.UnitOfWork) {
		_, err := uow.Challenges().Insert(ctx, challenge.Completion{ChildID: 7, Date: timeutil.DateOf(now), ChallengeID: want.ID, XP: 10, CompletedAt: now})
		require.NoError(t, err)
	})

	again, err := h.Handle(context.Background(), ChildQuery{ChildID: 7})
	require.NoError(t, err)
	assert.Equal(t, dto.ChallengeID, again.ChallengeID)
	assert.True(t, again.CompletedToday)
}

func TestGetEarnings(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, func(ctx context.Context, uow family.UnitOfWork) {
		addChild(t, ctx, uow, 1, "Ana", 0, 0)
		for i, sats := range []shared.Sats{100_000, 50_000} {
			_, err := uow.Earnings().Append(ctx, &earnings.Entry{
				ChildID:   1,
				Sats:      sats,
				Reason:    settlement.ReasonChore,
				Reference: []string{"task:a", "task:b"}[i],
				CreatedAt: now,
			})
			require.NoError(t, err)
		}
	})
	feed := pricefeed.NewStatic(50_000)
	h := NewGetEarningsHandler(store, feed, "eur", nil)

	dto, err := h.Handle(context.Background(), GetEarningsQuery{ChildID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(150_000), dto.TotalSats)
	require.Len(t, dto.Entries, 2)
	assert.Equal(t, "task:b", dto.Entries[0].Reference)
	assert.Equal(t, int64(150_000), dto.Entries[0].CumulativeSats)
	require.NotNil(t, dto.ValueEUR)
	assert.InDelta(t, 75.0, *dto.ValueEUR, 0.001)

	feed.SetPrice(0)
	dto, err = h.Handle(context.Background(), GetEarningsQuery{ChildID: 1})
	require.NoError(t, err)
	assert.Nil(t, dto.ValueEUR)
	assert.Nil(t, dto.PriceEUR)
	assert.Equal(t, int64(150_000), dto.TotalSats)
}

func TestGetEarnings_PerEntryValueAndSeries(t *testing.T) {
	store := memory.NewStore()
	atLow, atHigh := 40_000.0, 80_000.0
	seed(t, store, func(ctx context.Context, uow family.UnitOfWork) {
		addChild(t, ctx, uow, 1, "Ana", 0, 0)
		rows := []earnings.Entry{
			{Sats: 100_000, Reference: "task:a", BTCPriceEUR: &atHigh, CreatedAt: now},
			{Sats: 50_000, Reference: "task:b", CreatedAt: now.Add(time.Hour)},
			{Sats: 150_000, Reference: "milestone:1:5", BTCPriceEUR: &atLow, CreatedAt: now.Add(2 * time.Hour)},
		}
		for i := range rows {
			rows[i].ChildID = 1
			rows[i].Reason = settlement.ReasonChore
			_, err := uow.Earnings().Append(ctx, &rows[i])
			require.NoError(t, err)
		}
	})
	h := NewGetEarningsHandler(store, nil, "eur", nil)

	dto, err := h.Handle(context.Background(), GetEarningsQuery{ChildID: 1})
	require.NoError(t, err)
	require.Len(t, dto.Entries, 3)

	// 300k sats @ 40k, the entry without a quote has no value, 100k sats @ 80k.
	require.NotNil(t, dto.Entries[0].ValueEUR)
	assert.InDelta(t, 120.0, *dto.Entries[0].ValueEUR, 0.001)
	assert.Nil(t, dto.Entries[1].ValueEUR)
	require.NotNil(t, dto.Entries[2].ValueEUR)
	assert.InDelta(t, 80.0, *dto.Entries[2].ValueEUR, 0.001)

	s := dto.Series
	assert.Equal(t, 3, s.Points)
	require.NotNil(t, s.From)
	require.NotNil(t, s.To)
	assert.Equal(t, now, *s.From)
	assert.Equal(t, now.Add(2*time.Hour), *s.To)
	assert.InDelta(t, 80.0, *s.MinValueEUR, 0.001)
	assert.InDelta(t, 120.0, *s.MaxValueEUR, 0.001)
	assert.Equal(t, atLow, *s.MinPriceEUR)
	assert.Equal(t, atHigh, *s.MaxPriceEUR)

	// No current feed: only the live valuation is missing.
	assert.Nil(t, dto.ValueEUR)
}

func TestModuleQuiz_StableOrder(t *testing.T) {
	modules := ListModules()
	require.NotEmpty(t, modules)

	first, err := GetModuleQuiz(modules[0].ID)
	require.NoError(t, err)
	second, err := GetModuleQuiz(modules[0].ID)
	require.NoError(t, err)
	assert.Equal(t, first.Questions, second.Questions)
	assert.Len(t, first.Questions, modules[0].QuestionCount)

	_, err = GetModuleQuiz("missing")
	assert.True(t, shared.IsNotFound(err))
}

func TestListTasks(t *testing.T) {
	store := memory.NewStore()
	var open *chore.Task
	seed(t, store, func(ctx context.Context, uow family.UnitOfWork) {
		var err error
		open, err = chore.NewTask(chore.NewTaskParams{FamilyID: fam, Title: "Dishes", IsRequired: true}, now)
		require.NoError(t, err)
		require.NoError(t, uow.Tasks().Create(ctx, open))
	})
	h := NewListTasksHandler(store)

	res, err := h.Handle(context.Background(), ListTasksQuery{FamilyID: fam, Status: "open"})
	require.NoError(t, err)
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, open.ID.String(), res.Tasks[0].ID)

	res, err = h.Handle(context.Background(), ListTasksQuery{FamilyID: fam, Status: "approved"})
	require.NoError(t, err)
	assert.Empty(t, res.Tasks)

	_, err = h.Handle(context.Background(), ListTasksQuery{FamilyID: fam, Status: "done"})
	assert.True(t, shared.IsValidation(err))

	task, err := NewGetTaskHandler(store).Handle(context.Background(), GetTaskQuery{TaskID: open.ID})
	require.NoError(t, err)
	assert.Equal(t, "Dishes", task.Title)

	_, err = NewGetTaskHandler(store).Handle(context.Background(), GetTaskQuery{TaskID: shared.NewTaskID()})
	assert.True(t, shared.IsNotFound(err))
}
