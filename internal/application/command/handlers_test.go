package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sats-family/chore-hub/internal/domain/bonus"
	"github.com/sats-family/chore-hub/internal/domain/challenge"
	"github.com/sats-family/chore-hub/internal/domain/chore"
	"github.com/sats-family/chore-hub/internal/domain/earnings"
	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/internal/infrastructure/external/pricefeed"
	"github.com/sats-family/chore-hub/internal/infrastructure/external/wallet"
	"github.com/sats-family/chore-hub/internal/infrastructure/persistence/memory"
	"github.com/sats-family/chore-hub/pkg/timeutil"
)

const testFamily = shared.FamilyID("fam-1")

type recorder struct {
	mu     sync.Mutex
	events []shared.Event
}

func (r *recorder) Publish(e shared.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) count(t shared.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.EventType() == t {
			n++
		}
	}
	return n
}

type testEnv struct {
	store   *memory.Store
	settler *wallet.MemorySettler
	feed    *pricefeed.Static
	clock   *timeutil.FixedClock
	events  *recorder

	register   *RegisterChildHandler
	create     *CreateTaskHandler
	accept     *AcceptTaskHandler
	submit     *SubmitTaskHandler
	approve    *ApproveTaskHandler
	remove     *DeleteTaskHandler
	milestones *IssueMilestonesHandler
	settings   *SaveLevelBonusSettingsHandler
	challenge  *CompleteChallengeHandler
	module     *CompleteModuleHandler
	guardian   *ClaimGuardianBonusHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		store:   memory.NewStore(),
		settler: wallet.NewMemorySettler(),
		feed:    pricefeed.NewStatic(60000),
		clock:   timeutil.NewFixedClock(time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)),
		events:  &recorder{},
	}
	price := DefaultPriceConfig()

	env.register = NewRegisterChildHandler(env.store, env.clock, nil)
	env.create = NewCreateTaskHandler(env.store, env.events, env.clock, nil)
	env.accept = NewAcceptTaskHandler(env.store, env.events, env.clock, nil)
	env.submit = NewSubmitTaskHandler(env.store, env.events, env.clock, nil)
	env.milestones = NewIssueMilestonesHandler(env.store, env.settler, env.feed, env.events, env.clock, nil, price)
	env.approve = NewApproveTaskHandler(env.store, env.settler, env.feed, env.milestones, env.events, env.clock, nil, price)
	env.remove = NewDeleteTaskHandler(env.store, env.events, nil)
	env.settings = NewSaveLevelBonusSettingsHandler(env.store, env.clock, nil)
	env.challenge = NewCompleteChallengeHandler(env.store, challenge.NewSelector(nil), env.events, env.clock, nil)
	env.module = NewCompleteModuleHandler(env.store, env.events, env.clock, nil)
	env.guardian = NewClaimGuardianBonusHandler(env.store, env.settler, env.feed, env.events, env.clock, nil, DefaultClaimGuardianBonusHandlerConfig())

	return env
}

func (e *testEnv) registerChild(t *testing.T, id shared.ChildID) {
	t.Helper()
	_, err := e.register.Handle(context.Background(), RegisterChildCommand{FamilyID: testFamily, ChildID: id, DisplayName: "Kid"})
	require.NoError(t, err)
}

func (e *testEnv) newTask(t *testing.T, sats shared.Sats, required, bypass bool) *chore.Task {
	t.Helper()
	res, err := e.create.Handle(context.Background(), CreateTaskCommand{
		FamilyID:    testFamily,
		Title:       "Feed the cat",
		Sats:        sats,
		IsRequired:  required,
		BypassRatio: bypass,
	})
	require.NoError(t, err)
	return res.Task
}

// submitted creates a task and moves it to submitted for child.
func (e *testEnv) submitted(t *testing.T, child shared.ChildID, sats shared.Sats, required, bypass bool) *chore.Task {
	t.Helper()
	ctx := context.Background()
	task := e.newTask(t, sats, required, bypass)
	_, err := e.accept.Handle(ctx, AcceptTaskCommand{TaskID: task.ID, ChildID: child})
	require.NoError(t, err)
	_, err = e.submit.Handle(ctx, SubmitTaskCommand{TaskID: task.ID, ChildID: child, ProofRef: "photo-1"})
	require.NoError(t, err)
	return task
}

func (e *testEnv) approveRequired(t *testing.T, child shared.ChildID) *ApproveTaskResult {
	t.Helper()
	task := e.submitted(t, child, 0, true, false)
	res, err := e.approve.Handle(context.Background(), ApproveTaskCommand{TaskID: task.ID})
	require.NoError(t, err)
	require.Equal(t, shared.OutcomeApplied, res.Outcome)
	return res
}

func (e *testEnv) read(t *testing.T, fn func(repos family.Repositories)) {
	t.Helper()
	tx, err := e.store.Begin(context.Background())
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(context.Background()) }()
	fn(tx)
}

// ══════════════════════════════════════════════════════════════════════════════
// TASK LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

func TestCreateTask_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.create.Handle(ctx, CreateTaskCommand{FamilyID: testFamily})
	assert.True(t, shared.IsValidation(err))

	_, err = env.create.Handle(ctx, CreateTaskCommand{FamilyID: testFamily, Title: "x", Sats: -1})
	assert.True(t, shared.IsValidation(err))

	_, err = env.create.Handle(ctx, CreateTaskCommand{FamilyID: testFamily, Title: "x", Sats: 10, IsRequired: true})
	assert.ErrorIs(t, err, shared.ErrRequiredTaskIsPaid)

	res, err := env.create.Handle(ctx, CreateTaskCommand{FamilyID: testFamily, Title: "Dishes", IsRequired: true, BypassRatio: true})
	require.NoError(t, err)
	assert.Equal(t, chore.StatusOpen, res.Task.Status)
	assert.False(t, res.Task.BypassRatio)
	assert.Equal(t, 1, env.events.count(shared.EventTaskCreated))
}

func TestAcceptTask_PaidTaskLockedWithoutRequiredChores(t *testing.T) {
	env := newTestEnv(t)
	env.registerChild(t, 1)
	task := env.newTask(t, 100, false, false)

	_, err := env.accept.Handle(context.Background(), AcceptTaskCommand{TaskID: task.ID, ChildID: 1})
	require.Error(t, err)

	var locked *shared.LockedError
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, 0, locked.Completed)
	assert.Equal(t, 3, locked.Required)
	assert.True(t, shared.IsLocked(err))
}

func TestAcceptTask_UnlockAfterThreeRequired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerChild(t, 1)

	for i := 0; i < 3; i++ {
		env.approveRequired(t, 1)
	}

	first := env.newTask(t, 100, false, false)
	res, err := env.accept.Handle(ctx, AcceptTaskCommand{TaskID: first.ID, ChildID: 1})
	require.NoError(t, err)
	assert.True(t, res.ConsumedSlot)
	assert.Equal(t, 0, res.Unlock.FreeSlots)
	assert.Equal(t, 1, res.Unlock.PaidConsumed)

	second := env.newTask(t, 100, false, false)
	_, err = env.accept.Handle(ctx, AcceptTaskCommand{TaskID: second.ID, ChildID: 1})
	var locked *shared.LockedError
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, 0, locked.Completed)
}

func TestAcceptTask_BypassSkipsGate(t *testing.T) {
	env := newTestEnv(t)
	env.registerChild(t, 1)
	task := env.newTask(t, 50, false, true)

	res, err := env.accept.Handle(context.Background(), AcceptTaskCommand{TaskID: task.ID, ChildID: 1})
	require.NoError(t, err)
	assert.False(t, res.ConsumedSlot)
	assert.Equal(t, chore.StatusAssigned, res.Task.Status)
	assert.Equal(t, 0, res.Unlock.PaidConsumed)
}

func TestAcceptTask_Conflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerChild(t, 1)
	env.registerChild(t, 2)
	task := env.newTask(t, 0, true, false)

	_, err := env.accept.Handle(ctx, AcceptTaskCommand{TaskID: task.ID, ChildID: 1})
	require.NoError(t, err)

	_, err = env.accept.Handle(ctx, AcceptTaskCommand{TaskID: task.ID, ChildID: 2})
	assert.ErrorIs(t, err, shared.ErrTaskNotOpen)
	assert.True(t, shared.IsStateConflict(err))

	_, err = env.accept.Handle(ctx, AcceptTaskCommand{TaskID: shared.NewTaskID(), ChildID: 1})
	assert.True(t, shared.IsNotFound(err))

	_, err = env.register.Handle(ctx, RegisterChildCommand{FamilyID: "fam-2", ChildID: 3, DisplayName: "Other"})
	require.NoError(t, err)
	other := env.newTask(t, 0, true, false)
	_, err = env.accept.Handle(ctx, AcceptTaskCommand{TaskID: other.ID, ChildID: 3})
	assert.True(t, shared.IsForbidden(err))
}

func TestSubmitTask_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerChild(t, 1)
	task := env.newTask(t, 0, true, false)

	_, err := env.submit.Handle(ctx, SubmitTaskCommand{TaskID: task.ID, ChildID: 1})
	assert.ErrorIs(t, err, shared.ErrTaskNotAssigned)

	_, err = env.accept.Handle(ctx, AcceptTaskCommand{TaskID: task.ID, ChildID: 1})
	require.NoError(t, err)

	_, err = env.submit.Handle(ctx, SubmitTaskCommand{TaskID: task.ID, ChildID: 2})
	assert.ErrorIs(t, err, shared.ErrNotAssignee)

	res, err := env.submit.Handle(ctx, SubmitTaskCommand{TaskID: task.ID, ProofRef: " img-9 "})
	require.NoError(t, err)
	assert.Equal(t, chore.StatusSubmitted, res.Task.Status)
	assert.Equal(t, "img-9", res.Task.ProofRef)
}

func TestApproveTask_PaysOnceAndRecordsEarning(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerChild(t, 1)
	task := env.submitted(t, 1, 150, false, true)

	res, err := env.approve.Handle(ctx, ApproveTaskCommand{TaskID: task.ID})
	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeApplied, res.Outcome)
	assert.Equal(t, chore.StatusApproved, res.Task.Status)
	assert.NotEmpty(t, res.SettlementReference)
	assert.Equal(t, 1, res.ApprovedCount)

	again, err := env.approve.Handle(ctx, ApproveTaskCommand{TaskID: task.ID})
	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeDuplicate, again.Outcome)

	assert.Equal(t, 1, env.settler.Calls())
	assert.Equal(t, shared.Sats(150), env.settler.Balance(1))
	assert.Equal(t, 1, env.events.count(shared.EventTaskApproved))

	env.read(t, func(repos family.Repositories) {
		entries, err := repos.Earnings().ListByChild(ctx, 1, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, bonus.TaskKey(task.ID), entries[0].Reference)
		assert.Equal(t, shared.Sats(150), entries[0].CumulativeSats)
		require.NotNil(t, entries[0].BTCPriceEUR)
		assert.InDelta(t, 60000.0, *entries[0].BTCPriceEUR, 0.001)

		counters, err := repos.Counters().Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, counters.ApprovedCount)
		assert.Equal(t, 0, counters.CompletedRequired)
	})
}

func TestApproveTask_ConcurrentApproversSettleOnce(t *testing.T) {
	env := newTestEnv(t)
	env.registerChild(t, 1)
	task := env.submitted(t, 1, 80, false, true)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes []shared.Outcome
	)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.approve.Handle(context.Background(), ApproveTaskCommand{TaskID: task.ID})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			outcomes = append(outcomes, res.Outcome)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []shared.Outcome{shared.OutcomeApplied, shared.OutcomeDuplicate, shared.OutcomeDuplicate}, outcomes)
	assert.Equal(t, 1, env.settler.Calls())
	assert.Equal(t, shared.Sats(80), env.settler.Balance(1))
}

func TestApproveTask_SettlementFailureKeepsTaskSubmitted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerChild(t, 1)
	task := env.submitted(t, 1, 200, false, true)

	env.settler.FailNext(1)
	_, err := env.approve.Handle(ctx, ApproveTaskCommand{TaskID: task.ID})
	require.Error(t, err)
	assert.True(t, shared.IsSettlementFailure(err))
	assert.True(t, shared.IsRetryable(err))

	env.read(t, func(repos family.Repositories) {
		stored, err := repos.Tasks().GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, chore.StatusSubmitted, stored.Status)

		counters, err := repos.Counters().Get(ctx, 1)
		require.NoError(t, err)
		assert.Zero(t, counters.ApprovedCount)

		entries, err := repos.Earnings().ListByChild(ctx, 1, 0)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
	assert.Zero(t, env.events.count(shared.EventTaskApproved))

	res, err := env.approve.Handle(ctx, ApproveTaskCommand{TaskID: task.ID})
	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeApplied, res.Outcome)
	assert.Equal(t, shared.Sats(200), env.settler.Balance(1))
}

func TestApproveTask_NotSubmitted(t *testing.T) {
	env := newTestEnv(t)
	task := env.newTask(t, 0, true, false)

	_, err := env.approve.Handle(context.Background(), ApproveTaskCommand{TaskID: task.ID})
	assert.ErrorIs(t, err, shared.ErrTaskNotSubmitted)

	_, err = env.approve.Handle(context.Background(), ApproveTaskCommand{TaskID: shared.NewTaskID()})
	assert.True(t, shared.IsNotFound(err))

	_, err = env.approve.Handle(context.Background(), ApproveTaskCommand{TaskID: "not-a-uuid"})
	assert.True(t, shared.IsValidation(err))
}

func TestApproveTask_PriceFeedDownStillPays(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerChild(t, 1)
	env.feed.SetPrice(0)
	task := env.submitted(t, 1, 30, false, true)

	_, err := env.approve.Handle(ctx, ApproveTaskCommand{TaskID: task.ID})
	require.NoError(t, err)

	env.read(t, func(repos family.Repositories) {
		entries, err := repos.Earnings().ListByChild(ctx, 1, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Nil(t, entries[0].BTCPriceEUR)
	})
}

func TestApproveTask_QuotesPriceOnlyWhenPaying(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerChild(t, 1)

	env.approveRequired(t, 1)
	assert.Zero(t, env.feed.Calls(), "unpaid chore must not ask the feed")

	task := env.submitted(t, 1, 40, false, true)
	_, err := env.approve.Handle(ctx, ApproveTaskCommand{TaskID: task.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, env.feed.Calls())

	dup, err := env.approve.Handle(ctx, ApproveTaskCommand{TaskID: task.ID})
	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeDuplicate, dup.Outcome)
	assert.Equal(t, 1, env.feed.Calls(), "duplicate must not ask the feed")
}

func TestDeleteTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerChild(t, 1)

	open := env.newTask(t, 0, true, false)
	_, err := env.remove.Handle(ctx, DeleteTaskCommand{TaskID: open.ID})
	require.NoError(t, err)

	_, err = env.remove.Handle(ctx, DeleteTaskCommand{TaskID: open.ID})
	assert.True(t, shared.IsNotFound(err))

	res := env.approveRequired(t, 1)
	_, err = env.remove.Handle(ctx, DeleteTaskCommand{TaskID: res.Task.ID})
	assert.ErrorIs(t, err, shared.ErrTaskApproved)
}

// ══════════════════════════════════════════════════════════════════════════════
// MILESTONES
// ══════════════════════════════════════════════════════════════════════════════

func enableBonus(t *testing.T, env *testEnv, sats shared.Sats, interval int) {
	t.Helper()
	_, err := env.settings.Handle(context.Background(), SaveLevelBonusSettingsCommand{
		FamilyID:          testFamily,
		BonusSats:         sats,
		MilestoneInterval: interval,
		IsActive:          true,
	})
	require.NoError(t, err)
}

func TestSaveLevelBonusSettings_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.settings.Handle(context.Background(), SaveLevelBonusSettingsCommand{FamilyID: testFamily, BonusSats: 10, MilestoneInterval: 0})
	assert.True(t, shared.IsValidation(err))

	_, err = env.settings.Handle(context.Background(), SaveLevelBonusSettingsCommand{FamilyID: testFamily, BonusSats: -5, MilestoneInterval: 5})
	assert.True(t, shared.IsValidation(err))
}

func TestMilestone_PaidOnceAtLevelFive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerChild(t, 1)
	enableBonus(t, env, 210, 5)

	var last *ApproveTaskResult
	for i := 0; i < 15; i++ {
		last = env.approveRequired(t, 1)
	}
	require.NoError(t, last.MilestoneError)
	require.NotNil(t, last.Milestones)
	assert.Equal(t, 5, last.ChoreLevel)
	require.Len(t, last.Milestones.Paid, 1)
	assert.Equal(t, 5, last.Milestones.Paid[0].Level)
	assert.Equal(t, shared.Sats(210), env.settler.Balance(1))

	rerun, err := env.milestones.Handle(ctx, IssueMilestonesCommand{ChildID: 1})
	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeDuplicate, rerun.Outcome)
	assert.Empty(t, rerun.Paid)

	env.read(t, func(repos family.Repositories) {
		payouts, err := repos.Payouts().ListByChild(ctx, 1)
		require.NoError(t, err)
		require.Len(t, payouts, 1)
		assert.Equal(t, shared.Sats(210), payouts[0].Sats)

		counters, err := repos.Counters().Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 5, counters.CachedChoreLevel)
	})
	assert.Equal(t, 1, env.events.count(shared.EventMilestonePaid))
	assert.Equal(t, 5, env.events.count(shared.EventChoreLevelUp))
}

func TestMilestone_ConcurrentApprovalsOfTriggeringTaskPayOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerChild(t, 1)
	enableBonus(t, env, 210, 5)

	for i := 0; i < 14; i++ {
		env.approveRequired(t, 1)
	}
	fifteenth := env.submitted(t, 1, 0, true, false)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes []shared.Outcome
	)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.approve.Handle(ctx, ApproveTaskCommand{TaskID: fifteenth.ID})
			if !assert.NoError(t, err) {
				return
			}
			assert.NoError(t, res.MilestoneError)
			mu.Lock()
			outcomes = append(outcomes, res.Outcome)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []shared.Outcome{shared.OutcomeApplied, shared.OutcomeDuplicate, shared.OutcomeDuplicate}, outcomes)
	assert.Equal(t, shared.Sats(210), env.settler.Balance(1))
	assert.Equal(t, 1, env.events.count(shared.EventMilestonePaid))

	env.read(t, func(repos family.Repositories) {
		payouts, err := repos.Payouts().ListByChild(ctx, 1)
		require.NoError(t, err)
		require.Len(t, payouts, 1)
		assert.Equal(t, 5, payouts[0].Level)
		assert.Equal(t, shared.Sats(210), payouts[0].Sats)
	})
}

func TestMilestone_FailureLeavesNoPayoutAndRetryPaysOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerChild(t, 1)
	enableBonus(t, env, 210, 5)

	for i := 0; i < 14; i++ {
		env.approveRequired(t, 1)
	}

	env.settler.FailNext(1)
	res := env.approveRequired(t, 1)
	require.Error(t, res.MilestoneError)
	assert.True(t, shared.IsSettlementFailure(res.MilestoneError))
	assert.Equal(t, chore.StatusApproved, res.Task.Status)

	env.read(t, func(repos family.Repositories) {
		payouts, err := repos.Payouts().ListByChild(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, payouts)

		counters, err := repos.Counters().Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 4, counters.CachedChoreLevel)
		assert.True(t, counters.LevelLags())
	})

	retry, err := env.milestones.Handle(ctx, IssueMilestonesCommand{ChildID: 1})
	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeApplied, retry.Outcome)
	require.Len(t, retry.Paid, 1)

	again, err := env.milestones.Handle(ctx, IssueMilestonesCommand{ChildID: 1})
	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeDuplicate, again.Outcome)
	assert.Equal(t, shared.Sats(210), env.settler.Balance(1))
}

func TestMilestone_InactiveSettingsJustAdvance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerChild(t, 1)

	for i := 0; i < 15; i++ {
		env.approveRequired(t, 1)
	}
	assert.Zero(t, env.settler.Calls())

	env.read(t, func(repos family.Repositories) {
		counters, err := repos.Counters().Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 5, counters.CachedChoreLevel)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// LEARNING
// ══════════════════════════════════════════════════════════════════════════════

func todaysTemplate(env *testEnv, child shared.ChildID) challenge.Template {
	return challenge.NewSelector(nil).ForDay(child, timeutil.Today(env.clock))
}

func TestCompleteChallenge_DeterministicSelection(t *testing.T) {
	env := newTestEnv(t)
	env.registerChild(t, 7)

	day := timeutil.Today(env.clock)
	sel := challenge.NewSelector(nil)
	want := challenge.Pool[(day.DayOfYear()+7)%len(challenge.Pool)]
	assert.Equal(t, want.ID, sel.ForDay(7, day).ID)

	res, err := env.challenge.Handle(context.Background(), CompleteChallengeCommand{ChildID: 7, AnswerIndex: want.Correct})
	require.NoError(t, err)
	assert.Equal(t, want.ID, res.ChallengeID)
	assert.True(t, res.Correct)
	assert.Equal(t, want.RewardXP, res.AwardedXP)
}

func TestCompleteChallenge_WrongThenRightThenDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerChild(t, 7)
	tpl := todaysTemplate(env, 7)
	wrong := (tpl.Correct + 1) % len(tpl.Options)

	res, err := env.challenge.Handle(ctx, CompleteChallengeCommand{ChildID: 7, AnswerIndex: wrong})
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Zero(t, res.AwardedXP)
	assert.Zero(t, res.Progress.XP)

	res, err = env.challenge.Handle(ctx, CompleteChallengeCommand{ChildID: 7, AnswerIndex: tpl.Correct})
	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeApplied, res.Outcome)
	assert.Equal(t, tpl.RewardXP, res.Progress.XP)
	assert.Equal(t, 1, res.Progress.Streak)

	res, err = env.challenge.Handle(ctx, CompleteChallengeCommand{ChildID: 7, AnswerIndex: tpl.Correct})
	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeDuplicate, res.Outcome)
	assert.Equal(t, tpl.RewardXP, res.Progress.XP)
	assert.Equal(t, 1, env.events.count(shared.EventChallengeCompleted))
}

func TestCompleteChallenge_AnswerOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	env.registerChild(t, 7)
	tpl := todaysTemplate(env, 7)

	_, err := env.challenge.Handle(context.Background(), CompleteChallengeCommand{ChildID: 7, AnswerIndex: len(tpl.Options)})
	assert.True(t, shared.IsValidation(err))

	_, err = env.challenge.Handle(context.Background(), CompleteChallengeCommand{ChildID: 7, AnswerIndex: -1})
	assert.True(t, shared.IsValidation(err))
}

// completeDays answers the daily challenge correctly on n consecutive days.
func completeDays(t *testing.T, env *testEnv, child shared.ChildID, n int) *CompleteChallengeResult {
	t.Helper()
	var res *CompleteChallengeResult
	for i := 0; i < n; i++ {
		tpl := todaysTemplate(env, child)
		var err error
		res, err = env.challenge.Handle(context.Background(), CompleteChallengeCommand{ChildID: child, AnswerIndex: tpl.Correct})
		require.NoError(t, err)
		require.Equal(t, shared.OutcomeApplied, res.Outcome)
		env.clock.Advance(24 * time.Hour)
	}
	return res
}

func TestStreak_GuardianEscalatesAndNeverDrops(t *testing.T) {
	env := newTestEnv(t)
	env.registerChild(t, 7)

	res := completeDays(t, env, 7, 10)
	assert.Equal(t, 10, res.Progress.Streak)
	assert.Equal(t, 2, res.Progress.GuardianLevel)
	assert.Equal(t, 1, env.events.count(shared.EventGuardianLevelUp))

	env.clock.Advance(48 * time.Hour)
	res = completeDays(t, env, 7, 1)
	assert.Equal(t, 1, res.Progress.Streak)
	assert.Equal(t, 10, res.Progress.LongestStreak)
	assert.Equal(t, 2, res.Progress.GuardianLevel)
}

func TestClaimGuardianBonus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerChild(t, 7)

	_, err := env.guardian.Handle(ctx, ClaimGuardianBonusCommand{ChildID: 7, Tier: 2})
	assert.ErrorIs(t, err, shared.ErrGuardianTierNotEarned)

	_, err = env.guardian.Handle(ctx, ClaimGuardianBonusCommand{ChildID: 7, Tier: 4})
	assert.ErrorIs(t, err, shared.ErrGuardianTierInvalid)

	completeDays(t, env, 7, 10)

	res, err := env.guardian.Handle(ctx, ClaimGuardianBonusCommand{ChildID: 7, Tier: 2})
	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeApplied, res.Outcome)
	assert.Equal(t, shared.Sats(500), res.Sats)

	again, err := env.guardian.Handle(ctx, ClaimGuardianBonusCommand{ChildID: 7, Tier: 2})
	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeDuplicate, again.Outcome)

	_, err = env.guardian.Handle(ctx, ClaimGuardianBonusCommand{ChildID: 7, Tier: 3})
	assert.ErrorIs(t, err, shared.ErrGuardianTierNotEarned)

	assert.Equal(t, shared.Sats(500), env.settler.Balance(7))
	env.read(t, func(repos family.Repositories) {
		progress, err := repos.Learning().Get(ctx, 7)
		require.NoError(t, err)
		assert.True(t, progress.GraduationBonusClaimed)

		entries, err := repos.Earnings().ListByChild(ctx, 7, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, bonus.GuardianKey(7, 2), entries[0].Reference)
	})
}

func TestClaimGuardianBonus_SettlementFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerChild(t, 7)
	completeDays(t, env, 7, 10)

	env.settler.FailNext(1)
	_, err := env.guardian.Handle(ctx, ClaimGuardianBonusCommand{ChildID: 7, Tier: 2})
	assert.True(t, shared.IsSettlementFailure(err))

	env.read(t, func(repos family.Repositories) {
		claims, err := repos.GuardianClaims().ListByChild(ctx, 7)
		require.NoError(t, err)
		assert.Empty(t, claims)
	})

	res, err := env.guardian.Handle(ctx, ClaimGuardianBonusCommand{ChildID: 7, Tier: 2})
	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeApplied, res.Outcome)
}

func TestCompleteModule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerChild(t, 7)

	mod := firstModule(t)
	answers := mod.CorrectAnswers()

	wrong := append([]int(nil), answers...)
	wrong[0] = (wrong[0] + 1) % len(mod.Questions[0].Options)
	res, err := env.module.Handle(ctx, CompleteModuleCommand{ChildID: 7, ModuleID: mod.ID, Answers: wrong})
	require.NoError(t, err)
	assert.False(t, res.Grade.Passed)
	assert.Zero(t, res.AwardedXP)

	res, err = env.module.Handle(ctx, CompleteModuleCommand{ChildID: 7, ModuleID: mod.ID, Answers: answers})
	require.NoError(t, err)
	assert.True(t, res.Grade.Passed)
	assert.Equal(t, shared.OutcomeApplied, res.Outcome)
	assert.Equal(t, mod.RewardXP, res.Progress.XP)

	res, err = env.module.Handle(ctx, CompleteModuleCommand{ChildID: 7, ModuleID: mod.ID, Answers: answers})
	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeDuplicate, res.Outcome)
	assert.Equal(t, mod.RewardXP, res.Progress.XP)

	_, err = env.module.Handle(ctx, CompleteModuleCommand{ChildID: 7, ModuleID: "nope", Answers: answers})
	assert.True(t, shared.IsNotFound(err))

	_, err = env.module.Handle(ctx, CompleteModuleCommand{ChildID: 7, ModuleID: mod.ID, Answers: answers[:1]})
	if len(answers) > 1 {
		assert.True(t, shared.IsValidation(err))
	}
}

func TestRegisterChild_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	env.registerChild(t, 1)

	_, err := env.register.Handle(context.Background(), RegisterChildCommand{FamilyID: testFamily, ChildID: 1, DisplayName: "Again"})
	assert.True(t, shared.IsAlreadyExists(err))

	_, err = env.register.Handle(context.Background(), RegisterChildCommand{FamilyID: testFamily, ChildID: 0, DisplayName: "Zero"})
	assert.True(t, shared.IsValidation(err))
}

var _ earnings.PriceFeed = (*pricefeed.Static)(nil)
