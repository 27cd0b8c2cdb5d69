package command

import (
	"context"
	"fmt"

	"github.com/sats-family/chore-hub/internal/domain/challenge"
	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/pkg/logger"
	"github.com/sats-family/chore-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE CHALLENGE COMMAND
// A child answers today's challenge. A correct answer is recorded once per day
// and awards XP; a wrong answer records nothing and may be retried.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteChallengeCommand contains the answer to today's challenge.
type CompleteChallengeCommand struct {
	ChildID     shared.ChildID `validate:"gt=0"`
	AnswerIndex int            `validate:"gte=0"`
}

// Validate validates the command.
func (c CompleteChallengeCommand) Validate() error {
	return validateCommand("CompleteChallenge", c)
}

// CompleteChallengeResult contains the outcome of an answer.
type CompleteChallengeResult struct {
	Outcome     shared.Outcome
	ChallengeID string
	Date        timeutil.Date
	Correct     bool
	AwardedXP   int
	LeveledUp   bool
	Progress    ProgressSnapshot
}

// CompleteChallengeHandler handles the CompleteChallengeCommand.
type CompleteChallengeHandler struct {
	uow            family.UnitOfWorkFactory
	selector       *challenge.Selector
	eventPublisher shared.EventPublisher
	clock          timeutil.Clock
	log            *logger.Logger
}

// NewCompleteChallengeHandler creates a new CompleteChallengeHandler.
func NewCompleteChallengeHandler(
	uow family.UnitOfWorkFactory,
	selector *challenge.Selector,
	eventPublisher shared.EventPublisher,
	clock timeutil.Clock,
	log *logger.Logger,
) *CompleteChallengeHandler {
	if log == nil {
		log = logger.Discard()
	}
	if selector == nil {
		selector = challenge.NewSelector(nil)
	}
	return &CompleteChallengeHandler{
		uow:            uow,
		selector:       selector,
		eventPublisher: eventPublisher,
		clock:          clock,
		log:            log.With(logger.Component("daily_challenge")),
	}
}

// Handle executes the complete challenge command.
func (h *CompleteChallengeHandler) Handle(ctx context.Context, cmd CompleteChallengeCommand) (*CompleteChallengeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	now := h.clock.Now()
	day := timeutil.Today(h.clock)

	tpl := h.selector.ForDay(cmd.ChildID, day)
	if !tpl.ValidAnswer(cmd.AnswerIndex) {
		return nil, shared.NewDomainError("challenge", "Complete", shared.ErrValidation,
			fmt.Sprintf("answer index must be between 0 and %d", len(tpl.Options)-1))
	}

	result := &CompleteChallengeResult{
		Outcome:     shared.OutcomeApplied,
		ChallengeID: tpl.ID,
		Date:        day,
	}

	tx, err := h.uow.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("complete_challenge: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	child, err := loadChild(ctx, tx, cmd.ChildID)
	if err != nil {
		return nil, err
	}

	existing, err := tx.Challenges().Get(ctx, child.ID, day)
	switch {
	case err == nil:
		result.Outcome = shared.OutcomeDuplicate
		result.Correct = true
		result.ChallengeID = existing.ChallengeID
		return h.withProgress(ctx, tx, child.ID, result)
	case !shared.IsNotFound(err):
		return nil, fmt.Errorf("complete_challenge: load completion: %w", err)
	}

	if !tpl.IsCorrect(cmd.AnswerIndex) {
		return h.withProgress(ctx, tx, child.ID, result)
	}

	progress, err := tx.Learning().GetForUpdate(ctx, child.ID)
	if err != nil {
		return nil, fmt.Errorf("complete_challenge: load progress: %w", err)
	}

	inserted, err := tx.Challenges().Insert(ctx, challenge.Completion{
		ChildID:     child.ID,
		Date:        day,
		ChallengeID: tpl.ID,
		XP:          tpl.RewardXP,
		CompletedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("complete_challenge: insert completion: %w", err)
	}
	if !inserted {
		result.Outcome = shared.OutcomeDuplicate
		result.Correct = true
		result.Progress = snapshotOf(progress)
		return result, nil
	}

	update := progress.AwardXP(tpl.RewardXP, day, now)
	if err := tx.Learning().Save(ctx, progress); err != nil {
		return nil, fmt.Errorf("complete_challenge: save progress: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("complete_challenge: commit: %w", err)
	}

	result.Correct = true
	result.AwardedXP = update.AwardedXP
	result.LeveledUp = update.LeveledUp()
	result.Progress = snapshotOf(progress)

	h.log.Info("daily challenge completed",
		logger.ChildID(child.ID.Int64()),
		logger.String("challenge_id", tpl.ID),
		logger.Int("xp", update.AwardedXP),
		logger.Int("streak", progress.Streak),
	)
	publishAll(h.eventPublisher, h.log, xpEvents(shared.EventChallengeCompleted, child.FamilyID, child.ID, tpl.ID, update, progress)...)

	return result, nil
}

func (h *CompleteChallengeHandler) withProgress(ctx context.Context, repos family.Repositories, child shared.ChildID, result *CompleteChallengeResult) (*CompleteChallengeResult, error) {
	progress, err := repos.Learning().Get(ctx, child)
	if err != nil {
		return nil, fmt.Errorf("complete_challenge: load progress: %w", err)
	}
	result.Progress = snapshotOf(progress)
	return result, nil
}
