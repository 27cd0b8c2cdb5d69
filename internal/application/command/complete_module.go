package command

import (
	"context"
	"fmt"

	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/learning"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/pkg/logger"
	"github.com/sats-family/chore-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE MODULE COMMAND
// Grades a module quiz. All answers correct marks the module completed and
// awards its XP, once per child.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteModuleCommand contains the quiz answers of one module.
type CompleteModuleCommand struct {
	ChildID  shared.ChildID `validate:"gt=0"`
	ModuleID string         `validate:"required,max=64"`

	// Answers[i] is the chosen option of question i in the shuffled order.
	Answers []int `validate:"required,min=1,dive,gte=0"`
}

// Validate validates the command.
func (c CompleteModuleCommand) Validate() error {
	return validateCommand("CompleteModule", c)
}

// CompleteModuleResult contains the grade and the progress after it.
type CompleteModuleResult struct {
	Outcome   shared.Outcome
	ModuleID  string
	Grade     learning.GradeResult
	AwardedXP int
	LeveledUp bool
	Progress  ProgressSnapshot
}

// CompleteModuleHandler handles the CompleteModuleCommand.
type CompleteModuleHandler struct {
	uow            family.UnitOfWorkFactory
	eventPublisher shared.EventPublisher
	clock          timeutil.Clock
	log            *logger.Logger
}

// NewCompleteModuleHandler creates a new CompleteModuleHandler.
func NewCompleteModuleHandler(
	uow family.UnitOfWorkFactory,
	eventPublisher shared.EventPublisher,
	clock timeutil.Clock,
	log *logger.Logger,
) *CompleteModuleHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &CompleteModuleHandler{
		uow:            uow,
		eventPublisher: eventPublisher,
		clock:          clock,
		log:            log.With(logger.Component("learning_module")),
	}
}

// Handle executes the complete module command.
func (h *CompleteModuleHandler) Handle(ctx context.Context, cmd CompleteModuleCommand) (*CompleteModuleResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	module, err := learning.FindModule(cmd.ModuleID)
	if err != nil {
		return nil, err
	}
	grade, err := module.Grade(cmd.Answers)
	if err != nil {
		return nil, err
	}

	now := h.clock.Now()
	day := timeutil.Today(h.clock)
	result := &CompleteModuleResult{Outcome: shared.OutcomeApplied, ModuleID: module.ID, Grade: grade}

	tx, err := h.uow.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("complete_module: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	child, err := loadChild(ctx, tx, cmd.ChildID)
	if err != nil {
		return nil, err
	}
	progress, err := tx.Learning().GetForUpdate(ctx, child.ID)
	if err != nil {
		return nil, fmt.Errorf("complete_module: load progress: %w", err)
	}

	if progress.HasCompleted(module.ID) {
		result.Outcome = shared.OutcomeDuplicate
		result.Progress = snapshotOf(progress)
		return result, nil
	}
	if !grade.Passed {
		result.Progress = snapshotOf(progress)
		return result, nil
	}

	progress.MarkModuleCompleted(module.ID)
	update := progress.AwardXP(module.RewardXP, day, now)
	if err := tx.Learning().Save(ctx, progress); err != nil {
		return nil, fmt.Errorf("complete_module: save progress: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("complete_module: commit: %w", err)
	}

	result.AwardedXP = update.AwardedXP
	result.LeveledUp = update.LeveledUp()
	result.Progress = snapshotOf(progress)

	h.log.Info("learning module completed",
		logger.ChildID(child.ID.Int64()),
		logger.String("module_id", module.ID),
		logger.Int("xp", update.AwardedXP),
	)
	publishAll(h.eventPublisher, h.log, xpEvents(shared.EventModuleCompleted, child.FamilyID, child.ID, module.ID, update, progress)...)

	return result, nil
}
