package command

import (
	"context"
	"fmt"

	"github.com/sats-family/chore-hub/internal/domain/chore"
	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/internal/domain/unlock"
	"github.com/sats-family/chore-hub/pkg/logger"
	"github.com/sats-family/chore-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACCEPT TASK COMMAND
// A child takes an open chore. Paid chores that do not bypass the ratio spend
// one unlock slot; the slot and the assignment commit together.
// ══════════════════════════════════════════════════════════════════════════════

// AcceptTaskCommand contains the data to accept a task.
type AcceptTaskCommand struct {
	TaskID  shared.TaskID  `validate:"required,uuid"`
	ChildID shared.ChildID `validate:"gt=0"`
}

// Validate validates the command.
func (c AcceptTaskCommand) Validate() error {
	return validateCommand("AcceptTask", c)
}

// AcceptTaskResult contains the assigned task and the gate state after accept.
type AcceptTaskResult struct {
	Task *chore.Task

	// ConsumedSlot is true when the accept spent an unlock slot.
	ConsumedSlot bool

	Unlock unlock.Status
}

// AcceptTaskHandler handles the AcceptTaskCommand.
type AcceptTaskHandler struct {
	uow            family.UnitOfWorkFactory
	eventPublisher shared.EventPublisher
	clock          timeutil.Clock
	log            *logger.Logger
}

// NewAcceptTaskHandler creates a new AcceptTaskHandler.
func NewAcceptTaskHandler(
	uow family.UnitOfWorkFactory,
	eventPublisher shared.EventPublisher,
	clock timeutil.Clock,
	log *logger.Logger,
) *AcceptTaskHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &AcceptTaskHandler{
		uow:            uow,
		eventPublisher: eventPublisher,
		clock:          clock,
		log:            log.With(logger.Component("accept_task")),
	}
}

// Handle executes the accept task command.
//
// Errors:
//   - ErrTaskNotFound: no such task
//   - ErrTaskNotOpen: the task was taken already (also the loser of a race)
//   - ErrChildNotInFamily: the child belongs to another household
//   - *shared.LockedError: no free unlock slot
func (h *AcceptTaskHandler) Handle(ctx context.Context, cmd AcceptTaskCommand) (*AcceptTaskResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	now := h.clock.Now()

	tx, err := h.uow.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("accept_task: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	task, err := tx.Tasks().GetByID(ctx, cmd.TaskID)
	if err != nil {
		return nil, err
	}
	if task.Status != chore.StatusOpen {
		return nil, shared.ErrTaskNotOpen
	}

	child, err := loadChild(ctx, tx, cmd.ChildID)
	if err != nil {
		return nil, err
	}
	if child.FamilyID != task.FamilyID {
		return nil, shared.ErrChildNotInFamily
	}

	// Paid accepts lock the counters row before the task row changes, so two
	// accepts of one child cannot both spend the same free slot.
	loadCounters := tx.Counters().Get
	if task.RequiresUnlock() {
		loadCounters = tx.Counters().GetForUpdate
	}
	counters, err := loadCounters(ctx, cmd.ChildID)
	if err != nil {
		return nil, fmt.Errorf("accept_task: load counters: %w", err)
	}

	consumed := false
	if task.RequiresUnlock() {
		if err := counters.ConsumePaidSlot(now); err != nil {
			h.log.Info("paid task locked",
				logger.TaskID(task.ID.String()),
				logger.ChildID(cmd.ChildID.Int64()),
				logger.Int("completed_required", counters.CompletedRequired),
			)
			return nil, err
		}
		consumed = true
	}

	applied, err := tx.Tasks().Assign(ctx, task.ID, cmd.ChildID, now)
	if err != nil {
		return nil, fmt.Errorf("accept_task: assign: %w", err)
	}
	if !applied {
		return nil, shared.ErrTaskNotOpen
	}

	if consumed {
		if err := tx.Counters().Save(ctx, counters); err != nil {
			return nil, fmt.Errorf("accept_task: save counters: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("accept_task: commit: %w", err)
	}

	_ = task.Assign(cmd.ChildID, now)

	h.log.Info("task accepted",
		logger.TaskID(task.ID.String()),
		logger.ChildID(cmd.ChildID.Int64()),
		logger.Bool("consumed_slot", consumed),
	)
	publishAll(h.eventPublisher, h.log, shared.NewTaskEvent(shared.EventTaskAccepted, task.FamilyID, task.ID, cmd.ChildID))

	return &AcceptTaskResult{
		Task:         task,
		ConsumedSlot: consumed,
		Unlock:       counters.Unlock(),
	}, nil
}
