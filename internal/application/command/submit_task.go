package command

import (
	"context"
	"fmt"

	"github.com/sats-family/chore-hub/internal/domain/chore"
	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/pkg/logger"
	"github.com/sats-family/chore-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT TASK COMMAND
// The assignee hands in the chore together with an opaque proof reference.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitTaskCommand contains the data to submit a task.
type SubmitTaskCommand struct {
	TaskID shared.TaskID `validate:"required,uuid"`

	// ChildID is optional. When set it must be the assignee.
	ChildID shared.ChildID `validate:"gte=0"`

	ProofRef string `validate:"max=512"`
}

// Validate validates the command.
func (c SubmitTaskCommand) Validate() error {
	return validateCommand("SubmitTask", c)
}

// SubmitTaskResult contains the submitted task.
type SubmitTaskResult struct {
	Task *chore.Task
}

// SubmitTaskHandler handles the SubmitTaskCommand.
type SubmitTaskHandler struct {
	uow            family.UnitOfWorkFactory
	eventPublisher shared.EventPublisher
	clock          timeutil.Clock
	log            *logger.Logger
}

// NewSubmitTaskHandler creates a new SubmitTaskHandler.
func NewSubmitTaskHandler(
	uow family.UnitOfWorkFactory,
	eventPublisher shared.EventPublisher,
	clock timeutil.Clock,
	log *logger.Logger,
) *SubmitTaskHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &SubmitTaskHandler{
		uow:            uow,
		eventPublisher: eventPublisher,
		clock:          clock,
		log:            log.With(logger.Component("submit_task")),
	}
}

// Handle executes the submit task command.
func (h *SubmitTaskHandler) Handle(ctx context.Context, cmd SubmitTaskCommand) (*SubmitTaskResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	now := h.clock.Now()

	tx, err := h.uow.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("submit_task: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	applied, err := tx.Tasks().MarkSubmitted(ctx, cmd.TaskID, cmd.ChildID, cmd.ProofRef, now)
	if err != nil {
		return nil, fmt.Errorf("submit_task: update: %w", err)
	}

	task, err := tx.Tasks().GetByID(ctx, cmd.TaskID)
	if err != nil {
		return nil, err
	}
	if !applied {
		if task.Status != chore.StatusAssigned {
			return nil, shared.ErrTaskNotAssigned
		}
		return nil, shared.ErrNotAssignee
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("submit_task: commit: %w", err)
	}

	h.log.Info("task submitted",
		logger.TaskID(task.ID.String()),
		logger.ChildID(task.AssignedTo.Int64()),
	)
	publishAll(h.eventPublisher, h.log, shared.NewTaskEvent(shared.EventTaskSubmitted, task.FamilyID, task.ID, task.AssignedTo))

	return &SubmitTaskResult{Task: task}, nil
}
