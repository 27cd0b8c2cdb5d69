package command

import (
	"context"
	"fmt"

	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE TASK COMMAND
// Removes a chore that has not been approved yet.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteTaskCommand identifies the task to remove.
type DeleteTaskCommand struct {
	TaskID shared.TaskID `validate:"required,uuid"`
}

// Validate validates the command.
func (c DeleteTaskCommand) Validate() error {
	return validateCommand("DeleteTask", c)
}

// DeleteTaskResult confirms the removal.
type DeleteTaskResult struct {
	TaskID shared.TaskID
}

// DeleteTaskHandler handles the DeleteTaskCommand.
type DeleteTaskHandler struct {
	uow            family.UnitOfWorkFactory
	eventPublisher shared.EventPublisher
	log            *logger.Logger
}

// NewDeleteTaskHandler creates a new DeleteTaskHandler.
func NewDeleteTaskHandler(uow family.UnitOfWorkFactory, eventPublisher shared.EventPublisher, log *logger.Logger) *DeleteTaskHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &DeleteTaskHandler{
		uow:            uow,
		eventPublisher: eventPublisher,
		log:            log.With(logger.Component("delete_task")),
	}
}

// Handle executes the delete task command.
func (h *DeleteTaskHandler) Handle(ctx context.Context, cmd DeleteTaskCommand) (*DeleteTaskResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	tx, err := h.uow.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("delete_task: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	task, err := tx.Tasks().GetByID(ctx, cmd.TaskID)
	if err != nil {
		return nil, err
	}

	deleted, err := tx.Tasks().Delete(ctx, cmd.TaskID)
	if err != nil {
		return nil, fmt.Errorf("delete_task: delete: %w", err)
	}
	if !deleted {
		return nil, shared.ErrTaskApproved
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("delete_task: commit: %w", err)
	}

	h.log.Info("task deleted", logger.TaskID(task.ID.String()), logger.String("status", string(task.Status)))
	publishAll(h.eventPublisher, h.log, shared.NewTaskEvent(shared.EventTaskDeleted, task.FamilyID, task.ID, task.AssignedTo))

	return &DeleteTaskResult{TaskID: task.ID}, nil
}
