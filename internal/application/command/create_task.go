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
// CREATE TASK COMMAND
// A parent posts a chore. Required chores never carry sats; bypass chores are
// paid but skip the unlock gate.
// ══════════════════════════════════════════════════════════════════════════════

// CreateTaskCommand contains the data of a new chore.
type CreateTaskCommand struct {
	FamilyID    shared.FamilyID `validate:"required,max=64"`
	Title       string          `validate:"required,max=200"`
	Description string          `validate:"max=2000"`
	Sats        shared.Sats     `validate:"gte=0"`
	IsRequired  bool
	BypassRatio bool
}

// Validate validates the command.
func (c CreateTaskCommand) Validate() error {
	return validateCommand("CreateTask", c)
}

// CreateTaskResult contains the created task.
type CreateTaskResult struct {
	Task *chore.Task
}

// CreateTaskHandler handles the CreateTaskCommand.
type CreateTaskHandler struct {
	uow            family.UnitOfWorkFactory
	eventPublisher shared.EventPublisher
	clock          timeutil.Clock
	log            *logger.Logger
}

// NewCreateTaskHandler creates a new CreateTaskHandler.
func NewCreateTaskHandler(
	uow family.UnitOfWorkFactory,
	eventPublisher shared.EventPublisher,
	clock timeutil.Clock,
	log *logger.Logger,
) *CreateTaskHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &CreateTaskHandler{
		uow:            uow,
		eventPublisher: eventPublisher,
		clock:          clock,
		log:            log.With(logger.Component("create_task")),
	}
}

// Handle executes the create task command.
func (h *CreateTaskHandler) Handle(ctx context.Context, cmd CreateTaskCommand) (*CreateTaskResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	task, err := chore.NewTask(chore.NewTaskParams{
		FamilyID:    cmd.FamilyID,
		Title:       cmd.Title,
		Description: cmd.Description,
		Sats:        cmd.Sats,
		IsRequired:  cmd.IsRequired,
		BypassRatio: cmd.BypassRatio,
	}, h.clock.Now())
	if err != nil {
		return nil, err
	}

	tx, err := h.uow.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("create_task: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.Tasks().Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create_task: save task: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("create_task: commit: %w", err)
	}

	h.log.Info("task created",
		logger.TaskID(task.ID.String()),
		logger.FamilyID(task.FamilyID.String()),
		logger.Sats(task.Sats.Int64()),
		logger.Bool("is_required", task.IsRequired),
	)
	publishAll(h.eventPublisher, h.log, shared.NewTaskEvent(shared.EventTaskCreated, task.FamilyID, task.ID, 0))

	return &CreateTaskResult{Task: task}, nil
}
