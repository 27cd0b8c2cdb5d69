package command

import (
	"context"
	"fmt"

	"github.com/sats-family/chore-hub/internal/domain/bonus"
	"github.com/sats-family/chore-hub/internal/domain/chore"
	"github.com/sats-family/chore-hub/internal/domain/earnings"
	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/settlement"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/internal/domain/unlock"
	"github.com/sats-family/chore-hub/pkg/logger"
	"github.com/sats-family/chore-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPROVE TASK COMMAND
// A parent approves a submitted chore. The status flip, the wallet payout,
// the counter update and the earning entry commit together or not at all.
// Level bonuses are issued afterwards in their own transaction.
// ══════════════════════════════════════════════════════════════════════════════

// ApproveTaskCommand contains the data to approve a task.
type ApproveTaskCommand struct {
	TaskID shared.TaskID `validate:"required,uuid"`
}

// Validate validates the command.
func (c ApproveTaskCommand) Validate() error {
	return validateCommand("ApproveTask", c)
}

// ApproveTaskResult contains the outcome of an approval.
type ApproveTaskResult struct {
	Outcome shared.Outcome
	Task    *chore.Task

	// SettlementReference is the wallet payment id (empty for unpaid chores
	// and duplicates).
	SettlementReference string

	ChoreLevel    int
	ApprovedCount int
	Unlock        unlock.Status

	// Milestones is the result of the follow-up bonus run, if it happened.
	Milestones *IssueMilestonesResult

	// MilestoneError is set when the bonus run failed. The approval itself
	// stays committed and the retry job picks the bonus up later.
	MilestoneError error
}

// ApproveTaskHandler handles the ApproveTaskCommand.
type ApproveTaskHandler struct {
	uow            family.UnitOfWorkFactory
	settler        settlement.Settler
	priceFeed      earnings.PriceFeed
	milestones     *IssueMilestonesHandler
	eventPublisher shared.EventPublisher
	clock          timeutil.Clock
	log            *logger.Logger
	price          PriceConfig
}

// NewApproveTaskHandler creates a new ApproveTaskHandler.
// milestones and priceFeed may be nil.
func NewApproveTaskHandler(
	uow family.UnitOfWorkFactory,
	settler settlement.Settler,
	priceFeed earnings.PriceFeed,
	milestones *IssueMilestonesHandler,
	eventPublisher shared.EventPublisher,
	clock timeutil.Clock,
	log *logger.Logger,
	price PriceConfig,
) *ApproveTaskHandler {
	if log == nil {
		log = logger.Discard()
	}
	if price.Currency == "" {
		price = DefaultPriceConfig()
	}
	return &ApproveTaskHandler{
		uow:            uow,
		settler:        settler,
		priceFeed:      priceFeed,
		milestones:     milestones,
		eventPublisher: eventPublisher,
		clock:          clock,
		log:            log.With(logger.Component("approve_task")),
		price:          price,
	}
}

// Handle executes the approve task command.
//
// A repeated approval returns OutcomeDuplicate without touching the wallet.
// A wallet failure returns a SettlementFailure and leaves the task submitted.
func (h *ApproveTaskHandler) Handle(ctx context.Context, cmd ApproveTaskCommand) (*ApproveTaskResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	now := h.clock.Now()

	tx, err := h.uow.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("approve_task: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The conditional update goes first: its row lock makes a concurrent
	// approver wait here until this transaction ends.
	applied, err := tx.Tasks().MarkApproved(ctx, cmd.TaskID, now)
	if err != nil {
		return nil, fmt.Errorf("approve_task: update: %w", err)
	}

	task, err := tx.Tasks().GetByID(ctx, cmd.TaskID)
	if err != nil {
		return nil, err
	}
	if !applied {
		if task.Status == chore.StatusApproved {
			h.log.Debug("duplicate approval ignored", logger.TaskID(task.ID.String()))
			return &ApproveTaskResult{Outcome: shared.OutcomeDuplicate, Task: task}, nil
		}
		return nil, shared.ErrTaskNotSubmitted
	}

	counters, err := tx.Counters().GetForUpdate(ctx, task.AssignedTo)
	if err != nil {
		return nil, fmt.Errorf("approve_task: load counters: %w", err)
	}

	var reference string
	if task.IsPaid() {
		req := settlement.Request{
			ChildID:        task.AssignedTo,
			Sats:           task.Sats,
			Reason:         settlement.ReasonChore,
			IdempotencyKey: bonus.TaskKey(task.ID),
			Memo:           task.Title,
		}
		receipt, err := payout(ctx, tx, h.settler, req, newQuoter(h.priceFeed, h.price, h.log), now, "ApproveTask")
		if err != nil {
			h.log.Warn("chore settlement failed, task stays submitted",
				logger.TaskID(task.ID.String()),
				logger.ChildID(task.AssignedTo.Int64()),
				logger.Sats(task.Sats.Int64()),
				logger.Err(err),
			)
			return nil, err
		}
		reference = receipt.Reference
	}

	counters.RecordApproval(task.IsRequired, now)
	if err := tx.Counters().Save(ctx, counters); err != nil {
		return nil, fmt.Errorf("approve_task: save counters: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("approve_task: commit: %w", err)
	}

	h.log.Info("task approved",
		logger.TaskID(task.ID.String()),
		logger.ChildID(task.AssignedTo.Int64()),
		logger.Sats(task.Sats.Int64()),
		logger.Int("approved_count", counters.ApprovedCount),
	)
	publishAll(h.eventPublisher, h.log,
		shared.NewTaskApprovedEvent(task.FamilyID, task.ID, task.AssignedTo, task.Sats, task.IsRequired, reference),
	)

	result := &ApproveTaskResult{
		Outcome:             shared.OutcomeApplied,
		Task:                task,
		SettlementReference: reference,
		ChoreLevel:          counters.ChoreLevel(),
		ApprovedCount:       counters.ApprovedCount,
		Unlock:              counters.Unlock(),
	}

	if h.milestones != nil && counters.LevelLags() {
		ms, err := h.milestones.Handle(ctx, IssueMilestonesCommand{ChildID: task.AssignedTo})
		if err != nil {
			result.MilestoneError = err
		} else {
			result.Milestones = ms
		}
	}

	return result, nil
}
