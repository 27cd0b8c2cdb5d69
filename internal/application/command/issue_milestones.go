package command

import (
	"context"
	"fmt"

	"github.com/sats-family/chore-hub/internal/domain/bonus"
	"github.com/sats-family/chore-hub/internal/domain/earnings"
	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/settlement"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/pkg/logger"
	"github.com/sats-family/chore-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ISSUE MILESTONES COMMAND
// Pays the one-time level bonus for every milestone level a child crossed
// since the cached level, then advances the cached level. Runs after each
// approval and from the retry job for children whose cached level lags.
// ══════════════════════════════════════════════════════════════════════════════

// IssueMilestonesCommand identifies the child to process.
type IssueMilestonesCommand struct {
	ChildID shared.ChildID `validate:"gt=0"`
}

// Validate validates the command.
func (c IssueMilestonesCommand) Validate() error {
	return validateCommand("IssueMilestones", c)
}

// IssueMilestonesResult describes what the run did.
type IssueMilestonesResult struct {
	Outcome  shared.Outcome
	OldLevel int
	NewLevel int

	// Paid lists the payouts settled by this run.
	Paid []bonus.Payout
}

// IssueMilestonesHandler handles the IssueMilestonesCommand.
type IssueMilestonesHandler struct {
	uow            family.UnitOfWorkFactory
	settler        settlement.Settler
	priceFeed      earnings.PriceFeed
	eventPublisher shared.EventPublisher
	clock          timeutil.Clock
	log            *logger.Logger
	price          PriceConfig
}

// NewIssueMilestonesHandler creates a new IssueMilestonesHandler.
// priceFeed may be nil.
func NewIssueMilestonesHandler(
	uow family.UnitOfWorkFactory,
	settler settlement.Settler,
	priceFeed earnings.PriceFeed,
	eventPublisher shared.EventPublisher,
	clock timeutil.Clock,
	log *logger.Logger,
	price PriceConfig,
) *IssueMilestonesHandler {
	if log == nil {
		log = logger.Discard()
	}
	if price.Currency == "" {
		price = DefaultPriceConfig()
	}
	return &IssueMilestonesHandler{
		uow:            uow,
		settler:        settler,
		priceFeed:      priceFeed,
		eventPublisher: eventPublisher,
		clock:          clock,
		log:            log.With(logger.Component("milestone_issuer")),
		price:          price,
	}
}

// Handle executes the issue milestones command.
//
// A settlement failure rolls back every payout row of this run and leaves the
// cached level where it was, so the next run retries the same levels.
func (h *IssueMilestonesHandler) Handle(ctx context.Context, cmd IssueMilestonesCommand) (*IssueMilestonesResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	now := h.clock.Now()

	tx, err := h.uow.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("issue_milestones: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	counters, err := tx.Counters().GetForUpdate(ctx, cmd.ChildID)
	if err != nil {
		return nil, fmt.Errorf("issue_milestones: load counters: %w", err)
	}

	result := &IssueMilestonesResult{
		Outcome:  shared.OutcomeDuplicate,
		OldLevel: counters.CachedChoreLevel,
		NewLevel: counters.ChoreLevel(),
	}
	if !counters.LevelLags() {
		return result, nil
	}

	child, err := loadChild(ctx, tx, cmd.ChildID)
	if err != nil {
		return nil, err
	}
	settings, err := tx.BonusSettings().Get(ctx, child.FamilyID)
	if err != nil {
		return nil, fmt.Errorf("issue_milestones: load settings: %w", err)
	}

	quote := newQuoter(h.priceFeed, h.price, h.log)
	for _, level := range bonus.CrossedMilestones(settings, result.OldLevel, result.NewLevel) {
		p := bonus.Payout{ChildID: child.ID, Level: level, Sats: settings.BonusSats, PaidAt: now}

		inserted, err := tx.Payouts().Insert(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("issue_milestones: insert payout: %w", err)
		}
		if !inserted {
			continue
		}

		req := settlement.Request{
			ChildID:        child.ID,
			Sats:           p.Sats,
			Reason:         settlement.ReasonMilestone,
			IdempotencyKey: p.IdempotencyKey(),
			Memo:           fmt.Sprintf("Level %d bonus", level),
		}
		if _, err := payout(ctx, tx, h.settler, req, quote, now, "IssueMilestones"); err != nil {
			h.log.Warn("milestone settlement failed",
				logger.ChildID(child.ID.Int64()),
				logger.ChoreLevel(level),
				logger.Err(err),
			)
			return nil, err
		}
		result.Paid = append(result.Paid, p)
	}

	counters.AdvanceCachedLevel(result.NewLevel, now)
	if err := tx.Counters().Save(ctx, counters); err != nil {
		return nil, fmt.Errorf("issue_milestones: save counters: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("issue_milestones: commit: %w", err)
	}
	result.Outcome = shared.OutcomeApplied

	events := []shared.Event{shared.NewChoreLevelUpEvent(child.FamilyID, child.ID, result.OldLevel, result.NewLevel)}
	for _, p := range result.Paid {
		h.log.Info("milestone bonus paid",
			logger.ChildID(child.ID.Int64()),
			logger.ChoreLevel(p.Level),
			logger.Sats(p.Sats.Int64()),
		)
		events = append(events, shared.NewMilestonePaidEvent(child.FamilyID, child.ID, p.Level, p.Sats))
	}
	publishAll(h.eventPublisher, h.log, events...)

	return result, nil
}
