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
// CLAIM GUARDIAN BONUS COMMAND
// A graduate claims the one-time bonus of a guardian tier (2 or 3).
// ══════════════════════════════════════════════════════════════════════════════

// ClaimGuardianBonusCommand identifies the child and tier.
type ClaimGuardianBonusCommand struct {
	ChildID shared.ChildID `validate:"gt=0"`
	Tier    int
}

// Validate validates the command.
func (c ClaimGuardianBonusCommand) Validate() error {
	if err := validateCommand("ClaimGuardianBonus", c); err != nil {
		return err
	}
	if !bonus.ValidGuardianTier(c.Tier) {
		return shared.ErrGuardianTierInvalid
	}
	return nil
}

// ClaimGuardianBonusResult contains the claim.
type ClaimGuardianBonusResult struct {
	Outcome             shared.Outcome
	Tier                int
	Sats                shared.Sats
	SettlementReference string
}

// ClaimGuardianBonusHandlerConfig sets the bonus amount per tier.
type ClaimGuardianBonusHandlerConfig struct {
	Tier2Sats shared.Sats
	Tier3Sats shared.Sats
	Price     PriceConfig
}

// DefaultClaimGuardianBonusHandlerConfig returns default configuration.
func DefaultClaimGuardianBonusHandlerConfig() ClaimGuardianBonusHandlerConfig {
	return ClaimGuardianBonusHandlerConfig{
		Tier2Sats: 500,
		Tier3Sats: 2100,
		Price:     DefaultPriceConfig(),
	}
}

// SatsFor returns the bonus of a tier.
func (c ClaimGuardianBonusHandlerConfig) SatsFor(tier int) shared.Sats {
	switch tier {
	case 2:
		return c.Tier2Sats
	case 3:
		return c.Tier3Sats
	}
	return 0
}

// ClaimGuardianBonusHandler handles the ClaimGuardianBonusCommand.
type ClaimGuardianBonusHandler struct {
	uow            family.UnitOfWorkFactory
	settler        settlement.Settler
	priceFeed      earnings.PriceFeed
	eventPublisher shared.EventPublisher
	clock          timeutil.Clock
	log            *logger.Logger
	config         ClaimGuardianBonusHandlerConfig
}

// NewClaimGuardianBonusHandler creates a new ClaimGuardianBonusHandler.
func NewClaimGuardianBonusHandler(
	uow family.UnitOfWorkFactory,
	settler settlement.Settler,
	priceFeed earnings.PriceFeed,
	eventPublisher shared.EventPublisher,
	clock timeutil.Clock,
	log *logger.Logger,
	config ClaimGuardianBonusHandlerConfig,
) *ClaimGuardianBonusHandler {
	if log == nil {
		log = logger.Discard()
	}
	if config.Price.Currency == "" {
		config.Price = DefaultPriceConfig()
	}
	return &ClaimGuardianBonusHandler{
		uow:            uow,
		settler:        settler,
		priceFeed:      priceFeed,
		eventPublisher: eventPublisher,
		clock:          clock,
		log:            log.With(logger.Component("guardian_bonus")),
		config:         config,
	}
}

// Handle executes the claim guardian bonus command.
func (h *ClaimGuardianBonusHandler) Handle(ctx context.Context, cmd ClaimGuardianBonusCommand) (*ClaimGuardianBonusResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	now := h.clock.Now()

	tx, err := h.uow.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("claim_guardian_bonus: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	child, err := loadChild(ctx, tx, cmd.ChildID)
	if err != nil {
		return nil, err
	}

	// Counters first, then learning: the same order as every other writer.
	if _, err := tx.Counters().GetForUpdate(ctx, child.ID); err != nil {
		return nil, fmt.Errorf("claim_guardian_bonus: lock counters: %w", err)
	}
	progress, err := tx.Learning().GetForUpdate(ctx, child.ID)
	if err != nil {
		return nil, fmt.Errorf("claim_guardian_bonus: load progress: %w", err)
	}
	if progress.GuardianLevel < cmd.Tier {
		return nil, shared.ErrGuardianTierNotEarned
	}

	claim := bonus.GuardianClaim{
		ChildID:   child.ID,
		Tier:      cmd.Tier,
		Sats:      h.config.SatsFor(cmd.Tier),
		ClaimedAt: now,
	}
	result := &ClaimGuardianBonusResult{Outcome: shared.OutcomeApplied, Tier: claim.Tier, Sats: claim.Sats}

	inserted, err := tx.GuardianClaims().Insert(ctx, claim)
	if err != nil {
		return nil, fmt.Errorf("claim_guardian_bonus: insert claim: %w", err)
	}
	if !inserted {
		result.Outcome = shared.OutcomeDuplicate
		return result, nil
	}

	if claim.Sats > 0 {
		req := settlement.Request{
			ChildID:        child.ID,
			Sats:           claim.Sats,
			Reason:         settlement.ReasonGraduation,
			IdempotencyKey: claim.IdempotencyKey(),
			Memo:           fmt.Sprintf("Guardian tier %d bonus", claim.Tier),
		}
		receipt, err := payout(ctx, tx, h.settler, req, newQuoter(h.priceFeed, h.config.Price, h.log), now, "ClaimGuardianBonus")
		if err != nil {
			h.log.Warn("guardian settlement failed",
				logger.ChildID(child.ID.Int64()),
				logger.Int("tier", claim.Tier),
				logger.Err(err),
			)
			return nil, err
		}
		result.SettlementReference = receipt.Reference
	}

	progress.MarkGraduationBonusClaimed(now)
	if err := tx.Learning().Save(ctx, progress); err != nil {
		return nil, fmt.Errorf("claim_guardian_bonus: save progress: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("claim_guardian_bonus: commit: %w", err)
	}

	h.log.Info("guardian bonus claimed",
		logger.ChildID(child.ID.Int64()),
		logger.Int("tier", claim.Tier),
		logger.Sats(claim.Sats.Int64()),
	)
	publishAll(h.eventPublisher, h.log, shared.NewGuardianBonusClaimedEvent(child.FamilyID, child.ID, claim.Tier, claim.Sats))

	return result, nil
}
