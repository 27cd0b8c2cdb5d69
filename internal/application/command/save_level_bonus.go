package command

import (
	"context"
	"fmt"

	"github.com/sats-family/chore-hub/internal/domain/bonus"
	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/pkg/logger"
	"github.com/sats-family/chore-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SAVE LEVEL BONUS SETTINGS COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// SaveLevelBonusSettingsCommand replaces the bonus settings of a family.
type SaveLevelBonusSettingsCommand struct {
	FamilyID          shared.FamilyID `validate:"required,max=64"`
	BonusSats         shared.Sats     `validate:"gte=0"`
	MilestoneInterval int             `validate:"gte=1"`
	IsActive          bool
}

// Validate validates the command.
func (c SaveLevelBonusSettingsCommand) Validate() error {
	return validateCommand("SaveLevelBonusSettings", c)
}

// SaveLevelBonusSettingsResult contains the stored settings.
type SaveLevelBonusSettingsResult struct {
	Settings bonus.Settings
}

// SaveLevelBonusSettingsHandler handles the SaveLevelBonusSettingsCommand.
type SaveLevelBonusSettingsHandler struct {
	uow   family.UnitOfWorkFactory
	clock timeutil.Clock
	log   *logger.Logger
}

// NewSaveLevelBonusSettingsHandler creates a new SaveLevelBonusSettingsHandler.
func NewSaveLevelBonusSettingsHandler(uow family.UnitOfWorkFactory, clock timeutil.Clock, log *logger.Logger) *SaveLevelBonusSettingsHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &SaveLevelBonusSettingsHandler{uow: uow, clock: clock, log: log.With(logger.Component("level_bonus_settings"))}
}

// Handle executes the command.
func (h *SaveLevelBonusSettingsHandler) Handle(ctx context.Context, cmd SaveLevelBonusSettingsCommand) (*SaveLevelBonusSettingsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	settings := bonus.Settings{
		FamilyID:          cmd.FamilyID,
		BonusSats:         cmd.BonusSats,
		MilestoneInterval: cmd.MilestoneInterval,
		IsActive:          cmd.IsActive,
		UpdatedAt:         h.clock.Now(),
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	tx, err := h.uow.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("save_level_bonus: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.BonusSettings().Upsert(ctx, settings); err != nil {
		return nil, fmt.Errorf("save_level_bonus: upsert: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("save_level_bonus: commit: %w", err)
	}

	h.log.Info("level bonus settings saved",
		logger.FamilyID(settings.FamilyID.String()),
		logger.Sats(settings.BonusSats.Int64()),
		logger.Int("interval", settings.MilestoneInterval),
		logger.Bool("active", settings.IsActive),
	)
	return &SaveLevelBonusSettingsResult{Settings: settings}, nil
}
