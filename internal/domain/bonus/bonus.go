// Package bonus - Milestone Bonus Issuer: единовременные бонусы за уровни,
// кратные настроенному интервалу, и бонусы выпускника (Guardian).
// Идемпотентность обеспечивается уникальностью строк журнала выплат.
package bonus

import (
	"context"
	"time"

	"github.com/sats-family/chore-hub/internal/domain/progression"
	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL BONUS SETTINGS
// ══════════════════════════════════════════════════════════════════════════════

// Settings - настройки бонусов семьи (одна запись на семью).
type Settings struct {
	FamilyID shared.FamilyID

	// BonusSats - сумма за каждый достигнутый рубеж.
	BonusSats shared.Sats

	// MilestoneInterval - оплачиваются уровни, кратные интервалу.
	MilestoneInterval int

	IsActive  bool
	UpdatedAt time.Time
}

// DefaultSettings - семья без сохранённых настроек: бонусы выключены.
func DefaultSettings(family shared.FamilyID) Settings {
	return Settings{
		FamilyID:          family,
		MilestoneInterval: 5,
	}
}

// Validate проверяет настройки.
func (s Settings) Validate() error {
	switch {
	case !s.FamilyID.IsValid():
		return shared.NewDomainError("bonus", "Validate", shared.ErrValidation, "family id is required")
	case s.BonusSats.IsNegative():
		return shared.NewDomainError("bonus", "Validate", shared.ErrValidation, "bonus sats cannot be negative")
	case s.MilestoneInterval < 1:
		return shared.NewDomainError("bonus", "Validate", shared.ErrValidation, "milestone interval must be at least 1")
	}
	return nil
}

// CrossedMilestones возвращает уровни L с old < L <= new и L % interval == 0.
// Для неактивных настроек или нулевой суммы - пусто.
func CrossedMilestones(s Settings, oldLevel, newLevel int) []int {
	if !s.IsActive || s.BonusSats <= 0 || s.MilestoneInterval < 1 {
		return nil
	}
	if newLevel > progression.MaxChoreLevel {
		newLevel = progression.MaxChoreLevel
	}
	if oldLevel < 0 {
		oldLevel = 0
	}

	var levels []int
	for l := oldLevel + 1; l <= newLevel; l++ {
		if l%s.MilestoneInterval == 0 {
			levels = append(levels, l)
		}
	}
	return levels
}

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER ENTRIES
// ══════════════════════════════════════════════════════════════════════════════

// Payout - строка журнала бонусов, уникальна по (ChildID, Level).
type Payout struct {
	ChildID shared.ChildID
	Level   int
	Sats    shared.Sats
	PaidAt  time.Time
}

// IdempotencyKey - ключ расчёта, одинаковый при любых повторах.
func (p Payout) IdempotencyKey() string {
	return MilestoneKey(p.ChildID, p.Level)
}

// GuardianClaim - бонус выпускника, уникален по (ChildID, Tier).
type GuardianClaim struct {
	ChildID   shared.ChildID
	Tier      int
	Sats      shared.Sats
	ClaimedAt time.Time
}

// IdempotencyKey - ключ расчёта, одинаковый при любых повторах.
func (c GuardianClaim) IdempotencyKey() string {
	return GuardianKey(c.ChildID, c.Tier)
}

// ValidGuardianTier - бонус выдаётся только за уровни 2 и 3.
func ValidGuardianTier(tier int) bool {
	return tier >= 2 && tier <= progression.MaxGuardianLevel
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// SettingsRepository хранит настройки бонусов.
type SettingsRepository interface {
	// Get возвращает настройки семьи или DefaultSettings, если их нет.
	Get(ctx context.Context, family shared.FamilyID) (Settings, error)

	// Upsert сохраняет настройки.
	Upsert(ctx context.Context, s Settings) error
}

// PayoutRepository - журнал бонусов за уровни.
type PayoutRepository interface {
	// Insert добавляет строку; inserted=false, если (child, level) уже есть.
	Insert(ctx context.Context, p Payout) (bool, error)

	// ListByChild возвращает выплаты ребёнка по возрастанию уровня.
	ListByChild(ctx context.Context, child shared.ChildID) ([]Payout, error)
}

// GuardianClaimRepository - журнал бонусов выпускника.
type GuardianClaimRepository interface {
	// Insert добавляет строку; inserted=false, если (child, tier) уже есть.
	Insert(ctx context.Context, c GuardianClaim) (bool, error)

	// ListByChild возвращает полученные бонусы ребёнка.
	ListByChild(ctx context.Context, child shared.ChildID) ([]GuardianClaim, error)
}
