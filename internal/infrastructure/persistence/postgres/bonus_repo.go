package postgres

import (
	"context"
	"fmt"

	"github.com/sats-family/chore-hub/internal/domain/bonus"
	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL BONUS SETTINGS
// ══════════════════════════════════════════════════════════════════════════════

// BonusSettingsRepository implements bonus.SettingsRepository for PostgreSQL.
type BonusSettingsRepository struct {
	q Querier
}

// NewBonusSettingsRepository creates a BonusSettingsRepository.
func NewBonusSettingsRepository(q Querier) *BonusSettingsRepository {
	return &BonusSettingsRepository{q: q}
}

// Get returns family settings or the inactive defaults.
func (r *BonusSettingsRepository) Get(ctx context.Context, family shared.FamilyID) (bonus.Settings, error) {
	s := bonus.Settings{FamilyID: family}
	var sats int64
	err := r.q.QueryRow(ctx, `
		SELECT bonus_sats, milestone_interval, is_active, updated_at
		FROM level_bonus_settings WHERE family_id = $1`,
		family.String(),
	).Scan(&sats, &s.MilestoneInterval, &s.IsActive, &s.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return bonus.DefaultSettings(family), nil
		}
		return bonus.Settings{}, fmt.Errorf("failed to get bonus settings: %w", err)
	}
	s.BonusSats = shared.Sats(sats)
	return s, nil
}

// Upsert stores the settings.
func (r *BonusSettingsRepository) Upsert(ctx context.Context, s bonus.Settings) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO level_bonus_settings (family_id, bonus_sats, milestone_interval, is_active, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (family_id) DO UPDATE SET
			bonus_sats = EXCLUDED.bonus_sats,
			milestone_interval = EXCLUDED.milestone_interval,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at`,
		s.FamilyID.String(), s.BonusSats.Int64(), s.MilestoneInterval, s.IsActive, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save bonus settings: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MILESTONE PAYOUTS
// ══════════════════════════════════════════════════════════════════════════════

// PayoutRepository implements bonus.PayoutRepository for PostgreSQL.
type PayoutRepository struct {
	q Querier
}

// NewPayoutRepository creates a PayoutRepository.
func NewPayoutRepository(q Querier) *PayoutRepository {
	return &PayoutRepository{q: q}
}

// Insert records a payout. The primary key (child_id, level) makes a second
// insert a no-op.
func (r *PayoutRepository) Insert(ctx context.Context, p bonus.Payout) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO level_bonus_payouts (child_id, level, sats, paid_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (child_id, level) DO NOTHING`,
		p.ChildID.Int64(), p.Level, p.Sats.Int64(), p.PaidAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert payout: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByChild returns payouts ordered by level.
func (r *PayoutRepository) ListByChild(ctx context.Context, child shared.ChildID) ([]bonus.Payout, error) {
	rows, err := r.q.Query(ctx, `
		SELECT level, sats, paid_at FROM level_bonus_payouts
		WHERE child_id = $1 ORDER BY level`,
		child.Int64(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	defer rows.Close()

	var out []bonus.Payout
	for rows.Next() {
		p := bonus.Payout{ChildID: child}
		var sats int64
		if err := rows.Scan(&p.Level, &sats, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		p.Sats = shared.Sats(sats)
		out = append(out, p)
	}
	return out, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// GUARDIAN CLAIMS
// ══════════════════════════════════════════════════════════════════════════════

// GuardianClaimRepository implements bonus.GuardianClaimRepository for PostgreSQL.
type GuardianClaimRepository struct {
	q Querier
}

// NewGuardianClaimRepository creates a GuardianClaimRepository.
func NewGuardianClaimRepository(q Querier) *GuardianClaimRepository {
	return &GuardianClaimRepository{q: q}
}

// Insert records a claim, once per (child, tier).
func (r *GuardianClaimRepository) Insert(ctx context.Context, c bonus.GuardianClaim) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO guardian_bonus_claims (child_id, tier, sats, claimed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (child_id, tier) DO NOTHING`,
		c.ChildID.Int64(), c.Tier, c.Sats.Int64(), c.ClaimedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert guardian claim: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByChild returns claims ordered by tier.
func (r *GuardianClaimRepository) ListByChild(ctx context.Context, child shared.ChildID) ([]bonus.GuardianClaim, error) {
	rows, err := r.q.Query(ctx, `
		SELECT tier, sats, claimed_at FROM guardian_bonus_claims
		WHERE child_id = $1 ORDER BY tier`,
		child.Int64(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list guardian claims: %w", err)
	}
	defer rows.Close()

	var out []bonus.GuardianClaim
	for rows.Next() {
		c := bonus.GuardianClaim{ChildID: child}
		var sats int64
		if err := rows.Scan(&c.Tier, &sats, &c.ClaimedAt); err != nil {
			return nil, fmt.Errorf("failed to scan guardian claim: %w", err)
		}
		c.Sats = shared.Sats(sats)
		out = append(out, c)
	}
	return out, rows.Err()
}
