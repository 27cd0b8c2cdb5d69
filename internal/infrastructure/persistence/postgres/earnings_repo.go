package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sats-family/chore-hub/internal/domain/earnings"
	"github.com/sats-family/chore-hub/internal/domain/settlement"
	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EARNINGS LEDGER
// ══════════════════════════════════════════════════════════════════════════════

// EarningsRepository implements earnings.Repository for PostgreSQL.
// Callers hold the child's counters lock, so the cumulative sum computed in
// Append cannot race with another append for the same child.
type EarningsRepository struct {
	q Querier
}

// NewEarningsRepository creates an EarningsRepository.
func NewEarningsRepository(q Querier) *EarningsRepository {
	return &EarningsRepository{q: q}
}

// Append inserts the entry and fills ID and CumulativeSats.
func (r *EarningsRepository) Append(ctx context.Context, e *earnings.Entry) (bool, error) {
	var (
		id         int64
		cumulative int64
	)
	err := r.q.QueryRow(ctx, `
		INSERT INTO earning_entries (child_id, sats, reason, reference, cumulative_sats, btc_price_eur, created_at)
		SELECT $1, $2, $3, $4, COALESCE(SUM(sats), 0) + $2, $5, $6
		FROM earning_entries WHERE child_id = $1
		ON CONFLICT (reference) DO NOTHING
		RETURNING id, cumulative_sats`,
		e.ChildID.Int64(), e.Sats.Int64(), string(e.Reason), e.Reference, e.BTCPriceEUR, e.CreatedAt,
	).Scan(&id, &cumulative)
	if err != nil {
		if IsNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to append earning: %w", err)
	}
	e.ID = id
	e.CumulativeSats = shared.Sats(cumulative)
	return true, nil
}

// ListByChild returns entries newest first.
func (r *EarningsRepository) ListByChild(ctx context.Context, child shared.ChildID, limit int) ([]earnings.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, sats, reason, reference, cumulative_sats, btc_price_eur, created_at
		FROM earning_entries
		WHERE child_id = $1
		ORDER BY id DESC
		LIMIT $2`,
		child.Int64(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list earnings: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (earnings.Entry, error) {
		e := earnings.Entry{ChildID: child}
		var (
			sats, cumulative int64
			reason           string
		)
		if err := row.Scan(&e.ID, &sats, &reason, &e.Reference, &cumulative, &e.BTCPriceEUR, &e.CreatedAt); err != nil {
			return e, err
		}
		e.Sats = shared.Sats(sats)
		e.CumulativeSats = shared.Sats(cumulative)
		e.Reason = settlement.Reason(reason)
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan earnings: %w", err)
	}
	return entries, nil
}

// Total returns the child's lifetime earnings.
func (r *EarningsRepository) Total(ctx context.Context, child shared.ChildID) (shared.Sats, error) {
	var total int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(sats), 0) FROM earning_entries WHERE child_id = $1`,
		child.Int64(),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum earnings: %w", err)
	}
	return shared.Sats(total), nil
}
