package postgres

import (
	"context"
	"fmt"

	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/progression"
	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHILD REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ChildRepository implements family.ChildRepository for PostgreSQL.
type ChildRepository struct {
	q Querier
}

// NewChildRepository creates a ChildRepository.
func NewChildRepository(q Querier) *ChildRepository {
	return &ChildRepository{q: q}
}

// Create registers a child.
func (r *ChildRepository) Create(ctx context.Context, c *family.Child) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO children (id, family_id, display_name, created_at)
		VALUES ($1, $2, $3, $4)`,
		c.ID.Int64(), c.FamilyID.String(), c.DisplayName, c.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrChildAlreadyExists
		}
		return fmt.Errorf("failed to create child: %w", err)
	}
	return nil
}

// GetByID returns a child.
func (r *ChildRepository) GetByID(ctx context.Context, id shared.ChildID) (*family.Child, error) {
	var (
		c        family.Child
		childID  int64
		familyID string
	)
	err := r.q.QueryRow(ctx, `
		SELECT id, family_id, display_name, created_at FROM children WHERE id = $1`,
		id.Int64(),
	).Scan(&childID, &familyID, &c.DisplayName, &c.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrChildNotFound
		}
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	c.ID = shared.ChildID(childID)
	c.FamilyID = shared.FamilyID(familyID)
	return &c, nil
}

// ListByFamily returns the children of a family ordered by id.
func (r *ChildRepository) ListByFamily(ctx context.Context, fam shared.FamilyID) ([]*family.Child, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, display_name, created_at FROM children WHERE family_id = $1 ORDER BY id`,
		fam.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	defer rows.Close()

	var out []*family.Child
	for rows.Next() {
		c := family.Child{FamilyID: fam}
		var id int64
		if err := rows.Scan(&id, &c.DisplayName, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		c.ID = shared.ChildID(id)
		out = append(out, &c)
	}
	return out, rows.Err()
}

// ListFamilies returns every family that has at least one child.
func (r *ChildRepository) ListFamilies(ctx context.Context) ([]shared.FamilyID, error) {
	rows, err := r.q.Query(ctx, `SELECT DISTINCT family_id FROM children ORDER BY family_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list families: %w", err)
	}
	defer rows.Close()

	var out []shared.FamilyID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan family: %w", err)
		}
		out = append(out, shared.FamilyID(id))
	}
	return out, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// COUNTER REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// CounterRepository implements family.CounterRepository for PostgreSQL.
type CounterRepository struct {
	q Querier
}

// NewCounterRepository creates a CounterRepository.
func NewCounterRepository(q Querier) *CounterRepository {
	return &CounterRepository{q: q}
}

const counterColumns = `child_id, completed_required, paid_consumed, approved_count, cached_chore_level, updated_at`

// Get returns the counters, zero values when the row does not exist yet.
func (r *CounterRepository) Get(ctx context.Context, child shared.ChildID) (*family.Counters, error) {
	c, err := r.scan(ctx, `SELECT `+counterColumns+` FROM child_counters WHERE child_id = $1`, child)
	if err != nil {
		if IsNoRows(err) {
			return family.NewCounters(child), nil
		}
		return nil, fmt.Errorf("failed to get counters: %w", err)
	}
	return c, nil
}

// GetForUpdate creates the row if needed and locks it for the transaction.
func (r *CounterRepository) GetForUpdate(ctx context.Context, child shared.ChildID) (*family.Counters, error) {
	if _, err := r.q.Exec(ctx, `
		INSERT INTO child_counters (child_id) VALUES ($1) ON CONFLICT (child_id) DO NOTHING`,
		child.Int64(),
	); err != nil {
		if IsForeignKeyViolation(err) {
			return nil, shared.ErrChildNotFound
		}
		return nil, fmt.Errorf("failed to init counters: %w", err)
	}

	c, err := r.scan(ctx, `SELECT `+counterColumns+` FROM child_counters WHERE child_id = $1 FOR UPDATE`, child)
	if err != nil {
		return nil, fmt.Errorf("failed to lock counters: %w", err)
	}
	return c, nil
}

// Save upserts the counters. Values never decrease: GREATEST guards against a
// stale writer.
func (r *CounterRepository) Save(ctx context.Context, c *family.Counters) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO child_counters (`+counterColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (child_id) DO UPDATE SET
			completed_required = GREATEST(child_counters.completed_required, EXCLUDED.completed_required),
			paid_consumed      = GREATEST(child_counters.paid_consumed, EXCLUDED.paid_consumed),
			approved_count     = GREATEST(child_counters.approved_count, EXCLUDED.approved_count),
			cached_chore_level = GREATEST(child_counters.cached_chore_level, EXCLUDED.cached_chore_level),
			updated_at         = EXCLUDED.updated_at`,
		c.ChildID.Int64(), c.CompletedRequired, c.PaidConsumed, c.ApprovedCount, c.CachedChoreLevel, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save counters: %w", err)
	}
	return nil
}

// ListLagging returns children whose cached level is behind their chore level.
func (r *CounterRepository) ListLagging(ctx context.Context, after shared.ChildID, limit int) ([]*family.Counters, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+counterColumns+`
		FROM child_counters
		WHERE LEAST(approved_count / $1, $2) > cached_chore_level
		  AND child_id > $3
		ORDER BY child_id
		LIMIT $4`,
		progression.ChoresPerLevel, progression.MaxChoreLevel, after.Int64(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list lagging counters: %w", err)
	}
	defer rows.Close()

	var out []*family.Counters
	for rows.Next() {
		c, err := scanCounters(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan counters: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CounterRepository) scan(ctx context.Context, query string, child shared.ChildID) (*family.Counters, error) {
	return scanCounters(r.q.QueryRow(ctx, query, child.Int64()))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCounters(row scanner) (*family.Counters, error) {
	var (
		c  family.Counters
		id int64
	)
	if err := row.Scan(&id, &c.CompletedRequired, &c.PaidConsumed, &c.ApprovedCount, &c.CachedChoreLevel, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ChildID = shared.ChildID(id)
	return &c, nil
}
