package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Migration represents a database migration.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// Migrator applies embedded migrations and records them in schema_migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
	tableName  string
}

// NewMigrator creates a migrator with the embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:       conn,
		migrations: GetMigrations(),
		tableName:  "schema_migrations",
	}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.conn.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, m.tableName))
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[int]time.Time, error) {
	rows, err := m.conn.Query(ctx, fmt.Sprintf("SELECT version, applied_at FROM %s", m.tableName))
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var at time.Time
		if err := rows.Scan(&version, &at); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[version] = at
	}
	return applied, rows.Err()
}

// Migrate applies all pending migrations in version order, one transaction each.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}

	pending := make([]Migration, 0, len(m.migrations))
	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; !ok {
			pending = append(pending, mig)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Version < pending[j].Version })

	for _, mig := range pending {
		err := m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx,
				fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", m.tableName),
				mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d (%s): %v", ErrMigrationFailed, mig.Version, mig.Name, err)
		}
	}
	return nil
}

// Rollback reverts the most recently applied migration.
func (m *Migrator) Rollback(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}

	last := 0
	for v := range applied {
		if v > last {
			last = v
		}
	}
	if last == 0 {
		return nil
	}

	var target *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == last {
			target = &m.migrations[i]
		}
	}
	if target == nil || target.DownSQL == "" {
		return fmt.Errorf("%w: missing down SQL for migration %d", ErrMigrationFailed, last)
	}

	return m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, target.DownSQL); err != nil {
			return fmt.Errorf("failed to rollback migration %d: %w", last, err)
		}
		_, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE version = $1", m.tableName), last)
		return err
	})
}

// Status reports which migrations are applied.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Migration, len(m.migrations))
	copy(out, m.migrations)
	for i := range out {
		if at, ok := applied[out[i].Version]; ok {
			out[i].IsApplied = true
			out[i].AppliedAt = at
		}
	}
	return out, nil
}

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_family_and_tasks", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_bonus_ledgers", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_learning", UpSQL: migration003Up, DownSQL: migration003Down},
		{Version: 4, Name: "create_earnings", UpSQL: migration004Up, DownSQL: migration004Down},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: FAMILY & TASKS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS children (
    id BIGINT PRIMARY KEY,
    family_id TEXT NOT NULL,
    display_name VARCHAR(100) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT valid_child_id CHECK (id > 0)
);

CREATE INDEX IF NOT EXISTS idx_children_family ON children(family_id);

-- Monotonic per-child counters. The row is also the per-child lock
-- (SELECT ... FOR UPDATE) for counter and ledger changes.
CREATE TABLE IF NOT EXISTS child_counters (
    child_id BIGINT PRIMARY KEY REFERENCES children(id) ON DELETE CASCADE,
    completed_required INTEGER NOT NULL DEFAULT 0,
    paid_consumed INTEGER NOT NULL DEFAULT 0,
    approved_count INTEGER NOT NULL DEFAULT 0,
    cached_chore_level INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT counters_non_negative CHECK (
        completed_required >= 0 AND paid_consumed >= 0 AND approved_count >= 0 AND cached_chore_level >= 0
    )
);

CREATE TABLE IF NOT EXISTS tasks (
    id UUID PRIMARY KEY,
    family_id TEXT NOT NULL,
    title VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    sats BIGINT NOT NULL DEFAULT 0,
    is_required BOOLEAN NOT NULL DEFAULT FALSE,
    bypass_ratio BOOLEAN NOT NULL DEFAULT FALSE,
    status VARCHAR(20) NOT NULL DEFAULT 'open',
    assigned_to BIGINT REFERENCES children(id),
    proof_ref TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    approved_at TIMESTAMPTZ,

    CONSTRAINT valid_task_status CHECK (status IN ('open', 'assigned', 'submitted', 'approved')),
    CONSTRAINT non_negative_sats CHECK (sats >= 0),
    CONSTRAINT required_is_unpaid CHECK (NOT is_required OR sats = 0),
    CONSTRAINT assigned_has_child CHECK (status = 'open' OR assigned_to IS NOT NULL)
);

CREATE INDEX IF NOT EXISTS idx_tasks_family_status ON tasks(family_id, status);
CREATE INDEX IF NOT EXISTS idx_tasks_assigned_to ON tasks(assigned_to) WHERE assigned_to IS NOT NULL;
`

const migration001Down = `
DROP TABLE IF EXISTS tasks;
DROP TABLE IF EXISTS child_counters;
DROP TABLE IF EXISTS children;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: BONUS LEDGERS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS level_bonus_settings (
    family_id TEXT PRIMARY KEY,
    bonus_sats BIGINT NOT NULL DEFAULT 0,
    milestone_interval INTEGER NOT NULL DEFAULT 5,
    is_active BOOLEAN NOT NULL DEFAULT FALSE,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT valid_bonus_sats CHECK (bonus_sats >= 0),
    CONSTRAINT valid_interval CHECK (milestone_interval >= 1)
);

CREATE TABLE IF NOT EXISTS level_bonus_payouts (
    child_id BIGINT NOT NULL REFERENCES children(id) ON DELETE CASCADE,
    level INTEGER NOT NULL,
    sats BIGINT NOT NULL,
    paid_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (child_id, level)
);

CREATE TABLE IF NOT EXISTS guardian_bonus_claims (
    child_id BIGINT NOT NULL REFERENCES children(id) ON DELETE CASCADE,
    tier INTEGER NOT NULL,
    sats BIGINT NOT NULL,
    claimed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (child_id, tier),
    CONSTRAINT valid_tier CHECK (tier IN (2, 3))
);
`

const migration002Down = `
DROP TABLE IF EXISTS guardian_bonus_claims;
DROP TABLE IF EXISTS level_bonus_payouts;
DROP TABLE IF EXISTS level_bonus_settings;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: LEARNING
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS daily_challenge_completions (
    child_id BIGINT NOT NULL REFERENCES children(id) ON DELETE CASCADE,
    completed_on DATE NOT NULL,
    challenge_id TEXT NOT NULL,
    xp INTEGER NOT NULL,
    completed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (child_id, completed_on)
);

CREATE TABLE IF NOT EXISTS learning_progress (
    child_id BIGINT PRIMARY KEY REFERENCES children(id) ON DELETE CASCADE,
    xp INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    streak INTEGER NOT NULL DEFAULT 0,
    longest_streak INTEGER NOT NULL DEFAULT 0,
    last_active_on DATE,
    completed_modules TEXT[] NOT NULL DEFAULT '{}',
    guardian_level INTEGER NOT NULL DEFAULT 1,
    graduated_at TIMESTAMPTZ,
    graduation_bonus_claimed BOOLEAN NOT NULL DEFAULT FALSE,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT valid_learning_xp CHECK (xp >= 0),
    CONSTRAINT valid_guardian CHECK (guardian_level BETWEEN 1 AND 3)
);
`

const migration003Down = `
DROP TABLE IF EXISTS learning_progress;
DROP TABLE IF EXISTS daily_challenge_completions;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: EARNINGS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
CREATE TABLE IF NOT EXISTS earning_entries (
    id BIGSERIAL PRIMARY KEY,
    child_id BIGINT NOT NULL REFERENCES children(id) ON DELETE CASCADE,
    sats BIGINT NOT NULL,
    reason VARCHAR(32) NOT NULL,
    reference TEXT NOT NULL UNIQUE,
    cumulative_sats BIGINT NOT NULL,
    btc_price_eur DOUBLE PRECISION,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_earning_entries_child ON earning_entries(child_id, id DESC);
`

const migration004Down = `
DROP TABLE IF EXISTS earning_entries;
`
