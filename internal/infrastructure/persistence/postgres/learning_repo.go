package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sats-family/chore-hub/internal/domain/challenge"
	"github.com/sats-family/chore-hub/internal/domain/progression"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DAILY CHALLENGE COMPLETIONS
// ══════════════════════════════════════════════════════════════════════════════

// ChallengeCompletionRepository implements challenge.CompletionRepository.
type ChallengeCompletionRepository struct {
	q Querier
}

// NewChallengeCompletionRepository creates a ChallengeCompletionRepository.
func NewChallengeCompletionRepository(q Querier) *ChallengeCompletionRepository {
	return &ChallengeCompletionRepository{q: q}
}

// Get returns the completion for a day.
func (r *ChallengeCompletionRepository) Get(ctx context.Context, child shared.ChildID, day timeutil.Date) (*challenge.Completion, error) {
	c := challenge.Completion{ChildID: child, Date: day}
	err := r.q.QueryRow(ctx, `
		SELECT challenge_id, xp, completed_at FROM daily_challenge_completions
		WHERE child_id = $1 AND completed_on = $2`,
		child.Int64(), toPgDate(day),
	).Scan(&c.ChallengeID, &c.XP, &c.CompletedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("challenge", "Get", shared.ErrNotFound, "no completion for this day")
		}
		return nil, fmt.Errorf("failed to get challenge completion: %w", err)
	}
	return &c, nil
}

// Insert records a completion; the (child_id, completed_on) key allows one per day.
func (r *ChallengeCompletionRepository) Insert(ctx context.Context, c challenge.Completion) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO daily_challenge_completions (child_id, completed_on, challenge_id, xp, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (child_id, completed_on) DO NOTHING`,
		c.ChildID.Int64(), toPgDate(c.Date), c.ChallengeID, c.XP, c.CompletedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert challenge completion: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LEARNING PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// LearningRepository implements progression.Repository for PostgreSQL.
type LearningRepository struct {
	q Querier
}

// NewLearningRepository creates a LearningRepository.
func NewLearningRepository(q Querier) *LearningRepository {
	return &LearningRepository{q: q}
}

const learningColumns = `xp, level, streak, longest_streak, last_active_on, completed_modules,
	guardian_level, graduated_at, graduation_bonus_claimed, updated_at`

// Get returns the progress or a fresh one.
func (r *LearningRepository) Get(ctx context.Context, child shared.ChildID) (*progression.LearningProgress, error) {
	return r.get(ctx, child, `SELECT `+learningColumns+` FROM learning_progress WHERE child_id = $1`)
}

// GetForUpdate locks the row. A missing row is created first so that two
// concurrent writers serialize on it.
func (r *LearningRepository) GetForUpdate(ctx context.Context, child shared.ChildID) (*progression.LearningProgress, error) {
	if _, err := r.q.Exec(ctx, `
		INSERT INTO learning_progress (child_id) VALUES ($1) ON CONFLICT (child_id) DO NOTHING`,
		child.Int64(),
	); err != nil {
		if IsForeignKeyViolation(err) {
			return nil, shared.ErrChildNotFound
		}
		return nil, fmt.Errorf("failed to init learning progress: %w", err)
	}
	return r.get(ctx, child, `SELECT `+learningColumns+` FROM learning_progress WHERE child_id = $1 FOR UPDATE`)
}

func (r *LearningRepository) get(ctx context.Context, child shared.ChildID, query string) (*progression.LearningProgress, error) {
	p := progression.LearningProgress{ChildID: child}
	var lastActive pgtype.Date
	err := r.q.QueryRow(ctx, query, child.Int64()).Scan(
		&p.XP, &p.Level, &p.Streak, &p.LongestStreak, &lastActive, &p.CompletedModules,
		&p.GuardianLevel, &p.GraduatedAt, &p.GraduationBonusClaimed, &p.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return progression.NewLearningProgress(child), nil
		}
		return nil, fmt.Errorf("failed to get learning progress: %w", err)
	}
	if lastActive.Valid {
		p.LastActiveDate = timeutil.DateOf(lastActive.Time)
	}
	return &p, nil
}

// Save upserts the progress.
func (r *LearningRepository) Save(ctx context.Context, p *progression.LearningProgress) error {
	modules := p.CompletedModules
	if modules == nil {
		modules = []string{}
	}
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := r.q.Exec(ctx, `
		INSERT INTO learning_progress (child_id, `+learningColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (child_id) DO UPDATE SET
			xp = EXCLUDED.xp,
			level = EXCLUDED.level,
			streak = EXCLUDED.streak,
			longest_streak = EXCLUDED.longest_streak,
			last_active_on = EXCLUDED.last_active_on,
			completed_modules = EXCLUDED.completed_modules,
			guardian_level = GREATEST(learning_progress.guardian_level, EXCLUDED.guardian_level),
			graduated_at = COALESCE(learning_progress.graduated_at, EXCLUDED.graduated_at),
			graduation_bonus_claimed = learning_progress.graduation_bonus_claimed OR EXCLUDED.graduation_bonus_claimed,
			updated_at = EXCLUDED.updated_at`,
		p.ChildID.Int64(), p.XP, p.Level, p.Streak, p.LongestStreak, toPgDate(p.LastActiveDate), modules,
		p.GuardianLevel, p.GraduatedAt, p.GraduationBonusClaimed, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save learning progress: %w", err)
	}
	return nil
}

func toPgDate(d timeutil.Date) pgtype.Date {
	if d.IsZero() {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time(), Valid: true}
}
