package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRefresher recomputes and caches one family's standings.
type LeaderboardRefresher interface {
	Refresh(ctx context.Context, fam shared.FamilyID) ([]family.Standing, error)
}

// RebuildLeaderboardJob keeps every family's leaderboard warm in the cache so
// polling clients rarely hit the database.
type RebuildLeaderboardJob struct {
	uow       family.UnitOfWorkFactory
	refresher LeaderboardRefresher
	logger    *slog.Logger
	timeout   time.Duration

	lastFamilies atomic.Int64
}

// NewRebuildLeaderboardJob creates the job. timeout <= 0 means no limit.
func NewRebuildLeaderboardJob(
	uow family.UnitOfWorkFactory,
	refresher LeaderboardRefresher,
	logger *slog.Logger,
	timeout time.Duration,
) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RebuildLeaderboardJob{
		uow:       uow,
		refresher: refresher,
		logger:    logger.With("job", "rebuild_leaderboard"),
		timeout:   timeout,
	}
}

// Name returns the unique name of the job.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description of the job.
func (j *RebuildLeaderboardJob) Description() string {
	return "Recomputes family leaderboards into the cache"
}

// Run executes the job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	families, err := j.listFamilies(ctx)
	if err != nil {
		return fmt.Errorf("rebuild_leaderboard: list families: %w", err)
	}

	var failed int
	for _, fam := range families {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := j.refresher.Refresh(ctx, fam); err != nil {
			failed++
			j.logger.Warn("family leaderboard refresh failed", "family_id", fam.String(), "error", err)
		}
	}
	j.lastFamilies.Store(int64(len(families)))

	if failed > 0 {
		return fmt.Errorf("rebuild_leaderboard: %d of %d families failed", failed, len(families))
	}
	return nil
}

func (j *RebuildLeaderboardJob) listFamilies(ctx context.Context) ([]shared.FamilyID, error) {
	tx, err := j.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	return tx.Children().ListFamilies(ctx)
}

// LastFamilyCount returns how many families the last run covered.
func (j *RebuildLeaderboardJob) LastFamilyCount() int {
	return int(j.lastFamilies.Load())
}
