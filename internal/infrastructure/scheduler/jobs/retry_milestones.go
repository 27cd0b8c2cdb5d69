// Package jobs contains implementations of scheduled jobs for Family Chore Hub.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sats-family/chore-hub/internal/application/command"
	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RETRY PENDING MILESTONES JOB
// ══════════════════════════════════════════════════════════════════════════════

// MilestoneIssuer issues level bonuses for one child.
type MilestoneIssuer interface {
	Handle(ctx context.Context, cmd command.IssueMilestonesCommand) (*command.IssueMilestonesResult, error)
}

// RetryMilestonesJob re-runs the milestone issuer for children whose cached
// chore level lags their computed level. That happens when the wallet failed
// right after an approval: the approval stayed committed, the bonus did not.
type RetryMilestonesJob struct {
	uow    family.UnitOfWorkFactory
	issuer MilestoneIssuer
	logger *slog.Logger
	config RetryMilestonesConfig

	lastStats atomic.Pointer[RetryMilestonesStats]

	// cursor - последний обработанный ChildID. Следующий запуск продолжает
	// после него, поэтому дети, которым постоянно не удаётся выплата, не
	// закрывают очередь остальным.
	cursor atomic.Int64
}

// RetryMilestonesConfig contains configuration for the job.
type RetryMilestonesConfig struct {
	// BatchSize caps how many children are processed per run.
	BatchSize int

	// Timeout is the maximum duration for one run.
	Timeout time.Duration
}

// DefaultRetryMilestonesConfig returns sensible defaults.
func DefaultRetryMilestonesConfig() RetryMilestonesConfig {
	return RetryMilestonesConfig{
		BatchSize: 100,
		Timeout:   2 * time.Minute,
	}
}

// RetryMilestonesStats contains statistics from one run.
type RetryMilestonesStats struct {
	RunID         string
	StartedAt     time.Time
	Duration      time.Duration
	Candidates    int
	Processed     int
	BonusesPaid   int
	SettleFailed  int
	OtherFailures int
}

// NewRetryMilestonesJob creates the job.
func NewRetryMilestonesJob(
	uow family.UnitOfWorkFactory,
	issuer MilestoneIssuer,
	logger *slog.Logger,
	config RetryMilestonesConfig,
) *RetryMilestonesJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultRetryMilestonesConfig().BatchSize
	}
	return &RetryMilestonesJob{
		uow:    uow,
		issuer: issuer,
		logger: logger.With("job", "retry_pending_milestones"),
		config: config,
	}
}

// Name returns the unique name of the job.
func (j *RetryMilestonesJob) Name() string {
	return "retry_pending_milestones"
}

// Description returns a human-readable description of the job.
func (j *RetryMilestonesJob) Description() string {
	return "Pays level bonuses left pending by failed settlements"
}

// Run executes the job. Each child is processed in its own transaction;
// one failing child does not stop the batch.
func (j *RetryMilestonesJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	stats := &RetryMilestonesStats{RunID: uuid.NewString(), StartedAt: time.Now()}
	defer func() {
		stats.Duration = time.Since(stats.StartedAt)
		j.lastStats.Store(stats)
	}()

	lagging, err := j.loadLagging(ctx)
	if err != nil {
		return fmt.Errorf("retry_milestones: list lagging: %w", err)
	}
	stats.Candidates = len(lagging)

	for _, c := range lagging {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res, err := j.issuer.Handle(ctx, command.IssueMilestonesCommand{ChildID: c.ChildID})
		stats.Processed++
		switch {
		case err == nil:
			stats.BonusesPaid += len(res.Paid)
		case shared.IsSettlementFailure(err):
			stats.SettleFailed++
			j.logger.Warn("milestone retry settlement failed", "child_id", c.ChildID.Int64(), "error", err)
		default:
			stats.OtherFailures++
			j.logger.Error("milestone retry failed", "child_id", c.ChildID.Int64(), "error", err)
		}
	}

	j.logger.Info("milestone retry finished",
		"run_id", stats.RunID,
		"candidates", stats.Candidates,
		"bonuses_paid", stats.BonusesPaid,
		"settle_failed", stats.SettleFailed,
	)
	if stats.OtherFailures > 0 {
		return errors.New("retry_milestones: some children failed")
	}
	return nil
}

// loadLagging reads the next page after the cursor. A short page wraps the
// cursor so the following run starts from the lowest ids again.
func (j *RetryMilestonesJob) loadLagging(ctx context.Context) ([]*family.Counters, error) {
	after := shared.ChildID(j.cursor.Load())
	page, err := j.listLagging(ctx, after)
	if err != nil {
		return nil, err
	}
	if len(page) == 0 && after > 0 {
		if page, err = j.listLagging(ctx, 0); err != nil {
			return nil, err
		}
	}

	if len(page) < j.config.BatchSize {
		j.cursor.Store(0)
	} else {
		j.cursor.Store(page[len(page)-1].ChildID.Int64())
	}
	return page, nil
}

func (j *RetryMilestonesJob) listLagging(ctx context.Context, after shared.ChildID) ([]*family.Counters, error) {
	tx, err := j.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	return tx.Counters().ListLagging(ctx, after, j.config.BatchSize)
}

// LastStats returns statistics of the last run, or nil.
func (j *RetryMilestonesJob) LastStats() *RetryMilestonesStats {
	return j.lastStats.Load()
}
