package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sats-family/chore-hub/internal/domain/bonus"
	"github.com/sats-family/chore-hub/internal/domain/challenge"
	"github.com/sats-family/chore-hub/internal/domain/chore"
	"github.com/sats-family/chore-hub/internal/domain/earnings"
	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/progression"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// ══════════════════════════════════════════════════════════════════════════════

// UnitOfWorkFactory opens pgx transactions and hands out repositories bound to them.
type UnitOfWorkFactory struct {
	conn *Connection
	opts TxOptions
}

var _ family.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)

// NewUnitOfWorkFactory creates a factory using DefaultTxOptions.
func NewUnitOfWorkFactory(conn *Connection) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{conn: conn, opts: DefaultTxOptions()}
}

// Begin starts a transaction.
func (f *UnitOfWorkFactory) Begin(ctx context.Context) (family.UnitOfWork, error) {
	tx, err := f.conn.BeginTx(ctx, f.opts)
	if err != nil {
		return nil, err
	}
	return &unitOfWork{tx: tx}, nil
}

type unitOfWork struct {
	tx pgx.Tx
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if err := u.tx.Commit(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxClosed) {
			return nil
		}
		return fmt.Errorf("%w: commit: %v", ErrTransactionFailed, err)
	}
	return nil
}

// Rollback is a no-op once the transaction was committed.
func (u *unitOfWork) Rollback(ctx context.Context) error {
	if err := u.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("%w: rollback: %v", ErrTransactionFailed, err)
	}
	return nil
}

func (u *unitOfWork) Tasks() chore.Repository {
	return NewTaskRepository(u.tx)
}

func (u *unitOfWork) Children() family.ChildRepository {
	return NewChildRepository(u.tx)
}

func (u *unitOfWork) Counters() family.CounterRepository {
	return NewCounterRepository(u.tx)
}

func (u *unitOfWork) BonusSettings() bonus.SettingsRepository {
	return NewBonusSettingsRepository(u.tx)
}

func (u *unitOfWork) Payouts() bonus.PayoutRepository {
	return NewPayoutRepository(u.tx)
}

func (u *unitOfWork) GuardianClaims() bonus.GuardianClaimRepository {
	return NewGuardianClaimRepository(u.tx)
}

func (u *unitOfWork) Challenges() challenge.CompletionRepository {
	return NewChallengeCompletionRepository(u.tx)
}

func (u *unitOfWork) Learning() progression.Repository {
	return NewLearningRepository(u.tx)
}

func (u *unitOfWork) Earnings() earnings.Repository {
	return NewEarningsRepository(u.tx)
}
