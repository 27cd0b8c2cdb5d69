package family

import (
	"context"

	"github.com/sats-family/chore-hub/internal/domain/bonus"
	"github.com/sats-family/chore-hub/internal/domain/challenge"
	"github.com/sats-family/chore-hub/internal/domain/chore"
	"github.com/sats-family/chore-hub/internal/domain/earnings"
	"github.com/sats-family/chore-hub/internal/domain/progression"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK (для транзакций)
// ══════════════════════════════════════════════════════════════════════════════

// Repositories - все репозитории, доступные в рамках одной транзакции.
type Repositories interface {
	Tasks() chore.Repository
	Children() ChildRepository
	Counters() CounterRepository
	BonusSettings() bonus.SettingsRepository
	Payouts() bonus.PayoutRepository
	GuardianClaims() bonus.GuardianClaimRepository
	Challenges() challenge.CompletionRepository
	Learning() progression.Repository
	Earnings() earnings.Repository
}

// UnitOfWork представляет единицу работы с транзакционной семантикой.
// Rollback после Commit - безопасный no-op, поэтому его можно откладывать через defer.
type UnitOfWork interface {
	Repositories

	// Commit фиксирует транзакцию.
	Commit(ctx context.Context) error

	// Rollback откатывает транзакцию.
	Rollback(ctx context.Context) error
}

// UnitOfWorkFactory создаёт единицы работы.
type UnitOfWorkFactory interface {
	// Begin начинает новую транзакцию.
	Begin(ctx context.Context) (UnitOfWork, error)
}
