// Package settlement описывает узкий контракт внешнего платёжного сервиса.
// Это единственный путь, по которому двигаются сатоши: движок никогда не
// изменяет баланс ребёнка напрямую.
package settlement

import (
	"context"
	"strings"
	"time"

	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// Reason - назначение выплаты.
type Reason string

const (
	ReasonChore      Reason = "chore"
	ReasonMilestone  Reason = "milestone_bonus"
	ReasonGraduation Reason = "graduation_bonus"
)

// Request - запрос на выплату.
type Request struct {
	ChildID shared.ChildID
	Sats    shared.Sats
	Reason  Reason

	// IdempotencyKey одинаков для всех повторов одной выплаты
	// (task:<id>, milestone:<child>:<level>, guardian:<child>:<tier>).
	IdempotencyKey string

	Memo string
}

// Validate проверяет запрос перед отправкой.
func (r Request) Validate() error {
	switch {
	case !r.ChildID.IsValid():
		return shared.NewDomainError("settlement", "Validate", shared.ErrValidation, "child id is required")
	case r.Sats <= 0:
		return shared.NewDomainError("settlement", "Validate", shared.ErrValidation, "sats must be positive")
	case strings.TrimSpace(r.IdempotencyKey) == "":
		return shared.NewDomainError("settlement", "Validate", shared.ErrValidation, "idempotency key is required")
	}
	return nil
}

// Receipt - подтверждение выплаты.
type Receipt struct {
	// Reference - идентификатор платежа у внешнего сервиса.
	Reference string
	SettledAt time.Time
}

// Settler выполняет выплату. Ошибка означает, что деньги не ушли
// (или ушли, но повтор с тем же ключом безопасен).
type Settler interface {
	Settle(ctx context.Context, req Request) (*Receipt, error)
}

// Failed оборачивает ошибку сервиса в доменную SettlementFailure.
func Failed(op string, err error) error {
	return shared.WrapError("settlement", op, shared.ErrSettlementFailed, "settlement failed, state preserved, retry is safe", err)
}
