// Package family содержит ребёнка (peer) семьи, его счётчики прогресса и
// границу транзакции (UnitOfWork), объединяющую репозитории всех доменов.
package family

import (
	"context"
	"strings"
	"time"

	"github.com/sats-family/chore-hub/internal/domain/progression"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/internal/domain/unlock"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHILD
// ══════════════════════════════════════════════════════════════════════════════

// Child - ребёнок семьи. Баланс принадлежит платёжному сервису и здесь не хранится.
type Child struct {
	ID          shared.ChildID
	FamilyID    shared.FamilyID
	DisplayName string
	CreatedAt   time.Time
}

// NewChild создаёт ребёнка с проверкой полей.
func NewChild(id shared.ChildID, family shared.FamilyID, displayName string, now time.Time) (*Child, error) {
	name := strings.TrimSpace(displayName)
	switch {
	case !id.IsValid():
		return nil, shared.NewDomainError("family", "Register", shared.ErrValidation, "child id must be positive")
	case !family.IsValid():
		return nil, shared.NewDomainError("family", "Register", shared.ErrValidation, "family id is required")
	case name == "" || len(name) > 100:
		return nil, shared.NewDomainError("family", "Register", shared.ErrValidation, "display name must be 1-100 chars")
	}
	return &Child{ID: id, FamilyID: family, DisplayName: name, CreatedAt: now}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COUNTERS
// ══════════════════════════════════════════════════════════════════════════════

// Counters - монотонные счётчики ребёнка. Только растут.
type Counters struct {
	ChildID shared.ChildID

	// CompletedRequired - одобренные обязательные задания.
	CompletedRequired int

	// PaidConsumed - принятые оплачиваемые задания, прошедшие через Unlock Gate.
	PaidConsumed int

	// ApprovedCount - все одобренные задания ребёнка.
	ApprovedCount int

	// CachedChoreLevel - последний уровень, за который бонусы уже обработаны.
	CachedChoreLevel int

	UpdatedAt time.Time
}

// NewCounters создаёт нулевые счётчики.
func NewCounters(child shared.ChildID) *Counters {
	return &Counters{ChildID: child}
}

// Unlock возвращает состояние Unlock Gate.
func (c *Counters) Unlock() unlock.Status {
	return unlock.Evaluate(c.CompletedRequired, c.PaidConsumed)
}

// ChoreLevel возвращает текущий уровень по одобренным заданиям.
func (c *Counters) ChoreLevel() int {
	return progression.ChoreLevel(c.ApprovedCount)
}

// LevelLags возвращает true, если бонусы за новые уровни ещё не обработаны.
func (c *Counters) LevelLags() bool {
	return c.ChoreLevel() > c.CachedChoreLevel
}

// RecordApproval учитывает одобренное задание.
func (c *Counters) RecordApproval(isRequired bool, at time.Time) {
	c.ApprovedCount++
	if isRequired {
		c.CompletedRequired++
	}
	c.UpdatedAt = at
}

// ConsumePaidSlot расходует слот. Возвращает LockedError, если слотов нет.
func (c *Counters) ConsumePaidSlot(at time.Time) error {
	status := c.Unlock()
	if !status.CanAccept() {
		return &shared.LockedError{Completed: status.ProgressToNext, Required: status.Required}
	}
	c.PaidConsumed++
	c.UpdatedAt = at
	return nil
}

// AdvanceCachedLevel поднимает кешированный уровень; вниз не двигается.
func (c *Counters) AdvanceCachedLevel(level int, at time.Time) bool {
	if level <= c.CachedChoreLevel {
		return false
	}
	c.CachedChoreLevel = level
	c.UpdatedAt = at
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// ChildRepository хранит детей.
type ChildRepository interface {
	// Create регистрирует ребёнка. Возвращает ErrChildAlreadyExists при повторе.
	Create(ctx context.Context, child *Child) error

	// GetByID возвращает ребёнка или ErrChildNotFound.
	GetByID(ctx context.Context, id shared.ChildID) (*Child, error)

	// ListByFamily возвращает детей семьи по возрастанию ID.
	ListByFamily(ctx context.Context, family shared.FamilyID) ([]*Child, error)

	// ListFamilies возвращает все семьи, в которых есть дети.
	ListFamilies(ctx context.Context) ([]shared.FamilyID, error)
}

// CounterRepository хранит счётчики.
type CounterRepository interface {
	// Get возвращает счётчики; для ребёнка без записи - нулевые.
	Get(ctx context.Context, child shared.ChildID) (*Counters, error)

	// GetForUpdate то же, но блокирует строку до конца транзакции.
	// Все изменения счётчиков и журнала выплат ребёнка идут под этой блокировкой.
	GetForUpdate(ctx context.Context, child shared.ChildID) (*Counters, error)

	// Save создаёт или обновляет запись.
	Save(ctx context.Context, c *Counters) error

	// ListLagging возвращает счётчики, у которых CachedChoreLevel отстаёт от уровня,
	// с ChildID > after по возрастанию ChildID.
	ListLagging(ctx context.Context, after shared.ChildID, limit int) ([]*Counters, error)
}
