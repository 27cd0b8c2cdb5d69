package query

import (
	"context"

	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/progression"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/internal/domain/unlock"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET UNLOCK STATUS / GET LEVEL QUERIES
// Чистые выборки по счётчикам ребёнка.
// ══════════════════════════════════════════════════════════════════════════════

// ChildQuery - запрос по одному ребёнку.
type ChildQuery struct {
	ChildID shared.ChildID
}

// Validate проверяет параметры.
func (q ChildQuery) Validate(op string) error {
	if !q.ChildID.IsValid() {
		return invalid(op, "child id must be positive")
	}
	return nil
}

// GetUnlockStatusHandler возвращает состояние Unlock Gate.
type GetUnlockStatusHandler struct {
	uow family.UnitOfWorkFactory
}

// NewGetUnlockStatusHandler создаёт обработчик.
func NewGetUnlockStatusHandler(uow family.UnitOfWorkFactory) *GetUnlockStatusHandler {
	return &GetUnlockStatusHandler{uow: uow}
}

// Handle выполняет запрос.
func (h *GetUnlockStatusHandler) Handle(ctx context.Context, q ChildQuery) (*unlock.Status, error) {
	if err := q.Validate("GetUnlockStatus"); err != nil {
		return nil, err
	}
	return read(ctx, h.uow, "get_unlock_status", func(repos family.Repositories) (*unlock.Status, error) {
		if _, err := repos.Children().GetByID(ctx, q.ChildID); err != nil {
			return nil, err
		}
		counters, err := repos.Counters().Get(ctx, q.ChildID)
		if err != nil {
			return nil, err
		}
		status := counters.Unlock()
		return &status, nil
	})
}

// LevelDTO - оба трека прогресса ребёнка.
type LevelDTO struct {
	ChildID           int64 `json:"childId"`
	ChoreLevel        int   `json:"choreLevel"`
	ApprovedCount     int   `json:"approvedCount"`
	ChoresToNextLevel int   `json:"choresToNextLevel"`
	MaxChoreLevel     int   `json:"maxChoreLevel"`
	LearningLevel     int   `json:"learningLevel"`
	XP                int   `json:"xp"`
	XPToNextLevel     int   `json:"xpToNextLevel"`
}

// GetLevelHandler возвращает уровни ребёнка.
type GetLevelHandler struct {
	uow family.UnitOfWorkFactory
}

// NewGetLevelHandler создаёт обработчик.
func NewGetLevelHandler(uow family.UnitOfWorkFactory) *GetLevelHandler {
	return &GetLevelHandler{uow: uow}
}

// Handle выполняет запрос. Уровень всегда пересчитывается из счётчика,
// кешированный уровень здесь не используется.
func (h *GetLevelHandler) Handle(ctx context.Context, q ChildQuery) (*LevelDTO, error) {
	if err := q.Validate("GetLevel"); err != nil {
		return nil, err
	}
	return read(ctx, h.uow, "get_level", func(repos family.Repositories) (*LevelDTO, error) {
		if _, err := repos.Children().GetByID(ctx, q.ChildID); err != nil {
			return nil, err
		}
		counters, err := repos.Counters().Get(ctx, q.ChildID)
		if err != nil {
			return nil, err
		}
		progress, err := repos.Learning().Get(ctx, q.ChildID)
		if err != nil {
			return nil, err
		}
		return &LevelDTO{
			ChildID:           q.ChildID.Int64(),
			ChoreLevel:        counters.ChoreLevel(),
			ApprovedCount:     counters.ApprovedCount,
			ChoresToNextLevel: progression.ChoresToNextLevel(counters.ApprovedCount),
			MaxChoreLevel:     progression.MaxChoreLevel,
			LearningLevel:     progression.LearningLevel(progress.XP),
			XP:                progress.XP,
			XPToNextLevel:     progression.XPToNextLevel(progress.XP),
		}, nil
	})
}

// GetChildFamilyHandler находит семью ребёнка: по ней включаются
// функции для маршрутов /children/{childID}.
type GetChildFamilyHandler struct {
	uow family.UnitOfWorkFactory
}

// NewGetChildFamilyHandler создаёт обработчик.
func NewGetChildFamilyHandler(uow family.UnitOfWorkFactory) *GetChildFamilyHandler {
	return &GetChildFamilyHandler{uow: uow}
}

// Handle возвращает FamilyID ребёнка или NotFound.
func (h *GetChildFamilyHandler) Handle(ctx context.Context, q ChildQuery) (shared.FamilyID, error) {
	if err := q.Validate("GetChildFamily"); err != nil {
		return "", err
	}
	return read(ctx, h.uow, "get_child_family", func(repos family.Repositories) (shared.FamilyID, error) {
		child, err := repos.Children().GetByID(ctx, q.ChildID)
		if err != nil {
			return "", err
		}
		return child.FamilyID, nil
	})
}
