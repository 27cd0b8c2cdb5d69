package query

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Рейтинг детей семьи: уровень по заданиям, затем число одобренных заданий,
// затем XP обучения. Читается из кеша с коротким TTL; одновременные промахи
// по одной семье схлопываются в одно чтение из хранилища.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery содержит параметры запроса лидерборда.
type GetLeaderboardQuery struct {
	FamilyID shared.FamilyID
}

// Validate проверяет корректность параметров запроса.
func (q GetLeaderboardQuery) Validate() error {
	if !q.FamilyID.IsValid() {
		return invalid("GetLeaderboard", "family id is required")
	}
	return nil
}

// GetLeaderboardResult содержит результат запроса лидерборда.
type GetLeaderboardResult struct {
	FamilyID string            `json:"familyId"`
	Entries  []family.Standing `json:"entries"`

	// Cached - ответ пришёл из кеша.
	Cached bool `json:"cached"`

	GeneratedAt time.Time `json:"generatedAt"`
}

// GetLeaderboardHandlerConfig - настройки кеша.
type GetLeaderboardHandlerConfig struct {
	TTL time.Duration
}

// DefaultGetLeaderboardHandlerConfig возвращает настройки по умолчанию.
func DefaultGetLeaderboardHandlerConfig() GetLeaderboardHandlerConfig {
	return GetLeaderboardHandlerConfig{TTL: 30 * time.Second}
}

// GetLeaderboardHandler обрабатывает запросы на получение лидерборда.
type GetLeaderboardHandler struct {
	uow   family.UnitOfWorkFactory
	cache family.LeaderboardCache
	group singleflight.Group
	ttl   time.Duration
	log   *logger.Logger
}

// NewGetLeaderboardHandler создаёт новый обработчик запроса лидерборда.
// cache может быть nil - тогда каждый запрос читает хранилище.
func NewGetLeaderboardHandler(
	uow family.UnitOfWorkFactory,
	cache family.LeaderboardCache,
	config GetLeaderboardHandlerConfig,
	log *logger.Logger,
) *GetLeaderboardHandler {
	if config.TTL <= 0 {
		config = DefaultGetLeaderboardHandlerConfig()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &GetLeaderboardHandler{
		uow:   uow,
		cache: cache,
		ttl:   config.TTL,
		log:   log.With(logger.Component("leaderboard")),
	}
}

// Handle выполняет запрос на получение лидерборда.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	// Попытка получить из кеша. Ошибка кеша не критична.
	if h.cache != nil {
		standings, ok, err := h.cache.Get(ctx, q.FamilyID)
		switch {
		case err != nil:
			h.log.Warn("leaderboard cache read failed", logger.FamilyID(q.FamilyID.String()), logger.Err(err))
		case ok:
			return &GetLeaderboardResult{
				FamilyID:    q.FamilyID.String(),
				Entries:     standings,
				Cached:      true,
				GeneratedAt: time.Now(),
			}, nil
		}
	}

	v, err, _ := h.group.Do(q.FamilyID.String(), func() (interface{}, error) {
		return h.Refresh(ctx, q.FamilyID)
	})
	if err != nil {
		return nil, err
	}
	return &GetLeaderboardResult{
		FamilyID:    q.FamilyID.String(),
		Entries:     v.([]family.Standing),
		GeneratedAt: time.Now(),
	}, nil
}

// Refresh строит лидерборд из хранилища и кладёт его в кеш.
// Используется и фоновым прогревом.
func (h *GetLeaderboardHandler) Refresh(ctx context.Context, fam shared.FamilyID) ([]family.Standing, error) {
	standings, err := read(ctx, h.uow, "get_leaderboard", func(repos family.Repositories) ([]family.Standing, error) {
		return buildStandings(ctx, repos, fam)
	})
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, fam, standings, h.ttl); err != nil {
			h.log.Warn("leaderboard cache write failed", logger.FamilyID(fam.String()), logger.Err(err))
		}
	}
	return standings, nil
}

func buildStandings(ctx context.Context, repos family.Repositories, fam shared.FamilyID) ([]family.Standing, error) {
	children, err := repos.Children().ListByFamily(ctx, fam)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}

	standings := make([]family.Standing, 0, len(children))
	for _, child := range children {
		counters, err := repos.Counters().Get(ctx, child.ID)
		if err != nil {
			return nil, fmt.Errorf("load counters of %d: %w", child.ID, err)
		}
		progress, err := repos.Learning().Get(ctx, child.ID)
		if err != nil {
			return nil, fmt.Errorf("load progress of %d: %w", child.ID, err)
		}
		standings = append(standings, family.Standing{
			ChildID:       child.ID,
			DisplayName:   child.DisplayName,
			ChoreLevel:    counters.ChoreLevel(),
			ApprovedCount: counters.ApprovedCount,
			LearningXP:    progress.XP,
		})
	}
	return family.Rank(standings), nil
}
