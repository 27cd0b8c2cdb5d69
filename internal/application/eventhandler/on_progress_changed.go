// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON PROGRESS CHANGED HANDLER
// Сбрасывает кеш лидерборда семьи, когда меняется что-то, что влияет на
// рейтинг: одобренные задания, уровень и XP обучения.
// Без этого кеш всё равно устареет максимум на TTL.
// ═══════════════════════════════════════════════════════════════════════════

// RankingEvents - события, меняющие рейтинг.
var RankingEvents = []shared.EventType{
	shared.EventTaskApproved,
	shared.EventChoreLevelUp,
	shared.EventChallengeCompleted,
	shared.EventModuleCompleted,
}

// OnProgressChangedHandler инвалидирует кеш лидерборда.
type OnProgressChangedHandler struct {
	cache   family.LeaderboardCache
	logger  *slog.Logger
	timeout time.Duration
}

// NewOnProgressChangedHandler создаёт обработчик.
func NewOnProgressChangedHandler(cache family.LeaderboardCache, logger *slog.Logger) *OnProgressChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnProgressChangedHandler{
		cache:   cache,
		logger:  logger.With("handler", "on_progress_changed"),
		timeout: 2 * time.Second,
	}
}

// Register подписывает обработчик на RankingEvents.
func (h *OnProgressChangedHandler) Register(bus shared.EventSubscriber) error {
	for _, t := range RankingEvents {
		if err := bus.Subscribe(t, h.Handle); err != nil {
			return err
		}
	}
	return nil
}

// Handle обрабатывает событие.
// Реализует интерфейс shared.EventHandler.
func (h *OnProgressChangedHandler) Handle(event shared.Event) error {
	scoped, ok := event.(shared.FamilyScoped)
	if !ok || !scoped.FamilyID().IsValid() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.cache.Invalidate(ctx, scoped.FamilyID()); err != nil {
		h.logger.Warn("leaderboard invalidation failed",
			"family_id", scoped.FamilyID(),
			"event_type", event.EventType(),
			"error", err,
		)
		return err
	}

	h.logger.Debug("leaderboard invalidated",
		"family_id", scoped.FamilyID(),
		"event_type", event.EventType(),
	)
	return nil
}
