package eventhandler

import (
	"log/slog"

	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ACTIVITY LOG HANDLER
// Пишет каждое доменное событие в структурированный лог. Это журнал
// семейной активности для поддержки: кто что сделал и когда.
// ═══════════════════════════════════════════════════════════════════════════

// ActivityLogHandler логирует события.
type ActivityLogHandler struct {
	logger *slog.Logger
}

// NewActivityLogHandler создаёт обработчик.
func NewActivityLogHandler(logger *slog.Logger) *ActivityLogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityLogHandler{logger: logger.With("handler", "activity_log")}
}

// Register подписывает обработчик на все события.
func (h *ActivityLogHandler) Register(bus shared.EventSubscriber) error {
	return bus.SubscribeAll(h.Handle)
}

// Handle обрабатывает событие.
func (h *ActivityLogHandler) Handle(event shared.Event) error {
	attrs := []any{
		"event_type", event.EventType(),
		"aggregate_id", event.AggregateID(),
		"occurred_at", event.OccurredAt(),
	}
	if scoped, ok := event.(shared.FamilyScoped); ok {
		attrs = append(attrs, "family_id", scoped.FamilyID())
	}
	for k, v := range event.Payload() {
		attrs = append(attrs, k, v)
	}
	h.logger.Info("family activity", attrs...)
	return nil
}
