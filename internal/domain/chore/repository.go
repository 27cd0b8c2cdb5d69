package chore

import (
	"context"
	"time"

	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Все переходы статуса - атомарные условные обновления по ожидаемому
// текущему статусу. Метод возвращает applied=false, если строка не подошла
// (статус уже другой или задания нет); выяснение причины - задача вызывающего.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции с заданиями.
type Repository interface {
	// Create сохраняет новое задание.
	Create(ctx context.Context, task *Task) error

	// GetByID возвращает задание по ID.
	// Возвращает ErrTaskNotFound, если задание не найдено.
	GetByID(ctx context.Context, id shared.TaskID) (*Task, error)

	// ListByFamily возвращает задания семьи, опционально по статусу,
	// от новых к старым.
	ListByFamily(ctx context.Context, family shared.FamilyID, status *Status) ([]*Task, error)

	// Assign: open → assigned (first writer wins).
	Assign(ctx context.Context, id shared.TaskID, child shared.ChildID, at time.Time) (bool, error)

	// MarkSubmitted: assigned → submitted. child == 0 отключает проверку исполнителя.
	MarkSubmitted(ctx context.Context, id shared.TaskID, child shared.ChildID, proofRef string, at time.Time) (bool, error)

	// MarkApproved: submitted → approved. Блокировка строки держится до конца
	// транзакции, поэтому конкурентный вызов ждёт и видит итоговый статус.
	MarkApproved(ctx context.Context, id shared.TaskID, at time.Time) (bool, error)

	// Delete удаляет задание, если оно не одобрено.
	Delete(ctx context.Context, id shared.TaskID) (bool, error)
}
