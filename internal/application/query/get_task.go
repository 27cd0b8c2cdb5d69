package query

import (
	"context"

	"github.com/sats-family/chore-hub/internal/domain/chore"
	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TASK / LIST TASKS QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// GetTaskQuery - запрос одного задания.
type GetTaskQuery struct {
	TaskID shared.TaskID
}

// GetTaskHandler обрабатывает GetTaskQuery.
type GetTaskHandler struct {
	uow family.UnitOfWorkFactory
}

// NewGetTaskHandler создаёт обработчик.
func NewGetTaskHandler(uow family.UnitOfWorkFactory) *GetTaskHandler {
	return &GetTaskHandler{uow: uow}
}

// Handle возвращает задание или ErrTaskNotFound.
func (h *GetTaskHandler) Handle(ctx context.Context, q GetTaskQuery) (*TaskDTO, error) {
	if _, err := shared.ParseTaskID(q.TaskID.String()); err != nil {
		return nil, invalid("GetTask", "task id must be a uuid")
	}
	return read(ctx, h.uow, "get_task", func(repos family.Repositories) (*TaskDTO, error) {
		task, err := repos.Tasks().GetByID(ctx, q.TaskID)
		if err != nil {
			return nil, err
		}
		dto := TaskFromDomain(task)
		return &dto, nil
	})
}

// ListTasksQuery - задания семьи, опционально по статусу.
type ListTasksQuery struct {
	FamilyID shared.FamilyID

	// Status - пустая строка означает все статусы.
	Status string
}

// Validate проверяет параметры.
func (q ListTasksQuery) Validate() error {
	if !q.FamilyID.IsValid() {
		return invalid("ListTasks", "family id is required")
	}
	if q.Status != "" {
		if _, err := chore.ParseStatus(q.Status); err != nil {
			return invalid("ListTasks", "unknown status "+q.Status)
		}
	}
	return nil
}

// ListTasksResult - список заданий.
type ListTasksResult struct {
	FamilyID string    `json:"familyId"`
	Tasks    []TaskDTO `json:"tasks"`
}

// ListTasksHandler обрабатывает ListTasksQuery.
type ListTasksHandler struct {
	uow family.UnitOfWorkFactory
}

// NewListTasksHandler создаёт обработчик.
func NewListTasksHandler(uow family.UnitOfWorkFactory) *ListTasksHandler {
	return &ListTasksHandler{uow: uow}
}

// Handle возвращает задания от новых к старым.
func (h *ListTasksHandler) Handle(ctx context.Context, q ListTasksQuery) (*ListTasksResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	var status *chore.Status
	if q.Status != "" {
		s := chore.Status(q.Status)
		status = &s
	}

	return read(ctx, h.uow, "list_tasks", func(repos family.Repositories) (*ListTasksResult, error) {
		tasks, err := repos.Tasks().ListByFamily(ctx, q.FamilyID, status)
		if err != nil {
			return nil, err
		}
		out := &ListTasksResult{FamilyID: q.FamilyID.String(), Tasks: make([]TaskDTO, 0, len(tasks))}
		for _, t := range tasks {
			out.Tasks = append(out.Tasks, TaskFromDomain(t))
		}
		return out, nil
	})
}
