// Package chore содержит доменную модель домашнего задания (chore) и его
// жизненный цикл: open → assigned → submitted → approved.
// Переходы только вперёд; удаление разрешено, пока задание не одобрено.
package chore

import (
	"strings"
	"time"

	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status - закрытый набор состояний задания.
type Status string

const (
	// StatusOpen - задание создано родителем и ждёт исполнителя.
	StatusOpen Status = "open"
	// StatusAssigned - ребёнок взял задание.
	StatusAssigned Status = "assigned"
	// StatusSubmitted - ребёнок отправил результат (с доказательством).
	StatusSubmitted Status = "submitted"
	// StatusApproved - родитель подтвердил, награда выплачена.
	StatusApproved Status = "approved"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusAssigned, StatusSubmitted, StatusApproved:
		return true
	default:
		return false
	}
}

// ParseStatus разбирает строку статуса.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", shared.NewDomainError("chore", "ParseStatus", shared.ErrValidation, "unknown task status")
	}
	return st, nil
}

// rank задаёт порядок состояний; переход разрешён только на следующий ранг.
func (s Status) rank() int {
	switch s {
	case StatusOpen:
		return 0
	case StatusAssigned:
		return 1
	case StatusSubmitted:
		return 2
	case StatusApproved:
		return 3
	default:
		return -1
	}
}

// CanTransitionTo возвращает true только для следующего состояния цепочки.
func (s Status) CanTransitionTo(next Status) bool {
	return s.rank() >= 0 && next.rank() == s.rank()+1
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: TASK
// ══════════════════════════════════════════════════════════════════════════════

// MaxTitleLength ограничивает длину названия задания.
const MaxTitleLength = 200

// Task - домашнее задание семьи.
type Task struct {
	// ID - уникальный идентификатор (UUID).
	ID shared.TaskID

	// FamilyID - семья, которой принадлежит задание.
	FamilyID shared.FamilyID

	Title       string
	Description string

	// Sats - награда в сатоши. Для обязательных заданий всегда 0.
	Sats shared.Sats

	// IsRequired - обязательное (неоплачиваемое) семейное задание.
	IsRequired bool

	// BypassRatio - оплачиваемое задание, которое не проходит через Unlock Gate.
	BypassRatio bool

	Status Status

	// AssignedTo - ребёнок, взявший задание. Устанавливается один раз.
	AssignedTo shared.ChildID

	// ProofRef - непрозрачная ссылка на доказательство (фото и т.п.).
	ProofRef string

	CreatedAt  time.Time
	UpdatedAt  time.Time
	ApprovedAt *time.Time
}

// NewTaskParams - входные данные для создания задания.
type NewTaskParams struct {
	FamilyID    shared.FamilyID
	Title       string
	Description string
	Sats        shared.Sats
	IsRequired  bool
	BypassRatio bool
}

// NewTask создаёт задание в статусе open.
// Для обязательных заданий флаг BypassRatio сбрасывается: он имеет смысл
// только для оплачиваемых заданий.
func NewTask(p NewTaskParams, now time.Time) (*Task, error) {
	title := strings.TrimSpace(p.Title)
	switch {
	case !p.FamilyID.IsValid():
		return nil, shared.NewDomainError("chore", "Create", shared.ErrValidation, "family id is required")
	case title == "":
		return nil, shared.NewDomainError("chore", "Create", shared.ErrValidation, "title is required")
	case len(title) > MaxTitleLength:
		return nil, shared.NewDomainError("chore", "Create", shared.ErrValidation, "title is too long")
	case p.Sats.IsNegative():
		return nil, shared.NewDomainError("chore", "Create", shared.ErrValidation, "sats cannot be negative")
	case p.IsRequired && p.Sats != 0:
		return nil, shared.ErrRequiredTaskIsPaid
	}

	return &Task{
		ID:          shared.NewTaskID(),
		FamilyID:    p.FamilyID,
		Title:       title,
		Description: strings.TrimSpace(p.Description),
		Sats:        p.Sats,
		IsRequired:  p.IsRequired,
		BypassRatio: p.BypassRatio && !p.IsRequired,
		Status:      StatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// RequiresUnlock возвращает true, если принятие задания расходует слот Unlock Gate.
func (t *Task) RequiresUnlock() bool {
	return !t.IsRequired && !t.BypassRatio
}

// IsPaid возвращает true, если за задание полагаются сатоши.
func (t *Task) IsPaid() bool {
	return t.Sats > 0
}

// ─────────────────────────────────────────────────────────────────────────────
// Transitions
// Эти методы используются хранилищем для условных обновлений: ошибка
// означает, что ожидаемый текущий статус не совпал.
// ─────────────────────────────────────────────────────────────────────────────

// Assign переводит open → assigned.
func (t *Task) Assign(child shared.ChildID, at time.Time) error {
	if t.Status != StatusOpen {
		return shared.ErrTaskNotOpen
	}
	t.Status = StatusAssigned
	t.AssignedTo = child
	t.UpdatedAt = at
	return nil
}

// Submit переводит assigned → submitted.
// child == 0 означает, что проверка исполнителя не нужна (отправил родитель).
func (t *Task) Submit(child shared.ChildID, proofRef string, at time.Time) error {
	if t.Status != StatusAssigned {
		return shared.ErrTaskNotAssigned
	}
	if child != 0 && child != t.AssignedTo {
		return shared.ErrNotAssignee
	}
	t.Status = StatusSubmitted
	t.ProofRef = strings.TrimSpace(proofRef)
	t.UpdatedAt = at
	return nil
}

// Approve переводит submitted → approved.
func (t *Task) Approve(at time.Time) error {
	if t.Status != StatusSubmitted {
		return shared.ErrTaskNotSubmitted
	}
	t.Status = StatusApproved
	t.UpdatedAt = at
	t.ApprovedAt = &at
	return nil
}

// CanDelete возвращает true, пока задание не одобрено.
func (t *Task) CanDelete() bool {
	return t.Status != StatusApproved
}

// Clone возвращает независимую копию задания.
func (t *Task) Clone() *Task {
	c := *t
	if t.ApprovedAt != nil {
		at := *t.ApprovedAt
		c.ApprovedAt = &at
	}
	return &c
}
