// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/sats-family/chore-hub/internal/domain/chore"
	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// read открывает единицу работы только для чтения и всегда откатывает её.
func read[T any](ctx context.Context, uow family.UnitOfWorkFactory, op string, fn func(repos family.Repositories) (T, error)) (T, error) {
	var zero T

	tx, err := uow.Begin(ctx)
	if err != nil {
		return zero, fmt.Errorf("%s: begin: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	return fn(tx)
}

// invalid оборачивает ошибку параметров в ErrValidation.
func invalid(op, message string) error {
	return shared.NewDomainError("query", op, shared.ErrValidation, message)
}

// ══════════════════════════════════════════════════════════════════════════════
// DTO
// ══════════════════════════════════════════════════════════════════════════════

// TaskDTO - задание в ответах API.
type TaskDTO struct {
	ID          string     `json:"id"`
	FamilyID    string     `json:"familyId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Sats        int64      `json:"sats"`
	IsRequired  bool       `json:"isRequired"`
	BypassRatio bool       `json:"bypassRatio"`
	Status      string     `json:"status"`
	AssignedTo  int64      `json:"assignedTo,omitempty"`
	ProofRef    string     `json:"proofRef,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
}

// TaskFromDomain преобразует доменное задание в DTO.
func TaskFromDomain(t *chore.Task) TaskDTO {
	return TaskDTO{
		ID:          t.ID.String(),
		FamilyID:    t.FamilyID.String(),
		Title:       t.Title,
		Description: t.Description,
		Sats:        t.Sats.Int64(),
		IsRequired:  t.IsRequired,
		BypassRatio: t.BypassRatio,
		Status:      string(t.Status),
		AssignedTo:  t.AssignedTo.Int64(),
		ProofRef:    t.ProofRef,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		ApprovedAt:  t.ApprovedAt,
	}
}
