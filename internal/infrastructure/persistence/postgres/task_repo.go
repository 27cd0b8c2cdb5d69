package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sats-family/chore-hub/internal/domain/chore"
	"github.com/sats-family/chore-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TASK REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// TaskRepository implements chore.Repository for PostgreSQL.
type TaskRepository struct {
	q Querier
}

// NewTaskRepository creates a TaskRepository bound to a pool or transaction.
func NewTaskRepository(q Querier) *TaskRepository {
	return &TaskRepository{q: q}
}

const taskColumns = `id, family_id, title, description, sats, is_required, bypass_ratio,
	status, assigned_to, proof_ref, created_at, updated_at, approved_at`

// Create inserts a new task.
func (r *TaskRepository) Create(ctx context.Context, t *chore.Task) error {
	var assigned *int64
	if t.AssignedTo != 0 {
		v := t.AssignedTo.Int64()
		assigned = &v
	}

	_, err := r.q.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.ID.String(), t.FamilyID.String(), t.Title, t.Description, t.Sats.Int64(),
		t.IsRequired, t.BypassRatio, string(t.Status), assigned, t.ProofRef,
		t.CreatedAt, t.UpdatedAt, t.ApprovedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("chore", "Create", shared.ErrAlreadyExists, "task already exists")
		}
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetByID returns a task by ID.
func (r *TaskRepository) GetByID(ctx context.Context, id shared.TaskID) (*chore.Task, error) {
	row := r.q.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id.String())
	t, err := scanTask(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// ListByFamily returns the family's tasks, newest first.
func (r *TaskRepository) ListByFamily(ctx context.Context, family shared.FamilyID, status *chore.Status) ([]*chore.Task, error) {
	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}

	rows, err := r.q.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE family_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC, id`,
		family.String(), statusArg,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*chore.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Conditional transitions
// ─────────────────────────────────────────────────────────────────────────────

// Assign moves open → assigned. The first writer wins.
func (r *TaskRepository) Assign(ctx context.Context, id shared.TaskID, child shared.ChildID, at time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE tasks
		SET status = 'assigned', assigned_to = $2, updated_at = $3
		WHERE id = $1 AND status = 'open'`,
		id.String(), child.Int64(), at,
	)
	if err != nil {
		return false, fmt.Errorf("failed to assign task: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkSubmitted moves assigned → submitted.
func (r *TaskRepository) MarkSubmitted(ctx context.Context, id shared.TaskID, child shared.ChildID, proofRef string, at time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE tasks
		SET status = 'submitted', proof_ref = $3, updated_at = $4
		WHERE id = $1 AND status = 'assigned' AND ($2::bigint = 0 OR assigned_to = $2)`,
		id.String(), child.Int64(), proofRef, at,
	)
	if err != nil {
		return false, fmt.Errorf("failed to submit task: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkApproved moves submitted → approved. The updated row stays locked until
// the surrounding transaction ends, so a concurrent approver blocks here and
// then sees zero affected rows (commit) or takes over (rollback).
func (r *TaskRepository) MarkApproved(ctx context.Context, id shared.TaskID, at time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE tasks
		SET status = 'approved', approved_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'submitted'`,
		id.String(), at,
	)
	if err != nil {
		return false, fmt.Errorf("failed to approve task: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes a task that is not approved.
func (r *TaskRepository) Delete(ctx context.Context, id shared.TaskID) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND status <> 'approved'`, id.String())
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanTask(row pgx.Row) (*chore.Task, error) {
	var (
		t        chore.Task
		id       string
		familyID string
		sats     int64
		status   string
		assigned *int64
	)
	err := row.Scan(
		&id, &familyID, &t.Title, &t.Description, &sats, &t.IsRequired, &t.BypassRatio,
		&status, &assigned, &t.ProofRef, &t.CreatedAt, &t.UpdatedAt, &t.ApprovedAt,
	)
	if err != nil {
		return nil, err
	}

	t.ID = shared.TaskID(id)
	t.FamilyID = shared.FamilyID(familyID)
	t.Sats = shared.Sats(sats)
	t.Status = chore.Status(status)
	if assigned != nil {
		t.AssignedTo = shared.ChildID(*assigned)
	}
	return &t, nil
}
