package command

import (
	"context"
	"fmt"

	"github.com/sats-family/chore-hub/internal/domain/family"
	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/pkg/logger"
	"github.com/sats-family/chore-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER CHILD COMMAND
// Adds a child to a family. The id is assigned by the caller (the wallet
// service knows the same child under this id).
// ══════════════════════════════════════════════════════════════════════════════

// RegisterChildCommand contains the data of a new child.
type RegisterChildCommand struct {
	FamilyID    shared.FamilyID `validate:"required,max=64"`
	ChildID     shared.ChildID  `validate:"gt=0"`
	DisplayName string          `validate:"required,max=100"`
}

// Validate validates the command.
func (c RegisterChildCommand) Validate() error {
	return validateCommand("RegisterChild", c)
}

// RegisterChildResult contains the registered child.
type RegisterChildResult struct {
	Child *family.Child
}

// RegisterChildHandler handles the RegisterChildCommand.
type RegisterChildHandler struct {
	uow   family.UnitOfWorkFactory
	clock timeutil.Clock
	log   *logger.Logger
}

// NewRegisterChildHandler creates a new RegisterChildHandler.
func NewRegisterChildHandler(uow family.UnitOfWorkFactory, clock timeutil.Clock, log *logger.Logger) *RegisterChildHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &RegisterChildHandler{uow: uow, clock: clock, log: log.With(logger.Component("register_child"))}
}

// Handle executes the register child command.
// A repeated id returns ErrChildAlreadyExists.
func (h *RegisterChildHandler) Handle(ctx context.Context, cmd RegisterChildCommand) (*RegisterChildResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	child, err := family.NewChild(cmd.ChildID, cmd.FamilyID, cmd.DisplayName, h.clock.Now())
	if err != nil {
		return nil, err
	}

	tx, err := h.uow.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("register_child: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.Children().Create(ctx, child); err != nil {
		return nil, err
	}
	if err := tx.Counters().Save(ctx, family.NewCounters(child.ID)); err != nil {
		return nil, fmt.Errorf("register_child: init counters: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("register_child: commit: %w", err)
	}

	h.log.Info("child registered", logger.ChildID(child.ID.Int64()), logger.FamilyID(child.FamilyID.String()))
	return &RegisterChildResult{Child: child}, nil
}
