package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/sats-family/chore-hub/internal/domain/shared"
	"github.com/sats-family/chore-hub/pkg/logger"
)

// lockedDetails is sent with 423 so the client can render "2/3 family chores done".
type lockedDetails struct {
	Completed int `json:"completed"`
	Required  int `json:"required"`
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var locked *shared.LockedError
	switch {
	case errors.As(err, &locked):
		writeJSONErrorWithDetails(w, http.StatusLocked, "locked", err.Error(),
			lockedDetails{Completed: locked.Completed, Required: locked.Required})
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", errorMessage(err))
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", errorMessage(err))
	case shared.IsAlreadyExists(err):
		writeJSONError(w, http.StatusConflict, "already_exists", errorMessage(err))
	case shared.IsStateConflict(err):
		writeJSONError(w, http.StatusConflict, "state_conflict", errorMessage(err))
	case shared.IsForbidden(err):
		writeJSONError(w, http.StatusForbidden, "forbidden", errorMessage(err))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, shared.ErrTimeout):
		writeJSONError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	case shared.IsSettlementFailure(err), shared.IsExternalService(err):
		logger.FromContext(r.Context()).Warn("settlement failed", logger.Operation(op), logger.Err(err))
		writeJSONError(w, http.StatusBadGateway, "settlement_failed", "payment could not be settled, please retry")
	default:
		logger.FromContext(r.Context()).Error("request failed", logger.Operation(op), logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

// errorMessage prefers the human-readable part of a DomainError.
func errorMessage(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}
