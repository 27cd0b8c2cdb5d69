// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation = errors.New("validation error")

	// State errors
	ErrStateConflict = errors.New("state conflict")
	ErrLocked        = errors.New("locked")

	// Authorization errors
	ErrForbidden = errors.New("forbidden")

	// Settlement errors. A failed settlement never leaves a committed change behind,
	// so the caller may retry.
	ErrSettlementFailed = errors.New("settlement failed")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "chore", "bonus", "challenge"
	Op      string // Operation that failed, e.g., "Accept", "Approve"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// LockedError is returned when the unlock gate refuses a paid chore.
// Completed and Required let the caller render "2/3 family chores done".
type LockedError struct {
	Completed int
	Required  int
}

// Error implements the error interface.
func (e *LockedError) Error() string {
	return fmt.Sprintf("paid chore locked: %d/%d family chores done", e.Completed, e.Required)
}

// Is makes errors.Is(err, ErrLocked) match.
func (e *LockedError) Is(target error) bool {
	return target == ErrLocked
}

// Chore domain errors
var (
	ErrTaskNotFound       = NewDomainError("chore", "Find", ErrNotFound, "task not found")
	ErrTaskNotOpen        = NewDomainError("chore", "Accept", ErrStateConflict, "task is no longer open")
	ErrTaskNotAssigned    = NewDomainError("chore", "Submit", ErrStateConflict, "task is not assigned")
	ErrTaskNotSubmitted   = NewDomainError("chore", "Approve", ErrStateConflict, "task is not submitted")
	ErrTaskApproved       = NewDomainError("chore", "Delete", ErrStateConflict, "approved tasks cannot be deleted")
	ErrNotAssignee        = NewDomainError("chore", "Submit", ErrForbidden, "task is assigned to another child")
	ErrRequiredTaskIsPaid = NewDomainError("chore", "Validate", ErrValidation, "required tasks cannot carry sats")
)

// Family domain errors
var (
	ErrChildNotFound      = NewDomainError("family", "Find", ErrNotFound, "child not found")
	ErrChildAlreadyExists = NewDomainError("family", "Register", ErrAlreadyExists, "child already registered")
	ErrChildNotInFamily   = NewDomainError("family", "Check", ErrForbidden, "child does not belong to the task's family")
)

// Learning domain errors
var (
	ErrModuleNotFound        = NewDomainError("learning", "Find", ErrNotFound, "learning module not found")
	ErrGuardianTierInvalid   = NewDomainError("learning", "ClaimBonus", ErrValidation, "guardian tier must be 2 or 3")
	ErrGuardianTierNotEarned = NewDomainError("learning", "ClaimBonus", ErrForbidden, "guardian tier not reached yet")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsStateConflict checks if the error is a status mismatch.
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrStateConflict)
}

// IsLocked checks if the unlock gate refused the operation.
func IsLocked(err error) bool {
	return errors.Is(err, ErrLocked)
}

// IsForbidden checks if the error is an authorization error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsSettlementFailure checks if the payment collaborator failed.
func IsSettlementFailure(err error) bool {
	return errors.Is(err, ErrSettlementFailed)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSettlementFailed) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
