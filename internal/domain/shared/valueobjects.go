// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// ChildID identifies a child (peer) of a family. Child ids are positive integers
// because the daily challenge selection uses them arithmetically.
type ChildID int64

// IsValid checks if the child ID is valid (positive number).
func (c ChildID) IsValid() bool {
	return c > 0
}

// Int64 returns the underlying int64 value.
func (c ChildID) Int64() int64 {
	return int64(c)
}

// String returns the string representation.
func (c ChildID) String() string {
	return strconv.FormatInt(int64(c), 10)
}

// ParseChildID parses a decimal child id.
func ParseChildID(s string) (ChildID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, NewDomainError("shared", "ParseChildID", ErrValidation, "invalid child ID")
	}
	return ChildID(n), nil
}

// FamilyID identifies a household (the original app calls it a connection).
type FamilyID string

// IsValid checks that the family ID is not blank.
func (f FamilyID) IsValid() bool {
	return strings.TrimSpace(string(f)) != ""
}

// String returns the string representation.
func (f FamilyID) String() string {
	return string(f)
}

// TaskID identifies a chore (UUID format).
type TaskID string

// NewTaskID generates a fresh task id.
func NewTaskID() TaskID {
	return TaskID(uuid.NewString())
}

// IsValid checks if the task ID is a valid UUID.
func (t TaskID) IsValid() bool {
	_, err := uuid.Parse(string(t))
	return err == nil
}

// String returns the string representation.
func (t TaskID) String() string {
	return string(t)
}

// ParseTaskID validates and normalizes a task id.
func ParseTaskID(s string) (TaskID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", NewDomainError("shared", "ParseTaskID", ErrValidation, "invalid task ID format")
	}
	return TaskID(id.String()), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Money
// ═══════════════════════════════════════════════════════════════════════════

// Sats is an amount of satoshis. 1 BTC = 100_000_000 sats.
type Sats int64

// SatsPerBTC is the number of satoshis in one bitcoin.
const SatsPerBTC = 100_000_000

// IsNegative reports whether the amount is below zero.
func (s Sats) IsNegative() bool {
	return s < 0
}

// Int64 returns the underlying int64 value.
func (s Sats) Int64() int64 {
	return int64(s)
}

// BTC converts the amount to bitcoin.
func (s Sats) BTC() float64 {
	return float64(s) / SatsPerBTC
}

// ═══════════════════════════════════════════════════════════════════════════
// Outcome
// ═══════════════════════════════════════════════════════════════════════════

// Outcome tells the caller whether a command changed state. A duplicate is not
// an error: the effect already happened earlier and nothing was done again.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
)
