// Package domain contains the core domain types and validation logic for the
// pack composition engine.
// This is part of the Functional Core - all functions are pure with no I/O.
package domain

import "errors"

// =============================================================================
// Error Kinds
// =============================================================================

var (
	// ErrNotFound is returned when an operation references an item or pack
	// id that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrIntegrityViolation is returned when a membership edge would reference
	// a missing endpoint, include a pack in itself, or close a cycle.
	// Nothing is written when this is returned.
	ErrIntegrityViolation = errors.New("integrity violation")

	// ErrInvariantBroken is returned when the pack graph is found to contain a
	// cycle while resolving. It means a write bypassed the cycle guard.
	ErrInvariantBroken = errors.New("invariant broken: pack graph contains a cycle")

	// ErrValidation is returned for malformed input (names, numbers, selections).
	ErrValidation = errors.New("validation failed")
)

// =============================================================================
// Specific Errors
// =============================================================================

var (
	// Integrity errors
	ErrSelfInclusion = wrap(ErrIntegrityViolation, "pack cannot include itself")
	ErrCycle         = wrap(ErrIntegrityViolation, "inclusion would create a cycle")
	ErrMissingMember = wrap(ErrIntegrityViolation, "membership references a missing entity")

	// Attribute validation errors
	ErrNameRequired   = wrap(ErrValidation, "name is required")
	ErrNameTooLong    = wrap(ErrValidation, "name must be at most 100 characters")
	ErrWeightNegative = wrap(ErrValidation, "weight cannot be negative")
	ErrVolumeNegative = wrap(ErrValidation, "volume cannot be negative")
	ErrPriceNegative  = wrap(ErrValidation, "price cannot be negative")
	ErrAmountNegative = wrap(ErrValidation, "amount cannot be negative")

	// Selection validation errors
	ErrSelectedNotPositive = wrap(ErrValidation, "selected quantity must be positive")
	ErrSelectedNegative    = wrap(ErrValidation, "selected quantity cannot be negative")
	ErrSelectionDuplicate  = wrap(ErrValidation, "duplicate id in selection")
)

// kindError is a specific error that also matches its kind with errors.Is.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func wrap(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}
