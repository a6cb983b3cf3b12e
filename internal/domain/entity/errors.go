package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")

	// ErrStorageCorrupted indicates that a durable state file could not be
	// read or parsed. The failure is scoped to the file that produced it;
	// sibling queues and tables stay usable.
	ErrStorageCorrupted = errors.New("storage corrupted")

	// ErrRateLimitExceeded indicates that a client exhausted its request
	// budget for the current window. Surfaced as 429, never recorded as a
	// handler failure.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrAuthRejected indicates that a request failed the authentication
	// gate. Unreachable under the permissive default policy, but the 401
	// path stays alive for a future tightening.
	ErrAuthRejected = errors.New("authentication rejected")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// MissingFieldsError reports the set of required request fields that were
// absent or empty. Handlers surface it as a 400 with the field list intact.
type MissingFieldsError struct {
	Fields []string
}

// Error returns a formatted error message listing the missing fields.
func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: %v", e.Fields)
}
