package domain

import (
	"errors"
	"fmt"
)

// Common domain errors returned by the reduction components.
var (
	// ErrInvalidRecord indicates that an input record is missing a
	// required key field.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrEmptyValue indicates that a required value is empty or nil.
	ErrEmptyValue = errors.New("empty value")

	// ErrInvalidConfiguration indicates that configuration is invalid or
	// incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// ValidationError reports a record that failed input validation.
// It carries enough context (entity, record id, offending field) for the
// caller to log or surface a user-facing message.
type ValidationError struct {
	// Entity names the record type that failed validation,
	// e.g. "UploadRecord" or "EvaluationReport".
	Entity string

	// RecordID is the identifier of the offending record, when known.
	RecordID string

	// Field names the missing or malformed field.
	Field string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("validation error for %s: missing %s", e.Entity, e.Field)
	}
	return fmt.Sprintf("validation error for %s %q: missing %s", e.Entity, e.RecordID, e.Field)
}

// Unwrap allows errors.Is(err, ErrInvalidRecord) checks on wrapped
// validation failures.
func (e *ValidationError) Unwrap() error { return ErrInvalidRecord }

// NewValidationError creates a ValidationError for the given entity,
// record, and field.
func NewValidationError(entity, recordID, field string) *ValidationError {
	return &ValidationError{Entity: entity, RecordID: recordID, Field: field}
}
