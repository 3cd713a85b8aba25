package entity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrForbidden is returned when the caller's role or ownership does not allow an operation
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials is returned when authentication fails
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated is returned when a session token is missing, expired or revoked
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError names every field that failed validation
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates an empty validation error to be filled with Add
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a failing field. The first message for a field wins.
func (e *ValidationError) Add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any field failed
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// FieldNames returns the failing field names in sorted order
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, name := range e.FieldNames() {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NotFoundError reports a missing entity
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// DuplicateSubmissionError is returned when a trainer files a second invoice for a request
type DuplicateSubmissionError struct {
	TrainingRequestID int64
	ExistingInvoiceID int64
}

func (e *DuplicateSubmissionError) Error() string {
	return fmt.Sprintf("invoice already submitted for training request %d (invoice %d)",
		e.TrainingRequestID, e.ExistingInvoiceID)
}
