// Package errors provides the error taxonomy shared by the engines.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNotFound            = errors.New("not found")
	ErrQuoteUnavailable    = errors.New("quote unavailable")
	ErrSymbolNotFound      = errors.New("symbol not found")
	ErrInsufficientHolding = errors.New("insufficient holding")
	ErrInvalidAlert        = errors.New("invalid alert")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrCircuitOpen         = errors.New("circuit breaker is open")
	ErrTimeout             = errors.New("operation timed out")
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrDatabaseError       = errors.New("database error")
	ErrDeliveryFailed      = errors.New("delivery failed")
	ErrCorruptSession      = errors.New("corrupt session")
)

// ValidationError represents malformed user input or an incomplete record.
// It is always recovered as a user-facing re-prompt.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// CollaboratorError represents an external dependency that is slow or down.
type CollaboratorError struct {
	Collaborator string
	Operation    string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("collaborator unavailable [%s] %s: %v", e.Collaborator, e.Operation, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// NewCollaboratorError creates a new CollaboratorError.
func NewCollaboratorError(collaborator, operation string, err error) *CollaboratorError {
	return &CollaboratorError{
		Collaborator: collaborator,
		Operation:    operation,
		Err:          err,
	}
}

// PersistenceError represents a failed read or write against a durable store.
type PersistenceError struct {
	Store     string
	Operation string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error [%s] %s: %v", e.Store, e.Operation, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError creates a new PersistenceError.
func NewPersistenceError(store, operation string, err error) *PersistenceError {
	return &PersistenceError{
		Store:     store,
		Operation: operation,
		Err:       err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join combines errors, dropping nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsCollaborator reports whether err is or wraps a CollaboratorError.
func IsCollaborator(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce)
}

// IsPersistence reports whether err is or wraps a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
