// Package errors defines the error taxonomy shared by the storefront
// services and mapped to HTTP responses at the handler boundary.
package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an order, intent or product does not exist.
	ErrNotFound = stderrors.New("not found")

	// ErrUserNotFound is returned when a valid token resolves to no user record.
	ErrUserNotFound = stderrors.New("user not found")

	// ErrUnauthenticated is returned when the auth token is missing or invalid.
	ErrUnauthenticated = stderrors.New("unauthenticated")

	// ErrConflict is returned when a uniqueness constraint is violated.
	ErrConflict = stderrors.New("conflict")

	// ErrSignatureMismatch is wrapped by PaymentError when a checkout
	// signature does not match.
	ErrSignatureMismatch = stderrors.New("signature verification failed")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string            `json:"field"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Details: map[string]string{field: message},
	}
}

// PaymentError wraps a failure talking to, or verifying data from, the
// payment gateway.
type PaymentError struct {
	Op  string
	Err error
}

func (e *PaymentError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a PaymentError for the given operation.
func NewPaymentError(op string, err error) *PaymentError {
	return &PaymentError{Op: op, Err: err}
}

// TransitionError is returned when an order status change is not allowed.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// PersistenceError wraps a storage read or write failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps err unless it already belongs to the taxonomy.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if Is(err, ErrNotFound) || Is(err, ErrUserNotFound) || Is(err, ErrConflict) {
		return err
	}
	var pe *PersistenceError
	if As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// New returns an error with the given text.
func New(text string) error {
	return stderrors.New(text)
}
