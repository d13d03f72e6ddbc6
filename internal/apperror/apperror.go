// Package apperror defines the error taxonomy shared by every layer.
//
// Services return these errors; handlers translate them into HTTP status codes
// (see handler.writeError). Callers match on the sentinels with errors.Is and
// read the human-readable message with errors.As(*AppError).
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("Validation Error")
	ErrConflict            = errors.New("conflict")
	ErrForbidden           = errors.New("forbidden")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrCreditDeduction     = errors.New("credit deduction failed")
	ErrSearchProvider      = errors.New("search provider error")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying failure (provider error, etc.)
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause so errors.Is matches either.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, value string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists: %s", resource, value),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated covers missing, malformed, wrongly signed and expired
// credentials. HTTP handlers map this to 401.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// InsufficientBalance is returned by the search pre-check.
func InsufficientBalance(required, available int) *AppError {
	return &AppError{
		Err:     ErrInsufficientBalance,
		Message: fmt.Sprintf("insufficient balance: required %d, available %d", required, available),
	}
}

// CreditDeduction is returned when the post-search debit is rejected, which
// only happens if the balance moved between the pre-check and the debit.
func CreditDeduction(amount int) *AppError {
	return &AppError{
		Err:     ErrCreditDeduction,
		Message: fmt.Sprintf("could not deduct %d credits", amount),
	}
}

// SearchProvider wraps a failure of the external places provider.
func SearchProvider(cause error) *AppError {
	return &AppError{
		Err:     ErrSearchProvider,
		Message: "place search failed",
		Cause:   cause,
	}
}
