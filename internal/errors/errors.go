package errors

import (
	"errors"
	"fmt"
)

// Domain-specific error types
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateEntry indicates a unique constraint violation
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrLeadNotFound indicates the lead was not found
	ErrLeadNotFound = errors.New("lead not found")

	// ErrMessageNotFound indicates the message was not found
	ErrMessageNotFound = errors.New("message not found")

	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates forbidden access
	ErrForbidden = errors.New("forbidden")

	// ErrProviderUnavailable indicates the messaging provider API call failed
	ErrProviderUnavailable = errors.New("messaging provider unavailable")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal server error")
)

// Error codes for API responses
const (
	CodeNotFound       = "NOT_FOUND"
	CodeDuplicateEntry = "DUPLICATE_ENTRY"
	CodeInvalidInput   = "INVALID_INPUT"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeProviderError  = "PROVIDER_ERROR"
	CodeInternalError  = "INTERNAL_ERROR"
)

// ProviderError wraps a failed call to the WhatsApp Cloud API with the HTTP
// status and response body the provider returned.
type ProviderError struct {
	Op         string // e.g. "send text", "resolve media"
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return fmt.Sprintf("whatsapp api: %s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Unwrap returns the underlying sentinel so errors.Is works
func (e *ProviderError) Unwrap() error {
	return ErrProviderUnavailable
}

// NewProviderError creates a ProviderError for a failed provider call
func NewProviderError(op string, statusCode int, body string) *ProviderError {
	return &ProviderError{Op: op, StatusCode: statusCode, Body: body}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrLeadNotFound) ||
		errors.Is(err, ErrMessageNotFound)
}

// IsDuplicateEntry checks if the error is a duplicate entry error
func IsDuplicateEntry(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsProviderError checks if the error came from the messaging provider
func IsProviderError(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

// GetErrorCode returns the appropriate error code for an error
func GetErrorCode(err error) string {
	switch {
	case IsNotFound(err):
		return CodeNotFound
	case IsDuplicateEntry(err):
		return CodeDuplicateEntry
	case IsInvalidInput(err):
		return CodeInvalidInput
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case IsProviderError(err):
		return CodeProviderError
	default:
		return CodeInternalError
	}
}
