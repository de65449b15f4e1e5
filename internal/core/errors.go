package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation" // Invalid input
	ErrCatAuth       ErrorCategory = "auth"       // Credentials rejected
	ErrCatForbidden  ErrorCategory = "forbidden"  // Credentials valid but not allowed
	ErrCatRateLimit  ErrorCategory = "rate_limit" // Upstream rate limited
	ErrCatTimeout    ErrorCategory = "timeout"    // Operation timed out
	ErrCatNetwork    ErrorCategory = "network"    // Transport failure
	ErrCatNotFound   ErrorCategory = "not_found"  // Resource not found
	ErrCatExternal   ErrorCategory = "external"   // Upstream service misbehaved
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches another DomainError with the same category and code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{Category: ErrCatValidation, Code: code, Message: message}
}

// ErrAuth creates an authentication error.
func ErrAuth(code, message string) *DomainError {
	return &DomainError{Category: ErrCatAuth, Code: code, Message: message}
}

// ErrForbidden creates an authorization error.
func ErrForbidden(code, message string) *DomainError {
	return &DomainError{Category: ErrCatForbidden, Code: code, Message: message}
}

// ErrRateLimit creates a rate limit error.
func ErrRateLimit(message string) *DomainError {
	return &DomainError{Category: ErrCatRateLimit, Code: CodeRateLimited, Message: message, Retryable: true}
}

// ErrTimeout creates a timeout error.
func ErrTimeout(message string) *DomainError {
	return &DomainError{Category: ErrCatTimeout, Code: CodeTimeout, Message: message, Retryable: true}
}

// ErrNetwork creates a transport error.
func ErrNetwork(message string) *DomainError {
	return &DomainError{Category: ErrCatNetwork, Code: CodeNetwork, Message: message, Retryable: true}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category: ErrCatNotFound,
		Code:     CodeNotFound,
		Message:  fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrExternal creates an upstream service error.
func ErrExternal(code, message string) *DomainError {
	return &DomainError{Category: ErrCatExternal, Code: code, Message: message}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// Predefined error codes
const (
	CodeMissingToken  = "MISSING_TOKEN"
	CodeMalformedAuth = "MALFORMED_AUTHORIZATION"
	CodeTokenMismatch = "TOKEN_MISMATCH"

	CodeInvalidPayload = "INVALID_PAYLOAD"

	CodeRateLimited     = "RATE_LIMITED"
	CodeTimeout         = "TIMEOUT"
	CodeNetwork         = "NETWORK"
	CodeNotFound        = "NOT_FOUND"
	CodeUpstreamStatus  = "UPSTREAM_STATUS"
	CodeUpstreamAuth    = "UPSTREAM_AUTH"
	CodeEmptyCompletion = "EMPTY_COMPLETION"
	CodeDecodeFailed    = "DECODE_FAILED"
	CodeNotConfigured   = "NOT_CONFIGURED"
)
