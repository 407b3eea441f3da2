// Package errors provides structured API errors with HTTP status mapping.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/pscheid92/valo/internal/domain"
)

// ErrorType is the category of an error, used for metrics and response formatting.
type ErrorType string

const (
	// TypeValidation indicates invalid input (HTTP 400)
	TypeValidation ErrorType = "validation"
	// TypeNotFound indicates a missing session or resource (HTTP 404)
	TypeNotFound ErrorType = "not_found"
	// TypeConflict indicates an action that had nothing to do (HTTP 409)
	TypeConflict ErrorType = "conflict"
	// TypeCancelled indicates an operation aborted before it finished (HTTP 409)
	TypeCancelled ErrorType = "cancelled"
	// TypeBlocked indicates the session lock is held (HTTP 423)
	TypeBlocked ErrorType = "blocked"
	// TypeRateLimited indicates the client exceeded its request budget (HTTP 429)
	TypeRateLimited ErrorType = "rate_limited"
	// TypeInternal indicates a server-side error (HTTP 500)
	TypeInternal ErrorType = "internal"
	// TypeExternal indicates the image service failed (HTTP 502)
	TypeExternal ErrorType = "external"
)

// Error is a structured error with type, user-facing message, and context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the status code for the error type.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict, TypeCancelled:
		return http.StatusConflict
	case TypeBlocked:
		return http.StatusLocked
	case TypeRateLimited:
		return http.StatusTooManyRequests
	case TypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newError(t ErrorType, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause, Context: make(map[string]any)}
}

// ValidationError creates a validation error (HTTP 400).
func ValidationError(message string) *Error {
	return newError(TypeValidation, message, nil)
}

// NotFoundError creates a not-found error (HTTP 404).
func NotFoundError(message string) *Error {
	return newError(TypeNotFound, message, nil)
}

// ConflictError creates a conflict error (HTTP 409).
func ConflictError(message string) *Error {
	return newError(TypeConflict, message, nil)
}

// BlockedError creates a blocked error (HTTP 423) carrying the lock message.
func BlockedError(message string) *Error {
	return newError(TypeBlocked, message, nil)
}

// CancelledError creates a cancelled error (HTTP 409).
func CancelledError(message string) *Error {
	return newError(TypeCancelled, message, nil)
}

// RateLimitedError creates a rate limit error (HTTP 429).
func RateLimitedError(message string) *Error {
	return newError(TypeRateLimited, message, nil)
}

// InternalError creates an internal error (HTTP 500).
func InternalError(message string, cause error) *Error {
	return newError(TypeInternal, message, cause)
}

// ExternalError creates an image service error (HTTP 502).
func ExternalError(message string, cause error) *Error {
	return newError(TypeExternal, message, cause)
}

// WithContext adds a context field (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrorResponse is the JSON body sent to clients.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

// ToResponse converts an Error to its JSON form.
func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Type:    e.Type,
		Context: e.Context,
	}
}

// AsStructuredError converts any error into a structured Error.
// Structured errors pass through, edit-session errors are mapped by kind,
// and everything else becomes an internal error.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	var blocked *domain.BlockedError
	if errors.As(err, &blocked) {
		return BlockedError(blocked.Message())
	}

	switch {
	case errors.Is(err, domain.ErrNoop):
		return newError(TypeConflict, err.Error(), err)
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrSessionClosed):
		return newError(TypeNotFound, "session not found", err)
	case errors.Is(err, domain.ErrCancelled):
		return newError(TypeCancelled, "operation cancelled", err)
	case errors.Is(err, domain.ErrUnknownParameter),
		errors.Is(err, domain.ErrUnknownMode),
		errors.Is(err, domain.ErrUnknownHandle),
		errors.Is(err, domain.ErrUnknownCropChoice),
		errors.Is(err, domain.ErrInvalidPath),
		errors.Is(err, domain.ErrEmptyImage):
		return newError(TypeValidation, err.Error(), err)
	case errors.Is(err, domain.ErrNetwork):
		return newError(TypeExternal, "image service request failed", err).WithContext("detail", rootDetail(err))
	}

	return InternalError("internal server error", err)
}

// rootDetail returns the message of the innermost NetworkError cause.
func rootDetail(err error) string {
	var netErr *domain.NetworkError
	if errors.As(err, &netErr) && netErr.Err != nil {
		return netErr.Err.Error()
	}
	return err.Error()
}
