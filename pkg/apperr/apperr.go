// Package apperr defines the structured application error taxonomy.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to API consumers.
const (
	// Auth
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeTokenExpired    = "TOKEN_EXPIRED"

	// Validation
	CodeBadUserInput     = "BAD_USER_INPUT"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeMissingField     = "MISSING_FIELD"

	// Resources
	CodeNotFound      = "NOT_FOUND"
	CodeAlreadyExists = "ALREADY_EXISTS"
	CodeConflict      = "CONFLICT"

	// External / infrastructure
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeDatabaseError      = "DATABASE_ERROR"
	CodeRateLimited        = "RATE_LIMITED"

	// Internal
	CodeInternalError = "INTERNAL_ERROR"
	CodeConfigError   = "CONFIG_ERROR"
)

// AppError is a structured application error carrying an API error code and
// the HTTP status it maps to.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// New creates an AppError with an explicit code, message, and status.
func New(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

// Unauthenticated means no (valid) user identity is present in the request.
func Unauthenticated(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return &AppError{Code: CodeUnauthenticated, Message: message, Status: http.StatusUnauthorized}
}

// Forbidden means the authenticated user's role or firm check failed.
func Forbidden(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return &AppError{Code: CodeForbidden, Message: message, Status: http.StatusForbidden}
}

// BadUserInput means the request payload failed validation.
func BadUserInput(message string) *AppError {
	return &AppError{Code: CodeBadUserInput, Message: message, Status: http.StatusBadRequest}
}

// MissingField flags a required field absent from the payload.
func MissingField(field string) *AppError {
	return &AppError{
		Code:    CodeMissingField,
		Message: fmt.Sprintf("missing required field: %s", field),
		Status:  http.StatusBadRequest,
		Details: map[string]any{"field": field},
	}
}

// NotFound covers both genuinely missing records and records belonging to
// another firm: cross-tenant reads never reveal existence.
func NotFound(resource string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
	}
}

func AlreadyExists(resource string) *AppError {
	return &AppError{
		Code:    CodeAlreadyExists,
		Message: fmt.Sprintf("%s already exists", resource),
		Status:  http.StatusConflict,
	}
}

func Conflict(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message, Status: http.StatusConflict}
}

// ServiceUnavailable covers AI-service failures and other unreachable
// upstreams. The generic message deliberately hides upstream detail.
func ServiceUnavailable(service string, err error) *AppError {
	return &AppError{
		Code:    CodeServiceUnavailable,
		Message: fmt.Sprintf("%s unavailable", service),
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

func DatabaseError(operation string, err error) *AppError {
	return &AppError{
		Code:    CodeDatabaseError,
		Message: fmt.Sprintf("database error: %s", operation),
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// RateLimited signals a per-user quota was exhausted.
func RateLimited(message string, retryAfterSec int) *AppError {
	if message == "" {
		message = "too many requests"
	}
	return &AppError{
		Code:    CodeRateLimited,
		Message: message,
		Status:  http.StatusTooManyRequests,
		Details: map[string]any{"retry_after": retryAfterSec},
	}
}

func Internal(message string) *AppError {
	if message == "" {
		message = "internal server error"
	}
	return &AppError{Code: CodeInternalError, Message: message, Status: http.StatusInternalServerError}
}

func InternalWithError(err error) *AppError {
	return &AppError{
		Code:    CodeInternalError,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// IsAppError reports whether err wraps an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError unwraps err into an AppError, wrapping unknown errors as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return InternalWithError(err)
}

// IsNotFound reports whether err is a NOT_FOUND application error.
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == CodeNotFound
}

// GetHTTPStatus maps any error to an HTTP status code.
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
