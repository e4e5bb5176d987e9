package utils

import (
	"fmt"
	"net/http"
)

// Error codes with HTTP status mapping
const (
	// General errors
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeValidationFailed   = "VALIDATION_ERROR"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"

	// Connection registry errors
	ErrCodeConnectionNotFound = "CONNECTION_NOT_FOUND"
	ErrCodeUnsupportedEngine  = "UNSUPPORTED_ENGINE"
	ErrCodeConnectionFailed   = "CONNECTION_FAILED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"

	// Sync errors
	ErrCodeSyncFailed    = "SYNC_FAILED"
	ErrCodeTableNotFound = "TABLE_NOT_FOUND"

	// Dataset errors
	ErrCodeDatasetNotFound = "DATASET_NOT_FOUND"

	// Scheduler errors
	ErrCodeScheduleConfig = "SCHEDULE_CONFIG_ERROR"

	// Authentication errors
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	ErrCodeInvalidToken = "INVALID_TOKEN"

	// Validation error codes
	ErrCodeInvalidUUID       = "INVALID_UUID"
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeInvalidParameters = "INVALID_PARAMETERS"
)

// HTTPStatus maps error codes to HTTP status codes
var HTTPStatus = map[string]int{
	ErrCodeInvalidRequest:     http.StatusBadRequest,
	ErrCodeValidationFailed:   http.StatusUnprocessableEntity,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeInternalError:      http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeRateLimitExceeded:  http.StatusTooManyRequests,

	ErrCodeConnectionNotFound: http.StatusNotFound,
	ErrCodeUnsupportedEngine:  http.StatusBadRequest,
	ErrCodeConnectionFailed:   http.StatusServiceUnavailable,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,

	ErrCodeSyncFailed:    http.StatusInternalServerError,
	ErrCodeTableNotFound: http.StatusNotFound,

	ErrCodeDatasetNotFound: http.StatusNotFound,

	ErrCodeScheduleConfig: http.StatusBadRequest,

	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeInvalidToken: http.StatusUnauthorized,

	ErrCodeInvalidUUID:       http.StatusBadRequest,
	ErrCodeInvalidJSON:       http.StatusBadRequest,
	ErrCodeInvalidParameters: http.StatusBadRequest,
}

// AppError represents an application error with additional context
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for creating errors
type ErrorBuilder struct {
	code    string
	message string
	details string
	cause   error
}

// NewErrorBuilder creates a new error builder
func NewErrorBuilder(code string) *ErrorBuilder {
	return &ErrorBuilder{code: code}
}

// WithMessage sets the error message
func (eb *ErrorBuilder) WithMessage(message string) *ErrorBuilder {
	eb.message = message
	return eb
}

// WithDetails sets the error details
func (eb *ErrorBuilder) WithDetails(details string) *ErrorBuilder {
	eb.details = details
	return eb
}

// WithCause sets the underlying error cause
func (eb *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	eb.cause = cause
	return eb
}

// Build constructs the final AppError
func (eb *ErrorBuilder) Build() *AppError {
	if eb.message == "" {
		eb.message = getDefaultMessage(eb.code)
	}

	return &AppError{
		Code:    eb.code,
		Message: eb.message,
		Details: eb.details,
		Cause:   eb.cause,
	}
}

// getDefaultMessage returns a default message for error codes
func getDefaultMessage(code string) string {
	messages := map[string]string{
		ErrCodeInvalidRequest:     "The request is invalid",
		ErrCodeValidationFailed:   "Validation failed",
		ErrCodeUnauthorized:       "Unauthorized access",
		ErrCodeForbidden:          "Access forbidden",
		ErrCodeNotFound:           "Resource not found",
		ErrCodeConflict:           "Resource conflict",
		ErrCodeInternalError:      "Internal server error",
		ErrCodeServiceUnavailable: "Service temporarily unavailable",
		ErrCodeRateLimitExceeded:  "Rate limit exceeded",

		ErrCodeConnectionNotFound: "Connection not found",
		ErrCodeUnsupportedEngine:  "Unsupported database engine",
		ErrCodeConnectionFailed:   "Database connection failed",
		ErrCodeInvalidCredentials: "Invalid credentials",

		ErrCodeSyncFailed:    "Sync failed",
		ErrCodeTableNotFound: "Table not found on source",

		ErrCodeDatasetNotFound: "Dataset not found",

		ErrCodeScheduleConfig: "Invalid schedule configuration",

		ErrCodeTokenExpired: "Token expired",
		ErrCodeInvalidToken: "Invalid token",

		ErrCodeInvalidUUID:       "Invalid UUID format",
		ErrCodeInvalidJSON:       "Invalid JSON format",
		ErrCodeInvalidParameters: "Invalid parameters",
	}

	if msg, exists := messages[code]; exists {
		return msg
	}
	return "Unknown error"
}

// NewNotFoundError creates a not-found error for a named resource
func NewNotFoundError(resource string) *AppError {
	return NewErrorBuilder(ErrCodeNotFound).
		WithMessage(fmt.Sprintf("%s not found", resource)).
		Build()
}

// NewValidationError creates a validation error
func NewValidationError(message string, details string) *AppError {
	return NewErrorBuilder(ErrCodeValidationFailed).
		WithMessage(message).
		WithDetails(details).
		Build()
}

// GetErrorStatus returns the HTTP status code for an error
func GetErrorStatus(err error) int {
	if appErr, ok := err.(*AppError); ok {
		if status, exists := HTTPStatus[appErr.Code]; exists {
			return status
		}
	}
	return http.StatusInternalServerError
}
