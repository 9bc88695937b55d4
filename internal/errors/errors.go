// Package errors provides the coded error type used across stackmon.
// Expected failures of the supervisor (a service that never became ready,
// an unknown service name, a missing prerequisite) carry one of the codes
// below so callers can branch on the kind without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique identifier for different error types
type ErrorCode string

const (
	// Service lifecycle errors
	ErrSpawnFailure     ErrorCode = "SPAWN_FAILURE"
	ErrReadinessTimeout ErrorCode = "READINESS_TIMEOUT"
	ErrUnexpectedExit   ErrorCode = "UNEXPECTED_EXIT"
	ErrUnknownService   ErrorCode = "UNKNOWN_SERVICE"
	ErrServiceStop      ErrorCode = "SERVICE_STOP_FAILED"
	ErrHealthCheck      ErrorCode = "HEALTH_CHECK_FAILED"
	ErrOperationRunning ErrorCode = "OPERATION_IN_PROGRESS"

	// Prerequisite errors
	ErrDependencyMissing ErrorCode = "DEPENDENCY_MISSING"

	// Network errors
	ErrPortProbeFailure  ErrorCode = "PORT_PROBE_FAILURE"
	ErrNetworkConnection ErrorCode = "NETWORK_CONNECTION"
	ErrAPICall           ErrorCode = "API_CALL"

	// Configuration errors
	ErrConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrConfigInvalid  ErrorCode = "CONFIG_INVALID"
	ErrConfigParse    ErrorCode = "CONFIG_PARSE"

	// Credential errors
	ErrCredentialNotFound ErrorCode = "CREDENTIAL_NOT_FOUND"
	ErrUnknownProvider    ErrorCode = "UNKNOWN_PROVIDER"

	// Database errors
	ErrDatabaseConnection ErrorCode = "DATABASE_CONNECTION"
	ErrDatabaseQuery      ErrorCode = "DATABASE_QUERY"
	ErrDatabaseMigration  ErrorCode = "DATABASE_MIGRATION"

	// Validation errors
	ErrValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrInvalidPort      ErrorCode = "INVALID_PORT"

	// Internal errors
	ErrInternal  ErrorCode = "INTERNAL_ERROR"
	ErrNotFound  ErrorCode = "NOT_FOUND"
	ErrTimeout   ErrorCode = "TIMEOUT"
	ErrCancelled ErrorCode = "CANCELLED"
	ErrFileRead  ErrorCode = "FILE_READ"
)

// StackmonError represents a structured error with additional context
type StackmonError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *StackmonError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause error
func (e *StackmonError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *StackmonError) WithContext(key string, value interface{}) *StackmonError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails sets the details string
func (e *StackmonError) WithDetails(details string) *StackmonError {
	e.Details = details
	return e
}

// GetHTTPStatus returns the appropriate HTTP status code for this error
func (e *StackmonError) GetHTTPStatus() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}

	switch e.Code {
	case ErrUnknownService, ErrUnknownProvider, ErrCredentialNotFound, ErrConfigNotFound, ErrNotFound:
		return http.StatusNotFound
	case ErrValidationFailed, ErrInvalidInput, ErrInvalidPort, ErrConfigInvalid:
		return http.StatusBadRequest
	case ErrOperationRunning:
		return http.StatusConflict
	case ErrDependencyMissing:
		return http.StatusPreconditionFailed
	case ErrReadinessTimeout, ErrTimeout:
		return http.StatusGatewayTimeout
	case ErrSpawnFailure, ErrUnexpectedExit, ErrPortProbeFailure, ErrNetworkConnection, ErrAPICall:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new StackmonError
func New(code ErrorCode, message string) *StackmonError {
	return &StackmonError{
		Code:    code,
		Message: message,
	}
}

// NewWithDetails creates a new StackmonError with details
func NewWithDetails(code ErrorCode, message, details string) *StackmonError {
	return &StackmonError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Wrap creates a new StackmonError that wraps an existing error
func Wrap(code ErrorCode, message string, cause error) *StackmonError {
	return &StackmonError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithDetails creates a new StackmonError with details that wraps an existing error
func WrapWithDetails(code ErrorCode, message, details string, cause error) *StackmonError {
	return &StackmonError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// As finds the first StackmonError in err's chain
func As(err error) (*StackmonError, bool) {
	var se *StackmonError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// GetCode extracts the error code from an error chain, or "" when none is coded
func GetCode(err error) ErrorCode {
	if se, ok := As(err); ok {
		return se.Code
	}
	return ""
}

// HasCode checks if an error has a specific error code
func HasCode(err error, code ErrorCode) bool {
	return err != nil && GetCode(err) == code
}
