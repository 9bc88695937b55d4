package errors

import (
	"fmt"
	"time"
)

// Service lifecycle errors

func UnknownService(name string) *StackmonError {
	return NewWithDetails(ErrUnknownService, "Unknown service", fmt.Sprintf("Service: %s", name)).
		WithContext("service", name)
}

func SpawnFailure(name string, cause error) *StackmonError {
	return WrapWithDetails(ErrSpawnFailure, "Failed to launch service process",
		fmt.Sprintf("Service: %s", name), cause).WithContext("service", name)
}

func ReadinessTimeout(name string, timeout time.Duration) *StackmonError {
	return NewWithDetails(ErrReadinessTimeout, "Service did not become ready",
		fmt.Sprintf("Service: %s, Timeout: %s", name, timeout)).WithContext("service", name)
}

func UnexpectedExit(name string, cause error) *StackmonError {
	return WrapWithDetails(ErrUnexpectedExit, "Service process exited unexpectedly",
		fmt.Sprintf("Service: %s", name), cause).WithContext("service", name)
}

func ServiceStopFailed(name string, cause error) *StackmonError {
	return WrapWithDetails(ErrServiceStop, "Failed to stop service",
		fmt.Sprintf("Service: %s", name), cause).WithContext("service", name)
}

func HealthCheckFailed(name string, cause error) *StackmonError {
	return WrapWithDetails(ErrHealthCheck, "Service health check failed",
		fmt.Sprintf("Service: %s", name), cause).WithContext("service", name)
}

// Network errors

func PortProbeFailure(host string, port int, cause error) *StackmonError {
	return WrapWithDetails(ErrPortProbeFailure, "Port probe failed",
		fmt.Sprintf("Address: %s:%d", host, port), cause)
}

// Prerequisite errors

func DependencyMissing(message string) *StackmonError {
	return NewWithDetails(ErrDependencyMissing, "Dependency validation failed", message)
}

// Configuration errors

func ConfigNotFound(path string) *StackmonError {
	return NewWithDetails(ErrConfigNotFound, "Configuration file not found", fmt.Sprintf("Path: %s", path))
}

func ConfigInvalid(reason string) *StackmonError {
	return NewWithDetails(ErrConfigInvalid, "Invalid configuration", reason)
}

func ConfigParseError(path string, cause error) *StackmonError {
	return WrapWithDetails(ErrConfigParse, "Failed to parse configuration", fmt.Sprintf("Path: %s", path), cause)
}

// Credential errors

func UnknownProvider(provider string) *StackmonError {
	return NewWithDetails(ErrUnknownProvider, "Unknown credential provider", fmt.Sprintf("Provider: %s", provider))
}

func CredentialNotFound(provider string) *StackmonError {
	return NewWithDetails(ErrCredentialNotFound, "Credential not configured", fmt.Sprintf("Provider: %s", provider))
}

// Database errors

func DatabaseConnectionError(cause error) *StackmonError {
	return Wrap(ErrDatabaseConnection, "Failed to connect to database", cause)
}

func DatabaseQueryError(query string, cause error) *StackmonError {
	return WrapWithDetails(ErrDatabaseQuery, "Database query failed", fmt.Sprintf("Query: %s", query), cause)
}

func DatabaseMigrationError(cause error) *StackmonError {
	return Wrap(ErrDatabaseMigration, "Database migration failed", cause)
}

// Validation errors

func ValidationFailed(field, reason string) *StackmonError {
	return NewWithDetails(ErrValidationFailed, "Validation failed", fmt.Sprintf("Field: %s, Reason: %s", field, reason))
}

func InvalidPort(port int) *StackmonError {
	return NewWithDetails(ErrInvalidPort, "Invalid port number", fmt.Sprintf("Port: %d", port))
}

// Internal errors

func InternalError(message string, cause error) *StackmonError {
	return Wrap(ErrInternal, message, cause)
}

func OperationInProgress(operation string) *StackmonError {
	return NewWithDetails(ErrOperationRunning, "Operation already in progress", fmt.Sprintf("Operation: %s", operation))
}
