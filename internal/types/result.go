package types

import "stackmon/internal/errors"

// StartupResult is returned by every mutating service operation
type StartupResult struct {
	Success         bool             `json:"success"`
	Message         string           `json:"message"`
	StartedServices []string         `json:"started_services"`
	FailedServices  []string         `json:"failed_services"`
	Code            errors.ErrorCode `json:"code,omitempty"`
}

// ServiceOK builds a successful single-service result
func ServiceOK(name, message string) StartupResult {
	return StartupResult{
		Success:         true,
		Message:         message,
		StartedServices: []string{name},
		FailedServices:  []string{},
	}
}

// ServiceFailed builds a failed single-service result from err, keeping its code
func ServiceFailed(name string, err error) StartupResult {
	return StartupResult{
		Success:         false,
		Message:         err.Error(),
		StartedServices: []string{},
		FailedServices:  []string{name},
		Code:            errors.GetCode(err),
	}
}

// Err returns the result as an error, or nil on success
func (r StartupResult) Err() error {
	if r.Success {
		return nil
	}
	code := r.Code
	if code == "" {
		code = errors.ErrInternal
	}
	return errors.New(code, r.Message)
}

// ValidationResult is the outcome of a dependency validation
type ValidationResult struct {
	Success         bool             `json:"success"`
	Message         string           `json:"message"`
	Dependencies    DependencyStatus `json:"dependencies"`
	InstallCommands []string         `json:"install_commands"`
}

// StopResult is returned by stop operations
type StopResult struct {
	Success         bool             `json:"success"`
	Message         string           `json:"message"`
	StoppedServices []string         `json:"stopped_services"`
	FailedServices  []string         `json:"failed_services"`
	Code            errors.ErrorCode `json:"code,omitempty"`
}

// StopOK builds a successful single-service stop result
func StopOK(name, message string) StopResult {
	return StopResult{
		Success:         true,
		Message:         message,
		StoppedServices: []string{name},
		FailedServices:  []string{},
	}
}

// StopFailed builds a failed single-service stop result from err
func StopFailed(name string, err error) StopResult {
	return StopResult{
		Success:         false,
		Message:         err.Error(),
		StoppedServices: []string{},
		FailedServices:  []string{name},
		Code:            errors.GetCode(err),
	}
}

// Err returns the result as an error, or nil on success
func (r StopResult) Err() error {
	if r.Success {
		return nil
	}
	code := r.Code
	if code == "" {
		code = errors.ErrServiceStop
	}
	return errors.New(code, r.Message)
}
