// Package validation holds the input checks shared by config loading,
// the HTTP handlers and the CLI.
package validation

import (
	"path/filepath"
	"regexp"
	"strings"

	"stackmon/internal/constants"
	"stackmon/internal/errors"
)

var (
	// serviceNameRegex validates managed service names
	serviceNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

	// envVarKeyRegex validates environment variable keys
	envVarKeyRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

	// providerRegex validates credential provider identifiers
	providerRegex = regexp.MustCompile(`^[a-z][a-z0-9]*$`)
)

// ServiceName validates the name of a managed service
func ServiceName(name string) error {
	if name == "" {
		return errors.ValidationFailed("service.name", "cannot be empty")
	}
	if len(name) > 64 {
		return errors.ValidationFailed("service.name", "too long (max 64 characters)")
	}
	if !serviceNameRegex.MatchString(name) {
		return errors.ValidationFailed("service.name", "must be lower-case letters, digits, '-' or '_': "+name)
	}
	return nil
}

// PortNumber validates a single port number
func PortNumber(port int) error {
	if port < constants.MinPortNumber || port > constants.MaxPortNumber {
		return errors.InvalidPort(port)
	}
	return nil
}

// EnvironmentKey validates an environment variable name
func EnvironmentKey(key string) error {
	if !envVarKeyRegex.MatchString(key) {
		return errors.ValidationFailed("environment", "invalid variable name: "+key)
	}
	return nil
}

// ProcessCommand validates a process command for safety
func ProcessCommand(command string) error {
	if strings.TrimSpace(command) == "" {
		return errors.ValidationFailed("command", "cannot be empty or only whitespace")
	}

	dangerousCommands := []string{"rm -rf", "sudo", "chmod 777", "chown", "killall"}
	lowerCommand := strings.ToLower(command)

	for _, dangerous := range dangerousCommands {
		if strings.Contains(lowerCommand, dangerous) {
			return errors.ValidationFailed("command", "potentially dangerous command detected: "+dangerous)
		}
	}

	return nil
}

// HealthPath validates an HTTP health-check path
func HealthPath(path string) error {
	if !strings.HasPrefix(path, "/") {
		return errors.ValidationFailed("health_path", "must start with '/': "+path)
	}
	return nil
}

// Provider validates a credential provider identifier
func Provider(provider string) error {
	if !providerRegex.MatchString(provider) {
		return errors.ValidationFailed("provider", "must be a lower-case identifier: "+provider)
	}
	return nil
}

// Path cleans a relative working directory and rejects traversal out of the project
func Path(path string) (string, error) {
	if path == "" {
		return "", errors.ValidationFailed("path", "cannot be empty")
	}

	cleaned := filepath.Clean(path)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.Contains(path, "/../") {
		return "", errors.ValidationFailed("path", "path traversal detected: "+path)
	}
	return cleaned, nil
}

// NonEmptyString validates that a string is not empty or only whitespace
func NonEmptyString(field, s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.ValidationFailed(field, "cannot be empty or only whitespace")
	}
	return nil
}
