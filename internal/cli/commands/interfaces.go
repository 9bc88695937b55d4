package commands

import (
	"context"

	"stackmon/internal/credentials"
	"stackmon/internal/types"

	"github.com/spf13/cobra"
)

// Backend is what the commands drive: the in-process stack or a remote server
type Backend interface {
	Health(ctx context.Context, refresh bool) (*types.HealthStatus, error)
	Status(ctx context.Context) (*types.SystemStatus, error)
	Order(ctx context.Context) (startup, shutdown []string, err error)
	Validate(ctx context.Context) (types.ValidationResult, error)

	StartServices(ctx context.Context) (types.StartupResult, error)
	StopAllServices(ctx context.Context) (types.StopResult, error)
	StartService(ctx context.Context, name string) (types.StartupResult, error)
	StopService(ctx context.Context, name string) (types.StopResult, error)
	Logs(ctx context.Context, name string, lines int) ([]string, error)

	Credentials(ctx context.Context) ([]*credentials.KeyInfo, error)
	SetCredential(ctx context.Context, provider, key string) (*credentials.KeyInfo, error)
	RemoveCredential(ctx context.Context, provider string) error

	// WatchHealth calls fn with every new snapshot until ctx ends
	WatchHealth(ctx context.Context, fn func(*types.HealthStatus)) error
}

// Supervisor is implemented by backends that own the service processes.
// Supervise blocks until ctx ends and then stops everything it started.
type Supervisor interface {
	Supervise(ctx context.Context) error
}

// BackendFunc resolves the backend for a command after flags are parsed
type BackendFunc func(cmd *cobra.Command) (Backend, error)

// ServeFunc runs the HTTP server until ctx ends. Empty host and zero port take the configured values.
type ServeFunc func(ctx context.Context, host string, port int) error
