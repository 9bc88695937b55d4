package cli

import (
	"context"

	"stackmon/internal/cli/commands"
	"stackmon/internal/client"
	"stackmon/internal/credentials"
	"stackmon/internal/types"
)

// RemoteBackend drives a stackmon server through the API client
type RemoteBackend struct {
	client *client.Client
}

var _ commands.Backend = (*RemoteBackend)(nil)

// NewRemoteBackend creates a backend over c
func NewRemoteBackend(c *client.Client) *RemoteBackend {
	return &RemoteBackend{client: c}
}

func (r *RemoteBackend) Health(ctx context.Context, refresh bool) (*types.HealthStatus, error) {
	return r.client.Health(ctx, refresh)
}

func (r *RemoteBackend) Status(ctx context.Context) (*types.SystemStatus, error) {
	return r.client.Status(ctx)
}

func (r *RemoteBackend) Order(ctx context.Context) ([]string, []string, error) {
	order, err := r.client.Order(ctx)
	if err != nil {
		return nil, nil, err
	}
	return order.StartupOrder, order.ShutdownOrder, nil
}

func (r *RemoteBackend) Validate(ctx context.Context) (types.ValidationResult, error) {
	result, err := r.client.Dependencies(ctx)
	if err != nil {
		return types.ValidationResult{}, err
	}
	return *result, nil
}

func (r *RemoteBackend) StartServices(ctx context.Context) (types.StartupResult, error) {
	return r.client.StartServices(ctx)
}

func (r *RemoteBackend) StopAllServices(ctx context.Context) (types.StopResult, error) {
	return r.client.StopAllServices(ctx)
}

func (r *RemoteBackend) StartService(ctx context.Context, name string) (types.StartupResult, error) {
	return r.client.StartService(ctx, name)
}

func (r *RemoteBackend) StopService(ctx context.Context, name string) (types.StopResult, error) {
	return r.client.StopService(ctx, name)
}

func (r *RemoteBackend) Logs(ctx context.Context, name string, lines int) ([]string, error) {
	logs, err := r.client.Logs(ctx, name, lines)
	if err != nil {
		return nil, err
	}
	return logs.Logs, nil
}

func (r *RemoteBackend) Credentials(ctx context.Context) ([]*credentials.KeyInfo, error) {
	return r.client.Credentials(ctx)
}

func (r *RemoteBackend) SetCredential(ctx context.Context, provider, key string) (*credentials.KeyInfo, error) {
	return r.client.SetCredential(ctx, provider, key)
}

func (r *RemoteBackend) RemoveCredential(ctx context.Context, provider string) error {
	return r.client.RemoveCredential(ctx, provider)
}

func (r *RemoteBackend) WatchHealth(ctx context.Context, fn func(*types.HealthStatus)) error {
	return r.client.WatchHealth(ctx, fn)
}
