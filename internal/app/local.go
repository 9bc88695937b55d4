package app

import (
	"context"

	"stackmon/internal/cli/commands"
	"stackmon/internal/credentials"
	"stackmon/internal/errors"
	"stackmon/internal/service"
	"stackmon/internal/types"
)

// LocalBackend drives the stack owned by this process
type LocalBackend struct {
	app *App
}

var (
	_ commands.Backend    = (*LocalBackend)(nil)
	_ commands.Supervisor = (*LocalBackend)(nil)
)

func (l *LocalBackend) Health(ctx context.Context, refresh bool) (*types.HealthStatus, error) {
	if refresh {
		return l.app.Monitor.CheckSystemHealth(ctx)
	}
	return l.app.Monitor.Health(ctx)
}

func (l *LocalBackend) Status(ctx context.Context) (*types.SystemStatus, error) {
	return l.app.Monitor.GetSystemStatus(ctx)
}

func (l *LocalBackend) Order(ctx context.Context) ([]string, []string, error) {
	graph := l.app.Services.Graph()
	return graph.StartupOrder(), graph.ShutdownOrder(), nil
}

func (l *LocalBackend) Validate(ctx context.Context) (types.ValidationResult, error) {
	return l.app.Monitor.ValidateDependencies(ctx), nil
}

func (l *LocalBackend) StartServices(ctx context.Context) (types.StartupResult, error) {
	return l.app.Monitor.StartServices(ctx), nil
}

func (l *LocalBackend) StopAllServices(ctx context.Context) (types.StopResult, error) {
	return l.app.Monitor.StopAllServices(ctx), nil
}

func (l *LocalBackend) StartService(ctx context.Context, name string) (types.StartupResult, error) {
	return l.app.Monitor.StartService(ctx, name), nil
}

func (l *LocalBackend) StopService(ctx context.Context, name string) (types.StopResult, error) {
	return l.app.Monitor.StopService(ctx, name), nil
}

func (l *LocalBackend) Logs(ctx context.Context, name string, lines int) ([]string, error) {
	if _, ok := l.app.Services.Controller(name); !ok {
		return nil, errors.UnknownService(name)
	}
	return service.TailLog(l.app.LogDir, name, lines)
}

func (l *LocalBackend) Credentials(ctx context.Context) ([]*credentials.KeyInfo, error) {
	return l.app.Credentials.List(ctx)
}

func (l *LocalBackend) SetCredential(ctx context.Context, provider, key string) (*credentials.KeyInfo, error) {
	return l.app.Credentials.Set(ctx, provider, key)
}

func (l *LocalBackend) RemoveCredential(ctx context.Context, provider string) error {
	return l.app.Credentials.Remove(ctx, provider)
}

// WatchHealth runs the monitoring loop if needed and forwards every sweep
func (l *LocalBackend) WatchHealth(ctx context.Context, fn func(*types.HealthStatus)) error {
	monitor := l.app.Monitor
	updates, unsubscribe := monitor.Subscribe()
	defer unsubscribe()

	if !monitor.IsMonitoring() {
		monitor.StartMonitoring(l.app.Config.Config.Monitor.Interval.Duration)
		defer monitor.StopMonitoring()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case h, ok := <-updates:
			if !ok {
				return nil
			}
			fn(h)
		}
	}
}

// Supervise keeps the started services under monitoring until ctx ends
func (l *LocalBackend) Supervise(ctx context.Context) error {
	monitor := l.app.Monitor
	monitor.StartMonitoring(l.app.Config.Config.Monitor.Interval.Duration)
	<-ctx.Done()
	monitor.StopMonitoring()
	return nil
}

// Close stops what this process started and releases the database
func (l *LocalBackend) Close() error {
	return l.app.Close()
}
