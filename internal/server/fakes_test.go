package server

import (
	"context"
	"sync"

	"stackmon/internal/errors"
	"stackmon/internal/types"
)

type fakeMonitor struct {
	mu       sync.Mutex
	order    []string
	health   *types.HealthStatus
	startAll types.StartupResult
	subs     []chan *types.HealthStatus
	sweeps   int
}

func newFakeMonitor() *fakeMonitor {
	return &fakeMonitor{
		order: []string{"backend", "frontend"},
		health: &types.HealthStatus{
			Overall: types.Degraded,
			Services: map[string]types.ServiceHealth{
				"backend":  {Name: "backend", Status: types.ServiceRunning, Port: 8000},
				"frontend": {Name: "frontend", Status: types.ServiceStopped, Port: 5173},
			},
			Issues: []types.Issue{},
		},
		startAll: types.StartupResult{
			Success:         true,
			Message:         "All services started successfully",
			StartedServices: []string{"backend", "frontend"},
			FailedServices:  []string{},
		},
	}
}

func (f *fakeMonitor) Health(context.Context) (*types.HealthStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.health, nil
}

func (f *fakeMonitor) CheckSystemHealth(context.Context) (*types.HealthStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps++
	return f.health, nil
}

func (f *fakeMonitor) GetSystemStatus(ctx context.Context) (*types.SystemStatus, error) {
	h, _ := f.Health(ctx)
	return &types.SystemStatus{Health: h, UptimeSeconds: 3}, nil
}

func (f *fakeMonitor) ValidateDependencies(context.Context) types.ValidationResult {
	return types.ValidationResult{Success: true, Message: "All dependencies validated successfully", InstallCommands: []string{}}
}

func (f *fakeMonitor) StartupOrder() []string { return append([]string(nil), f.order...) }

func (f *fakeMonitor) StartServices(context.Context) types.StartupResult { return f.startAll }

func (f *fakeMonitor) StopAllServices(context.Context) types.StopResult {
	return types.StopResult{Success: true, StoppedServices: []string{"frontend", "backend"}, FailedServices: []string{}}
}

func (f *fakeMonitor) StartService(_ context.Context, name string) types.StartupResult {
	if _, ok := f.health.Services[name]; !ok {
		return types.ServiceFailed(name, errors.UnknownService(name))
	}
	return types.ServiceOK(name, "Service "+name+" started")
}

func (f *fakeMonitor) StopService(_ context.Context, name string) types.StopResult {
	if _, ok := f.health.Services[name]; !ok {
		return types.StopFailed(name, errors.UnknownService(name))
	}
	return types.StopOK(name, "Service "+name+" stopped")
}

func (f *fakeMonitor) ServiceHealth(_ context.Context, name string) (types.ServiceHealth, error) {
	h, ok := f.health.Services[name]
	if !ok {
		return types.ServiceHealth{}, errors.UnknownService(name)
	}
	return h, nil
}

func (f *fakeMonitor) Subscribe() (<-chan *types.HealthStatus, func()) {
	ch := make(chan *types.HealthStatus, 4)
	f.mu.Lock()
	f.subs = append(f.subs, ch)
	f.mu.Unlock()
	return ch, func() {}
}

func (f *fakeMonitor) publish(status *types.HealthStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		ch <- status
	}
}

func (f *fakeMonitor) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
