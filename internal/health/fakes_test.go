package health

import (
	"context"
	"sync"

	"stackmon/internal/errors"
	"stackmon/internal/types"
)

type fakeManager struct {
	mu       sync.Mutex
	order    []string
	health   map[string]types.ServiceHealth
	healthFn func(ctx context.Context, name string) (types.ServiceHealth, error)
	startFn  func(ctx context.Context, name string) types.StartupResult

	starts []string
	stops  [][]string
}

func newFakeManager(order ...string) *fakeManager {
	m := &fakeManager{order: order, health: map[string]types.ServiceHealth{}}
	for _, name := range order {
		m.health[name] = types.ServiceHealth{Name: name, Status: types.ServiceRunning}
	}
	return m
}

func (m *fakeManager) ServiceNames() []string { return append([]string(nil), m.order...) }
func (m *fakeManager) StartupOrder() []string { return append([]string(nil), m.order...) }

func (m *fakeManager) StartService(ctx context.Context, name string) types.StartupResult {
	m.mu.Lock()
	m.starts = append(m.starts, name)
	fn := m.startFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, name)
	}
	return types.ServiceOK(name, "started")
}

func (m *fakeManager) StopService(ctx context.Context, name string) types.StopResult {
	return m.StopServices(ctx, []string{name})
}

func (m *fakeManager) StopServices(_ context.Context, names []string) types.StopResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops = append(m.stops, append([]string(nil), names...))
	return types.StopResult{Success: true, StoppedServices: names, FailedServices: []string{}}
}

func (m *fakeManager) StopAllServices(ctx context.Context) types.StopResult {
	order := m.StartupOrder()
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return m.StopServices(ctx, order)
}

func (m *fakeManager) CheckServiceHealth(ctx context.Context, name string) (types.ServiceHealth, error) {
	m.mu.Lock()
	fn := m.healthFn
	h, ok := m.health[name]
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, name)
	}
	if !ok {
		return types.ServiceHealth{}, errors.UnknownService(name)
	}
	return h, nil
}

func (m *fakeManager) GetRunningServices() []string { return []string{} }

func (m *fakeManager) setStatus(name string, status types.ServiceStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.health[name] = types.ServiceHealth{Name: name, Status: status}
}

func (m *fakeManager) startCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.starts...)
}

func (m *fakeManager) stopCalls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.stops...)
}

type fakeValidator struct {
	mu     sync.Mutex
	result types.ValidationResult
	calls  int
}

func okValidation() types.ValidationResult {
	return types.ValidationResult{
		Success: true,
		Message: "All dependencies validated successfully",
		Dependencies: types.DependencyStatus{
			PythonDeps: true, NodeDeps: true, APIKeys: true,
			MissingPython: []string{}, MissingNode: []string{}, MissingAPIKeys: []string{},
		},
		InstallCommands: []string{},
	}
}

func (v *fakeValidator) ValidateAll(context.Context) types.ValidationResult {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	return v.result
}

func (v *fakeValidator) set(r types.ValidationResult) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.result = r
}
