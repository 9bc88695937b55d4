package health

import (
	"context"
	"sync"
	"testing"
	"time"

	"stackmon/internal/errors"
	"stackmon/internal/types"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMonitor(mgr *fakeManager) (*Monitor, *fakeValidator) {
	v := &fakeValidator{result: okValidation()}
	return NewMonitor(mgr, v, Options{Registerer: prometheus.NewRegistry()}), v
}

func svc(status types.ServiceStatus) types.ServiceHealth {
	return types.ServiceHealth{Status: status}
}

func TestOverallStatus(t *testing.T) {
	warning := types.NewIssue(types.SeverityWarning, "configuration.api_keys", "x", "y")
	critical := types.NewIssue(types.SeverityCritical, "dependencies.python", "x", "y")

	tests := []struct {
		name     string
		services map[string]types.ServiceHealth
		issues   []types.Issue
		want     types.OverallStatus
	}{
		{"all running", map[string]types.ServiceHealth{"a": svc(types.ServiceRunning), "b": svc(types.ServiceRunning)}, nil, types.Healthy},
		{"critical wins", map[string]types.ServiceHealth{"a": svc(types.ServiceRunning)}, []types.Issue{warning, critical}, types.Unhealthy},
		{"none running", map[string]types.ServiceHealth{"a": svc(types.ServiceStopped), "b": svc(types.ServiceStarting)}, nil, types.Unhealthy},
		{"no services", map[string]types.ServiceHealth{}, nil, types.Unhealthy},
		{"partial", map[string]types.ServiceHealth{"a": svc(types.ServiceRunning), "b": svc(types.ServiceStopped)}, nil, types.Degraded},
		{"warning only", map[string]types.ServiceHealth{"a": svc(types.ServiceRunning)}, []types.Issue{warning}, types.Degraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OverallStatus(tt.services, tt.issues))
		})
	}
}

func TestDeriveIssues(t *testing.T) {
	services := map[string]types.ServiceHealth{
		"backend":  {Name: "backend", Status: types.ServiceError, Error: "exit status 1"},
		"frontend": {Name: "frontend", Status: types.ServiceStopped},
		"database": {Name: "database", Status: types.ServiceRunning},
	}
	deps := types.DependencyStatus{
		MissingPython:  []string{"httpx"},
		MissingNode:    []string{"react"},
		MissingAPIKeys: []string{"openai", "gemini"},
	}

	issues := DeriveIssues(services, deps)
	require.Len(t, issues, 5)

	assert.Equal(t, "service.backend", issues[0].Component)
	assert.Equal(t, types.SeverityCritical, issues[0].Severity)
	assert.Equal(t, "Check service logs and restart backend", issues[0].Remediation)
	assert.Contains(t, issues[0].Message, "exit status 1")

	assert.Equal(t, "service.frontend", issues[1].Component)
	assert.Equal(t, types.SeverityWarning, issues[1].Severity)
	assert.Equal(t, "Start frontend service", issues[1].Remediation)

	assert.Equal(t, "dependencies.python", issues[2].Component)
	assert.Equal(t, types.SeverityCritical, issues[2].Severity)
	assert.Equal(t, "Run: pip install -r requirements.txt", issues[2].Remediation)

	assert.Equal(t, "dependencies.node", issues[3].Component)
	assert.Equal(t, "Run: npm install", issues[3].Remediation)

	assert.Equal(t, "configuration.api_keys", issues[4].Component)
	assert.Equal(t, types.SeverityWarning, issues[4].Severity)

	for _, issue := range issues {
		assert.NotEmpty(t, issue.ID)
	}
}

func TestCheckSystemHealth(t *testing.T) {
	mgr := newFakeManager("backend", "frontend")
	m, _ := newTestMonitor(mgr)

	status, err := m.CheckSystemHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.Healthy, status.Overall)
	assert.Len(t, status.Services, 2)
	assert.Empty(t, status.Issues)

	snap, at := m.Snapshot()
	assert.Same(t, status, snap)
	assert.Equal(t, status.Timestamp, at)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.metrics.sweeps))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.metrics.serviceUp.WithLabelValues("backend")))
}

func TestCheckSystemHealth_IsolatesFailures(t *testing.T) {
	mgr := newFakeManager("backend", "frontend", "worker")
	mgr.healthFn = func(_ context.Context, name string) (types.ServiceHealth, error) {
		switch name {
		case "frontend":
			return types.ServiceHealth{}, errors.HealthCheckFailed(name, nil)
		case "worker":
			panic("probe exploded")
		}
		return types.ServiceHealth{Name: name, Status: types.ServiceRunning}, nil
	}
	m, _ := newTestMonitor(mgr)

	status, err := m.CheckSystemHealth(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.ServiceRunning, status.Services["backend"].Status)
	assert.Equal(t, types.ServiceError, status.Services["frontend"].Status)
	assert.Equal(t, types.ServiceError, status.Services["worker"].Status)
	assert.Contains(t, status.Services["worker"].Error, "probe exploded")
	assert.Equal(t, types.Unhealthy, status.Overall)
}

func TestCheckSystemHealth_CancelledKeepsSnapshot(t *testing.T) {
	mgr := newFakeManager("backend")
	m, _ := newTestMonitor(mgr)

	first, err := m.CheckSystemHealth(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	mgr.healthFn = func(ctx context.Context, name string) (types.ServiceHealth, error) {
		cancel()
		return types.ServiceHealth{Name: name, Status: types.ServiceStopped}, nil
	}

	_, err = m.CheckSystemHealth(ctx)
	assert.True(t, errors.HasCode(err, errors.ErrCancelled))

	snap, _ := m.Snapshot()
	assert.Same(t, first, snap)
}

func TestHealth_Staleness(t *testing.T) {
	mgr := newFakeManager("backend")
	m, v := newTestMonitor(mgr)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	first, err := m.Health(context.Background())
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	cached, err := m.Health(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, cached)

	status, err := m.GetSystemStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30.0, status.UptimeSeconds)
	assert.Equal(t, types.ResourcePlaceholder{}, status.Resources)

	now = now.Add(31 * time.Second)
	fresh, err := m.Health(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)
	assert.Equal(t, 2, v.calls)
}

func TestStartServices_Success(t *testing.T) {
	mgr := newFakeManager("database", "backend", "frontend")
	m, _ := newTestMonitor(mgr)

	r := m.StartServices(context.Background())
	assert.True(t, r.Success)
	assert.Equal(t, []string{"database", "backend", "frontend"}, r.StartedServices)
	assert.Empty(t, r.FailedServices)
	assert.Equal(t, []string{"database", "backend", "frontend"}, mgr.startCalls())
	assert.Empty(t, mgr.stopCalls())
}

func TestStartServices_ValidationFailure(t *testing.T) {
	mgr := newFakeManager("backend", "frontend")
	m, v := newTestMonitor(mgr)
	failed := okValidation()
	failed.Success = false
	failed.Message = "Missing dependencies: httpx"
	v.set(failed)

	r := m.StartServices(context.Background())
	assert.False(t, r.Success)
	assert.Equal(t, errors.ErrDependencyMissing, r.Code)
	assert.Equal(t, []string{"backend", "frontend"}, r.FailedServices)
	assert.Empty(t, r.StartedServices)
	assert.Empty(t, mgr.startCalls())
}

func TestStartServices_RollsBackInReverseOrder(t *testing.T) {
	mgr := newFakeManager("database", "backend", "frontend")
	mgr.startFn = func(_ context.Context, name string) types.StartupResult {
		if name == "frontend" {
			return types.ServiceFailed(name, errors.ReadinessTimeout(name, time.Second))
		}
		return types.ServiceOK(name, "started")
	}
	m, _ := newTestMonitor(mgr)

	r := m.StartServices(context.Background())
	assert.False(t, r.Success)
	assert.Equal(t, []string{"database", "backend"}, r.StartedServices)
	assert.Equal(t, []string{"frontend"}, r.FailedServices)
	assert.Equal(t, errors.ErrReadinessTimeout, r.Code)
	assert.Equal(t, [][]string{{"backend", "database"}}, mgr.stopCalls())

	assert.Equal(t, 1.0, promtest.ToFloat64(m.metrics.starts.WithLabelValues("frontend", "failure")))
}

func TestStartServices_SharesInFlightRun(t *testing.T) {
	mgr := newFakeManager("backend")
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	mgr.startFn = func(_ context.Context, name string) types.StartupResult {
		entered <- struct{}{}
		<-release
		return types.ServiceOK(name, "started")
	}
	m, _ := newTestMonitor(mgr)

	var wg sync.WaitGroup
	results := make([]types.StartupResult, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = m.StartServices(context.Background())
	}()
	<-entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1] = m.StartServices(context.Background())
	}()
	// give the second caller time to join
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.True(t, results[0].Success)
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, []string{"backend"}, mgr.startCalls())
}

func TestStopAllServices_InvalidatesSnapshot(t *testing.T) {
	mgr := newFakeManager("backend", "frontend")
	m, _ := newTestMonitor(mgr)

	_, err := m.CheckSystemHealth(context.Background())
	require.NoError(t, err)

	r := m.StopAllServices(context.Background())
	assert.True(t, r.Success)
	assert.Equal(t, [][]string{{"frontend", "backend"}}, mgr.stopCalls())

	snap, _ := m.Snapshot()
	assert.Nil(t, snap)
}

func TestStopAllServices_CancelsStartupInProgress(t *testing.T) {
	mgr := newFakeManager("database", "backend", "frontend")
	entered := make(chan struct{})
	mgr.startFn = func(ctx context.Context, name string) types.StartupResult {
		if name != "backend" {
			return types.ServiceOK(name, "started")
		}
		close(entered)
		<-ctx.Done()
		return types.ServiceFailed(name, errors.Wrap(errors.ErrCancelled, "Start of backend cancelled", ctx.Err()))
	}
	m, _ := newTestMonitor(mgr)

	startResult := make(chan types.StartupResult, 1)
	go func() { startResult <- m.StartServices(context.Background()) }()
	<-entered

	stop := m.StopAllServices(context.Background())
	assert.True(t, stop.Success)

	r := <-startResult
	assert.False(t, r.Success)
	assert.Equal(t, errors.ErrCancelled, r.Code)
	assert.Equal(t, []string{"database"}, r.StartedServices)
	assert.Equal(t, []string{"database", "backend"}, mgr.startCalls())
	// the rollback finishes before stop-all walks the shutdown order
	assert.Equal(t, [][]string{{"database"}, {"frontend", "backend", "database"}}, mgr.stopCalls())
}

func TestMonitoringLoop(t *testing.T) {
	mgr := newFakeManager("backend")
	m, _ := newTestMonitor(mgr)

	updates, unsubscribe := m.Subscribe()
	defer unsubscribe()
	assert.Equal(t, 1, m.SubscriberCount())

	m.StartMonitoring(20 * time.Millisecond)
	m.StartMonitoring(time.Hour)
	assert.True(t, m.IsMonitoring())

	for i := 0; i < 2; i++ {
		select {
		case status := <-updates:
			assert.Equal(t, types.Healthy, status.Overall)
		case <-time.After(2 * time.Second):
			t.Fatal("no snapshot from the monitoring loop")
		}
	}

	m.StopMonitoring()
	assert.False(t, m.IsMonitoring())
	m.StopMonitoring()

	unsubscribe()
	assert.Equal(t, 0, m.SubscriberCount())
}

func TestMonitors_HaveIndependentMetrics(t *testing.T) {
	a, _ := newTestMonitor(newFakeManager("backend"))
	b, _ := newTestMonitor(newFakeManager("backend"))

	_, err := a.CheckSystemHealth(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1.0, promtest.ToFloat64(a.metrics.sweeps))
	assert.Equal(t, 0.0, promtest.ToFloat64(b.metrics.sweeps))
}
