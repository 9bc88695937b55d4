// Package health aggregates service and dependency checks into a single
// verdict, sequences stack startup with rollback, and runs the background
// monitoring loop.
package health

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"stackmon/internal/constants"
	"stackmon/internal/errors"
	"stackmon/internal/logger"
	"stackmon/internal/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ServiceManager is the part of service.Manager the monitor drives
type ServiceManager interface {
	ServiceNames() []string
	StartupOrder() []string
	StartService(ctx context.Context, name string) types.StartupResult
	StopService(ctx context.Context, name string) types.StopResult
	StopServices(ctx context.Context, names []string) types.StopResult
	StopAllServices(ctx context.Context) types.StopResult
	CheckServiceHealth(ctx context.Context, name string) (types.ServiceHealth, error)
	GetRunningServices() []string
}

// DependencyValidator checks prerequisites before startup and during sweeps
type DependencyValidator interface {
	ValidateAll(ctx context.Context) types.ValidationResult
}

// Options configures a Monitor
type Options struct {
	// Staleness bounds how long GetSystemStatus serves the cached snapshot
	Staleness time.Duration
	// Registerer receives the monitor metrics. Nil disables registration.
	Registerer prometheus.Registerer
}

// Monitor is the health aggregator
type Monitor struct {
	services  ServiceManager
	validator DependencyValidator
	staleness time.Duration
	metrics   *Metrics
	log       *logrus.Entry
	now       func() time.Time

	mu        sync.RWMutex
	snapshot  *types.HealthStatus
	lastCheck time.Time

	startup singleflight.Group
	// stack serializes whole-stack startup and stop-all
	stack         sync.Mutex
	startMu       sync.Mutex
	cancelStartup context.CancelFunc

	loopMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	subMu sync.Mutex
	subs  map[chan *types.HealthStatus]struct{}
}

// NewMonitor creates a monitor over services and validator
func NewMonitor(services ServiceManager, validator DependencyValidator, opts Options) *Monitor {
	if opts.Staleness <= 0 {
		opts.Staleness = constants.DefaultSnapshotStaleness
	}
	return &Monitor{
		services:  services,
		validator: validator,
		staleness: opts.Staleness,
		metrics:   NewMetrics(opts.Registerer),
		log:       logger.WithField("component", "health"),
		now:       time.Now,
		subs:      make(map[chan *types.HealthStatus]struct{}),
	}
}

// CheckSystemHealth runs a full sweep and replaces the cached snapshot.
// A sweep whose context ends before it completes leaves the snapshot untouched.
func (m *Monitor) CheckSystemHealth(ctx context.Context) (*types.HealthStatus, error) {
	start := m.now()
	names := m.services.ServiceNames()

	var (
		resMu      sync.Mutex
		results    = make(map[string]types.ServiceHealth, len(names))
		validation types.ValidationResult
	)

	var g errgroup.Group
	for _, name := range names {
		g.Go(func() error {
			h := m.checkService(ctx, name)
			resMu.Lock()
			results[name] = h
			resMu.Unlock()
			return nil
		})
	}
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				m.log.WithField("panic", r).Error("Dependency validation panicked")
				validation = types.ValidationResult{Dependencies: types.DependencyStatus{
					MissingPython:  []string{fmt.Sprintf("Error checking dependencies: %v", r)},
					MissingNode:    []string{},
					MissingAPIKeys: []string{},
				}}
			}
		}()
		validation = m.validator.ValidateAll(ctx)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCancelled, "health sweep cancelled", err)
	}

	issues := DeriveIssues(results, validation.Dependencies)
	status := &types.HealthStatus{
		Overall:      OverallStatus(results, issues),
		Services:     results,
		Dependencies: validation.Dependencies,
		Issues:       issues,
		Timestamp:    m.now(),
	}

	m.mu.Lock()
	m.snapshot = status
	m.lastCheck = status.Timestamp
	m.mu.Unlock()

	elapsed := m.now().Sub(start)
	m.metrics.recordSweep(status, elapsed)
	m.publish(status)

	m.log.WithFields(logger.Fields{
		"overall":  status.Overall.String(),
		"running":  status.RunningCount(),
		"services": len(results),
		"issues":   len(issues),
		"elapsed":  elapsed,
	}).Debug("Health sweep complete")
	return status, nil
}

// checkService never fails: errors and panics become an Error record
func (m *Monitor) checkService(ctx context.Context, name string) (h types.ServiceHealth) {
	failed := func(msg string) types.ServiceHealth {
		return types.ServiceHealth{
			Name:      name,
			Status:    types.ServiceError,
			LastCheck: m.now(),
			Error:     msg,
		}
	}
	defer func() {
		if r := recover(); r != nil {
			m.log.WithFields(logger.Fields{"service": name, "panic": r}).Error("Health check panicked")
			h = failed(fmt.Sprintf("health check panicked: %v", r))
		}
	}()

	h, err := m.services.CheckServiceHealth(ctx, name)
	if err != nil {
		m.log.WithError(err).WithField("service", name).Warn("Health check failed")
		return failed(err.Error())
	}
	return h
}

// Snapshot returns the cached snapshot and when it was taken, or nil
func (m *Monitor) Snapshot() (*types.HealthStatus, time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot, m.lastCheck
}

// Invalidate drops the cached snapshot
func (m *Monitor) Invalidate() {
	m.mu.Lock()
	m.snapshot = nil
	m.mu.Unlock()
}

// Health returns the cached snapshot while it is fresh, otherwise runs a sweep
func (m *Monitor) Health(ctx context.Context) (*types.HealthStatus, error) {
	if snap, at := m.Snapshot(); snap != nil && m.now().Sub(at) <= m.staleness {
		return snap, nil
	}
	return m.CheckSystemHealth(ctx)
}

// GetSystemStatus reports the current health together with process-level details
func (m *Monitor) GetSystemStatus(ctx context.Context) (*types.SystemStatus, error) {
	status, err := m.Health(ctx)
	if err != nil {
		return nil, err
	}
	_, at := m.Snapshot()
	return &types.SystemStatus{
		Health:            status,
		UptimeSeconds:     m.now().Sub(at).Seconds(),
		Resources:         types.ResourcePlaceholder{},
		ActiveConnections: m.SubscriberCount(),
		Monitoring:        m.IsMonitoring(),
	}, nil
}

// ValidateDependencies runs the prerequisite checks
func (m *Monitor) ValidateDependencies(ctx context.Context) types.ValidationResult {
	return m.validator.ValidateAll(ctx)
}

// StartupOrder returns the dependency-ordered service names
func (m *Monitor) StartupOrder() []string {
	return m.services.StartupOrder()
}

// StartServices validates prerequisites and starts every service in
// dependency order. The first failure rolls back what was started.
// Concurrent callers share one execution and its result. StopAllServices
// cancels a run in progress.
func (m *Monitor) StartServices(ctx context.Context) types.StartupResult {
	v, _, shared := m.startup.Do("start", func() (interface{}, error) {
		m.stack.Lock()
		defer m.stack.Unlock()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		m.startMu.Lock()
		m.cancelStartup = cancel
		m.startMu.Unlock()
		defer func() {
			m.startMu.Lock()
			m.cancelStartup = nil
			m.startMu.Unlock()
		}()

		return m.startServices(ctx), nil
	})
	if shared {
		m.log.Debug("Joined in-flight stack startup")
	}
	return v.(types.StartupResult)
}

func (m *Monitor) startServices(ctx context.Context) types.StartupResult {
	defer m.Invalidate()
	order := m.services.StartupOrder()

	validation := m.validator.ValidateAll(ctx)
	if !validation.Success {
		m.log.WithField("message", validation.Message).Warn("Dependency validation failed, not starting services")
		return types.StartupResult{
			Success:         false,
			Message:         "Dependency validation failed: " + validation.Message,
			StartedServices: []string{},
			FailedServices:  order,
			Code:            errors.ErrDependencyMissing,
		}
	}

	started := []string{}
	for _, name := range order {
		var r types.StartupResult
		if err := ctx.Err(); err != nil {
			r = types.ServiceFailed(name, errors.Wrap(errors.ErrCancelled, "Stack startup cancelled", err))
		} else {
			r = m.services.StartService(ctx, name)
		}
		m.metrics.recordStart(name, r.Success)
		if r.Success {
			started = append(started, name)
			continue
		}

		m.log.WithFields(logger.Fields{
			"service": name,
			"started": started,
			"error":   r.Message,
		}).Error("Service failed to start, rolling back")

		rollback := slices.Clone(started)
		slices.Reverse(rollback)
		// cleanup must run even when the caller has gone away
		if stop := m.services.StopServices(context.WithoutCancel(ctx), rollback); !stop.Success {
			m.log.WithField("failed", stop.FailedServices).Warn("Rollback left services running")
		}

		return types.StartupResult{
			Success:         false,
			Message:         fmt.Sprintf("Failed to start %s: %s", name, r.Message),
			StartedServices: started,
			FailedServices:  []string{name},
			Code:            r.Code,
		}
	}

	m.log.WithField("services", started).Info("All services started")
	return types.StartupResult{
		Success:         true,
		Message:         "All services started successfully",
		StartedServices: started,
		FailedServices:  []string{},
	}
}

// StopAllServices stops every service in shutdown order. A stack startup in
// progress is cancelled and rolled back first.
func (m *Monitor) StopAllServices(ctx context.Context) types.StopResult {
	m.startMu.Lock()
	if m.cancelStartup != nil {
		m.cancelStartup()
	}
	m.startMu.Unlock()

	m.stack.Lock()
	defer m.stack.Unlock()
	defer m.Invalidate()
	return m.services.StopAllServices(ctx)
}

// StartService starts one service
func (m *Monitor) StartService(ctx context.Context, name string) types.StartupResult {
	defer m.Invalidate()
	r := m.services.StartService(ctx, name)
	m.metrics.recordStart(name, r.Success)
	return r
}

// StopService stops one service
func (m *Monitor) StopService(ctx context.Context, name string) types.StopResult {
	defer m.Invalidate()
	return m.services.StopService(ctx, name)
}

// ServiceHealth checks one service without touching the snapshot
func (m *Monitor) ServiceHealth(ctx context.Context, name string) (types.ServiceHealth, error) {
	return m.services.CheckServiceHealth(ctx, name)
}

// RunningServices lists services with a live owned process
func (m *Monitor) RunningServices() []string {
	return m.services.GetRunningServices()
}

// StartMonitoring starts the background loop. It sweeps immediately and then
// every interval. Calling it while the loop runs does nothing.
func (m *Monitor) StartMonitoring(interval time.Duration) {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()

	if m.cancel != nil {
		return
	}
	if interval <= 0 {
		interval = constants.DefaultMonitorInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	go m.loop(ctx, interval, done)
	m.log.WithField("interval", interval).Info("Monitoring started")
}

func (m *Monitor) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := m.CheckSystemHealth(ctx); err != nil && ctx.Err() == nil {
			m.log.WithError(err).Error("Health sweep failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// StopMonitoring cancels the loop and waits for it to exit
func (m *Monitor) StopMonitoring() {
	m.loopMu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.loopMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.log.Info("Monitoring stopped")
}

// IsMonitoring reports whether the background loop runs
func (m *Monitor) IsMonitoring() bool {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()
	return m.cancel != nil
}

// Subscribe returns a channel receiving every completed sweep and a function
// that unsubscribes. Slow subscribers miss snapshots rather than block sweeps.
func (m *Monitor) Subscribe() (<-chan *types.HealthStatus, func()) {
	ch := make(chan *types.HealthStatus, constants.SubscriberBufferSize)

	m.subMu.Lock()
	m.subs[ch] = struct{}{}
	m.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs, ch)
			m.subMu.Unlock()
			close(ch)
		})
	}
}

// SubscriberCount returns the number of active subscribers
func (m *Monitor) SubscriberCount() int {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	return len(m.subs)
}

func (m *Monitor) publish(status *types.HealthStatus) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for ch := range m.subs {
		select {
		case ch <- status:
		default:
			m.log.Debug("Subscriber lagging, snapshot dropped")
		}
	}
}
