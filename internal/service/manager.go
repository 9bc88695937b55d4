// Package service supervises the processes of the configured services: one
// Controller per service owns its process, and the Manager routes named
// operations to them in dependency order.
package service

import (
	"context"
	"fmt"
	"time"

	"stackmon/internal/config"
	"stackmon/internal/errors"
	"stackmon/internal/logger"
	"stackmon/internal/types"
)

// Manager is the registry of controllers, built once from the service graph
type Manager struct {
	graph       *config.Graph
	controllers map[string]*Controller
	opts        Options
}

// NewManager creates one controller per configured service, choosing its
// readiness probe from the service's probe kind.
func NewManager(graph *config.Graph, opts Options) *Manager {
	opts = opts.withDefaults()
	m := &Manager{
		graph:       graph,
		controllers: make(map[string]*Controller),
		opts:        opts,
	}
	for _, svc := range graph.Services() {
		probe := ProbeFor(svc.ProbeKind(), opts.HTTPClient)
		m.controllers[svc.Name] = NewController(svc, probe, opts)
	}
	return m
}

// Graph returns the dependency graph the manager was built from
func (m *Manager) Graph() *config.Graph {
	return m.graph
}

// Controller returns the controller of the named service
func (m *Manager) Controller(name string) (*Controller, bool) {
	c, ok := m.controllers[name]
	return c, ok
}

// ServiceNames returns every managed service name
func (m *Manager) ServiceNames() []string {
	return m.graph.AllServiceNames()
}

// StartupOrder returns the dependency-ordered service names
func (m *Manager) StartupOrder() []string {
	return m.graph.StartupOrder()
}

// StartService starts one service. Unknown names yield a failed result.
func (m *Manager) StartService(ctx context.Context, name string) types.StartupResult {
	c, ok := m.controllers[name]
	if !ok {
		return types.ServiceFailed(name, errors.UnknownService(name))
	}
	if err := c.Start(ctx); err != nil {
		return types.ServiceFailed(name, err)
	}
	return types.ServiceOK(name, fmt.Sprintf("Service %s started", name))
}

// StopService stops one service. Unknown names yield a failed result.
func (m *Manager) StopService(ctx context.Context, name string) types.StopResult {
	c, ok := m.controllers[name]
	if !ok {
		return types.StopFailed(name, errors.UnknownService(name))
	}
	if err := c.Stop(ctx); err != nil {
		return types.StopFailed(name, errors.ServiceStopFailed(name, err))
	}
	return types.StopOK(name, fmt.Sprintf("Service %s stopped", name))
}

// StopAllServices stops every service in shutdown order. Failures are
// logged and do not interrupt the remaining stops.
func (m *Manager) StopAllServices(ctx context.Context) types.StopResult {
	return m.StopServices(ctx, m.graph.ShutdownOrder())
}

// StopServices stops the named services in the given order, best effort
func (m *Manager) StopServices(ctx context.Context, names []string) types.StopResult {
	result := types.StopResult{
		Success:         true,
		StoppedServices: []string{},
		FailedServices:  []string{},
	}
	for _, name := range names {
		r := m.StopService(ctx, name)
		if !r.Success {
			logger.ForService(name).WithField("error", r.Message).Error("Failed to stop service")
			result.Success = false
			result.FailedServices = append(result.FailedServices, name)
			continue
		}
		result.StoppedServices = append(result.StoppedServices, name)
	}

	if result.Success {
		result.Message = fmt.Sprintf("Stopped %d services", len(result.StoppedServices))
	} else {
		result.Message = fmt.Sprintf("Failed to stop: %v", result.FailedServices)
	}
	return result
}

// CheckServiceHealth builds a fresh health record for the named service from
// process liveness, port reachability and one readiness probe. A service
// that answers correctly is running even when no owned process exists.
func (m *Manager) CheckServiceHealth(ctx context.Context, name string) (types.ServiceHealth, error) {
	c, ok := m.controllers[name]
	if !ok {
		return types.ServiceHealth{}, errors.UnknownService(name)
	}

	cfg := c.Config()
	start := time.Now()
	health := types.ServiceHealth{
		Name:      name,
		Port:      cfg.Port,
		URL:       cfg.URL(m.opts.Host),
		LastCheck: start,
	}

	if c.unmanaged() {
		health.Status = types.ServiceRunning
		return health, nil
	}

	running := c.IsRunning()
	portOpen := m.opts.Ports.IsPortOpen(ctx, cfg.Port, m.opts.Host, m.opts.PortProbeTimeout)
	probeOK := portOpen && c.Probe(ctx)
	health.ResponseTimeMS = float64(time.Since(start).Microseconds()) / 1000
	phase := c.Phase()

	switch {
	case portOpen && probeOK:
		health.Status = types.ServiceRunning
	case phase == types.ServiceStarting || phase == types.ServiceStopping:
		health.Status = phase
	case portOpen:
		health.Status = types.ServiceError
		health.Error = fmt.Sprintf("Health check failed for %s", health.URL)
	case phase == types.ServiceError:
		health.Status = types.ServiceError
		if err := c.LastError(); err != nil {
			health.Error = err.Error()
		}
	case running:
		health.Status = types.ServiceStopped
		health.Error = fmt.Sprintf("Port %d is not accepting connections", cfg.Port)
	default:
		health.Status = types.ServiceStopped
		health.Error = "Service process is not running"
	}

	if pid, ok := c.ProcessID(); ok {
		health.PID = &pid
		health.Resources = c.ResourceUsage(ctx)
	}
	if uptime, ok := c.Uptime(); ok {
		secs := uptime.Seconds()
		health.UptimeSeconds = &secs
	}
	return health, nil
}

// GetRunningServices lists the services whose owned process is alive
func (m *Manager) GetRunningServices() []string {
	running := []string{}
	for _, name := range m.graph.AllServiceNames() {
		if m.controllers[name].IsRunning() {
			running = append(running, name)
		}
	}
	return running
}
