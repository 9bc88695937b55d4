package service

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/sirupsen/logrus"

	"stackmon/internal/config"
	"stackmon/internal/constants"
	"stackmon/internal/errors"
	"stackmon/internal/logger"
	"stackmon/internal/portcheck"
	"stackmon/internal/types"
)

// PortProber is the part of portcheck the controllers use
type PortProber interface {
	IsPortOpen(ctx context.Context, port int, host string, timeout time.Duration) bool
	WaitForPort(ctx context.Context, port int, host string, timeout, pollInterval time.Duration) bool
}

// EnvironmentFunc returns extra KEY=VALUE pairs for services that ask for credentials
type EnvironmentFunc func(ctx context.Context) []string

// Options configures controllers. Zero fields take the defaults from constants.
type Options struct {
	Host        string
	Launcher    Launcher
	Ports       PortProber
	HTTPClient  *http.Client
	MaxRetries  int
	Retry       RetryPolicy
	Environment EnvironmentFunc
	// LogDir receives one <service>.log per managed process; empty discards output
	LogDir string

	StopGrace          time.Duration
	HealthPollInterval time.Duration
	PortPollInterval   time.Duration
	PortProbeTimeout   time.Duration
}

func (o Options) withDefaults() Options {
	if o.Host == "" {
		o.Host = constants.DefaultProbeHost
	}
	if o.Launcher == nil {
		o.Launcher = ExecLauncher{}
	}
	if o.Ports == nil {
		o.Ports = portcheck.Checker{}
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	if o.MaxRetries < 1 {
		o.MaxRetries = constants.DefaultMaxRetries
	}
	if o.Retry == nil {
		o.Retry = func() backoff.BackOff { return backoff.NewConstantBackOff(constants.DefaultRetryDelay) }
	}
	if o.StopGrace == 0 {
		o.StopGrace = constants.StopGracePeriod
	}
	if o.HealthPollInterval == 0 {
		o.HealthPollInterval = constants.HealthPollInterval
	}
	if o.PortPollInterval == 0 {
		o.PortPollInterval = constants.DefaultPortPollInterval
	}
	if o.PortProbeTimeout == 0 {
		o.PortProbeTimeout = constants.DefaultPortProbeTimeout
	}
	return o
}

// Controller owns the process of one service and drives its
// Stopped -> Starting -> Running -> Stopping -> Stopped lifecycle.
type Controller struct {
	cfg   config.ServiceConfig
	opts  Options
	probe ReadinessProbe
	log   *logrus.Entry

	// op is a one-slot semaphore serializing Start and Stop
	op chan struct{}

	mu          sync.RWMutex
	proc        Process
	startedAt   time.Time
	phase       types.ServiceStatus
	lastErr     error
	cancelStart context.CancelFunc
}

// NewController creates the controller for cfg
func NewController(cfg config.ServiceConfig, probe ReadinessProbe, opts Options) *Controller {
	return &Controller{
		cfg:   cfg,
		opts:  opts.withDefaults(),
		probe: probe,
		log:   logger.ForService(cfg.Name),
		phase: types.ServiceStopped,
		op:    make(chan struct{}, 1),
	}
}

// acquire takes the operation slot or gives up when ctx ends
func (c *Controller) acquire(ctx context.Context) error {
	select {
	case c.op <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) release() {
	<-c.op
}

// Config returns the service definition
func (c *Controller) Config() config.ServiceConfig {
	return c.cfg
}

func (c *Controller) unmanaged() bool {
	_, ok := c.probe.(AlwaysReady)
	return ok
}

// Start brings the service up. It succeeds without side effects when the
// process is already running or when something else already serves the
// port. Otherwise the process is launched and awaited up to MaxRetries
// times, with the retry policy's delay between attempts. A concurrent Stop
// cancels it.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.acquire(ctx); err != nil {
		return errors.Wrap(errors.ErrCancelled, fmt.Sprintf("Start of %s cancelled", c.cfg.Name), err)
	}
	defer c.release()

	if c.unmanaged() {
		return nil
	}
	if c.IsRunning() {
		c.log.Debug("Service already running")
		return nil
	}
	if c.opts.Ports.IsPortOpen(ctx, c.cfg.Port, c.opts.Host, c.opts.PortProbeTimeout) {
		c.log.WithField("port", c.cfg.Port).Info("Port already serving, treating service as ready")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.mu.Lock()
	c.cancelStart = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancelStart = nil
		c.mu.Unlock()
	}()

	c.setPhase(types.ServiceStarting, nil)

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		c.log.WithField("attempt", attempt).Info("Starting service")
		return struct{}{}, c.launchAndWait(ctx)
	},
		backoff.WithBackOff(c.opts.Retry()),
		backoff.WithMaxTries(uint(c.opts.MaxRetries)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.log.WithError(err).WithField("retry_in", next).Warn("Service start attempt failed")
		}),
	)

	if err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCancelled, fmt.Sprintf("Start of %s cancelled", c.cfg.Name), err)
		}
		c.setPhase(types.ServiceError, err)
		c.log.WithError(err).WithField("attempts", attempt).Error("Service failed to start")
		return err
	}

	c.setPhase(types.ServiceRunning, nil)
	c.log.WithField("pid", c.pid()).Info("Service is ready")
	return nil
}

// launchAndWait performs one start attempt
func (c *Controller) launchAndWait(ctx context.Context) error {
	proc, err := c.opts.Launcher.Launch(ctx, c.processSpec(ctx))
	if err != nil {
		return errors.SpawnFailure(c.cfg.Name, err)
	}

	c.mu.Lock()
	c.proc = proc
	c.startedAt = time.Now()
	c.mu.Unlock()

	if err := c.waitReady(ctx, proc); err != nil {
		c.terminate(context.WithoutCancel(ctx), proc)
		c.mu.Lock()
		c.proc = nil
		c.startedAt = time.Time{}
		c.mu.Unlock()
		return err
	}

	go c.watch(proc)
	return nil
}

// waitReady waits up to half the startup timeout for the port, then polls the
// readiness probe until the full timeout. A process exit fails either phase.
func (c *Controller) waitReady(ctx context.Context, proc Process) error {
	timeout := c.cfg.StartupTimeout.Duration
	deadline := time.Now().Add(timeout)

	portCtx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-proc.Done():
			cancel()
		case <-portCtx.Done():
		}
	}()
	open := c.opts.Ports.WaitForPort(portCtx, c.cfg.Port, c.opts.Host, timeout/2, c.opts.PortPollInterval)
	cancel()

	if exited(proc) {
		return errors.UnexpectedExit(c.cfg.Name, proc.Err())
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !open {
		return errors.ReadinessTimeout(c.cfg.Name, timeout).
			WithDetails(fmt.Sprintf("Service: %s, port %d never opened", c.cfg.Name, c.cfg.Port))
	}

	for {
		if c.ready(ctx) {
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return errors.ReadinessTimeout(c.cfg.Name, timeout)
		}
		wait := c.opts.HealthPollInterval
		if wait > remaining {
			wait = remaining
		}

		timer := time.NewTimer(wait)
		select {
		case <-proc.Done():
			timer.Stop()
			return errors.UnexpectedExit(c.cfg.Name, proc.Err())
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// ready runs the readiness probe once, bounded by the health-check timeout
func (c *Controller) ready(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout.Duration)
	defer cancel()
	return c.probe.Ready(ctx, c.cfg.URL(c.opts.Host))
}

// Probe runs the readiness probe once against the service URL
func (c *Controller) Probe(ctx context.Context) bool {
	return c.ready(ctx)
}

// watch records an exit that nobody asked for
func (c *Controller) watch(proc Process) {
	<-proc.Done()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.proc != proc {
		return
	}
	c.proc = nil
	c.phase = types.ServiceError
	c.lastErr = errors.UnexpectedExit(c.cfg.Name, proc.Err())
	c.log.WithError(proc.Err()).Warn("Service process exited unexpectedly")
}

// Stop terminates the owned process: SIGTERM, then SIGKILL after the grace
// period or as soon as ctx ends. It aborts a Start in progress first. It is a
// no-op when no process is owned.
func (c *Controller) Stop(ctx context.Context) error {
	if c.unmanaged() {
		return nil
	}

	c.mu.RLock()
	if c.cancelStart != nil {
		c.cancelStart()
	}
	c.mu.RUnlock()

	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	c.mu.Lock()
	proc := c.proc
	if proc == nil || exited(proc) {
		c.proc = nil
		c.startedAt = time.Time{}
		c.phase = types.ServiceStopped
		c.lastErr = nil
		c.mu.Unlock()
		return nil
	}
	c.proc = nil
	c.phase = types.ServiceStopping
	c.mu.Unlock()

	c.log.WithField("pid", proc.Pid()).Info("Stopping service")
	c.terminate(ctx, proc)

	c.mu.Lock()
	c.startedAt = time.Time{}
	c.phase = types.ServiceStopped
	c.lastErr = nil
	c.mu.Unlock()

	c.log.Info("Service stopped")
	return nil
}

// terminate signals proc and waits for it, killing it after the grace period
// or when ctx ends
func (c *Controller) terminate(ctx context.Context, proc Process) {
	if err := proc.Terminate(); err != nil && !exited(proc) {
		c.log.WithError(err).Debug("Terminate signal failed")
	}

	timer := time.NewTimer(c.opts.StopGrace)
	defer timer.Stop()
	select {
	case <-proc.Done():
		return
	case <-timer.C:
		c.log.WithField("grace", c.opts.StopGrace).Warn("Service did not exit in time, killing")
	case <-ctx.Done():
		c.log.Warn("Stop deadline reached, killing")
	}

	if err := proc.Kill(); err != nil && !exited(proc) {
		c.log.WithError(err).Error("Kill failed")
	}
	<-proc.Done()
}

// IsRunning reports whether the owned process is alive
func (c *Controller) IsRunning() bool {
	if c.unmanaged() {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.proc != nil && !exited(c.proc)
}

// ProcessID returns the pid of the owned process
func (c *Controller) ProcessID() (int, bool) {
	pid := c.pid()
	return pid, pid != 0
}

func (c *Controller) pid() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.proc == nil || exited(c.proc) {
		return 0
	}
	return c.proc.Pid()
}

// Uptime returns the time since the last successful start
func (c *Controller) Uptime() (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.startedAt.IsZero() || c.proc == nil {
		return 0, false
	}
	return time.Since(c.startedAt), true
}

// Phase returns the lifecycle phase the controller is in
func (c *Controller) Phase() types.ServiceStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// LastError returns the failure that put the controller in the error phase
func (c *Controller) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// ResourceUsage samples CPU and memory of the owned process. It returns nil
// when there is no process or it cannot be inspected.
func (c *Controller) ResourceUsage(ctx context.Context) *types.ResourceUsage {
	pid, ok := c.ProcessID()
	if !ok {
		return nil
	}

	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return nil
	}

	usage := &types.ResourceUsage{}
	if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
		usage.CPUPercent = cpu
	}
	if mem, err := p.MemoryPercentWithContext(ctx); err == nil {
		usage.MemoryPercent = mem
	}
	if info, err := p.MemoryInfoWithContext(ctx); err == nil {
		usage.MemoryMB = float64(info.RSS) / 1024 / 1024
	}
	if threads, err := p.NumThreadsWithContext(ctx); err == nil {
		usage.NumThreads = threads
	}
	if created, err := p.CreateTimeWithContext(ctx); err == nil {
		usage.CreateTime = time.UnixMilli(created)
	}
	return usage
}

func (c *Controller) setPhase(phase types.ServiceStatus, err error) {
	c.mu.Lock()
	c.phase = phase
	c.lastErr = err
	c.mu.Unlock()
}

func (c *Controller) processSpec(ctx context.Context) ProcessSpec {
	env := os.Environ()
	keys := make([]string, 0, len(c.cfg.Env))
	for k := range c.cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+c.cfg.Env[k])
	}
	if c.cfg.InjectCredentials && c.opts.Environment != nil {
		env = append(env, c.opts.Environment(ctx)...)
	}

	spec := ProcessSpec{
		Name:    c.cfg.Name,
		Command: c.cfg.Command,
		Args:    c.cfg.Args,
		Dir:     c.cfg.WorkingDir,
		Env:     env,
	}
	if c.opts.LogDir != "" {
		spec.LogPath = LogPath(c.opts.LogDir, c.cfg.Name)
	}
	return spec
}
