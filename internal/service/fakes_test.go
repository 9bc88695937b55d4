package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"stackmon/internal/config"
)

type fakeProcess struct {
	pid             int
	ignoreTerminate bool

	mu         sync.Mutex
	done       chan struct{}
	once       sync.Once
	err        error
	terminated int
	killed     int
}

func newFakeProcess(pid int) *fakeProcess {
	return &fakeProcess{pid: pid, done: make(chan struct{})}
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) Terminate() error {
	p.mu.Lock()
	p.terminated++
	p.mu.Unlock()
	if !p.ignoreTerminate {
		p.exit(errors.New("signal: terminated"))
	}
	return nil
}

func (p *fakeProcess) Kill() error {
	p.mu.Lock()
	p.killed++
	p.mu.Unlock()
	p.exit(errors.New("signal: killed"))
	return nil
}

func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *fakeProcess) exit(err error) {
	p.once.Do(func() {
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
		close(p.done)
	})
}

func (p *fakeProcess) counts() (terminated, killed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated, p.killed
}

// fakeLauncher hands out fake processes; launch decides what each attempt does
type fakeLauncher struct {
	mu       sync.Mutex
	specs    []ProcessSpec
	procs    []*fakeProcess
	launchFn func(n int, spec ProcessSpec) (*fakeProcess, error)
}

func (l *fakeLauncher) Launch(_ context.Context, spec ProcessSpec) (Process, error) {
	l.mu.Lock()
	n := len(l.specs)
	l.specs = append(l.specs, spec)
	l.mu.Unlock()

	var (
		p   *fakeProcess
		err error
	)
	if l.launchFn != nil {
		p, err = l.launchFn(n, spec)
	} else {
		p = newFakeProcess(1000 + n)
	}
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.procs = append(l.procs, p)
	l.mu.Unlock()
	return p, nil
}

func (l *fakeLauncher) launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.specs)
}

func (l *fakeLauncher) process(i int) *fakeProcess {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.procs[i]
}

// fakePorts is a port table the test opens and closes by hand
type fakePorts struct {
	mu   sync.Mutex
	open map[int]bool
}

func newFakePorts() *fakePorts {
	return &fakePorts{open: make(map[int]bool)}
}

func (f *fakePorts) set(port int, open bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open[port] = open
}

func (f *fakePorts) IsPortOpen(_ context.Context, port int, _ string, _ time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open[port]
}

func (f *fakePorts) WaitForPort(ctx context.Context, port int, host string, timeout, _ time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if f.IsPortOpen(ctx, port, host, 0) {
			return true
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type probeFunc func(ctx context.Context, url string) bool

func (f probeFunc) Ready(ctx context.Context, url string) bool { return f(ctx, url) }

func readyProbe(ready bool) ReadinessProbe {
	return probeFunc(func(context.Context, string) bool { return ready })
}

func testOptions(l Launcher, ports PortProber) Options {
	return Options{
		Launcher:           l,
		Ports:              ports,
		MaxRetries:         3,
		Retry:              func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) },
		StopGrace:          50 * time.Millisecond,
		HealthPollInterval: 10 * time.Millisecond,
		PortPollInterval:   5 * time.Millisecond,
	}
}

func testService(name string, port int, deps ...string) config.ServiceConfig {
	return config.ServiceConfig{
		Name:           name,
		Port:           port,
		HealthPath:     "/health",
		Command:        name + "-server",
		DependsOn:      deps,
		StartupTimeout: config.D(300 * time.Millisecond),
		HealthTimeout:  config.D(50 * time.Millisecond),
	}
}

// bindOnLaunch opens the service port whenever a process is launched
func bindOnLaunch(ports *fakePorts, port int) func(int, ProcessSpec) (*fakeProcess, error) {
	return func(n int, _ ProcessSpec) (*fakeProcess, error) {
		ports.set(port, true)
		p := newFakeProcess(1000 + n)
		go func() {
			<-p.Done()
			ports.set(port, false)
		}()
		return p, nil
	}
}
