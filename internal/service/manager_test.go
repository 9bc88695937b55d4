package service

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stackmon/internal/config"
	"stackmon/internal/errors"
	"stackmon/internal/types"
)

func newTestManager(t *testing.T, ports *fakePorts, launcher *fakeLauncher, services ...config.ServiceConfig) *Manager {
	t.Helper()
	return NewManager(config.NewGraph(services), testOptions(launcher, ports))
}

func TestManagerUnknownService(t *testing.T) {
	m := newTestManager(t, newFakePorts(), &fakeLauncher{}, testService("api", 9200))

	start := m.StartService(context.Background(), "ghost")
	assert.False(t, start.Success)
	assert.Equal(t, []string{"ghost"}, start.FailedServices)
	assert.Equal(t, errors.ErrUnknownService, start.Code)

	stop := m.StopService(context.Background(), "ghost")
	assert.False(t, stop.Success)
	assert.Equal(t, errors.ErrUnknownService, stop.Code)

	_, err := m.CheckServiceHealth(context.Background(), "ghost")
	assert.True(t, errors.HasCode(err, errors.ErrUnknownService))
}

func TestManagerChoosesProbeByKind(t *testing.T) {
	db := config.ServiceConfig{Name: "database"}
	backend := testService("backend", 9201)
	frontend := testService("frontend", 9202)
	m := newTestManager(t, newFakePorts(), &fakeLauncher{}, db, backend, frontend)

	c, ok := m.Controller("backend")
	require.True(t, ok)
	assert.IsType(t, StrictProbe{}, c.probe)
	c, _ = m.Controller("frontend")
	assert.IsType(t, LenientProbe{}, c.probe)
	c, _ = m.Controller("database")
	assert.IsType(t, AlwaysReady{}, c.probe)
}

func TestManagerStartAndRunning(t *testing.T) {
	ports := newFakePorts()
	launcher := &fakeLauncher{launchFn: bindOnLaunch(ports, 9203)}
	m := newTestManager(t, ports, launcher, testService("api", 9203), testService("worker", 9204))
	m.controllers["api"].probe = readyProbe(true)

	r := m.StartService(context.Background(), "api")
	require.True(t, r.Success, r.Message)
	assert.Equal(t, []string{"api"}, r.StartedServices)
	assert.Equal(t, []string{"api"}, m.GetRunningServices())
}

func TestManagerStopAllUsesShutdownOrder(t *testing.T) {
	ports := newFakePorts()
	portOf := map[string]int{"db-proxy": 9205, "api": 9206, "web": 9207}
	launcher := &fakeLauncher{launchFn: func(n int, spec ProcessSpec) (*fakeProcess, error) {
		port := portOf[spec.Name]
		ports.set(port, true)
		p := newFakeProcess(1000 + n)
		go func() {
			<-p.Done()
			ports.set(port, false)
		}()
		return p, nil
	}}
	m := newTestManager(t, ports, launcher,
		testService("web", 9207, "api"),
		testService("api", 9206, "db-proxy"),
		testService("db-proxy", 9205),
	)
	for _, c := range m.controllers {
		c.probe = readyProbe(true)
	}

	for _, name := range m.StartupOrder() {
		require.True(t, m.StartService(context.Background(), name).Success)
	}

	r := m.StopAllServices(context.Background())
	require.True(t, r.Success)
	assert.Equal(t, []string{"web", "api", "db-proxy"}, r.StoppedServices)
	assert.Empty(t, m.GetRunningServices())
	for i := 0; i < 3; i++ {
		terminated, _ := launcher.process(i).counts()
		assert.Equal(t, 1, terminated)
	}
}

func TestCheckServiceHealth(t *testing.T) {
	ctx := context.Background()

	t.Run("externally started service is running", func(t *testing.T) {
		ports := newFakePorts()
		ports.set(9210, true)
		m := newTestManager(t, ports, &fakeLauncher{}, testService("api", 9210))
		m.controllers["api"].probe = readyProbe(true)

		h, err := m.CheckServiceHealth(ctx, "api")
		require.NoError(t, err)
		assert.Equal(t, types.ServiceRunning, h.Status)
		assert.Nil(t, h.PID)
		assert.Equal(t, "http://localhost:9210/health", h.URL)
		assert.Empty(t, h.Error)
	})

	t.Run("open port with failing probe is an error", func(t *testing.T) {
		ports := newFakePorts()
		ports.set(9211, true)
		m := newTestManager(t, ports, &fakeLauncher{}, testService("api", 9211))
		m.controllers["api"].probe = readyProbe(false)

		h, err := m.CheckServiceHealth(ctx, "api")
		require.NoError(t, err)
		assert.Equal(t, types.ServiceError, h.Status)
		assert.Contains(t, h.Error, "Health check failed")
	})

	t.Run("nothing running", func(t *testing.T) {
		m := newTestManager(t, newFakePorts(), &fakeLauncher{}, testService("api", 9212))

		h, err := m.CheckServiceHealth(ctx, "api")
		require.NoError(t, err)
		assert.Equal(t, types.ServiceStopped, h.Status)
		assert.Equal(t, "Service process is not running", h.Error)
	})

	t.Run("process alive but port closed", func(t *testing.T) {
		ports := newFakePorts()
		launcher := &fakeLauncher{launchFn: bindOnLaunch(ports, 9213)}
		m := newTestManager(t, ports, launcher, testService("api", 9213))
		m.controllers["api"].probe = readyProbe(true)
		require.True(t, m.StartService(ctx, "api").Success)
		ports.set(9213, false)

		h, err := m.CheckServiceHealth(ctx, "api")
		require.NoError(t, err)
		assert.Equal(t, types.ServiceStopped, h.Status)
		assert.Equal(t, "Port 9213 is not accepting connections", h.Error)
		require.NotNil(t, h.PID)
		assert.Equal(t, 1000, *h.PID)
		assert.NotNil(t, h.UptimeSeconds)
	})

	t.Run("failed start reports error", func(t *testing.T) {
		launcher := &fakeLauncher{launchFn: func(int, ProcessSpec) (*fakeProcess, error) {
			return nil, stderrors.New("no such file")
		}}
		m := newTestManager(t, newFakePorts(), launcher, testService("api", 9214))
		require.False(t, m.StartService(ctx, "api").Success)

		h, err := m.CheckServiceHealth(ctx, "api")
		require.NoError(t, err)
		assert.Equal(t, types.ServiceError, h.Status)
		assert.Contains(t, h.Error, "SPAWN_FAILURE")
	})

	t.Run("unmanaged service", func(t *testing.T) {
		m := newTestManager(t, newFakePorts(), &fakeLauncher{}, config.ServiceConfig{Name: "database"})

		h, err := m.CheckServiceHealth(ctx, "database")
		require.NoError(t, err)
		assert.Equal(t, types.ServiceRunning, h.Status)
	})
}
