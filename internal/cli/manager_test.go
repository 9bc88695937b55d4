package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"stackmon/internal/cli/commands"
	"stackmon/internal/constants"
	"stackmon/internal/logger"
	"stackmon/internal/server"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFactory struct {
	localPath string
	localErr  error
	served    []interface{}
}

func (f *fakeFactory) Local(ctx context.Context, configPath string) (commands.Backend, error) {
	f.localPath = configPath
	return nil, f.localErr
}

func (f *fakeFactory) Serve(ctx context.Context, configPath, host string, port int) error {
	f.served = []interface{}{configPath, host, port}
	return nil
}

func orderServer(t *testing.T) *httptest.Server {
	t.Helper()
	e := echo.New()
	e.GET("/api/services/order", func(c echo.Context) error {
		return c.JSON(http.StatusOK, server.OrderResponse{
			StartupOrder:  []string{"backend", "frontend"},
			ShutdownOrder: []string{"frontend", "backend"},
		})
	})
	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)
	return ts
}

func TestManager_RemoteFlag(t *testing.T) {
	t.Setenv(constants.EnvServer, "")
	ts := orderServer(t)
	factory := &fakeFactory{}
	m := New(factory)

	var out bytes.Buffer
	m.Root().SetOut(&out)
	require.NoError(t, m.Execute([]string{"--server", ts.URL, "order"}))

	assert.Contains(t, out.String(), "startup:  backend -> frontend")
	assert.Empty(t, factory.localPath)
}

func TestManager_RemoteEnv(t *testing.T) {
	ts := orderServer(t)
	t.Setenv(constants.EnvServer, ts.URL)
	m := New(&fakeFactory{})

	var out bytes.Buffer
	m.Root().SetOut(&out)
	require.NoError(t, m.Execute([]string{"order"}))
	assert.Contains(t, out.String(), "shutdown: frontend -> backend")
}

func TestManager_LogsToStderr(t *testing.T) {
	ts := orderServer(t)
	m := New(&fakeFactory{})

	var out, errOut bytes.Buffer
	m.Root().SetOut(&out)
	m.Root().SetErr(&errOut)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
		logger.SetLevel("info")
	})
	require.NoError(t, m.Execute([]string{"--server", ts.URL, "--log-level", "debug", "order"}))

	logger.Debug("after command")
	assert.Contains(t, errOut.String(), "after command")
	assert.NotContains(t, out.String(), "after command")
}

func TestManager_LocalUsesConfigFlag(t *testing.T) {
	t.Setenv(constants.EnvServer, "")
	factory := &fakeFactory{localErr: assert.AnError}
	m := New(factory)

	err := m.Execute([]string{"--config", "/tmp/stackmon.toml", "order"})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, "/tmp/stackmon.toml", factory.localPath)
}

func TestManager_Serve(t *testing.T) {
	t.Setenv(constants.EnvServer, "")
	factory := &fakeFactory{}
	m := New(factory)

	require.NoError(t, m.Execute([]string{"serve", "-c", "cfg.yaml", "--port", "9100"}))
	assert.Equal(t, []interface{}{"cfg.yaml", "", 9100}, factory.served)
}

func TestManager_Commands(t *testing.T) {
	m := New(&fakeFactory{})
	for _, path := range [][]string{
		{"up"}, {"down"}, {"status"}, {"health"}, {"order"}, {"validate"}, {"watch"}, {"serve"},
		{"service", "start"}, {"service", "stop"}, {"service", "logs"},
		{"creds", "list"}, {"creds", "set"}, {"creds", "remove"},
	} {
		cmd, _, err := m.Root().Find(path)
		require.NoError(t, err, path)
		assert.NotEqual(t, m.Root(), cmd, path)
	}
}
