package portcheck

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"stackmon/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) (net.Listener, int) {
	t.Helper()
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	return l, l.Addr().(*net.TCPAddr).Port
}

// freePort returns a port that had a listener a moment ago and has none now
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestIsPortOpen(t *testing.T) {
	ctx := context.Background()
	_, port := listen(t)

	assert.True(t, IsPortOpen(ctx, port, "127.0.0.1", time.Second))
	assert.True(t, IsPortOpen(ctx, port, "localhost", time.Second))
	assert.False(t, IsPortAvailable(ctx, port, "127.0.0.1"))

	closed := freePort(t)
	assert.False(t, IsPortOpen(ctx, closed, "127.0.0.1", time.Second))
	assert.True(t, IsPortAvailable(ctx, closed, "127.0.0.1"))
}

func TestProbeClosedPortIsNotAnError(t *testing.T) {
	open, err := Probe(context.Background(), freePort(t), "127.0.0.1", time.Second)
	assert.False(t, open)
	assert.NoError(t, err)
}

func TestProbeReportsAddressFailure(t *testing.T) {
	open, err := Probe(context.Background(), 70000, "127.0.0.1", time.Second)
	assert.False(t, open)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrPortProbeFailure))
}

func TestWaitForPortOpensLate(t *testing.T) {
	port := freePort(t)

	go func() {
		time.Sleep(2 * time.Second)
		l, err := net.Listen("tcp4", "127.0.0.1:"+strconv.Itoa(port))
		if err != nil {
			return
		}
		t.Cleanup(func() { l.Close() })
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	start := time.Now()
	ok := WaitForPort(context.Background(), port, "127.0.0.1", 5*time.Second, time.Second)
	assert.True(t, ok)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWaitForPortTimesOut(t *testing.T) {
	port := freePort(t)

	start := time.Now()
	ok := WaitForPort(context.Background(), port, "127.0.0.1", 300*time.Millisecond, 100*time.Millisecond)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWaitForPortCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, WaitForPort(ctx, freePort(t), "127.0.0.1", 5*time.Second, time.Second))
}

func TestFindAvailablePort(t *testing.T) {
	ctx := context.Background()
	_, busy := listen(t)

	port, ok := FindAvailablePort(ctx, busy, busy, "127.0.0.1")
	assert.False(t, ok)
	assert.Zero(t, port)

	free := freePort(t)
	port, ok = FindAvailablePort(ctx, free, free+10, "127.0.0.1")
	assert.True(t, ok)
	assert.Equal(t, free, port)
}
