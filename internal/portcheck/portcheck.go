// Package portcheck probes TCP ports. Every function is stateless and safe
// for concurrent use.
package portcheck

import (
	"context"
	stderrors "errors"
	"net"
	"strconv"
	"syscall"
	"time"

	"stackmon/internal/constants"
	"stackmon/internal/errors"
	"stackmon/internal/logger"
)

// Checker exposes the package functions as methods so callers can swap in a fake
type Checker struct{}

func (Checker) IsPortOpen(ctx context.Context, port int, host string, timeout time.Duration) bool {
	return IsPortOpen(ctx, port, host, timeout)
}

func (Checker) WaitForPort(ctx context.Context, port int, host string, timeout, pollInterval time.Duration) bool {
	return WaitForPort(ctx, port, host, timeout, pollInterval)
}

// Probe dials host:port and reports whether something accepted the connection.
// The IPv4 address is tried first; for loopback hosts the IPv6 loopback is
// tried before the port is declared closed. A refused or timed out dial is
// a closed port, not an error. Any other network failure is returned as a
// PORT_PROBE_FAILURE error.
func Probe(ctx context.Context, port int, host string, timeout time.Duration) (bool, error) {
	if host == "" {
		host = constants.DefaultProbeHost
	}

	var lastErr error
	for _, target := range targets(host, port) {
		err := dial(ctx, target.network, target.address, timeout)
		if err == nil {
			return true, nil
		}
		if !isClosed(err) {
			lastErr = err
		}
	}

	if lastErr != nil && ctx.Err() == nil {
		return false, errors.PortProbeFailure(host, port, lastErr)
	}
	return false, nil
}

// IsPortOpen reports whether a connection to host:port succeeds within timeout
func IsPortOpen(ctx context.Context, port int, host string, timeout time.Duration) bool {
	open, err := Probe(ctx, port, host, timeout)
	if err != nil {
		logger.WithError(err).WithField("port", port).Debug("Port probe failed")
	}
	return open
}

// IsPortAvailable reports whether nothing is listening on host:port
func IsPortAvailable(ctx context.Context, port int, host string) bool {
	return !IsPortOpen(ctx, port, host, constants.PortAvailabilityTimeout)
}

// WaitForPort polls host:port every pollInterval until it opens or timeout
// has elapsed. It returns false on timeout or when ctx is cancelled.
func WaitForPort(ctx context.Context, port int, host string, timeout, pollInterval time.Duration) bool {
	deadline := time.Now().Add(timeout)

	for {
		remaining := time.Until(deadline)
		probeTimeout := constants.DefaultPortProbeTimeout
		if remaining > 0 && remaining < probeTimeout {
			probeTimeout = remaining
		}
		if IsPortOpen(ctx, port, host, probeTimeout) {
			return true
		}

		remaining = time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		wait := pollInterval
		if wait > remaining {
			wait = remaining
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
}

// FindAvailablePort returns the first port in [start, end] with nothing listening
func FindAvailablePort(ctx context.Context, start, end int, host string) (int, bool) {
	for port := start; port <= end; port++ {
		if ctx.Err() != nil {
			return 0, false
		}
		if IsPortAvailable(ctx, port, host) {
			return port, true
		}
	}
	return 0, false
}

type target struct {
	network string
	address string
}

func targets(host string, port int) []target {
	p := strconv.Itoa(port)

	ip := net.ParseIP(host)
	if ip != nil && ip.To4() == nil {
		return []target{{"tcp6", net.JoinHostPort(host, p)}}
	}

	out := []target{{"tcp4", net.JoinHostPort(host, p)}}
	if host == "localhost" || (ip != nil && ip.IsLoopback()) {
		out = append(out, target{"tcp6", net.JoinHostPort(constants.LoopbackIPv6, p)})
	}
	return out
}

func dial(ctx context.Context, network, address string, timeout time.Duration) error {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, network, address)
	if err != nil {
		return err
	}
	return conn.Close()
}

// isClosed separates "nothing is listening" from real network failures
func isClosed(err error) bool {
	if stderrors.Is(err, syscall.ECONNREFUSED) || stderrors.Is(err, context.Canceled) ||
		stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// hosts without an IPv6 stack report the loopback as unreachable
	if stderrors.Is(err, syscall.EADDRNOTAVAIL) || stderrors.Is(err, syscall.ENETUNREACH) ||
		stderrors.Is(err, syscall.EAFNOSUPPORT) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
