// Package types holds the value types exchanged between the supervisor core
// and its boundary layers.
package types

import (
	"fmt"
	"strings"
)

// ServiceStatus is the observed state of one managed service
type ServiceStatus int

const (
	ServiceStopped ServiceStatus = iota
	ServiceStarting
	ServiceRunning
	ServiceError
	ServiceStopping
)

func (s ServiceStatus) String() string {
	switch s {
	case ServiceStopped:
		return "stopped"
	case ServiceStarting:
		return "starting"
	case ServiceRunning:
		return "running"
	case ServiceError:
		return "error"
	case ServiceStopping:
		return "stopping"
	default:
		return fmt.Sprintf("ServiceStatus(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler
func (s ServiceStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *ServiceStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseServiceStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseServiceStatus parses the lower-case status name
func ParseServiceStatus(v string) (ServiceStatus, error) {
	switch strings.ToLower(v) {
	case "stopped":
		return ServiceStopped, nil
	case "starting":
		return ServiceStarting, nil
	case "running":
		return ServiceRunning, nil
	case "error":
		return ServiceError, nil
	case "stopping":
		return ServiceStopping, nil
	}
	return ServiceStopped, fmt.Errorf("unknown service status %q", v)
}

// OverallStatus is the aggregate verdict of a sweep
type OverallStatus int

const (
	Healthy OverallStatus = iota
	Degraded
	Unhealthy
)

func (s OverallStatus) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	case Unhealthy:
		return "unhealthy"
	default:
		return fmt.Sprintf("OverallStatus(%d)", int(s))
	}
}

func (s OverallStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *OverallStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "healthy":
		*s = Healthy
	case "degraded":
		*s = Degraded
	case "unhealthy":
		*s = Unhealthy
	default:
		return fmt.Errorf("unknown overall status %q", text)
	}
	return nil
}

// IssueSeverity ranks a derived issue
type IssueSeverity int

const (
	SeverityInfo IssueSeverity = iota
	SeverityWarning
	SeverityCritical
)

func (s IssueSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("IssueSeverity(%d)", int(s))
	}
}

func (s IssueSeverity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *IssueSeverity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "info":
		*s = SeverityInfo
	case "warning":
		*s = SeverityWarning
	case "critical":
		*s = SeverityCritical
	default:
		return fmt.Errorf("unknown issue severity %q", text)
	}
	return nil
}
