package types

import (
	"time"

	"github.com/google/uuid"
)

// ResourceUsage is a best-effort sample of a managed process
type ResourceUsage struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float32   `json:"memory_percent"`
	MemoryMB      float64   `json:"memory_mb"`
	NumThreads    int32     `json:"num_threads"`
	CreateTime    time.Time `json:"create_time"`
}

// ServiceHealth is the result of checking one service. It is never modified after creation.
type ServiceHealth struct {
	Name           string         `json:"name"`
	Status         ServiceStatus  `json:"status"`
	Port           int            `json:"port"`
	URL            string         `json:"url"`
	ResponseTimeMS float64        `json:"response_time_ms"`
	LastCheck      time.Time      `json:"last_check"`
	Error          string         `json:"error,omitempty"`
	PID            *int           `json:"pid,omitempty"`
	Resources      *ResourceUsage `json:"resource_usage,omitempty"`
	UptimeSeconds  *float64       `json:"uptime_seconds,omitempty"`
}

// Issue is a problem derived from a sweep, with a suggested fix
type Issue struct {
	ID          string        `json:"id"`
	Severity    IssueSeverity `json:"severity"`
	Component   string        `json:"component"`
	Message     string        `json:"message"`
	Remediation string        `json:"remediation,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// NewIssue stamps a fresh issue with an id and creation time
func NewIssue(severity IssueSeverity, component, message, remediation string) Issue {
	return Issue{
		ID:          uuid.NewString(),
		Severity:    severity,
		Component:   component,
		Message:     message,
		Remediation: remediation,
		CreatedAt:   time.Now(),
	}
}

// DependencyStatus reports the three prerequisite classes checked before startup
type DependencyStatus struct {
	PythonDeps     bool     `json:"python_deps"`
	NodeDeps       bool     `json:"node_deps"`
	APIKeys        bool     `json:"api_keys"`
	MissingPython  []string `json:"missing_python"`
	MissingNode    []string `json:"missing_node"`
	MissingAPIKeys []string `json:"missing_api_keys"`
}

// Satisfied reports whether every prerequisite class passed
func (d DependencyStatus) Satisfied() bool {
	return d.PythonDeps && d.NodeDeps && d.APIKeys
}

// HealthStatus is one sweep's snapshot. The monitor replaces it whole.
type HealthStatus struct {
	Overall      OverallStatus            `json:"overall_status"`
	Services     map[string]ServiceHealth `json:"services"`
	Dependencies DependencyStatus         `json:"dependencies"`
	Issues       []Issue                  `json:"issues"`
	Timestamp    time.Time                `json:"timestamp"`
}

// RunningCount returns the number of services reported as running
func (h *HealthStatus) RunningCount() int {
	n := 0
	for _, svc := range h.Services {
		if svc.Status == ServiceRunning {
			n++
		}
	}
	return n
}

// ResourcePlaceholder is reported alongside the system status until host sampling exists
type ResourcePlaceholder struct {
	CPUUsage    float64 `json:"cpu_usage"`
	MemoryUsage float64 `json:"memory_usage"`
	DiskUsage   float64 `json:"disk_usage"`
}

// SystemStatus augments the cached snapshot for status queries
type SystemStatus struct {
	Health            *HealthStatus       `json:"health"`
	UptimeSeconds     float64             `json:"uptime_seconds"`
	Resources         ResourcePlaceholder `json:"resource_usage"`
	ActiveConnections int                 `json:"active_connections"`
	Monitoring        bool                `json:"monitoring"`
}
