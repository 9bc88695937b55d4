package config

import (
	"fmt"
	"sort"
	"time"

	"stackmon/internal/constants"
)

// Probe kinds select the readiness predicate of a service
const (
	ProbeStrict  = "strict"
	ProbeLenient = "lenient"
	ProbeAlways  = "always"
)

// ServiceConfig describes one managed service. It is read-only once loaded.
type ServiceConfig struct {
	Name              string            `toml:"name" yaml:"name" json:"name"`
	Port              int               `toml:"port" yaml:"port" json:"port"`
	HealthPath        string            `toml:"health_path" yaml:"health_path" json:"health_path"`
	Command           string            `toml:"command" yaml:"command" json:"command"`
	Args              []string          `toml:"args" yaml:"args" json:"args"`
	WorkingDir        string            `toml:"working_dir" yaml:"working_dir" json:"working_dir"`
	Env               map[string]string `toml:"env" yaml:"env" json:"env,omitempty"`
	DependsOn         []string          `toml:"depends_on" yaml:"depends_on" json:"depends_on"`
	StartupTimeout    Duration          `toml:"startup_timeout" yaml:"startup_timeout" json:"startup_timeout"`
	HealthTimeout     Duration          `toml:"health_timeout" yaml:"health_timeout" json:"health_timeout"`
	Probe             string            `toml:"probe,omitempty" yaml:"probe,omitempty" json:"probe,omitempty"`
	InjectCredentials bool              `toml:"inject_credentials" yaml:"inject_credentials" json:"inject_credentials"`
}

// URL returns the health-check URL of the service on host
func (sc ServiceConfig) URL(host string) string {
	return fmt.Sprintf("http://%s:%d%s", host, sc.Port, sc.HealthPath)
}

// ProbeKind returns the configured probe kind, falling back to the default for well-known names
func (sc ServiceConfig) ProbeKind() string {
	if sc.Probe != "" {
		return sc.Probe
	}
	switch sc.Name {
	case "backend":
		return ProbeStrict
	case "database":
		return ProbeAlways
	default:
		return ProbeLenient
	}
}

// DefaultServices returns the built-in backend and frontend definitions
func DefaultServices() []ServiceConfig {
	return []ServiceConfig{
		{
			Name:           "backend",
			Port:           constants.DefaultBackendPort,
			HealthPath:     "/health",
			Command:        "uvicorn",
			Args:           []string{"main:app", "--host", "0.0.0.0", "--port", "8000", "--reload"},
			WorkingDir:     "backend",
			StartupTimeout: D(45 * time.Second),
			HealthTimeout:  D(10 * time.Second),
		},
		{
			Name:           "frontend",
			Port:           constants.DefaultFrontendPort,
			HealthPath:     "/",
			Command:        "npm",
			Args:           []string{"run", "dev"},
			WorkingDir:     "frontend",
			Env:            map[string]string{"PORT": "5173"},
			DependsOn:      []string{"backend"},
			StartupTimeout: D(60 * time.Second),
			HealthTimeout:  D(10 * time.Second),
		},
	}
}

// Graph is the dependency graph over the configured services
type Graph struct {
	services map[string]ServiceConfig
}

// NewGraph indexes services by name. Later duplicates replace earlier ones.
func NewGraph(services []ServiceConfig) *Graph {
	g := &Graph{services: make(map[string]ServiceConfig, len(services))}
	for _, svc := range services {
		g.services[svc.Name] = svc
	}
	return g
}

// Service looks up a service by name
func (g *Graph) Service(name string) (ServiceConfig, bool) {
	svc, ok := g.services[name]
	return svc, ok
}

// Services returns every service sorted by name
func (g *Graph) Services() []ServiceConfig {
	out := make([]ServiceConfig, 0, len(g.services))
	for _, name := range g.AllServiceNames() {
		out = append(out, g.services[name])
	}
	return out
}

// AllServiceNames returns the configured names in lexicographic order
func (g *Graph) AllServiceNames() []string {
	names := make([]string, 0, len(g.services))
	for name := range g.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StartupOrder sorts services so that each follows its dependencies.
// Each round takes every remaining service whose dependencies are already
// ordered, sorted by name. When a round selects nothing (a cycle or a
// dependency on an unknown service) the rest is appended in name order.
func (g *Graph) StartupOrder() []string {
	ordered := make([]string, 0, len(g.services))
	placed := make(map[string]bool, len(g.services))
	remaining := g.AllServiceNames()

	for len(remaining) > 0 {
		var ready, blocked []string
		for _, name := range remaining {
			if g.depsPlaced(name, placed) {
				ready = append(ready, name)
			} else {
				blocked = append(blocked, name)
			}
		}

		if len(ready) == 0 {
			return append(ordered, remaining...)
		}

		for _, name := range ready {
			placed[name] = true
		}
		ordered = append(ordered, ready...)
		remaining = blocked
	}

	return ordered
}

// ShutdownOrder is the exact reverse of StartupOrder
func (g *Graph) ShutdownOrder() []string {
	order := g.StartupOrder()
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func (g *Graph) depsPlaced(name string, placed map[string]bool) bool {
	for _, dep := range g.services[name].DependsOn {
		if !placed[dep] {
			return false
		}
	}
	return true
}
