package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func svc(name string, deps ...string) ServiceConfig {
	return ServiceConfig{Name: name, DependsOn: deps}
}

func indexOf(order []string, name string) int {
	for i, n := range order {
		if n == name {
			return i
		}
	}
	return -1
}

func TestStartupOrderRespectsDependencies(t *testing.T) {
	g := NewGraph([]ServiceConfig{
		svc("frontend", "backend"),
		svc("backend", "database", "cache"),
		svc("database"),
		svc("cache"),
		svc("worker", "database"),
	})

	order := g.StartupOrder()

	assert.Len(t, order, 5)
	assert.ElementsMatch(t, g.AllServiceNames(), order)
	for _, s := range g.Services() {
		for _, dep := range s.DependsOn {
			assert.Less(t, indexOf(order, dep), indexOf(order, s.Name), "%s must follow %s", s.Name, dep)
		}
	}
	// ties are broken by name within a round
	assert.Equal(t, []string{"cache", "database", "backend", "worker", "frontend"}, order)
}

func TestShutdownOrderIsReverse(t *testing.T) {
	g := NewGraph(DefaultServices())

	assert.Equal(t, []string{"backend", "frontend"}, g.StartupOrder())
	assert.Equal(t, []string{"frontend", "backend"}, g.ShutdownOrder())
}

func TestStartupOrderToleratesCycles(t *testing.T) {
	g := NewGraph([]ServiceConfig{
		svc("a", "c"),
		svc("b", "a"),
		svc("c", "b"),
		svc("root"),
		svc("leaf", "root"),
	})

	order := g.StartupOrder()

	assert.Equal(t, []string{"root", "leaf", "a", "b", "c"}, order)
	assert.Equal(t, order, g.StartupOrder(), "ordering must be deterministic")
}

func TestStartupOrderMissingDependency(t *testing.T) {
	g := NewGraph([]ServiceConfig{
		svc("api", "ghost"),
		svc("db"),
	})

	assert.Equal(t, []string{"db", "api"}, g.StartupOrder())
}

func TestProbeKindDefaults(t *testing.T) {
	assert.Equal(t, ProbeStrict, ServiceConfig{Name: "backend"}.ProbeKind())
	assert.Equal(t, ProbeLenient, ServiceConfig{Name: "frontend"}.ProbeKind())
	assert.Equal(t, ProbeAlways, ServiceConfig{Name: "database"}.ProbeKind())
	assert.Equal(t, ProbeLenient, ServiceConfig{Name: "worker"}.ProbeKind())
	assert.Equal(t, ProbeStrict, ServiceConfig{Name: "worker", Probe: ProbeStrict}.ProbeKind())
}

func TestServiceURL(t *testing.T) {
	s := DefaultServices()[0]
	assert.Equal(t, "http://localhost:8000/health", s.URL("localhost"))
}
