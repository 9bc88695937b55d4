package health

import (
	"time"

	"stackmon/internal/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records sweep results. Each monitor owns its own set so several can coexist.
type Metrics struct {
	serviceUp     *prometheus.GaugeVec
	responseTime  *prometheus.GaugeVec
	overall       prometheus.Gauge
	issues        *prometheus.GaugeVec
	sweeps        prometheus.Counter
	sweepDuration prometheus.Histogram
	starts        *prometheus.CounterVec
}

// NewMetrics registers the monitor metrics with reg. A nil reg leaves metrics unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		serviceUp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "stackmon",
			Subsystem: "service",
			Name:      "up",
			Help:      "1 when the service was running at the last sweep",
		}, []string{"service"}),
		responseTime: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "stackmon",
			Subsystem: "service",
			Name:      "response_time_seconds",
			Help:      "Duration of the last health check of the service",
		}, []string{"service"}),
		overall: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "stackmon",
			Subsystem: "health",
			Name:      "overall_status",
			Help:      "Overall status of the last sweep: 0 healthy, 1 degraded, 2 unhealthy",
		}),
		issues: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "stackmon",
			Subsystem: "health",
			Name:      "issues",
			Help:      "Issues found by the last sweep",
		}, []string{"severity"}),
		sweeps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "stackmon",
			Subsystem: "health",
			Name:      "sweeps_total",
			Help:      "Completed health sweeps",
		}),
		sweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stackmon",
			Subsystem: "health",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of full health sweeps",
			Buckets:   prometheus.DefBuckets,
		}),
		starts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stackmon",
			Subsystem: "service",
			Name:      "starts_total",
			Help:      "Service start attempts made by stack startups",
		}, []string{"service", "result"}),
	}
}

func (m *Metrics) recordSweep(status *types.HealthStatus, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.sweeps.Inc()
	m.sweepDuration.Observe(elapsed.Seconds())
	m.overall.Set(float64(status.Overall))

	for name, svc := range status.Services {
		up := 0.0
		if svc.Status == types.ServiceRunning {
			up = 1
		}
		m.serviceUp.WithLabelValues(name).Set(up)
		m.responseTime.WithLabelValues(name).Set(svc.ResponseTimeMS / 1000)
	}

	counts := map[types.IssueSeverity]int{}
	for _, issue := range status.Issues {
		counts[issue.Severity]++
	}
	for _, sev := range []types.IssueSeverity{types.SeverityInfo, types.SeverityWarning, types.SeverityCritical} {
		m.issues.WithLabelValues(sev.String()).Set(float64(counts[sev]))
	}
}

func (m *Metrics) recordStart(service string, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.starts.WithLabelValues(service, result).Inc()
}
