package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/poiesic/talentmatch/matching"
)

// Metric names.
const (
	MetricRunsTotal         = "talentmatch_runs_total"
	MetricRunDuration       = "talentmatch_run_duration_seconds"
	MetricDegradationsTotal = "talentmatch_degradations_total"
)

// Metrics holds Prometheus collectors for orchestrated runs. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	runsTotal         *prometheus.CounterVec
	runDuration       prometheus.Histogram
	degradationsTotal *prometheus.CounterVec
}

// NewMetrics creates unregistered collectors; call Register to expose them.
func NewMetrics() *Metrics {
	return &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRunsTotal,
				Help: "Total number of orchestrated runs by status",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricRunDuration,
				Help:    "Histogram of orchestrated run duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
		),
		degradationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricDegradationsTotal,
				Help: "Total number of matching degradations by reason",
			},
			[]string{"reason"},
		),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.runsTotal, m.runDuration, m.degradationsTotal}
}

func (m *Metrics) observeRun(status string, seconds float64) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(seconds)
}

func (m *Metrics) observeDegradation(reason matching.DegradeReason) {
	if m == nil {
		return
	}
	m.degradationsTotal.WithLabelValues(string(reason)).Inc()
}
