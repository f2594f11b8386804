package batch

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricItemsTotal  = "talentmatch_batch_items_total"
	MetricRunDuration = "talentmatch_batch_duration_seconds"
)

// Item status label values.
const (
	StatusSuccess  = "success"
	StatusFailure  = "failure"
	StatusCanceled = "canceled"
)

// Metrics holds Prometheus collectors for batch runs. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	itemsTotal  *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
}

// NewMetrics creates unregistered collectors; call Register to expose them.
func NewMetrics() *Metrics {
	return &Metrics{
		itemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricItemsTotal,
				Help: "Total number of batch items processed by execution mode and status",
			},
			[]string{"mode", "status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricRunDuration,
				Help:    "Histogram of batch run duration in seconds by execution mode",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"mode"},
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
	return []prometheus.Collector{m.itemsTotal, m.runDuration}
}

func (m *Metrics) observeItem(mode Mode, status string) {
	if m == nil {
		return
	}
	m.itemsTotal.WithLabelValues(mode.String(), status).Inc()
}

func (m *Metrics) observeRun(mode Mode, seconds float64) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(mode.String()).Observe(seconds)
}
