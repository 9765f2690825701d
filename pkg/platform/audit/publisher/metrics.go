package publisher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	audit "trustrag/pkg/platform/audit"
)

// Metrics holds Prometheus metrics for audit publishing.
type Metrics struct {
	EventsEmitted   *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
	PersistDuration prometheus.Histogram
}

// NewMetrics registers audit publishing metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EventsEmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustrag_audit_events_emitted_total",
			Help: "Audit events persisted, by category",
		}, []string{"category"}),
		PersistFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustrag_audit_persist_failures_total",
			Help: "Audit events that failed to persist, by category",
		}, []string{"category"}),
		PersistDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustrag_audit_persist_duration_seconds",
			Help:    "Duration of audit store writes",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
	}
}

func (m *Metrics) IncEventsEmitted(c audit.EventCategory) {
	if m != nil {
		m.EventsEmitted.WithLabelValues(string(c)).Inc()
	}
}

func (m *Metrics) IncPersistFailures(c audit.EventCategory) {
	if m != nil {
		m.PersistFailures.WithLabelValues(string(c)).Inc()
	}
}

func (m *Metrics) ObservePersistDuration(d time.Duration) {
	if m != nil {
		m.PersistDuration.Observe(d.Seconds())
	}
}
