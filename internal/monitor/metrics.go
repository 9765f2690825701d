package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	guardmodels "trustrag/internal/guardrails/models"
	"trustrag/internal/monitor/models"
)

type Metrics struct {
	Alerts       *prometheus.CounterVec
	SinkFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Alerts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustrag_security_alerts_total",
			Help: "Security alerts raised by type and severity",
		}, []string{"type", "severity"}),
		SinkFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "trustrag_security_alert_sink_failures_total",
			Help: "Alert deliveries to external sinks that failed",
		}),
	}
}

func (m *Metrics) IncAlert(t models.AlertType, s guardmodels.Severity) {
	if m != nil {
		m.Alerts.WithLabelValues(string(t), string(s)).Inc()
	}
}

func (m *Metrics) IncSinkFailure() {
	if m != nil {
		m.SinkFailures.Inc()
	}
}
