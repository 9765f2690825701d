package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	guardmodels "trustrag/internal/guardrails/models"
)

// Metrics holds guardrail counters.
type Metrics struct {
	Checks             *prometheus.CounterVec
	Violations         *prometheus.CounterVec
	ModerationDegraded prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Checks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustrag_guardrail_checks_total",
			Help: "Guardrail checks by stage and outcome",
		}, []string{"stage", "outcome"}),
		Violations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustrag_guardrail_violations_total",
			Help: "Recorded guardrail violations by type and severity",
		}, []string{"type", "severity"}),
		ModerationDegraded: f.NewCounter(prometheus.CounterOpts{
			Name: "trustrag_guardrail_moderation_degraded_total",
			Help: "Moderation calls that failed open",
		}),
	}
}

func (m *Metrics) IncCheck(stage string, passed bool) {
	if m == nil {
		return
	}
	outcome := "blocked"
	if passed {
		outcome = "passed"
	}
	m.Checks.WithLabelValues(stage, outcome).Inc()
}

func (m *Metrics) IncViolation(t guardmodels.ViolationType, s guardmodels.Severity) {
	if m != nil {
		m.Violations.WithLabelValues(string(t), string(s)).Inc()
	}
}

func (m *Metrics) IncModerationDegraded() {
	if m != nil {
		m.ModerationDegraded.Inc()
	}
}
