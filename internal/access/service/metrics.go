package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	docmodels "trustrag/internal/document/models"
)

// Metrics counts access decisions.
type Metrics struct {
	Decisions *prometheus.CounterVec
	Masked    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustrag_access_decisions_total",
			Help: "Document access decisions by outcome and domain",
		}, []string{"decision", "domain"}),
		Masked: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustrag_access_masked_documents_total",
			Help: "Granted documents that had PII masked, by domain",
		}, []string{"domain"}),
	}
}

func (m *Metrics) IncDecision(granted bool, d docmodels.Domain) {
	if m == nil {
		return
	}
	decision := "denied"
	if granted {
		decision = "granted"
	}
	m.Decisions.WithLabelValues(decision, string(d)).Inc()
}

func (m *Metrics) IncMasked(d docmodels.Domain) {
	if m != nil {
		m.Masked.WithLabelValues(string(d)).Inc()
	}
}
