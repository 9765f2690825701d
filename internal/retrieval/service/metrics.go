package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds retrieval instrumentation.
type Metrics struct {
	Duration       prometheus.Histogram
	Returned       prometheus.Histogram
	SearchFailures *prometheus.CounterVec
	CacheLookups   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustrag_retrieval_duration_seconds",
			Help:    "Hybrid retrieval latency, cache misses only",
			Buckets: prometheus.DefBuckets,
		}),
		Returned: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustrag_retrieval_documents_returned",
			Help:    "Documents returned per hybrid retrieval",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		SearchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustrag_retrieval_search_failures_total",
			Help: "Sub-search failures treated as empty results",
		}, []string{"method"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustrag_retrieval_cache_lookups_total",
			Help: "Retrieval cache lookups by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveRetrieval(d time.Duration, returned int) {
	if m == nil {
		return
	}
	m.Duration.Observe(d.Seconds())
	m.Returned.Observe(float64(returned))
}

func (m *Metrics) IncSearchFailure(method string) {
	if m != nil {
		m.SearchFailures.WithLabelValues(method).Inc()
	}
}

func (m *Metrics) IncCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
