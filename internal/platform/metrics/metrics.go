// Package metrics aggregates per-query pipeline statistics for the
// /v1/metrics/queries endpoint and mirrors them into Prometheus.
package metrics

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"trustrag/pkg/platform/ringbuffer"
)

const defaultHistory = 1000

// QueryRecord is one finished (or failed) pipeline query.
type QueryRecord struct {
	User       string
	Role       string
	QueryLen   int
	Retrieval  time.Duration
	Validation time.Duration
	Generation time.Duration
	Total      time.Duration
	Retrieved  int
	Validated  int
	Denied     int
	Success    bool
	Blocked    bool
	Timestamp  time.Time
}

// Summary is the aggregate view over the recorded history.
type Summary struct {
	TotalQueries       int            `json:"total_queries"`
	SuccessfulQueries  int            `json:"successful_queries"`
	FailedQueries      int            `json:"failed_queries"`
	BlockedQueries     int            `json:"blocked_queries"`
	AvgLatencyMS       float64        `json:"avg_latency_ms"`
	P50LatencyMS       float64        `json:"p50_latency_ms"`
	P95LatencyMS       float64        `json:"p95_latency_ms"`
	P99LatencyMS       float64        `json:"p99_latency_ms"`
	DocumentsRetrieved int            `json:"total_documents_retrieved"`
	ValidationDenials  int            `json:"total_validation_denials"`
	QueriesByRole      map[string]int `json:"queries_by_role"`
	DocumentsByRole    map[string]int `json:"documents_by_role"`
	CacheHits          int            `json:"cache_hits"`
	CacheMisses        int            `json:"cache_misses"`
	UptimeSeconds      float64        `json:"uptime_seconds"`
}

// Collector keeps counters and a bounded latency history.
type Collector struct {
	mu        sync.Mutex
	latencies *ringbuffer.RingBuffer[float64]
	counts    Summary
	started   time.Time
	now       func() time.Time
	prom      *promMetrics
}

type Option func(*Collector)

func WithHistory(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.latencies = ringbuffer.New[float64](n)
		}
	}
}

// WithRegisterer mirrors every record into Prometheus.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Collector) {
		if reg != nil {
			c.prom = newPromMetrics(reg)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

func New(opts ...Option) *Collector {
	c := &Collector{
		latencies: ringbuffer.New[float64](defaultHistory),
		counts: Summary{
			QueriesByRole:   map[string]int{},
			DocumentsByRole: map[string]int{},
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.started = c.now()
	return c
}

// RecordQuery adds one query. Total is derived from the stage durations
// when left zero.
func (c *Collector) RecordQuery(r QueryRecord) {
	if r.Total == 0 {
		r.Total = r.Retrieval + r.Validation + r.Generation
	}
	role := r.Role
	if role == "" {
		role = "unknown"
	}

	c.mu.Lock()
	c.latencies.Enqueue(float64(r.Total) / float64(time.Millisecond))
	c.counts.TotalQueries++
	switch {
	case r.Blocked:
		c.counts.BlockedQueries++
	case r.Success:
		c.counts.SuccessfulQueries++
	default:
		c.counts.FailedQueries++
	}
	c.counts.QueriesByRole[role]++
	c.counts.DocumentsByRole[role] += r.Validated
	c.counts.DocumentsRetrieved += r.Retrieved
	c.counts.ValidationDenials += r.Denied
	c.mu.Unlock()

	c.prom.observe(role, r)
}

// RecordCache counts a retrieval cache lookup.
func (c *Collector) RecordCache(hit bool) {
	c.mu.Lock()
	if hit {
		c.counts.CacheHits++
	} else {
		c.counts.CacheMisses++
	}
	c.mu.Unlock()
	c.prom.cache(hit)
}

// Summary computes averages and nearest-rank percentiles over the history.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	s := c.counts
	s.QueriesByRole = maps.Clone(c.counts.QueriesByRole)
	s.DocumentsByRole = maps.Clone(c.counts.DocumentsByRole)
	lat := c.latencies.Snapshot()
	c.mu.Unlock()

	s.UptimeSeconds = c.now().Sub(c.started).Seconds()
	if len(lat) == 0 {
		return s
	}
	var sum float64
	for _, l := range lat {
		sum += l
	}
	s.AvgLatencyMS = sum / float64(len(lat))
	slices.Sort(lat)
	s.P50LatencyMS = percentile(lat, 0.50)
	s.P95LatencyMS = percentile(lat, 0.95)
	s.P99LatencyMS = percentile(lat, 0.99)
	return s
}

func percentile(sorted []float64, p float64) float64 {
	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Reset clears all counters and history.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latencies.DequeueBatch(c.latencies.Len())
	c.counts = Summary{QueriesByRole: map[string]int{}, DocumentsByRole: map[string]int{}}
	c.started = c.now()
}

type promMetrics struct {
	latency   *prometheus.HistogramVec
	documents *prometheus.CounterVec
	queries   *prometheus.CounterVec
	cacheOps  *prometheus.CounterVec
}

func newPromMetrics(reg prometheus.Registerer) *promMetrics {
	f := promauto.With(reg)
	return &promMetrics{
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trustrag_query_duration_seconds",
			Help:    "End-to-end pipeline query latency by role",
			Buckets: prometheus.DefBuckets,
		}, []string{"role"}),
		documents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustrag_query_documents_returned_total",
			Help: "Validated documents returned by role",
		}, []string{"role"}),
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustrag_queries_total",
			Help: "Pipeline queries by role and outcome",
		}, []string{"role", "outcome"}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustrag_query_cache_total",
			Help: "Query cache lookups by result",
		}, []string{"result"}),
	}
}

func (m *promMetrics) observe(role string, r QueryRecord) {
	if m == nil {
		return
	}
	outcome := "failed"
	switch {
	case r.Blocked:
		outcome = "blocked"
	case r.Success:
		outcome = "success"
	}
	m.latency.WithLabelValues(role).Observe(r.Total.Seconds())
	m.documents.WithLabelValues(role).Add(float64(r.Validated))
	m.queries.WithLabelValues(role, outcome).Inc()
}

func (m *promMetrics) cache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheOps.WithLabelValues(result).Inc()
}
