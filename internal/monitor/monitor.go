// Package monitor tracks access denials per user and keeps the security
// alert log.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	guardmodels "trustrag/internal/guardrails/models"
	"trustrag/internal/guardrails/ratelimit"
	"trustrag/internal/monitor/models"
)

// AlertJournal persists alerts; *journal.Journal satisfies it.
type AlertJournal interface {
	Append(ctx context.Context, a models.Alert)
	Snapshot(ctx context.Context) []models.Alert
}

// Sink receives a copy of every alert after it is journaled.
type Sink interface {
	Publish(ctx context.Context, a models.Alert) error
}

const (
	denialWindow       = time.Hour
	defaultMaxDenials  = 10
	defaultAlertLimit  = 50
	defaultSinkTimeout = 5 * time.Second
	denialKeyPrefix    = "denials:"
	defaultManualUser  = "system"
)

// Monitor raises alerts for denials and guardrail escalations.
type Monitor struct {
	journal     AlertJournal
	denials     ratelimit.Limiter
	maxDenials  int
	sinks       []Sink
	sinkTimeout time.Duration
	metrics     *Metrics
	logger      *slog.Logger
	now         func() time.Time

	wg sync.WaitGroup
}

type Option func(*Monitor)

// WithMaxDenialsPerHour sets the excessive-denials threshold.
func WithMaxDenialsPerHour(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.maxDenials = n
		}
	}
}

// WithDenialWindow replaces the process-local denial counter, e.g. with a
// Redis window shared by all replicas.
func WithDenialWindow(l ratelimit.Limiter) Option {
	return func(m *Monitor) {
		if l != nil {
			m.denials = l
		}
	}
}

func WithSink(s Sink) Option {
	return func(m *Monitor) {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
}

func WithSinkTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.sinkTimeout = d
		}
	}
}

func WithMetrics(mt *Metrics) Option {
	return func(m *Monitor) { m.metrics = mt }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

func New(journal AlertJournal, opts ...Option) (*Monitor, error) {
	if journal == nil {
		return nil, errors.New("alert journal is required")
	}
	m := &Monitor{
		journal:     journal,
		maxDenials:  defaultMaxDenials,
		sinkTimeout: defaultSinkTimeout,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.denials == nil {
		m.denials = ratelimit.NewMemory(ratelimit.WithClock(m.now))
	}
	return m, nil
}

// RecordAccessDenial always raises a MEDIUM ACCESS_DENIED alert. Once the
// user reaches the hourly threshold it also raises, and returns, a HIGH
// EXCESSIVE_DENIALS alert.
func (m *Monitor) RecordAccessDenial(ctx context.Context, req models.DenialRequest) models.Alert {
	now := m.now()
	window, err := m.denials.Allow(ctx, denialKeyPrefix+req.User, m.maxDenials, denialWindow)
	if err != nil {
		m.logger.ErrorContext(ctx, "denial window unavailable", "user", req.User, "error", err)
	}

	description := req.Reason
	if description == "" || description == "rbac" {
		description = fmt.Sprintf("Access denied for role '%s' to domain '%s'", req.Role, req.Domain)
	}
	alert := m.AddAlert(ctx, models.Alert{
		Type:        models.AlertAccessDenied,
		Severity:    guardmodels.SeverityMedium,
		Message:     fmt.Sprintf("Access denied: Role '%s' attempted to access '%s' domain", req.Role, req.Domain),
		Description: description,
		Timestamp:   now,
		User:        req.User,
		SessionID:   req.SessionID,
		Domain:      req.Domain,
		Role:        req.Role,
		Query:       req.Query,
	})
	m.logger.WarnContext(ctx, "access denial recorded",
		"user", req.User, "role", req.Role, "domain", req.Domain, "denials_in_window", window.Count)

	if err != nil || window.Count < m.maxDenials {
		return alert
	}

	excessive := m.AddAlert(ctx, models.Alert{
		Type:        models.AlertExcessiveDenials,
		Severity:    guardmodels.SeverityHigh,
		Message:     fmt.Sprintf("Excessive access denials detected: %d denials in last hour", window.Count),
		Description: fmt.Sprintf("%d denials in last hour for user %s", window.Count, req.User),
		Timestamp:   now,
		User:        req.User,
		SessionID:   req.SessionID,
		DenialCount: window.Count,
	})
	m.logger.WarnContext(ctx, "excessive access denials", "user", req.User, "denials_in_window", window.Count)
	return excessive
}

// AddAlert journals a and fans it out to the sinks. Missing ID and
// timestamp are filled in and the query is truncated.
func (m *Monitor) AddAlert(ctx context.Context, a models.Alert) models.Alert {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = m.now()
	}
	a.Timestamp = a.Timestamp.UTC()
	a.Query = truncate(a.Query, models.MaxQueryLen)

	m.journal.Append(ctx, a)
	m.metrics.IncAlert(a.Type, a.Severity)
	m.dispatch(ctx, a)
	return a
}

// CreateAlert raises a manual alert.
func (m *Monitor) CreateAlert(ctx context.Context, req models.CreateAlertRequest) (models.Alert, error) {
	if err := req.Validate(); err != nil {
		return models.Alert{}, err
	}
	user := req.User
	if user == "" {
		user = defaultManualUser
	}
	description := req.Description
	if description == "" {
		description = req.Message
	}
	a := m.AddAlert(ctx, models.Alert{
		Type:           req.Type,
		Severity:       req.Severity,
		Message:        req.Message,
		Description:    description,
		User:           user,
		SessionID:      req.SessionID,
		Query:          req.Query,
		AdditionalData: req.AdditionalData,
	})
	m.logger.WarnContext(ctx, "security alert created", "type", a.Type, "severity", a.Severity, "message", a.Message)
	return a, nil
}

// Alerts returns the newest matching alerts, oldest first.
func (m *Monitor) Alerts(ctx context.Context, f models.AlertFilter) []models.Alert {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultAlertLimit
	}
	all := m.journal.Snapshot(ctx)
	var matched []models.Alert
	for _, a := range all {
		if f.Severity == "" || a.Severity == f.Severity {
			matched = append(matched, a)
		}
	}
	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched
}

// Metrics counts journaled alerts by severity.
func (m *Monitor) Metrics(ctx context.Context) models.SecurityMetrics {
	var out models.SecurityMetrics
	for _, a := range m.journal.Snapshot(ctx) {
		out.TotalAlerts++
		switch a.Severity {
		case guardmodels.SeverityCritical:
			out.CriticalAlerts++
		case guardmodels.SeverityHigh:
			out.HighAlerts++
		case guardmodels.SeverityMedium:
			out.MediumAlerts++
		case guardmodels.SeverityLow:
			out.LowAlerts++
		}
	}
	return out
}

// Close waits for in-flight sink deliveries or until ctx ends.
func (m *Monitor) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dispatch delivers asynchronously; a slow or failing sink never blocks the
// request that raised the alert.
func (m *Monitor) dispatch(ctx context.Context, a models.Alert) {
	if len(m.sinks) == 0 {
		return
	}
	base := context.WithoutCancel(ctx)
	for _, sink := range m.sinks {
		m.wg.Go(func() {
			sctx, cancel := context.WithTimeout(base, m.sinkTimeout)
			defer cancel()
			if err := sink.Publish(sctx, a); err != nil {
				m.metrics.IncSinkFailure()
				m.logger.Warn("alert sink delivery failed", "alert_id", a.ID, "type", a.Type, "error", err)
			}
		})
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
