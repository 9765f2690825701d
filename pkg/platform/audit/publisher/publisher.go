// Package publisher emits audit events to a store with per-category failure
// semantics: compliance events are fail-closed (the caller gets the error and
// must not proceed), security and operations events are best-effort.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	audit "trustrag/pkg/platform/audit"
)

// Publisher writes audit events synchronously.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a publisher over store.
func New(store audit.Store, opts ...Option) (*Publisher, error) {
	if store == nil {
		return nil, fmt.Errorf("audit store is required")
	}
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Emit persists event. The category is derived from the action.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Action == "" {
		return fmt.Errorf("audit event requires Action")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	event.Category = audit.AuditEvent(event.Action).Category()

	start := p.now()
	if err := p.store.Append(ctx, event); err != nil {
		p.metrics.IncPersistFailures(event.Category)
		if event.Category == audit.CategoryCompliance {
			p.logger.ErrorContext(ctx, "CRITICAL: compliance audit failed",
				"action", event.Action,
				"user", event.UserID,
				"error", err,
			)
			return fmt.Errorf("compliance audit persistence failed: %w", err)
		}
		p.logger.WarnContext(ctx, "audit event dropped",
			"action", event.Action,
			"category", event.Category,
			"error", err,
		)
		return nil
	}

	p.metrics.ObservePersistDuration(p.now().Sub(start))
	p.metrics.IncEventsEmitted(event.Category)
	return nil
}
