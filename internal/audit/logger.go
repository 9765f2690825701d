// Package audit records access-control and query events and builds the
// compliance report over them.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	platformaudit "trustrag/pkg/platform/audit"
	"trustrag/pkg/requestcontext"
)

// Emitter persists audit events; *publisher.Publisher satisfies it.
type Emitter interface {
	Emit(ctx context.Context, event platformaudit.Event) error
}

// Reader lists stored events for reporting.
type Reader interface {
	ListSince(ctx context.Context, since time.Time) ([]platformaudit.Event, error)
}

// Logger is the domain-facing audit API.
type Logger struct {
	emitter Emitter
	reader  Reader
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Logger.
type Option func(*Logger)

func WithLogger(l *slog.Logger) Option {
	return func(a *Logger) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Logger) {
		if now != nil {
			a.now = now
		}
	}
}

// New creates an audit Logger.
func New(emitter Emitter, reader Reader, opts ...Option) (*Logger, error) {
	if emitter == nil {
		return nil, errors.New("audit emitter is required")
	}
	if reader == nil {
		return nil, errors.New("audit reader is required")
	}
	a := &Logger{
		emitter: emitter,
		reader:  reader,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// LogAudit writes an audit-grade log line tagged with the event name,
// log_type=audit and the request id when ctx carries one.
func LogAudit(ctx context.Context, logger *slog.Logger, level slog.Level, event platformaudit.AuditEvent, msg string, attrs ...any) {
	if logger == nil {
		return
	}
	attrs = append(attrs, "event", string(event), "log_type", "audit")
	if id := requestcontext.RequestID(ctx); id != "" {
		attrs = append(attrs, "request_id", id)
	}
	logger.Log(ctx, level, msg, attrs...)
}

// LogAccess records a grant or denial. Denials are compliance events, so a
// persistence failure is returned to the caller.
func (a *Logger) LogAccess(ctx context.Context, e AccessEvent) error {
	action := platformaudit.EventAccessGranted
	decision := "granted"
	switch {
	case !e.Granted && e.Framework != "":
		action = platformaudit.EventFrameworkRejected
		decision = "denied"
	case !e.Granted:
		action = platformaudit.EventAccessDenied
		decision = "denied"
	}

	level := slog.LevelInfo
	if !e.Granted {
		level = slog.LevelWarn
	}
	LogAudit(ctx, a.logger, level, action, "access control decision",
		"user", e.User,
		"role", e.Role,
		"domain", e.Domain,
		"document_id", e.DocumentID,
		"decision", decision,
	)

	return a.emitter.Emit(ctx, platformaudit.Event{
		Type:       platformaudit.TypeAccessControl,
		Timestamp:  a.now(),
		UserID:     e.User,
		Role:       e.Role,
		Domain:     e.Domain,
		DocumentID: e.DocumentID,
		Action:     string(action),
		Decision:   decision,
		Reason:     e.Reason,
		Framework:  e.Framework,
		Query:      truncate(e.Query, 200),
		RequestID:  requestcontext.RequestID(ctx),
	})
}

// LogQuery records a processed or blocked query.
func (a *Logger) LogQuery(ctx context.Context, e QueryEvent) error {
	action := platformaudit.EventQueryProcessed
	if e.Blocked {
		action = platformaudit.EventQueryBlocked
	}
	LogAudit(ctx, a.logger, slog.LevelInfo, action, "query audited",
		"user", e.User,
		"role", e.Role,
		"domain", e.Domain,
		"retrieved", e.Retrieved,
		"validated", e.Validated,
		"denied", e.Denied,
		"duration_ms", e.Duration.Milliseconds(),
	)

	return a.emitter.Emit(ctx, platformaudit.Event{
		Type:      platformaudit.TypeQuery,
		Timestamp: a.now(),
		UserID:    e.User,
		Role:      e.Role,
		Domain:    e.Domain,
		Action:    string(action),
		Reason:    e.BlockedBy,
		Query:     truncate(e.Query, 200),
		RequestID: requestcontext.RequestID(ctx),
		Details: map[string]any{
			"retrieved":   e.Retrieved,
			"validated":   e.Validated,
			"denied":      e.Denied,
			"duration_ms": e.Duration.Milliseconds(),
			"session_id":  e.SessionID,
			"department":  e.Department,
		},
	})
}

// ComplianceReport aggregates events from the last days days.
func (a *Logger) ComplianceReport(ctx context.Context, days int) (*ComplianceReport, error) {
	if days <= 0 {
		days = 30
	}
	now := a.now()
	events, err := a.reader.ListSince(ctx, now.AddDate(0, 0, -days))
	if err != nil {
		return nil, fmt.Errorf("load audit events: %w", err)
	}

	report := &ComplianceReport{
		PeriodDays:     days,
		TotalEvents:    len(events),
		DeniedByDomain: map[string]int{},
		Status:         StatusCompliant,
		GeneratedAt:    now,
	}
	for _, e := range events {
		switch platformaudit.AuditEvent(e.Action) {
		case platformaudit.EventAccessGranted:
			report.AccessGranted++
		case platformaudit.EventAccessDenied:
			report.AccessDenied++
			report.DeniedByDomain[e.Domain]++
		case platformaudit.EventFrameworkRejected:
			report.FrameworkDenied++
			report.DeniedByDomain[e.Domain]++
		case platformaudit.EventQueryProcessed:
			report.Queries++
		case platformaudit.EventQueryBlocked:
			report.Queries++
			report.BlockedQueries++
		}
	}
	return report, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
