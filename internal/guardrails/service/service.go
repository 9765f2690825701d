// Package service is the guardrails gate: rate limits and moderation on
// input, PII detection and moderation on output, with every violation
// journaled and the serious ones escalated to the security monitor.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trustrag/internal/access/models"
	guardmodels "trustrag/internal/guardrails/models"
	"trustrag/internal/guardrails/moderation"
	"trustrag/internal/guardrails/pii"
	"trustrag/internal/guardrails/ratelimit"
	monitormodels "trustrag/internal/monitor/models"
	platformaudit "trustrag/pkg/platform/audit"
	"trustrag/pkg/requestcontext"
)

// ViolationJournal persists violations; *journal.Journal satisfies it.
type ViolationJournal interface {
	Append(ctx context.Context, v guardmodels.Violation)
	Snapshot(ctx context.Context) []guardmodels.Violation
}

// AlertRaiser receives CRITICAL and HIGH violations.
type AlertRaiser interface {
	AddAlert(ctx context.Context, alert monitormodels.Alert) monitormodels.Alert
}

// AuditEmitter records violations in the audit trail.
type AuditEmitter interface {
	Emit(ctx context.Context, event platformaudit.Event) error
}

// Limits are the request ceilings per sliding window.
type Limits struct {
	GlobalPerMinute int
	UserPerHour     int
}

// Features switches individual checks.
type Features struct {
	PIIDetection bool
	Moderation   bool
	RateLimiting bool
}

// PIIPolicy lists the roles whose output is not checked for PII.
type PIIPolicy struct {
	ExemptRoles []models.Role
}

// Config tunes the gate. Zero values take the defaults from DefaultConfig.
type Config struct {
	Limits   Limits
	Features Features
	PII      PIIPolicy
}

func DefaultConfig() Config {
	return Config{
		Limits:   Limits{GlobalPerMinute: 60, UserPerHour: 100},
		Features: Features{PIIDetection: true, Moderation: true, RateLimiting: true},
		PII:      PIIPolicy{ExemptRoles: []models.Role{models.RoleAdmin, models.RoleAnalyst}},
	}
}

const (
	globalWindow = time.Minute
	userWindow   = time.Hour

	defaultViolationLimit = 50
)

// Gate runs the guardrail checks.
type Gate struct {
	cfg        Config
	limiter    ratelimit.Limiter
	classifier moderation.Classifier
	detector   *pii.Detector
	masker     *pii.Detector
	journal    ViolationJournal
	alerts     AlertRaiser
	audit      AuditEmitter
	metrics    *Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

type Option func(*Gate)

func WithConfig(cfg Config) Option {
	return func(g *Gate) {
		if cfg.Limits.GlobalPerMinute > 0 {
			g.cfg.Limits.GlobalPerMinute = cfg.Limits.GlobalPerMinute
		}
		if cfg.Limits.UserPerHour > 0 {
			g.cfg.Limits.UserPerHour = cfg.Limits.UserPerHour
		}
		g.cfg.Features = cfg.Features
		if cfg.PII.ExemptRoles != nil {
			g.cfg.PII.ExemptRoles = slices.Clone(cfg.PII.ExemptRoles)
		}
	}
}

func WithLimiter(l ratelimit.Limiter) Option {
	return func(g *Gate) {
		if l != nil {
			g.limiter = l
		}
	}
}

func WithClassifier(c moderation.Classifier) Option {
	return func(g *Gate) {
		if c != nil {
			g.classifier = c
		}
	}
}

func WithAlertRaiser(a AlertRaiser) Option {
	return func(g *Gate) { g.alerts = a }
}

func WithAuditEmitter(a AuditEmitter) Option {
	return func(g *Gate) { g.audit = a }
}

func WithMetrics(m *Metrics) Option {
	return func(g *Gate) { g.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// New creates a gate. Without options it limits in memory and approves all
// content.
func New(journal ViolationJournal, opts ...Option) (*Gate, error) {
	if journal == nil {
		return nil, errors.New("violation journal is required")
	}
	g := &Gate{
		cfg:        DefaultConfig(),
		limiter:    ratelimit.NewMemory(),
		classifier: moderation.NoopClassifier{},
		detector:   pii.NewDetector(pii.OutputPatterns...),
		masker:     pii.NewDetector(),
		journal:    journal,
		logger:     slog.Default(),
		tracer:     otel.Tracer("trustrag/guardrails"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// InputRequest is a raw user query.
type InputRequest struct {
	Query            string
	User             string
	Role             models.Role
	Domain           string
	SessionID        string
	SkipQueryStorage bool
}

// ValidateInput rate-limits and moderates a query. A rate-limited query is
// never sent to the moderation oracle.
func (g *Gate) ValidateInput(ctx context.Context, req InputRequest) guardmodels.Decision {
	ctx, span := g.tracer.Start(ctx, "guardrails.validate_input",
		trace.WithAttributes(attribute.String("user", req.User), attribute.String("domain", req.Domain)))
	defer span.End()

	storedQuery := req.Query
	if req.SkipQueryStorage {
		storedQuery = ""
	}

	if g.cfg.Features.RateLimiting {
		if v := g.checkRateLimits(ctx, req.User); v != nil {
			g.logger.WarnContext(ctx, "rate limit violation", "user", req.User, "description", v.Description)
			return g.block(ctx, *v, req.User, req.SessionID, storedQuery, "input")
		}
	}

	if g.cfg.Features.Moderation {
		if v := g.moderate(ctx, req.Query, req.User); v != nil {
			return g.block(ctx, *v, req.User, req.SessionID, storedQuery, "input")
		}
	}

	g.metrics.IncCheck("input", true)
	return guardmodels.Allow()
}

// OutputRequest is a generated answer about to be returned.
type OutputRequest struct {
	Text      string
	User      string
	Role      models.Role
	Domain    string
	Query     string
	SessionID string
}

// ValidateOutput checks a response for PII (unless the role is exempt) and
// then moderates it.
func (g *Gate) ValidateOutput(ctx context.Context, req OutputRequest) guardmodels.Decision {
	ctx, span := g.tracer.Start(ctx, "guardrails.validate_output",
		trace.WithAttributes(attribute.String("user", req.User), attribute.String("role", string(req.Role))))
	defer span.End()

	if g.cfg.Features.PIIDetection && !g.piiExempt(req.Role) {
		if dets := g.detector.Detect(req.Text); len(dets) > 0 {
			entities := pii.Entities(dets)
			names := make([]string, len(entities))
			for i, e := range entities {
				names[i] = string(e)
			}
			v := g.newViolation(guardmodels.ViolationPII, guardmodels.SeverityCritical,
				"PII detected: "+strings.Join(names, ", "),
				map[string]any{"entities": names, "count": len(dets), "role": string(req.Role)},
			)
			g.logger.ErrorContext(ctx, "pii detected in output", "user", req.User, "role", req.Role, "entities", names)
			return g.block(ctx, v, req.User, req.SessionID, req.Query, "output")
		}
	}

	if g.cfg.Features.Moderation {
		if v := g.moderate(ctx, req.Text, req.User); v != nil {
			return g.block(ctx, *v, req.User, req.SessionID, req.Query, "output")
		}
	}

	g.metrics.IncCheck("output", true)
	return guardmodels.Allow()
}

// MaskPII redacts every catalogue pattern. Applying it twice changes nothing.
func (g *Gate) MaskPII(text string) string {
	return g.masker.Redact(text)
}

// Violations returns the newest matching violations, oldest first.
func (g *Gate) Violations(ctx context.Context, f guardmodels.ViolationFilter) []guardmodels.Violation {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultViolationLimit
	}
	all := g.journal.Snapshot(ctx)
	out := make([]guardmodels.Violation, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if f.Matches(all[i]) {
			out = append(out, all[i])
		}
	}
	slices.Reverse(out)
	return out
}

// Metrics summarises the violation journal.
func (g *Gate) Metrics(ctx context.Context) guardmodels.GuardrailMetrics {
	m := guardmodels.GuardrailMetrics{
		BySeverity:   map[guardmodels.Severity]int{},
		ByType:       map[guardmodels.ViolationType]int{},
		PIIDetection: g.cfg.Features.PIIDetection,
		Moderation:   g.cfg.Features.Moderation,
		RateLimiting: g.cfg.Features.RateLimiting,
	}
	for _, v := range g.journal.Snapshot(ctx) {
		m.TotalViolations++
		m.BySeverity[v.Severity]++
		m.ByType[v.Type]++
	}
	m.CriticalViolations = m.BySeverity[guardmodels.SeverityCritical]
	m.HighViolations = m.BySeverity[guardmodels.SeverityHigh]
	return m
}

func (g *Gate) checkRateLimits(ctx context.Context, user string) *guardmodels.Violation {
	global, err := g.limiter.Allow(ctx, ratelimit.GlobalKey, g.cfg.Limits.GlobalPerMinute, globalWindow)
	if err != nil {
		g.logger.ErrorContext(ctx, "global rate limit check failed, allowing", "error", err)
	} else if !global.Allowed {
		v := g.newViolation(guardmodels.ViolationRateLimit, guardmodels.SeverityHigh,
			fmt.Sprintf("Global rate limit exceeded: %d requests per minute", global.Count),
			map[string]any{"scope": "global", "limit": global.Limit, "reset_at": global.ResetAt.UTC()},
		)
		return &v
	}

	perUser, err := g.limiter.Allow(ctx, ratelimit.UserKey(user), g.cfg.Limits.UserPerHour, userWindow)
	if err != nil {
		g.logger.ErrorContext(ctx, "user rate limit check failed, allowing", "user", user, "error", err)
		return nil
	}
	if !perUser.Allowed {
		v := g.newViolation(guardmodels.ViolationRateLimit, guardmodels.SeverityMedium,
			fmt.Sprintf("User rate limit exceeded: %d requests per hour", perUser.Count),
			map[string]any{"scope": "user", "limit": perUser.Limit, "reset_at": perUser.ResetAt.UTC()},
		)
		return &v
	}
	return nil
}

// moderate fails open: an oracle error is logged and counted, never blocking.
func (g *Gate) moderate(ctx context.Context, text, user string) *guardmodels.Violation {
	verdict, err := g.classifier.Classify(ctx, text)
	if err != nil {
		g.metrics.IncModerationDegraded()
		g.logger.WarnContext(ctx, "moderation unavailable, allowing content", "user", user, "error", err)
		g.emitAudit(ctx, platformaudit.Event{
			Type:     platformaudit.TypeGuardrail,
			UserID:   user,
			Action:   string(platformaudit.EventModerationDegraded),
			Decision: "allowed",
			Reason:   err.Error(),
		})
		return nil
	}
	if verdict != moderation.VerdictUnsafe {
		return nil
	}
	v := g.newViolation(guardmodels.ViolationToxic, guardmodels.SeverityHigh,
		"Content flagged as toxic or abusive by the moderation oracle", nil)
	g.logger.WarnContext(ctx, "content violation", "user", user, "violation_type", v.Type)
	return &v
}

func (g *Gate) piiExempt(role models.Role) bool {
	return slices.Contains(g.cfg.PII.ExemptRoles, role)
}

func (g *Gate) newViolation(t guardmodels.ViolationType, sev guardmodels.Severity, desc string, data map[string]any) guardmodels.Violation {
	return guardmodels.Violation{
		ID:             ulid.Make().String(),
		Type:           t,
		Severity:       sev,
		Description:    desc,
		Timestamp:      g.now().UTC(),
		AdditionalData: data,
	}
}

// block records v and turns it into an unsafe decision.
func (g *Gate) block(ctx context.Context, v guardmodels.Violation, user, sessionID, query, stage string) guardmodels.Decision {
	v.User = user
	v.SessionID = sessionID
	v.Query = query

	g.journal.Append(ctx, v)
	g.metrics.IncViolation(v.Type, v.Severity)
	g.metrics.IncCheck(stage, false)
	g.logger.WarnContext(ctx, "violation recorded",
		"violation_id", v.ID,
		"violation_type", v.Type,
		"severity", v.Severity,
		"user", user,
		"description", v.Description,
	)

	g.emitAudit(ctx, platformaudit.Event{
		Type:     platformaudit.TypeGuardrail,
		UserID:   user,
		Action:   string(platformaudit.EventViolationRecorded),
		Decision: "blocked",
		Reason:   string(v.Type),
		Query:    truncate(query, monitormodels.MaxQueryLen),
		Details:  map[string]any{"violation_id": v.ID, "severity": string(v.Severity), "stage": stage},
	})

	if v.Severity.Alertable() && g.alerts != nil {
		g.alerts.AddAlert(ctx, monitormodels.Alert{
			Type:        monitormodels.GuardrailAlertType(v.Type),
			Severity:    v.Severity,
			Message:     "Guardrail violation: " + v.Description,
			Description: v.Description,
			Timestamp:   v.Timestamp,
			User:        user,
			SessionID:   sessionID,
			Query:       truncate(query, monitormodels.MaxQueryLen),
			AdditionalData: map[string]any{
				"violation_id":   v.ID,
				"violation_type": string(v.Type),
			},
		})
	}
	return guardmodels.Block(v)
}

func (g *Gate) emitAudit(ctx context.Context, e platformaudit.Event) {
	if g.audit == nil {
		return
	}
	e.RequestID = requestcontext.RequestID(ctx)
	if err := g.audit.Emit(ctx, e); err != nil {
		g.logger.ErrorContext(ctx, "failed to audit guardrail event", "action", e.Action, "error", err)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
