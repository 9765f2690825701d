package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks AlertRaiser,AuditEmitter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"trustrag/internal/access/models"
	guardmodels "trustrag/internal/guardrails/models"
	"trustrag/internal/guardrails/moderation"
	"trustrag/internal/guardrails/ratelimit"
	"trustrag/internal/guardrails/service/mocks"
	monitormodels "trustrag/internal/monitor/models"
	"trustrag/internal/platform/journal"
	platformaudit "trustrag/pkg/platform/audit"
)

type stubClassifier struct {
	verdict moderation.Verdict
	err     error
	calls   int
}

func (c *stubClassifier) Classify(context.Context, string) (moderation.Verdict, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	if c.verdict == "" {
		return moderation.VerdictSafe, nil
	}
	return c.verdict, nil
}

// =============================================================================
// Guardrails Gate Test Suite
// =============================================================================
// The gate decides whether a request may proceed at all. Tests pin check
// order, severities, journaling, alert escalation and fail-open moderation.

type GateSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	alerts     *mocks.MockAlertRaiser
	audit      *mocks.MockAuditEmitter
	classifier *stubClassifier
	journal    *journal.Journal[guardmodels.Violation]
	metrics    *Metrics
	now        time.Time
	logger     *slog.Logger
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.alerts = mocks.NewMockAlertRaiser(s.ctrl)
	s.audit = mocks.NewMockAuditEmitter(s.ctrl)
	s.classifier = &stubClassifier{}
	s.metrics = NewMetrics(prometheus.NewRegistry())
	s.now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	var err error
	s.journal, err = journal.Open[guardmodels.Violation](
		filepath.Join(s.T().TempDir(), "violations.json"),
		journal.WithLogger(s.logger),
	)
	s.Require().NoError(err)
}

func (s *GateSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *GateSuite) newGate(cfg Config) *Gate {
	clock := func() time.Time { return s.now }
	g, err := New(s.journal,
		WithConfig(cfg),
		WithLimiter(ratelimit.NewMemory(ratelimit.WithClock(clock))),
		WithClassifier(s.classifier),
		WithAlertRaiser(s.alerts),
		WithAuditEmitter(s.audit),
		WithMetrics(s.metrics),
		WithLogger(s.logger),
		WithClock(clock),
	)
	s.Require().NoError(err)
	return g
}

func (s *GateSuite) expectViolationAudit(times int) {
	s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e platformaudit.Event) error {
			s.Equal(string(platformaudit.EventViolationRecorded), e.Action)
			s.Equal(platformaudit.TypeGuardrail, e.Type)
			return nil
		}).Times(times)
}

func (s *GateSuite) TestNewRequiresJournal() {
	_, err := New(nil)
	s.Require().Error(err)
	s.Contains(err.Error(), "violation journal is required")
}

// =============================================================================
// Input
// =============================================================================

func (s *GateSuite) TestValidateInputPasses() {
	g := s.newGate(DefaultConfig())
	d := g.ValidateInput(context.Background(), InputRequest{Query: "leave policy", User: "u1", Role: models.RoleEmployee})
	s.True(d.Safe)
	s.Nil(d.Violation)
	s.Equal(1, s.classifier.calls)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Checks.WithLabelValues("input", "passed")))
}

func (s *GateSuite) TestGlobalRateLimitBlocksWithoutModeration() {
	cfg := DefaultConfig()
	cfg.Limits.GlobalPerMinute = 2
	g := s.newGate(cfg)
	ctx := context.Background()

	s.True(g.ValidateInput(ctx, InputRequest{Query: "a", User: "u1"}).Safe)
	s.True(g.ValidateInput(ctx, InputRequest{Query: "b", User: "u2"}).Safe)
	s.Equal(2, s.classifier.calls)

	s.expectViolationAudit(1)
	s.alerts.EXPECT().AddAlert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a monitormodels.Alert) monitormodels.Alert {
			s.Equal(monitormodels.AlertGuardrailRateLimit, a.Type)
			s.Equal(guardmodels.SeverityHigh, a.Severity)
			s.Equal("u3", a.User)
			s.Equal("c", a.Query)
			return a
		})

	d := g.ValidateInput(ctx, InputRequest{Query: "c", User: "u3", SessionID: "s3"})
	s.False(d.Safe)
	s.Require().NotNil(d.Violation)
	s.Equal(guardmodels.ViolationRateLimit, d.Violation.Type)
	s.Equal(guardmodels.SeverityHigh, d.Violation.Severity)
	s.Equal("Global rate limit exceeded: 3 requests per minute", d.Violation.Description)
	s.Equal(2, s.classifier.calls, "rate-limited input never reaches moderation")

	stored := s.journal.Snapshot(ctx)
	s.Require().Len(stored, 1)
	s.Equal("u3", stored[0].User)
	s.Equal("s3", stored[0].SessionID)
	s.Equal(s.now, stored[0].Timestamp)
}

func (s *GateSuite) TestUserRateLimitIsMediumAndNotAlerted() {
	cfg := DefaultConfig()
	cfg.Limits.UserPerHour = 1
	g := s.newGate(cfg)
	ctx := context.Background()

	s.True(g.ValidateInput(ctx, InputRequest{Query: "a", User: "u1"}).Safe)

	s.expectViolationAudit(1)
	d := g.ValidateInput(ctx, InputRequest{Query: "b", User: "u1"})
	s.False(d.Safe)
	s.Equal(guardmodels.SeverityMedium, d.Violation.Severity)
	s.True(strings.HasPrefix(d.Violation.Description, "User rate limit exceeded: 2"))

	s.True(g.ValidateInput(ctx, InputRequest{Query: "c", User: "u2"}).Safe)

	s.now = s.now.Add(time.Hour)
	s.True(g.ValidateInput(ctx, InputRequest{Query: "d", User: "u1"}).Safe)
}

func (s *GateSuite) TestSkipQueryStorage() {
	cfg := DefaultConfig()
	cfg.Limits.UserPerHour = 1
	g := s.newGate(cfg)
	ctx := context.Background()

	g.ValidateInput(ctx, InputRequest{Query: "a", User: "u1"})
	s.expectViolationAudit(1)
	d := g.ValidateInput(ctx, InputRequest{Query: "secret query", User: "u1", SkipQueryStorage: true})
	s.False(d.Safe)
	s.Empty(d.Violation.Query)
	s.Empty(s.journal.Snapshot(ctx)[0].Query)
}

func (s *GateSuite) TestRateLimitingDisabled() {
	cfg := DefaultConfig()
	cfg.Limits.GlobalPerMinute = 1
	cfg.Features.RateLimiting = false
	g := s.newGate(cfg)
	for range 5 {
		s.True(g.ValidateInput(context.Background(), InputRequest{Query: "q", User: "u"}).Safe)
	}
}

func (s *GateSuite) TestUnsafeInputIsHighToxic() {
	g := s.newGate(DefaultConfig())
	ctx := context.Background()
	s.classifier.verdict = moderation.VerdictUnsafe

	s.expectViolationAudit(1)
	s.alerts.EXPECT().AddAlert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a monitormodels.Alert) monitormodels.Alert {
			s.Equal(monitormodels.AlertGuardrailToxic, a.Type)
			return a
		})

	d := g.ValidateInput(ctx, InputRequest{Query: "abuse", User: "u1"})
	s.False(d.Safe)
	s.Equal(guardmodels.ViolationToxic, d.Violation.Type)
	s.Equal(guardmodels.SeverityHigh, d.Violation.Severity)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Violations.WithLabelValues("toxic_content", "HIGH")))
}

func (s *GateSuite) TestModerationFailsOpen() {
	g := s.newGate(DefaultConfig())
	ctx := context.Background()
	s.classifier.err = errors.New("oracle down")

	s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e platformaudit.Event) error {
			s.Equal(string(platformaudit.EventModerationDegraded), e.Action)
			return nil
		})

	d := g.ValidateInput(ctx, InputRequest{Query: "hello", User: "u1"})
	s.True(d.Safe)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ModerationDegraded))
	s.Empty(s.journal.Snapshot(ctx))
}

// =============================================================================
// Output
// =============================================================================

func (s *GateSuite) TestOutputPIIBlocksNonExemptRoles() {
	g := s.newGate(DefaultConfig())
	ctx := context.Background()
	text := "Reach John at john@corp.com, SSN 123-45-6789"

	s.expectViolationAudit(1)
	s.alerts.EXPECT().AddAlert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a monitormodels.Alert) monitormodels.Alert {
			s.Equal(monitormodels.AlertGuardrailPII, a.Type)
			s.Equal(guardmodels.SeverityCritical, a.Severity)
			return a
		})

	d := g.ValidateOutput(ctx, OutputRequest{Text: text, User: "u1", Role: models.RoleEmployee, Query: "who is john"})
	s.False(d.Safe)
	s.Equal(guardmodels.ViolationPII, d.Violation.Type)
	s.Equal("PII detected: EMAIL_ADDRESS, US_SSN", d.Violation.Description)
	s.Equal(2, d.Violation.AdditionalData["count"])
	s.Equal("employee", d.Violation.AdditionalData["role"])
	s.Zero(s.classifier.calls, "pii check runs before moderation")
}

func (s *GateSuite) TestOutputPIIExemptRoles() {
	g := s.newGate(DefaultConfig())
	ctx := context.Background()
	text := "SSN 123-45-6789"

	s.True(g.ValidateOutput(ctx, OutputRequest{Text: text, Role: models.RoleAdmin}).Safe)
	s.True(g.ValidateOutput(ctx, OutputRequest{Text: text, Role: models.RoleAnalyst}).Safe)

	cfg := DefaultConfig()
	cfg.PII.ExemptRoles = []models.Role{models.RoleAdmin}
	strict := s.newGate(cfg)
	s.expectViolationAudit(1)
	s.alerts.EXPECT().AddAlert(gomock.Any(), gomock.Any())
	s.False(strict.ValidateOutput(ctx, OutputRequest{Text: text, Role: models.RoleAnalyst}).Safe)
}

func (s *GateSuite) TestOutputModeration() {
	g := s.newGate(DefaultConfig())
	ctx := context.Background()
	s.classifier.verdict = moderation.VerdictUnsafe

	s.expectViolationAudit(1)
	s.alerts.EXPECT().AddAlert(gomock.Any(), gomock.Any())
	d := g.ValidateOutput(ctx, OutputRequest{Text: "no pii here", Role: models.RoleGuest})
	s.False(d.Safe)
	s.Equal(guardmodels.ViolationToxic, d.Violation.Type)
}

func (s *GateSuite) TestMaskPIIIsIdempotent() {
	g := s.newGate(DefaultConfig())
	in := "Pay $1,234123456789 to AB123456, call 555-123-4567"
	once := g.MaskPII(in)
	s.Equal(once, g.MaskPII(once))
	s.NotContains(once, "555-123-4567")
	s.NotContains(once, "123456789")
}

// =============================================================================
// Queries
// =============================================================================

func (s *GateSuite) TestViolationsAndMetrics() {
	cfg := DefaultConfig()
	cfg.Limits.UserPerHour = 1
	g := s.newGate(cfg)
	ctx := context.Background()

	s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	s.alerts.EXPECT().AddAlert(gomock.Any(), gomock.Any()).AnyTimes()

	g.ValidateInput(ctx, InputRequest{Query: "1", User: "u"})
	for i := range 3 {
		s.now = s.now.Add(time.Second)
		s.False(g.ValidateInput(ctx, InputRequest{Query: string(rune('a' + i)), User: "u"}).Safe)
	}
	s.False(g.ValidateOutput(ctx, OutputRequest{Text: "SSN 123-45-6789", Role: models.RoleGuest, User: "v"}).Safe)

	all := g.Violations(ctx, guardmodels.ViolationFilter{})
	s.Len(all, 4)
	s.Equal(guardmodels.ViolationPII, all[3].Type, "chronological order")

	latest := g.Violations(ctx, guardmodels.ViolationFilter{Type: guardmodels.ViolationRateLimit, Limit: 2})
	s.Require().Len(latest, 2)
	s.Equal("b", latest[0].Query)
	s.Equal("c", latest[1].Query)

	critical := g.Violations(ctx, guardmodels.ViolationFilter{Severity: guardmodels.SeverityCritical})
	s.Len(critical, 1)

	m := g.Metrics(ctx)
	s.Equal(4, m.TotalViolations)
	s.Equal(1, m.CriticalViolations)
	s.Equal(0, m.HighViolations)
	s.Equal(3, m.BySeverity[guardmodels.SeverityMedium])
	s.Equal(3, m.ByType[guardmodels.ViolationRateLimit])
	s.True(m.PIIDetection)
	s.True(m.Moderation)
	s.True(m.RateLimiting)
}
