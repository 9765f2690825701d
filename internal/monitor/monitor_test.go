package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	guardmodels "trustrag/internal/guardrails/models"
	"trustrag/internal/monitor/models"
	"trustrag/internal/platform/journal"
)

type recordingSink struct {
	mu     sync.Mutex
	alerts []models.Alert
	err    error
}

func (r *recordingSink) Publish(_ context.Context, a models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
	return r.err
}

func (r *recordingSink) received() []models.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Alert(nil), r.alerts...)
}

// =============================================================================
// Security Monitor Test Suite
// =============================================================================

type MonitorSuite struct {
	suite.Suite
	path    string
	journal *journal.Journal[models.Alert]
	metrics *Metrics
	sink    *recordingSink
	now     time.Time
	monitor *Monitor
	logger  *slog.Logger
}

func TestMonitorSuite(t *testing.T) {
	suite.Run(t, new(MonitorSuite))
}

func (s *MonitorSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.path = filepath.Join(s.T().TempDir(), "alerts.json")
	var err error
	s.journal, err = journal.Open[models.Alert](s.path, journal.WithLogger(s.logger))
	s.Require().NoError(err)
	s.metrics = NewMetrics(prometheus.NewRegistry())
	s.sink = &recordingSink{}
	s.now = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	s.monitor = s.newMonitor()
}

func (s *MonitorSuite) newMonitor(opts ...Option) *Monitor {
	base := []Option{
		WithClock(func() time.Time { return s.now }),
		WithMetrics(s.metrics),
		WithSink(s.sink),
		WithLogger(s.logger),
	}
	m, err := New(s.journal, append(base, opts...)...)
	s.Require().NoError(err)
	return m
}

func (s *MonitorSuite) denial(user string) models.DenialRequest {
	return models.DenialRequest{User: user, SessionID: "sess", Domain: "finance", Role: "employee", Query: "show payroll", Reason: "rbac"}
}

func (s *MonitorSuite) TestNewRequiresJournal() {
	_, err := New(nil)
	s.Require().Error(err)
	s.Contains(err.Error(), "alert journal is required")
}

func (s *MonitorSuite) TestEveryDenialRaisesAccessDenied() {
	ctx := context.Background()
	a := s.monitor.RecordAccessDenial(ctx, s.denial("bob"))

	s.Equal(models.AlertAccessDenied, a.Type)
	s.Equal(guardmodels.SeverityMedium, a.Severity)
	s.Equal("Access denied: Role 'employee' attempted to access 'finance' domain", a.Message)
	s.Equal("Access denied for role 'employee' to domain 'finance'", a.Description)
	s.Equal("finance", a.Domain)
	s.Equal("show payroll", a.Query)
	s.NotEmpty(a.ID)
	s.Equal(s.now, a.Timestamp)

	s.Len(s.monitor.Alerts(ctx, models.AlertFilter{}), 1)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Alerts.WithLabelValues("ACCESS_DENIED", "MEDIUM")))
}

func (s *MonitorSuite) TestExcessiveDenialsAtThreshold() {
	ctx := context.Background()
	m := s.newMonitor(WithMaxDenialsPerHour(3))

	s.Equal(models.AlertAccessDenied, m.RecordAccessDenial(ctx, s.denial("eve")).Type)
	s.Equal(models.AlertAccessDenied, m.RecordAccessDenial(ctx, s.denial("eve")).Type)
	s.Equal(models.AlertAccessDenied, m.RecordAccessDenial(ctx, s.denial("other")).Type)

	third := m.RecordAccessDenial(ctx, s.denial("eve"))
	s.Equal(models.AlertExcessiveDenials, third.Type)
	s.Equal(guardmodels.SeverityHigh, third.Severity)
	s.Equal(3, third.DenialCount)
	s.Equal("Excessive access denials detected: 3 denials in last hour", third.Message)

	all := m.Alerts(ctx, models.AlertFilter{})
	s.Len(all, 5, "threshold denial still raises its ACCESS_DENIED alert")
	s.Equal(models.AlertAccessDenied, all[3].Type)
	s.Equal(models.AlertExcessiveDenials, all[4].Type)

	s.now = s.now.Add(time.Hour)
	s.Equal(models.AlertAccessDenied, m.RecordAccessDenial(ctx, s.denial("eve")).Type, "window slid past old denials")
}

func (s *MonitorSuite) TestAddAlertTruncatesQuery() {
	ctx := context.Background()
	long := strings.Repeat("ä", 250)
	a := s.monitor.AddAlert(ctx, models.Alert{Type: models.AlertGuardrailPII, Severity: guardmodels.SeverityCritical, Query: long})
	s.Equal(200, len([]rune(a.Query)))
	s.Equal(200, len([]rune(s.monitor.Alerts(ctx, models.AlertFilter{})[0].Query)))
}

func (s *MonitorSuite) TestCreateAlert() {
	ctx := context.Background()

	a, err := s.monitor.CreateAlert(ctx, models.CreateAlertRequest{Message: "suspicious export"})
	s.Require().NoError(err)
	s.Equal(models.AlertManual, a.Type)
	s.Equal(guardmodels.SeverityMedium, a.Severity)
	s.Equal("system", a.User)
	s.Equal("suspicious export", a.Description)

	_, err = s.monitor.CreateAlert(ctx, models.CreateAlertRequest{})
	s.Error(err)
}

func (s *MonitorSuite) TestAlertsFilterAndLimit() {
	ctx := context.Background()
	for i := range 4 {
		sev := guardmodels.SeverityLow
		if i%2 == 0 {
			sev = guardmodels.SeverityHigh
		}
		s.monitor.AddAlert(ctx, models.Alert{ID: string(rune('a' + i)), Type: models.AlertManual, Severity: sev})
	}

	high := s.monitor.Alerts(ctx, models.AlertFilter{Severity: guardmodels.SeverityHigh})
	s.Require().Len(high, 2)
	s.Equal("a", high[0].ID)
	s.Equal("c", high[1].ID)

	last := s.monitor.Alerts(ctx, models.AlertFilter{Limit: 3})
	s.Require().Len(last, 3)
	s.Equal("b", last[0].ID)
	s.Equal("d", last[2].ID)

	m := s.monitor.Metrics(ctx)
	s.Equal(models.SecurityMetrics{TotalAlerts: 4, HighAlerts: 2, LowAlerts: 2}, m)
}

func (s *MonitorSuite) TestAlertsVisibleToOtherProcess() {
	ctx := context.Background()
	s.monitor.AddAlert(ctx, models.Alert{Type: models.AlertManual, Severity: guardmodels.SeverityLow, Message: "x"})

	other, err := journal.Open[models.Alert](s.path, journal.WithLogger(s.logger))
	s.Require().NoError(err)
	reader, err := New(other)
	s.Require().NoError(err)
	s.Equal(1, reader.Metrics(ctx).LowAlerts)
}

func (s *MonitorSuite) TestSinksReceiveAlerts() {
	ctx := context.Background()
	failing := &recordingSink{err: errors.New("broker down")}
	m := s.newMonitor(WithSink(failing))

	m.RecordAccessDenial(ctx, s.denial("bob"))
	s.Require().NoError(m.Close(ctx))

	s.Len(s.sink.received(), 1)
	s.Len(failing.received(), 1)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.SinkFailures))
}
