package httptransport_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	accessmodels "trustrag/internal/access/models"
	"trustrag/internal/access/rolemap"
	accesssvc "trustrag/internal/access/service"
	"trustrag/internal/audit"
	docmodels "trustrag/internal/document/models"
	guardmodels "trustrag/internal/guardrails/models"
	guardsvc "trustrag/internal/guardrails/service"
	"trustrag/internal/identity"
	monitormodels "trustrag/internal/monitor/models"
	"trustrag/internal/pipeline"
	"trustrag/internal/platform/metrics"
	retrievalmodels "trustrag/internal/retrieval/models"
	httptransport "trustrag/internal/transport/http"
	"trustrag/internal/transport/http/mocks"
	"trustrag/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks QueryService,Retriever,AccessValidator,Guardrails,SecurityMonitor,ComplianceReporter

type HandlerSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	pipeline   *mocks.MockQueryService
	retriever  *mocks.MockRetriever
	access     *mocks.MockAccessValidator
	guardrails *mocks.MockGuardrails
	monitor    *mocks.MockSecurityMonitor
	compliance *mocks.MockComplianceReporter
	collector  *metrics.Collector
	tokens     *identity.TokenService
	healthErr  error
	router     http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.pipeline = mocks.NewMockQueryService(s.ctrl)
	s.retriever = mocks.NewMockRetriever(s.ctrl)
	s.access = mocks.NewMockAccessValidator(s.ctrl)
	s.guardrails = mocks.NewMockGuardrails(s.ctrl)
	s.monitor = mocks.NewMockSecurityMonitor(s.ctrl)
	s.compliance = mocks.NewMockComplianceReporter(s.ctrl)
	s.collector = metrics.New(metrics.WithRegisterer(prometheus.NewRegistry()))
	s.healthErr = nil

	var err error
	s.tokens, err = identity.NewTokenService("handler-test-key")
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := httptransport.New(httptransport.Services{
		Pipeline:   s.pipeline,
		Retriever:  s.retriever,
		Roles:      rolemap.Default(),
		Access:     s.access,
		Guardrails: s.guardrails,
		Monitor:    s.monitor,
		Queries:    s.collector,
		Compliance: s.compliance,
	}, logger, map[string]httptransport.HealthCheck{
		"redis": func(context.Context) error { return s.healthErr },
	})
	s.router = httptransport.NewRouter(h, httptransport.RouterConfig{
		Tokens: identity.NewMiddlewareAdapter(s.tokens),
	})
}

func (s *HandlerSuite) token(user, department, role string) string {
	tok, err := s.tokens.Issue(identity.Subject{
		UserID: user, SessionID: "sess-" + user, Department: department, DepartmentRole: role,
	}, time.Hour)
	s.Require().NoError(err)
	return tok
}

func doc(id string, domain docmodels.Domain) docmodels.Document {
	return docmodels.Document{ID: id, Title: "Doc " + id, Content: "content " + id, Domain: domain}
}

func (s *HandlerSuite) TestHealth() {
	s.retriever.EXPECT().Len().Return(3).Times(2)

	s.Run("all checks up", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[httptransport.HealthResponse](s.T(), rr)
		s.Equal("ok", resp.Status)
		s.Equal(3, resp.Documents)
		s.Equal("up", resp.Checks["redis"])
	})

	s.Run("failing check degrades", func() {
		s.healthErr = errors.New("connection refused")
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
		testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
		resp := testutil.UnmarshalResponse[httptransport.HealthResponse](s.T(), rr)
		s.Equal("degraded", resp.Status)
		s.Equal("down", resp.Checks["redis"])
	})
}

func (s *HandlerSuite) TestQueryRequiresToken() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/query", map[string]any{"query": "budget"})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")

	req = testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/query", map[string]any{"query": "budget"})
	req.Header.Set("Authorization", "Bearer forged")
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
}

func (s *HandlerSuite) TestQueryUsesCallerFromToken() {
	s.pipeline.EXPECT().Query(gomock.Any(), pipeline.QueryRequest{
		Query:          "quarterly budget",
		User:           "alice",
		Department:     "accounting",
		DepartmentRole: "manager",
		Domain:         "finance",
		SessionID:      "sess-alice",
		K:              3,
	}).Return(&pipeline.QueryResponse{
		Answer:    "Based on 1 document(s):",
		Role:      accessmodels.RoleAnalyst,
		Domain:    docmodels.DomainFinance,
		Retrieved: 1,
		Validated: 1,
	}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/query", map[string]any{
		"query": "  quarterly budget ", "domain": "finance", "k": 3,
	})
	req.Header.Set("Authorization", "Bearer "+s.token("alice", "accounting", "manager"))
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[pipeline.QueryResponse](s.T(), rr)
	s.Equal(accessmodels.RoleAnalyst, resp.Role)
	s.False(resp.Blocked)
}

func (s *HandlerSuite) TestQueryBlockStatuses() {
	tok := s.token("bob", "hr", "employee")

	s.Run("access control block is forbidden", func() {
		s.pipeline.EXPECT().Query(gomock.Any(), gomock.Any()).Return(&pipeline.QueryResponse{
			Blocked:     true,
			BlockedBy:   pipeline.BlockedByAccessControl,
			Explanation: "Access DENIED",
		}, nil)
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/query", map[string]any{"query": "payroll", "domain": "finance"})
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
		resp := testutil.UnmarshalResponse[pipeline.QueryResponse](s.T(), rr)
		s.True(resp.Blocked)
		s.Equal("Access DENIED", resp.Explanation)
	})

	s.Run("rate limit block is 429", func() {
		s.pipeline.EXPECT().Query(gomock.Any(), gomock.Any()).Return(&pipeline.QueryResponse{
			Blocked:   true,
			BlockedBy: pipeline.BlockedByInputGuardrail,
			Violation: &guardmodels.Violation{Type: guardmodels.ViolationRateLimit, Severity: guardmodels.SeverityHigh},
		}, nil)
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/query", map[string]any{"query": "again"})
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusTooManyRequests)
	})

	s.Run("output block stays 200 with explanation", func() {
		s.pipeline.EXPECT().Query(gomock.Any(), gomock.Any()).Return(&pipeline.QueryResponse{
			Blocked:   true,
			BlockedBy: pipeline.BlockedByOutputGuardrail,
			Violation: &guardmodels.Violation{Type: guardmodels.ViolationPII, Severity: guardmodels.SeverityCritical},
		}, nil)
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/query", map[string]any{"query": "emails"})
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "blocked", true)
	})
}

func (s *HandlerSuite) TestQueryBadBodies() {
	tok := s.token("alice", "accounting", "manager")

	s.Run("malformed json", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/v1/query", "{")
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("missing query", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/query", map[string]any{"query": "  "})
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "validation_error")
	})

	s.Run("unknown domain", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/query", map[string]any{"query": "x", "domain": "marketing"})
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnprocessableEntity)
	})

	s.Run("unknown field", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/query", map[string]any{"query": "x", "user": "mallory"})
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("pipeline failure", func() {
		s.pipeline.EXPECT().Query(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/query", map[string]any{"query": "x"})
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")
	})
}

func (s *HandlerSuite) TestRetrieveValidatesForCallerRole() {
	retrieved := []retrievalmodels.RetrievedDocument{
		{Document: doc("f1", docmodels.DomainFinance), Score: 0.9, Method: retrievalmodels.MethodHybrid},
		{Document: doc("h1", docmodels.DomainHealth), Score: 0.4, Method: retrievalmodels.MethodSemantic},
	}
	s.retriever.EXPECT().Retrieve(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req retrievalmodels.RetrieveRequest) ([]retrievalmodels.RetrievedDocument, error) {
			s.Equal("revenue", req.Query)
			s.Equal(2, req.K)
			s.Require().NotNil(req.SemanticWeight)
			s.InDelta(0.5, *req.SemanticWeight, 1e-9)
			return retrieved, nil
		})
	masked := doc("f1", docmodels.DomainFinance)
	masked.Content = "[MASKED-SSN]"
	s.access.EXPECT().BatchValidate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req accesssvc.BatchRequest) (*accessmodels.BatchResult, error) {
			s.Equal(accessmodels.RoleAnalyst, req.Role)
			s.Equal("alice", req.User)
			s.Len(req.Documents, 2)
			return &accessmodels.BatchResult{
				Results: []accessmodels.ValidationResult{{Document: masked, Validated: true, PIIMasked: true}},
				Total:   2,
				Denied:  1,
			}, nil
		})

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/retrieve", map[string]any{
		"query": "revenue", "k": 2, "semantic_weight": 0.5,
	})
	req.Header.Set("Authorization", "Bearer "+s.token("alice", "accounting", "manager"))
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[httptransport.RetrieveResponse](s.T(), rr)
	s.Require().Len(resp.Documents, 1)
	s.Equal("f1", resp.Documents[0].Document.ID)
	s.Equal("[MASKED-SSN]", resp.Documents[0].Document.Content)
	s.InDelta(0.9, resp.Documents[0].Score, 1e-9)
	s.Equal(retrievalmodels.MethodHybrid, resp.Documents[0].Method)
	s.Equal(2, resp.Retrieved)
	s.Equal(1, resp.Denied)
	s.Equal("Found 2 documents, validated 1, denied 1 based on your role permissions.", resp.Explanation)
}

func (s *HandlerSuite) TestRetrieveNegativeWeight() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/retrieve", map[string]any{"query": "x", "keyword_weight": -1})
	req.Header.Set("Authorization", "Bearer "+s.token("alice", "accounting", "manager"))
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusUnprocessableEntity)
}

func (s *HandlerSuite) TestRetrieveDomainDenied() {
	s.retriever.EXPECT().RetrieveByDomain(gomock.Any(), "salaries", docmodels.DomainFinance, 5).
		Return([]retrievalmodels.RetrievedDocument{{Document: doc("f1", docmodels.DomainFinance), Score: 1}}, nil)
	s.access.EXPECT().CheckAccess(accessmodels.RoleEmployee, docmodels.DomainFinance).Return(false)
	s.access.EXPECT().BatchValidate(gomock.Any(), gomock.Any()).
		Return(&accessmodels.BatchResult{Total: 1, Denied: 1}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/retrieve/domain", map[string]any{
		"query": "salaries", "domain": "finance",
	})
	req.Header.Set("Authorization", "Bearer "+s.token("bob", "hr", "employee"))
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	body := testutil.UnmarshalErrorResponse(s.T(), rr)
	s.Equal("forbidden", body["error"])
	s.Contains(body["error_description"], "Access DENIED: Role 'employee' cannot access 'finance' domain.")
}

func (s *HandlerSuite) TestAccessCheck() {
	tok := s.token("carol", "hr", "manager")

	s.Run("explicit role", func() {
		s.access.EXPECT().CheckAccess(accessmodels.RoleAnalyst, docmodels.DomainFinance).Return(true)
		req := testutil.NewRequest(s.T(), http.MethodGet, "/v1/access/check?role=analyst&domain=finance")
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[httptransport.AccessCheckResponse](s.T(), rr)
		s.True(resp.Allowed)
		s.Equal("Access GRANTED: Role 'analyst' has access to 'finance' domain.", resp.Explanation)
	})

	s.Run("caller role by default", func() {
		s.access.EXPECT().CheckAccess(accessmodels.RoleManager, docmodels.DomainLegal).Return(false)
		req := testutil.NewRequest(s.T(), http.MethodGet, "/v1/access/check?domain=legal")
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := testutil.DoRequest(s.router, req)
		resp := testutil.UnmarshalResponse[httptransport.AccessCheckResponse](s.T(), rr)
		s.False(resp.Allowed)
		s.Equal([]docmodels.Domain{docmodels.DomainHR, docmodels.DomainPublic}, resp.Allowlist)
		s.Contains(resp.Explanation, "you need one of: admin")
	})

	s.Run("bad parameters", func() {
		for _, path := range []string{"/v1/access/check?domain=marketing", "/v1/access/check?domain=hr&role=root"} {
			req := testutil.NewRequest(s.T(), http.MethodGet, path)
			req.Header.Set("Authorization", "Bearer "+tok)
			rr := testutil.DoRequest(s.router, req)
			testutil.AssertStatus(s.T(), rr, http.StatusUnprocessableEntity)
		}
	})
}

func (s *HandlerSuite) TestAccessValidate() {
	s.access.EXPECT().BatchValidate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req accesssvc.BatchRequest) (*accessmodels.BatchResult, error) {
			s.True(req.SkipMasking)
			s.Equal(accessmodels.RoleManager, req.Role)
			return &accessmodels.BatchResult{Total: 1, Results: []accessmodels.ValidationResult{{Document: req.Documents[0], Validated: true}}}, nil
		})

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/access/validate", map[string]any{
		"documents":    []docmodels.Document{doc("h1", docmodels.DomainHR)},
		"skip_masking": true,
	})
	req.Header.Set("Authorization", "Bearer "+s.token("carol", "hr", "manager"))
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[accessmodels.BatchResult](s.T(), rr)
	s.Len(resp.Results, 1)

	s.Run("invalid document domain", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/access/validate", map[string]any{
			"documents": []map[string]string{{"id": "x", "domain": "space"}},
		})
		req.Header.Set("Authorization", "Bearer "+s.token("carol", "hr", "manager"))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnprocessableEntity)
	})
}

func (s *HandlerSuite) TestGuardrailChecks() {
	tok := s.token("dana", "hr", "manager")
	violation := guardmodels.Violation{
		ID: "v1", Type: guardmodels.ViolationPII, Severity: guardmodels.SeverityCritical, Description: "PII detected: EMAIL",
	}
	s.guardrails.EXPECT().ValidateOutput(gomock.Any(), guardsvc.OutputRequest{
		Text: "mail me at a@b.io", User: "dana", Role: accessmodels.RoleManager, SessionID: "sess-dana",
	}).Return(guardmodels.Block(violation))
	s.guardrails.EXPECT().ValidateInput(gomock.Any(), gomock.Any()).Return(guardmodels.Allow())

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/guardrails/output", map[string]any{"text": "mail me at a@b.io"})
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[httptransport.GuardrailResponse](s.T(), rr)
	s.False(resp.Safe)
	s.Require().NotNil(resp.Violation)
	s.Equal("v1", resp.Violation.ID)
	s.Contains(resp.Explanation, "Request blocked (CRITICAL)")

	req = testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/guardrails/input", map[string]any{"query": "hello"})
	req.Header.Set("Authorization", "Bearer "+tok)
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "safe", true)
}

func (s *HandlerSuite) TestViolationsListing() {
	tok := s.token("dana", "hr", "manager")
	s.guardrails.EXPECT().Violations(gomock.Any(), guardmodels.ViolationFilter{
		Severity: guardmodels.SeverityCritical, Type: guardmodels.ViolationPII, Limit: 5,
	}).Return([]guardmodels.Violation{{ID: "v1"}})

	req := testutil.NewRequest(s.T(), http.MethodGet, "/v1/violations?severity=critical&type=pii_detected&limit=5")
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[httptransport.ViolationsResponse](s.T(), rr)
	s.Equal(1, resp.Count)

	for _, path := range []string{"/v1/violations?limit=-1", "/v1/violations?limit=abc"} {
		req := testutil.NewRequest(s.T(), http.MethodGet, path)
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	}

	req = testutil.NewRequest(s.T(), http.MethodGet, "/v1/violations?severity=urgent")
	req.Header.Set("Authorization", "Bearer "+tok)
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusUnprocessableEntity)
}

func (s *HandlerSuite) TestAlerts() {
	tok := s.token("erin", "legal", "manager")

	s.monitor.EXPECT().Alerts(gomock.Any(), monitormodels.AlertFilter{Severity: guardmodels.SeverityHigh}).
		Return([]monitormodels.Alert{{ID: "a1", Type: monitormodels.AlertExcessiveDenials}})
	req := testutil.NewRequest(s.T(), http.MethodGet, "/v1/alerts?severity=HIGH")
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)
	s.Equal(1, testutil.UnmarshalResponse[httptransport.AlertsResponse](s.T(), rr).Count)

	s.monitor.EXPECT().CreateAlert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req monitormodels.CreateAlertRequest) (monitormodels.Alert, error) {
			s.Equal("erin", req.User)
			s.Equal(guardmodels.SeverityMedium, req.Severity)
			return monitormodels.Alert{ID: "a2", Message: req.Message, Severity: req.Severity}, nil
		})
	req = testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/alerts", map[string]any{"message": "suspicious export"})
	req.Header.Set("Authorization", "Bearer "+tok)
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)

	req = testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/alerts", map[string]any{"severity": "HIGH"})
	req.Header.Set("Authorization", "Bearer "+tok)
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusUnprocessableEntity)
}

func (s *HandlerSuite) TestMetricsEndpoints() {
	tok := s.token("erin", "legal", "manager")
	s.guardrails.EXPECT().Metrics(gomock.Any()).Return(guardmodels.GuardrailMetrics{TotalViolations: 4})
	s.monitor.EXPECT().Metrics(gomock.Any()).Return(monitormodels.SecurityMetrics{TotalAlerts: 2, HighAlerts: 1})
	s.collector.RecordQuery(metrics.QueryRecord{User: "erin", Role: "admin", Total: 20 * time.Millisecond, Retrieved: 3, Success: true})

	cases := map[string]struct {
		key  string
		want any
	}{
		"/v1/metrics/guardrails": {key: "total_violations", want: float64(4)},
		"/v1/metrics/security":   {key: "total_alerts", want: float64(2)},
		"/v1/metrics/queries":    {key: "total_queries", want: float64(1)},
	}
	for path, tc := range cases {
		req := testutil.NewRequest(s.T(), http.MethodGet, path)
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, tc.key, tc.want)
	}
}

func (s *HandlerSuite) TestComplianceReport() {
	tok := s.token("erin", "legal", "manager")
	s.compliance.EXPECT().ComplianceReport(gomock.Any(), 7).Return(&audit.ComplianceReport{
		PeriodDays: 7, AccessDenied: 2, Status: audit.StatusCompliant,
	}, nil)
	s.compliance.EXPECT().ComplianceReport(gomock.Any(), 30).Return(nil, errors.New("store down"))

	req := testutil.NewRequest(s.T(), http.MethodGet, "/v1/compliance/report?days=7")
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "compliance_status", "COMPLIANT")

	req = testutil.NewRequest(s.T(), http.MethodGet, "/v1/compliance/report")
	req.Header.Set("Authorization", "Bearer "+tok)
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")

	req = testutil.NewRequest(s.T(), http.MethodGet, "/v1/compliance/report?days=0")
	req.Header.Set("Authorization", "Bearer "+tok)
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *HandlerSuite) TestWhoAmI() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/v1/me")
	req.Header.Set("Authorization", "Bearer "+s.token("alice", "accounting", "manager"))
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[rolemap.Summary](s.T(), rr)
	s.Equal(accessmodels.RoleAnalyst, resp.Role)
}
