// Package pipeline runs a user query end to end: input guardrails, role
// resolution, retrieval, RBAC, validation and masking, answer generation,
// output guardrails, then audit and metrics.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trustrag/internal/access/compliance"
	"trustrag/internal/access/explain"
	accessmodels "trustrag/internal/access/models"
	accesssvc "trustrag/internal/access/service"
	"trustrag/internal/audit"
	docmodels "trustrag/internal/document/models"
	guardmodels "trustrag/internal/guardrails/models"
	guardsvc "trustrag/internal/guardrails/service"
	monitormodels "trustrag/internal/monitor/models"
	"trustrag/internal/platform/metrics"
	retrievalmodels "trustrag/internal/retrieval/models"
	dErrors "trustrag/pkg/domain-errors"
	"trustrag/pkg/requestcontext"
)

type Gate interface {
	ValidateInput(ctx context.Context, req guardsvc.InputRequest) guardmodels.Decision
	ValidateOutput(ctx context.Context, req guardsvc.OutputRequest) guardmodels.Decision
}

type RoleResolver interface {
	Resolve(department, departmentRole string) accessmodels.Role
}

type Retriever interface {
	RetrieveForTool(ctx context.Context, query string, domain docmodels.Domain, k int) (*retrievalmodels.ToolResult, error)
}

type Validator interface {
	CheckAccess(role accessmodels.Role, domain docmodels.Domain) bool
	BatchValidate(ctx context.Context, req accesssvc.BatchRequest) (*accessmodels.BatchResult, error)
}

type FrameworkFilter interface {
	FilterForFramework(ctx context.Context, req compliance.FilterRequest) (*accessmodels.BatchResult, error)
}

type DenialRecorder interface {
	RecordAccessDenial(ctx context.Context, req monitormodels.DenialRequest) monitormodels.Alert
}

type Auditor interface {
	LogAccess(ctx context.Context, e audit.AccessEvent) error
	LogQuery(ctx context.Context, e audit.QueryEvent) error
}

type QueryRecorder interface {
	RecordQuery(r metrics.QueryRecord)
}

// Generator turns validated documents into an answer.
type Generator interface {
	Generate(ctx context.Context, query string, docs []docmodels.Document) (string, error)
}

// Pipeline wires the query steps together. Every dependency except the
// framework filter, generator and recorder is required.
type Pipeline struct {
	gate      Gate
	roles     RoleResolver
	retriever Retriever
	validator Validator
	framework FrameworkFilter
	monitor   DenialRecorder
	auditor   Auditor
	generator Generator
	recorder  QueryRecorder
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// Deps groups the required collaborators.
type Deps struct {
	Gate      Gate
	Roles     RoleResolver
	Retriever Retriever
	Validator Validator
	Monitor   DenialRecorder
	Auditor   Auditor
}

type Option func(*Pipeline)

func WithFrameworkFilter(f FrameworkFilter) Option {
	return func(p *Pipeline) { p.framework = f }
}

func WithGenerator(g Generator) Option {
	return func(p *Pipeline) {
		if g != nil {
			p.generator = g
		}
	}
}

func WithQueryRecorder(r QueryRecorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

func New(d Deps, opts ...Option) (*Pipeline, error) {
	switch {
	case d.Gate == nil:
		return nil, errors.New("guardrails gate is required")
	case d.Roles == nil:
		return nil, errors.New("role resolver is required")
	case d.Retriever == nil:
		return nil, errors.New("retriever is required")
	case d.Validator == nil:
		return nil, errors.New("validator is required")
	case d.Monitor == nil:
		return nil, errors.New("security monitor is required")
	case d.Auditor == nil:
		return nil, errors.New("auditor is required")
	}
	p := &Pipeline{
		gate:      d.Gate,
		roles:     d.Roles,
		retriever: d.Retriever,
		validator: d.Validator,
		monitor:   d.Monitor,
		auditor:   d.Auditor,
		generator: ExtractiveGenerator{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("trustrag/pipeline"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Query runs the pipeline. Guardrail and RBAC blocks are returned as a
// response with Blocked set; errors are reserved for invalid requests and
// failing infrastructure.
func (p *Pipeline) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	start := p.now()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	domain := homeDomain(req.Department)
	if req.Domain != "" {
		d, err := docmodels.ParseDomain(req.Domain)
		if err != nil {
			return nil, err
		}
		domain = d
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.query", trace.WithAttributes(
		attribute.String("user", req.User),
		attribute.String("department", req.Department),
		attribute.String("domain", string(domain)),
	))
	defer span.End()

	role := p.roles.Resolve(req.Department, req.DepartmentRole)
	resp := &QueryResponse{
		Role:      role,
		Domain:    domain,
		Documents: []accessmodels.ValidationResult{},
		Sources:   []Source{},
	}
	rec := metrics.QueryRecord{User: req.User, Role: string(role), QueryLen: len(req.Query), Timestamp: start}
	defer func() {
		resp.DurationMS = p.now().Sub(start).Milliseconds()
		rec.Total = p.now().Sub(start)
		p.finish(ctx, req, resp, rec)
	}()

	if d := p.gate.ValidateInput(ctx, guardsvc.InputRequest{
		Query:     req.Query,
		User:      req.User,
		Role:      role,
		Domain:    string(domain),
		SessionID: req.SessionID,
	}); !d.Safe {
		p.block(resp, BlockedByInputGuardrail, d.Violation)
		rec.Blocked = true
		return resp, nil
	}

	retrievalStart := p.now()
	tool, err := p.retriever.RetrieveForTool(ctx, req.Query, domain, req.K)
	rec.Retrieval = p.now().Sub(retrievalStart)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "retrieval failed")
	}
	resp.FellBackToPublic = tool.FellBackToPublic
	resp.Retrieved = len(tool.Documents)
	rec.Retrieved = resp.Retrieved

	if !p.validator.CheckAccess(role, domain) {
		if err := p.denyDomain(ctx, req, role, domain); err != nil {
			return nil, err
		}
		resp.Retrieved = 0
		resp.Blocked = true
		resp.BlockedBy = BlockedByAccessControl
		resp.Explanation = explain.ExplainDenial(role, domain)
		rec.Blocked = true
		return resp, nil
	}
	resp.Domain = tool.Domain

	validationStart := p.now()
	batch, err := p.validate(ctx, req, role, tool.Documents)
	rec.Validation = p.now().Sub(validationStart)
	if err != nil {
		return nil, err
	}
	scores := make(map[string]float64, len(tool.Documents))
	for _, d := range tool.Documents {
		scores[d.Document.ID] = d.Score
	}
	docs := make([]docmodels.Document, len(batch.Results))
	for i, r := range batch.Results {
		docs[i] = r.Document
		resp.Sources = append(resp.Sources, Source{
			ID: r.Document.ID, Title: r.Document.Title, Domain: r.Document.Domain, Score: scores[r.Document.ID],
		})
	}
	resp.Documents = batch.Results
	resp.Validated = len(batch.Results)
	resp.Denied = batch.Denied
	resp.RetrievalExplanation = explain.ExplainRetrieval(resp.Retrieved, resp.Validated, resp.Denied)
	rec.Validated, rec.Denied = resp.Validated, resp.Denied

	generationStart := p.now()
	answer, err := p.generator.Generate(ctx, req.Query, docs)
	rec.Generation = p.now().Sub(generationStart)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "generation failed")
	}

	if d := p.gate.ValidateOutput(ctx, guardsvc.OutputRequest{
		Text:      answer,
		User:      req.User,
		Role:      role,
		Domain:    string(domain),
		Query:     req.Query,
		SessionID: req.SessionID,
	}); !d.Safe {
		p.block(resp, BlockedByOutputGuardrail, d.Violation)
		resp.Documents = []accessmodels.ValidationResult{}
		resp.Sources = []Source{}
		rec.Blocked = true
		return resp, nil
	}

	resp.Answer = answer
	rec.Success = true
	return resp, nil
}

func (p *Pipeline) validate(ctx context.Context, req QueryRequest, role accessmodels.Role, retrieved []retrievalmodels.RetrievedDocument) (*accessmodels.BatchResult, error) {
	docs := make([]docmodels.Document, len(retrieved))
	for i, r := range retrieved {
		docs[i] = r.Document
	}
	batch := accesssvc.BatchRequest{
		Documents: docs,
		Role:      role,
		User:      req.User,
		SessionID: req.SessionID,
		Query:     req.Query,
	}
	if req.Framework != "" && p.framework != nil {
		return p.framework.FilterForFramework(ctx, compliance.FilterRequest{
			BatchRequest: batch,
			Framework:    compliance.ParseFramework(req.Framework),
		})
	}
	return p.validator.BatchValidate(ctx, batch)
}

func (p *Pipeline) denyDomain(ctx context.Context, req QueryRequest, role accessmodels.Role, domain docmodels.Domain) error {
	p.logger.WarnContext(ctx, "domain access denied",
		"request_id", requestcontext.RequestID(ctx),
		"user", req.User,
		"role", role,
		"domain", domain,
	)
	if err := p.auditor.LogAccess(ctx, audit.AccessEvent{
		User:    req.User,
		Role:    string(role),
		Domain:  string(domain),
		Granted: false,
		Reason:  "rbac",
		Query:   req.Query,
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record access denial")
	}
	p.monitor.RecordAccessDenial(ctx, monitormodels.DenialRequest{
		User:      req.User,
		SessionID: req.SessionID,
		Domain:    string(domain),
		Role:      string(role),
		Query:     req.Query,
		Reason: fmt.Sprintf("Role '%s' (from department role '%s') does not have access to '%s' domain",
			role, req.DepartmentRole, domain),
	})
	return nil
}

func (p *Pipeline) block(resp *QueryResponse, stage BlockStage, v *guardmodels.Violation) {
	resp.Blocked = true
	resp.BlockedBy = stage
	resp.Violation = v
	if v != nil {
		resp.Explanation = explain.ExplainViolation(*v)
	} else {
		resp.Explanation = "Request blocked by a guardrail policy."
	}
}

func (p *Pipeline) finish(ctx context.Context, req QueryRequest, resp *QueryResponse, rec metrics.QueryRecord) {
	if resp == nil {
		return
	}
	if err := p.auditor.LogQuery(ctx, audit.QueryEvent{
		User:       req.User,
		Role:       string(resp.Role),
		Domain:     string(resp.Domain),
		Query:      req.Query,
		Retrieved:  resp.Retrieved,
		Validated:  resp.Validated,
		Denied:     resp.Denied,
		Blocked:    resp.Blocked,
		BlockedBy:  string(resp.BlockedBy),
		Duration:   rec.Total,
		SessionID:  req.SessionID,
		Department: req.Department,
	}); err != nil {
		p.logger.ErrorContext(ctx, "failed to audit query", "error", err, "request_id", requestcontext.RequestID(ctx))
	}
	if p.recorder != nil {
		p.recorder.RecordQuery(rec)
	}
}
