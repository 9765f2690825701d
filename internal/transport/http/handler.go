// Package httptransport exposes the query pipeline and its supporting
// services over JSON/HTTP.
package httptransport

import (
	"context"
	"log/slog"

	"trustrag/internal/access/compliance"
	accessmodels "trustrag/internal/access/models"
	"trustrag/internal/access/rolemap"
	accesssvc "trustrag/internal/access/service"
	"trustrag/internal/audit"
	docmodels "trustrag/internal/document/models"
	guardmodels "trustrag/internal/guardrails/models"
	guardsvc "trustrag/internal/guardrails/service"
	monitormodels "trustrag/internal/monitor/models"
	"trustrag/internal/pipeline"
	"trustrag/internal/platform/metrics"
	retrievalmodels "trustrag/internal/retrieval/models"
)

// QueryService answers end-user questions.
type QueryService interface {
	Query(ctx context.Context, req pipeline.QueryRequest) (*pipeline.QueryResponse, error)
}

// Retriever finds candidate documents.
type Retriever interface {
	Retrieve(ctx context.Context, req retrievalmodels.RetrieveRequest) ([]retrievalmodels.RetrievedDocument, error)
	RetrieveByDomain(ctx context.Context, query string, domain docmodels.Domain, k int) ([]retrievalmodels.RetrievedDocument, error)
	Len() int
}

// RoleResolver maps department roles to canonical roles.
type RoleResolver interface {
	Resolve(department, departmentRole string) accessmodels.Role
	AccessSummary(department, departmentRole string) rolemap.Summary
}

// AccessValidator enforces RBAC and masking on documents.
type AccessValidator interface {
	CheckAccess(role accessmodels.Role, domain docmodels.Domain) bool
	BatchValidate(ctx context.Context, req accesssvc.BatchRequest) (*accessmodels.BatchResult, error)
}

// FrameworkFilter narrows documents to a compliance framework.
type FrameworkFilter interface {
	FilterForFramework(ctx context.Context, req compliance.FilterRequest) (*accessmodels.BatchResult, error)
}

// Guardrails checks inputs and outputs and reports violations.
type Guardrails interface {
	ValidateInput(ctx context.Context, req guardsvc.InputRequest) guardmodels.Decision
	ValidateOutput(ctx context.Context, req guardsvc.OutputRequest) guardmodels.Decision
	Violations(ctx context.Context, f guardmodels.ViolationFilter) []guardmodels.Violation
	Metrics(ctx context.Context) guardmodels.GuardrailMetrics
}

// SecurityMonitor lists and raises alerts.
type SecurityMonitor interface {
	Alerts(ctx context.Context, f monitormodels.AlertFilter) []monitormodels.Alert
	CreateAlert(ctx context.Context, req monitormodels.CreateAlertRequest) (monitormodels.Alert, error)
	Metrics(ctx context.Context) monitormodels.SecurityMetrics
}

// QueryMetrics reports the query latency summary.
type QueryMetrics interface {
	Summary() metrics.Summary
}

// ComplianceReporter builds audit reports.
type ComplianceReporter interface {
	ComplianceReport(ctx context.Context, days int) (*audit.ComplianceReport, error)
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Services bundles the handler's collaborators.
type Services struct {
	Pipeline   QueryService
	Retriever  Retriever
	Roles      RoleResolver
	Access     AccessValidator
	Frameworks FrameworkFilter
	Guardrails Guardrails
	Monitor    SecurityMonitor
	Queries    QueryMetrics
	Compliance ComplianceReporter
}

// Handler serves the /v1 API.
type Handler struct {
	svc    Services
	health map[string]HealthCheck
	logger *slog.Logger
}

// New creates a Handler. Frameworks and health checks are optional.
func New(svc Services, logger *slog.Logger, health map[string]HealthCheck) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, health: health, logger: logger}
}
