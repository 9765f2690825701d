// Package service is the access validator: RBAC on document domains followed
// by sensitive-term scanning and role-aware masking.
package service

import (
	"context"
	"errors"
	"log/slog"

	"trustrag/internal/access/masking"
	"trustrag/internal/access/models"
	"trustrag/internal/audit"
	docmodels "trustrag/internal/document/models"
	monitormodels "trustrag/internal/monitor/models"
	dErrors "trustrag/pkg/domain-errors"
)

// AuditLogger records access decisions.
type AuditLogger interface {
	LogAccess(ctx context.Context, e audit.AccessEvent) error
}

// DenialRecorder is notified of every RBAC denial.
type DenialRecorder interface {
	RecordAccessDenial(ctx context.Context, req monitormodels.DenialRequest) monitormodels.Alert
}

// ContentInspector is the only component that reads document content.
type ContentInspector interface {
	Scan(content string) []string
	Mask(content string, patterns []masking.PatternName) (string, bool)
}

const reasonRBAC = "rbac"

// Service validates document access for a role.
type Service struct {
	audit     AuditLogger
	monitor   DenialRecorder
	inspector ContentInspector
	metrics   *Metrics
	logger    *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDenialRecorder notifies the security monitor on denials.
func WithDenialRecorder(r DenialRecorder) Option {
	return func(s *Service) { s.monitor = r }
}

func WithInspector(i ContentInspector) Option {
	return func(s *Service) {
		if i != nil {
			s.inspector = i
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates the validator. The audit logger is required.
func New(auditLogger AuditLogger, opts ...Option) (*Service, error) {
	if auditLogger == nil {
		return nil, errors.New("audit logger is required")
	}
	s := &Service{
		audit:     auditLogger,
		inspector: masking.NewInspector(nil),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CheckAccess reports whether role may read documents in domain.
func (s *Service) CheckAccess(role models.Role, domain docmodels.Domain) bool {
	return role.CanAccess(domain)
}

// ValidateRequest asks for one document to be checked and masked.
type ValidateRequest struct {
	Document    docmodels.Document
	Role        models.Role
	SkipMasking bool
	User        string
	SessionID   string
	Query       string
}

// ValidateAndMask returns a masked copy of the document, or nil when the role
// may not read its domain. Content is never touched for a denied document.
func (s *Service) ValidateAndMask(ctx context.Context, req ValidateRequest) (*models.ValidationResult, error) {
	if !req.Role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown role: "+string(req.Role))
	}

	if !s.CheckAccess(req.Role, req.Document.Domain) {
		if err := s.deny(ctx, req); err != nil {
			return nil, err
		}
		s.notifyMonitor(ctx, req)
		return nil, nil
	}
	return s.grant(ctx, req)
}

// BatchRequest validates several documents for one caller.
type BatchRequest struct {
	Documents   []docmodels.Document
	Role        models.Role
	SkipMasking bool
	User        string
	SessionID   string
	Query       string
}

// BatchValidate keeps the documents the role may read, masked, in input
// order. Each denial is audited; the monitor hears about each denied domain
// once per batch so a single query cannot trip the excessive-denials alert.
func (s *Service) BatchValidate(ctx context.Context, req BatchRequest) (*models.BatchResult, error) {
	if !req.Role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown role: "+string(req.Role))
	}

	result := &models.BatchResult{
		Results: make([]models.ValidationResult, 0, len(req.Documents)),
		Total:   len(req.Documents),
	}
	notified := map[docmodels.Domain]bool{}
	for _, doc := range req.Documents {
		one := ValidateRequest{
			Document:    doc,
			Role:        req.Role,
			SkipMasking: req.SkipMasking,
			User:        req.User,
			SessionID:   req.SessionID,
			Query:       req.Query,
		}
		if !s.CheckAccess(req.Role, doc.Domain) {
			result.Denied++
			if err := s.deny(ctx, one); err != nil {
				return nil, err
			}
			if !notified[doc.Domain] {
				notified[doc.Domain] = true
				s.notifyMonitor(ctx, one)
			}
			continue
		}
		validated, err := s.grant(ctx, one)
		if err != nil {
			return nil, err
		}
		result.Results = append(result.Results, *validated)
	}

	s.logger.InfoContext(ctx, "batch validated",
		"user", req.User,
		"role", req.Role,
		"total", result.Total,
		"validated", len(result.Results),
		"denied", result.Denied,
	)
	return result, nil
}

func (s *Service) grant(ctx context.Context, req ValidateRequest) (*models.ValidationResult, error) {
	doc := req.Document.Clone()
	terms := s.inspector.Scan(doc.Content)

	var masked bool
	if !req.SkipMasking {
		doc.Content, masked = s.inspector.Mask(doc.Content, masking.PatternsFor(req.Role, doc.Domain))
	}

	if err := s.audit.LogAccess(ctx, audit.AccessEvent{
		User:       req.User,
		Role:       string(req.Role),
		Domain:     string(doc.Domain),
		DocumentID: doc.ID,
		Granted:    true,
		Query:      req.Query,
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record access grant")
	}
	s.metrics.IncDecision(true, doc.Domain)
	if masked {
		s.metrics.IncMasked(doc.Domain)
	}

	return &models.ValidationResult{
		Document:               doc,
		Validated:              true,
		PIIMasked:              masked,
		SensitiveTermsDetected: terms,
	}, nil
}

func (s *Service) deny(ctx context.Context, req ValidateRequest) error {
	s.logger.WarnContext(ctx, "access denied",
		"user", req.User,
		"role", req.Role,
		"domain", req.Document.Domain,
		"document_id", req.Document.ID,
	)
	s.metrics.IncDecision(false, req.Document.Domain)
	if err := s.audit.LogAccess(ctx, audit.AccessEvent{
		User:       req.User,
		Role:       string(req.Role),
		Domain:     string(req.Document.Domain),
		DocumentID: req.Document.ID,
		Granted:    false,
		Reason:     reasonRBAC,
		Query:      req.Query,
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record access denial")
	}
	return nil
}

func (s *Service) notifyMonitor(ctx context.Context, req ValidateRequest) {
	if s.monitor == nil {
		return
	}
	s.monitor.RecordAccessDenial(ctx, monitormodels.DenialRequest{
		User:      req.User,
		SessionID: req.SessionID,
		Domain:    string(req.Document.Domain),
		Role:      string(req.Role),
		Query:     req.Query,
		Reason:    reasonRBAC,
	})
}
