// Package compliance narrows document access to what a regulatory framework
// permits before ordinary RBAC runs.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"trustrag/internal/access/models"
	"trustrag/internal/access/service"
	"trustrag/internal/audit"
	docmodels "trustrag/internal/document/models"
)

// Framework is a regulatory regime.
type Framework string

const (
	FrameworkHIPAA   Framework = "hipaa"
	FrameworkGDPR    Framework = "gdpr"
	FrameworkSOX     Framework = "sox"
	FrameworkGeneral Framework = "general"
)

var frameworkDomains = map[Framework][]docmodels.Domain{
	FrameworkHIPAA:   {docmodels.DomainHealth, docmodels.DomainPublic},
	FrameworkGDPR:    {docmodels.DomainPublic},
	FrameworkSOX:     {docmodels.DomainFinance, docmodels.DomainPublic},
	FrameworkGeneral: {docmodels.DomainPublic},
}

// ParseFramework lowercases s. Unknown or empty names resolve to general.
func ParseFramework(s string) Framework {
	f := Framework(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := frameworkDomains[f]; !ok {
		return FrameworkGeneral
	}
	return f
}

// AllowedDomains returns a copy of the framework's allow-list.
func (f Framework) AllowedDomains() []docmodels.Domain {
	return slices.Clone(frameworkDomains[ParseFramework(string(f))])
}

// Permits reports whether the framework allows documents from d.
func (f Framework) Permits(d docmodels.Domain) bool {
	return slices.Contains(frameworkDomains[ParseFramework(string(f))], d)
}

// Validator is the subset of the access validator used here.
type Validator interface {
	ValidateAndMask(ctx context.Context, req service.ValidateRequest) (*models.ValidationResult, error)
}

// AuditLogger records framework rejections.
type AuditLogger interface {
	LogAccess(ctx context.Context, e audit.AccessEvent) error
}

// Checker applies a framework allow-list ahead of RBAC.
type Checker struct {
	validator Validator
	audit     AuditLogger
	domains   map[Framework][]docmodels.Domain
	logger    *slog.Logger
}

type Option func(*Checker)

func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFrameworkDomains replaces the allow-list of each named framework.
// Frameworks not named keep their defaults; unknown names are ignored.
func WithFrameworkDomains(overrides map[Framework][]docmodels.Domain) Option {
	return func(c *Checker) {
		for f, ds := range overrides {
			if _, ok := frameworkDomains[f]; ok && len(ds) > 0 {
				c.domains[f] = slices.Clone(ds)
			}
		}
	}
}

// ParseFrameworkDomains converts a name-keyed table, as found in the policy
// file, validating every domain.
func ParseFrameworkDomains(raw map[string][]string) (map[Framework][]docmodels.Domain, error) {
	out := make(map[Framework][]docmodels.Domain, len(raw))
	for name, domains := range raw {
		f := Framework(strings.ToLower(strings.TrimSpace(name)))
		if _, ok := frameworkDomains[f]; !ok {
			return nil, fmt.Errorf("unknown framework %q", name)
		}
		for _, d := range domains {
			parsed, err := docmodels.ParseDomain(d)
			if err != nil {
				return nil, fmt.Errorf("framework %s: %w", f, err)
			}
			out[f] = append(out[f], parsed)
		}
	}
	return out, nil
}

func New(validator Validator, auditLogger AuditLogger, opts ...Option) (*Checker, error) {
	if validator == nil {
		return nil, errors.New("validator is required")
	}
	if auditLogger == nil {
		return nil, errors.New("audit logger is required")
	}
	c := &Checker{
		validator: validator,
		audit:     auditLogger,
		domains:   maps.Clone(frameworkDomains),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Permits applies this checker's allow-list, including overrides.
func (c *Checker) Permits(f Framework, d docmodels.Domain) bool {
	return slices.Contains(c.domains[ParseFramework(string(f))], d)
}

// FrameworkRequest is a ValidateRequest scoped to a framework.
type FrameworkRequest struct {
	service.ValidateRequest
	Framework Framework
}

// ValidateForFramework returns nil when the framework excludes the document's
// domain; otherwise the access validator decides.
func (c *Checker) ValidateForFramework(ctx context.Context, req FrameworkRequest) (*models.ValidationResult, error) {
	framework := ParseFramework(string(req.Framework))
	if !c.Permits(framework, req.Document.Domain) {
		if err := c.reject(ctx, framework, req.ValidateRequest); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return c.validator.ValidateAndMask(ctx, req.ValidateRequest)
}

// FilterRequest is the batch form of FrameworkRequest.
type FilterRequest struct {
	service.BatchRequest
	Framework Framework
}

// FilterForFramework validates each document under the framework and keeps
// the survivors in input order.
func (c *Checker) FilterForFramework(ctx context.Context, req FilterRequest) (*models.BatchResult, error) {
	result := &models.BatchResult{
		Results: make([]models.ValidationResult, 0, len(req.Documents)),
		Total:   len(req.Documents),
	}
	for _, doc := range req.Documents {
		res, err := c.ValidateForFramework(ctx, FrameworkRequest{
			ValidateRequest: service.ValidateRequest{
				Document:    doc,
				Role:        req.Role,
				SkipMasking: req.SkipMasking,
				User:        req.User,
				SessionID:   req.SessionID,
				Query:       req.Query,
			},
			Framework: req.Framework,
		})
		if err != nil {
			return nil, err
		}
		if res == nil {
			result.Denied++
			continue
		}
		result.Results = append(result.Results, *res)
	}
	c.logger.InfoContext(ctx, "framework filter applied",
		"framework", ParseFramework(string(req.Framework)),
		"user", req.User,
		"total", result.Total,
		"validated", len(result.Results),
		"denied", result.Denied,
	)
	return result, nil
}

func (c *Checker) reject(ctx context.Context, f Framework, req service.ValidateRequest) error {
	c.logger.WarnContext(ctx, "framework rejected document",
		"framework", f,
		"user", req.User,
		"domain", req.Document.Domain,
		"document_id", req.Document.ID,
	)
	return c.audit.LogAccess(ctx, audit.AccessEvent{
		User:       req.User,
		Role:       string(req.Role),
		Domain:     string(req.Document.Domain),
		DocumentID: req.Document.ID,
		Granted:    false,
		Reason:     "framework",
		Framework:  string(f),
		Query:      req.Query,
	})
}
