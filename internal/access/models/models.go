package models

import (
	"slices"
	"strings"

	docmodels "trustrag/internal/document/models"
	dErrors "trustrag/pkg/domain-errors"
)

// Role is a canonical, system-wide role. Every access decision is made on a
// Role, never on a department-specific role string.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAnalyst  Role = "analyst"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
	RoleGuest    Role = "guest"
)

// allowedDomains is the only source of domain access. Order is significant for
// explanations.
var allowedDomains = map[Role][]docmodels.Domain{
	RoleAdmin:    {docmodels.DomainFinance, docmodels.DomainHR, docmodels.DomainHealth, docmodels.DomainPublic, docmodels.DomainLegal},
	RoleAnalyst:  {docmodels.DomainFinance, docmodels.DomainHR, docmodels.DomainPublic},
	RoleManager:  {docmodels.DomainHR, docmodels.DomainPublic},
	RoleEmployee: {docmodels.DomainPublic},
	RoleGuest:    {docmodels.DomainPublic},
}

var roleDescriptions = map[Role]string{
	RoleAdmin:    "full access to all domains",
	RoleAnalyst:  "access to finance, hr, and public domains",
	RoleManager:  "access to hr and public domains",
	RoleEmployee: "access to public domain only",
	RoleGuest:    "access to public domain only",
}

// AllRoles lists roles from most to least privileged.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleAnalyst, RoleManager, RoleEmployee, RoleGuest}
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	_, ok := allowedDomains[r]
	return ok
}

func (r Role) String() string { return string(r) }

// ParseRole normalises s and validates it.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r == "" {
		return "", dErrors.New(dErrors.CodeValidation, "role is required")
	}
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown role: "+s)
	}
	return r, nil
}

// AllowedDomains returns a copy of the role's ordered domain list. Unknown
// roles get nothing.
func (r Role) AllowedDomains() []docmodels.Domain {
	return slices.Clone(allowedDomains[r])
}

// CanAccess reports whether d is in the role's allow-list.
func (r Role) CanAccess(d docmodels.Domain) bool {
	return slices.Contains(allowedDomains[r], d)
}

// Description is the human-readable access summary for the role.
func (r Role) Description() string {
	if d, ok := roleDescriptions[r]; ok {
		return d
	}
	return "no access"
}

// RolesWithAccess lists every role allowed to read d, most privileged first.
func RolesWithAccess(d docmodels.Domain) []Role {
	var out []Role
	for _, r := range AllRoles() {
		if r.CanAccess(d) {
			out = append(out, r)
		}
	}
	return out
}

// ValidationResult is a masked document copy plus what the validator found.
// It lives for one response and is never persisted.
type ValidationResult struct {
	Document               docmodels.Document `json:"document"`
	Validated              bool               `json:"validated"`
	PIIMasked              bool               `json:"pii_masked"`
	SensitiveTermsDetected []string           `json:"sensitive_terms_detected"`
}

// BatchResult summarises a batch validation. Denied documents are counted,
// never returned.
type BatchResult struct {
	Results []ValidationResult `json:"results"`
	Total   int                `json:"total"`
	Denied  int                `json:"denied"`
}
