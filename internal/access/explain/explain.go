// Package explain renders user-facing explanations for access and guardrail
// decisions.
package explain

import (
	"fmt"
	"strings"

	"trustrag/internal/access/models"
	docmodels "trustrag/internal/document/models"
	guardmodels "trustrag/internal/guardrails/models"
)

// ExplainDenial names the domains the role may read and the roles that may
// read the requested one.
func ExplainDenial(role models.Role, domain docmodels.Domain) string {
	return fmt.Sprintf(
		"Access DENIED: Role '%s' cannot access '%s' domain. Your role allows: %s. To access this domain, you need one of: %s.",
		role, domain, joinDomains(role.AllowedDomains()), joinRoles(models.RolesWithAccess(domain)),
	)
}

func ExplainGrant(role models.Role, domain docmodels.Domain) string {
	return fmt.Sprintf("Access GRANTED: Role '%s' has access to '%s' domain.", role, domain)
}

// ExplainRetrieval summarises how many retrieved documents survived
// validation.
func ExplainRetrieval(found, validated, denied int) string {
	return fmt.Sprintf("Found %d documents, validated %d, denied %d based on your role permissions.",
		found, validated, denied)
}

// ExplainViolation states the policy behind a guardrail block.
func ExplainViolation(v guardmodels.Violation) string {
	var policy string
	switch v.Type {
	case guardmodels.ViolationPII:
		policy = "The response contained personal data that your role is not cleared to see unmasked."
	case guardmodels.ViolationToxic:
		policy = "The content was classified as unsafe by the moderation service."
	case guardmodels.ViolationRateLimit:
		policy = "Too many requests were made in the current window. Retry after it resets."
	default:
		policy = "A guardrail policy blocked this request."
	}
	if v.Description == "" {
		return fmt.Sprintf("Request blocked (%s). %s", v.Severity, policy)
	}
	return fmt.Sprintf("Request blocked (%s): %s. %s", v.Severity, v.Description, policy)
}

func joinDomains(ds []docmodels.Domain) string {
	if len(ds) == 0 {
		return "none"
	}
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = string(d)
	}
	return strings.Join(parts, ", ")
}

func joinRoles(rs []models.Role) string {
	if len(rs) == 0 {
		return "none"
	}
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}
