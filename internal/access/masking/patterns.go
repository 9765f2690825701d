// Package masking implements deterministic, pattern-based PII redaction and
// the sensitive-term scan.
package masking

import (
	"regexp"
	"slices"

	"trustrag/internal/access/models"
	docmodels "trustrag/internal/document/models"
)

// PatternName identifies one PII pattern in the catalogue.
type PatternName string

const (
	PatternSSN        PatternName = "ssn"
	PatternSSNNoDash  PatternName = "ssn_no_dash"
	PatternCreditCard PatternName = "credit_card"
	PatternEmail      PatternName = "email"
	PatternPhone      PatternName = "phone"
	PatternAccountID  PatternName = "account_id"
	PatternSalary     PatternName = "salary"
)

// Pattern is a regex and the literal token that replaces each match.
type Pattern struct {
	Name        PatternName
	Regexp      *regexp.Regexp
	Replacement string
}

// catalogue is applied in this order. Replacement tokens contain no digits
// and no '@', so no token can be matched by any pattern.
var catalogue = []Pattern{
	{PatternSSN, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "[MASKED-SSN]"},
	{PatternSSNNoDash, regexp.MustCompile(`\b\d{9}\b`), "[MASKED-SSN]"},
	{PatternCreditCard, regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`), "[MASKED-CC]"},
	{PatternEmail, regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`), "[MASKED-EMAIL]"},
	{PatternPhone, regexp.MustCompile(`\b\d{3}-\d{3}-\d{4}\b`), "[MASKED-PHONE]"},
	{PatternAccountID, regexp.MustCompile(`\b[A-Z]{2}\d{6}\b`), "[MASKED-ID]"},
	{PatternSalary, regexp.MustCompile(`\$\d{1,3}(,\d{3})*(\.\d{2})?`), "[MASKED-AMOUNT]"},
}

// Catalogue returns the full ordered pattern list.
func Catalogue() []Pattern {
	return slices.Clone(catalogue)
}

// AllPatterns lists every pattern name in application order.
func AllPatterns() []PatternName {
	out := make([]PatternName, len(catalogue))
	for i, p := range catalogue {
		out[i] = p.Name
	}
	return out
}

// PatternsFor selects the masking set for a role reading a domain. More
// trusted roles see more raw identifiers.
func PatternsFor(role models.Role, domain docmodels.Domain) []PatternName {
	switch {
	case role == models.RoleAdmin:
		return []PatternName{PatternSSN, PatternSSNNoDash, PatternCreditCard, PatternAccountID}
	case role == models.RoleAnalyst && (domain == docmodels.DomainFinance || domain == docmodels.DomainHR):
		return []PatternName{PatternSSN, PatternSSNNoDash, PatternCreditCard}
	case role == models.RoleManager && domain == docmodels.DomainHR:
		return []PatternName{PatternSSN, PatternSSNNoDash, PatternCreditCard, PatternSalary}
	default:
		return AllPatterns()
	}
}
