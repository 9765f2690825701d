package pipeline

import (
	"strings"
	"unicode/utf8"

	accessmodels "trustrag/internal/access/models"
	docmodels "trustrag/internal/document/models"
	guardmodels "trustrag/internal/guardrails/models"
	dErrors "trustrag/pkg/domain-errors"
)

const (
	defaultK       = 5
	maxK           = 20
	maxQueryLength = 2000
)

// QueryRequest is one end-user question. Domain may be empty, in which case
// the department's home domain is used.
type QueryRequest struct {
	Query          string `json:"query"`
	User           string `json:"user"`
	Department     string `json:"department"`
	DepartmentRole string `json:"department_role"`
	Domain         string `json:"domain,omitempty"`
	SessionID      string `json:"session_id,omitempty"`
	K              int    `json:"k,omitempty"`
	Framework      string `json:"framework,omitempty"`
}

// Validate normalises the request in place.
func (r *QueryRequest) Validate() error {
	r.Query = strings.TrimSpace(r.Query)
	r.Department = strings.ToLower(strings.TrimSpace(r.Department))
	r.DepartmentRole = strings.ToLower(strings.TrimSpace(r.DepartmentRole))
	if r.Query == "" {
		return dErrors.New(dErrors.CodeValidation, "query is required")
	}
	if utf8.RuneCountInString(r.Query) > maxQueryLength {
		return dErrors.New(dErrors.CodeValidation, "query is too long")
	}
	if r.User == "" {
		return dErrors.New(dErrors.CodeValidation, "user is required")
	}
	if r.Department == "" || r.DepartmentRole == "" {
		return dErrors.New(dErrors.CodeValidation, "department and department_role are required")
	}
	if r.K < 0 || r.K > maxK {
		return dErrors.New(dErrors.CodeValidation, "k must be between 1 and 20")
	}
	if r.K == 0 {
		r.K = defaultK
	}
	return nil
}

// homeDomain maps a department to the domain its agent serves.
func homeDomain(department string) docmodels.Domain {
	switch department {
	case "accounting", "finance":
		return docmodels.DomainFinance
	case "hr":
		return docmodels.DomainHR
	case "legal":
		return docmodels.DomainLegal
	case "health":
		return docmodels.DomainHealth
	default:
		return docmodels.DomainPublic
	}
}

// BlockStage names the step that stopped a query.
type BlockStage string

const (
	BlockedByInputGuardrail  BlockStage = "input_guardrail"
	BlockedByAccessControl   BlockStage = "access_control"
	BlockedByOutputGuardrail BlockStage = "output_guardrail"
)

// Source identifies one document an answer was drawn from.
type Source struct {
	ID     string           `json:"id"`
	Title  string           `json:"title"`
	Domain docmodels.Domain `json:"domain"`
	Score  float64          `json:"score"`
}

// QueryResponse is either an answer with its sources or a block with an
// explanation. A blocked query never comes back as a bare empty answer.
type QueryResponse struct {
	Answer               string                          `json:"answer,omitempty"`
	Documents            []accessmodels.ValidationResult `json:"documents"`
	Sources              []Source                        `json:"sources"`
	Role                 accessmodels.Role               `json:"role"`
	Domain               docmodels.Domain                `json:"domain"`
	FellBackToPublic     bool                            `json:"fell_back_to_public"`
	Retrieved            int                             `json:"retrieved"`
	Validated            int                             `json:"validated"`
	Denied               int                             `json:"denied"`
	RetrievalExplanation string                          `json:"retrieval_explanation,omitempty"`
	Blocked              bool                            `json:"blocked"`
	BlockedBy            BlockStage                      `json:"blocked_by,omitempty"`
	Explanation          string                          `json:"explanation,omitempty"`
	Violation            *guardmodels.Violation          `json:"violation,omitempty"`
	DurationMS           int64                           `json:"duration_ms"`
}
