package httptransport

import (
	"strings"

	docmodels "trustrag/internal/document/models"
	retrievalmodels "trustrag/internal/retrieval/models"
	dErrors "trustrag/pkg/domain-errors"
)

const maxBatchDocuments = 100

// QueryRequest is the body of POST /v1/query. The caller's identity comes
// from the bearer token, never from the body.
type QueryRequest struct {
	Query     string `json:"query"`
	Domain    string `json:"domain,omitempty"`
	K         int    `json:"k,omitempty"`
	Framework string `json:"framework,omitempty"`
}

func (r *QueryRequest) Validate() error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return dErrors.New(dErrors.CodeValidation, "query is required")
	}
	if r.Domain != "" {
		if _, err := docmodels.ParseDomain(r.Domain); err != nil {
			return err
		}
	}
	return nil
}

// RetrieveRequest is the body of POST /v1/retrieve.
type RetrieveRequest struct {
	Query          string   `json:"query"`
	K              int      `json:"k,omitempty"`
	SemanticWeight *float64 `json:"semantic_weight,omitempty"`
	KeywordWeight  *float64 `json:"keyword_weight,omitempty"`

	model retrievalmodels.RetrieveRequest
}

func (r *RetrieveRequest) Validate() error {
	r.model = retrievalmodels.RetrieveRequest{
		Query:          r.Query,
		K:              r.K,
		SemanticWeight: r.SemanticWeight,
		KeywordWeight:  r.KeywordWeight,
	}
	return r.model.Validate()
}

// DomainRetrieveRequest is the body of POST /v1/retrieve/domain.
type DomainRetrieveRequest struct {
	Query  string `json:"query"`
	Domain string `json:"domain"`
	K      int    `json:"k,omitempty"`

	domain docmodels.Domain
}

func (r *DomainRetrieveRequest) Validate() error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return dErrors.New(dErrors.CodeValidation, "query is required")
	}
	if r.K < 0 {
		return dErrors.New(dErrors.CodeValidation, "k must not be negative")
	}
	if r.K == 0 {
		r.K = retrievalmodels.DefaultK
	}
	d, err := docmodels.ParseDomain(r.Domain)
	if err != nil {
		return err
	}
	r.domain = d
	return nil
}

// ValidateDocumentsRequest is the body of POST /v1/access/validate.
type ValidateDocumentsRequest struct {
	Documents []docmodels.Document `json:"documents"`
	SkipMask  bool                 `json:"skip_masking,omitempty"`
	Framework string               `json:"framework,omitempty"`
}

func (r *ValidateDocumentsRequest) Validate() error {
	if len(r.Documents) == 0 {
		return dErrors.New(dErrors.CodeValidation, "documents are required")
	}
	if len(r.Documents) > maxBatchDocuments {
		return dErrors.New(dErrors.CodeValidation, "too many documents")
	}
	for _, d := range r.Documents {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// InputCheckRequest is the body of POST /v1/guardrails/input.
type InputCheckRequest struct {
	Query  string `json:"query"`
	Domain string `json:"domain,omitempty"`
}

func (r *InputCheckRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return dErrors.New(dErrors.CodeValidation, "query is required")
	}
	return nil
}

// OutputCheckRequest is the body of POST /v1/guardrails/output.
type OutputCheckRequest struct {
	Text   string `json:"text"`
	Query  string `json:"query,omitempty"`
	Domain string `json:"domain,omitempty"`
}

func (r *OutputCheckRequest) Validate() error {
	if r.Text == "" {
		return dErrors.New(dErrors.CodeValidation, "text is required")
	}
	return nil
}
