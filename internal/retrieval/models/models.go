// Package models holds the retrieval result types shared by the keyword and
// semantic indexes and the hybrid retriever.
package models

import (
	"strings"

	docmodels "trustrag/internal/document/models"
	dErrors "trustrag/pkg/domain-errors"
)

// Method records which sub-search produced a result.
type Method string

const (
	MethodSemantic Method = "semantic"
	MethodKeyword  Method = "keyword"
	MethodHybrid   Method = "hybrid"
)

// Hit is a raw sub-search score for one document id.
type Hit struct {
	ID    string
	Score float64
}

// RetrievedDocument is a document with its weighted relevance.
type RetrievedDocument struct {
	Document docmodels.Document `json:"document"`
	Score    float64            `json:"score"`
	Method   Method             `json:"method"`
}

const (
	DefaultK              = 5
	DefaultSemanticWeight = 0.7
)

// RetrieveRequest asks for the top K documents for Query. A nil
// SemanticWeight means DefaultSemanticWeight and a nil KeywordWeight means
// 1-SemanticWeight.
type RetrieveRequest struct {
	Query          string   `json:"query"`
	K              int      `json:"k"`
	SemanticWeight *float64 `json:"semantic_weight,omitempty"`
	KeywordWeight  *float64 `json:"keyword_weight,omitempty"`
}

// Validate trims the query and fills the default K.
func (r *RetrieveRequest) Validate() error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return dErrors.New(dErrors.CodeValidation, "query is required")
	}
	if r.K < 0 {
		return dErrors.New(dErrors.CodeValidation, "k must not be negative")
	}
	if r.K == 0 {
		r.K = DefaultK
	}
	if (r.SemanticWeight != nil && *r.SemanticWeight < 0) || (r.KeywordWeight != nil && *r.KeywordWeight < 0) {
		return dErrors.New(dErrors.CodeValidation, "weights must not be negative")
	}
	return nil
}

// Weights returns the normalised (semantic, keyword) pair.
func (r RetrieveRequest) Weights() (float64, float64) {
	sem := DefaultSemanticWeight
	if r.SemanticWeight != nil {
		sem = *r.SemanticWeight
	}
	kw := 1 - sem
	if r.KeywordWeight != nil {
		kw = *r.KeywordWeight
	}
	if kw < 0 {
		kw = 0
	}
	total := sem + kw
	if total <= 0 {
		return 0.5, 0.5
	}
	return sem / total, kw / total
}

// ToolResult is the domain-scoped retrieval used by the pipeline.
type ToolResult struct {
	Documents        []RetrievedDocument `json:"documents"`
	Domain           docmodels.Domain    `json:"domain"`
	FellBackToPublic bool                `json:"fell_back_to_public"`
}
