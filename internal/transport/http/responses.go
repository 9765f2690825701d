package httptransport

import (
	accessmodels "trustrag/internal/access/models"
	docmodels "trustrag/internal/document/models"
	guardmodels "trustrag/internal/guardrails/models"
	monitormodels "trustrag/internal/monitor/models"
	retrievalmodels "trustrag/internal/retrieval/models"
)

// RetrievedItem is a retrieved document after access validation and masking.
type RetrievedItem struct {
	Document               docmodels.Document     `json:"document"`
	Score                  float64                `json:"score"`
	Method                 retrievalmodels.Method `json:"method"`
	PIIMasked              bool                   `json:"pii_masked"`
	SensitiveTermsDetected []string               `json:"sensitive_terms_detected,omitempty"`
}

type RetrieveResponse struct {
	Documents   []RetrievedItem   `json:"documents"`
	Role        accessmodels.Role `json:"role"`
	Retrieved   int               `json:"retrieved"`
	Validated   int               `json:"validated"`
	Denied      int               `json:"denied"`
	Explanation string            `json:"explanation"`
}

type AccessCheckResponse struct {
	Role        accessmodels.Role  `json:"role"`
	Domain      docmodels.Domain   `json:"domain"`
	Allowed     bool               `json:"allowed"`
	Explanation string             `json:"explanation"`
	Allowlist   []docmodels.Domain `json:"allowed_domains"`
}

type GuardrailResponse struct {
	Safe        bool                   `json:"safe"`
	Violation   *guardmodels.Violation `json:"violation,omitempty"`
	Explanation string                 `json:"explanation,omitempty"`
}

type ViolationsResponse struct {
	Violations []guardmodels.Violation `json:"violations"`
	Count      int                     `json:"count"`
}

type AlertsResponse struct {
	Alerts []monitormodels.Alert `json:"alerts"`
	Count  int                   `json:"count"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Documents int               `json:"documents"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// mergeValidated joins validation results back onto their retrieval scores,
// keeping retrieval order.
func mergeValidated(retrieved []retrievalmodels.RetrievedDocument, results []accessmodels.ValidationResult) []RetrievedItem {
	byID := make(map[string]accessmodels.ValidationResult, len(results))
	for _, r := range results {
		byID[r.Document.ID] = r
	}
	out := make([]RetrievedItem, 0, len(results))
	for _, rd := range retrieved {
		v, ok := byID[rd.Document.ID]
		if !ok {
			continue
		}
		out = append(out, RetrievedItem{
			Document:               v.Document,
			Score:                  rd.Score,
			Method:                 rd.Method,
			PIIMasked:              v.PIIMasked,
			SensitiveTermsDetected: v.SensitiveTermsDetected,
		})
	}
	return out
}
