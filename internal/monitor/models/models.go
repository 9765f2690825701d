package models

import (
	"time"

	guardmodels "trustrag/internal/guardrails/models"
)

// AlertType classifies a security alert.
type AlertType string

const (
	AlertAccessDenied       AlertType = "ACCESS_DENIED"
	AlertExcessiveDenials   AlertType = "EXCESSIVE_DENIALS"
	AlertGuardrailPII       AlertType = "GUARDRAIL_PII_DETECTED"
	AlertGuardrailToxic     AlertType = "GUARDRAIL_TOXIC_CONTENT"
	AlertGuardrailRateLimit AlertType = "GUARDRAIL_RATE_LIMIT_EXCEEDED"
	AlertManual             AlertType = "MANUAL"
)

// GuardrailAlertType maps a violation type to its alert type.
func GuardrailAlertType(t guardmodels.ViolationType) AlertType {
	switch t {
	case guardmodels.ViolationPII:
		return AlertGuardrailPII
	case guardmodels.ViolationToxic:
		return AlertGuardrailToxic
	case guardmodels.ViolationRateLimit:
		return AlertGuardrailRateLimit
	default:
		return AlertManual
	}
}

// MaxQueryLen bounds the query text copied into an alert.
const MaxQueryLen = 200

// Alert is a security event surfaced to operators.
type Alert struct {
	ID             string               `json:"id"`
	Type           AlertType            `json:"type"`
	Severity       guardmodels.Severity `json:"severity"`
	Message        string               `json:"message"`
	Description    string               `json:"description,omitempty"`
	Timestamp      time.Time            `json:"timestamp"`
	User           string               `json:"user,omitempty"`
	SessionID      string               `json:"session_id,omitempty"`
	Domain         string               `json:"domain,omitempty"`
	Role           string               `json:"role,omitempty"`
	Query          string               `json:"query,omitempty"`
	DenialCount    int                  `json:"denial_count,omitempty"`
	AdditionalData map[string]any       `json:"additional_data,omitempty"`
}

// DenialRequest describes one denied access for the monitor.
type DenialRequest struct {
	User      string
	SessionID string
	Domain    string
	Role      string
	Query     string
	Reason    string
}

// CreateAlertRequest is a manual alert.
type CreateAlertRequest struct {
	Type           AlertType            `json:"type"`
	Severity       guardmodels.Severity `json:"severity"`
	Message        string               `json:"message"`
	Description    string               `json:"description"`
	User           string               `json:"user"`
	SessionID      string               `json:"session_id"`
	Query          string               `json:"query"`
	AdditionalData map[string]any       `json:"additional_data"`
}

// Validate checks required fields and normalises the defaults.
func (r *CreateAlertRequest) Validate() error {
	if r.Message == "" {
		return errMessageRequired
	}
	if r.Severity == "" {
		r.Severity = guardmodels.SeverityMedium
	}
	if !r.Severity.IsValid() {
		return errInvalidSeverity
	}
	if r.Type == "" {
		r.Type = AlertManual
	}
	return nil
}

// AlertFilter narrows an alert listing. A zero Severity matches all.
type AlertFilter struct {
	Severity guardmodels.Severity
	Limit    int
}

// SecurityMetrics counts stored alerts by severity.
type SecurityMetrics struct {
	TotalAlerts    int `json:"total_alerts"`
	CriticalAlerts int `json:"critical_alerts"`
	HighAlerts     int `json:"high_alerts"`
	MediumAlerts   int `json:"medium_alerts"`
	LowAlerts      int `json:"low_alerts"`
}
