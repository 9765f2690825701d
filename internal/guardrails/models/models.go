package models

import (
	"time"

	dErrors "trustrag/pkg/domain-errors"
)

// ViolationType classifies a guardrail violation.
type ViolationType string

const (
	ViolationPII       ViolationType = "pii_detected"
	ViolationToxic     ViolationType = "toxic_content"
	ViolationRateLimit ViolationType = "rate_limit_exceeded"
)

func (t ViolationType) IsValid() bool {
	switch t {
	case ViolationPII, ViolationToxic, ViolationRateLimit:
		return true
	}
	return false
}

// AllViolationTypes lists the closed set in a stable order.
func AllViolationTypes() []ViolationType {
	return []ViolationType{ViolationPII, ViolationToxic, ViolationRateLimit}
}

// ParseViolationType accepts the wire form case-insensitively.
func ParseViolationType(s string) (ViolationType, error) {
	t := ViolationType(lower(s))
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown violation type: "+s)
	}
	return t, nil
}

// Severity orders violations and alerts.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// AllSeverities lists severities from most to least severe.
func AllSeverities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

func (s Severity) IsValid() bool { return s.Rank() > 0 }

// Rank is 4 for CRITICAL down to 1 for LOW, 0 when unknown.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Alertable reports whether the severity escalates to the security monitor.
func (s Severity) Alertable() bool { return s.Rank() >= SeverityHigh.Rank() }

// ParseSeverity accepts the wire form case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(upper(s))
	if !sev.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown severity: "+s)
	}
	return sev, nil
}

// Violation is one recorded guardrail breach.
type Violation struct {
	ID             string         `json:"id"`
	Type           ViolationType  `json:"violation_type"`
	Severity       Severity       `json:"severity"`
	Description    string         `json:"description"`
	Timestamp      time.Time      `json:"timestamp"`
	User           string         `json:"user"`
	SessionID      string         `json:"session_id,omitempty"`
	Query          string         `json:"query,omitempty"`
	AdditionalData map[string]any `json:"additional_data,omitempty"`
}

// Decision is the outcome of a guardrail check. Violation is set only when
// Safe is false.
type Decision struct {
	Safe      bool       `json:"safe"`
	Violation *Violation `json:"violation,omitempty"`
}

// Allow is the decision for a request that passed every check.
func Allow() Decision { return Decision{Safe: true} }

// Block wraps v in an unsafe decision.
func Block(v Violation) Decision { return Decision{Safe: false, Violation: &v} }

// ViolationFilter narrows a violation listing. Zero values match all.
type ViolationFilter struct {
	Severity Severity
	Type     ViolationType
	Limit    int
}

// Matches reports whether v passes the filter.
func (f ViolationFilter) Matches(v Violation) bool {
	if f.Severity != "" && v.Severity != f.Severity {
		return false
	}
	if f.Type != "" && v.Type != f.Type {
		return false
	}
	return true
}

// GuardrailMetrics summarises recorded violations and active features.
type GuardrailMetrics struct {
	TotalViolations    int                   `json:"total_violations"`
	BySeverity         map[Severity]int      `json:"by_severity"`
	ByType             map[ViolationType]int `json:"by_type"`
	CriticalViolations int                   `json:"critical_violations"`
	HighViolations     int                   `json:"high_violations"`
	PIIDetection       bool                  `json:"pii_detection_enabled"`
	Moderation         bool                  `json:"moderation_enabled"`
	RateLimiting       bool                  `json:"rate_limiting_enabled"`
}
