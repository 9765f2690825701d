package audit

import "time"

// AccessEvent is one RBAC or framework decision on a document or domain.
type AccessEvent struct {
	User       string
	Role       string
	Domain     string
	DocumentID string
	Granted    bool
	Reason     string
	Framework  string
	Query      string
}

// QueryEvent summarises one processed (or blocked) query.
type QueryEvent struct {
	User       string
	Role       string
	Domain     string
	Query      string
	Retrieved  int
	Validated  int
	Denied     int
	Blocked    bool
	Duration   time.Duration
	BlockedBy  string
	SessionID  string
	Department string
}

// ComplianceStatus is the verdict of a compliance report.
type ComplianceStatus string

const (
	StatusCompliant ComplianceStatus = "COMPLIANT"
)

// ComplianceReport aggregates audit activity over a trailing window.
type ComplianceReport struct {
	PeriodDays      int              `json:"period_days"`
	TotalEvents     int              `json:"total_events"`
	AccessGranted   int              `json:"access_granted"`
	AccessDenied    int              `json:"access_denied"`
	FrameworkDenied int              `json:"framework_rejected"`
	Queries         int              `json:"queries"`
	BlockedQueries  int              `json:"blocked_queries"`
	DeniedByDomain  map[string]int   `json:"denied_by_domain"`
	Status          ComplianceStatus `json:"compliance_status"`
	GeneratedAt     time.Time        `json:"generated_at"`
}
