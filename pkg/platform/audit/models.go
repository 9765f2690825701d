package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose so stores
// and sinks can apply different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers access decisions with regulatory significance.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers guardrail violations and alerts.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine query activity.
	CategoryOperations EventCategory = "operations"
)

// EventType is the coarse event family used by reports.
type EventType string

const (
	TypeAccessControl EventType = "access_control"
	TypeQuery         EventType = "query"
	TypeGuardrail     EventType = "guardrail"
)

// Event is emitted from domain logic to capture key actions. It is
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID         string         `json:"id"`
	Category   EventCategory  `json:"category"`
	Type       EventType      `json:"event_type"`
	Timestamp  time.Time      `json:"timestamp"`
	UserID     string         `json:"user"`
	Role       string         `json:"role,omitempty"`
	Domain     string         `json:"domain,omitempty"`
	DocumentID string         `json:"document_id,omitempty"`
	Action     string         `json:"action"`
	Decision   string         `json:"decision,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	Framework  string         `json:"framework,omitempty"`
	Query      string         `json:"query,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// AuditEvent names an action; its category is derived, never chosen by callers.
type AuditEvent string

const (
	EventAccessGranted      AuditEvent = "access_granted"
	EventAccessDenied       AuditEvent = "access_denied"
	EventFrameworkRejected  AuditEvent = "framework_rejected"
	EventQueryProcessed     AuditEvent = "query_processed"
	EventQueryBlocked       AuditEvent = "query_blocked"
	EventViolationRecorded  AuditEvent = "violation_recorded"
	EventAlertRaised        AuditEvent = "alert_raised"
	EventModerationDegraded AuditEvent = "moderation_degraded"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventAccessGranted:     CategoryCompliance,
	EventAccessDenied:      CategoryCompliance,
	EventFrameworkRejected: CategoryCompliance,

	EventViolationRecorded:  CategorySecurity,
	EventAlertRaised:        CategorySecurity,
	EventQueryBlocked:       CategorySecurity,
	EventModerationDegraded: CategorySecurity,

	EventQueryProcessed: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListSince(ctx context.Context, since time.Time) ([]Event, error)
}
