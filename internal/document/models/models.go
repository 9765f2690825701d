package models

import (
	"maps"
	"strings"

	dErrors "trustrag/pkg/domain-errors"
)

// Domain is the classification tag used as the unit of access control.
type Domain string

const (
	DomainFinance Domain = "finance"
	DomainHR      Domain = "hr"
	DomainHealth  Domain = "health"
	DomainLegal   Domain = "legal"
	DomainPublic  Domain = "public"
)

// AllDomains lists every known domain in a stable order.
func AllDomains() []Domain {
	return []Domain{DomainFinance, DomainHR, DomainHealth, DomainLegal, DomainPublic}
}

// IsValid checks if the domain is one of the supported enum values.
func (d Domain) IsValid() bool {
	switch d {
	case DomainFinance, DomainHR, DomainHealth, DomainLegal, DomainPublic:
		return true
	}
	return false
}

func (d Domain) String() string { return string(d) }

// ParseDomain normalises s and validates it.
func ParseDomain(s string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	if d == "" {
		return "", dErrors.New(dErrors.CodeValidation, "domain is required")
	}
	if !d.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown domain: "+s)
	}
	return d, nil
}

// Document is a corpus entry. Documents are read-only after load; callers that
// need to alter content work on Clone().
type Document struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Content        string            `json:"content"`
	Domain         Domain            `json:"domain"`
	Classification string            `json:"classification,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Clone returns a deep copy.
func (d Document) Clone() Document {
	c := d
	if d.Metadata != nil {
		c.Metadata = maps.Clone(d.Metadata)
	}
	return c
}

// Validate checks load-time invariants.
func (d Document) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return dErrors.New(dErrors.CodeValidation, "document id is required")
	}
	if !d.Domain.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "document "+d.ID+" has unknown domain "+string(d.Domain))
	}
	return nil
}
