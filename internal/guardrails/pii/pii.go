// Package pii locates personal data in free text and redacts it.
package pii

import (
	"slices"
	"strings"

	"trustrag/internal/access/masking"
)

// EntityType names what a detection looks like.
type EntityType string

const (
	EntitySSN        EntityType = "US_SSN"
	EntityCreditCard EntityType = "CREDIT_CARD"
	EntityEmail      EntityType = "EMAIL_ADDRESS"
	EntityPhone      EntityType = "PHONE_NUMBER"
	EntityAccountID  EntityType = "ACCOUNT_ID"
	EntityAmount     EntityType = "MONETARY_AMOUNT"
)

var entityByPattern = map[masking.PatternName]EntityType{
	masking.PatternSSN:        EntitySSN,
	masking.PatternSSNNoDash:  EntitySSN,
	masking.PatternCreditCard: EntityCreditCard,
	masking.PatternEmail:      EntityEmail,
	masking.PatternPhone:      EntityPhone,
	masking.PatternAccountID:  EntityAccountID,
	masking.PatternSalary:     EntityAmount,
}

// OutputPatterns are the identifiers that block a response. Monetary amounts
// are masked on request but are not on their own personal data.
var OutputPatterns = []masking.PatternName{
	masking.PatternSSN,
	masking.PatternSSNNoDash,
	masking.PatternCreditCard,
	masking.PatternEmail,
	masking.PatternPhone,
	masking.PatternAccountID,
}

// Detection is one matched span, as byte offsets into the scanned text.
type Detection struct {
	EntityType  EntityType `json:"entity_type"`
	Start       int        `json:"start"`
	End         int        `json:"end"`
	replacement string
}

// Detector scans with a fixed subset of the masking catalogue.
type Detector struct {
	patterns []masking.Pattern
}

// NewDetector uses the whole catalogue when names is empty.
func NewDetector(names ...masking.PatternName) *Detector {
	var patterns []masking.Pattern
	for _, p := range masking.Catalogue() {
		if len(names) == 0 || slices.Contains(names, p.Name) {
			patterns = append(patterns, p)
		}
	}
	return &Detector{patterns: patterns}
}

// Detect returns non-overlapping detections ordered by position. Where
// matches overlap the earliest wins, then the longest.
func (d *Detector) Detect(text string) []Detection {
	var all []Detection
	for _, p := range d.patterns {
		for _, loc := range p.Regexp.FindAllStringIndex(text, -1) {
			all = append(all, Detection{
				EntityType:  entityByPattern[p.Name],
				Start:       loc[0],
				End:         loc[1],
				replacement: p.Replacement,
			})
		}
	}
	slices.SortStableFunc(all, func(a, b Detection) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return (b.End - b.Start) - (a.End - a.Start)
	})

	out := all[:0]
	end := -1
	for _, det := range all {
		if det.Start < end {
			continue
		}
		out = append(out, det)
		end = det.End
	}
	return out
}

// Entities lists the distinct entity types in detection order.
func Entities(dets []Detection) []EntityType {
	var out []EntityType
	for _, d := range dets {
		if !slices.Contains(out, d.EntityType) {
			out = append(out, d.EntityType)
		}
	}
	return out
}

// Anonymize replaces each detected span with its mask token. dets must come
// from Detect on the same text.
func Anonymize(text string, dets []Detection) string {
	if len(dets) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for _, d := range dets {
		if d.Start < prev || d.End > len(text) {
			continue
		}
		b.WriteString(text[prev:d.Start])
		b.WriteString(d.replacement)
		prev = d.End
	}
	b.WriteString(text[prev:])
	return b.String()
}

// Redact detects and anonymizes until nothing is left to mask, so
// Redact(Redact(t)) == Redact(t).
func (d *Detector) Redact(text string) string {
	for {
		dets := d.Detect(text)
		if len(dets) == 0 {
			return text
		}
		text = Anonymize(text, dets)
	}
}
