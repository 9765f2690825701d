package masking

import (
	"slices"
	"strings"
)

// Mask replaces every match of the named patterns, in catalogue order, and
// repeats until the text is stable so that Mask(Mask(t)) == Mask(t) even when
// one replacement exposes a new word boundary. masked reports whether
// anything changed.
func Mask(text string, names []PatternName) (out string, masked bool) {
	out = text
	for {
		next := maskOnce(out, names)
		if next == out {
			return out, out != text
		}
		out = next
	}
}

// MaskAll applies the full catalogue.
func MaskAll(text string) string {
	out, _ := Mask(text, AllPatterns())
	return out
}

func maskOnce(text string, names []PatternName) string {
	for _, p := range catalogue {
		if !slices.Contains(names, p.Name) {
			continue
		}
		text = p.Regexp.ReplaceAllLiteralString(text, p.Replacement)
	}
	return text
}

// DefaultSensitiveTerms are flagged, not masked.
var DefaultSensitiveTerms = []string{
	"SSN",
	"AccountNumber",
	"Salary",
	"PatientName",
	"Confidential",
	"Password",
	"CreditCard",
	"BankAccount",
}

// ScanSensitiveTerms returns the terms found in content by case-insensitive
// substring match, in term-list order.
func ScanSensitiveTerms(content string, terms []string) []string {
	lower := strings.ToLower(content)
	found := []string{}
	for _, term := range terms {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			found = append(found, term)
		}
	}
	return found
}

// Inspector scans and masks document content with a fixed term list.
type Inspector struct {
	Terms []string
}

// NewInspector uses DefaultSensitiveTerms when terms is empty.
func NewInspector(terms []string) Inspector {
	if len(terms) == 0 {
		terms = DefaultSensitiveTerms
	}
	return Inspector{Terms: slices.Clone(terms)}
}

func (i Inspector) Scan(content string) []string {
	return ScanSensitiveTerms(content, i.Terms)
}

func (i Inspector) Mask(content string, names []PatternName) (string, bool) {
	return Mask(content, names)
}
