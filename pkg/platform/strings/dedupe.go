// Package strings provides small helpers for normalising configuration lists.
package strings

import (
	"strings"
)

// DedupeAndTrimLower trims, lowercases and dedupes values, dropping empties.
// Order of first occurrence is preserved.
//
//	DedupeAndTrimLower([]string{"  Admin ", "analyst", "ADMIN"})
//	// []string{"admin", "analyst"}
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.ToLower(strings.TrimSpace(v))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// SplitList splits a comma separated env value and normalises it with
// DedupeAndTrimLower. An empty input yields nil.
func SplitList(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	return DedupeAndTrimLower(strings.Split(csv, ","))
}
