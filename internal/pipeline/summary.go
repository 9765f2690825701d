package pipeline

import (
	"context"
	"fmt"
	"strings"

	docmodels "trustrag/internal/document/models"
)

const excerptRunes = 400

// ExtractiveGenerator answers with titled excerpts of the documents. It is
// the fallback when no model-backed Generator is configured.
type ExtractiveGenerator struct{}

func (ExtractiveGenerator) Generate(_ context.Context, _ string, docs []docmodels.Document) (string, error) {
	if len(docs) == 0 {
		return "No accessible documents matched your query.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Based on %d document(s):\n", len(docs))
	for _, d := range docs {
		title := d.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&b, "\n[%s]\n%s\n", title, excerpt(d.Content, excerptRunes))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := string(r[:n])
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return cut + "..."
}
