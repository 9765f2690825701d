package keyword

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docmodels "trustrag/internal/document/models"
)

func corpus() []docmodels.Document {
	return []docmodels.Document{
		{ID: "fin-1", Title: "Quarterly revenue", Content: "Revenue grew in the third quarter.", Domain: docmodels.DomainFinance},
		{ID: "hr-1", Title: "Vacation policy", Content: "Employees accrue vacation days monthly.", Domain: docmodels.DomainHR},
		{ID: "pub-1", Title: "Office hours", Content: "The office is open on weekdays.", Domain: docmodels.DomainPublic},
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("The Revenue, of a Q3 report!", englishStopWords)
	assert.Equal(t, []string{"revenue", "q3", "report"}, got)
}

func TestNGrams(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c", "a b", "b c"}, NGrams([]string{"a", "b", "c"}))
	assert.Empty(t, NGrams(nil))
}

func TestSearchRanksMatchingDocumentFirst(t *testing.T) {
	idx := Build(corpus())
	hits, err := idx.Search(context.Background(), "vacation days", 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "hr-1", hits[0].ID)
	assert.Greater(t, hits[0].Score, 0.0)
	assert.Zero(t, hits[1].Score)
	assert.Zero(t, hits[2].Score)
}

func TestSearchTruncatesToK(t *testing.T) {
	idx := Build(corpus())
	hits, err := idx.Search(context.Background(), "revenue", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "fin-1", hits[0].ID)
}

func TestSelfSimilarityIsOne(t *testing.T) {
	docs := corpus()
	idx := Build(docs)
	hits, err := idx.Search(context.Background(), docs[2].Title+" "+docs[2].Content, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}

func TestMaxFeaturesKeepsMostFrequent(t *testing.T) {
	docs := []docmodels.Document{
		{ID: "a", Content: "alpha alpha beta", Domain: docmodels.DomainPublic},
		{ID: "b", Content: "alpha gamma", Domain: docmodels.DomainPublic},
	}
	idx := Build(docs, WithMaxFeatures(2))
	assert.Equal(t, 2, idx.Features())
	_, hasAlpha := idx.vocab["alpha"]
	assert.True(t, hasAlpha)
	// "alpha alpha", "alpha beta", "alpha gamma", beta and gamma all occur once;
	// the lexicographic tie-break keeps "alpha alpha".
	_, hasPair := idx.vocab["alpha alpha"]
	assert.True(t, hasPair)
}

func TestSmoothedIDF(t *testing.T) {
	docs := []docmodels.Document{
		{ID: "a", Content: "ledger", Domain: docmodels.DomainPublic},
		{ID: "b", Content: "ledger audit", Domain: docmodels.DomainPublic},
	}
	idx := Build(docs)
	assert.InDelta(t, 1.0, idx.idf[idx.vocab["ledger"]], 1e-12)
	assert.InDelta(t, math.Log(3.0/2.0)+1, idx.idf[idx.vocab["audit"]], 1e-12)
}

func TestSearchEdgeCases(t *testing.T) {
	idx := Build(corpus())
	hits, err := idx.Search(context.Background(), "revenue", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	empty := Build(nil)
	hits, err = empty.Search(context.Background(), "revenue", 3)
	require.NoError(t, err)
	assert.Empty(t, hits)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = idx.Search(ctx, "revenue", 3)
	assert.ErrorIs(t, err, context.Canceled)
}
