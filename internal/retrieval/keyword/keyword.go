// Package keyword is a TF-IDF index over the corpus with unigram and bigram
// features and English stop-word removal.
package keyword

import (
	"cmp"
	"context"
	"math"
	"regexp"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	docmodels "trustrag/internal/document/models"
	"trustrag/internal/retrieval/models"
)

const DefaultMaxFeatures = 1000

var tokenRe = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokenize lowercases text, keeps runs of two or more word characters and
// drops stop words.
func Tokenize(text string, stop map[string]struct{}) []string {
	raw := tokenRe.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, ok := stop[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// NGrams returns unigrams followed by bigrams of adjacent tokens.
func NGrams(tokens []string) []string {
	out := make([]string, 0, 2*len(tokens))
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

type Option func(*builder)

type builder struct {
	maxFeatures int
	stop        map[string]struct{}
}

// WithMaxFeatures caps the vocabulary size.
func WithMaxFeatures(n int) Option {
	return func(b *builder) {
		if n > 0 {
			b.maxFeatures = n
		}
	}
}

// WithStopWords replaces the English stop-word list.
func WithStopWords(words []string) Option {
	return func(b *builder) {
		b.stop = make(map[string]struct{}, len(words))
		for _, w := range words {
			b.stop[strings.ToLower(w)] = struct{}{}
		}
	}
}

type sparse map[int]float64

// Index holds one L2-normalised TF-IDF vector per document. It is immutable
// after Build and safe for concurrent use.
type Index struct {
	ids     []string
	vocab   map[string]int
	idf     []float64
	vectors []sparse
	stop    map[string]struct{}
	tracer  trace.Tracer
}

// Build fits the vocabulary and IDF weights on docs (title and content).
func Build(docs []docmodels.Document, opts ...Option) *Index {
	b := &builder{maxFeatures: DefaultMaxFeatures, stop: englishStopWords}
	for _, opt := range opts {
		opt(b)
	}

	termsPerDoc := make([][]string, len(docs))
	corpusFreq := map[string]int{}
	docFreq := map[string]int{}
	for i, d := range docs {
		terms := NGrams(Tokenize(d.Title+" "+d.Content, b.stop))
		termsPerDoc[i] = terms
		seen := map[string]struct{}{}
		for _, t := range terms {
			corpusFreq[t]++
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				docFreq[t]++
			}
		}
	}

	candidates := make([]string, 0, len(corpusFreq))
	for t := range corpusFreq {
		candidates = append(candidates, t)
	}
	slices.SortFunc(candidates, func(a, b string) int {
		if c := cmp.Compare(corpusFreq[b], corpusFreq[a]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	if len(candidates) > b.maxFeatures {
		candidates = candidates[:b.maxFeatures]
	}
	slices.Sort(candidates)

	idx := &Index{
		ids:     make([]string, len(docs)),
		vocab:   make(map[string]int, len(candidates)),
		idf:     make([]float64, len(candidates)),
		vectors: make([]sparse, len(docs)),
		stop:    b.stop,
		tracer:  otel.Tracer("trustrag/retrieval"),
	}
	n := float64(len(docs))
	for i, t := range candidates {
		idx.vocab[t] = i
		idx.idf[i] = math.Log((1+n)/(1+float64(docFreq[t]))) + 1
	}
	for i, d := range docs {
		idx.ids[i] = d.ID
		idx.vectors[i] = idx.vectorize(termsPerDoc[i])
	}
	return idx
}

func (x *Index) vectorize(terms []string) sparse {
	v := sparse{}
	for _, t := range terms {
		if j, ok := x.vocab[t]; ok {
			v[j]++
		}
	}
	var norm float64
	for j, tf := range v {
		w := tf * x.idf[j]
		v[j] = w
		norm += w * w
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)
	for j := range v {
		v[j] /= norm
	}
	return v
}

// Len is the number of indexed documents.
func (x *Index) Len() int { return len(x.ids) }

// Features is the vocabulary size.
func (x *Index) Features() int { return len(x.vocab) }

// Search scores every document against query by cosine similarity and
// returns the best k. Zero scores are kept; ties keep corpus order.
func (x *Index) Search(ctx context.Context, query string, k int) ([]models.Hit, error) {
	_, span := x.tracer.Start(ctx, "retrieval.keyword_search",
		trace.WithAttributes(attribute.Int("k", k), attribute.Int("docs", len(x.ids))))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 || len(x.ids) == 0 {
		return []models.Hit{}, nil
	}

	q := x.vectorize(NGrams(Tokenize(query, x.stop)))
	hits := make([]models.Hit, len(x.ids))
	for i, dv := range x.vectors {
		var score float64
		for j, w := range q {
			score += w * dv[j]
		}
		hits[i] = models.Hit{ID: x.ids[i], Score: score}
	}
	slices.SortStableFunc(hits, func(a, b models.Hit) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}
