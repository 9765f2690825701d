// Package semantic is the dense-vector half of hybrid retrieval: an embedder,
// a namespaced vector index, and the Searcher that joins them.
package semantic

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	docmodels "trustrag/internal/document/models"
	"trustrag/internal/retrieval/keyword"
	"trustrag/internal/retrieval/models"
	"trustrag/pkg/platform/sentinel"
)

// Embedder turns text into vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Match is one vector index result.
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]string
}

// VectorIndex stores and queries vectors by namespace.
type VectorIndex interface {
	Upsert(ctx context.Context, namespace, id string, vec []float32, meta map[string]string) error
	Query(ctx context.Context, vec []float32, topK int, namespace string) ([]Match, error)
}

const DefaultDimension = 384

// HashEmbedder maps unigrams and bigrams into a fixed number of signed
// buckets. It is deterministic and needs no model.
type HashEmbedder struct {
	Dim int
}

func NewHashEmbedder(dim int) HashEmbedder {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return HashEmbedder{Dim: dim}
}

func (h HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dim := h.Dim
	if dim <= 0 {
		dim = DefaultDimension
	}
	vec := make([]float32, dim)
	for _, term := range keyword.NGrams(keyword.Tokenize(text, nil)) {
		sum := xxhash.Sum64String(term)
		bucket := sum % uint64(dim)
		if sum>>63 == 1 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}
	normalize(vec)
	return vec, nil
}

func (h HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := h.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	n := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= n
	}
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type entry struct {
	vec  []float32
	meta map[string]string
}

// MemoryIndex is an exhaustive cosine index.
type MemoryIndex struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]entry
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{namespaces: map[string]map[string]entry{}}
}

func (m *MemoryIndex) Upsert(_ context.Context, namespace, id string, vec []float32, meta map[string]string) error {
	if id == "" {
		return errors.New("vector id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.namespaces[namespace]
	if !ok {
		ns = map[string]entry{}
		m.namespaces[namespace] = ns
	}
	ns[id] = entry{vec: slices.Clone(vec), meta: meta}
	return nil
}

// Query returns up to topK matches ordered by score, ties by id.
func (m *MemoryIndex) Query(ctx context.Context, vec []float32, topK int, namespace string) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	ns := m.namespaces[namespace]
	out := make([]Match, 0, len(ns))
	for id, e := range ns {
		out = append(out, Match{ID: id, Score: cosine(vec, e.vec), Metadata: e.meta})
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if topK >= 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// Len counts vectors in namespace.
func (m *MemoryIndex) Len(namespace string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.namespaces[namespace])
}

const (
	DefaultNamespace = "documents"
	defaultTimeout   = 5 * time.Second
)

// Searcher embeds queries and looks them up in a VectorIndex.
type Searcher struct {
	embedder  Embedder
	index     VectorIndex
	namespace string
	timeout   time.Duration
	tracer    trace.Tracer
}

type Option func(*Searcher)

func WithNamespace(ns string) Option {
	return func(s *Searcher) {
		if ns != "" {
			s.namespace = ns
		}
	}
}

// WithTimeout bounds each embed-and-query round trip.
func WithTimeout(d time.Duration) Option {
	return func(s *Searcher) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func New(embedder Embedder, index VectorIndex, opts ...Option) (*Searcher, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if index == nil {
		return nil, errors.New("vector index is required")
	}
	s := &Searcher{
		embedder:  embedder,
		index:     index,
		namespace: DefaultNamespace,
		timeout:   defaultTimeout,
		tracer:    otel.Tracer("trustrag/retrieval"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Index embeds docs in one batch and upserts them with their title and
// domain as metadata.
func (s *Searcher) Index(ctx context.Context, docs []docmodels.Document) error {
	ctx, span := s.tracer.Start(ctx, "retrieval.semantic_index", trace.WithAttributes(attribute.Int("docs", len(docs))))
	defer span.End()

	if len(docs) == 0 {
		return nil
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Title + " " + d.Content
	}
	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed corpus: %w", err)
	}
	if len(vecs) != len(docs) {
		return fmt.Errorf("embed corpus: got %d vectors for %d documents: %w", len(vecs), len(docs), sentinel.ErrInvalidState)
	}
	for i, d := range docs {
		meta := map[string]string{"title": d.Title, "domain": string(d.Domain)}
		if err := s.index.Upsert(ctx, s.namespace, d.ID, vecs[i], meta); err != nil {
			return fmt.Errorf("upsert %s: %w", d.ID, err)
		}
	}
	return nil
}

// Search returns the k nearest documents to query.
func (s *Searcher) Search(ctx context.Context, query string, k int) ([]models.Hit, error) {
	ctx, span := s.tracer.Start(ctx, "retrieval.semantic_search", trace.WithAttributes(attribute.Int("k", k)))
	defer span.End()

	if k <= 0 {
		return []models.Hit{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embed query: %w", sentinel.ErrTimeout)
		}
		return nil, fmt.Errorf("embed query: %w", err)
	}
	matches, err := s.index.Query(ctx, vec, k, s.namespace)
	if err != nil {
		return nil, fmt.Errorf("query vector index: %w", err)
	}
	hits := make([]models.Hit, len(matches))
	for i, m := range matches {
		hits[i] = models.Hit{ID: m.ID, Score: m.Score}
	}
	return hits, nil
}
