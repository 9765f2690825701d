// Package service is the hybrid retriever. It fans a query out to the
// semantic and keyword indexes, weights and merges their hits, and serves
// the domain-scoped variants used by the pipeline.
package service

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	docmodels "trustrag/internal/document/models"
	"trustrag/internal/retrieval/cache"
	"trustrag/internal/retrieval/models"
	"trustrag/pkg/requestcontext"
)

// Searcher is one ranked sub-search; *keyword.Index and *semantic.Searcher
// satisfy it.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]models.Hit, error)
}

// CacheRecorder observes cache lookups.
type CacheRecorder interface {
	RecordCache(hit bool)
}

// Retriever answers hybrid queries over a fixed corpus.
type Retriever struct {
	docs     map[string]docmodels.Document
	semantic Searcher
	keyword  Searcher
	cache    cache.Cache
	flight   singleflight.Group
	recorder CacheRecorder
	metrics  *Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

type Option func(*Retriever)

func WithCache(c cache.Cache) Option {
	return func(r *Retriever) { r.cache = c }
}

func WithCacheRecorder(rec CacheRecorder) Option {
	return func(r *Retriever) { r.recorder = rec }
}

func WithMetrics(m *Metrics) Option {
	return func(r *Retriever) { r.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Retriever) {
		if l != nil {
			r.logger = l
		}
	}
}

// New indexes docs by id. Both searchers must rank the same corpus.
func New(docs []docmodels.Document, semantic, keyword Searcher, opts ...Option) (*Retriever, error) {
	if semantic == nil {
		return nil, errors.New("semantic searcher is required")
	}
	if keyword == nil {
		return nil, errors.New("keyword searcher is required")
	}
	r := &Retriever{
		docs:     make(map[string]docmodels.Document, len(docs)),
		semantic: semantic,
		keyword:  keyword,
		logger:   slog.Default(),
		tracer:   otel.Tracer("trustrag/retrieval"),
	}
	for _, d := range docs {
		r.docs[d.ID] = d
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Retrieve returns the top req.K documents by weighted hybrid score. A
// failing sub-search contributes nothing; Retrieve itself only fails on an
// invalid request.
func (r *Retriever) Retrieve(ctx context.Context, req models.RetrieveRequest) ([]models.RetrievedDocument, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ctx, span := r.tracer.Start(ctx, "retrieval.retrieve", trace.WithAttributes(attribute.Int("k", req.K)))
	defer span.End()

	if r.cache == nil {
		return r.retrieve(ctx, req), nil
	}
	return r.cached(ctx, req), nil
}

func (r *Retriever) cached(ctx context.Context, req models.RetrieveRequest) []models.RetrievedDocument {
	sem, kw := req.Weights()
	key, err := cache.Key("retrieve", req.Query, req.K, sem, kw)
	if err != nil {
		return r.retrieve(ctx, req)
	}

	if raw, ok, err := r.cache.Get(ctx, key); err != nil {
		r.logger.WarnContext(ctx, "retrieval cache read failed", "error", err)
	} else if ok {
		var docs []models.RetrievedDocument
		if err := json.Unmarshal(raw, &docs); err == nil {
			r.recordCache(true)
			return docs
		}
	}
	r.recordCache(false)

	v, _, _ := r.flight.Do(key, func() (any, error) {
		fillCtx := context.WithoutCancel(ctx)
		docs := r.retrieve(fillCtx, req)
		if raw, err := json.Marshal(docs); err == nil {
			if err := r.cache.Set(fillCtx, key, raw); err != nil {
				r.logger.WarnContext(ctx, "retrieval cache write failed", "error", err)
			}
		}
		return docs, nil
	})
	return slices.Clone(v.([]models.RetrievedDocument))
}

func (r *Retriever) recordCache(hit bool) {
	r.metrics.IncCache(hit)
	if r.recorder != nil {
		r.recorder.RecordCache(hit)
	}
}

func (r *Retriever) retrieve(ctx context.Context, req models.RetrieveRequest) []models.RetrievedDocument {
	semWeight, kwWeight := req.Weights()
	start := time.Now()

	var semHits, kwHits []models.Hit
	var g errgroup.Group
	g.Go(func() error {
		semHits = r.search(ctx, r.semantic, string(models.MethodSemantic), req.Query, req.K)
		return nil
	})
	g.Go(func() error {
		kwHits = r.search(ctx, r.keyword, string(models.MethodKeyword), req.Query, req.K)
		return nil
	})
	_ = g.Wait()

	merged := make(map[string]*models.RetrievedDocument, len(semHits)+len(kwHits))
	add := func(h models.Hit, score float64, method models.Method) {
		doc, ok := r.docs[h.ID]
		if !ok {
			return
		}
		if existing, ok := merged[h.ID]; ok {
			existing.Score += score
			existing.Method = models.MethodHybrid
			return
		}
		merged[h.ID] = &models.RetrievedDocument{Document: doc, Score: score, Method: method}
	}
	for _, h := range semHits {
		add(h, h.Score*semWeight, models.MethodSemantic)
	}
	for _, h := range kwHits {
		if h.Score == 0 {
			continue
		}
		add(h, h.Score*kwWeight, models.MethodKeyword)
	}

	out := make([]models.RetrievedDocument, 0, len(merged))
	for _, d := range merged {
		out = append(out, *d)
	}
	slices.SortFunc(out, func(a, b models.RetrievedDocument) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Document.ID, b.Document.ID)
	})
	if len(out) > req.K {
		out = out[:req.K]
	}

	r.metrics.ObserveRetrieval(time.Since(start), len(out))
	r.logger.DebugContext(ctx, "hybrid retrieval",
		"request_id", requestcontext.RequestID(ctx),
		"semantic_hits", len(semHits),
		"keyword_hits", len(kwHits),
		"returned", len(out),
	)
	return out
}

func (r *Retriever) search(ctx context.Context, s Searcher, method, query string, k int) []models.Hit {
	hits, err := s.Search(ctx, query, k)
	if err != nil {
		r.metrics.IncSearchFailure(method)
		r.logger.WarnContext(ctx, "sub-search failed, continuing without it",
			"method", method,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil
	}
	return hits
}

// RetrieveByDomain takes 3k hybrid candidates and keeps at most k whose
// domain matches exactly.
func (r *Retriever) RetrieveByDomain(ctx context.Context, query string, domain docmodels.Domain, k int) ([]models.RetrievedDocument, error) {
	candidates, err := r.candidates(ctx, query, k)
	if err != nil {
		return nil, err
	}
	return filterDomain(candidates, domain, k), nil
}

// RetrieveForTool is RetrieveByDomain with a documented fallback: when no
// candidate is in domain, the public candidates of the same pool are
// returned instead.
func (r *Retriever) RetrieveForTool(ctx context.Context, query string, domain docmodels.Domain, k int) (*models.ToolResult, error) {
	candidates, err := r.candidates(ctx, query, k)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = models.DefaultK
	}
	res := &models.ToolResult{Documents: filterDomain(candidates, domain, k), Domain: domain}
	if len(res.Documents) == 0 && domain != docmodels.DomainPublic {
		res.Documents = filterDomain(candidates, docmodels.DomainPublic, k)
		res.Domain = docmodels.DomainPublic
		res.FellBackToPublic = true
		r.logger.InfoContext(ctx, "no documents in requested domain, falling back to public",
			"domain", domain,
			"request_id", requestcontext.RequestID(ctx),
			"public_results", len(res.Documents),
		)
	}
	return res, nil
}

func (r *Retriever) candidates(ctx context.Context, query string, k int) ([]models.RetrievedDocument, error) {
	if k <= 0 {
		k = models.DefaultK
	}
	return r.Retrieve(ctx, models.RetrieveRequest{Query: query, K: 3 * k})
}

func filterDomain(docs []models.RetrievedDocument, domain docmodels.Domain, k int) []models.RetrievedDocument {
	out := make([]models.RetrievedDocument, 0, k)
	for _, d := range docs {
		if d.Document.Domain == domain {
			out = append(out, d)
			if len(out) == k {
				break
			}
		}
	}
	return out
}

// Document looks up a corpus entry by id.
func (r *Retriever) Document(id string) (docmodels.Document, bool) {
	d, ok := r.docs[id]
	return d, ok
}

// Len is the corpus size.
func (r *Retriever) Len() int { return len(r.docs) }
