// Package app builds the process-wide component graph once and tears it down
// on shutdown.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"

	"trustrag/internal/access/compliance"
	"trustrag/internal/access/masking"
	accessmodels "trustrag/internal/access/models"
	"trustrag/internal/access/rolemap"
	accesssvc "trustrag/internal/access/service"
	"trustrag/internal/audit"
	docmodels "trustrag/internal/document/models"
	docmemory "trustrag/internal/document/store/memory"
	docpostgres "trustrag/internal/document/store/postgres"
	guardmodels "trustrag/internal/guardrails/models"
	"trustrag/internal/guardrails/moderation"
	"trustrag/internal/guardrails/ratelimit"
	guardsvc "trustrag/internal/guardrails/service"
	"trustrag/internal/identity"
	"trustrag/internal/monitor"
	monitormodels "trustrag/internal/monitor/models"
	kafkasink "trustrag/internal/monitor/sink/kafka"
	"trustrag/internal/pipeline"
	"trustrag/internal/platform/config"
	"trustrag/internal/platform/journal"
	"trustrag/internal/platform/metrics"
	platformredis "trustrag/internal/platform/redis"
	"trustrag/internal/retrieval/cache"
	"trustrag/internal/retrieval/keyword"
	"trustrag/internal/retrieval/semantic"
	retrievalsvc "trustrag/internal/retrieval/service"
	httptransport "trustrag/internal/transport/http"
	dErrors "trustrag/pkg/domain-errors"
	platformaudit "trustrag/pkg/platform/audit"
	"trustrag/pkg/platform/audit/publisher"
	auditmemory "trustrag/pkg/platform/audit/store/memory"
	auditpostgres "trustrag/pkg/platform/audit/store/postgres"
	"trustrag/pkg/platform/circuit"
	"trustrag/pkg/platform/middleware/throttle"
	strs "trustrag/pkg/platform/strings"
)

const (
	// Gate and monitor keys are namespaced below this prefix.
	redisPrefix      = "trustrag:"
	alertPartitions  = 1
	alertReplication = 1
)

// App owns every long-lived component.
type App struct {
	Config     config.Config
	Handler    http.Handler
	Pipeline   *pipeline.Pipeline
	Retriever  *retrievalsvc.Retriever
	Gate       *guardsvc.Gate
	Monitor    *monitor.Monitor
	Audit      *audit.Logger
	Validator  *accesssvc.Service
	Compliance *compliance.Checker
	Roles      *rolemap.Mapper
	Queries    *metrics.Collector
	Tokens     *identity.TokenService
	Registry   *prometheus.Registry

	logger  *slog.Logger
	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

type options struct {
	docs       []docmodels.Document
	classifier moderation.Classifier
	registry   *prometheus.Registry
}

type Option func(*options)

// WithDocuments supplies the corpus directly instead of loading it.
func WithDocuments(docs ...docmodels.Document) Option {
	return func(o *options) { o.docs = docs }
}

// WithClassifier overrides the moderation oracle chosen from config.
func WithClassifier(c moderation.Classifier) Option {
	return func(o *options) { o.classifier = c }
}

func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// New wires the application. On error every client opened so far is closed.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (_ *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	policy.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{Config: cfg, logger: logger, Registry: o.registry}
	if a.Registry == nil {
		a.Registry = prometheus.NewRegistry()
		a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	defer func() {
		if err != nil {
			_ = a.Shutdown(context.WithoutCancel(ctx))
		}
	}()

	rdb, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "configuration: connect redis")
	}
	health := map[string]httptransport.HealthCheck{}
	if rdb != nil {
		a.onClose("redis", func(context.Context) error { return rdb.Close() })
		health["redis"] = rdb.Health
		logger.InfoContext(ctx, "redis connected", "url_set", true)
	}

	docs, err := a.loadCorpus(ctx, o, health)
	if err != nil {
		return nil, err
	}

	a.Queries = metrics.New(metrics.WithRegisterer(a.Registry))
	if a.Retriever, err = a.buildRetriever(ctx, docs, rdb); err != nil {
		return nil, err
	}

	violations, err := journal.Open[guardmodels.Violation](cfg.Storage.ViolationsPath(), journal.WithLogger(logger))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "configuration: open violation journal")
	}
	alerts, err := journal.Open[monitormodels.Alert](cfg.Storage.AlertsPath(), journal.WithLogger(logger))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "configuration: open alert journal")
	}

	pub, reader, err := a.buildAudit(ctx, health)
	if err != nil {
		return nil, err
	}
	if a.Audit, err = audit.New(pub, reader, audit.WithLogger(logger)); err != nil {
		return nil, err
	}

	if a.Monitor, err = a.buildMonitor(ctx, alerts, rdb); err != nil {
		return nil, err
	}
	if a.Gate, err = a.buildGate(violations, pub, rdb, o.classifier); err != nil {
		return nil, err
	}

	if a.Roles, err = buildRoles(policy); err != nil {
		return nil, err
	}
	a.Validator, err = accesssvc.New(a.Audit,
		accesssvc.WithDenialRecorder(a.Monitor),
		accesssvc.WithInspector(masking.NewInspector(strs.DedupeAndTrimLower(policy.SensitiveTerms))),
		accesssvc.WithMetrics(accesssvc.NewMetrics(a.Registry)),
		accesssvc.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	frameworks, err := compliance.ParseFrameworkDomains(policy.Frameworks)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "configuration: frameworks")
	}
	a.Compliance, err = compliance.New(a.Validator, a.Audit,
		compliance.WithFrameworkDomains(frameworks),
		compliance.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	a.Pipeline, err = pipeline.New(pipeline.Deps{
		Gate:      a.Gate,
		Roles:     a.Roles,
		Retriever: a.Retriever,
		Validator: a.Validator,
		Monitor:   a.Monitor,
		Auditor:   a.Audit,
	},
		pipeline.WithFrameworkFilter(a.Compliance),
		pipeline.WithQueryRecorder(a.Queries),
		pipeline.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	if a.Tokens, err = identity.NewTokenService(cfg.Server.JWTSigningKey); err != nil {
		return nil, err
	}
	handler := httptransport.New(httptransport.Services{
		Pipeline:   a.Pipeline,
		Retriever:  a.Retriever,
		Roles:      a.Roles,
		Access:     a.Validator,
		Frameworks: a.Compliance,
		Guardrails: a.Gate,
		Monitor:    a.Monitor,
		Queries:    a.Queries,
		Compliance: a.Audit,
	}, logger, health)
	a.Handler = httptransport.NewRouter(handler, httptransport.RouterConfig{
		Tokens:   identity.NewMiddlewareAdapter(a.Tokens),
		Throttle: throttle.New(cfg.Server.RequestsPerSecond, cfg.Server.Burst, throttle.WithLogger(logger)),
		Metrics:  promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}),
	})

	logger.InfoContext(ctx, "application wired",
		"documents", a.Retriever.Len(),
		"redis", rdb != nil,
		"postgres", cfg.Storage.DatabaseURL != "",
		"kafka", len(cfg.Kafka.Brokers) > 0,
		"moderation_url_set", cfg.Moderation.URL != "",
	)
	return a, nil
}

// Shutdown drains the monitor's sink deliveries and closes clients in
// reverse open order.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Monitor != nil {
		if err := a.Monitor.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("monitor: %w", err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) onClose(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// loadCorpus prefers explicit documents, then Postgres, then the corpus file.
func (a *App) loadCorpus(ctx context.Context, o *options, health map[string]httptransport.HealthCheck) ([]docmodels.Document, error) {
	if o.docs != nil {
		store, err := docmemory.New(o.docs...)
		if err != nil {
			return nil, err
		}
		return store.List(ctx)
	}
	if dsn := a.Config.Storage.DatabaseURL; dsn != "" {
		pool, err := docpostgres.Connect(ctx, dsn)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "configuration: connect postgres")
		}
		a.onClose("postgres documents", func(context.Context) error { pool.Close(); return nil })
		health["postgres"] = pingPool(pool)
		return docpostgres.New(pool).List(ctx)
	}
	if path := a.Config.Storage.CorpusFile; path != "" {
		store, err := docmemory.LoadFile(path)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "configuration: load corpus")
		}
		return store.List(ctx)
	}
	return nil, dErrors.New(dErrors.CodeInvariantViolation, "configuration: no corpus file or database configured")
}

func (a *App) buildRetriever(ctx context.Context, docs []docmodels.Document, rdb *platformredis.Client) (*retrievalsvc.Retriever, error) {
	cfg := a.Config.Retrieval
	sem, err := semantic.New(semantic.NewHashEmbedder(cfg.EmbeddingDim), semantic.NewMemoryIndex(),
		semantic.WithTimeout(cfg.EmbeddingTimeout))
	if err != nil {
		return nil, err
	}
	if err := sem.Index(ctx, docs); err != nil {
		return nil, fmt.Errorf("index corpus: %w", err)
	}

	var qc cache.Cache = cache.NewMemory(cache.WithTTL(cfg.CacheTTL), cache.WithMaxEntries(cfg.CacheMaxEntries))
	if rdb != nil {
		if qc, err = cache.NewRedis(rdb.Client, cache.WithRedisTTL(cfg.CacheTTL)); err != nil {
			return nil, err
		}
	}

	return retrievalsvc.New(docs, sem, keyword.Build(docs),
		retrievalsvc.WithCache(qc),
		retrievalsvc.WithCacheRecorder(a.Queries),
		retrievalsvc.WithMetrics(retrievalsvc.NewMetrics(a.Registry)),
		retrievalsvc.WithLogger(a.logger),
	)
}

// buildAudit returns the publisher and the reader behind it. Postgres is used
// when DATABASE_URL is set.
func (a *App) buildAudit(ctx context.Context, health map[string]httptransport.HealthCheck) (*publisher.Publisher, audit.Reader, error) {
	var store interface {
		platformaudit.Store
		audit.Reader
	}
	if dsn := a.Config.Storage.DatabaseURL; dsn != "" {
		db, err := auditpostgres.Open(ctx, dsn)
		if err != nil {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "configuration: open audit database")
		}
		a.onClose("postgres audit", func(context.Context) error { return db.Close() })
		health["audit"] = pingDB(db)
		store = auditpostgres.New(db)
	} else {
		store = auditmemory.NewInMemoryStore()
	}
	pub, err := publisher.New(store,
		publisher.WithLogger(a.logger),
		publisher.WithMetrics(publisher.NewMetrics(a.Registry)),
	)
	if err != nil {
		return nil, nil, err
	}
	return pub, store, nil
}

func (a *App) buildMonitor(ctx context.Context, alerts *journal.Journal[monitormodels.Alert], rdb *platformredis.Client) (*monitor.Monitor, error) {
	opts := []monitor.Option{
		monitor.WithMaxDenialsPerHour(a.Config.Monitor.MaxDenialsPerHour),
		monitor.WithMetrics(monitor.NewMetrics(a.Registry)),
		monitor.WithLogger(a.logger),
	}
	if rdb != nil {
		window, err := a.sharedLimiter(rdb, "denial-window")
		if err != nil {
			return nil, err
		}
		opts = append(opts, monitor.WithDenialWindow(window))
	}
	if brokers := a.Config.Kafka.Brokers; len(brokers) > 0 {
		cl, err := kafkasink.NewClient(brokers, kgo.ClientID("trustrag"))
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "configuration: kafka")
		}
		a.onClose("kafka", func(context.Context) error { cl.Close(); return nil })
		if err := kafkasink.EnsureTopic(ctx, cl, a.Config.Kafka.AlertTopic, alertPartitions, alertReplication); err != nil {
			a.logger.WarnContext(ctx, "alert topic bootstrap failed", "topic", a.Config.Kafka.AlertTopic, "error", err)
		}
		sink, err := kafkasink.New(cl, kafkasink.WithTopic(a.Config.Kafka.AlertTopic), kafkasink.WithLogger(a.logger))
		if err != nil {
			return nil, err
		}
		opts = append(opts, monitor.WithSink(sink))
	}
	return monitor.New(alerts, opts...)
}

func (a *App) buildGate(violations *journal.Journal[guardmodels.Violation], pub *publisher.Publisher, rdb *platformredis.Client, classifier moderation.Classifier) (*guardsvc.Gate, error) {
	g := a.Config.Guardrails
	names := strs.DedupeAndTrimLower(g.PIIExemptRoles)
	exempt := make([]accessmodels.Role, 0, len(names))
	for _, raw := range names {
		r, err := accessmodels.ParseRole(raw)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "configuration: pii exempt roles")
		}
		exempt = append(exempt, r)
	}

	opts := []guardsvc.Option{
		guardsvc.WithConfig(guardsvc.Config{
			Limits: guardsvc.Limits{GlobalPerMinute: g.RateLimitPerMinute, UserPerHour: g.RateLimitPerUserPerHour},
			Features: guardsvc.Features{
				PIIDetection: g.EnablePIIDetection,
				Moderation:   g.EnableModeration,
				RateLimiting: g.EnableRateLimiting,
			},
			PII: guardsvc.PIIPolicy{ExemptRoles: exempt},
		}),
		guardsvc.WithAlertRaiser(a.Monitor),
		guardsvc.WithAuditEmitter(pub),
		guardsvc.WithMetrics(guardsvc.NewMetrics(a.Registry)),
		guardsvc.WithLogger(a.logger),
	}
	if rdb != nil {
		limiter, err := a.sharedLimiter(rdb, "ratelimit")
		if err != nil {
			return nil, err
		}
		opts = append(opts, guardsvc.WithLimiter(limiter))
	}

	if classifier == nil && a.Config.Moderation.URL != "" {
		hc, err := moderation.NewHTTPClassifier(a.Config.Moderation.URL,
			moderation.WithTimeout(a.Config.Moderation.Timeout),
			moderation.WithBreaker(circuit.New("moderation")),
		)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "configuration: moderation")
		}
		classifier = hc
	}
	if classifier == nil {
		classifier = moderation.NoopClassifier{}
	}
	opts = append(opts, guardsvc.WithClassifier(classifier))
	return guardsvc.New(violations, opts...)
}

// sharedLimiter is a Redis sliding window that degrades to a process-local
// one while Redis is failing.
func (a *App) sharedLimiter(rdb *platformredis.Client, name string) (ratelimit.Limiter, error) {
	primary, err := ratelimit.NewRedis(rdb.Client, ratelimit.WithPrefix(redisPrefix))
	if err != nil {
		return nil, err
	}
	return ratelimit.NewFallback(primary, ratelimit.NewMemory(),
		ratelimit.WithBreaker(circuit.New(name)),
		ratelimit.WithFallbackLogger(a.logger),
	)
}

func buildRoles(policy *config.Policy) (*rolemap.Mapper, error) {
	if len(policy.RoleMap) == 0 {
		return rolemap.Default(), nil
	}
	m, err := rolemap.New(policy.RoleMap)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "configuration: role map")
	}
	return m, nil
}

func pingPool(pool *pgxpool.Pool) httptransport.HealthCheck {
	return func(ctx context.Context) error { return pool.Ping(ctx) }
}

func pingDB(db *sql.DB) httptransport.HealthCheck {
	return func(ctx context.Context) error { return db.PingContext(ctx) }
}
