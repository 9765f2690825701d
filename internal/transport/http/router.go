package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"trustrag/pkg/platform/middleware/auth"
	"trustrag/pkg/platform/middleware/metadata"
	"trustrag/pkg/platform/middleware/requesttime"
	"trustrag/pkg/platform/middleware/throttle"
	"trustrag/pkg/requestcontext"
)

const requestTimeout = 30 * time.Second

// RouterConfig carries the cross-cutting pieces of the router.
type RouterConfig struct {
	Tokens   auth.TokenValidator
	Throttle *throttle.Limiter
	Metrics  http.Handler
}

// NewRouter mounts the public API. Everything under /v1 requires a bearer
// token; /healthz and /metrics do not.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(propagateRequestID)
	r.Use(chimw.RealIP)
	r.Use(metadata.ClientMetadata)
	r.Use(chimw.Recoverer)
	r.Use(requesttime.Middleware)
	if cfg.Throttle != nil {
		r.Use(cfg.Throttle.Middleware)
	}

	r.Get("/healthz", h.handleHealth)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(chimw.Timeout(requestTimeout))
		v1.Use(auth.RequireAuth(cfg.Tokens, h.logger))
		h.Register(v1)
	})
	return r
}

// Register attaches the authenticated routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me", h.handleWhoAmI)
	r.Post("/query", h.handleQuery)
	r.Post("/retrieve", h.handleRetrieve)
	r.Post("/retrieve/domain", h.handleRetrieveDomain)
	r.Get("/access/check", h.handleAccessCheck)
	r.Post("/access/validate", h.handleAccessValidate)
	r.Post("/guardrails/input", h.handleInputCheck)
	r.Post("/guardrails/output", h.handleOutputCheck)
	r.Get("/violations", h.handleViolations)
	r.Get("/alerts", h.handleAlerts)
	r.Post("/alerts", h.handleCreateAlert)
	r.Get("/metrics/guardrails", h.handleGuardrailMetrics)
	r.Get("/metrics/security", h.handleSecurityMetrics)
	r.Get("/metrics/queries", h.handleQueryMetrics)
	r.Get("/compliance/report", h.handleComplianceReport)
}

// propagateRequestID copies chi's request id into requestcontext so services
// can log it without importing chi.
func propagateRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithRequestID(r.Context(), chimw.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
