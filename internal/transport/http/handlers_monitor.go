package httptransport

import (
	"context"
	"net/http"
	"strconv"
	"time"

	guardmodels "trustrag/internal/guardrails/models"
	monitormodels "trustrag/internal/monitor/models"
	dErrors "trustrag/pkg/domain-errors"
	"trustrag/pkg/platform/httputil"
	"trustrag/pkg/requestcontext"
)

const healthTimeout = 2 * time.Second

func (h *Handler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter monitormodels.AlertFilter
	if raw := q.Get("severity"); raw != "" {
		sev, err := guardmodels.ParseSeverity(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Severity = sev
	}
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter.Limit = limit

	alerts := h.svc.Monitor.Alerts(r.Context(), filter)
	httputil.WriteJSON(w, http.StatusOK, AlertsResponse{Alerts: alerts, Count: len(alerts)})
}

func (h *Handler) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[monitormodels.CreateAlertRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	caller := requestcontext.CallerFrom(ctx)
	if req.User == "" {
		req.User = caller.UserID
	}
	alert, err := h.svc.Monitor.CreateAlert(ctx, *req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "manual alert created",
		"request_id", requestID,
		"alert_id", alert.ID,
		"created_by", caller.UserID,
	)
	httputil.WriteJSON(w, http.StatusCreated, alert)
}

func (h *Handler) handleSecurityMetrics(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.svc.Monitor.Metrics(r.Context()))
}

func (h *Handler) handleQueryMetrics(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.svc.Queries.Summary())
}

func (h *Handler) handleComplianceReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 3650 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "days must be between 1 and 3650"))
			return
		}
		days = n
	}
	report, err := h.svc.Compliance.ComplianceReport(ctx, days)
	if err != nil {
		h.logger.ErrorContext(ctx, "compliance report failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build compliance report"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: map[string]string{}}
	if h.svc.Retriever != nil {
		resp.Documents = h.svc.Retriever.Len()
	}
	status := http.StatusOK
	for name, check := range h.health {
		if err := check(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed", "check", name, "error", err)
			resp.Checks[name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "up"
	}
	httputil.WriteJSON(w, status, resp)
}
