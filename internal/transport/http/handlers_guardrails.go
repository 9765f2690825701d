package httptransport

import (
	"net/http"
	"strconv"

	"trustrag/internal/access/explain"
	guardmodels "trustrag/internal/guardrails/models"
	guardsvc "trustrag/internal/guardrails/service"
	dErrors "trustrag/pkg/domain-errors"
	"trustrag/pkg/platform/httputil"
	"trustrag/pkg/requestcontext"
)

func (h *Handler) handleInputCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[InputCheckRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	caller, role := h.resolveCaller(r)
	decision := h.svc.Guardrails.ValidateInput(ctx, guardsvc.InputRequest{
		Query:     req.Query,
		User:      caller.UserID,
		Role:      role,
		Domain:    req.Domain,
		SessionID: caller.SessionID,
	})
	httputil.WriteJSON(w, http.StatusOK, guardrailResponse(decision))
}

func (h *Handler) handleOutputCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[OutputCheckRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	caller, role := h.resolveCaller(r)
	decision := h.svc.Guardrails.ValidateOutput(ctx, guardsvc.OutputRequest{
		Text:      req.Text,
		User:      caller.UserID,
		Role:      role,
		Domain:    req.Domain,
		Query:     req.Query,
		SessionID: caller.SessionID,
	})
	httputil.WriteJSON(w, http.StatusOK, guardrailResponse(decision))
}

func guardrailResponse(d guardmodels.Decision) GuardrailResponse {
	resp := GuardrailResponse{Safe: d.Safe, Violation: d.Violation}
	if d.Violation != nil {
		resp.Explanation = explain.ExplainViolation(*d.Violation)
	}
	return resp
}

func (h *Handler) handleViolations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter guardmodels.ViolationFilter
	if raw := q.Get("severity"); raw != "" {
		sev, err := guardmodels.ParseSeverity(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Severity = sev
	}
	if raw := q.Get("type"); raw != "" {
		vt, err := guardmodels.ParseViolationType(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Type = vt
	}
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter.Limit = limit

	violations := h.svc.Guardrails.Violations(r.Context(), filter)
	httputil.WriteJSON(w, http.StatusOK, ViolationsResponse{Violations: violations, Count: len(violations)})
}

func (h *Handler) handleGuardrailMetrics(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.svc.Guardrails.Metrics(r.Context()))
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer")
	}
	return n, nil
}
