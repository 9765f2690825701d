package httptransport

import (
	"net/http"
	"strings"

	"trustrag/internal/access/explain"
	accessmodels "trustrag/internal/access/models"
	docmodels "trustrag/internal/document/models"
	"trustrag/pkg/platform/httputil"
	"trustrag/pkg/requestcontext"
)

// handleAccessCheck answers whether a role may read a domain. Without a role
// parameter the caller's own role is checked.
func (h *Handler) handleAccessCheck(w http.ResponseWriter, r *http.Request) {
	domain, err := docmodels.ParseDomain(r.URL.Query().Get("domain"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	_, role := h.resolveCaller(r)
	if raw := strings.TrimSpace(r.URL.Query().Get("role")); raw != "" {
		role, err = accessmodels.ParseRole(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	allowed := h.svc.Access.CheckAccess(role, domain)
	resp := AccessCheckResponse{
		Role:      role,
		Domain:    domain,
		Allowed:   allowed,
		Allowlist: role.AllowedDomains(),
	}
	if allowed {
		resp.Explanation = explain.ExplainGrant(role, domain)
	} else {
		resp.Explanation = explain.ExplainDenial(role, domain)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAccessValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[ValidateDocumentsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	caller, role := h.resolveCaller(r)

	batch, err := h.validateDocuments(r, caller, role, "", req.Framework, req.SkipMask, req.Documents)
	if err != nil {
		h.logger.ErrorContext(ctx, "access validation failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, batch)
}
