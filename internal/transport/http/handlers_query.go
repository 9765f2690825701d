package httptransport

import (
	"net/http"

	"trustrag/internal/access/compliance"
	"trustrag/internal/access/explain"
	accessmodels "trustrag/internal/access/models"
	accesssvc "trustrag/internal/access/service"
	docmodels "trustrag/internal/document/models"
	guardmodels "trustrag/internal/guardrails/models"
	"trustrag/internal/pipeline"
	retrievalmodels "trustrag/internal/retrieval/models"
	dErrors "trustrag/pkg/domain-errors"
	"trustrag/pkg/platform/httputil"
	"trustrag/pkg/requestcontext"
)

func (h *Handler) resolveCaller(r *http.Request) (requestcontext.Caller, accessmodels.Role) {
	caller := requestcontext.CallerFrom(r.Context())
	return caller, h.svc.Roles.Resolve(caller.Department, caller.DepartmentRole)
}

func (h *Handler) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	caller := requestcontext.CallerFrom(r.Context())
	httputil.WriteJSON(w, http.StatusOK, h.svc.Roles.AccessSummary(caller.Department, caller.DepartmentRole))
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[QueryRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	caller := requestcontext.CallerFrom(ctx)

	resp, err := h.svc.Pipeline.Query(ctx, pipeline.QueryRequest{
		Query:          req.Query,
		User:           caller.UserID,
		Department:     caller.Department,
		DepartmentRole: caller.DepartmentRole,
		Domain:         req.Domain,
		SessionID:      caller.SessionID,
		K:              req.K,
		Framework:      req.Framework,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "query failed",
			"request_id", requestID,
			"user", caller.UserID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, queryStatus(resp), resp)
}

// queryStatus keeps blocked answers in the body while signalling the block
// class to HTTP clients.
func queryStatus(resp *pipeline.QueryResponse) int {
	if !resp.Blocked {
		return http.StatusOK
	}
	switch {
	case resp.BlockedBy == pipeline.BlockedByAccessControl:
		return http.StatusForbidden
	case resp.Violation != nil && resp.Violation.Type == guardmodels.ViolationRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusOK
	}
}

func (h *Handler) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[RetrieveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	caller, role := h.resolveCaller(r)

	retrieved, err := h.svc.Retriever.Retrieve(ctx, req.model)
	if err != nil {
		h.logger.ErrorContext(ctx, "retrieval failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "retrieval failed"))
		return
	}
	h.respondValidated(w, r, caller, role, req.Query, retrieved)
}

func (h *Handler) handleRetrieveDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[DomainRetrieveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	caller, role := h.resolveCaller(r)

	retrieved, err := h.svc.Retriever.RetrieveByDomain(ctx, req.Query, req.domain, req.K)
	if err != nil {
		h.logger.ErrorContext(ctx, "domain retrieval failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "retrieval failed"))
		return
	}
	// Denied documents are audited by the validator before the refusal.
	if !h.svc.Access.CheckAccess(role, req.domain) {
		if _, err := h.validate(r, caller, role, req.Query, "", retrieved); err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, explain.ExplainDenial(role, req.domain)))
		return
	}
	h.respondValidated(w, r, caller, role, req.Query, retrieved)
}

func (h *Handler) respondValidated(w http.ResponseWriter, r *http.Request, caller requestcontext.Caller, role accessmodels.Role, query string, retrieved []retrievalmodels.RetrievedDocument) {
	batch, err := h.validate(r, caller, role, query, "", retrieved)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "access validation failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RetrieveResponse{
		Documents:   mergeValidated(retrieved, batch.Results),
		Role:        role,
		Retrieved:   len(retrieved),
		Validated:   len(batch.Results),
		Denied:      batch.Denied,
		Explanation: explain.ExplainRetrieval(len(retrieved), len(batch.Results), batch.Denied),
	})
}

func (h *Handler) validate(r *http.Request, caller requestcontext.Caller, role accessmodels.Role, query, framework string, retrieved []retrievalmodels.RetrievedDocument) (*accessmodels.BatchResult, error) {
	docs := make([]docmodels.Document, len(retrieved))
	for i, rd := range retrieved {
		docs[i] = rd.Document
	}
	return h.validateDocuments(r, caller, role, query, framework, false, docs)
}

func (h *Handler) validateDocuments(r *http.Request, caller requestcontext.Caller, role accessmodels.Role, query, framework string, skipMask bool, docs []docmodels.Document) (*accessmodels.BatchResult, error) {
	batch := accesssvc.BatchRequest{
		Documents:   docs,
		Role:        role,
		SkipMasking: skipMask,
		User:        caller.UserID,
		SessionID:   caller.SessionID,
		Query:       query,
	}
	if framework != "" && h.svc.Frameworks != nil {
		return h.svc.Frameworks.FilterForFramework(r.Context(), compliance.FilterRequest{
			BatchRequest: batch,
			Framework:    compliance.ParseFramework(framework),
		})
	}
	return h.svc.Access.BatchValidate(r.Context(), batch)
}
