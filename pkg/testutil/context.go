package testutil

import (
	"context"
	"net/http"

	"trustrag/pkg/requestcontext"
)

// WithCaller attaches an authenticated caller to the request, the way the
// auth middleware does after validating a token.
func WithCaller(req *http.Request, userID, department, departmentRole string) *http.Request {
	ctx := requestcontext.WithCaller(req.Context(), requestcontext.Caller{
		UserID:         userID,
		SessionID:      "sess-" + userID,
		Department:     department,
		DepartmentRole: departmentRole,
	})
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), key, value))
}
