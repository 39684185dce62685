package auth

import (
	"context"
	"net/http"

	"github.com/mind-engage/exam-simulator/internal/rbac"
)

type ctxKey string

const ctxKeySub ctxKey = "sub"

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

func SubjectFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeySub); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// OwnsSession reports whether the request's token was issued for the
// session named by sessionID (a candidate token's subject is its session).
func OwnsSession(r *http.Request, sessionID string) bool {
	ctx := r.Context()
	return sessionID != "" &&
		rbac.RoleFromContext(ctx) == rbac.RoleCandidate &&
		SubjectFromContext(ctx) == sessionID
}
