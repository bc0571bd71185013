// Package auth resolves the authenticated owner of a request. It never
// decides what that owner may see; ownership scoping lives in the
// repositories.
package auth

import (
	"context"
	"net/http"
	"strings"
)

// Identity is the authenticated user attached to a request context.
type Identity struct {
	ID       int64
	Username string
}

// Verifier turns a bearer token into an Identity.
type Verifier interface {
	Identify(ctx context.Context, token string) (Identity, error)
}

type ctxKey int

const identityKey ctxKey = 0

// Middleware rejects requests without a valid "Authorization: Bearer"
// token and stores the resolved Identity in the request context.
func Middleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			id, err := v.Identify(r.Context(), token)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the request's Identity. ok is false when the
// request never went through Middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
