// Package middleware provides HTTP middlewares for identity and logging.
package middleware

import (
	"context"
	"net/http"
)

type ctxKey string

const userKey ctxKey = "user"

const userHeader = "X-User-ID"

// UserIdentity requires every request to carry the authenticated user's
// identity in the X-User-ID header and stores it in the request context. The
// hosted platform derives this from its auth token; the emulator trusts the
// header as a stand-in. Every downstream query is scoped by this identity,
// which is what makes per-row access control hold.
func UserIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userHeader)
		if userID == "" {
			http.Error(w, "missing "+userHeader+" header", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext extracts the authenticated user ID from the request
// context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
