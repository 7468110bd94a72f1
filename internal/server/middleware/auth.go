// Package middleware holds the HTTP middleware chain: CORS, request logging,
// authentication, per-client rate limiting and admin identity propagation.
package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

type contextKey string

const actorKey contextKey = "actor"

// Auth returns middleware that validates requests using either a Bearer token
// in the Authorization header or a static key in the X-API-Key header. If
// apiKey is empty, authentication is disabled and all requests pass.
//
// The X-Admin-User header, set by the console's session layer, is stashed in
// the request context so decisions can be attributed to a named operator.
func Auth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey != "" {
				token := extractToken(r)
				if token == "" {
					writeUnauthorized(w, "missing authentication token")
					return
				}
				// Constant-time comparison to prevent timing attacks.
				if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
					writeUnauthorized(w, "invalid authentication token")
					return
				}
			}

			if actor := strings.TrimSpace(r.Header.Get("X-Admin-User")); actor != "" {
				r = r.WithContext(context.WithValue(r.Context(), actorKey, actor))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Actor returns the operator name attached by Auth, or "admin" when the
// console did not send one.
func Actor(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey).(string); ok && v != "" {
		return v
	}
	return "admin"
}

// extractToken looks for a token in the Authorization header (Bearer scheme)
// or in the X-API-Key header.
func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return strings.TrimSpace(key)
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
