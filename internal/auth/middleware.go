package auth

import (
	"context"
	"net/http"
	"strings"

	pkghttp "github.com/michelvankessel/nedcloud-website/pkg/http"

	"github.com/michelvankessel/nedcloud-website/internal/models"
)

// contextKey is a custom type for context keys
type contextKey string

// SessionContextKey is the key for storing session claims in context
const SessionContextKey contextKey = "session"

// SessionMiddleware validates the bearer session token and injects its
// claims into the request context. Responses never say why a token was
// rejected beyond a generic 401.
func SessionMiddleware(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			claims, err := tm.ValidateToken(parts[1])
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalSession injects session claims when a valid bearer token is
// present but never rejects the request. Public endpoints use it to show
// authenticated callers more (draft content) while staying anonymous-safe:
// a missing or invalid token just means no claims in context.
func OptionalSession(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				if claims, err := tm.ValidateToken(parts[1]); err == nil {
					ctx := context.WithValue(r.Context(), SessionContextKey, claims)
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole enforces role-based access. Must run after SessionMiddleware.
func RequireRole(role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := SessionFromContext(r.Context())
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}
			if claims.Role != role {
				pkghttp.WriteForbidden(w, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext returns the session claims stored by
// SessionMiddleware, or nil when the request is unauthenticated.
func SessionFromContext(ctx context.Context) *models.SessionClaims {
	claims, _ := ctx.Value(SessionContextKey).(*models.SessionClaims)
	return claims
}
