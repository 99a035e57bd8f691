package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"ladla-backend/internal/auth"
	"ladla-backend/internal/transport"
)

const AccessCookie = "ladla_access"

type adminKey struct{}

// AdminAuth accepts the static X-Admin-Key, a Bearer access token or the
// access cookie.
func AdminAuth(adminKey string, manager *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey == "" && manager == nil {
				transport.Failure(w, http.StatusServiceUnavailable, "admin auth not configured", nil)
				return
			}

			if adminKey != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Admin-Key")), []byte(adminKey)) == 1 {
				next.ServeHTTP(w, r)
				return
			}

			if manager != nil {
				if token := accessToken(r); token != "" {
					claims, err := manager.Parse(token)
					if err == nil && claims.Role == auth.RoleAdmin {
						next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), claims.Subject)))
						return
					}
				}
			}

			transport.Failure(w, http.StatusUnauthorized, "unauthorized", nil)
		})
	}
}

func accessToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := r.Cookie(AccessCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func WithAdmin(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, adminKey{}, username)
}

// AdminFromContext returns the username of the authenticated admin, empty
// when the request was authorized with the static key.
func AdminFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(adminKey{}).(string); ok {
		return v
	}
	return ""
}
