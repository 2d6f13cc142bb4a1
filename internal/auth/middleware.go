package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
	"github.com/apotek-pos/apotek-pos/internal/shared"
)

// Middleware guards routes behind bearer-token authentication and roles.
type Middleware struct {
	Tokens *TokenManager
	Logger *slog.Logger
}

// RequireAuth rejects requests without a valid bearer token and stores
// the caller identity in the request context.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			httpx.RespondError(w, fmt.Errorf("%w: missing bearer token", httpx.ErrUnauthorized))
			return
		}
		tokenString := strings.TrimSpace(header[len("bearer "):])
		id, err := m.Tokens.Parse(tokenString)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), id)))
	})
}

// RequireRole allows only callers holding one of the given roles.
// Admin passes every gate.
func (m Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, fmt.Errorf("%w: missing identity", httpx.ErrUnauthorized))
				return
			}
			if id.Role == RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			if m.Logger != nil {
				m.Logger.Warn("role denied", slog.String("role", id.Role), slog.String("path", r.URL.Path))
			}
			httpx.RespondError(w, fmt.Errorf("%w: insufficient role", httpx.ErrForbidden))
		})
	}
}
