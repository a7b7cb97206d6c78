package auth

import (
	"net/http"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// ScopeMiddleware resolves the session user into an authorization scope and
// stores it in the request context. Authorization is enforced here and in the
// services, never in the frontend.
func ScopeMiddleware(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if scope, ok := service.ResolveScope(r.Context(), sess); ok {
				r = r.WithContext(shared.ContextWithScope(r.Context(), scope))
			}
			next.ServeHTTP(w, r)
		})
	}
}
