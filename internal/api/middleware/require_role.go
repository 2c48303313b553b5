package middleware

import (
	"net/http"

	"github.com/dkowalski/libris-api/internal/api/shared"
	"github.com/dkowalski/libris-api/internal/domain"
)

// RequireRole guards a route group behind a minimum role. It must run after
// Authenticate, which puts the role claim into the request context.
// Admins satisfy every role requirement.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := map[domain.Role]bool{domain.RoleAdmin: true}
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := shared.UserIDFromContext(r.Context()); !ok {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
				return
			}

			role := shared.UserRoleFromContext(r.Context())
			if !allowed[role] {
				shared.RespondWithError(w, r, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireElevated is shorthand for routes open to librarians and admins.
func RequireElevated() func(http.Handler) http.Handler {
	return RequireRole(domain.RoleLibrarian)
}
