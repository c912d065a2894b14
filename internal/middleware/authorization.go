package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireAdmin lets only admin tokens through. It must run after
// AuthMiddleware.
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRole(r.Context())
			if !ok {
				logger.Warn("Role not found in context")
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			if role != RoleAdmin {
				userID, _ := GetUserID(r.Context())
				logger.Warn("Non-admin user attempted to modify the catalog",
					zap.String("user_id", userID),
					zap.String("role", role),
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
