package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/revtrack/revenue-tracker/internal/api/metrics"
	"github.com/revtrack/revenue-tracker/pkg/rbac"
)

// RBAC restricts a route to the given roles using rbac.Allows, the same
// decision clients use for navigation. With no roles any authenticated
// account passes. It must run after Auth.
func RBAC(required ...rbac.Role) echo.MiddlewareFunc {
	allowed := rbac.NewSet(required...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
			}
			if !rbac.Allows(identity.Account.Role, allowed) {
				metrics.ForbiddenTotal.WithLabelValues(identity.Account.Role.String()).Inc()
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
