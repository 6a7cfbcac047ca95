package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RBAC gates a route on the role claim injected by the Session middleware.
// This is a UI-level gate only. The upstream services re-check the role on
// every call, so a forged claim buys nothing beyond a nicer error page.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if _, ok := allowed[role]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
