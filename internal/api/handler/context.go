package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxSessionID extracts the session ID injected by the Session middleware.
// An empty ID on a route that requires one means the middleware chain is
// miswired. Fail closed with 401 rather than talking upstream anonymously.
func ctxSessionID(c echo.Context) (string, error) {
	sid, _ := c.Get("session_id").(string)
	if sid == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	return sid, nil
}

// optionalSessionID is for routes behind OptionalSession: an absent session
// reads as "", which the cart service treats as unauthenticated no-op.
func optionalSessionID(c echo.Context) string {
	sid, _ := c.Get("session_id").(string)
	return sid
}
