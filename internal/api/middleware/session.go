package middleware

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/panciteria/storefront-bff/internal/core/domain"
	"github.com/panciteria/storefront-bff/internal/core/ports"
)

// SessionCookie is the name of the signed cookie carrying the session ID.
const SessionCookie = "storefront_session"

// MintSessionCookie builds the signed session cookie handed out at login.
func MintSessionCookie(secret, sessionID string, ttl time.Duration) (*http.Cookie, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sessionID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    signed,
		Path:     "/",
		Expires:  now.Add(ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// ExpiredSessionCookie returns the cookie that deletes the session cookie.
func ExpiredSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Session validates the session cookie and injects the session ID plus the
// identity claims read from the stored access token. Requests without a
// valid cookie are rejected with 401.
func Session(secret string, store ports.SessionStore) echo.MiddlewareFunc {
	return sessionMiddleware(secret, store, true)
}

// OptionalSession resolves the session when a valid cookie is present and
// otherwise lets the request through with an empty session ID. Cart routes
// use this: with no session the cart operations are defined as silent
// no-ops, not authentication errors.
func OptionalSession(secret string, store ports.SessionStore) echo.MiddlewareFunc {
	return sessionMiddleware(secret, store, false)
}

func sessionMiddleware(secret string, store ports.SessionStore, required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid, ok := resolveSessionID(c, secret)
			if !ok {
				if required {
					return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid session")
				}
				c.Set("session_id", "")
				return next(c)
			}

			c.Set("session_id", sid)

			// Identity is display/gating only; the upstream services verify
			// the token themselves on every call, so an unverified parse is
			// enough here.
			if access := store.Get(c.Request().Context(), sid, domain.TokenKeyAccess); access != "" {
				id := IdentityFromToken(access)
				c.Set("username", id.Username)
				c.Set("role", id.Role)
			}

			return next(c)
		}
	}
}

func resolveSessionID(c echo.Context, secret string) (string, bool) {
	cookie, err := c.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tkn.Valid {
		return "", false
	}

	sid, _ := claims["sid"].(string)
	return sid, sid != ""
}

// IdentityFromToken reads the display identity out of an upstream access
// token without verifying it. The signature belongs to the accounts
// service; this client only needs the claims for UI gating.
func IdentityFromToken(accessToken string) domain.Identity {
	claims := jwt.MapClaims{}
	id := domain.Identity{Role: domain.RoleCustomer}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return id
	}
	id.Username, _ = claims["username"].(string)
	id.Email, _ = claims["email"].(string)
	if role, _ := claims["role"].(string); role != "" {
		id.Role = role
	}
	return id
}
