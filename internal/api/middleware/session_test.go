package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/panciteria/storefront-bff/internal/core/domain"
	"github.com/panciteria/storefront-bff/internal/infrastructure/session"
)

const testSecret = "test-secret"

func echoContext(t *testing.T, cookie *http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestSession_MintAndResolve(t *testing.T) {
	cookie, err := MintSessionCookie(testSecret, "sid-7", time.Hour)
	if err != nil {
		t.Fatalf("MintSessionCookie: %v", err)
	}
	if cookie.Name != SessionCookie || !cookie.HttpOnly {
		t.Fatalf("unexpected cookie attributes: %+v", cookie)
	}

	store := session.NewMemoryStore()
	c, _ := echoContext(t, cookie)
	if err := Session(testSecret, store)(okHandler)(c); err != nil {
		t.Fatalf("session middleware: %v", err)
	}
	if got := c.Get("session_id"); got != "sid-7" {
		t.Fatalf("expected session_id sid-7, got %v", got)
	}
}

func TestSession_WrongSecretRejected(t *testing.T) {
	cookie, err := MintSessionCookie("other-secret", "sid-7", time.Hour)
	if err != nil {
		t.Fatalf("MintSessionCookie: %v", err)
	}

	c, _ := echoContext(t, cookie)
	err = Session(testSecret, session.NewMemoryStore())(okHandler)(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestSession_MissingCookieRejected(t *testing.T) {
	c, _ := echoContext(t, nil)
	err := Session(testSecret, session.NewMemoryStore())(okHandler)(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestOptionalSession_PassesThroughWithoutCookie(t *testing.T) {
	c, rec := echoContext(t, nil)
	if err := OptionalSession(testSecret, session.NewMemoryStore())(okHandler)(c); err != nil {
		t.Fatalf("optional session: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := c.Get("session_id"); got != "" {
		t.Fatalf("expected empty session_id, got %v", got)
	}
}

func TestSession_InjectsIdentityFromStoredToken(t *testing.T) {
	access := signedAccessToken(t, jwt.MapClaims{
		"username": "aling-nena",
		"email":    "nena@example.com",
		"role":     domain.RoleAdmin,
	})

	store := session.NewMemoryStore()
	if err := store.Set(context.Background(), "sid-7", domain.TokenKeyAccess, access); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	cookie, err := MintSessionCookie(testSecret, "sid-7", time.Hour)
	if err != nil {
		t.Fatalf("MintSessionCookie: %v", err)
	}
	c, _ := echoContext(t, cookie)
	if err := Session(testSecret, store)(okHandler)(c); err != nil {
		t.Fatalf("session middleware: %v", err)
	}

	if got := c.Get("username"); got != "aling-nena" {
		t.Fatalf("expected username, got %v", got)
	}
	if got := c.Get("role"); got != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %v", got)
	}
}

func TestIdentityFromToken_DefaultsToCustomer(t *testing.T) {
	access := signedAccessToken(t, jwt.MapClaims{"username": "juan"})
	id := IdentityFromToken(access)
	if id.Username != "juan" || id.Role != domain.RoleCustomer {
		t.Fatalf("unexpected identity: %+v", id)
	}

	if id := IdentityFromToken("not-a-jwt"); id.Role != domain.RoleCustomer {
		t.Fatalf("garbage token should yield the customer default, got %+v", id)
	}
}

// signedAccessToken mimics the upstream accounts service: any HS256 key
// works because the client never verifies the signature.
func signedAccessToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("upstream-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
