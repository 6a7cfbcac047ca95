package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/panciteria/storefront-bff/internal/api/middleware"
	"github.com/panciteria/storefront-bff/internal/core/domain"
	"github.com/panciteria/storefront-bff/internal/core/ports"
)

// AuthHandler handles login, signup, logout, and identity introspection.
// Credentials pass straight through to the accounts service; this handler
// only keeps the resulting token pair in the session store and hands the
// browser a signed session cookie.
type AuthHandler struct {
	accounts ports.AccountsClient
	store    ports.SessionStore
	cart     ports.CartService
	secret   string
	ttl      time.Duration
}

func NewAuthHandler(accounts ports.AccountsClient, store ports.SessionStore, cart ports.CartService, secret string, ttl time.Duration) *AuthHandler {
	return &AuthHandler{accounts: accounts, store: store, cart: cart, secret: secret, ttl: ttl}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	pair, err := h.accounts.Login(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}

	sid := uuid.NewString()
	if err := h.store.Set(ctx, sid, domain.TokenKeyAccess, pair.Access); err != nil {
		return err
	}
	if err := h.store.Set(ctx, sid, domain.TokenKeyRefresh, pair.Refresh); err != nil {
		return err
	}

	cookie, err := middleware.MintSessionCookie(h.secret, sid, h.ttl)
	if err != nil {
		return err
	}
	c.SetCookie(cookie)

	// Token identity changed from absent to present: populate the mirror.
	h.cart.Load(ctx, sid)

	id := middleware.IdentityFromToken(pair.Access)
	if id.Username == "" {
		id.Username = req.Username
	}
	return c.JSON(http.StatusOK, loginResponse{Username: id.Username, Role: id.Role})
}

type signupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := h.accounts.Signup(c.Request().Context(), ports.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusCreated)
}

// Logout handles POST /auth/logout: both tokens are destroyed, the mirror
// is dropped, and the cookie is expired.
func (h *AuthHandler) Logout(c echo.Context) error {
	sid, err := ctxSessionID(c)
	if err != nil {
		return err
	}
	if err := h.store.Clear(c.Request().Context(), sid); err != nil {
		return err
	}
	h.cart.Forget(sid)
	c.SetCookie(middleware.ExpiredSessionCookie())
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c echo.Context) error {
	sid, err := ctxSessionID(c)
	if err != nil {
		return err
	}
	access := h.store.Get(c.Request().Context(), sid, domain.TokenKeyAccess)
	if access == "" {
		return domain.ErrNotAuthenticated
	}
	return c.JSON(http.StatusOK, middleware.IdentityFromToken(access))
}
