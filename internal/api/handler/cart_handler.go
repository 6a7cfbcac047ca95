package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/panciteria/storefront-bff/internal/api/metrics"
	"github.com/panciteria/storefront-bff/internal/core/domain"
	"github.com/panciteria/storefront-bff/internal/core/ports"
)

// CartHandler exposes the cart mirror to the browser. All routes sit behind
// OptionalSession: without a session every server-touching operation is a
// silent no-op on an empty mirror, matching how the storefront UI gates
// these flows behind a login check.
type CartHandler struct {
	cart  ports.CartService
	guard ports.CheckoutGuard
}

// NewCartHandler creates a CartHandler. guard may be nil, which disables
// checkout idempotency checks (tests, single-instance dev setups).
func NewCartHandler(cart ports.CartService, guard ports.CheckoutGuard) *CartHandler {
	return &CartHandler{cart: cart, guard: guard}
}

// Get handles GET /cart: a read-through load of the mirror. Fetch failures
// degrade to the stale mirror rather than an error page.
func (h *CartHandler) Get(c echo.Context) error {
	sid := optionalSessionID(c)
	return c.JSON(http.StatusOK, h.cart.Load(c.Request().Context(), sid))
}

type cartItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

type cartQuantityRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity"   validate:"required,min=1"`
}

// Add handles POST /cart/add.
func (h *CartHandler) Add(c echo.Context) error {
	var req cartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sid := optionalSessionID(c)
	if err := h.cart.Add(c.Request().Context(), sid, req.ProductID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.cart.View(sid))
}

// Remove handles POST /cart/remove.
func (h *CartHandler) Remove(c echo.Context) error {
	var req cartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sid := optionalSessionID(c)
	if err := h.cart.Remove(c.Request().Context(), sid, req.ProductID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.cart.View(sid))
}

// Update handles POST /cart/update. Quantity is clamped to >= 1 by
// validation; removing a line goes through /cart/remove instead.
func (h *CartHandler) Update(c echo.Context) error {
	var req cartQuantityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sid := optionalSessionID(c)
	if err := h.cart.SetQuantity(c.Request().Context(), sid, req.ProductID, req.Quantity); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.cart.View(sid))
}

// Clear handles POST /cart/clear.
func (h *CartHandler) Clear(c echo.Context) error {
	sid := optionalSessionID(c)
	if err := h.cart.Clear(c.Request().Context(), sid); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.cart.View(sid))
}

// ToggleSelect handles POST /cart/select.
func (h *CartHandler) ToggleSelect(c echo.Context) error {
	var req cartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sid := optionalSessionID(c)
	h.cart.ToggleSelect(sid, req.ProductID)
	return c.JSON(http.StatusOK, h.cart.View(sid))
}

// SelectAll handles POST /cart/select-all.
func (h *CartHandler) SelectAll(c echo.Context) error {
	sid := optionalSessionID(c)
	h.cart.SelectAll(sid)
	return c.JSON(http.StatusOK, h.cart.View(sid))
}

// DeselectAll handles POST /cart/deselect-all.
func (h *CartHandler) DeselectAll(c echo.Context) error {
	sid := optionalSessionID(c)
	h.cart.DeselectAll(sid)
	return c.JSON(http.StatusOK, h.cart.View(sid))
}

type checkoutRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=COD GCash"`
	Address       string `json:"address"        validate:"required"`
}

// Checkout handles POST /checkout. An Idempotency-Key header guards
// against duplicate submissions; the created-order payload from the
// inventory service is relayed verbatim.
func (h *CartHandler) Checkout(c echo.Context) error {
	var req checkoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sid := optionalSessionID(c)
	ctx := c.Request().Context()

	key := c.Request().Header.Get("Idempotency-Key")
	if h.guard != nil && key != "" {
		dup, err := h.guard.IsDuplicate(ctx, sid, key)
		if err != nil {
			return err
		}
		if dup {
			metrics.CheckoutTotal.WithLabelValues("duplicate").Inc()
			return domain.ErrDuplicateCheckout
		}
	}

	order, err := h.cart.Checkout(ctx, sid, req.PaymentMethod, req.Address)
	if err != nil {
		return err
	}

	if h.guard != nil && key != "" {
		if err := h.guard.Mark(ctx, sid, key); err != nil {
			return err
		}
	}
	return c.JSONBlob(http.StatusCreated, order.Raw)
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
