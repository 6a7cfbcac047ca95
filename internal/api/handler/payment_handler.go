package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/panciteria/storefront-bff/internal/core/domain"
	"github.com/panciteria/storefront-bff/internal/core/ports"
)

// PaymentHandler exposes the hosted-checkout payment flow: session
// creation, single verification polls, the bounded wait, and the manual
// confirmation fallback.
type PaymentHandler struct {
	payments ports.PaymentService
}

func NewPaymentHandler(payments ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type gcashCheckoutRequest struct {
	Address string `json:"address" validate:"required"`
	Items   []struct {
		ProductID int64 `json:"product_id" validate:"required,gt=0"`
		Quantity  int   `json:"quantity"   validate:"required,min=1"`
	} `json:"selected_items" validate:"required,min=1,dive"`
}

type gcashCheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// CreateGCashCheckout handles POST /payments/gcash/checkout. The browser
// redirects to the returned hosted checkout URL.
func (h *PaymentHandler) CreateGCashCheckout(c echo.Context) error {
	var req gcashCheckoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sid, err := ctxSessionID(c)
	if err != nil {
		return err
	}

	input := ports.GCashCheckoutInput{Address: req.Address}
	for _, it := range req.Items {
		input.Items = append(input.Items, ports.SelectedItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	session, err := h.payments.CreateGCashCheckout(c.Request().Context(), sid, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, gcashCheckoutResponse{
		SessionID:   session.SessionID,
		CheckoutURL: session.CheckoutURL,
	})
}

// Verify handles POST /payments/orders/:id/verify: one poll of the
// provider-side payment state.
func (h *PaymentHandler) Verify(c echo.Context) error {
	sid, orderID, err := h.sessionAndOrder(c)
	if err != nil {
		return err
	}
	status, err := h.payments.Verify(c.Request().Context(), sid, orderID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, status)
}

// Await handles POST /payments/orders/:id/wait: the bounded verification
// poll. A payment still pending after the attempt budget returns 202 so
// the page can offer the manual confirmation escape hatch.
func (h *PaymentHandler) Await(c echo.Context) error {
	sid, orderID, err := h.sessionAndOrder(c)
	if err != nil {
		return err
	}

	status, err := h.payments.AwaitConfirmation(c.Request().Context(), sid, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentPending) {
			return c.JSON(http.StatusAccepted, map[string]string{
				"detail": err.Error(),
			})
		}
		return err
	}
	return c.JSON(http.StatusOK, status)
}

type confirmPaymentRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=Paid Failed"`
	Reference     string `json:"reference"`
}

// Confirm handles POST /payments/orders/:id/confirm: the manual fallback
// for when the provider webhook has not landed yet.
func (h *PaymentHandler) Confirm(c echo.Context) error {
	var req confirmPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sid, orderID, err := h.sessionAndOrder(c)
	if err != nil {
		return err
	}

	err = h.payments.Confirm(c.Request().Context(), sid, orderID, ports.ConfirmPaymentInput{
		PaymentStatus: req.PaymentStatus,
		Reference:     req.Reference,
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PaymentHandler) sessionAndOrder(c echo.Context) (string, int64, error) {
	sid, err := ctxSessionID(c)
	if err != nil {
		return "", 0, err
	}
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || orderID <= 0 {
		return "", 0, echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	return sid, orderID, nil
}
