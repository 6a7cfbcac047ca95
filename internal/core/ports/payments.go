package ports

import (
	"context"

	"github.com/panciteria/storefront-bff/internal/core/domain"
)

// GCashCheckoutInput initiates a hosted GCash checkout for the selected
// cart lines. Amounts and line details are recomputed upstream; this only
// names what the customer picked.
type GCashCheckoutInput struct {
	Address string
	Items   []SelectedItemInput
}

// ConfirmPaymentInput is the manual confirmation fallback used when the
// provider webhook has not landed yet.
type ConfirmPaymentInput struct {
	PaymentStatus string
	Reference     string
}

// PaymentBackend is the payment slice of the inventory service surface.
type PaymentBackend interface {
	CreateGCashCheckout(ctx context.Context, sessionID string, input GCashCheckoutInput) (*domain.CheckoutSession, error)
	VerifyPayment(ctx context.Context, sessionID string, orderID int64) (*domain.PaymentStatus, error)
	ConfirmPayment(ctx context.Context, sessionID string, orderID int64, input ConfirmPaymentInput) error
}

// PaymentService orchestrates payment confirmation on top of the backend:
// a bounded verification poll with backoff, cancelled by the request
// context, that clears the cart once payment lands.
type PaymentService interface {
	CreateGCashCheckout(ctx context.Context, sessionID string, input GCashCheckoutInput) (*domain.CheckoutSession, error)
	Verify(ctx context.Context, sessionID string, orderID int64) (*domain.PaymentStatus, error)
	Confirm(ctx context.Context, sessionID string, orderID int64, input ConfirmPaymentInput) error
	// AwaitConfirmation polls Verify until the payment is confirmed, the
	// attempt budget is exhausted (domain.ErrPaymentPending), or ctx is
	// cancelled.
	AwaitConfirmation(ctx context.Context, sessionID string, orderID int64) (*domain.PaymentStatus, error)
}
