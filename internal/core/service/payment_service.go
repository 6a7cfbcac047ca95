package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/panciteria/storefront-bff/internal/api/metrics"
	"github.com/panciteria/storefront-bff/internal/core/domain"
	"github.com/panciteria/storefront-bff/internal/core/ports"
)

const (
	defaultVerifyAttempts = 10
	defaultVerifyInterval = 2 * time.Second
	maxVerifyInterval     = 15 * time.Second
)

// PaymentService orchestrates hosted-checkout payments: session creation,
// verification polling, and the manual confirmation fallback. Once a
// payment is confirmed through any path, the cart mirror is cleared.
type PaymentService struct {
	backend ports.PaymentBackend
	cart    ports.CartService
	log     zerolog.Logger

	attempts int
	interval time.Duration
}

// NewPaymentService creates a PaymentService. attempts and interval bound
// the verification poll; non-positive values fall back to the defaults.
func NewPaymentService(backend ports.PaymentBackend, cart ports.CartService, attempts int, interval time.Duration, log zerolog.Logger) *PaymentService {
	if attempts <= 0 {
		attempts = defaultVerifyAttempts
	}
	if interval <= 0 {
		interval = defaultVerifyInterval
	}
	return &PaymentService{
		backend:  backend,
		cart:     cart,
		log:      log,
		attempts: attempts,
		interval: interval,
	}
}

// CreateGCashCheckout opens a hosted checkout session. The browser is
// redirected to the returned URL; confirmation happens afterwards via
// Verify or AwaitConfirmation.
func (s *PaymentService) CreateGCashCheckout(ctx context.Context, sessionID string, input ports.GCashCheckoutInput) (*domain.CheckoutSession, error) {
	return s.backend.CreateGCashCheckout(ctx, sessionID, input)
}

// Verify performs a single verification poll. A confirmed payment clears
// the cart mirror.
func (s *PaymentService) Verify(ctx context.Context, sessionID string, orderID int64) (*domain.PaymentStatus, error) {
	status, err := s.backend.VerifyPayment(ctx, sessionID, orderID)
	if err != nil {
		metrics.PaymentVerifyTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if status.Paid() {
		metrics.PaymentVerifyTotal.WithLabelValues("paid").Inc()
		_ = s.cart.ClearAfterPayment(ctx, sessionID)
	} else {
		metrics.PaymentVerifyTotal.WithLabelValues("pending").Inc()
	}
	return status, nil
}

// Confirm applies the manual confirmation fallback, used when the provider
// webhook has not landed. A "Paid" confirmation clears the cart mirror.
func (s *PaymentService) Confirm(ctx context.Context, sessionID string, orderID int64, input ports.ConfirmPaymentInput) error {
	if err := s.backend.ConfirmPayment(ctx, sessionID, orderID, input); err != nil {
		return err
	}
	if input.PaymentStatus == domain.PaymentStatusPaid {
		_ = s.cart.ClearAfterPayment(ctx, sessionID)
	}
	return nil
}

// AwaitConfirmation polls Verify with backoff until the payment is
// confirmed, the attempt budget runs out (domain.ErrPaymentPending), or ctx
// is cancelled. The poll is bounded and cancellable by construction: a
// customer navigating away tears down the request context and with it the
// loop.
func (s *PaymentService) AwaitConfirmation(ctx context.Context, sessionID string, orderID int64) (*domain.PaymentStatus, error) {
	interval := s.interval
	var last *domain.PaymentStatus

	for attempt := 1; attempt <= s.attempts; attempt++ {
		status, err := s.Verify(ctx, sessionID, orderID)
		if err != nil {
			s.log.Warn().Err(err).Int64("order_id", orderID).Int("attempt", attempt).
				Msg("payment verification poll failed")
		} else {
			last = status
			if status.Paid() {
				return status, nil
			}
		}

		if attempt == s.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-time.After(interval):
		}
		interval = interval * 3 / 2
		if interval > maxVerifyInterval {
			interval = maxVerifyInterval
		}
	}

	return last, domain.ErrPaymentPending
}
