package ports

import (
	"context"

	"github.com/panciteria/storefront-bff/internal/core/domain"
)

// SelectedItemInput names one cart line earmarked for checkout.
type SelectedItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CheckoutInput is everything the inventory service needs to create an
// order from the selected cart lines.
type CheckoutInput struct {
	PaymentMethod string
	Address       string
	Items         []SelectedItemInput
}

// CartBackend is the slice of the inventory service REST surface the cart
// mirror drives. Every mutation is fire-and-forget on the backend side; the
// mirror refreshes itself with FetchCart afterwards.
type CartBackend interface {
	FetchCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddItem(ctx context.Context, sessionID string, productID int64, quantity int) error
	RemoveItem(ctx context.Context, sessionID string, productID int64) error
	UpdateItem(ctx context.Context, sessionID string, productID int64, quantity int) error
	ClearCart(ctx context.Context, sessionID string) error
	Checkout(ctx context.Context, sessionID string, input CheckoutInput) (*domain.Order, error)
}

// CartView is a consistent read of one session's mirror: the mirrored items,
// the local selection, and the derived totals over both.
type CartView struct {
	Items         []domain.CartItem `json:"items"`
	Selected      []int64           `json:"selected"`
	Total         float64           `json:"total"`
	ItemCount     int               `json:"item_count"`
	SelectedTotal float64           `json:"selected_total"`
	SelectedCount int               `json:"selected_count"`
}

// CartService is the per-session cart mirror. All server-touching
// operations are silent no-ops when the session holds no access token; the
// UI gates those flows behind a login check, so absence is not an error.
type CartService interface {
	// Load replaces the mirror from the server cart. Fetch failures are
	// swallowed and leave the previous mirror in place.
	Load(ctx context.Context, sessionID string) CartView
	// View reads the current mirror without touching the server.
	View(sessionID string) CartView

	Add(ctx context.Context, sessionID string, productID int64) error
	Remove(ctx context.Context, sessionID string, productID int64) error
	SetQuantity(ctx context.Context, sessionID string, productID int64, quantity int) error
	// Clear empties the server cart, then resets items and selection
	// locally without waiting for a reload.
	Clear(ctx context.Context, sessionID string) error

	ToggleSelect(sessionID string, productID int64)
	SelectAll(sessionID string)
	DeselectAll(sessionID string)

	// Checkout sends the selected lines to the order endpoint. It fails
	// synchronously with domain.ErrNothingSelected before any network call
	// when the selection is empty. It does not clear items or selection;
	// that happens via ClearAfterPayment once payment is confirmed.
	Checkout(ctx context.Context, sessionID string, paymentMethod, address string) (*domain.Order, error)
	// ClearAfterPayment empties the server cart and resets the mirror once
	// the caller has confirmed payment completion.
	ClearAfterPayment(ctx context.Context, sessionID string) error

	// Forget drops the in-memory mirror for a session (logout, expiry).
	Forget(sessionID string)
}

// CheckoutGuard deduplicates checkout submissions carrying the same
// idempotency key within one session.
type CheckoutGuard interface {
	IsDuplicate(ctx context.Context, sessionID, key string) (bool, error)
	Mark(ctx context.Context, sessionID, key string) error
}
