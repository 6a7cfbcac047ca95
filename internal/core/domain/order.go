package domain

import "encoding/json"

// Payment methods accepted at checkout.
const (
	PaymentMethodCOD   = "COD"
	PaymentMethodGCash = "GCash"
)

// Payment statuses reported by the inventory service.
const (
	PaymentStatusUnpaid = "Unpaid"
	PaymentStatusPaid   = "Paid"
	PaymentStatusFailed = "Failed"
)

// OrderItem is one line of a created order.
type OrderItem struct {
	ProductID       int64   `json:"product_id"`
	Name            string  `json:"name,omitempty"`
	Quantity        int     `json:"quantity"`
	PriceAtPurchase float64 `json:"price_at_purchase"`
}

// Order is the created-order representation returned by the checkout
// endpoint. Raw keeps the upstream payload verbatim so fields this client
// does not model still reach the browser unchanged.
type Order struct {
	ID            int64           `json:"id"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	PaymentStatus string          `json:"payment_status"`
	TotalPrice    float64         `json:"total_price,string"`
	Address       string          `json:"address"`
	Items         []OrderItem     `json:"items,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

// CheckoutSession is the hosted-checkout handle returned when a GCash
// payment is initiated. The browser is redirected to CheckoutURL; the
// provider redirects back once the customer pays or cancels.
type CheckoutSession struct {
	SessionID   string          `json:"session_id"`
	CheckoutURL string          `json:"checkout_url"`
	Raw         json.RawMessage `json:"-"`
}

// PaymentStatus is the result of a payment verification poll.
type PaymentStatus struct {
	OrderID int64           `json:"order_id"`
	Status  string          `json:"payment_status"`
	Raw     json.RawMessage `json:"-"`
}

// Paid reports whether verification confirmed the payment.
func (p PaymentStatus) Paid() bool {
	return p.Status == PaymentStatusPaid
}
