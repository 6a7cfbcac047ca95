package domain

import (
	"errors"
	"fmt"
)

var ErrNotAuthenticated = errors.New("authentication required")
var ErrNothingSelected = errors.New("no items selected for checkout")
var ErrForbidden = errors.New("access forbidden")
var ErrDuplicateCheckout = errors.New("checkout already submitted")
var ErrPaymentPending = errors.New("payment not confirmed yet")

// UpstreamError carries a non-2xx rejection from one of the backing
// services. Detail is the parsed JSON error body when the upstream sent
// one, otherwise a truncated excerpt of the raw response text.
type UpstreamError struct {
	Status int
	Detail string
}

func (e *UpstreamError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("upstream returned status %d", e.Status)
	}
	return e.Detail
}
