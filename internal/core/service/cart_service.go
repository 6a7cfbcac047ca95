package service

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/panciteria/storefront-bff/internal/api/metrics"
	"github.com/panciteria/storefront-bff/internal/core/domain"
	"github.com/panciteria/storefront-bff/internal/core/ports"
)

// CartService is the per-session cart mirror: a read-through copy of the
// server-owned cart plus purely local selection state. Every mutation goes
// to the server first and then replaces the whole mirror from a fresh read;
// the mirror never drifts from server truth, at the cost of one extra round
// trip per mutation. Independent mutations race freely; the reload that
// lands last wins, which is accepted weak consistency.
type CartService struct {
	store   ports.SessionStore
	backend ports.CartBackend
	log     zerolog.Logger

	mu      sync.Mutex
	mirrors map[string]*mirror
}

type mirror struct {
	items     []domain.CartItem
	selection map[int64]struct{}
}

func NewCartService(store ports.SessionStore, backend ports.CartBackend, log zerolog.Logger) *CartService {
	return &CartService{
		store:   store,
		backend: backend,
		log:     log,
		mirrors: make(map[string]*mirror),
	}
}

// Load replaces the mirror from the server cart. Without an access token
// the mirror's items are emptied without any server call; fetch failures
// are swallowed, keeping the previous (stale) items.
func (s *CartService) Load(ctx context.Context, sessionID string) ports.CartView {
	if !s.authenticated(ctx, sessionID) {
		s.withMirror(sessionID, func(m *mirror) {
			m.items = nil
		})
		return s.View(sessionID)
	}

	metrics.CartOperationsTotal.WithLabelValues("load").Inc()
	cart, err := s.backend.FetchCart(ctx, sessionID)
	if err != nil {
		s.log.Warn().Err(err).Msg("cart reload failed, keeping stale mirror")
		return s.View(sessionID)
	}

	s.withMirror(sessionID, func(m *mirror) {
		m.items = cart.Items
	})
	return s.View(sessionID)
}

// View reads the current mirror without touching the server.
func (s *CartService) View(sessionID string) ports.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.mirrors[sessionID]
	if m == nil {
		return ports.CartView{Items: []domain.CartItem{}, Selected: []int64{}}
	}

	view := ports.CartView{
		Items:    append([]domain.CartItem(nil), m.items...),
		Selected: make([]int64, 0, len(m.selection)),
	}
	if view.Items == nil {
		view.Items = []domain.CartItem{}
	}
	for id := range m.selection {
		view.Selected = append(view.Selected, id)
	}
	sort.Slice(view.Selected, func(i, j int) bool { return view.Selected[i] < view.Selected[j] })

	for _, it := range m.items {
		view.Total += it.Subtotal()
		view.ItemCount += it.Quantity
		if _, ok := m.selection[it.ProductID]; ok {
			view.SelectedTotal += it.Subtotal()
			view.SelectedCount += it.Quantity
		}
	}
	return view
}

// Add asks the server to add one unit, then reloads. Selection is untouched.
func (s *CartService) Add(ctx context.Context, sessionID string, productID int64) error {
	if !s.authenticated(ctx, sessionID) {
		return nil
	}
	metrics.CartOperationsTotal.WithLabelValues("add").Inc()
	if err := s.backend.AddItem(ctx, sessionID, productID, 1); err != nil {
		return err
	}
	s.reload(ctx, sessionID)
	return nil
}

// Remove asks the server to drop the product line entirely, then reloads.
func (s *CartService) Remove(ctx context.Context, sessionID string, productID int64) error {
	if !s.authenticated(ctx, sessionID) {
		return nil
	}
	metrics.CartOperationsTotal.WithLabelValues("remove").Inc()
	if err := s.backend.RemoveItem(ctx, sessionID, productID); err != nil {
		return err
	}
	s.reload(ctx, sessionID)
	return nil
}

// SetQuantity asks the server to set the exact quantity, then reloads.
// Quantity validity is the caller's concern; the UI clamps to >= 1.
func (s *CartService) SetQuantity(ctx context.Context, sessionID string, productID int64, quantity int) error {
	if !s.authenticated(ctx, sessionID) {
		return nil
	}
	metrics.CartOperationsTotal.WithLabelValues("update").Inc()
	if err := s.backend.UpdateItem(ctx, sessionID, productID, quantity); err != nil {
		return err
	}
	s.reload(ctx, sessionID)
	return nil
}

// Clear empties the server cart and resets items and selection locally.
// This is the one mutation that updates local state without a reload.
// Without a token the local reset still happens.
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	if s.authenticated(ctx, sessionID) {
		metrics.CartOperationsTotal.WithLabelValues("clear").Inc()
		if err := s.backend.ClearCart(ctx, sessionID); err != nil {
			return err
		}
	}
	s.reset(sessionID)
	return nil
}

// ToggleSelect flips a product in or out of the local selection.
func (s *CartService) ToggleSelect(sessionID string, productID int64) {
	s.withMirror(sessionID, func(m *mirror) {
		if _, ok := m.selection[productID]; ok {
			delete(m.selection, productID)
		} else {
			m.selection[productID] = struct{}{}
		}
	})
}

// SelectAll marks every mirrored item as selected.
func (s *CartService) SelectAll(sessionID string) {
	s.withMirror(sessionID, func(m *mirror) {
		for _, it := range m.items {
			m.selection[it.ProductID] = struct{}{}
		}
	})
}

// DeselectAll empties the local selection.
func (s *CartService) DeselectAll(sessionID string) {
	s.withMirror(sessionID, func(m *mirror) {
		m.selection = make(map[int64]struct{})
	})
}

// Checkout sends the selected lines to the order endpoint. Selected IDs
// that no longer have a mirrored line are skipped; an effectively empty
// selection fails with domain.ErrNothingSelected before any network call.
// Items and selection survive checkout; they are cleared only once the
// caller confirms payment via ClearAfterPayment.
func (s *CartService) Checkout(ctx context.Context, sessionID string, paymentMethod, address string) (*domain.Order, error) {
	if !s.authenticated(ctx, sessionID) {
		return nil, domain.ErrNotAuthenticated
	}

	selected := s.selectedItems(sessionID)
	if len(selected) == 0 {
		metrics.CheckoutTotal.WithLabelValues("nothing_selected").Inc()
		return nil, domain.ErrNothingSelected
	}

	input := ports.CheckoutInput{
		PaymentMethod: paymentMethod,
		Address:       address,
		Items:         make([]ports.SelectedItemInput, 0, len(selected)),
	}
	for _, it := range selected {
		input.Items = append(input.Items, ports.SelectedItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	order, err := s.backend.Checkout(ctx, sessionID, input)
	if err != nil {
		metrics.CheckoutTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	metrics.CheckoutTotal.WithLabelValues("created").Inc()
	return order, nil
}

// ClearAfterPayment empties the server cart and resets the mirror once
// payment has been confirmed. The payment is already settled at this point,
// so a failed server clear is logged rather than surfaced.
func (s *CartService) ClearAfterPayment(ctx context.Context, sessionID string) error {
	if s.authenticated(ctx, sessionID) {
		metrics.CartOperationsTotal.WithLabelValues("clear").Inc()
		if err := s.backend.ClearCart(ctx, sessionID); err != nil {
			s.log.Warn().Err(err).Msg("server cart clear after payment failed")
		}
	}
	s.reset(sessionID)
	return nil
}

// Forget drops the in-memory mirror for a session.
func (s *CartService) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mirrors, sessionID)
}

func (s *CartService) authenticated(ctx context.Context, sessionID string) bool {
	return s.store.Get(ctx, sessionID, domain.TokenKeyAccess) != ""
}

// reload refreshes the mirror after a successful mutation. Failures keep
// the stale mirror; the next read or mutation catches up.
func (s *CartService) reload(ctx context.Context, sessionID string) {
	cart, err := s.backend.FetchCart(ctx, sessionID)
	if err != nil {
		s.log.Warn().Err(err).Msg("cart reload failed, keeping stale mirror")
		return
	}
	s.withMirror(sessionID, func(m *mirror) {
		m.items = cart.Items
	})
}

func (s *CartService) reset(sessionID string) {
	s.withMirror(sessionID, func(m *mirror) {
		m.items = nil
		m.selection = make(map[int64]struct{})
	})
}

func (s *CartService) selectedItems(sessionID string) []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.mirrors[sessionID]
	if m == nil {
		return nil
	}
	var out []domain.CartItem
	for _, it := range m.items {
		if _, ok := m.selection[it.ProductID]; ok {
			out = append(out, it)
		}
	}
	return out
}

func (s *CartService) withMirror(sessionID string, fn func(*mirror)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.mirrors[sessionID]
	if m == nil {
		m = &mirror{selection: make(map[int64]struct{})}
		s.mirrors[sessionID] = m
	}
	fn(m)
}
