package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/panciteria/storefront-bff/internal/core/domain"
	"github.com/panciteria/storefront-bff/internal/core/ports"
)

// InventoryClient implements ports.CartBackend and ports.PaymentBackend
// against the inventory service, routing every call through the
// authenticated gateway.
type InventoryClient struct {
	gateway ports.Gateway
	baseURL string
	origin  string
	log     zerolog.Logger
}

// NewInventoryClient creates an InventoryClient. The service origin
// (scheme://host) is derived from baseURL and used to absolutize relative
// product image paths.
func NewInventoryClient(gateway ports.Gateway, baseURL string, log zerolog.Logger) (*InventoryClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse inventory base url: %w", err)
	}
	return &InventoryClient{
		gateway: gateway,
		baseURL: baseURL,
		origin:  u.Scheme + "://" + u.Host,
		log:     log,
	}, nil
}

// flexFloat tolerates the two number encodings the inventory service has
// used for prices: a JSON number and a decimal-in-string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type cartProductPayload struct {
	ID    int64     `json:"id"`
	Name  string    `json:"name"`
	Price flexFloat `json:"price"`
	Image string    `json:"image"`
}

type cartItemPayload struct {
	Product  cartProductPayload `json:"product"`
	Quantity int                `json:"quantity"`
}

type cartPayload struct {
	Items []cartItemPayload `json:"items"`
}

// FetchCart reads the server cart via GET /cart/. Items come back ordered
// by product ID; relative image paths are resolved against the service
// origin.
func (c *InventoryClient) FetchCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	resp, err := c.gateway.Do(ctx, sessionID, c.baseURL+"/cart/", ports.RequestOptions{Method: http.MethodGet})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !is2xx(resp) {
		return nil, upstreamError(resp)
	}

	var payload cartPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}

	cart := &domain.Cart{Items: make([]domain.CartItem, 0, len(payload.Items))}
	for _, ci := range payload.Items {
		if ci.Product.ID == 0 {
			continue
		}
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID: ci.Product.ID,
			Name:      ci.Product.Name,
			UnitPrice: float64(ci.Product.Price),
			Quantity:  ci.Quantity,
			ImageURL:  c.resolveImage(ci.Product.Image),
		})
	}
	sort.Slice(cart.Items, func(i, j int) bool {
		return cart.Items[i].ProductID < cart.Items[j].ProductID
	})
	return cart, nil
}

// AddItem adds one unit of a product via POST /cart/add/.
func (c *InventoryClient) AddItem(ctx context.Context, sessionID string, productID int64, quantity int) error {
	return c.postJSON(ctx, sessionID, "/cart/add/", map[string]any{
		"product_id": productID,
		"quantity":   quantity,
	})
}

// RemoveItem removes a product line entirely via POST /cart/remove/.
func (c *InventoryClient) RemoveItem(ctx context.Context, sessionID string, productID int64) error {
	return c.postJSON(ctx, sessionID, "/cart/remove/", map[string]any{
		"product_id": productID,
	})
}

// UpdateItem sets the exact quantity of a line via POST /cart/update/.
func (c *InventoryClient) UpdateItem(ctx context.Context, sessionID string, productID int64, quantity int) error {
	return c.postJSON(ctx, sessionID, "/cart/update/", map[string]any{
		"product_id": productID,
		"quantity":   quantity,
	})
}

// ClearCart empties the server cart via POST /cart/clear/.
func (c *InventoryClient) ClearCart(ctx context.Context, sessionID string) error {
	return c.postJSON(ctx, sessionID, "/cart/clear/", nil)
}

// Checkout creates an order from the selected lines via POST /orders/checkout/.
func (c *InventoryClient) Checkout(ctx context.Context, sessionID string, input ports.CheckoutInput) (*domain.Order, error) {
	selected := make([]map[string]any, 0, len(input.Items))
	for _, it := range input.Items {
		selected = append(selected, map[string]any{
			"product_id": it.ProductID,
			"quantity":   it.Quantity,
		})
	}
	body, _ := json.Marshal(map[string]any{
		"payment_method": input.PaymentMethod,
		"address":        input.Address,
		"selected_items": selected,
	})

	resp, err := c.gateway.Do(ctx, sessionID, c.baseURL+"/orders/checkout/", ports.RequestOptions{
		Method: http.MethodPost,
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !is2xx(resp) {
		return nil, upstreamError(resp)
	}
	return decodeOrder(resp)
}

// CreateGCashCheckout opens a hosted checkout session via
// POST /orders/create-gcash-checkout/.
func (c *InventoryClient) CreateGCashCheckout(ctx context.Context, sessionID string, input ports.GCashCheckoutInput) (*domain.CheckoutSession, error) {
	selected := make([]map[string]any, 0, len(input.Items))
	for _, it := range input.Items {
		selected = append(selected, map[string]any{
			"product_id": it.ProductID,
			"quantity":   it.Quantity,
		})
	}
	body, _ := json.Marshal(map[string]any{
		"address":        input.Address,
		"selected_items": selected,
	})

	resp, err := c.gateway.Do(ctx, sessionID, c.baseURL+"/orders/create-gcash-checkout/", ports.RequestOptions{
		Method: http.MethodPost,
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !is2xx(resp) {
		return nil, upstreamError(resp)
	}

	raw, err := readAll(resp)
	if err != nil {
		return nil, err
	}
	var session domain.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	if session.CheckoutURL == "" {
		return nil, fmt.Errorf("checkout session missing checkout_url")
	}
	session.Raw = raw
	return &session, nil
}

// VerifyPayment polls the provider-side payment state via
// POST /orders/{id}/verify-payment/.
func (c *InventoryClient) VerifyPayment(ctx context.Context, sessionID string, orderID int64) (*domain.PaymentStatus, error) {
	url := fmt.Sprintf("%s/orders/%d/verify-payment/", c.baseURL, orderID)
	resp, err := c.gateway.Do(ctx, sessionID, url, ports.RequestOptions{Method: http.MethodPost})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !is2xx(resp) {
		return nil, upstreamError(resp)
	}

	raw, err := readAll(resp)
	if err != nil {
		return nil, err
	}
	status := domain.PaymentStatus{OrderID: orderID, Raw: raw}
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("decode payment status: %w", err)
	}
	return &status, nil
}

// ConfirmPayment is the manual fallback for when the provider webhook has
// not landed: POST /orders/{id}/confirm-payment/.
func (c *InventoryClient) ConfirmPayment(ctx context.Context, sessionID string, orderID int64, input ports.ConfirmPaymentInput) error {
	payload := map[string]any{"payment_status": input.PaymentStatus}
	if input.Reference != "" {
		payload["reference"] = input.Reference
	}
	return c.postJSON(ctx, sessionID, fmt.Sprintf("/orders/%d/confirm-payment/", orderID), payload)
}

func (c *InventoryClient) postJSON(ctx context.Context, sessionID, path string, payload map[string]any) error {
	opts := ports.RequestOptions{Method: http.MethodPost}
	if payload != nil {
		data, _ := json.Marshal(payload)
		opts.Body = bytes.NewReader(data)
	}

	resp, err := c.gateway.Do(ctx, sessionID, c.baseURL+path, opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !is2xx(resp) {
		return upstreamError(resp)
	}
	return nil
}

func (c *InventoryClient) resolveImage(raw string) string {
	if raw == "" || strings.HasPrefix(raw, "http") {
		return raw
	}
	return c.origin + raw
}

func decodeOrder(resp *http.Response) (*domain.Order, error) {
	raw, err := readAll(resp)
	if err != nil {
		return nil, err
	}
	var order domain.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	if order.ID == 0 {
		return nil, fmt.Errorf("order response missing id")
	}
	order.Raw = raw
	return &order, nil
}
