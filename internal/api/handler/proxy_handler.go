package handler

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/panciteria/storefront-bff/internal/core/ports"
)

// ProxyHandler forwards catalog and back-office requests to an upstream
// service through the authenticated gateway. These pages own no client
// state: each view fetches what it needs and discards it on navigation, so
// a thin pass-through is all the BFF adds: token handling, metrics, and a
// stable browser-facing origin.
type ProxyHandler struct {
	gateway ports.Gateway
	baseURL string
	prefix  string
}

// NewProxyHandler creates a ProxyHandler forwarding to baseURL. prefix is
// the browser-facing route prefix stripped before joining the upstream
// path (e.g. "/api/inventory").
func NewProxyHandler(gateway ports.Gateway, baseURL, prefix string) *ProxyHandler {
	return &ProxyHandler{gateway: gateway, baseURL: baseURL, prefix: prefix}
}

// Forward relays the request upstream and streams the response back,
// whatever its status. Only the Content-Type request header crosses the
// boundary; cookies and other browser headers stay on this side.
func (h *ProxyHandler) Forward(c echo.Context) error {
	sid := optionalSessionID(c)
	req := c.Request()

	target := h.baseURL + strings.TrimPrefix(req.URL.Path, h.prefix)
	if q := req.URL.RawQuery; q != "" {
		target += "?" + q
	}

	opts := ports.RequestOptions{Method: req.Method}
	if req.Body != nil && req.ContentLength != 0 {
		opts.Body = req.Body
		if ct := req.Header.Get("Content-Type"); ct != "" {
			opts.Header = map[string][]string{"Content-Type": {ct}}
			opts.Multipart = strings.HasPrefix(ct, "multipart/")
		}
	}

	resp, err := h.gateway.Do(req.Context(), sid, target, opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = echo.MIMEApplicationJSON
	}
	return c.Stream(resp.StatusCode, contentType, resp.Body)
}
