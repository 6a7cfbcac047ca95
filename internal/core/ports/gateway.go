package ports

import (
	"context"
	"io"
	"net/http"
)

// RequestOptions shapes one outbound call through the gateway. Header may
// be nil; the gateway never mutates it.
type RequestOptions struct {
	Method string
	Body   io.Reader
	Header http.Header
	// Multipart suppresses the default JSON content type for form uploads.
	Multipart bool
}

// Gateway performs one authenticated HTTP request against an upstream
// service on behalf of a session, transparently recovering from a single
// expired-credential failure. Network errors propagate unwrapped; any
// *http.Response returned is the caller's to close.
type Gateway interface {
	Do(ctx context.Context, sessionID, url string, opts RequestOptions) (*http.Response, error)
}
