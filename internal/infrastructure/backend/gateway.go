// Package backend contains the HTTP clients for the two upstream REST
// services: the authenticated request gateway plus thin typed clients for
// the accounts and inventory surfaces built on top of it.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/panciteria/storefront-bff/internal/api/metrics"
	"github.com/panciteria/storefront-bff/internal/core/domain"
	"github.com/panciteria/storefront-bff/internal/core/ports"
)

// attempt distinguishes the first issue of a request from its single
// post-refresh retry. It is gateway-local state, never threaded through
// caller-supplied options, so concurrent calls cannot share it by accident.
type attempt int

const (
	firstAttempt attempt = iota
	retryAttempt
)

// Gateway implements ports.Gateway: it attaches the session's access token
// to outbound requests and, on a single 401, refreshes the token and
// retries exactly once. There is no request coalescing: concurrent calls
// hitting 401 together each run their own refresh, which the accounts
// service tolerates.
type Gateway struct {
	httpClient *http.Client
	store      ports.SessionStore
	refreshURL string
	log        zerolog.Logger
}

// NewGateway creates a Gateway. accountsBaseURL is the accounts service
// root (no trailing slash); the refresh endpoint is derived from it.
// httpClient may be nil, in which case http.DefaultClient is used and
// requests wait on the platform default with no extra timeout.
func NewGateway(httpClient *http.Client, store ports.SessionStore, accountsBaseURL string, log zerolog.Logger) *Gateway {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Gateway{
		httpClient: httpClient,
		store:      store,
		refreshURL: accountsBaseURL + "/token/refresh/",
		log:        log,
	}
}

// Do performs one authenticated request. Network errors propagate to the
// caller untranslated; any returned response is the caller's to close.
func (g *Gateway) Do(ctx context.Context, sessionID, url string, opts ports.RequestOptions) (*http.Response, error) {
	start := time.Now()

	// Buffer the body once so the single retry can replay it.
	var body []byte
	if opts.Body != nil {
		var err error
		body, err = io.ReadAll(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
	}

	resp, err := g.do(ctx, sessionID, url, opts, body, firstAttempt, "")
	if err != nil {
		return nil, err
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(method(opts), strconv.Itoa(resp.StatusCode)).Inc()
	metrics.UpstreamRequestDuration.Observe(time.Since(start).Seconds())
	return resp, nil
}

func (g *Gateway) do(ctx context.Context, sessionID, url string, opts ports.RequestOptions, body []byte, att attempt, freshToken string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method(opts), url, reader)
	if err != nil {
		return nil, err
	}
	for k, vals := range opts.Header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	// On the retry the refreshed token overrides whatever the caller set;
	// on the first attempt an explicit Authorization header wins.
	if freshToken != "" {
		req.Header.Set("Authorization", "Bearer "+freshToken)
	} else if req.Header.Get("Authorization") == "" {
		if access := g.store.Get(ctx, sessionID, domain.TokenKeyAccess); access != "" {
			req.Header.Set("Authorization", "Bearer "+access)
		}
	}

	if body != nil && !opts.Multipart && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || att == retryAttempt {
		return resp, nil
	}

	// Expired credential: try exactly one refresh-and-retry.
	token := g.refresh(ctx, sessionID)
	if token == "" {
		// Irrecoverable: drop the session, hand back the original 401.
		if cerr := g.store.Clear(ctx, sessionID); cerr != nil {
			g.log.Error().Err(cerr).Msg("clearing session after failed refresh")
		}
		return resp, nil
	}

	if serr := g.store.Set(ctx, sessionID, domain.TokenKeyAccess, token); serr != nil {
		g.log.Error().Err(serr).Msg("storing refreshed access token")
	}
	resp.Body.Close()
	return g.do(ctx, sessionID, url, opts, body, retryAttempt, token)
}

// refreshResponse accepts both field names the accounts service has used
// for the new access token.
type refreshResponse struct {
	Access      string `json:"access"`
	AccessToken string `json:"access_token"`
}

// refresh exchanges the session's refresh token for a new access token.
// It returns "" on any failure: missing refresh token (no network call),
// network error, non-2xx status, or a body without a token.
func (g *Gateway) refresh(ctx context.Context, sessionID string) string {
	refreshToken := g.store.Get(ctx, sessionID, domain.TokenKeyRefresh)
	if refreshToken == "" {
		metrics.TokenRefreshTotal.WithLabelValues("no_refresh_token").Inc()
		return ""
	}

	payload, _ := json.Marshal(map[string]string{"refresh": refreshToken})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.refreshURL, bytes.NewReader(payload))
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		return ""
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.log.Warn().Err(err).Msg("token refresh request failed")
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.log.Warn().Int("status", resp.StatusCode).Msg("token refresh rejected")
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		return ""
	}

	var parsed refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		return ""
	}

	token := parsed.Access
	if token == "" {
		token = parsed.AccessToken
	}
	if token == "" {
		g.log.Warn().Msg("token refresh response missing access token")
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		return ""
	}

	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	return token
}

func method(opts ports.RequestOptions) string {
	if opts.Method == "" {
		return http.MethodGet
	}
	return opts.Method
}
