package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/panciteria/storefront-bff/internal/core/domain"
	"github.com/panciteria/storefront-bff/internal/core/ports"
	"github.com/panciteria/storefront-bff/internal/infrastructure/session"
)

const testSID = "sid-1"

var nopLogger = zerolog.Nop()

// scriptedUpstream replies with the scripted status codes in order, then
// repeats the last one. It records every request it sees.
type scriptedUpstream struct {
	statuses []int
	calls    atomic.Int64
	lastAuth atomic.Value // string
	lastCT   atomic.Value // string
}

func (u *scriptedUpstream) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := u.calls.Add(1)
		u.lastAuth.Store(r.Header.Get("Authorization"))
		u.lastCT.Store(r.Header.Get("Content-Type"))

		idx := int(n) - 1
		if idx >= len(u.statuses) {
			idx = len(u.statuses) - 1
		}
		w.WriteHeader(u.statuses[idx])
		_, _ = w.Write([]byte(`{"ok":true}`))
	}
}

// refreshEndpoint serves the token refresh route. status controls the
// response code; token is the access token embedded in the body.
type refreshEndpoint struct {
	status int
	token  string
	field  string
	calls  atomic.Int64
}

func (e *refreshEndpoint) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e.calls.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("refresh called with method %s", r.Method)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("refresh body not JSON: %v", err)
		}
		if body["refresh"] == "" {
			t.Errorf("refresh body missing refresh token")
		}

		w.WriteHeader(e.status)
		if e.token != "" {
			field := e.field
			if field == "" {
				field = "access"
			}
			_ = json.NewEncoder(w).Encode(map[string]string{field: e.token})
		}
	}
}

func newTestGateway(t *testing.T, refresh http.HandlerFunc) (*Gateway, *session.MemoryStore) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token/refresh/", refresh)
	accounts := httptest.NewServer(mux)
	t.Cleanup(accounts.Close)

	store := session.NewMemoryStore()
	return NewGateway(accounts.Client(), store, accounts.URL, nopLogger), store
}

func seedTokens(t *testing.T, store *session.MemoryStore, access, refresh string) {
	t.Helper()
	ctx := context.Background()
	if access != "" {
		if err := store.Set(ctx, testSID, domain.TokenKeyAccess, access); err != nil {
			t.Fatalf("seed access: %v", err)
		}
	}
	if refresh != "" {
		if err := store.Set(ctx, testSID, domain.TokenKeyRefresh, refresh); err != nil {
			t.Fatalf("seed refresh: %v", err)
		}
	}
}

func TestGateway_InjectsBearerAndContentType(t *testing.T) {
	upstream := &scriptedUpstream{statuses: []int{http.StatusOK}}
	srv := httptest.NewServer(upstream.handler())
	defer srv.Close()

	gw, store := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("refresh must not be called")
	})
	seedTokens(t, store, "A1", "R1")

	resp, err := gw.Do(context.Background(), testSID, srv.URL, ports.RequestOptions{
		Method: http.MethodPost,
		Body:   strings.NewReader(`{"x":1}`),
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	if got := upstream.lastAuth.Load(); got != "Bearer A1" {
		t.Fatalf("expected Bearer A1, got %q", got)
	}
	if got := upstream.lastCT.Load(); got != "application/json" {
		t.Fatalf("expected JSON content type, got %q", got)
	}
}

func TestGateway_CallerAuthorizationWins(t *testing.T) {
	upstream := &scriptedUpstream{statuses: []int{http.StatusOK}}
	srv := httptest.NewServer(upstream.handler())
	defer srv.Close()

	gw, store := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("refresh must not be called")
	})
	seedTokens(t, store, "A1", "R1")

	header := http.Header{}
	header.Set("Authorization", "Bearer caller-token")
	resp, err := gw.Do(context.Background(), testSID, srv.URL, ports.RequestOptions{
		Method: http.MethodGet,
		Header: header,
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	if got := upstream.lastAuth.Load(); got != "Bearer caller-token" {
		t.Fatalf("caller Authorization overridden: got %q", got)
	}
}

func TestGateway_RefreshSuccessSwapsTokenAndRetries(t *testing.T) {
	upstream := &scriptedUpstream{statuses: []int{http.StatusUnauthorized, http.StatusOK}}
	srv := httptest.NewServer(upstream.handler())
	defer srv.Close()

	refresh := &refreshEndpoint{status: http.StatusOK, token: "T2"}
	gw, store := newTestGateway(t, refresh.handler(t))
	seedTokens(t, store, "T1", "R1")

	resp, err := gw.Do(context.Background(), testSID, srv.URL, ports.RequestOptions{Method: http.MethodGet})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected final 200, got %d", resp.StatusCode)
	}
	if got := upstream.calls.Load(); got != 2 {
		t.Fatalf("expected 2 upstream requests, got %d", got)
	}
	if got := store.Get(context.Background(), testSID, domain.TokenKeyAccess); got != "T2" {
		t.Fatalf("expected stored access token T2, got %q", got)
	}
	if got := upstream.lastAuth.Load(); got != "Bearer T2" {
		t.Fatalf("retry did not carry the fresh token: %q", got)
	}
}

func TestGateway_SingleRetryOnly(t *testing.T) {
	upstream := &scriptedUpstream{statuses: []int{http.StatusUnauthorized, http.StatusUnauthorized}}
	srv := httptest.NewServer(upstream.handler())
	defer srv.Close()

	refresh := &refreshEndpoint{status: http.StatusOK, token: "T2"}
	gw, store := newTestGateway(t, refresh.handler(t))
	seedTokens(t, store, "T1", "R1")

	resp, err := gw.Do(context.Background(), testSID, srv.URL, ports.RequestOptions{Method: http.MethodGet})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 back, got %d", resp.StatusCode)
	}
	if got := upstream.calls.Load(); got != 2 {
		t.Fatalf("expected exactly 2 upstream requests, got %d", got)
	}
	if got := refresh.calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 refresh call, got %d", got)
	}
}

func TestGateway_RefreshFailureClearsSession(t *testing.T) {
	upstream := &scriptedUpstream{statuses: []int{http.StatusUnauthorized}}
	srv := httptest.NewServer(upstream.handler())
	defer srv.Close()

	refresh := &refreshEndpoint{status: http.StatusForbidden}
	gw, store := newTestGateway(t, refresh.handler(t))
	seedTokens(t, store, "T1", "R1")

	resp, err := gw.Do(context.Background(), testSID, srv.URL, ports.RequestOptions{Method: http.MethodGet})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected original 401, got %d", resp.StatusCode)
	}
	if got := upstream.calls.Load(); got != 1 {
		t.Fatalf("expected a single upstream request, got %d", got)
	}
	ctx := context.Background()
	if got := store.Get(ctx, testSID, domain.TokenKeyAccess); got != "" {
		t.Fatalf("access token not cleared: %q", got)
	}
	if got := store.Get(ctx, testSID, domain.TokenKeyRefresh); got != "" {
		t.Fatalf("refresh token not cleared: %q", got)
	}
}

func TestGateway_MissingRefreshTokenShortCircuits(t *testing.T) {
	upstream := &scriptedUpstream{statuses: []int{http.StatusUnauthorized}}
	srv := httptest.NewServer(upstream.handler())
	defer srv.Close()

	refresh := &refreshEndpoint{status: http.StatusOK, token: "T2"}
	gw, store := newTestGateway(t, refresh.handler(t))
	seedTokens(t, store, "T1", "") // no refresh token

	resp, err := gw.Do(context.Background(), testSID, srv.URL, ports.RequestOptions{Method: http.MethodGet})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if got := refresh.calls.Load(); got != 0 {
		t.Fatalf("refresh endpoint must not be contacted, got %d calls", got)
	}
}

func TestGateway_RefreshAcceptsLegacyFieldName(t *testing.T) {
	upstream := &scriptedUpstream{statuses: []int{http.StatusUnauthorized, http.StatusOK}}
	srv := httptest.NewServer(upstream.handler())
	defer srv.Close()

	refresh := &refreshEndpoint{status: http.StatusOK, token: "T3", field: "access_token"}
	gw, store := newTestGateway(t, refresh.handler(t))
	seedTokens(t, store, "T1", "R1")

	resp, err := gw.Do(context.Background(), testSID, srv.URL, ports.RequestOptions{Method: http.MethodGet})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := store.Get(context.Background(), testSID, domain.TokenKeyAccess); got != "T3" {
		t.Fatalf("expected stored access token T3, got %q", got)
	}
}

func TestGateway_RetryReplaysBody(t *testing.T) {
	seen := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		seen <- string(raw)
		if len(seen) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	refresh := &refreshEndpoint{status: http.StatusOK, token: "T2"}
	gw, store := newTestGateway(t, refresh.handler(t))
	seedTokens(t, store, "T1", "R1")

	resp, err := gw.Do(context.Background(), testSID, srv.URL, ports.RequestOptions{
		Method: http.MethodPost,
		Body:   strings.NewReader(`{"product_id":7}`),
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	first, second := <-seen, <-seen
	if first != `{"product_id":7}` || second != first {
		t.Fatalf("retry body mismatch: first=%q second=%q", first, second)
	}
}
