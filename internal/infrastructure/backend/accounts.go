package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/panciteria/storefront-bff/internal/core/domain"
	"github.com/panciteria/storefront-bff/internal/core/ports"
)

// AccountsClient implements ports.AccountsClient against the accounts
// service. Login and signup run before any session exists, so they bypass
// the gateway and talk to the service directly.
type AccountsClient struct {
	httpClient *http.Client
	baseURL    string
	log        zerolog.Logger
}

func NewAccountsClient(httpClient *http.Client, baseURL string, log zerolog.Logger) *AccountsClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &AccountsClient{httpClient: httpClient, baseURL: baseURL, log: log}
}

// Login exchanges credentials for a token pair via POST /token/.
func (c *AccountsClient) Login(ctx context.Context, username, password string) (domain.TokenPair, error) {
	payload, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})

	resp, err := c.post(ctx, c.baseURL+"/token/", payload)
	if err != nil {
		return domain.TokenPair{}, err
	}
	defer resp.Body.Close()

	if !is2xx(resp) {
		return domain.TokenPair{}, upstreamError(resp)
	}

	var pair domain.TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return domain.TokenPair{}, fmt.Errorf("decode token pair: %w", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		return domain.TokenPair{}, fmt.Errorf("token response missing credentials")
	}
	return pair, nil
}

// Signup registers a new customer via POST /users/.
func (c *AccountsClient) Signup(ctx context.Context, input ports.SignupInput) error {
	payload, _ := json.Marshal(map[string]string{
		"username": input.Username,
		"email":    input.Email,
		"password": input.Password,
	})

	resp, err := c.post(ctx, c.baseURL+"/users/", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !is2xx(resp) {
		return upstreamError(resp)
	}
	return nil
}

func (c *AccountsClient) post(ctx context.Context, url string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}
