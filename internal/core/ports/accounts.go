package ports

import (
	"context"

	"github.com/panciteria/storefront-bff/internal/core/domain"
)

// SignupInput is the registration payload forwarded to the accounts service.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// AccountsClient covers the unauthenticated slice of the accounts service:
// credential exchange and registration. Authenticated user administration
// goes through the gateway proxy instead.
type AccountsClient interface {
	// Login exchanges credentials for a token pair.
	Login(ctx context.Context, username, password string) (domain.TokenPair, error)
	// Signup registers a new customer account.
	Signup(ctx context.Context, input SignupInput) error
}
