package domain

// Token keys used by the session store. A session holds at most one value
// per key; absence of the access token means "unauthenticated" everywhere.
const (
	TokenKeyAccess  = "access"
	TokenKeyRefresh = "refresh"
)

// TokenPair is the credential pair issued by the accounts service on login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Identity is the display-only identity decoded from the upstream access
// token. It is never used for enforcement; the upstream services authorize
// every call themselves.
type Identity struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

// Roles known to the accounts service.
const (
	RoleAdmin    = "admin"
	RoleReseller = "reseller"
	RoleCustomer = "user"
)
