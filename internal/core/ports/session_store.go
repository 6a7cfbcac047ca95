package ports

import "context"

// SessionStore is the durable holder for the two bearer tokens of a browser
// session. Get never fails from the caller's point of view: any storage
// error reads as "absent", which every consumer already treats as
// "unauthenticated". Last write wins; writes are rare and user-initiated
// (login, refresh, logout), so no further coordination is needed.
type SessionStore interface {
	// Get returns the token stored under key for the session, or "" when
	// absent.
	Get(ctx context.Context, sessionID, key string) string
	// Set overwrites the token stored under key for the session.
	Set(ctx context.Context, sessionID, key, value string) error
	// Clear removes both tokens for the session.
	Clear(ctx context.Context, sessionID string) error
}
