package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupTTL = 10 * time.Minute

// CheckoutGuard provides idempotency checks for checkout submissions,
// backed by Redis. A double-clicked submit button or a retried request with
// the same Idempotency-Key must not create two orders.
// Key format: checkout:<session_id>:<idempotency_key>
type CheckoutGuard struct {
	client *redis.Client
}

// NewCheckoutGuard creates a CheckoutGuard wrapping the given Redis client.
func NewCheckoutGuard(client *redis.Client) *CheckoutGuard {
	return &CheckoutGuard{client: client}
}

// IsDuplicate reports whether this submission key has already been seen.
func (g *CheckoutGuard) IsDuplicate(ctx context.Context, sessionID, key string) (bool, error) {
	n, err := g.client.Exists(ctx, g.key(sessionID, key)).Result()
	if err != nil {
		return false, fmt.Errorf("checkout dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this submission has been accepted (expires after dedupTTL).
func (g *CheckoutGuard) Mark(ctx context.Context, sessionID, key string) error {
	return g.client.Set(ctx, g.key(sessionID, key), "1", dedupTTL).Err()
}

func (g *CheckoutGuard) key(sessionID, key string) string {
	return fmt.Sprintf("checkout:%s:%s", sessionID, key)
}
