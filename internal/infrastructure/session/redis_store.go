// Package session provides the durable token store behind the
// ports.SessionStore seam: one Redis-backed implementation for production
// and one in-memory implementation for tests. Keeping every token read and
// write behind this seam is what lets the rest of the code stay ignorant of
// where credentials actually live.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/panciteria/storefront-bff/internal/core/domain"
)

// RedisStore keeps session tokens in Redis under
// session:<session_id>:<token_key>, expiring with the session TTL so
// abandoned sessions clean themselves up.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedisStore creates a RedisStore. Tokens expire after ttl; a
// non-positive ttl keeps them until explicitly cleared.
func NewRedisStore(client *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, log: log}
}

// Get returns the token under key, or "" when absent. Storage errors also
// read as absent: an unreachable store means "unauthenticated", which every
// caller already handles, and the error is logged here instead.
func (s *RedisStore) Get(ctx context.Context, sessionID, key string) string {
	val, err := s.client.Get(ctx, s.key(sessionID, key)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Error().Err(err).Str("key", key).Msg("session store read failed")
		}
		return ""
	}
	return val
}

// Set overwrites the token under key for the session.
func (s *RedisStore) Set(ctx context.Context, sessionID, key, value string) error {
	if err := s.client.Set(ctx, s.key(sessionID, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("session store write: %w", err)
	}
	return nil
}

// Clear removes both tokens for the session.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	err := s.client.Del(ctx,
		s.key(sessionID, domain.TokenKeyAccess),
		s.key(sessionID, domain.TokenKeyRefresh),
	).Err()
	if err != nil {
		return fmt.Errorf("session store clear: %w", err)
	}
	return nil
}

func (s *RedisStore) key(sessionID, key string) string {
	return fmt.Sprintf("session:%s:%s", sessionID, key)
}
