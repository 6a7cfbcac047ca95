package session

import (
	"context"
	"sync"

	"github.com/panciteria/storefront-bff/internal/core/domain"
)

// MemoryStore is an in-process ports.SessionStore for tests and local
// development. Semantics match RedisStore minus durability.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID, key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[sessionID][key]
}

func (s *MemoryStore) Set(_ context.Context, sessionID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens[sessionID] == nil {
		s.tokens[sessionID] = make(map[string]string)
	}
	s.tokens[sessionID][key] = value
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens[sessionID], domain.TokenKeyAccess)
	delete(s.tokens[sessionID], domain.TokenKeyRefresh)
	return nil
}
