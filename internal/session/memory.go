package session

import (
	"context"
	"time"

	"expenseweb/internal/cache"
)

// MemoryStore keeps encoded sessions in a bounded LRU. Each Get decodes a
// private copy, so concurrent requests never share a *Session.
type MemoryStore struct {
	cache *cache.LRUCache[[]byte]
}

func NewMemoryStore(maxSessions int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.NewLRUCache[[]byte](maxSessions, ttl)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	data, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return decode(data)
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	m.cache.Set(s.ID, data)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}

// CleanExpired lets a cache.Manager purge idle sessions.
func (m *MemoryStore) CleanExpired() int {
	return m.cache.CleanExpired()
}

// Size returns the number of live sessions.
func (m *MemoryStore) Size() int {
	return m.cache.Size()
}
