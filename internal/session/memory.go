package session

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const janitorInterval = 5 * time.Minute

// MemoryStore is an in-process Store for single-instance deployments and
// tests. Expired entries are evicted by a background janitor.
type MemoryStore struct {
	mu sync.Mutex // serialises Take against Put/Get
	c  *gocache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: gocache.New(DefaultTTL, janitorInterval)}
}

func (s *MemoryStore) Put(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cp := append([]byte(nil), payload...)
	s.mu.Lock()
	s.c.Set(key, cp, ttl)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.c.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v.([]byte)...), nil
}

func (s *MemoryStore) Take(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.c.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	s.c.Delete(key)
	return v.([]byte), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	s.c.Delete(key)
	s.mu.Unlock()
	return nil
}
