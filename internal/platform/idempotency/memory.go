package idempotency

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	response  *StoredResponse
	expiresAt time.Time
}

// MemoryStore keeps reservations in process memory. Suitable for local
// development and tests; production uses the Firestore store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	clock   func() time.Time
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry), clock: time.Now}
}

func (s *MemoryStore) Reserve(_ context.Context, key string, ttl time.Duration) (Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	entry, ok := s.entries[key]
	if ok && now.Before(entry.expiresAt) {
		if entry.response != nil {
			return Reservation{Response: entry.response}, nil
		}
		return Reservation{}, ErrKeyInFlight
	}

	s.entries[key] = &memoryEntry{expiresAt: now.Add(ttl)}
	return Reservation{Fresh: true}, nil
}

func (s *MemoryStore) SaveResponse(_ context.Context, key string, resp StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[key]; ok {
		entry.response = &resp
	}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) CleanupExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}
