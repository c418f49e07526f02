package memory

import (
	"context"
	"sync"
)

// Store implements ports.IntentStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]string
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]string),
	}
}

// Save upserts the entries in memory.
func (s *Store) Save(ctx context.Context, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for phrase, intent := range entries {
		s.data[phrase] = intent
	}
	return nil
}

// Load returns a copy of everything stored so callers cannot mutate the
// store's map directly.
func (s *Store) Load(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.data))
	for phrase, intent := range s.data {
		out[phrase] = intent
	}
	return out, nil
}
