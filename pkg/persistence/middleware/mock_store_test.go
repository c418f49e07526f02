package middleware_test

import (
	"context"

	"github.com/aretw0/espalier/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]string
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]string),
	}
}

func (s *MockStore) Load(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out, nil
}

func (s *MockStore) Save(ctx context.Context, entries map[string]string) error {
	for k, v := range entries {
		s.data[k] = v
	}
	return nil
}

var _ ports.IntentStore = (*MockStore)(nil)
