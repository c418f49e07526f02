package ports_test

import (
	"context"
	"testing"

	"github.com/aretw0/espalier/pkg/ports"
)

// MockStore is an in-memory implementation of IntentStore for testing purposes.
type MockStore struct {
	data map[string]string
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]string)}
}

func (m *MockStore) Load(ctx context.Context) (map[string]string, error) {
	// Copy to simulate deserialization from a backend.
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out, nil
}

func (m *MockStore) Save(ctx context.Context, entries map[string]string) error {
	for k, v := range entries {
		m.data[k] = v
	}
	return nil
}

func TestIntentStore_Contract(t *testing.T) {
	// This verifies that the MockStore complies with the IntentStore contract,
	// and documents the suite real adapters are expected to pass.
	ports.RunIntentStoreContract(t, NewMockStore())
}
