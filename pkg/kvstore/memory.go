package kvstore

import (
	"context"
	"sync"
)

// MemoryStore implements Store using an in-process map. It is the default
// store and the one tests use in place of real browser or server storage.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Get returns the value stored under key, or ErrKeyNotFound.
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	m.mu.RLock()
	value, exists := m.values[key]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrKeyNotFound
	}

	// Copy so callers cannot mutate the stored value.
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores value under key, overwriting any previous value.
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.values[key] = stored
	m.mu.Unlock()
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
