package kv

import (
	"context"
	"sync"
)

// MemoryStore is a process-local [CASStore].
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) CompareAndSwap(_ context.Context, key, prev string, prevOK bool, next string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.data[key]
	if ok != prevOK || (ok && cur != prev) {
		return false, nil
	}
	m.data[key] = next
	return true, nil
}
