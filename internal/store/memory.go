package store

import (
	"context"
	"sync"
)

// MemoryPersistence is a Persistence kept entirely in memory. It backs the
// one-shot CLI commands that have no configured database and the package
// tests that need to observe save behavior.
type MemoryPersistence struct {
	mu    sync.Mutex
	blobs map[string][]byte
	saves int
}

// NewMemory creates an empty in-memory persistence.
func NewMemory() *MemoryPersistence {
	return &MemoryPersistence{blobs: make(map[string][]byte)}
}

func (m *MemoryPersistence) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.blobs[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return cp, true, nil
}

func (m *MemoryPersistence) Save(_ context.Context, key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(blob))
	copy(cp, blob)
	m.blobs[key] = cp
	m.saves++
	return nil
}

func (m *MemoryPersistence) Close() error { return nil }

// Saves returns how many times Save has been called.
func (m *MemoryPersistence) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
