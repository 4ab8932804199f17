package store

import (
	"context"
	"sync"

	"github.com/chrissnell/surfenergy/internal/types"
)

// MemoryStore keeps encoded states in a map. It is the default backend for
// single runs that do not need to resume.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string][]byte)}
}

// Load implements StateStore
func (m *MemoryStore) Load(_ context.Context, cellID string) (*types.ColumnState, error) {
	m.mu.RLock()
	b, ok := m.states[cellID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(b)
}

// Save implements StateStore
func (m *MemoryStore) Save(_ context.Context, cellID string, s *types.ColumnState) error {
	b, err := encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.states[cellID] = b
	m.mu.Unlock()
	return nil
}

// Close implements StateStore
func (m *MemoryStore) Close() error {
	return nil
}
