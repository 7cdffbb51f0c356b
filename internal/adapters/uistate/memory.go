package uistate

import (
	"context"
	"sync"

	"sunrise/internal/domain/forum"
)

// MemoryStore keeps states in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]forum.State
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]forum.State)}
}

// Load returns the zero State for unknown keys.
func (m *MemoryStore) Load(_ context.Context, key string) (forum.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[key], nil
}

// Apply reduces under the store lock so concurrent requests for one viewer serialise.
func (m *MemoryStore) Apply(_ context.Context, key string, actions ...forum.Action) (forum.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := forum.Reduce(m.states[key], actions...)
	m.states[key] = s
	return s, nil
}

// Delete forgets a viewer.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, key)
	return nil
}
