package storage

import "sync"

// Memory is an in-process backend used by tests and ephemeral sessions.
type Memory struct {
	mu    sync.Mutex
	items map[string]string
}

// NewMemory constructs an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{items: map[string]string{}}
}

// GetItem reads one value.
func (m *Memory) GetItem(name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.items[name]
	return value, ok, nil
}

// SetItem writes one value.
func (m *Memory) SetItem(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[name] = value
	return nil
}

// RemoveItem deletes one value.
func (m *Memory) RemoveItem(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, name)
	return nil
}
