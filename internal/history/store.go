package history

import (
	"errors"
	"sync"
)

var (
	ErrEntryNotFound = errors.New("entry not found")
	ErrStorageInit   = errors.New("history storage initialization failed")
)

// Store persists the response history. Entries keep strict insertion order.
type Store interface {
	Init() error
	Append(e *Entry) error
	Update(e *Entry) error
	Remove(id string) error
	Get(id string) (*Entry, error)
	List() ([]*Entry, error)
	Clear() error
	Close() error
}

type MemoryStore struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
	}
}

func (m *MemoryStore) Init() error  { return nil }
func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Append(e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[e.ID]; !exists {
		m.order = append(m.order, e.ID)
	}
	m.entries[e.ID] = e
	return nil
}

func (m *MemoryStore) Update(e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[e.ID]; !exists {
		return ErrEntryNotFound
	}
	m.entries[e.ID] = e
	return nil
}

func (m *MemoryStore) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[id]; !exists {
		return ErrEntryNotFound
	}
	delete(m.entries, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) Get(id string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, exists := m.entries[id]
	if !exists {
		return nil, ErrEntryNotFound
	}
	return e, nil
}

func (m *MemoryStore) List() ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Entry, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.entries[id])
	}
	return out, nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.order = nil
	m.entries = make(map[string]*Entry)
	return nil
}
