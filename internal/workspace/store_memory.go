package workspace

import (
	"context"
	"sync"
	"time"
)

// memoryStore keeps encoded snapshots so callers never share slices with the
// stored copy.
type memoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
	at    map[string]time.Time
	now   func() time.Time
}

func NewInMemoryStore() Store {
	return &memoryStore{
		items: map[string][]byte{},
		at:    map[string]time.Time{},
		now:   time.Now,
	}
}

func (m *memoryStore) Get(_ context.Context, id string) (Workspace, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.items[id]
	if !ok {
		return Workspace{}, ErrNotFound
	}
	return decode(b)
}

func (m *memoryStore) Update(_ context.Context, id string, fn func(*Workspace) error) (Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := Workspace{ID: id}
	if b, ok := m.items[id]; ok {
		var err error
		if w, err = decode(b); err != nil {
			return Workspace{}, err
		}
	}
	if err := fn(&w); err != nil {
		return Workspace{}, err
	}
	w.ID = id
	w.UpdatedAt = m.now()
	b, err := encode(w)
	if err != nil {
		return Workspace{}, err
	}
	m.items[id] = b
	m.at[id] = w.UpdatedAt
	return w, nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	delete(m.at, id)
	return nil
}

func (m *memoryStore) Sweep(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, at := range m.at {
		if at.Before(before) {
			delete(m.items, id)
			delete(m.at, id)
			n++
		}
	}
	return n, nil
}
