package storage

import (
	"context"
	"fmt"
	"sync"

	"ammcore/internal/model"
)

// MemoryStore is a process-local PoolStore and Journal for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	pools   map[string]model.Pool
	entries []model.JournalEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pools: make(map[string]model.Pool)}
}

func (m *MemoryStore) LoadPool(_ context.Context, key string) (model.Pool, bool, error) {
	m.mu.RLock()
	pool, ok := m.pools[key]
	m.mu.RUnlock()
	return pool, ok, nil
}

func (m *MemoryStore) SavePool(_ context.Context, pool model.Pool) error {
	m.mu.Lock()
	m.pools[pool.Key] = pool
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) CreatePool(_ context.Context, pool model.Pool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pools[pool.Key]; ok {
		return false, nil
	}
	m.pools[pool.Key] = pool
	return true, nil
}

func (m *MemoryStore) UpdatePool(_ context.Context, key string, fn UpdateFunc) (model.Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.pools[key]
	if !ok {
		return model.Pool{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	next, err := fn(current)
	if err != nil {
		return model.Pool{}, err
	}
	next.Key = key
	m.pools[key] = next
	return next, nil
}

func (m *MemoryStore) PutEntries(_ context.Context, entries []model.JournalEntry) error {
	m.mu.Lock()
	m.entries = append(m.entries, entries...)
	m.mu.Unlock()
	return nil
}

// Entries returns a copy of everything journaled so far.
func (m *MemoryStore) Entries() []model.JournalEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.JournalEntry, len(m.entries))
	copy(out, m.entries)
	return out
}
