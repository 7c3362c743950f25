package artifact

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStore is an in-process Store for tests and examples. Data is
// copied on save and retrieval to avoid accidental external mutation of
// internal buffers.
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string][]byte
	saves     int
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore returns an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{artifacts: make(map[string][]byte)}
}

// Save stores (or overwrites) the artifact at path.
func (a *InMemoryStore) Save(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.artifacts[path] = append([]byte(nil), data...)
	a.saves++
	return nil
}

// Get returns a copy of the stored artifact or ErrNotFound.
func (a *InMemoryStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.artifacts[path]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// List returns the stored paths in sorted order.
func (a *InMemoryStore) List() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	paths := make([]string, 0, len(a.artifacts))
	for p := range a.artifacts {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Saves returns how many times Save succeeded.
func (a *InMemoryStore) Saves() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.saves
}

// Delete removes the artifact if present or returns ErrNotFound.
func (a *InMemoryStore) Delete(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.artifacts[path]; !ok {
		return ErrNotFound
	}
	delete(a.artifacts, path)
	return nil
}
