package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries in process. It is the default backend for
// watch mode and the language server.
type MemoryStore struct {
	entries map[string]*Entry
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
	}
}

// Get retrieves an entry by key
func (ms *MemoryStore) Get(_ context.Context, key string) (*Entry, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	entry, exists := ms.entries[key]
	return entry, exists, nil
}

// Set stores an entry, stamping CreatedAt when it is zero
func (ms *MemoryStore) Set(_ context.Context, key string, entry *Entry) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	stored := *entry
	stored.Key = key
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	ms.entries[key] = &stored
	return nil
}

// Delete removes an entry
func (ms *MemoryStore) Delete(_ context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.entries, key)
	return nil
}

// Clear removes every entry
func (ms *MemoryStore) Clear(context.Context) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.entries = make(map[string]*Entry)
	return nil
}

// Close is a no-op
func (ms *MemoryStore) Close() error { return nil }

// Size returns the number of cached entries
func (ms *MemoryStore) Size() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	return len(ms.entries)
}

// Keys returns the cached keys in no particular order
func (ms *MemoryStore) Keys() []string {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	keys := make([]string, 0, len(ms.entries))
	for k := range ms.entries {
		keys = append(keys, k)
	}
	return keys
}

// Prune removes entries older than maxAge and returns how many were removed
func (ms *MemoryStore) Prune(maxAge time.Duration) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	pruned := 0

	for key, entry := range ms.entries {
		if now.Sub(entry.CreatedAt) > maxAge {
			delete(ms.entries, key)
			pruned++
		}
	}

	return pruned
}
