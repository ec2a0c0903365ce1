package banlist

import (
	"context"
	"slices"
	"sync"
)

// MemoryBackend keeps lists in process memory. Used by tests and by rooms without persistence.
type MemoryBackend struct {
	mu    sync.Mutex
	lists map[List][]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{lists: make(map[List][]string)}
}

// Seed sets the stored content of list.
func (b *MemoryBackend) Seed(list List, patterns ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists[list] = slices.Clone(patterns)
}

func (b *MemoryBackend) Load(_ context.Context, list List) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.lists[list]), nil
}

func (b *MemoryBackend) Append(_ context.Context, list List, pattern string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if slices.Contains(b.lists[list], pattern) {
		return ErrAlreadyPresent
	}
	b.lists[list] = append(b.lists[list], pattern)
	return nil
}

func (b *MemoryBackend) Remove(_ context.Context, list List, pattern string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists[list] = slices.DeleteFunc(b.lists[list], func(e string) bool { return e == pattern })
	return nil
}

func (b *MemoryBackend) Clear(_ context.Context, list List) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.lists, list)
	return nil
}
