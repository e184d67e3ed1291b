// Package pending remembers which recipient each issued receipt id belongs to,
// between sending notifications and looking up their receipts.
package pending

import (
	"context"
	"maps"
	"sync"

	expo "dezeto/expo-push-dispatch"
)

// Store keeps receipt id -> recipient token entries.
type Store interface {
	Save(ctx context.Context, entries map[string]expo.Token) error
	Load(ctx context.Context) (map[string]expo.Token, error)
	Remove(ctx context.Context, ids ...string) error
}

// MemoryStore is a Store for a single process.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]expo.Token
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]expo.Token)}
}

func (s *MemoryStore) Save(_ context.Context, entries map[string]expo.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.entries, entries)
	return nil
}

func (s *MemoryStore) Load(_ context.Context) (map[string]expo.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.entries), nil
}

func (s *MemoryStore) Remove(_ context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.entries, id)
	}
	return nil
}
