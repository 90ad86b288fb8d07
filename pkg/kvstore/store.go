// Package kvstore persists small JSON encoded values under string keys.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrNotFound = errors.New("kvstore: key not found")

// Store is a key-value slot store. Values are JSON encoded. SetMany writes
// all keys together so readers never see a partial update.
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	SetMany(ctx context.Context, values map[string]any) error
}

type encodedEntry struct {
	key   string
	value string
}

// encodeAll marshals values in key order.
func encodeAll(values map[string]any) ([]encodedEntry, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]encodedEntry, 0, len(keys))
	for _, k := range keys {
		b, err := json.Marshal(values[k])
		if err != nil {
			return nil, fmt.Errorf("kvstore: encode %q: %w", k, err)
		}
		entries = append(entries, encodedEntry{key: k, value: string(b)})
	}
	return entries, nil
}

func decode(key, raw string, dest any) error {
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("kvstore: decode %q: %w", key, err)
	}
	return nil
}

type memoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory returns a process-local store.
func NewMemory() Store {
	return &memoryStore{data: make(map[string]string)}
}

func (s *memoryStore) Get(_ context.Context, key string, dest any) error {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return decode(key, raw, dest)
}

func (s *memoryStore) Set(ctx context.Context, key string, value any) error {
	return s.SetMany(ctx, map[string]any{key: value})
}

func (s *memoryStore) SetMany(_ context.Context, values map[string]any) error {
	entries, err := encodeAll(values)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.data[e.key] = e.value
	}
	return nil
}
