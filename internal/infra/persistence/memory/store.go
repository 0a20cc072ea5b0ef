// Package memory provides an in-process snapshot store used by tests and
// ephemeral sessions.
package memory

import (
	"context"
	"sort"
	"sync"
)

// Store keeps bucket payloads in a map.
type Store struct {
	mu      sync.RWMutex
	buckets map[string][]byte
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{buckets: make(map[string][]byte)}
}

// Save replaces the payload of every bucket in snapshot.
func (s *Store) Save(_ context.Context, snapshot map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for bucket, payload := range snapshot {
		s.buckets[bucket] = clonePayload(payload)
	}
	return nil
}

// Load returns a copy of every stored bucket.
func (s *Store) Load(_ context.Context) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(s.buckets))
	for bucket, payload := range s.buckets {
		out[bucket] = clonePayload(payload)
	}
	return out, nil
}

// Buckets lists stored bucket names in ascending order.
func (s *Store) Buckets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func clonePayload(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
