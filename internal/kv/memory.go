package kv

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by MemoryStore after Close.
var ErrClosed = errors.New("kv: store closed")

// MemoryStore is a map-backed Store. It serves as the default backend when
// no external store is configured, and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
	puts    int
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]byte),
	}
}

func (s *MemoryStore) Get(_ context.Context, key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	v, ok := s.entries[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	// Return a copy to prevent mutation
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (s *MemoryStore) Put(_ context.Context, key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	s.entries[string(key)] = cp
	s.puts++
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Puts returns how many Put calls succeeded, overwrites included.
func (s *MemoryStore) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}
