// Package cache implements the in-memory write-back cache that sits in
// front of a persistent state store. A Manager holds up to Capacity
// resident key/value pairs and, when a new key arrives at capacity, evicts
// exactly one resident pair and hands it back to the caller, who is
// responsible for persisting it.
//
// Five eviction policies are available (Clock, LRU, LFU, FIFO, LIFO). They
// are selected at construction time through New; callers only ever hold a
// Manager.
//
// Managers are not safe for concurrent use. A Manager is meant to be owned
// by a single worker (typically the one owning a key-group); integrations
// that need sharing must add their own mutual exclusion around it.
package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPolicy is returned by New and ParsePolicy for an unrecognised policy name.
	ErrUnknownPolicy = errors.New("cache: unknown eviction policy")
	// ErrInvalidCapacity is returned by New for a negative capacity.
	ErrInvalidCapacity = errors.New("cache: capacity must not be negative")
)

// Evicted is a pair pushed out of the cache by Put. It was never written to
// the persistent store by the cache and must be flushed by the caller.
type Evicted[V any] struct {
	Key   []byte
	Value V
}

// Manager is a fixed-capacity write-back cache keyed by opaque byte
// fingerprints. Two keys are equal when their bytes are equal.
type Manager[V any] interface {
	// Contains reports whether key is resident. It is the instrumentation
	// point of the cache: every call increments the probe total and, when
	// the key is resident, the hit count. Some policies call it internally
	// from Put, which is reflected in the counters.
	Contains(key []byte) bool

	// Get returns the resident value for key. Policies with recency or
	// frequency metadata update it; the hit counters are not touched.
	Get(key []byte) (V, bool)

	// Put inserts or overwrites key. Overwriting a resident key never
	// evicts. Inserting a new key into a full cache evicts exactly one
	// resident pair first and returns it with ok set.
	Put(key []byte, value V) (evicted Evicted[V], ok bool)

	// Remove drops key without returning its value. No-op when absent.
	Remove(key []byte)

	// Clear drops every resident pair and resets policy metadata. The
	// capacity and the hit counters are kept.
	Clear()

	// HitRate returns hits/total, or 0 when nothing was probed yet.
	HitRate() float64

	// Stats returns a snapshot of the probe counters.
	Stats() Stats

	// Range calls fn for every resident pair until fn returns false.
	// It neither touches policy metadata nor the counters.
	Range(fn func(key []byte, value V) bool)

	Len() int
	Capacity() int
	Policy() Policy
}

// New creates a Manager for the given policy and capacity. A capacity of
// zero is valid and yields a cache that never retains anything.
func New[V any](policy Policy, capacity int) (Manager[V], error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	switch policy {
	case Clock:
		return newClock[V](capacity), nil
	case LRU:
		return newLRU[V](capacity), nil
	case LFU:
		return newLFU[V](capacity), nil
	case FIFO:
		return newFIFO[V](capacity), nil
	case LIFO:
		return newLIFO[V](capacity), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, string(policy))
	}
}

// MustNew is like New but panics on error. Intended for tests and static setup.
func MustNew[V any](policy Policy, capacity int) Manager[V] {
	m, err := New[V](policy, capacity)
	if err != nil {
		panic(err)
	}
	return m
}

// cloneKey copies key so the cache never aliases caller-owned memory.
func cloneKey(key []byte) []byte {
	out := make([]byte, len(key))
	copy(out, key)
	return out
}
