// Package kv defines the persistent byte-oriented key-value store that the
// write-back cache flushes evicted state into, together with the backends
// it can run on: in-memory, Redis, PostgreSQL, S3, MongoDB and a local
// directory. Keys and values are opaque byte slices; the store never
// interprets them.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("kv: key not found")

// Store is the durable side of the cache. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key, value []byte) error

	// Ping verifies connectivity to the backend.
	Ping(ctx context.Context) error

	// Close releases all resources held by the store.
	Close() error
}

// Prefixed namespaces every key of s with prefix. Several logical states
// can share one backend this way without their keys colliding.
func Prefixed(s Store, prefix string) Store {
	if prefix == "" {
		return s
	}
	return &prefixed{Store: s, prefix: []byte(prefix)}
}

type prefixed struct {
	Store
	prefix []byte
}

func (p *prefixed) key(k []byte) []byte {
	out := make([]byte, 0, len(p.prefix)+len(k))
	out = append(out, p.prefix...)
	return append(out, k...)
}

func (p *prefixed) Get(ctx context.Context, key []byte) ([]byte, error) {
	return p.Store.Get(ctx, p.key(key))
}

func (p *prefixed) Put(ctx context.Context, key, value []byte) error {
	return p.Store.Put(ctx, p.key(key), value)
}

// Close is a no-op: the shared backend is owned by whoever opened it.
func (p *prefixed) Close() error { return nil }
