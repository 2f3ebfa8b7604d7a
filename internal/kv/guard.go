package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/oriys/statecache/internal/circuitbreaker"
)

// ErrUnavailable wraps circuitbreaker.ErrOpen when a guarded store rejects
// a call without reaching the backend.
var ErrUnavailable = errors.New("kv: store unavailable")

// Guarded wraps s so that calls fail fast with ErrUnavailable while b is
// open. ErrNotFound and context cancellation do not count as failures.
func Guarded(s Store, b *circuitbreaker.Breaker) Store {
	return &guarded{Store: s, breaker: b}
}

type guarded struct {
	Store
	breaker *circuitbreaker.Breaker
}

func storeFailure(err error) bool {
	return !errors.Is(err, ErrNotFound) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

func (g *guarded) call(fn func() error) error {
	err := g.breaker.Execute(fn, storeFailure)
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

func (g *guarded) Get(ctx context.Context, key []byte) ([]byte, error) {
	var val []byte
	err := g.call(func() error {
		var err error
		val, err = g.Store.Get(ctx, key)
		return err
	})
	return val, err
}

func (g *guarded) Put(ctx context.Context, key, value []byte) error {
	return g.call(func() error {
		return g.Store.Put(ctx, key, value)
	})
}
