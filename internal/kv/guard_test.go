package kv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriys/statecache/internal/circuitbreaker"
)

type failingStore struct {
	*MemoryStore
	err error
}

func (f *failingStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *failingStore) Put(ctx context.Context, key, value []byte) error {
	if f.err != nil {
		return f.err
	}
	return f.MemoryStore.Put(ctx, key, value)
}

func TestGuarded_TripsAndRecovers(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(0, 0)
	inner := &failingStore{MemoryStore: NewMemoryStore(), err: errors.New("connection refused")}
	b := circuitbreaker.New(circuitbreaker.Config{
		FailurePct:   50,
		MinRequests:  2,
		OpenDuration: time.Second,
	}, circuitbreaker.WithClock(func() time.Time { return now }))
	s := Guarded(inner, b)

	for i := 0; i < 2; i++ {
		err := s.Put(ctx, []byte("k"), []byte("v"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}

	_, err := s.Get(ctx, []byte("k"))
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)

	inner.err = nil
	now = now.Add(time.Second)
	require.NoError(t, s.Put(ctx, []byte("k"), []byte("v")))
	assert.Equal(t, circuitbreaker.StateClosed, b.State())

	got, err := s.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestGuarded_NotFoundIsNotAFailure(t *testing.T) {
	b := circuitbreaker.New(circuitbreaker.Config{FailurePct: 1, MinRequests: 1})
	s := Guarded(NewMemoryStore(), b)

	for i := 0; i < 5; i++ {
		_, err := s.Get(context.Background(), []byte("missing"))
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, circuitbreaker.StateClosed, b.State())
}
