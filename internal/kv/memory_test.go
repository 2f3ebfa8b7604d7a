package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutAndGet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ctx := context.Background()

	require.NoError(t, s.Put(ctx, []byte("key1"), []byte("value1")))

	val, err := s.Get(ctx, []byte("key1"))
	require.NoError(t, err)
	assert.Equal(t, "value1", string(val))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.Puts())
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	_, err := s.Get(context.Background(), []byte("nonexistent"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Overwrite(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, []byte("k"), []byte("a")))
	require.NoError(t, s.Put(ctx, []byte("k"), []byte("b")))

	val, err := s.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(val))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 2, s.Puts())
}

func TestMemoryStore_ValueIsolation(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ctx := context.Background()

	original := []byte("original")
	require.NoError(t, s.Put(ctx, []byte("iso"), original))

	// Mutate original - should not affect stored value
	original[0] = 'X'

	val, err := s.Get(ctx, []byte("iso"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(val))

	// Mutate returned value - should not affect stored value
	val[0] = 'Z'
	val2, _ := s.Get(ctx, []byte("iso"))
	assert.Equal(t, "original", string(val2))
}

func TestMemoryStore_EmptyKey(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, []byte{}, []byte("v")))

	val, err := s.Get(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "v", string(val))
}

func TestMemoryStore_Closed(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Close())

	ctx := context.Background()
	assert.ErrorIs(t, s.Put(ctx, []byte("k"), []byte("v")), ErrClosed)
	_, err := s.Get(ctx, []byte("k"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Ping(ctx), ErrClosed)
}

func TestPrefixed_IsolatesNamespaces(t *testing.T) {
	base := NewMemoryStore()
	defer base.Close()

	ctx := context.Background()
	a := Prefixed(base, "a/")
	b := Prefixed(base, "b/")

	require.NoError(t, a.Put(ctx, []byte("k"), []byte("from-a")))
	require.NoError(t, b.Put(ctx, []byte("k"), []byte("from-b")))

	va, err := a.Get(ctx, []byte("k"))
	require.NoError(t, err)
	vb, err := b.Get(ctx, []byte("k"))
	require.NoError(t, err)

	assert.Equal(t, "from-a", string(va))
	assert.Equal(t, "from-b", string(vb))

	raw, err := base.Get(ctx, []byte("a/k"))
	require.NoError(t, err)
	assert.Equal(t, "from-a", string(raw))

	// Closing a view leaves the shared backend open.
	require.NoError(t, a.Close())
	assert.NoError(t, base.Ping(ctx))
}

func TestPrefixed_EmptyPrefixIsIdentity(t *testing.T) {
	base := NewMemoryStore()
	defer base.Close()
	assert.Same(t, Store(base), Prefixed(base, ""))
}
