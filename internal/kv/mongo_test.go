package kv

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMongoStore(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("STATECACHE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("STATECACHE_TEST_MONGO_URI not set, skipping")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := NewMongoStore(ctx, MongoConfig{
		URI:        uri,
		Database:   "statecache_test",
		Collection: "entries_" + uuid.NewString()[:8],
	})
	if err != nil {
		t.Skipf("MongoDB not available, skipping: %v", err)
	}
	t.Cleanup(func() {
		s.coll.Drop(context.Background())
		s.Close()
	})
	return s
}

func TestMongoStore_PutGetOverwrite(t *testing.T) {
	s := newTestMongoStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, []byte("k"), []byte("v1")))
	require.NoError(t, s.Put(ctx, []byte("k"), []byte("v2")))

	val, err := s.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(val))
}

func TestMongoStore_GetMissing(t *testing.T) {
	s := newTestMongoStore(t)

	_, err := s.Get(context.Background(), []byte("missing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewMongoStore_RequiresURI(t *testing.T) {
	_, err := NewMongoStore(context.Background(), MongoConfig{})
	assert.Error(t, err)
}
