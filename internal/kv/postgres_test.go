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

// newTestPostgresStore uses STATECACHE_TEST_PG_DSN and a throwaway table.
func newTestPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("STATECACHE_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("STATECACHE_TEST_PG_DSN not set, skipping")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	table := "state_test_" + uuid.NewString()[:8]
	s, err := NewPostgresStore(ctx, PostgresConfig{DSN: dsn, Table: table})
	if err != nil {
		t.Skipf("Postgres not available, skipping: %v", err)
	}
	t.Cleanup(func() {
		s.pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+table)
		s.Close()
	})
	return s
}

func TestPostgresStore_PutGetOverwrite(t *testing.T) {
	s := newTestPostgresStore(t)
	ctx := context.Background()

	key := []byte{0x01, 0x00, 0x02}
	require.NoError(t, s.Put(ctx, key, []byte("v1")))
	require.NoError(t, s.Put(ctx, key, []byte("v2")))

	val, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(val))
}

func TestPostgresStore_GetMissing(t *testing.T) {
	s := newTestPostgresStore(t)

	_, err := s.Get(context.Background(), []byte("missing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewPostgresStore_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewPostgresStore(ctx, PostgresConfig{})
	assert.Error(t, err)

	_, err = NewPostgresStore(ctx, PostgresConfig{DSN: "postgres://localhost/db", Table: "bad;name"})
	assert.ErrorContains(t, err, "invalid postgres table name")
}
