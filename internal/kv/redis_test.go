package kv

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available, skipping: %v", err)
	}
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return NewRedisStoreFromClient(client, "test:")
}

func TestRedisStore_PutAndGet(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	key := []byte{0x00, 0xff, 'k'}
	require.NoError(t, s.Put(ctx, key, []byte("value")))

	val, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "value", string(val))

	raw, err := s.Client().Get(ctx, "test:"+string(key)).Bytes()
	require.NoError(t, err)
	assert.Equal(t, "value", string(raw))
}

func TestRedisStore_GetMissing(t *testing.T) {
	s := newTestRedisStore(t)

	_, err := s.Get(context.Background(), []byte("missing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConnectRedis_RequiresAddr(t *testing.T) {
	_, err := ConnectRedis(context.Background(), RedisConfig{})
	assert.Error(t, err)
}

func TestConnectRedis_GivesUpAfterRetries(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := ConnectRedis(ctx, RedisConfig{
		Addr:          "127.0.0.1:1",
		RetryAttempts: 2,
		RetryInterval: 10 * time.Millisecond,
	})
	assert.Error(t, err)
}

func TestNewRedisStoreFromClient_DefaultPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	s := NewRedisStoreFromClient(client, "")
	assert.Equal(t, DefaultRedisPrefix+"k", s.key([]byte("k")))
}
