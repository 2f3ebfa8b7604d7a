package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces state keys inside a shared Redis database.
const DefaultRedisPrefix = "statecache:"

// RedisConfig holds connection settings for RedisStore.
type RedisConfig struct {
	Addr          string        `yaml:"addr" env:"ADDR"`
	Password      string        `yaml:"password" env:"PASSWORD"`
	DB            int           `yaml:"db" env:"DB"`
	KeyPrefix     string        `yaml:"key_prefix" env:"KEY_PREFIX"`
	RetryAttempts uint          `yaml:"retry_attempts" env:"RETRY_ATTEMPTS"`
	RetryInterval time.Duration `yaml:"retry_interval" env:"RETRY_INTERVAL"`
}

// RedisStore implements Store on top of Redis strings. Binary keys are
// stored as-is behind the configured prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// ConnectRedis dials Redis and retries the initial PING with exponential
// backoff until it answers, RetryAttempts is exhausted or ctx ends.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	attempts := cfg.RetryAttempts
	if attempts == 0 {
		attempts = 3
	}
	bo := backoff.NewExponentialBackOff()
	if cfg.RetryInterval > 0 {
		bo.InitialInterval = cfg.RetryInterval
	}

	_, err := backoff.Retry(ctx, func() (string, error) {
		return client.Ping(ctx).Result()
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(attempts))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewRedisStoreFromClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreFromClient creates a Redis store using an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStore) key(k []byte) string {
	return s.prefix + string(k)
}

func (s *RedisStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

func (s *RedisStore) Put(ctx context.Context, key, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Client returns the underlying Redis client for direct access.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}
