package kv

import (
	"context"
	"fmt"
	"strings"

	"github.com/oriys/statecache/internal/circuitbreaker"
	"github.com/oriys/statecache/internal/logging"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
	BackendMongo    = "mongo"
	BackendFile     = "file"
)

// Config selects and configures one backend.
type Config struct {
	Backend  string         `yaml:"backend" env:"BACKEND"`
	Redis    RedisConfig    `yaml:"redis" envPrefix:"REDIS_"`
	Postgres PostgresConfig `yaml:"postgres" envPrefix:"PG_"`
	S3       S3Config       `yaml:"s3" envPrefix:"S3_"`
	Mongo    MongoConfig    `yaml:"mongo" envPrefix:"MONGO_"`
	File     FileConfig     `yaml:"file" envPrefix:"FILE_"`

	// Breaker guards every backend but memory. A zero FailurePct leaves
	// them unguarded.
	Breaker circuitbreaker.Config `yaml:"breaker" envPrefix:"BREAKER_"`
}

// Open creates the backend named by cfg.Backend. An empty name selects
// the in-memory store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(cfg.Backend) {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		s, err = asStore(ConnectRedis(ctx, cfg.Redis))
	case BackendPostgres:
		s, err = asStore(NewPostgresStore(ctx, cfg.Postgres))
	case BackendS3:
		s, err = asStore(NewS3Store(ctx, cfg.S3))
	case BackendMongo:
		s, err = asStore(NewMongoStore(ctx, cfg.Mongo))
	case BackendFile:
		s, err = asStore(NewFileStore(cfg.File))
	default:
		return nil, fmt.Errorf("unknown store backend: %s (valid: memory, redis, postgres, s3, mongo, file)", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	if cfg.Breaker.Enabled() {
		backend := strings.ToLower(cfg.Backend)
		s = Guarded(s, circuitbreaker.New(cfg.Breaker,
			circuitbreaker.OnStateChange(func(from, to circuitbreaker.State) {
				logging.Op().Warn("store circuit breaker changed state",
					"backend", backend, "from", from.String(), "to", to.String())
			})))
	}
	return s, nil
}

// asStore keeps a typed nil pointer from leaking out as a non-nil Store.
func asStore[S Store](s S, err error) (Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
