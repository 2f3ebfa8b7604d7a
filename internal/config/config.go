package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/oriys/statecache/internal/cache"
	"github.com/oriys/statecache/internal/kv"
	"github.com/oriys/statecache/internal/logging"
	"github.com/oriys/statecache/internal/observability"
)

// EnvPrefix is prepended to every environment variable read by LoadFromEnv.
const EnvPrefix = "STATECACHE_"

// ErrInvalid is wrapped by every error returned from Validate.
var ErrInvalid = errors.New("invalid config")

// CacheConfig holds the per-state cache settings
type CacheConfig struct {
	Policy   cache.Policy `yaml:"policy" env:"POLICY"`
	Capacity int          `yaml:"capacity" env:"CAPACITY"`
}

// LogConfig holds operational logger settings
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"` // text, json
	Report string `yaml:"report" env:"REPORT"` // run report JSON lines file
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Addr      string    `yaml:"addr" env:"ADDR"` // empty disables the endpoint
	Namespace string    `yaml:"namespace" env:"NAMESPACE"`
	Buckets   []float64 `yaml:"buckets" env:"BUCKETS"`
}

// Config is the central configuration struct embedding all component configs
type Config struct {
	Cache   CacheConfig          `yaml:"cache" envPrefix:"CACHE_"`
	Store   kv.Config            `yaml:"store" envPrefix:"STORE_"`
	Log     LogConfig            `yaml:"log" envPrefix:"LOG_"`
	Metrics MetricsConfig        `yaml:"metrics" envPrefix:"METRICS_"`
	Tracing observability.Config `yaml:"tracing" envPrefix:"TRACING_"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Policy:   cache.DefaultPolicy,
			Capacity: 1024,
		},
		Store: kv.Config{
			Backend: kv.BackendMemory,
			Redis: kv.RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: kv.DefaultRedisPrefix,
			},
			Postgres: kv.PostgresConfig{
				Table: kv.DefaultPostgresTable,
			},
			Mongo: kv.MongoConfig{
				Database:   "statecache",
				Collection: "state_entries",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Namespace: "statecache",
		},
		Tracing: observability.DefaultConfig(),
	}
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromEnv applies STATECACHE_* environment overrides to cfg. A .env
// file in the working directory, when present, is loaded first without
// overriding variables that are already set.
func LoadFromEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return applyEnv(cfg, nil)
}

// applyEnv parses overrides from environ, or from the process environment
// when environ is nil.
func applyEnv(cfg *Config, environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (if non-empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if !c.Cache.Policy.IsValid() {
		return fmt.Errorf("%w: cache.policy %q", ErrInvalid, c.Cache.Policy)
	}
	if c.Cache.Capacity < 0 {
		return fmt.Errorf("%w: cache.capacity %d is negative", ErrInvalid, c.Cache.Capacity)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q (valid: text, json)", ErrInvalid, c.Log.Format)
	}
	switch strings.ToLower(c.Store.Backend) {
	case "", kv.BackendMemory, kv.BackendRedis, kv.BackendPostgres, kv.BackendS3, kv.BackendMongo, kv.BackendFile:
	default:
		return fmt.Errorf("%w: store.backend %q", ErrInvalid, c.Store.Backend)
	}
	if b := c.Store.Breaker.FailurePct; b < 0 || b > 100 {
		return fmt.Errorf("%w: store.breaker.failure_pct %v outside [0, 100]", ErrInvalid, b)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("%w: tracing.sample_rate %v outside [0, 1]", ErrInvalid, c.Tracing.SampleRate)
	}
	return nil
}
