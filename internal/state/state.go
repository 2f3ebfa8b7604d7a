// Package state binds a write-back cache to one named logical state of a
// stream-processing job. Reads that miss the cache are served from the
// persistent store and cached; writes only touch the cache, and a value
// reaches the store when its key is evicted, when Flush is called, or
// immediately when the cache has no capacity at all.
//
// A ValueState is owned by a single worker and is not safe for concurrent
// use. Store I/O happens synchronously on the caller's goroutine.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oriys/statecache/internal/cache"
	"github.com/oriys/statecache/internal/codec"
	"github.com/oriys/statecache/internal/kv"
	"github.com/oriys/statecache/internal/logging"
	"github.com/oriys/statecache/internal/metrics"
	"github.com/oriys/statecache/internal/observability"
)

var (
	// ErrFlushFailed marks an error from writing a dirty value to the store.
	// The value has already left the cache when this is returned.
	ErrFlushFailed = errors.New("state: flush failed")
	// ErrClosed is returned by operations on a closed ValueState.
	ErrClosed = errors.New("state: closed")
	// ErrInvalidName is returned by New for an empty name or one containing
	// a NUL byte.
	ErrInvalidName = errors.New("state: invalid name")
)

// Config describes one logical state.
type Config struct {
	Name     string
	Policy   cache.Policy
	Capacity int
}

// Metrics is the probe accounting of the underlying cache.
type Metrics struct {
	Hits    uint64
	Total   uint64
	HitRate float64
}

// Option configures a ValueState.
type Option[V any] func(*ValueState[V])

// WithLogger sets the logger. The state name and policy are added to it.
func WithLogger[V any](l *slog.Logger) Option[V] {
	return func(s *ValueState[V]) {
		if l != nil {
			s.log = l.With("state", s.name, "policy", string(s.cache.Policy()))
		}
	}
}

// WithMetrics sets the collector activity is reported to. Defaults to
// metrics.Global(); nil disables reporting.
func WithMetrics[V any](m *metrics.Metrics) Option[V] {
	return func(s *ValueState[V]) {
		s.metrics = m
	}
}

// WithDefault sets the value Read returns for a key that is neither cached
// nor stored.
func WithDefault[V any](v V) Option[V] {
	return func(s *ValueState[V]) {
		s.def = v
	}
}

// ValueState is the cache facade for one named state. Keys are the opaque
// fingerprints produced by the caller; values are kept decoded in memory.
//
// Close drops resident values without writing them. Callers that need the
// resident values to survive must call Flush before Close.
type ValueState[V any] struct {
	name    string
	cache   cache.Manager[V]
	store   kv.Store
	codec   codec.Codec[V]
	def     V
	log     *slog.Logger
	metrics *metrics.Metrics
	closed  bool
}

// New creates the facade for cfg. The store is namespaced by the state
// name so several states can share one backend.
func New[V any](cfg Config, store kv.Store, c codec.Codec[V], opts ...Option[V]) (*ValueState[V], error) {
	if cfg.Name == "" || strings.IndexByte(cfg.Name, 0) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, cfg.Name)
	}
	if store == nil {
		return nil, errors.New("state: store is required")
	}
	if c == nil {
		return nil, errors.New("state: codec is required")
	}
	if cfg.Policy == "" {
		cfg.Policy = cache.DefaultPolicy
	}

	mgr, err := cache.New[V](cfg.Policy, cfg.Capacity)
	if err != nil {
		return nil, fmt.Errorf("state %q: %w", cfg.Name, err)
	}

	s := &ValueState[V]{
		name:    cfg.Name,
		cache:   mgr,
		store:   kv.Prefixed(store, cfg.Name+"\x00"),
		codec:   c,
		log:     logging.ForState(cfg.Name, string(cfg.Policy)),
		metrics: metrics.Global(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Read returns the value for key. A cache miss is served from the store and
// the decoded value is cached, which may evict and flush another pair. A
// key absent from both yields the default value and is not cached.
func (s *ValueState[V]) Read(ctx context.Context, key []byte) (V, error) {
	var zero V
	if s.closed {
		return zero, ErrClosed
	}
	if s.cache.Contains(key) {
		v, _ := s.cache.Get(key)
		return v, nil
	}

	data, err := s.load(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return s.def, nil
	}
	if err != nil {
		return zero, fmt.Errorf("state %q: read: %w", s.name, err)
	}

	v, err := s.codec.Unmarshal(data)
	if err != nil {
		return zero, fmt.Errorf("state %q: decode: %w", s.name, err)
	}
	return v, s.put(ctx, key, v)
}

func (s *ValueState[V]) load(ctx context.Context, key []byte) ([]byte, error) {
	ctx, span := observability.StartClientSpan(ctx, "statecache.store.get",
		observability.AttrState.String(s.name),
		observability.AttrKeyLen.Int(len(key)),
	)
	defer span.End()

	start := time.Now()
	data, err := s.store.Get(ctx, key)
	outcome := metrics.OutcomeHit
	switch {
	case errors.Is(err, kv.ErrNotFound):
		outcome = metrics.OutcomeMiss
	case err != nil:
		outcome = metrics.OutcomeError
		observability.SetSpanError(span, err)
		logging.WithTrace(ctx, s.log).Error("store read failed", "error", err)
	}
	span.SetAttributes(observability.AttrOutcome.String(outcome))
	s.metrics.RecordStoreRead(s.name, outcome, time.Since(start))
	return data, err
}

// Write caches v under key. When the cache is full and key is new, the
// evicted pair is written to the store before Write returns. With zero
// capacity v is written straight to the store.
func (s *ValueState[V]) Write(ctx context.Context, key []byte, v V) error {
	if s.closed {
		return ErrClosed
	}
	if s.cache.Capacity() == 0 {
		return s.flush(ctx, key, v, metrics.ReasonWriteThrough)
	}
	return s.put(ctx, key, v)
}

func (s *ValueState[V]) put(ctx context.Context, key []byte, v V) error {
	ev, evicted := s.cache.Put(key, v)
	s.observe()
	if !evicted {
		return nil
	}
	s.metrics.RecordEviction(s.name, string(s.cache.Policy()))
	s.log.Debug("evicted", "key_len", len(ev.Key))
	return s.flush(ctx, ev.Key, ev.Value, metrics.ReasonEvict)
}

func (s *ValueState[V]) flush(ctx context.Context, key []byte, v V, reason string) error {
	ctx, span := observability.StartClientSpan(ctx, "statecache.store.put",
		observability.AttrState.String(s.name),
		observability.AttrReason.String(reason),
		observability.AttrKeyLen.Int(len(key)),
	)
	defer span.End()

	data, err := s.codec.Marshal(v)
	if err == nil {
		span.SetAttributes(observability.AttrValueLen.Int(len(data)))
		err = s.store.Put(ctx, key, data)
	}
	s.metrics.RecordFlush(s.name, reason, err)
	if err != nil {
		observability.SetSpanError(span, err)
		logging.WithTrace(ctx, s.log).Error("flush failed", "reason", reason, "key_len", len(key), "error", err)
		return fmt.Errorf("%w: state %q: %w", ErrFlushFailed, s.name, err)
	}
	return nil
}

// Invalidate drops key from the cache. A resident value that was never
// flushed is lost; the store keeps whatever it had.
func (s *ValueState[V]) Invalidate(key []byte) {
	s.cache.Remove(key)
	s.observe()
}

// Reset drops every resident value without flushing.
func (s *ValueState[V]) Reset() {
	s.cache.Clear()
	s.observe()
}

// Metrics returns the cache's probe counters.
func (s *ValueState[V]) Metrics() Metrics {
	st := s.cache.Stats()
	return Metrics{Hits: st.Hits, Total: st.Total, HitRate: st.HitRate()}
}

// Flush writes every resident pair to the store. Pairs stay resident. All
// pairs are attempted; the returned error joins every failure.
func (s *ValueState[V]) Flush(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	ctx, span := observability.StartSpan(ctx, "statecache.flush",
		observability.AttrState.String(s.name),
		observability.AttrPolicy.String(string(s.cache.Policy())),
	)
	defer span.End()

	var (
		errs    []error
		flushed int
	)
	s.cache.Range(func(key []byte, v V) bool {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			return false
		}
		if err := s.flush(ctx, key, v, metrics.ReasonFlush); err != nil {
			errs = append(errs, err)
			return true
		}
		flushed++
		return true
	})
	span.SetAttributes(observability.AttrFlushed.Int(flushed))

	if err := errors.Join(errs...); err != nil {
		observability.SetSpanError(span, err)
		return err
	}
	s.log.Debug("flushed", "count", flushed)
	return nil
}

// Close drops the cache without flushing. Further calls to Read, Write and
// Flush return ErrClosed.
func (s *ValueState[V]) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.cache.Clear()
	s.observe()
}

func (s *ValueState[V]) observe() {
	s.metrics.ObserveCache(s.name, string(s.cache.Policy()), s.cache.HitRate(), s.cache.Len())
}

// Name returns the state name.
func (s *ValueState[V]) Name() string { return s.name }

// Policy returns the eviction policy.
func (s *ValueState[V]) Policy() cache.Policy { return s.cache.Policy() }

// Len returns the number of resident values.
func (s *ValueState[V]) Len() int { return s.cache.Len() }

// Capacity returns the cache capacity.
func (s *ValueState[V]) Capacity() int { return s.cache.Capacity() }
