// Package circuitbreaker implements a sliding-window circuit breaker used to
// stop hammering a persistent store that keeps failing.
//
// # State machine
//
//	Closed ──(failure rate ≥ threshold)──► Open ──(OpenDuration elapsed)──► HalfOpen
//	  ▲                                                                        │
//	  └──────────────(all probes succeed)───────────────────────────────────────┘
//	                  (any probe fails) ──────────────────────────────────► Open
//
// The failure rate is computed over the last Window of outcomes, and only
// once at least MinRequests outcomes fall inside it.
//
// All methods are safe for concurrent use.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Execute while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state.
type State int

const (
	StateClosed   State = iota // calls pass through
	StateOpen                  // calls are rejected
	StateHalfOpen              // a limited number of probes pass through
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config holds the breaker thresholds. A zero FailurePct disables the
// breaker entirely.
type Config struct {
	FailurePct     float64       `yaml:"failure_pct" env:"FAILURE_PCT"`
	MinRequests    int           `yaml:"min_requests" env:"MIN_REQUESTS"`
	Window         time.Duration `yaml:"window" env:"WINDOW"`
	OpenDuration   time.Duration `yaml:"open_duration" env:"OPEN_DURATION"`
	HalfOpenProbes int           `yaml:"half_open_probes" env:"HALF_OPEN_PROBES"`
}

// Enabled reports whether cfg describes an active breaker.
func (c Config) Enabled() bool {
	return c.FailurePct > 0
}

// DefaultConfig trips after half of at least 10 calls in 10s fail.
func DefaultConfig() Config {
	return Config{
		FailurePct:     50,
		MinRequests:    10,
		Window:         10 * time.Second,
		OpenDuration:   5 * time.Second,
		HalfOpenProbes: 1,
	}
}

// Breaker is a single circuit breaker.
type Breaker struct {
	mu       sync.Mutex
	cfg      Config
	now      func() time.Time
	onChange func(from, to State)
	state    State
	outcomes []outcome
	openedAt time.Time
	probes   int
	probesOK int
}

type outcome struct {
	at     time.Time
	failed bool
}

// maxOutcomes caps the sliding window under extreme call rates.
const maxOutcomes = 10000

// Option configures a Breaker.
type Option func(*Breaker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

// OnStateChange registers a callback invoked, under the breaker's lock,
// on every transition. It must not call back into the breaker.
func OnStateChange(fn func(from, to State)) Option {
	return func(b *Breaker) { b.onChange = fn }
}

// New creates a breaker. Zero fields of cfg fall back to DefaultConfig.
func New(cfg Config, opts ...Option) *Breaker {
	def := DefaultConfig()
	if cfg.MinRequests <= 0 {
		cfg.MinRequests = def.MinRequests
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.OpenDuration <= 0 {
		cfg.OpenDuration = def.OpenDuration
	}
	if cfg.HalfOpenProbes <= 0 {
		cfg.HalfOpenProbes = def.HalfOpenProbes
	}
	b := &Breaker{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Execute runs fn if the breaker allows it and records the outcome.
// failed decides which errors count against the store; a nil failed
// counts every non-nil error.
func (b *Breaker) Execute(fn func() error, failed func(error) bool) error {
	if !b.Allow() {
		return ErrOpen
	}
	err := fn()
	if err != nil && (failed == nil || failed(err)) {
		b.RecordFailure()
	} else {
		b.RecordSuccess()
	}
	return err
}

// Allow reports whether a call may proceed. In the half-open state each
// true result consumes one probe.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advance()
	switch b.state {
	case StateOpen:
		return false
	case StateHalfOpen:
		if b.probes < b.cfg.HalfOpenProbes {
			b.probes++
			return true
		}
		return false
	}
	return true
}

// RecordSuccess records a call that went through.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.push(false)
	case StateHalfOpen:
		b.probesOK++
		if b.probesOK >= b.cfg.HalfOpenProbes {
			b.outcomes = b.outcomes[:0]
			b.transition(StateClosed)
		}
	}
}

// RecordFailure records a failed call.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.push(true)
		if b.tripped() {
			b.openedAt = b.now()
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		b.openedAt = b.now()
		b.transition(StateOpen)
	}
}

// State returns the current state, moving Open to HalfOpen once
// OpenDuration has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.state
}

// advance must be called under lock.
func (b *Breaker) advance() {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenDuration {
		b.probes = 0
		b.probesOK = 0
		b.transition(StateHalfOpen)
	}
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	if b.onChange != nil && from != to {
		b.onChange(from, to)
	}
}

// push must be called under lock.
func (b *Breaker) push(failed bool) {
	now := b.now()
	b.outcomes = append(b.outcomes, outcome{at: now, failed: failed})

	cutoff := now.Add(-b.cfg.Window)
	i := 0
	for i < len(b.outcomes) && b.outcomes[i].at.Before(cutoff) {
		i++
	}
	if n := len(b.outcomes) - i; n > maxOutcomes {
		i = len(b.outcomes) - maxOutcomes
	}
	if i > 0 {
		b.outcomes = append(b.outcomes[:0], b.outcomes[i:]...)
	}
}

// tripped must be called under lock.
func (b *Breaker) tripped() bool {
	if len(b.outcomes) < b.cfg.MinRequests {
		return false
	}
	failures := 0
	for _, o := range b.outcomes {
		if o.failed {
			failures++
		}
	}
	return float64(failures)/float64(len(b.outcomes))*100 >= b.cfg.FailurePct
}
