package metrics

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Store read outcomes.
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

// Flush reasons.
const (
	ReasonEvict        = "evict"
	ReasonFlush        = "flush"
	ReasonWriteThrough = "write_through"
)

// Metrics collects state cache activity for every state handle that reports
// into it. Counters are kept per state name.
type Metrics struct {
	states    sync.Map // state name -> *StateMetrics
	startTime time.Time
}

// StateMetrics tracks activity for a single state handle.
type StateMetrics struct {
	Evictions     atomic.Int64
	Flushes       atomic.Int64
	FlushErrors   atomic.Int64
	WriteThroughs atomic.Int64
	StoreHits     atomic.Int64
	StoreMisses   atomic.Int64
	StoreErrors   atomic.Int64
	StoreReadMs   atomic.Int64

	hitRate  atomic.Uint64 // float64 bits
	resident atomic.Int64
	policy   atomic.Value // string
}

// StateSnapshot is a point-in-time copy of StateMetrics.
type StateSnapshot struct {
	State         string  `json:"state"`
	Policy        string  `json:"policy"`
	Evictions     int64   `json:"evictions"`
	Flushes       int64   `json:"flushes"`
	FlushErrors   int64   `json:"flush_errors"`
	WriteThroughs int64   `json:"write_throughs"`
	StoreReads    int64   `json:"store_reads"`
	StoreHits     int64   `json:"store_hits"`
	StoreMisses   int64   `json:"store_misses"`
	StoreErrors   int64   `json:"store_errors"`
	AvgReadMs     float64 `json:"avg_read_ms"`
	HitRate       float64 `json:"hit_rate"`
	Resident      int64   `json:"resident"`
}

var global = New()

// New creates an empty collector. Prometheus collectors, when initialized
// with InitPrometheus, are updated by every collector.
func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// Global returns the process-wide metrics instance.
func Global() *Metrics {
	return global
}

// StartTime returns the time when m was created.
func (m *Metrics) StartTime() time.Time {
	return m.startTime
}

func (m *Metrics) state(name string) *StateMetrics {
	if v, ok := m.states.Load(name); ok {
		return v.(*StateMetrics)
	}
	v, _ := m.states.LoadOrStore(name, &StateMetrics{})
	return v.(*StateMetrics)
}

// RecordEviction records that the policy of state evicted a pair.
func (m *Metrics) RecordEviction(state, policy string) {
	if m == nil {
		return
	}
	m.state(state).Evictions.Add(1)
	recordPrometheusEviction(state, policy)
}

// RecordFlush records a downstream write of a dirty pair. reason is one of
// ReasonEvict, ReasonFlush or ReasonWriteThrough.
func (m *Metrics) RecordFlush(state, reason string, err error) {
	if m == nil {
		return
	}
	sm := m.state(state)
	if err != nil {
		sm.FlushErrors.Add(1)
	} else if reason == ReasonWriteThrough {
		sm.WriteThroughs.Add(1)
	} else {
		sm.Flushes.Add(1)
	}
	recordPrometheusFlush(state, reason, err)
}

// RecordStoreRead records a read that missed the cache and went to the
// store.
func (m *Metrics) RecordStoreRead(state, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	sm := m.state(state)
	switch outcome {
	case OutcomeHit:
		sm.StoreHits.Add(1)
	case OutcomeMiss:
		sm.StoreMisses.Add(1)
	default:
		sm.StoreErrors.Add(1)
	}
	sm.StoreReadMs.Add(d.Milliseconds())
	recordPrometheusStoreRead(state, outcome, d)
}

// ObserveCache publishes the current hit rate and resident count of state.
func (m *Metrics) ObserveCache(state, policy string, hitRate float64, resident int) {
	if m == nil {
		return
	}
	sm := m.state(state)
	sm.hitRate.Store(math.Float64bits(hitRate))
	sm.resident.Store(int64(resident))
	sm.policy.Store(policy)
	setPrometheusCache(state, policy, hitRate, resident)
}

// State returns a snapshot for one state name. Unknown names yield a zero
// snapshot.
func (m *Metrics) State(name string) StateSnapshot {
	v, ok := m.states.Load(name)
	if !ok {
		return StateSnapshot{State: name}
	}
	return v.(*StateMetrics).snapshot(name)
}

func (sm *StateMetrics) snapshot(name string) StateSnapshot {
	s := StateSnapshot{
		State:         name,
		Evictions:     sm.Evictions.Load(),
		Flushes:       sm.Flushes.Load(),
		FlushErrors:   sm.FlushErrors.Load(),
		WriteThroughs: sm.WriteThroughs.Load(),
		StoreHits:     sm.StoreHits.Load(),
		StoreMisses:   sm.StoreMisses.Load(),
		StoreErrors:   sm.StoreErrors.Load(),
		HitRate:       math.Float64frombits(sm.hitRate.Load()),
		Resident:      sm.resident.Load(),
	}
	if p, ok := sm.policy.Load().(string); ok {
		s.Policy = p
	}
	s.StoreReads = s.StoreHits + s.StoreMisses + s.StoreErrors
	if s.StoreReads > 0 {
		s.AvgReadMs = float64(sm.StoreReadMs.Load()) / float64(s.StoreReads)
	}
	return s
}

// Snapshot returns every state's snapshot, sorted by state name.
func (m *Metrics) Snapshot() []StateSnapshot {
	var out []StateSnapshot
	m.states.Range(func(k, v any) bool {
		out = append(out, v.(*StateMetrics).snapshot(k.(string)))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].State < out[j].State })
	return out
}

// JSONHandler serves the snapshot as JSON.
func (m *Metrics) JSONHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"uptime_seconds": int64(time.Since(m.startTime).Seconds()),
			"states":         m.Snapshot(),
		})
	})
}
