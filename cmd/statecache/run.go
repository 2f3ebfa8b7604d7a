package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/oriys/statecache/internal/cache"
	"github.com/oriys/statecache/internal/codec"
	"github.com/oriys/statecache/internal/kv"
	"github.com/oriys/statecache/internal/logging"
	"github.com/oriys/statecache/internal/metrics"
	"github.com/oriys/statecache/internal/observability"
	"github.com/oriys/statecache/internal/state"
	"github.com/oriys/statecache/internal/workload"
)

// runSpec describes one replay of a trace against one state handle.
type runSpec struct {
	RunID    string
	State    string
	Store    string
	Policy   cache.Policy
	Capacity int
	Flush    bool
}

// runTrace replays ops against a fresh state handle over store and reports
// what happened. Failures are recorded in the report rather than returned.
func runTrace(ctx context.Context, store kv.Store, m *metrics.Metrics, rs runSpec, ops []workload.Op) *logging.RunReport {
	ctx, span := observability.StartSpan(ctx, "statecache.run",
		observability.AttrRunID.String(rs.RunID),
		observability.AttrState.String(rs.State),
		observability.AttrPolicy.String(string(rs.Policy)),
		observability.AttrCapacity.Int(rs.Capacity),
	)
	defer span.End()

	report := &logging.RunReport{
		RunID:    rs.RunID,
		State:    rs.State,
		Policy:   string(rs.Policy),
		Store:    rs.Store,
		Capacity: rs.Capacity,
	}
	fail := func(err error) *logging.RunReport {
		observability.SetSpanError(span, err)
		report.Error = err.Error()
		metrics.RecordRun(report.Policy, false)
		return report
	}

	vs, err := state.New[[]byte](state.Config{
		Name:     rs.State,
		Policy:   rs.Policy,
		Capacity: rs.Capacity,
	}, store, codec.Bytes{}, state.WithMetrics[[]byte](m))
	if err != nil {
		return fail(err)
	}
	defer vs.Close()

	start := time.Now()
	res, err := workload.Replay(ctx, vs, ops)
	report.Ops = res.Ops
	if err == nil && rs.Flush {
		report.Flushed = vs.Len()
		if err = vs.Flush(ctx); err != nil {
			report.Flushed = 0
		}
	}
	report.DurationMs = time.Since(start).Milliseconds()

	st := vs.Metrics()
	report.Hits = st.Hits
	report.Probes = st.Total
	report.HitRate = st.HitRate
	snap := m.State(rs.State)
	report.Evictions = snap.Evictions
	report.StoreReads = snap.StoreReads

	if err != nil {
		return fail(err)
	}
	report.Success = true
	metrics.RecordRun(report.Policy, true)
	observability.SetSpanOK(span)
	return report
}

// readTrace parses the trace at path; "-" reads stdin.
func readTrace(path string) ([]workload.Op, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return workload.Parse(r)
}

// openStore opens the configured backend.
func openStore(ctx context.Context) (kv.Store, error) {
	s, err := kv.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := s.Ping(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("ping %s store: %w", storeName(), err)
	}
	return s, nil
}

func storeName() string {
	if cfg.Store.Backend == "" {
		return kv.BackendMemory
	}
	return cfg.Store.Backend
}

// newReporter builds the run reporter, writing JSON lines to the configured
// report file when one is set.
func newReporter(path string) (*logging.Reporter, error) {
	r := logging.NewReporter(os.Stdout)
	if path == "" {
		return r, nil
	}
	if err := r.SetOutput(path); err != nil {
		return nil, fmt.Errorf("open report file: %w", err)
	}
	return r, nil
}

// startMetricsServer serves /metrics (Prometheus) and /stats (JSON) on addr.
func startMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.PrometheusHandler())
	mux.Handle("/stats", metrics.Global().JSONHandler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           observability.HTTPMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Op().Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	logging.Op().Info("serving metrics", "addr", addr)
	return srv
}
