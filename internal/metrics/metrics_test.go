package metrics

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_StateCounters(t *testing.T) {
	m := New()

	m.RecordEviction("counts", "lru")
	m.RecordEviction("counts", "lru")
	m.RecordFlush("counts", ReasonEvict, nil)
	m.RecordFlush("counts", ReasonEvict, errors.New("boom"))
	m.RecordFlush("counts", ReasonWriteThrough, nil)
	m.RecordStoreRead("counts", OutcomeHit, 4*time.Millisecond)
	m.RecordStoreRead("counts", OutcomeMiss, 2*time.Millisecond)
	m.ObserveCache("counts", "lru", 0.75, 3)

	s := m.State("counts")
	assert.Equal(t, "lru", s.Policy)
	assert.EqualValues(t, 2, s.Evictions)
	assert.EqualValues(t, 1, s.Flushes)
	assert.EqualValues(t, 1, s.FlushErrors)
	assert.EqualValues(t, 1, s.WriteThroughs)
	assert.EqualValues(t, 2, s.StoreReads)
	assert.InDelta(t, 3.0, s.AvgReadMs, 0.001)
	assert.InDelta(t, 0.75, s.HitRate, 0.001)
	assert.EqualValues(t, 3, s.Resident)
}

func TestMetrics_UnknownState(t *testing.T) {
	s := New().State("nope")
	assert.Equal(t, StateSnapshot{State: "nope"}, s)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordEviction("s", "fifo")
		m.RecordFlush("s", ReasonFlush, nil)
		m.RecordStoreRead("s", OutcomeError, time.Millisecond)
		m.ObserveCache("s", "fifo", 1, 1)
	})
}

func TestMetrics_JSONHandler(t *testing.T) {
	m := New()
	m.RecordEviction("b", "lifo")
	m.RecordEviction("a", "clock")

	rec := httptest.NewRecorder()
	m.JSONHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/stats", nil))

	var body struct {
		States []StateSnapshot `json:"states"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.States, 2)
	assert.Equal(t, "a", body.States[0].State)
	assert.Equal(t, "b", body.States[1].State)
}

func TestPrometheus_Collectors(t *testing.T) {
	InitPrometheus("statecache_test", nil)
	t.Cleanup(func() { promMetrics = nil })

	m := New()
	m.RecordEviction("counts", "fifo")
	m.RecordFlush("counts", ReasonEvict, nil)
	m.RecordFlush("counts", ReasonFlush, errors.New("down"))
	m.RecordStoreRead("counts", OutcomeMiss, time.Millisecond)
	m.ObserveCache("counts", "fifo", 0.5, 2)
	RecordRun("fifo", true)

	assert.Equal(t, 1.0, testutil.ToFloat64(promMetrics.evictionsTotal.WithLabelValues("counts", "fifo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(promMetrics.flushesTotal.WithLabelValues("counts", ReasonEvict)))
	assert.Equal(t, 1.0, testutil.ToFloat64(promMetrics.flushErrorsTotal.WithLabelValues("counts", ReasonFlush)))
	assert.Equal(t, 1.0, testutil.ToFloat64(promMetrics.storeReadsTotal.WithLabelValues("counts", OutcomeMiss)))
	assert.Equal(t, 0.5, testutil.ToFloat64(promMetrics.hitRate.WithLabelValues("counts", "fifo")))
	assert.Equal(t, 2.0, testutil.ToFloat64(promMetrics.resident.WithLabelValues("counts", "fifo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(promMetrics.runsTotal.WithLabelValues("fifo", "success")))

	rec := httptest.NewRecorder()
	PrometheusHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "statecache_test_evictions_total"))
}

func TestPrometheus_Uninitialized(t *testing.T) {
	assert.Nil(t, PrometheusRegistry())
	rec := httptest.NewRecorder()
	PrometheusHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}
