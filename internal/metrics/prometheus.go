package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics wraps prometheus collectors for state cache metrics
type PrometheusMetrics struct {
	registry *prometheus.Registry

	// Counters
	evictionsTotal   *prometheus.CounterVec
	flushesTotal     *prometheus.CounterVec
	flushErrorsTotal *prometheus.CounterVec
	storeReadsTotal  *prometheus.CounterVec
	runsTotal        *prometheus.CounterVec

	// Histograms
	storeReadDuration *prometheus.HistogramVec

	// Gauges
	uptime   prometheus.GaugeFunc
	hitRate  *prometheus.GaugeVec
	resident *prometheus.GaugeVec
}

// Default histogram buckets for store read duration (in milliseconds)
var defaultBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000}

var promMetrics *PrometheusMetrics

// InitPrometheus initializes the Prometheus metrics subsystem
func InitPrometheus(namespace string, buckets []float64) {
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}

	registry := prometheus.NewRegistry()
	// Register default Go and process collectors
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	start := time.Now()
	pm := &PrometheusMetrics{
		registry: registry,

		evictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evictions_total",
				Help:      "Total number of pairs evicted from state caches",
			},
			[]string{"state", "policy"},
		),

		flushesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "flushes_total",
				Help:      "Total number of dirty pairs written to the store",
			},
			[]string{"state", "reason"},
		),

		flushErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "flush_errors_total",
				Help:      "Total number of failed store writes",
			},
			[]string{"state", "reason"},
		),

		storeReadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_reads_total",
				Help:      "Total number of cache misses served from the store",
			},
			[]string{"state", "outcome"}, // hit, miss, error
		),

		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of workload replays",
			},
			[]string{"policy", "status"},
		),

		storeReadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_read_duration_milliseconds",
				Help:      "Duration of store reads in milliseconds",
				Buckets:   buckets,
			},
			[]string{"state"},
		),

		hitRate: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cache_hit_rate",
				Help:      "Hit rate of the state cache (hits / probes)",
			},
			[]string{"state", "policy"},
		),

		resident: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cache_resident_entries",
				Help:      "Number of entries resident in the state cache",
			},
			[]string{"state", "policy"},
		),
	}

	pm.uptime = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Time since the metrics subsystem was initialized",
		},
		func() float64 {
			return time.Since(start).Seconds()
		},
	)

	registry.MustRegister(
		pm.evictionsTotal,
		pm.flushesTotal,
		pm.flushErrorsTotal,
		pm.storeReadsTotal,
		pm.runsTotal,
		pm.storeReadDuration,
		pm.uptime,
		pm.hitRate,
		pm.resident,
	)

	promMetrics = pm
}

func recordPrometheusEviction(state, policy string) {
	if promMetrics == nil {
		return
	}
	promMetrics.evictionsTotal.WithLabelValues(state, policy).Inc()
}

func recordPrometheusFlush(state, reason string, err error) {
	if promMetrics == nil {
		return
	}
	if err != nil {
		promMetrics.flushErrorsTotal.WithLabelValues(state, reason).Inc()
		return
	}
	promMetrics.flushesTotal.WithLabelValues(state, reason).Inc()
}

func recordPrometheusStoreRead(state, outcome string, d time.Duration) {
	if promMetrics == nil {
		return
	}
	promMetrics.storeReadsTotal.WithLabelValues(state, outcome).Inc()
	promMetrics.storeReadDuration.WithLabelValues(state).Observe(float64(d.Microseconds()) / 1000)
}

func setPrometheusCache(state, policy string, hitRate float64, resident int) {
	if promMetrics == nil {
		return
	}
	promMetrics.hitRate.WithLabelValues(state, policy).Set(hitRate)
	promMetrics.resident.WithLabelValues(state, policy).Set(float64(resident))
}

// RecordRun records the outcome of a workload replay
func RecordRun(policy string, success bool) {
	if promMetrics == nil {
		return
	}
	status := "success"
	if !success {
		status = "failed"
	}
	promMetrics.runsTotal.WithLabelValues(policy, status).Inc()
}

// PrometheusHandler returns an HTTP handler for the Prometheus metrics endpoint
func PrometheusHandler() http.Handler {
	if promMetrics == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(promMetrics.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// PrometheusRegistry returns the Prometheus registry for custom metric registration
func PrometheusRegistry() *prometheus.Registry {
	if promMetrics == nil {
		return nil
	}
	return promMetrics.registry
}
