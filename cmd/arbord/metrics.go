package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arbordb/arbor"
)

// serverMetrics implements arbor.MetricsCollector on a Prometheus registry.
type serverMetrics struct {
	opLatency *prometheus.HistogramVec
	queryK    prometheus.Histogram
}

func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	m := &serverMetrics{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arbor_operation_latency_seconds",
			Help:    "Latency of index operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		queryK: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arbor_query_k",
			Help:    "Requested neighbor counts",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
	reg.MustRegister(m.opLatency, m.queryK)
	return m
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (m *serverMetrics) RecordInsert(d time.Duration, err error) {
	m.opLatency.WithLabelValues("insert", statusLabel(err)).Observe(d.Seconds())
}

func (m *serverMetrics) RecordQuery(k int, d time.Duration, err error) {
	m.opLatency.WithLabelValues("query", statusLabel(err)).Observe(d.Seconds())
	m.queryK.Observe(float64(k))
}

func (m *serverMetrics) RecordStatus(d time.Duration, err error) {
	m.opLatency.WithLabelValues("status", statusLabel(err)).Observe(d.Seconds())
}

// registerForestMetrics exposes forest memory and cache counters on reg.
func registerForestMetrics(reg prometheus.Registerer, f *arbor.Forest) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "arbor_memory_usage_bytes",
			Help: "Estimated bytes of resident trees",
		}, func() float64 { return float64(f.MemoryUsage()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "arbor_memory_budget_bytes",
			Help: "Configured resident memory budget",
		}, func() float64 { return float64(f.MemoryBudget()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "arbor_cache_hits_total",
			Help: "Lookups served from resident trees",
		}, func() float64 { hits, _, _ := f.CacheStats(); return float64(hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "arbor_cache_misses_total",
			Help: "Lookups that required a disk load",
		}, func() float64 { _, misses, _ := f.CacheStats(); return float64(misses) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "arbor_cache_evictions_total",
			Help: "Trees evicted to honor the memory budget",
		}, func() float64 { _, _, evictions := f.CacheStats(); return float64(evictions) }),
	)
}
