package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusHooks records pipeline and cache events as Prometheus metrics.
// It implements both PipelineHooks and CacheHooks.
type PrometheusHooks struct {
	LoadDuration     prometheus.Histogram
	LoadNodes        prometheus.Gauge
	ExtractDuration  prometheus.Histogram
	RunsTotal        *prometheus.CounterVec
	RecordsExtracted prometheus.Gauge
	NodesSkipped     *prometheus.CounterVec
	CacheEvents      *prometheus.CounterVec
	CacheBytes       *prometheus.CounterVec
}

// NewPrometheusHooks creates hooks whose metrics are registered on reg.
// Passing a private registry keeps tests and textfile exports isolated from
// the global default registry.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	f := promauto.With(reg)
	return &PrometheusHooks{
		LoadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "baselineplan_load_duration_seconds",
			Help:    "Time spent reading and decoding the dataset",
			Buckets: prometheus.DefBuckets,
		}),
		LoadNodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "baselineplan_dataset_nodes",
			Help: "Number of nodes in the last loaded dataset",
		}),
		ExtractDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "baselineplan_extract_duration_seconds",
			Help:    "Time spent extracting feature records",
			Buckets: prometheus.DefBuckets,
		}),
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "baselineplan_runs_total",
			Help: "Pipeline stages completed, by stage and result",
		}, []string{"stage", "result"}),
		RecordsExtracted: f.NewGauge(prometheus.GaugeOpts{
			Name: "baselineplan_records_extracted",
			Help: "Number of records produced by the last extraction",
		}),
		NodesSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "baselineplan_nodes_skipped_total",
			Help: "Nodes skipped during extraction, by reason",
		}, []string{"reason"}),
		CacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "baselineplan_cache_events_total",
			Help: "Cache lookups and writes, by key type and event",
		}, []string{"key_type", "event"}),
		CacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "baselineplan_cache_written_bytes_total",
			Help: "Bytes written to the cache, by key type",
		}, []string{"key_type"}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// OnLoadStart does nothing; durations are recorded on completion.
func (h *PrometheusHooks) OnLoadStart(context.Context, string) {}

// OnLoadComplete records the load duration and dataset size.
func (h *PrometheusHooks) OnLoadComplete(_ context.Context, _ string, nodeCount int, d time.Duration, err error) {
	h.LoadDuration.Observe(d.Seconds())
	h.RunsTotal.WithLabelValues("load", result(err)).Inc()
	if err == nil {
		h.LoadNodes.Set(float64(nodeCount))
	}
}

// OnExtractStart does nothing; durations are recorded on completion.
func (h *PrometheusHooks) OnExtractStart(context.Context, int) {}

// OnExtractComplete records the extraction duration and counts.
func (h *PrometheusHooks) OnExtractComplete(_ context.Context, s ExtractSummary, d time.Duration, err error) {
	h.ExtractDuration.Observe(d.Seconds())
	h.RunsTotal.WithLabelValues("extract", result(err)).Inc()
	h.RecordsExtracted.Set(float64(s.Records))
	h.NodesSkipped.WithLabelValues("record_failed").Add(float64(s.Skipped))
	h.NodesSkipped.WithLabelValues("malformed").Add(float64(s.Malformed))
}

// OnCacheHit counts a hit.
func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.CacheEvents.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss counts a miss.
func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.CacheEvents.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet counts a write and its size.
func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.CacheEvents.WithLabelValues(keyType, "set").Inc()
	h.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// Ensure PrometheusHooks implements both hook interfaces.
var (
	_ PipelineHooks = (*PrometheusHooks)(nil)
	_ CacheHooks    = (*PrometheusHooks)(nil)
)
