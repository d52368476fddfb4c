package ingest

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 摄取与问答流水线的Prometheus指标
type Metrics struct {
	TicksTotal        *prometheus.CounterVec
	DocumentsTotal    *prometheus.CounterVec
	ChunksIndexed     prometheus.Counter
	ArchiveFailures   prometheus.Counter
	TickDuration      prometheus.Histogram
	ChatRequestsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	metricsOnce    sync.Once
)

// GetMetrics 获取全局指标集合，首次调用时注册
// promauto重复注册会panic，必须保证只注册一次
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		defaultMetrics = registerMetrics()
	})
	return defaultMetrics
}

func registerMetrics() *Metrics {
	return &Metrics{
		TicksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_ticks_total",
				Help: "Total number of ingestion ticks",
			},
			[]string{"status"}, // completed, skipped, aborted
		),
		DocumentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_documents_total",
				Help: "Documents processed by the ingestion pipeline",
			},
			[]string{"outcome"}, // embedded, failed, empty
		),
		ChunksIndexed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_chunks_indexed_total",
				Help: "Chunks embedded and written to the vector store",
			},
		),
		ArchiveFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_archive_failures_total",
				Help: "Embedded documents that were not archived in the same tick",
			},
		),
		TickDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ingest_tick_duration_seconds",
				Help:    "Duration of ingestion ticks",
				Buckets: prometheus.DefBuckets,
			},
		),
		ChatRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_requests_total",
				Help: "Chat requests by outcome",
			},
			[]string{"outcome"}, // answered, no_answer, no_context, error
		),
	}
}
