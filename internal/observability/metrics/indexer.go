package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// IndexerMetrics observes the ingestion side. It satisfies the run use case's
// observer contract.
type IndexerMetrics struct {
	registry *prometheus.Registry
	service  string

	documentsTotal   *prometheus.CounterVec
	documentDuration *prometheus.HistogramVec
	chunksUploaded   *prometheus.CounterVec
	runsTotal        *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	lastRunIngested  prometheus.Gauge
	lastRunSkipped   prometheus.Gauge
}

func NewIndexerMetrics(service string) *IndexerMetrics {
	registry := prometheus.NewRegistry()

	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regsearch",
			Subsystem: "indexer",
			Name:      "documents_total",
			Help:      "Total processed documents by outcome and skip reason.",
		},
		[]string{"service", "status", "reason"},
	)
	documentDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "regsearch",
			Subsystem: "indexer",
			Name:      "document_duration_seconds",
			Help:      "Per-document processing duration in seconds by outcome.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service", "status"},
	)
	chunksUploaded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regsearch",
			Subsystem: "indexer",
			Name:      "chunks_uploaded_total",
			Help:      "Total chunks uploaded to the search index.",
		},
		[]string{"service"},
	)
	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regsearch",
			Subsystem: "indexer",
			Name:      "runs_total",
			Help:      "Total completed ingestion runs.",
		},
		[]string{"service"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "regsearch",
			Subsystem: "indexer",
			Name:      "run_duration_seconds",
			Help:      "Full ingestion run duration in seconds.",
			Buckets:   []float64{1, 10, 60, 300, 900, 1800, 3600, 7200},
		},
		[]string{"service"},
	)
	lastRunIngested := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "regsearch",
			Subsystem: "indexer",
			Name:      "last_run_ingested",
			Help:      "Documents ingested in the most recent run.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	lastRunSkipped := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "regsearch",
			Subsystem: "indexer",
			Name:      "last_run_skipped",
			Help:      "Documents skipped in the most recent run.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		documentsTotal,
		documentDuration,
		chunksUploaded,
		runsTotal,
		runDuration,
		lastRunIngested,
		lastRunSkipped,
	)

	return &IndexerMetrics{
		registry:         registry,
		service:          service,
		documentsTotal:   documentsTotal,
		documentDuration: documentDuration,
		chunksUploaded:   chunksUploaded,
		runsTotal:        runsTotal,
		runDuration:      runDuration,
		lastRunIngested:  lastRunIngested,
		lastRunSkipped:   lastRunSkipped,
	}
}

func (m *IndexerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *IndexerMetrics) DocumentProcessed(status, reason string, chunks int, elapsed time.Duration) {
	if reason == "" {
		reason = "none"
	}
	m.documentsTotal.WithLabelValues(m.service, status, reason).Inc()
	m.documentDuration.WithLabelValues(m.service, status).Observe(elapsed.Seconds())
	if chunks > 0 {
		m.chunksUploaded.WithLabelValues(m.service).Add(float64(chunks))
	}
}

func (m *IndexerMetrics) RunCompleted(ingested, skipped int, elapsed time.Duration) {
	m.runsTotal.WithLabelValues(m.service).Inc()
	m.runDuration.WithLabelValues(m.service).Observe(elapsed.Seconds())
	m.lastRunIngested.Set(float64(ingested))
	m.lastRunSkipped.Set(float64(skipped))
}
