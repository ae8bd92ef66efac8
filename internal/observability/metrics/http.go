package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	queryRequestsTotal     *prometheus.CounterVec
	queryRetrievalHitTotal *prometheus.CounterVec
	queryNoContextTotal    *prometheus.CounterVec
	queryRetrievedContexts *prometheus.HistogramVec
	queryDuration          *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regsearch",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "regsearch",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "regsearch",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queryRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regsearch",
			Subsystem: "query",
			Name:      "requests_total",
			Help:      "Total successful retrieval queries.",
		},
		[]string{"service"},
	)
	queryRetrievalHitTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regsearch",
			Subsystem: "query",
			Name:      "retrieval_hit_total",
			Help:      "Total queries answered with at least one source context.",
		},
		[]string{"service"},
	)
	queryNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regsearch",
			Subsystem: "query",
			Name:      "no_context_total",
			Help:      "Total queries answered without source contexts.",
		},
		[]string{"service"},
	)
	queryRetrievedContexts := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "regsearch",
			Subsystem: "query",
			Name:      "retrieved_contexts",
			Help:      "Distribution of fused contexts per successful query.",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8, 13},
		},
		[]string{"service"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "regsearch",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "End-to-end query duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		queryRequestsTotal,
		queryRetrievalHitTotal,
		queryNoContextTotal,
		queryRetrievedContexts,
		queryDuration,
	)

	return &HTTPServerMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		queryRequestsTotal:     queryRequestsTotal,
		queryRetrievalHitTotal: queryRetrievalHitTotal,
		queryNoContextTotal:    queryNoContextTotal,
		queryRetrievedContexts: queryRetrievedContexts,
		queryDuration:          queryDuration,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *HTTPServerMetrics) RecordQueryObservation(service string, sourceCount int, duration time.Duration) {
	m.queryRequestsTotal.WithLabelValues(service).Inc()
	m.queryRetrievedContexts.WithLabelValues(service).Observe(float64(sourceCount))
	m.queryDuration.WithLabelValues(service).Observe(duration.Seconds())

	if sourceCount > 0 {
		m.queryRetrievalHitTotal.WithLabelValues(service).Inc()
		return
	}
	m.queryNoContextTotal.WithLabelValues(service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
