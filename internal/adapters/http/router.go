package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emreakar/regsearch/internal/core/ports"
	"github.com/emreakar/regsearch/internal/observability/metrics"
)

const serviceName = "regsearch-api"

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

type Router struct {
	query   ports.QueryService
	trigger ports.RunTrigger
	metrics *metrics.HTTPServerMetrics
	cfg     Config
	log     *slog.Logger
}

func NewRouter(
	query ports.QueryService,
	trigger ports.RunTrigger,
	serverMetrics *metrics.HTTPServerMetrics,
	cfg Config,
	log *slog.Logger,
) *Router {
	return &Router{
		query:   query,
		trigger: trigger,
		metrics: serverMetrics,
		cfg:     cfg,
		log:     log,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("/v1/index/run", rt.triggerIndexRun)
	mux.HandleFunc("/v1/rag/query", rt.queryRAG)

	var handler http.Handler = mux
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(rt.log, handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// triggerIndexRun publishes a run request for the worker and acknowledges.
// The run itself is long; the API never executes it in-request.
func (rt *Router) triggerIndexRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Offset int `json:"offset"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
	}
	if req.Offset < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "offset must not be negative"})
		return
	}

	if err := rt.trigger.PublishRunRequested(r.Context(), req.Offset); err != nil {
		rt.log.Error("run trigger publish failed", "offset", req.Offset, "error", err)
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": "could not schedule indexing run"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status": "scheduled",
		"offset": req.Offset,
	})
}

func (rt *Router) queryRAG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	start := time.Now()
	answer, err := rt.query.Answer(r.Context(), req.Question)
	if err != nil {
		rt.log.Error("rag query failed",
			"request_id", requestIDFromContext(r.Context()), "error", err)
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordQueryObservation(serviceName, len(answer.Sources), time.Since(start))
	}
	writeJSON(w, http.StatusOK, answer)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
