package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"vanbiz/internal/services"
)

// MetricsHandler serves the Prometheus scrape endpoint and the latest
// runtime sample
type MetricsHandler struct {
	prometheus http.Handler
	runtime    services.RuntimeSampler
}

// NewMetricsHandler creates a new metrics handler. prometheus may be nil when
// the exporter is disabled.
func NewMetricsHandler(prometheus http.Handler, runtime services.RuntimeSampler) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, runtime: runtime}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetMetrics)
	r.Get("/runtime", h.GetRuntime)
	return r
}

// GetMetrics handles GET /metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		http.Error(w, "metrics exporter disabled", http.StatusNotFound)
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

// GetRuntime handles GET /metrics/runtime
func (h *MetricsHandler) GetRuntime(w http.ResponseWriter, r *http.Request) {
	if h.runtime == nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"status": "runtime collector disabled"})
		return
	}
	render.JSON(w, r, h.runtime.Last())
}
