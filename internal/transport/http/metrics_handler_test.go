package http

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMetricsRouter(h *MetricsHandler) http.Handler {
	r := chi.NewRouter()
	r.Mount("/metrics", h.Routes())
	return r
}

func TestMetricsHandler_Prometheus(t *testing.T) {
	prom := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = w.Write([]byte("pipeline_runs_total 1\n"))
	})
	router := newMetricsRouter(NewMetricsHandler(prom, stubSampler{}))

	rec := doRequest(t, router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pipeline_runs_total 1")

	rec = doRequest(t, router, http.MethodGet, "/metrics/runtime", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(7), decodeBody(t, rec)["goroutines"])
}

func TestMetricsHandler_Disabled(t *testing.T) {
	router := newMetricsRouter(NewMetricsHandler(nil, nil))

	assert.Equal(t, http.StatusNotFound, doRequest(t, router, http.MethodGet, "/metrics", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, doRequest(t, router, http.MethodGet, "/metrics/runtime", "", nil).Code)
}
