package app

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vanbiz/internal/config"
	"vanbiz/internal/shared/testutil"
	api "vanbiz/pkg/contracts/api/v1"
	"vanbiz/pkg/contracts/events"
)

// newTestConfig points the dataset paths at fresh fixtures and keeps every
// row through the percentile trim.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths = config.PathsConfig{
		BaseDir:       testutil.WriteRawFixtures(t),
		DataDir:       ".",
		OutputDir:     "output",
		LogsDir:       "logs",
		BusinessFile:  "business-licences.csv",
		InventoryFile: "storefronts-inventory.csv",
	}
	cfg.Pipeline.LowerPercentile = 0
	cfg.Pipeline.UpperPercentile = 100
	cfg.RateLimit.Enabled = false
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.ShutdownTimeout = 5 * time.Second
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	a, err := NewApplication(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.OTelProviders.Shutdown(context.Background()) })
	return a
}

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewApplication_Wiring(t *testing.T) {
	a := newTestApp(t, newTestConfig(t))

	assert.NotNil(t, a.Router)
	assert.NotNil(t, a.Handler)
	assert.NotNil(t, a.WebSocketHub)
	assert.NotNil(t, a.DashboardService)
	assert.NotNil(t, a.HealthService)
	assert.NotNil(t, a.RuntimeCollector)
	assert.Equal(t, "127.0.0.1:8080", a.Server.Addr)
	assert.DirExists(t, a.Paths.OutputDir)
}

func TestNewApplication_BadRulesFile(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Pipeline.RulesFile = filepath.Join(t.TempDir(), "missing.yaml")

	logger, _ := testutil.NewTestLogger(t)
	_, err := NewApplication(cfg, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reconciliation rules")
}

func TestApplication_RunLifecycleOverHTTP(t *testing.T) {
	a := newTestApp(t, newTestConfig(t))
	h := a.Handler

	rec := serve(t, h, http.MethodGet, "/api/summary/businesses", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	rec = serve(t, h, http.MethodPost, "/api/pipeline/run", `{"write_outputs":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var run api.RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.NotEmpty(t, run.RunID)
	assert.Positive(t, run.Businesses)
	assert.Positive(t, run.Inventory)

	for _, p := range []string{a.Paths.BusinessSummaryCSV, a.Paths.InventorySummaryJSON, a.Paths.BusinessCleanedCSV} {
		assert.FileExists(t, p)
	}

	rec = serve(t, h, http.MethodGet, "/api/summary/businesses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var businesses api.BusinessListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &businesses))
	assert.Equal(t, run.RunID, businesses.RunID)
	assert.Equal(t, run.Businesses, businesses.Total)

	rec = serve(t, h, http.MethodGet, "/api/charts/bar?top_n=5", "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(t, h, http.MethodGet, "/api/export/xlsx", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"), "xlsx is a zip archive")

	rec = serve(t, h, http.MethodGet, "/api/pipeline/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot events.RunSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, events.StatusCompleted, snapshot.Status)

	rec = serve(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pipeline_runs")
	assert.Contains(t, rec.Body.String(), "http_requests")
}

func TestApplication_RequestIDAndNotFound(t *testing.T) {
	a := newTestApp(t, newTestConfig(t))

	rec := serve(t, a.Handler, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = serve(t, a.Handler, http.MethodDelete, "/api/overview", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestApplication_RunRejectsBadDatasetPaths(t *testing.T) {
	a := newTestApp(t, newTestConfig(t))

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"missing file in data directory", "missing.csv", http.StatusNotFound},
		{"file outside data directory", filepath.ToSlash(filepath.Join(t.TempDir(), "business.csv")), http.StatusBadRequest},
		{"relative escape", "../business.csv", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"business_path":"` + tt.path + `"}`
			rec := serve(t, a.Handler, http.MethodPost, "/api/pipeline/run", body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestApplication_ServeAndShutdown(t *testing.T) {
	a := newTestApp(t, newTestConfig(t))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg events.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, events.MessageTypeConnect, msg.Type)
	conn.Close()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("application did not shut down")
	}
}

func TestOutputsFor(t *testing.T) {
	cfg := newTestConfig(t)
	paths, err := cfg.ResolvePaths()
	require.NoError(t, err)

	cfg.Pipeline.WriteCleaned = false
	out := OutputsFor(cfg, paths)
	assert.Equal(t, paths.BusinessSummaryCSV, out.BusinessCSV)
	assert.Empty(t, out.BusinessCleanedCSV)

	cfg.Pipeline.WriteCleaned = true
	assert.Equal(t, paths.InventoryCleanedCSV, OutputsFor(cfg, paths).InventoryCleanedCSV)

	assert.Equal(t, ';', InputsFor(cfg, paths).Comma)
}
