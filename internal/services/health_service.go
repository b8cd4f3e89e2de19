package services

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"vanbiz/internal/config"
	"vanbiz/internal/infrastructure"
	"vanbiz/pkg/contracts"
)

// HubStats is the part of the websocket hub the health checks read.
type HubStats interface {
	ClientCount() int
	Stats() map[string]interface{}
}

// ResultSource reports whether a pipeline run has completed.
type ResultSource interface {
	HasResult() bool
}

// RuntimeSampler exposes the latest runtime statistics.
type RuntimeSampler interface {
	Last() infrastructure.RuntimeStats
}

// HealthService provides health check functionality
type HealthService struct {
	paths     *config.Paths
	hub       HubStats
	results   ResultSource
	runtime   RuntimeSampler
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a health service. Any dependency may be nil; its
// check then reports not_ready.
func NewHealthService(paths *config.Paths, hub HubStats, results ResultSource, sampler RuntimeSampler, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized", slog.String("version", contracts.Version))

	return &HealthService{
		paths:     paths,
		hub:       hub,
		results:   results,
		runtime:   sampler,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
	}
}

// ReadinessCheck checks every dependency. The service is ready once the
// inputs are reachable; a missing result only affects the "pipeline" entry.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services: map[string]interface{}{
			"websocket": hs.checkWebSocketHealth(),
			"data":      hs.checkDataHealth(),
			"pipeline":  hs.checkPipelineHealth(),
		},
	}

	for _, name := range []string{"websocket", "data"} {
		if sh := status.Services[name].(ServiceHealth); sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	rt := map[string]interface{}{
		"uptime":     time.Since(hs.startTime).Seconds(),
		"go_version": runtime.Version(),
		"goroutines": runtime.NumGoroutine(),
	}
	if hs.runtime != nil {
		if last := hs.runtime.Last(); !last.CollectedAt.IsZero() {
			rt["heap_alloc_bytes"] = last.HeapAlloc
			rt["gc_count"] = last.GCCount
			rt["collected_at"] = last.CollectedAt
		}
	}
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime:   rt,
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":      info.Version,
		"full_version": contracts.GetFullVersionString(),
		"prerelease":   contracts.IsPrerelease(),
		"build_time":   info.BuildTime,
		"git_commit":   info.GitCommit,
		"go_version":   info.GoVersion,
		"os":           info.OS,
		"arch":         info.Architecture,
		"api_version":  info.APIVersion,
		"data_format":  info.DataFormat,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

// GetDetailedHealth returns comprehensive health information
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	detail := map[string]interface{}{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"version":   hs.Version(),
	}
	if hs.hub != nil {
		detail["websocket"] = hs.hub.Stats()
	}
	return detail
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "not_ready", Message: "websocket hub not initialized"}
	}
	return ServiceHealth{
		Status: "ready",
		Uptime: time.Since(hs.startTime).String(),
	}
}

func (hs *HealthService) checkPipelineHealth() ServiceHealth {
	if hs.results == nil || !hs.results.HasResult() {
		return ServiceHealth{Status: "not_ready", Message: "no pipeline run has completed"}
	}
	return ServiceHealth{Status: "ready"}
}

// checkDataHealth verifies both raw datasets are present.
func (hs *HealthService) checkDataHealth() ServiceHealth {
	if hs.paths == nil {
		return ServiceHealth{Status: "not_ready", Message: "paths not configured"}
	}
	for _, p := range []string{hs.paths.BusinessFile, hs.paths.InventoryFile} {
		if _, err := os.Stat(p); err != nil {
			return ServiceHealth{Status: "not_ready", Message: "dataset not found: " + p}
		}
	}
	return ServiceHealth{Status: "ready"}
}
