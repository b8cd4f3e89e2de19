package infrastructure

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeStats is a point-in-time view of the process.
type RuntimeStats struct {
	GoRoutines  int64     `json:"goroutines"`
	HeapAlloc   int64     `json:"heap_alloc_bytes"`
	HeapSys     int64     `json:"heap_sys_bytes"`
	GCCount     uint32    `json:"gc_count"`
	Uptime      float64   `json:"uptime_seconds"`
	CollectedAt time.Time `json:"collected_at"`
}

// RuntimeCollector samples Go runtime statistics on an interval and records
// them as gauges.
type RuntimeCollector struct {
	goRoutines metric.Int64Gauge
	heapAlloc  metric.Int64Gauge
	heapSys    metric.Int64Gauge
	uptime     metric.Float64Gauge

	startTime time.Time
	interval  time.Duration

	mu   sync.RWMutex
	last RuntimeStats
}

// NewRuntimeCollector creates the runtime gauges on meter
func NewRuntimeCollector(meter metric.Meter, interval time.Duration) (*RuntimeCollector, error) {
	goRoutines, err := meter.Int64Gauge(
		"process_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, err
	}

	heapAlloc, err := meter.Int64Gauge(
		"process_heap_alloc_bytes",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	heapSys, err := meter.Int64Gauge(
		"process_heap_sys_bytes",
		metric.WithDescription("Heap memory obtained from the OS"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	uptime, err := meter.Float64Gauge(
		"process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	if interval <= 0 {
		interval = 15 * time.Second
	}

	return &RuntimeCollector{
		goRoutines: goRoutines,
		heapAlloc:  heapAlloc,
		heapSys:    heapSys,
		uptime:     uptime,
		startTime:  time.Now(),
		interval:   interval,
	}, nil
}

// Collect samples the runtime and records every gauge
func (c *RuntimeCollector) Collect(ctx context.Context) RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := RuntimeStats{
		GoRoutines:  int64(runtime.NumGoroutine()),
		HeapAlloc:   int64(mem.HeapAlloc),
		HeapSys:     int64(mem.HeapSys),
		GCCount:     mem.NumGC,
		Uptime:      time.Since(c.startTime).Seconds(),
		CollectedAt: time.Now(),
	}

	c.goRoutines.Record(ctx, stats.GoRoutines)
	c.heapAlloc.Record(ctx, stats.HeapAlloc)
	c.heapSys.Record(ctx, stats.HeapSys)
	c.uptime.Record(ctx, stats.Uptime)

	c.mu.Lock()
	c.last = stats
	c.mu.Unlock()

	return stats
}

// Run collects on every tick until ctx is done.
func (c *RuntimeCollector) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Collect(ctx)

	for {
		select {
		case <-ticker.C:
			c.Collect(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

// Last returns the most recent sample.
func (c *RuntimeCollector) Last() RuntimeStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}
