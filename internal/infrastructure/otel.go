package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"vanbiz/internal/config"
	"vanbiz/pkg/contracts"
)

const (
	ServiceName = "vanbiz"
	MeterName   = "vanbiz"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "prometheus", "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// DefaultOTelConfig returns a default OpenTelemetry configuration
func DefaultOTelConfig() *OTelConfig {
	return OTelConfigFrom(config.Default().Telemetry)
}

// OTelConfigFrom maps the telemetry section of the application config.
func OTelConfigFrom(cfg config.TelemetryConfig) *OTelConfig {
	env := cfg.Environment
	if env == "" {
		env = "development"
	}

	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: contracts.Version,
		Environment:    env,
		TraceExporter:  cfg.TraceExporter,
		MetricExporter: cfg.MetricExporter,
		EnableMetrics:  cfg.EnableMetrics,
		EnableTracing:  cfg.EnableTracing,
		SampleRatio:    cfg.SampleRatio,
	}
}

// InitializeOTel initializes OpenTelemetry tracing and metrics
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Logger: logger,
	}

	if cfg.EnableTracing {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg *OTelConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(
			stdouttrace.WithPrettyPrint(),
		)
	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))

	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return nil
}

// initializeMetrics sets up OpenTelemetry metrics on a private Prometheus
// registry so repeated initialisation never collides.
func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		registry := promclient.NewRegistry()
		exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)

		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))

		otel.SetMeterProvider(mp)

	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.InfoContext(ctx, "Metrics initialized",
		slog.String("exporter", cfg.MetricExporter))

	return nil
}

// TracerOrNoop returns the configured tracer or the global one, which is a
// no-op until a provider is installed.
func (p *OTelProviders) TracerOrNoop() trace.Tracer {
	if p != nil && p.Tracer != nil {
		return p.Tracer
	}
	return otel.Tracer(MeterName)
}

// MeterOrNoop returns the configured meter or a no-op meter.
func (p *OTelProviders) MeterOrNoop() metric.Meter {
	if p != nil && p.Meter != nil {
		return p.Meter
	}
	return noop.NewMeterProvider().Meter(MeterName)
}

// PipelineMetrics holds the pipeline instruments
type PipelineMetrics struct {
	RunsTotal      metric.Int64Counter
	RunErrors      metric.Int64Counter
	RunDuration    metric.Float64Histogram
	ActiveRuns     metric.Int64UpDownCounter
	StageDuration  metric.Float64Histogram
	StageRowsIn    metric.Int64Counter
	StageRowsOut   metric.Int64Counter
	EntitiesBuilt  metric.Int64Counter
	InventoryMerge metric.Int64Counter
}

// CreatePipelineMetrics creates the pipeline instruments on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	runsTotal, err := meter.Int64Counter(
		"pipeline_runs_total",
		metric.WithDescription("Total number of pipeline runs"),
	)
	if err != nil {
		return nil, err
	}

	runErrors, err := meter.Int64Counter(
		"pipeline_run_errors_total",
		metric.WithDescription("Total number of failed pipeline runs"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"pipeline_run_duration_seconds",
		metric.WithDescription("Pipeline run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	activeRuns, err := meter.Int64UpDownCounter(
		"pipeline_active_runs",
		metric.WithDescription("Number of pipeline runs in progress"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"pipeline_stage_duration_seconds",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stageRowsIn, err := meter.Int64Counter(
		"pipeline_stage_rows_in_total",
		metric.WithDescription("Rows entering a pipeline stage"),
	)
	if err != nil {
		return nil, err
	}

	stageRowsOut, err := meter.Int64Counter(
		"pipeline_stage_rows_out_total",
		metric.WithDescription("Rows leaving a pipeline stage"),
	)
	if err != nil {
		return nil, err
	}

	entitiesBuilt, err := meter.Int64Counter(
		"pipeline_entities_built_total",
		metric.WithDescription("Business and inventory entities built by aggregation"),
	)
	if err != nil {
		return nil, err
	}

	inventoryMerge, err := meter.Int64Counter(
		"pipeline_inventory_merged_total",
		metric.WithDescription("Inventory records merged into a matching business"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RunsTotal:      runsTotal,
		RunErrors:      runErrors,
		RunDuration:    runDuration,
		ActiveRuns:     activeRuns,
		StageDuration:  stageDuration,
		StageRowsIn:    stageRowsIn,
		StageRowsOut:   stageRowsOut,
		EntitiesBuilt:  entitiesBuilt,
		InventoryMerge: inventoryMerge,
	}, nil
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// RecordRunMetrics records metrics for one pipeline run
func RecordRunMetrics(ctx context.Context, metrics *PipelineMetrics, runID string, duration time.Duration, err error) {
	if metrics == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
		metrics.RunErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("error.type", fmt.Sprintf("%T", err))))
	}

	attrs := metric.WithAttributes(attribute.String("status", status))
	metrics.RunsTotal.Add(ctx, 1, attrs)
	metrics.RunDuration.Record(ctx, duration.Seconds(), attrs)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("pipeline.metrics_recorded",
			trace.WithAttributes(
				attribute.String("run.id", runID),
				attribute.String("status", status),
				attribute.Float64("duration_seconds", duration.Seconds()),
			),
		)
	}
}

// RecordStageMetrics records duration and row throughput of one stage
func RecordStageMetrics(ctx context.Context, metrics *PipelineMetrics, stage string, rowsIn, rowsOut int, duration time.Duration) {
	if metrics == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("stage", stage))
	metrics.StageDuration.Record(ctx, duration.Seconds(), attrs)
	metrics.StageRowsIn.Add(ctx, int64(rowsIn), attrs)
	metrics.StageRowsOut.Add(ctx, int64(rowsOut), attrs)
}

// RecordEntities records the number of entities an aggregation produced
func RecordEntities(ctx context.Context, metrics *PipelineMetrics, kind string, n int) {
	if metrics == nil {
		return
	}
	metrics.EntitiesBuilt.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordInventoryMerge records how many inventory records found a business
func RecordInventoryMerge(ctx context.Context, metrics *PipelineMetrics, merged int) {
	if metrics == nil {
		return
	}
	metrics.InventoryMerge.Add(ctx, int64(merged))
}
