package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// contextKey is a type for context keys
type contextKey string

const (
	// TraceIDContextKey carries the request or run trace id
	TraceIDContextKey contextKey = "trace_id"
	// RunIDContextKey carries the id of the pipeline run in progress
	RunIDContextKey contextKey = "run_id"
)

// GenerateTraceID creates a new unique trace ID using UUID v4
func GenerateTraceID() string {
	return uuid.New().String()
}

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID returns the explicit trace id, falling back to the active
// OpenTelemetry span.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDContextKey).(string); ok && traceID != "" {
		return traceID
	}
	return TraceIDFromContext(ctx)
}

// EnsureTraceID returns ctx unchanged when it already carries a trace id.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) == "" {
		return WithTraceID(ctx, GenerateTraceID())
	}
	return ctx
}

// WithRunID tags ctx with a pipeline run id. Records logged with the
// returned context carry run_id.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDContextKey, runID)
}

// GetRunID returns the pipeline run id, or "".
func GetRunID(ctx context.Context) string {
	runID, _ := ctx.Value(RunIDContextKey).(string)
	return runID
}

// LoggerWithContext returns the global logger with the ids from ctx bound
// as attributes, for code that logs without passing ctx along.
func LoggerWithContext(ctx context.Context) *slog.Logger {
	logger := GetLogger()
	if traceID := GetTraceID(ctx); traceID != "" {
		logger = logger.With(slog.String("trace_id", traceID))
	}
	if runID := GetRunID(ctx); runID != "" {
		logger = logger.With(slog.String("run_id", runID))
	}
	return logger
}

// WithComponent scopes a logger to a component, defaulting to the global
// logger.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	return logger.With(slog.String("component", component))
}
