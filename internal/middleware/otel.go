package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"vanbiz/internal/infrastructure"
)

// HTTPMetrics holds the request instruments of the dashboard API.
type HTTPMetrics struct {
	RequestsTotal   metric.Int64Counter
	RequestDuration metric.Float64Histogram
	ActiveRequests  metric.Int64UpDownCounter
}

// NewHTTPMetrics creates the HTTP instruments on meter.
func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	requestsTotal, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of HTTP requests in flight"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{
		RequestsTotal:   requestsTotal,
		RequestDuration: requestDuration,
		ActiveRequests:  activeRequests,
	}, nil
}

// Metrics records count, latency and in-flight requests per route pattern.
// Spans come from otelhttp around the router; when one is active its trace
// ID replaces the request ID used for log correlation.
func Metrics(m *HTTPMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := withSpanTraceID(r.Context())
			r = r.WithContext(ctx)

			m.ActiveRequests.Add(ctx, 1)
			defer m.ActiveRequests.Add(ctx, -1)

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := metric.WithAttributes(
				attribute.String("method", r.Method),
				attribute.String("route", routePattern(r)),
				attribute.Int("status_code", status),
			)
			m.RequestsTotal.Add(ctx, 1, attrs)
			m.RequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		})
	}
}

func withSpanTraceID(ctx context.Context) context.Context {
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		return infrastructure.WithTraceID(ctx, sc.TraceID().String())
	}
	return ctx
}

// routePattern returns the matched chi pattern, which keeps metric label
// cardinality bounded, or the raw path outside a router.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return r.URL.Path
}
