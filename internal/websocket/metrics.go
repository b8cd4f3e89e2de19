package websocket

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HubMetrics holds the OpenTelemetry instruments of the progress hub.
type HubMetrics struct {
	connectionsTotal   metric.Int64Counter
	connectionsActive  metric.Int64UpDownCounter
	connectionDuration metric.Float64Histogram
	messagesSent       metric.Int64Counter
	messageBytes       metric.Int64Counter
	droppedMessages    metric.Int64Counter
	broadcasts         metric.Int64Counter
}

// NewHubMetrics creates the hub instruments on meter.
func NewHubMetrics(meter metric.Meter) (*HubMetrics, error) {
	connectionsTotal, err := meter.Int64Counter(
		"websocket_connections_total",
		metric.WithDescription("Total number of WebSocket connections"),
	)
	if err != nil {
		return nil, err
	}

	connectionsActive, err := meter.Int64UpDownCounter(
		"websocket_connections_active",
		metric.WithDescription("Number of active WebSocket connections"),
	)
	if err != nil {
		return nil, err
	}

	connectionDuration, err := meter.Float64Histogram(
		"websocket_connection_duration_seconds",
		metric.WithDescription("Duration of WebSocket connections"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	messagesSent, err := meter.Int64Counter(
		"websocket_messages_sent_total",
		metric.WithDescription("Messages queued to WebSocket clients"),
	)
	if err != nil {
		return nil, err
	}

	messageBytes, err := meter.Int64Counter(
		"websocket_message_bytes_total",
		metric.WithDescription("Bytes written to WebSocket clients"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	droppedMessages, err := meter.Int64Counter(
		"websocket_messages_dropped_total",
		metric.WithDescription("Messages dropped because a queue was full"),
	)
	if err != nil {
		return nil, err
	}

	broadcasts, err := meter.Int64Counter(
		"websocket_broadcasts_total",
		metric.WithDescription("Broadcast operations by message type"),
	)
	if err != nil {
		return nil, err
	}

	return &HubMetrics{
		connectionsTotal:   connectionsTotal,
		connectionsActive:  connectionsActive,
		connectionDuration: connectionDuration,
		messagesSent:       messagesSent,
		messageBytes:       messageBytes,
		droppedMessages:    droppedMessages,
		broadcasts:         broadcasts,
	}, nil
}

// The Record methods accept a nil receiver so the hub works without metrics.

func (m *HubMetrics) recordConnection(ctx context.Context) {
	if m == nil {
		return
	}
	m.connectionsTotal.Add(ctx, 1)
	m.connectionsActive.Add(ctx, 1)
}

func (m *HubMetrics) recordDisconnection(ctx context.Context, duration time.Duration, reason string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("disconnect_reason", reason))
	m.connectionsActive.Add(ctx, -1, attrs)
	m.connectionDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *HubMetrics) recordSent(ctx context.Context, size int) {
	if m == nil {
		return
	}
	m.messagesSent.Add(ctx, 1)
	m.messageBytes.Add(ctx, int64(size))
}

func (m *HubMetrics) recordDropped(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.droppedMessages.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *HubMetrics) recordBroadcast(ctx context.Context, msgType string) {
	if m == nil {
		return
	}
	m.broadcasts.Add(ctx, 1, metric.WithAttributes(attribute.String("message_type", msgType)))
}
