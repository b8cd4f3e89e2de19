package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"vanbiz/internal/infrastructure"
	"vanbiz/pkg/contracts/events"
)

const (
	// broadcastQueueSize bounds messages waiting for the hub loop.
	broadcastQueueSize = 256

	// clientQueueSize bounds messages waiting for one client's write pump.
	clientQueueSize = 64
)

type outbound struct {
	msgType events.MessageType
	payload []byte
}

// Hub keeps the connected dashboard clients and fans run progress out to
// them. All client bookkeeping happens on the Run goroutine.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu           sync.RWMutex
	count        int
	lastSnapshot []byte
	messagesSent int64

	logger  *slog.Logger
	metrics *HubMetrics
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithMetrics records hub activity on m.
func WithMetrics(m *HubMetrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// NewHub creates a hub. Nothing is delivered until Run is called.
func NewHub(logger *slog.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, broadcastQueueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run delivers messages until ctx is cancelled, then closes every client.
// It always returns nil so it can sit in an errgroup beside the server.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	h.logger.InfoContext(ctx, "hub started")

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.remove(ctx, client, "shutdown")
			}
			h.logger.InfoContext(ctx, "hub stopped")
			return nil

		case client := <-h.register:
			h.add(ctx, client)

		case client := <-h.unregister:
			if h.clients[client] {
				h.remove(ctx, client, "normal")
			}

		case msg := <-h.broadcast:
			h.fanOut(ctx, msg)
		}
	}
}

func (h *Hub) add(ctx context.Context, client *Client) {
	h.clients[client] = true

	h.mu.Lock()
	h.count = len(h.clients)
	snapshot := h.lastSnapshot
	h.mu.Unlock()

	h.metrics.recordConnection(ctx)
	h.logger.InfoContext(client.context(), "client registered",
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr),
		slog.Int("total_clients", len(h.clients)))

	connect, err := encode(events.MessageTypeConnect, client.traceID, map[string]string{
		"status":    "connected",
		"client_id": client.id,
	})
	if err == nil {
		h.deliver(ctx, client, connect)
	}

	// Late joiners see the state of the latest run straight away.
	if snapshot != nil {
		h.deliver(ctx, client, snapshot)
	}
}

func (h *Hub) remove(ctx context.Context, client *Client, reason string) {
	delete(h.clients, client)
	close(client.send)

	h.mu.Lock()
	h.count = len(h.clients)
	h.mu.Unlock()

	duration := time.Since(client.connectedAt)
	h.metrics.recordDisconnection(ctx, duration, reason)
	h.logger.InfoContext(client.context(), "client unregistered",
		slog.String("client_id", client.id),
		slog.String("reason", reason),
		slog.Duration("connection_duration", duration),
		slog.Int("total_clients", len(h.clients)))
}

// deliver queues payload for one client and disconnects it when its queue
// is full. It must run on the hub goroutine.
func (h *Hub) deliver(ctx context.Context, client *Client, payload []byte) bool {
	select {
	case client.send <- payload:
		h.mu.Lock()
		h.messagesSent++
		h.mu.Unlock()
		h.metrics.recordSent(ctx, len(payload))
		return true
	default:
		h.metrics.recordDropped(ctx, "client_queue_full")
		h.logger.WarnContext(client.context(), "client send buffer full, disconnecting",
			slog.String("client_id", client.id))
		h.remove(ctx, client, "slow_consumer")
		return false
	}
}

func (h *Hub) fanOut(ctx context.Context, msg outbound) {
	failed := 0
	for client := range h.clients {
		if !h.deliver(ctx, client, msg.payload) {
			failed++
		}
	}

	h.metrics.recordBroadcast(ctx, string(msg.msgType))
	h.logger.DebugContext(ctx, "broadcast delivered",
		slog.String("message_type", string(msg.msgType)),
		slog.Int("clients", len(h.clients)+failed),
		slog.Int("failed", failed),
		slog.Int("payload_size", len(msg.payload)))
}

// Broadcast encodes data as a message of msgType and queues it for every
// client. The trace ID of ctx travels with the message. A full queue drops
// the message rather than blocking the caller.
func (h *Hub) Broadcast(ctx context.Context, msgType events.MessageType, data interface{}) {
	payload, err := encode(msgType, infrastructure.GetTraceID(ctx), data)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to marshal message",
			slog.String("message_type", string(msgType)),
			slog.String("error", err.Error()))
		return
	}

	if msgType == events.MessageTypeRunSnapshot {
		h.mu.Lock()
		h.lastSnapshot = payload
		h.mu.Unlock()
	}

	select {
	case h.broadcast <- outbound{msgType: msgType, payload: payload}:
	default:
		h.metrics.recordDropped(ctx, "broadcast_queue_full")
		h.logger.WarnContext(ctx, "broadcast queue full, message dropped",
			slog.String("message_type", string(msgType)))
	}
}

// BroadcastSnapshot sends the state of a pipeline run.
func (h *Hub) BroadcastSnapshot(ctx context.Context, snapshot events.RunSnapshot) {
	h.Broadcast(ctx, events.MessageTypeRunSnapshot, snapshot)
}

// Register hands a client to the hub. It returns false once the hub stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client. Unknown clients and a stopped hub are no-ops.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Stats returns hub counters for the health endpoint.
func (h *Hub) Stats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return map[string]interface{}{
		"active_clients": h.count,
		"messages_sent":  h.messagesSent,
		"has_snapshot":   h.lastSnapshot != nil,
	}
}

func encode(msgType events.MessageType, traceID string, data interface{}) ([]byte, error) {
	return json.Marshal(events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			ID:        uuid.New().String(),
			Type:      msgType,
			Timestamp: time.Now().UTC(),
			TraceID:   traceID,
		},
		Data: data,
	})
}
