package websocket

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"vanbiz/internal/config"
	"vanbiz/internal/infrastructure"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var heartbeat = []byte(`{"type":"heartbeat"}`)

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn Connection
	send chan []byte

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	pingPeriod time.Duration
	pongWait   time.Duration

	logger *slog.Logger
}

// NewClient wraps conn. The ping and pong timings come from cfg, falling
// back to the defaults when unset.
func NewClient(hub *Hub, conn Connection, remoteAddr, traceID string, cfg config.WebSocketConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if cfg.PingPeriod <= 0 {
		cfg.PingPeriod = config.WebSocketPingPeriod
	}
	if cfg.PongWait <= cfg.PingPeriod {
		cfg.PongWait = cfg.PingPeriod * 2
	}

	id := uuid.New().String()
	attrs := []any{slog.String("component", "websocket.client"), slog.String("client_id", id)}
	if traceID != "" {
		attrs = append(attrs, slog.String("trace_id", traceID))
	}

	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, clientQueueSize),
		id:          id,
		traceID:     traceID,
		remoteAddr:  remoteAddr,
		connectedAt: time.Now(),
		pingPeriod:  cfg.PingPeriod,
		pongWait:    cfg.PongWait,
		logger:      logger.With(attrs...),
	}
}

// ID returns the client identifier sent in the connect message.
func (c *Client) ID() string { return c.id }

func (c *Client) context() context.Context {
	if c.traceID == "" {
		return context.Background()
	}
	return infrastructure.WithTraceID(context.Background(), c.traceID)
}

// ReadPump reads until the peer goes away, then unregisters the client.
// Clients only ever send heartbeats; anything else is ignored.
func (c *Client) ReadPump() {
	ctx := c.context()
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WarnContext(ctx, "unexpected websocket close", slog.String("error", err.Error()))
			}
			return
		}

		if bytes.Equal(bytes.TrimSpace(message), heartbeat) {
			c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
			c.logger.DebugContext(ctx, "heartbeat received")
		}
	}
}

// WritePump writes queued messages and keeps the connection alive with
// pings. It returns when the hub closes the send channel or a write fails.
func (c *Client) WritePump() {
	ctx := c.context()
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(ctx, "error writing message to websocket",
					slog.String("error", err.Error()))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(ctx, "failed to send ping", slog.String("error", err.Error()))
				return
			}
		}
	}
}
