package websocket

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"vanbiz/internal/config"
	"vanbiz/internal/infrastructure"
)

// Handler upgrades dashboard connections and attaches them to the hub.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	cfg      config.WebSocketConfig
	logger   *slog.Logger
}

// NewHandler creates the /ws handler. Cross-origin upgrades are refused by
// the upgrader's default origin check.
func NewHandler(hub *Hub, cfg config.WebSocketConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
		},
		cfg:    cfg,
		logger: logger.With(slog.String("component", "websocket.handler")),
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		h.logger.WarnContext(ctx, "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
		return
	}

	client := NewClient(h.hub, conn, r.RemoteAddr, infrastructure.GetTraceID(ctx), h.cfg, h.logger)
	if !h.hub.Register(client) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
