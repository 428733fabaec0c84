package hub

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// GateFunc resolves the request's verified identity. An empty username with
// a nil error means the request is anonymous.
type GateFunc func(r *http.Request) (username string, err error)

// Handler upgrades gated HTTP requests to realtime connections. Anonymous
// upgrade attempts are refused with 401 before the upgrade; there is no
// read-only view for ungated clients.
type Handler struct {
	hub      *Hub
	coord    *Coordinator
	gate     GateFunc
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler builds the websocket endpoint handler.
func NewHandler(h *Hub, coord *Coordinator, gate GateFunc, logger *slog.Logger) *Handler {
	return &Handler{
		hub:    h,
		coord:  coord,
		gate:   gate,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP runs the connection state machine: gate check, upgrade,
// snapshot delivery, then attachment to the hub for broadcast traffic.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	username, err := h.gate(r)
	if err != nil {
		h.logger.Error("gate check failed", "error", err)
		http.Error(w, "session lookup failed", http.StatusInternalServerError)
		return
	}
	if username == "" {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}

	client := newClient(conn, h.hub, h.coord, username, r.RemoteAddr, h.logger)

	// Snapshots are queued before Attach so they land ahead of any
	// broadcast the client becomes eligible for.
	h.coord.SendSnapshots(client)
	h.hub.Attach(client)
}
