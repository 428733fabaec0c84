package hub

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// Client represents one realtime connection. The originating HTTP session
// has already been gated, so the username here is a verified identity, not
// client-supplied data.
type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	hub      *Hub
	coord    *Coordinator
	username string
	addr     string
	closed   bool
	logger   *slog.Logger
}

// newClient wraps an upgraded websocket connection for the given identity.
func newClient(conn *websocket.Conn, hub *Hub, coord *Coordinator, username, addr string, logger *slog.Logger) *Client {
	if conn != nil {
		conn.SetReadLimit(maxMessageSize)
	}
	return &Client{
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		hub:      hub,
		coord:    coord,
		username: username,
		addr:     addr,
		logger:   logger,
	}
}

// queue places a frame on the send channel before or after attachment.
// Returns false if the buffer is full.
func (c *Client) queue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// readPump processes inbound events for this connection in arrival order.
// Each connection has its own pump goroutine, so one connection's pending
// persistence call never blocks another's events.
func (c *Client) readPump() {
	defer func() {
		c.hub.Detach(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.logger.Warn("invalid frame", "addr", c.addr, "error", err)
			continue
		}

		c.coord.Dispatch(c, env)
	}
}

// logReadError keeps expected disconnects quiet and surfaces the rest.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.logger.Warn("frame exceeded size limit", "addr", c.addr, "limit", maxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
	case errors.Is(err, io.EOF):
	default:
		c.logger.Warn("read error", "addr", c.addr, "error", err)
	}
}

// writePump drains the send channel to the socket and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
