// Package hub coordinates the authenticated realtime channel: it owns the
// registry of live connections, fans full-collection snapshots out to every
// client, and relays client-submitted mutations through the shared state
// repositories.
package hub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopcast/shopcast/internal/metrics"
)

// Hub manages all realtime client connections and handles snapshot
// broadcasting. The client set is owned by the Run loop; registration,
// unregistration, and fan-out all flow through channels so there is a single
// coordination point.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	logger     *slog.Logger
}

// New creates a Hub ready to manage realtime connections. Call Run in its
// own goroutine before attaching clients.
func New(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Attach hands a new client to the hub. The client's snapshot frames must
// already be queued on its send channel: registration is what makes the
// client visible to broadcasts, so anything queued beforehand is delivered
// first.
func (h *Hub) Attach(client *Client) {
	h.register <- client
}

// Detach removes a client from the live set. No further sends are attempted
// to it; there is no persistence side effect.
func (h *Hub) Detach(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Broadcast queues a frame for delivery to every connected client,
// including the one whose event triggered it. Fire-and-forget: the caller
// does not learn about per-client delivery failures.
func (h *Hub) Broadcast(frame []byte) {
	select {
	case h.broadcast <- frame:
	case <-h.ctx.Done():
	}
}

// Run starts the hub's event loop, handling registration, unregistration,
// and snapshot fan-out. Call in a separate goroutine; it runs until
// Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.closeClients()
			return

		case client := <-h.register:
			h.mutex.Lock()
			client.closed = false
			h.clients[client] = true
			count := len(h.clients)
			h.mutex.Unlock()

			metrics.ActiveConnections.Inc()
			h.logger.Info("client connected", "username", client.username, "addr", client.addr, "clients", count)

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closed = true
				count := len(h.clients)
				h.mutex.Unlock()
				close(client.send)
				metrics.ActiveConnections.Dec()
				h.logger.Info("client disconnected", "username", client.username, "addr", client.addr, "clients", count)
			} else {
				h.mutex.Unlock()
			}

		case frame := <-h.broadcast:
			h.fanOut(frame)
		}
	}
}

// fanOut delivers a frame to every live client, evicting clients whose send
// buffers are full. A stuck client must not stall the loop or the others.
func (h *Hub) fanOut(frame []byte) {
	h.mutex.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.RUnlock()

	var failed []*Client
	for _, client := range clients {
		if !h.safeSend(client, frame) {
			failed = append(failed, client)
		}
	}
	h.evict(failed)
}

// safeSend queues a frame on the client's send channel without blocking.
// Returns false if the client is gone or its buffer is full.
func (h *Hub) safeSend(client *Client, frame []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Warn("send to closing client", "addr", client.addr, "panic", r)
		}
	}()

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if _, ok := h.clients[client]; !ok || client.closed {
		return false
	}

	select {
	case client.send <- frame:
		return true
	default:
		return false
	}
}

// evict drops clients that could not accept a frame.
func (h *Hub) evict(clients []*Client) {
	if len(clients) == 0 {
		return
	}

	h.mutex.Lock()
	var channels []chan []byte
	for _, client := range clients {
		if _, ok := h.clients[client]; ok {
			delete(h.clients, client)
			client.closed = true
			channels = append(channels, client.send)
			metrics.ActiveConnections.Dec()
			h.logger.Warn("client evicted, send buffer full", "username", client.username, "addr", client.addr)
		}
	}
	h.mutex.Unlock()

	for _, ch := range channels {
		close(ch)
	}
}

// closeClients closes every live connection during shutdown.
func (h *Hub) closeClients() {
	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			_ = client.conn.Close()
		}
	}
	h.logger.Info("closed realtime connections", "count", len(clients))
}

// Shutdown stops the hub and waits for client goroutines to finish, up to
// the given timeout.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.cancel()
	<-h.done

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-time.After(timeout):
		h.logger.Warn("hub shutdown timed out, client goroutines may still be running")
		return context.DeadlineExceeded
	}
}
