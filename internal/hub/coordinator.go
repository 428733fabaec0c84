package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shopcast/shopcast/internal/metrics"
	"github.com/shopcast/shopcast/internal/models"
	"github.com/shopcast/shopcast/internal/storage"
)

// defaultStoreTimeout bounds each persistence round-trip so a hung store
// surfaces as a storage error instead of wedging the connection.
const defaultStoreTimeout = 5 * time.Second

// Coordinator implements the persist-then-broadcast protocol over the
// shared state repositories. It never touches storage engines directly,
// only the repository contracts.
type Coordinator struct {
	messages storage.MessageStore
	products storage.ProductStore
	hub      *Hub
	logger   *slog.Logger
	timeout  time.Duration
}

// NewCoordinator wires the coordinator over both repositories.
func NewCoordinator(messages storage.MessageStore, products storage.ProductStore, hub *Hub, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		messages: messages,
		products: products,
		hub:      hub,
		logger:   logger,
		timeout:  defaultStoreTimeout,
	}
}

// SendSnapshots queues the current message and product snapshots for a
// single client. Called before the client is attached to the hub, so both
// snapshots arrive ahead of any broadcast traffic. The two sends are
// independent; nothing may assume their relative order.
func (c *Coordinator) SendSnapshots(client *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if msgs, err := c.messages.GetMessages(ctx); err != nil {
		metrics.StorageErrors.WithLabelValues("messages").Inc()
		c.logger.Error("message snapshot failed", "username", client.username, "error", err)
		c.sendError(client, EventMessages, err)
	} else {
		c.sendEvent(client, EventMessages, msgs)
	}

	if products, err := c.products.GetProducts(ctx); err != nil {
		metrics.StorageErrors.WithLabelValues("products").Inc()
		c.logger.Error("product snapshot failed", "username", client.username, "error", err)
		c.sendError(client, EventProducts, err)
	} else {
		c.sendEvent(client, EventProducts, products)
	}
}

// Dispatch routes one inbound event. A panic while handling an event is
// isolated to that event: it is logged and the connection stays usable.
func (c *Coordinator) Dispatch(client *Client, env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("event handler panic", "event", env.Event, "username", client.username, "panic", r)
		}
	}()

	switch env.Event {
	case EventNewMessage:
		c.handleNewMessage(client, env.Data)
	case EventNewProduct:
		c.handleNewProduct(client, env.Data)
	default:
		c.logger.Warn("unknown event", "event", env.Event, "username", client.username)
		c.sendError(client, env.Event, errUnknownEvent)
	}
}

// handleNewMessage persists the submitted message, then broadcasts the full
// updated log to every connected client, including the sender. On
// persistence failure nothing is broadcast; only the sender is notified.
func (c *Coordinator) handleNewMessage(client *Client, data json.RawMessage) {
	var msg models.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(client, EventNewMessage, err)
		return
	}
	// The verified session identity is authoritative for authorship.
	msg.Author = client.username

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if _, err := c.messages.SaveMessage(ctx, &msg); err != nil {
		metrics.StorageErrors.WithLabelValues("messages").Inc()
		c.logger.Error("message save failed", "username", client.username, "error", err)
		c.sendError(client, EventNewMessage, err)
		return
	}

	msgs, err := c.messages.GetMessages(ctx)
	if err != nil {
		metrics.StorageErrors.WithLabelValues("messages").Inc()
		c.logger.Error("message snapshot failed after save", "username", client.username, "error", err)
		c.sendError(client, EventNewMessage, err)
		return
	}

	c.broadcastEvent(EventMessages, msgs)
}

// handleNewProduct follows the identical protocol against the catalog.
func (c *Coordinator) handleNewProduct(client *Client, data json.RawMessage) {
	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		c.sendError(client, EventNewProduct, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if _, err := c.products.SaveProduct(ctx, &product); err != nil {
		metrics.StorageErrors.WithLabelValues("products").Inc()
		c.logger.Error("product save failed", "username", client.username, "error", err)
		c.sendError(client, EventNewProduct, err)
		return
	}

	products, err := c.products.GetProducts(ctx)
	if err != nil {
		metrics.StorageErrors.WithLabelValues("products").Inc()
		c.logger.Error("product snapshot failed after save", "username", client.username, "error", err)
		c.sendError(client, EventNewProduct, err)
		return
	}

	c.broadcastEvent(EventProducts, products)
}

// sendEvent queues an event frame on one client only.
func (c *Coordinator) sendEvent(client *Client, event string, payload any) {
	frame, err := encodeEvent(event, payload)
	if err != nil {
		c.logger.Error("encode event failed", "event", event, "error", err)
		return
	}
	if !client.queue(frame) {
		c.logger.Warn("client send buffer full, frame dropped", "event", event, "username", client.username)
	}
}

// sendError reports a failure back to the originating connection only.
func (c *Coordinator) sendError(client *Client, event string, err error) {
	c.sendEvent(client, EventError, errorPayload{Event: event, Reason: err.Error()})
}

// broadcastEvent fans a full-collection snapshot out to every client.
func (c *Coordinator) broadcastEvent(event string, payload any) {
	frame, err := encodeEvent(event, payload)
	if err != nil {
		c.logger.Error("encode broadcast failed", "event", event, "error", err)
		return
	}
	metrics.Broadcasts.WithLabelValues(event).Inc()
	c.hub.Broadcast(frame)
}
