package live

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/zfogg/menuboard/internal/logger"
	"github.com/zfogg/menuboard/internal/metrics"
)

// Publisher announces events to open list pages.
type Publisher interface {
	Publish(ctx context.Context, msg *Message) error
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu      sync.RWMutex
	metrics *Metrics

	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// Metrics tracks hub statistics
type Metrics struct {
	TotalConnections   atomic.Int64
	ActiveConnections  atomic.Int64
	MessagesSent       atomic.Int64
	ConnectionsDropped atomic.Int64
}

// NewHub creates a Hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan []byte, 64),
		metrics:    &Metrics{},
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Run is the hub's event loop. It returns when ctx ends or Stop is called,
// after closing every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	logger.Log.Info("Live hub starting")

	for {
		select {
		case <-ctx.Done():
			h.once.Do(func() { close(h.done) })
			h.shutdown()
			return
		case <-h.done:
			h.shutdown()
			return
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case data := <-h.broadcast:
			h.broadcastMessage(data)
		}
	}
}

// Stop ends Run and waits for it.
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
	<-h.stopped
}

// Publish broadcasts msg to every client connected to this instance.
func (h *Hub) Publish(ctx context.Context, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	metrics.Get().LiveEventsPublished.WithLabelValues(msg.Type).Inc()

	select {
	case h.broadcast <- data:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Close()
	}
}

// Join queues the welcome message and then registers c. The welcome goes
// first because the hub owns c.send once c is registered and closes it on
// shutdown.
func (h *Hub) Join(c *Client) {
	welcome, err := json.Marshal(NewMessage(MessageTypeSystem, SystemPayload{Event: "connected"}))
	if err == nil {
		c.send <- welcome
	}
	h.Register(c)
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Metrics() *Metrics {
	return h.metrics
}

func (h *Hub) registerClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.metrics.TotalConnections.Add(1)
	active := h.metrics.ActiveConnections.Add(1)
	metrics.Get().LiveClients.Set(float64(active))

	logger.Log.Debug("Live client connected",
		zap.String("remote_addr", c.RemoteAddr),
		zap.Int64("active", active),
	)
}

func (h *Hub) unregisterClient(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if !ok {
		return
	}

	active := h.metrics.ActiveConnections.Add(-1)
	metrics.Get().LiveClients.Set(float64(active))
	logger.Log.Debug("Live client disconnected",
		zap.String("remote_addr", c.RemoteAddr),
		zap.Int64("active", active),
	)
}

func (h *Hub) broadcastMessage(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
			h.metrics.MessagesSent.Add(1)
		default:
			// Client's buffer is full; drop it.
			h.metrics.ConnectionsDropped.Add(1)
			go h.Unregister(c)
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.metrics.ActiveConnections.Store(0)
	metrics.Get().LiveClients.Set(0)
	logger.Log.Info("Live hub stopped")
}
