package realtime

import (
	"sync"

	"go.uber.org/zap"
)

const clientBuffer = 16

// Client is a single connected subscriber. The transport goroutine drains
// Send until the hub closes it.
type Client struct {
	send chan []byte
}

// Send returns the channel the transport writes from. The channel is
// closed when the hub drops the client.
func (c *Client) Send() <-chan []byte {
	return c.send
}

// Hub fans broadcast payloads out to every registered client. A single
// shared topic, no per-client filtering and no replay for late joiners.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a new client and returns it.
func (h *Hub) Register() *Client {
	client := &Client{send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("realtime client registered", zap.Int("clients", count))
	return client
}

// Unregister removes a client and closes its send channel. Safe to call
// more than once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
}

// Broadcast delivers payload to every client. Clients whose buffers are
// full are dropped rather than blocking the fan-out. Sends happen under
// the read lock: Unregister holds the write lock while closing a send
// channel, so no send can race a close.
func (h *Hub) Broadcast(payload []byte) {
	var slow []*Client
	h.mu.RLock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("dropping slow realtime client")
		h.Unregister(client)
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
