package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/services/stock"
	"github.com/sirupsen/logrus"
)

// Hub maintains the set of active clients and fans stock events out to the
// clients of the tenant they belong to.
type Hub struct {
	// Registered clients grouped by tenant
	clients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	events     chan stock.Event
	done       chan struct{}

	mu  sync.RWMutex
	log logrus.FieldLogger
}

// NewHub creates a new Hub instance
func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan stock.Event, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.TenantID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.TenantID] = set
			}
			set[client] = struct{}{}
			h.mu.Unlock()
			h.log.WithField("tenant_id", client.TenantID).Debug("stock listener connected")

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case ev := <-h.events:
			h.broadcast(ev)
		}
	}
}

// Publish queues ev for delivery. Events are dropped when the queue is full.
func (h *Hub) Publish(ev stock.Event) {
	select {
	case h.events <- ev:
	default:
		h.log.WithField("type", ev.Type).Warn("stock event queue full, dropping event")
	}
}

// ClientCount returns the number of listeners connected for a tenant.
func (h *Hub) ClientCount(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[tenantID])
}

func (h *Hub) broadcast(ev stock.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal stock event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients[ev.TenantID] {
		select {
		case client.send <- msg:
		default:
			// Buffer full or client dead
			h.drop(client)
		}
	}
}

// drop must be called with mu held.
func (h *Hub) drop(client *Client) {
	set, ok := h.clients[client.TenantID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.TenantID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for client := range set {
			h.drop(client)
		}
	}
}
