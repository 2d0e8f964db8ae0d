package stock

import "time"

// EventType names a stock change pushed to listeners.
type EventType string

const (
	EventPutAway       EventType = "STOCK_PUT_AWAY"
	EventStatusChanged EventType = "STOCK_STATUS_CHANGED"
	EventAllocated     EventType = "STOCK_ALLOCATED"
	EventReconciled    EventType = "STOCK_RECONCILED"
)

// Event is published after the change it describes has been committed.
type Event struct {
	Type     EventType `json:"type"`
	TenantID string    `json:"tenantId"`
	Data     any       `json:"data"`
	At       time.Time `json:"at"`
}

// Publisher delivers events to whoever listens for the tenant.
type Publisher interface {
	Publish(ev Event)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
