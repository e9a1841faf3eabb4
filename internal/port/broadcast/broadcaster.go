// Package broadcast defines the port for broadcasting real-time events to connected clients.
package broadcast

import "context"

// Event types pushed to clients.
const (
	EventCycleCompleted = "cycle.completed"
	EventActionQueued   = "action.queued"
	EventActionResolved = "action.resolved"
	EventTicketCreated  = "ticket.created"
)

// Broadcaster sends real-time events to all connected clients.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// Nop drops every event.
type Nop struct{}

func (Nop) BroadcastEvent(context.Context, string, any) {}
