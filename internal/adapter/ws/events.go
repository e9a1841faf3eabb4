package ws

import (
	"context"
	"encoding/json"

	"github.com/Strob0t/seogov/internal/port/broadcast"
)

var _ broadcast.Broadcaster = (*Hub)(nil)

// CycleCompletedEvent is broadcast when a governance cycle finishes.
type CycleCompletedEvent struct {
	ReportID       string   `json:"report_id"`
	Failed         []string `json:"failed,omitempty"`
	Escalated      bool     `json:"escalated"`
	PendingActions int      `json:"pending_actions"`
}

// ActionQueuedEvent is broadcast when an action starts waiting for approval.
type ActionQueuedEvent struct {
	ActionID string `json:"action_id"`
	Kind     string `json:"kind"`
	Target   string `json:"target,omitempty"`
}

// ActionResolvedEvent is broadcast when an approved action has been executed.
type ActionResolvedEvent struct {
	ActionID string `json:"action_id"`
	Kind     string `json:"kind"`
	Status   string `json:"status"`
}

// TicketCreatedEvent is broadcast when an escalation ticket is delivered.
type TicketCreatedEvent struct {
	TicketID string `json:"ticket_id"`
	Priority string `json:"priority"`
}

// BroadcastEvent marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
