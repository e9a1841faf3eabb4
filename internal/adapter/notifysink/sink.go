// Package notifysink delivers escalation tickets: the ticket is stored,
// announced through the configured notifiers and pushed to websocket clients.
package notifysink

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Strob0t/seogov/internal/adapter/ws"
	"github.com/Strob0t/seogov/internal/domain/issue"
	"github.com/Strob0t/seogov/internal/port/broadcast"
	"github.com/Strob0t/seogov/internal/port/notifier"
	"github.com/Strob0t/seogov/internal/port/ticketsink"
)

// TicketStore persists tickets.
type TicketStore interface {
	SaveTicket(ctx context.Context, t *issue.Ticket) error
}

// Dispatcher fans a notification out to providers.
type Dispatcher interface {
	Notify(ctx context.Context, n notifier.Notification) error
}

// Sink implements ticketsink.Sink.
type Sink struct {
	store  TicketStore
	notify Dispatcher
	hub    broadcast.Broadcaster
}

var _ ticketsink.Sink = (*Sink)(nil)

// New creates a Sink. notify and hub may be nil.
func New(store TicketStore, notify Dispatcher, hub broadcast.Broadcaster) *Sink {
	if hub == nil {
		hub = broadcast.Nop{}
	}
	return &Sink{store: store, notify: notify, hub: hub}
}

// CreateTicket stores t first; notification failures are reported after
// the ticket is safely recorded.
func (s *Sink) CreateTicket(ctx context.Context, t *issue.Ticket) error {
	if err := s.store.SaveTicket(ctx, t); err != nil {
		return fmt.Errorf("save ticket %s: %w", t.ID, err)
	}
	s.hub.BroadcastEvent(ctx, broadcast.EventTicketCreated, ws.TicketCreatedEvent{
		TicketID: t.ID,
		Priority: string(t.Priority),
	})
	if s.notify == nil {
		return nil
	}
	if err := s.notify.Notify(ctx, Notification(t)); err != nil {
		return fmt.Errorf("notify ticket %s: %w", t.ID, err)
	}
	return nil
}

// Notification renders a ticket for chat and mail providers.
func Notification(t *issue.Ticket) notifier.Notification {
	level := notifier.LevelWarning
	if t.Priority == issue.PriorityHigh {
		level = notifier.LevelError
	}

	var lines []string
	if t.Issues.Traffic {
		lines = append(lines, "- Significant traffic drop")
	}
	for _, group := range [][]string{t.Issues.CTR, t.Issues.Reviews, t.Issues.Content} {
		for _, msg := range group {
			lines = append(lines, "- "+msg)
		}
	}

	return notifier.Notification{
		Title:   t.Title,
		Message: strings.Join(lines, "\n"),
		Level:   level,
		Source:  broadcast.EventTicketCreated,
		Fields: []notifier.Field{
			{Label: "Ticket", Value: t.ID},
			{Label: "Priority", Value: string(t.Priority)},
			{Label: "Reviews", Value: strconv.Itoa(len(t.Issues.Reviews))},
			{Label: "Content", Value: strconv.Itoa(len(t.Issues.Content))},
		},
	}
}
