package notifysink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/seogov/internal/adapter/memory"
	"github.com/Strob0t/seogov/internal/adapter/ws"
	"github.com/Strob0t/seogov/internal/domain/issue"
	"github.com/Strob0t/seogov/internal/port/notifier"
)

type recordingDispatcher struct {
	sent []notifier.Notification
	err  error
}

func (d *recordingDispatcher) Notify(_ context.Context, n notifier.Notification) error {
	d.sent = append(d.sent, n)
	return d.err
}

type recordingHub struct {
	events []string
}

func (h *recordingHub) BroadcastEvent(_ context.Context, eventType string, payload any) {
	ev, _ := payload.(ws.TicketCreatedEvent)
	h.events = append(h.events, eventType+":"+ev.TicketID)
}

type failingStore struct{}

func (failingStore) SaveTicket(context.Context, *issue.Ticket) error { return errors.New("db down") }

func ticket() *issue.Ticket {
	var set issue.Set
	set.Add(issue.Finding{Category: issue.CategoryTraffic, Kind: issue.KindTrafficDrop, Message: "significant_drop"})
	set.Add(issue.Finding{Category: issue.CategoryContent, Kind: issue.KindThinContent, Message: "Thin content on /a"})
	return issue.NewTicket(set, time.Date(2026, 4, 2, 11, 5, 0, 0, time.UTC))
}

func TestCreateTicket(t *testing.T) {
	store := memory.NewStore()
	d := &recordingDispatcher{}
	hub := &recordingHub{}
	s := New(store, d, hub)

	tk := ticket()
	if err := s.CreateTicket(context.Background(), tk); err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	saved, err := store.ListTickets(context.Background(), 10)
	if err != nil || len(saved) != 1 || saved[0].ID != "TICKET-202604021105" {
		t.Fatalf("saved = %+v, err = %v", saved, err)
	}
	if len(hub.events) != 1 || hub.events[0] != "ticket.created:TICKET-202604021105" {
		t.Fatalf("events = %v", hub.events)
	}
	if len(d.sent) != 1 {
		t.Fatalf("notifications = %d, want 1", len(d.sent))
	}
	n := d.sent[0]
	if n.Level != notifier.LevelError {
		t.Errorf("level = %q, want error for high priority", n.Level)
	}
	if n.Message != "- Significant traffic drop\n- Thin content on /a" {
		t.Errorf("message = %q", n.Message)
	}
}

func TestCreateTicketStoreFailure(t *testing.T) {
	d := &recordingDispatcher{}
	s := New(failingStore{}, d, nil)

	if err := s.CreateTicket(context.Background(), ticket()); err == nil {
		t.Fatal("expected store error")
	}
	if len(d.sent) != 0 {
		t.Fatal("nothing should be announced when the ticket was not stored")
	}
}

func TestCreateTicketNotifyFailure(t *testing.T) {
	errDown := errors.New("smtp down")
	s := New(memory.NewStore(), &recordingDispatcher{err: errDown}, nil)

	if err := s.CreateTicket(context.Background(), ticket()); !errors.Is(err, errDown) {
		t.Fatalf("expected errDown, got %v", err)
	}
}
