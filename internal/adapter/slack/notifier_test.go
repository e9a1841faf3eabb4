package slack

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Strob0t/seogov/internal/port/notifier"
)

// Compile-time interface check.
var _ notifier.Notifier = (*Notifier)(nil)

func TestSendNotConfigured(t *testing.T) {
	n := NewNotifier("")
	err := n.Send(context.Background(), notifier.Notification{Title: "test"})
	if !errors.Is(err, notifier.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestRegistryRequiresWebhook(t *testing.T) {
	if _, err := notifier.New(providerName, map[string]string{}); !errors.Is(err, notifier.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	n, err := notifier.New(providerName, map[string]string{"webhook_url": "https://hooks.example.com/x"})
	if err != nil || n.Name() != "slack" {
		t.Fatalf("New = (%v, %v)", n, err)
	}
}

func TestSendTicket(t *testing.T) {
	var got slackMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewNotifier(srv.URL).Send(context.Background(), notifier.Notification{
		Title:   "SEO Issues Requiring Review",
		Message: "Traffic dropped 20%",
		Level:   notifier.LevelError,
		Source:  "ticket.created",
		Fields:  []notifier.Field{{Label: "Ticket", Value: "TICKET-202610190907"}, {Label: "Priority", Value: "high"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Text != "[ERROR] SEO Issues Requiring Review" {
		t.Errorf("fallback text = %q", got.Text)
	}
	if len(got.Blocks) != 4 {
		t.Fatalf("blocks = %d, want header, message, fields, context", len(got.Blocks))
	}
	if f := got.Blocks[2].Fields; len(f) != 2 || f[1].Text != "*Priority*\nhigh" {
		t.Errorf("fields = %+v", f)
	}
}

func TestSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal error"))
	}))
	defer srv.Close()

	err := NewNotifier(srv.URL).Send(context.Background(), notifier.Notification{Title: "Test", Level: notifier.LevelInfo})
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestFieldsCapped(t *testing.T) {
	n := notifier.Notification{Title: "t"}
	for range 12 {
		n.Fields = append(n.Fields, notifier.Field{Label: "k", Value: "v"})
	}
	msg := buildMessage(&n)
	if got := len(msg.Blocks[2].Fields); got != 10 {
		t.Fatalf("fields = %d, want 10", got)
	}
}
