package logsink

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Strob0t/seogov/internal/domain/issue"
	"github.com/Strob0t/seogov/internal/domain/review"
)

func TestSinkLogsEverything(t *testing.T) {
	var buf bytes.Buffer
	s := New(slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

	var set issue.Set
	set.Add(issue.Finding{Category: issue.CategoryTraffic, Kind: issue.KindTrafficDrop, Message: "significant_drop"})
	if err := s.CreateTicket(ctx, issue.NewTicket(set, now)); err != nil {
		t.Fatal(err)
	}
	if err := s.ScheduleResponse(ctx, &review.ScheduledResponse{ReviewID: "r1", ScheduleTime: now}); err != nil {
		t.Fatal(err)
	}
	if err := s.ScheduleRequest(ctx, &review.Request{EventType: review.EventPurchase, Channel: review.ChannelEmail}); err != nil {
		t.Fatal(err)
	}
	if err := s.ScheduleRemediation(ctx, &issue.Remediation{Kind: issue.RemediationContentUpdate, Target: "https://example.com/a"}); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		`"ticket_id":"TICKET-202605010930"`,
		`"priority":"high"`,
		`"review_id":"r1"`,
		`"event_type":"purchase"`,
		`"kind":"content_update"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}
