// Package logsink is the fallback ticket sink and outbox: everything handed
// to it is written to the structured log and considered delivered.
package logsink

import (
	"context"
	"log/slog"

	"github.com/Strob0t/seogov/internal/domain/issue"
	"github.com/Strob0t/seogov/internal/domain/review"
	"github.com/Strob0t/seogov/internal/port/outbox"
	"github.com/Strob0t/seogov/internal/port/ticketsink"
)

// Sink logs tickets and scheduled work.
type Sink struct {
	log *slog.Logger
}

var (
	_ ticketsink.Sink = (*Sink)(nil)
	_ outbox.Outbox   = (*Sink)(nil)
)

// New creates a Sink writing to log.
func New(log *slog.Logger) *Sink {
	if log == nil {
		log = slog.Default()
	}
	return &Sink{log: log.With("component", "logsink")}
}

func (s *Sink) CreateTicket(ctx context.Context, t *issue.Ticket) error {
	s.log.InfoContext(ctx, "ticket created",
		"ticket_id", t.ID,
		"priority", t.Priority,
		"traffic", t.Issues.Traffic,
		"reviews", len(t.Issues.Reviews),
		"content", len(t.Issues.Content),
	)
	return nil
}

func (s *Sink) ScheduleResponse(ctx context.Context, r *review.ScheduledResponse) error {
	s.log.InfoContext(ctx, "review response scheduled",
		"review_id", r.ReviewID,
		"sentiment", r.Analysis.Sentiment,
		"schedule_time", r.ScheduleTime,
	)
	return nil
}

func (s *Sink) ScheduleRequest(ctx context.Context, r *review.Request) error {
	s.log.InfoContext(ctx, "review request scheduled",
		"customer_id", r.Customer.ID,
		"event_type", r.EventType,
		"channel", r.Channel,
		"scheduled_time", r.ScheduledTime,
	)
	return nil
}

func (s *Sink) ScheduleRemediation(ctx context.Context, r *issue.Remediation) error {
	s.log.InfoContext(ctx, "remediation scheduled",
		"kind", r.Kind,
		"target", r.Target,
		"issue", r.Issue,
	)
	return nil
}
