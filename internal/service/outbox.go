package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Strob0t/seogov/internal/domain/issue"
	"github.com/Strob0t/seogov/internal/domain/review"
	"github.com/Strob0t/seogov/internal/domain/run"
	"github.com/Strob0t/seogov/internal/port/messagequeue"
	"github.com/Strob0t/seogov/internal/port/outbox"
	"github.com/Strob0t/seogov/internal/port/ticketsink"
)

// QueueOutbox publishes scheduled work, tickets and cycle summaries to the
// message queue for downstream executors.
type QueueOutbox struct {
	queue messagequeue.Queue
}

var (
	_ outbox.Outbox   = (*QueueOutbox)(nil)
	_ ticketsink.Sink = (*QueueOutbox)(nil)
)

// NewQueueOutbox creates a QueueOutbox over q.
func NewQueueOutbox(q messagequeue.Queue) *QueueOutbox {
	return &QueueOutbox{queue: q}
}

func (o *QueueOutbox) ScheduleResponse(ctx context.Context, r *review.ScheduledResponse) error {
	return o.publish(ctx, messagequeue.SubjectResponseScheduled, r)
}

func (o *QueueOutbox) ScheduleRequest(ctx context.Context, r *review.Request) error {
	return o.publish(ctx, messagequeue.SubjectRequestScheduled, r)
}

func (o *QueueOutbox) ScheduleRemediation(ctx context.Context, r *issue.Remediation) error {
	return o.publish(ctx, messagequeue.SubjectRemediation, r)
}

// CreateTicket publishes t so external ticketing systems can pick it up.
func (o *QueueOutbox) CreateTicket(ctx context.Context, t *issue.Ticket) error {
	return o.publish(ctx, messagequeue.SubjectTicketCreated, t)
}

// CycleCompleted publishes a summary of a finished cycle.
func (o *QueueOutbox) CycleCompleted(ctx context.Context, r *run.Report) error {
	escalated := r.Sentinel.Evaluation != nil && r.Sentinel.Evaluation.Status == issue.StatusEscalated
	return o.publish(ctx, messagequeue.SubjectCycleCompleted, messagequeue.CycleCompletedPayload{
		ReportID:       r.ID,
		FinishedAt:     r.FinishedAt,
		Failed:         r.Failed(),
		PendingActions: len(r.PendingActions),
		Escalated:      escalated,
	})
}

func (o *QueueOutbox) publish(ctx context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	return o.queue.Publish(ctx, subject, data)
}
