package messagequeue

import (
	"time"

	"github.com/Strob0t/seogov/internal/domain/issue"
	"github.com/Strob0t/seogov/internal/domain/review"
)

// ReviewEventPayload is the schema for reviews.events messages.
type ReviewEventPayload = review.LifecycleEvent

// RequestScheduledPayload is the schema for reviews.request.scheduled messages.
type RequestScheduledPayload = review.Request

// ResponseScheduledPayload is the schema for reviews.response.scheduled messages.
type ResponseScheduledPayload = review.ScheduledResponse

// RemediationPayload is the schema for remediation.scheduled messages.
type RemediationPayload = issue.Remediation

// CycleCompletedPayload is the schema for cycles.completed messages.
type CycleCompletedPayload struct {
	ReportID       string    `json:"report_id"`
	FinishedAt     time.Time `json:"finished_at"`
	Failed         []string  `json:"failed,omitempty"`
	PendingActions int       `json:"pending_actions"`
	Escalated      bool      `json:"escalated"`
}

// TicketCreatedPayload is the schema for tickets.created messages.
type TicketCreatedPayload = issue.Ticket
