// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
// The context carries request-scoped values such as the request ID.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain processes in-flight messages, then closes.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	IsConnected() bool
}

// Subjects used by seogov. All of them live in one stream.
const (
	SubjectReviewEvents      = "reviews.events"             // inbound customer lifecycle events
	SubjectRequestScheduled  = "reviews.request.scheduled"  // review requests ready for delivery
	SubjectResponseScheduled = "reviews.response.scheduled" // review replies ready for posting
	SubjectRemediation       = "remediation.scheduled"      // content updates and auto replies
	SubjectCycleCompleted    = "cycles.completed"
	SubjectTicketCreated     = "tickets.created"
)

// StreamSubjects lists the subject filters the stream must capture.
var StreamSubjects = []string{"reviews.>", "remediation.>", "cycles.>", "tickets.>"}
