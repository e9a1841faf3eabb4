package service

import (
	"context"
	"sync"
	"time"

	"github.com/Strob0t/seogov/internal/domain/issue"
	"github.com/Strob0t/seogov/internal/domain/metrics"
	"github.com/Strob0t/seogov/internal/domain/review"
)

// recordingOutbox captures scheduled work; err fails every call.
type recordingOutbox struct {
	mu           sync.Mutex
	responses    []review.ScheduledResponse
	requests     []review.Request
	remediations []issue.Remediation
	err          error
}

func (o *recordingOutbox) ScheduleResponse(_ context.Context, r *review.ScheduledResponse) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.responses = append(o.responses, *r)
	return nil
}

func (o *recordingOutbox) ScheduleRequest(_ context.Context, r *review.Request) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.requests = append(o.requests, *r)
	return nil
}

func (o *recordingOutbox) ScheduleRemediation(_ context.Context, r *issue.Remediation) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.remediations = append(o.remediations, *r)
	return nil
}

type recordingSink struct {
	tickets []issue.Ticket
	err     error
}

func (s *recordingSink) CreateTicket(_ context.Context, t *issue.Ticket) error {
	s.tickets = append(s.tickets, *t)
	return s.err
}

type stubMetrics struct {
	snap  *metrics.Snapshot
	err   error
	panic bool
}

func (s *stubMetrics) Snapshot(context.Context) (*metrics.Snapshot, error) {
	if s.panic {
		panic("snapshot source exploded")
	}
	return s.snap, s.err
}

type stubReviews struct {
	reviews []review.Review
	err     error
}

func (s *stubReviews) PendingReviews(context.Context) ([]review.Review, error) {
	return s.reviews, s.err
}

type hubEvent struct {
	Type    string
	Payload any
}

type recordingHub struct {
	mu     sync.Mutex
	events []hubEvent
}

func (h *recordingHub) BroadcastEvent(_ context.Context, eventType string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, hubEvent{eventType, payload})
}

func (h *recordingHub) count(eventType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, e := range h.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

type recordingRecorder struct {
	mu       sync.Mutex
	cycles   [][]string
	resolved []string
	triaged  int
	issues   []map[string]int
}

func (r *recordingRecorder) CycleCompleted(_ context.Context, _ time.Duration, failed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cycles = append(r.cycles, failed)
}

func (r *recordingRecorder) IssuesDetected(_ context.Context, counts map[string]int, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issues = append(r.issues, counts)
}

func (r *recordingRecorder) ReviewTriaged(context.Context, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triaged++
}

func (r *recordingRecorder) ExpenseDecided(context.Context, string, float64, bool) {}

func (r *recordingRecorder) ActionResolved(_ context.Context, kind, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = append(r.resolved, kind+":"+status)
}
