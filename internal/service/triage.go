package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Strob0t/seogov/internal/domain/review"
	"github.com/Strob0t/seogov/internal/port/messagequeue"
	"github.com/Strob0t/seogov/internal/port/outbox"
	"github.com/Strob0t/seogov/internal/port/telemetry"
	"github.com/Strob0t/seogov/internal/worker"
)

// Triaged is the outcome of processing one review. Escalated reviews are
// not scheduled; Response holds the drafted reply for a human to approve.
type Triaged struct {
	Review    review.Review            `json:"review"`
	Response  review.ScheduledResponse `json:"response"`
	Escalated bool                     `json:"escalated"`
}

// TriageService analyzes reviews, drafts replies and schedules review
// requests after customer lifecycle events.
type TriageService struct {
	templates review.Templates
	contacts  review.Contacts
	outbox    outbox.Outbox
	pool      *worker.Pool
	obs       telemetry.Observer
	now       func() time.Time
}

// NewTriageService creates a TriageService. Nil templates use the defaults;
// workers bounds ProcessAll.
func NewTriageService(templates review.Templates, contacts review.Contacts, out outbox.Outbox, workers int, obs telemetry.Observer) *TriageService {
	if templates == nil {
		templates = review.DefaultTemplates()
	}
	return &TriageService{
		templates: templates,
		contacts:  contacts,
		outbox:    out,
		pool:      worker.NewPool(workers),
		obs:       obs.With("component", "triage"),
		now:       time.Now,
	}
}

// Analyze classifies r.
func (s *TriageService) Analyze(r *review.Review) review.Analysis {
	return review.Analyze(r)
}

// Respond renders the reply for r.
func (s *TriageService) Respond(r *review.Review, a *review.Analysis) (string, error) {
	return s.templates.Render(r, a, s.contacts)
}

// ScheduleResponse drafts the reply for r and picks when to post it.
func (s *TriageService) ScheduleResponse(r *review.Review) (review.ScheduledResponse, error) {
	a := s.Analyze(r)
	text, err := s.Respond(r, &a)
	if err != nil {
		return review.ScheduledResponse{}, err
	}
	return review.ScheduledResponse{
		ReviewID:     r.ID,
		Response:     text,
		ScheduleTime: s.now().Add(review.ResponseDelay(a.Sentiment)),
		Analysis:     a,
	}, nil
}

// ScheduleReviewRequest builds the review request for a lifecycle event.
// Events that never trigger a request return nil.
func (s *TriageService) ScheduleReviewRequest(ctx context.Context, event review.EventType, customer review.Customer) *review.Request {
	delay, ok := review.RequestDelay(event)
	if !ok {
		s.obs.Logger.WarnContext(ctx, "no review request for event", "event_type", event)
		return nil
	}
	return &review.Request{
		Customer:      customer,
		EventType:     event,
		ScheduledTime: s.now().Add(delay),
		Template:      review.RequestTemplate,
		Channel:       customer.PreferredChannel(),
	}
}

// Process triages one review. Replies to reviews that need no escalation
// are handed to the outbox; an outbox failure is returned.
func (s *TriageService) Process(ctx context.Context, r *review.Review) (Triaged, error) {
	if err := r.Validate(); err != nil {
		return Triaged{}, fmt.Errorf("review %s: %w", r.ID, err)
	}
	resp, err := s.ScheduleResponse(r)
	if err != nil {
		return Triaged{}, fmt.Errorf("review %s: %w", r.ID, err)
	}

	t := Triaged{Review: *r, Response: resp, Escalated: resp.Analysis.NeedsEscalation}
	s.obs.Recorder.ReviewTriaged(ctx, string(resp.Analysis.Sentiment), t.Escalated)
	if t.Escalated {
		s.obs.Logger.InfoContext(ctx, "review escalated", "review_id", r.ID, "rating", r.Rating)
		return t, nil
	}

	if err := s.outbox.ScheduleResponse(ctx, &resp); err != nil {
		return t, fmt.Errorf("schedule response for %s: %w", r.ID, err)
	}
	s.obs.Logger.DebugContext(ctx, "review response scheduled",
		"review_id", r.ID, "sentiment", resp.Analysis.Sentiment, "at", resp.ScheduleTime)
	return t, nil
}

// ProcessAll triages reviews concurrently. Results keep the input order and
// one failure does not affect the others.
func (s *TriageService) ProcessAll(ctx context.Context, reviews []review.Review) []worker.Result[Triaged] {
	return worker.Map(ctx, s.pool, reviews, func(ctx context.Context, r review.Review) (Triaged, error) {
		return s.Process(ctx, &r)
	})
}

// RequestReview schedules the review request for ev and hands it to the
// outbox. Events without a review request return nil.
func (s *TriageService) RequestReview(ctx context.Context, ev review.LifecycleEvent) (*review.Request, error) {
	req := s.ScheduleReviewRequest(ctx, ev.EventType, ev.Customer)
	if req == nil {
		return nil, nil
	}
	if err := s.outbox.ScheduleRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("schedule review request: %w", err)
	}
	s.obs.Logger.InfoContext(ctx, "review request scheduled",
		"event_type", ev.EventType, "channel", req.Channel, "at", req.ScheduledTime)
	return req, nil
}

// HandleLifecycleEvent is the message queue handler for customer lifecycle
// events. Events without a review request are acknowledged and dropped.
func (s *TriageService) HandleLifecycleEvent(ctx context.Context, _ string, data []byte) error {
	var ev review.LifecycleEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("decode lifecycle event: %w", err)
	}
	_, err := s.RequestReview(ctx, ev)
	return err
}

// SubscribeLifecycle consumes lifecycle events from q.
func (s *TriageService) SubscribeLifecycle(ctx context.Context, q messagequeue.Queue) (func(), error) {
	return q.Subscribe(ctx, messagequeue.SubjectReviewEvents, s.HandleLifecycleEvent)
}
