// Package service contains application services.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/seogov/internal/domain/run"

	"github.com/Strob0t/seogov/internal/port/notifier"
	"github.com/Strob0t/seogov/internal/port/telemetry"
	"github.com/Strob0t/seogov/internal/resilience"
)

// NotificationService dispatches notifications to all registered notifiers.
// Each notifier sits behind its own circuit breaker so a dead webhook does
// not slow down every escalation.
type NotificationService struct {
	notifiers     []notifier.Notifier
	breakers      map[string]*resilience.Breaker
	enabledEvents map[string]bool
	log           telemetry.Observer
}

// NewNotificationService creates a NotificationService with the given notifiers
// and list of enabled event types (e.g., "ticket.created", "cycle.failed").
// If enabledEvents is nil or empty, all events are enabled.
func NewNotificationService(notifiers []notifier.Notifier, enabledEvents []string, obs telemetry.Observer) *NotificationService {
	enabled := make(map[string]bool, len(enabledEvents))
	for _, e := range enabledEvents {
		enabled[e] = true
	}
	return &NotificationService{
		notifiers:     notifiers,
		breakers:      make(map[string]*resilience.Breaker, len(notifiers)),
		enabledEvents: enabled,
		log:           obs.With("component", "notification"),
	}
}

// WithBreakers guards every notifier with its own breaker named
// "notify.<provider>".
func (s *NotificationService) WithBreakers(maxFailures int, timeout time.Duration, onChange func(name string, from, to resilience.State)) *NotificationService {
	for _, n := range s.notifiers {
		b := resilience.NewBreaker("notify."+n.Name(), maxFailures, timeout)
		if onChange != nil {
			b.OnStateChange(onChange)
		}
		s.breakers[n.Name()] = b
	}
	return s
}

// Notify sends a notification to all registered notifiers. A failing
// notifier does not interrupt delivery to the others; an error is returned
// only when no notifier accepted the notification.
func (s *NotificationService) Notify(ctx context.Context, n notifier.Notification) error {
	if len(s.enabledEvents) > 0 && !s.enabledEvents[n.Source] {
		return nil
	}

	var errs []error
	delivered := 0
	for _, provider := range s.notifiers {
		send := func(ctx context.Context) error { return provider.Send(ctx, n) }
		var err error
		if b := s.breakers[provider.Name()]; b != nil {
			err = b.Do(ctx, send)
		} else {
			err = send(ctx)
		}
		if err != nil {
			s.log.Logger.WarnContext(ctx, "notification send failed",
				"provider", provider.Name(),
				"title", n.Title,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", provider.Name(), err))
			continue
		}
		delivered++
		s.log.Logger.DebugContext(ctx, "notification sent", "provider", provider.Name(), "title", n.Title)
	}
	if delivered == 0 && len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EventCycleFailed is the notification source for cycles with failed sections.
const EventCycleFailed = "cycle.failed"

// CycleCompleted notifies when any section of r failed. Healthy cycles are
// silent.
func (s *NotificationService) CycleCompleted(ctx context.Context, r *run.Report) error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}

	var b strings.Builder
	for _, sec := range failed {
		fmt.Fprintf(&b, "- %s: %s\n", sec, r.SectionError(sec))
	}
	return s.Notify(ctx, notifier.Notification{
		Title:   "Governance cycle incomplete",
		Message: strings.TrimRight(b.String(), "\n"),
		Level:   notifier.LevelError,
		Source:  EventCycleFailed,
		Fields: []notifier.Field{
			{Label: "Cycle", Value: r.ID},
			{Label: "Failed", Value: strings.Join(failed, ", ")},
		},
	})
}

// NotifierCount returns the number of registered notifiers.
func (s *NotificationService) NotifierCount() int {
	return len(s.notifiers)
}
