// Package telemetry defines the observability port handed to every service.
package telemetry

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Recorder receives domain measurements. Implementations must be safe for
// concurrent use.
type Recorder interface {
	// CycleCompleted records one governance cycle and the sections that failed.
	CycleCompleted(ctx context.Context, d time.Duration, failed []string)
	// IssuesDetected records the findings of one sentinel pass by category.
	IssuesDetected(ctx context.Context, counts map[string]int, escalated bool)
	// ReviewTriaged records one processed review.
	ReviewTriaged(ctx context.Context, sentiment string, escalated bool)
	// ExpenseDecided records a ledger approval decision.
	ExpenseDecided(ctx context.Context, activity string, cost float64, approved bool)
	// ActionResolved records the outcome of an approved pending action.
	ActionResolved(ctx context.Context, kind, status string)
}

// Observer bundles the logger and recorder a component reports through.
type Observer struct {
	Logger   *slog.Logger
	Recorder Recorder
}

// Nop discards everything.
func Nop() Observer {
	return Observer{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Recorder: NopRecorder{},
	}
}

// OrNop fills missing parts of o with no-op implementations.
func (o Observer) OrNop() Observer {
	if o.Logger == nil {
		o.Logger = Nop().Logger
	}
	if o.Recorder == nil {
		o.Recorder = NopRecorder{}
	}
	return o
}

// With returns an observer whose logger carries the given attributes.
func (o Observer) With(args ...any) Observer {
	o = o.OrNop()
	o.Logger = o.Logger.With(args...)
	return o
}

// NopRecorder implements Recorder by doing nothing.
type NopRecorder struct{}

func (NopRecorder) CycleCompleted(context.Context, time.Duration, []string) {}
func (NopRecorder) IssuesDetected(context.Context, map[string]int, bool)    {}
func (NopRecorder) ReviewTriaged(context.Context, string, bool)             {}
func (NopRecorder) ExpenseDecided(context.Context, string, float64, bool)   {}
func (NopRecorder) ActionResolved(context.Context, string, string)          {}
