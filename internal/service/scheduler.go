package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/Strob0t/seogov/internal/domain/run"
	"github.com/Strob0t/seogov/internal/domain/schedule"
	"github.com/Strob0t/seogov/internal/port/telemetry"
)

// ErrCycleInFlight is returned when a cycle is requested while another one
// is still running.
var ErrCycleInFlight = errors.New("a governance cycle is already running")

// CycleRunner runs one governance cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) *run.Report
}

// Scheduler triggers cycles on a schedule. At most one cycle runs at a
// time: a tick that finds a cycle in flight is skipped.
type Scheduler struct {
	runner   CycleRunner
	sched    schedule.Schedule
	inFlight atomic.Bool
	obs      telemetry.Observer
	now      func() time.Time
}

// NewScheduler creates a Scheduler.
func NewScheduler(runner CycleRunner, sched schedule.Schedule, obs telemetry.Observer) *Scheduler {
	return &Scheduler{
		runner: runner,
		sched:  sched,
		obs:    obs.With("component", "scheduler"),
		now:    time.Now,
	}
}

// Trigger runs a cycle now unless one is already running.
func (s *Scheduler) Trigger(ctx context.Context) (*run.Report, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrCycleInFlight
	}
	defer s.inFlight.Store(false)
	return s.runner.RunCycle(ctx), nil
}

// Running reports whether a cycle is in flight.
func (s *Scheduler) Running() bool {
	return s.inFlight.Load()
}

// Run blocks until ctx is done, starting a cycle at every scheduled time.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := s.sched.Next(s.now())
		s.obs.Logger.InfoContext(ctx, "next governance cycle scheduled", "at", next)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		go func() {
			if _, err := s.Trigger(ctx); err != nil {
				s.obs.Logger.WarnContext(ctx, "scheduled cycle skipped", "error", err)
			}
		}()
	}
}
