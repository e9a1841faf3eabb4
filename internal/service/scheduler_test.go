package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/seogov/internal/domain/run"
	"github.com/Strob0t/seogov/internal/domain/schedule"
	"github.com/Strob0t/seogov/internal/port/telemetry"
)

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	runs    atomic.Int32
}

func (b *blockingRunner) RunCycle(context.Context) *run.Report {
	b.runs.Add(1)
	select {
	case b.started <- struct{}{}:
	default:
	}
	if b.release != nil {
		<-b.release
	}
	return &run.Report{ID: "r"}
}

func TestSchedulerSkipsWhileInFlight(t *testing.T) {
	r := &blockingRunner{started: make(chan struct{}, 1), release: make(chan struct{})}
	s := NewScheduler(r, schedule.Schedule{Interval: time.Hour}, telemetry.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := s.Trigger(context.Background())
		done <- err
	}()
	<-r.started

	if !s.Running() {
		t.Fatal("expected a cycle in flight")
	}
	if _, err := s.Trigger(context.Background()); !errors.Is(err, ErrCycleInFlight) {
		t.Fatalf("expected ErrCycleInFlight, got %v", err)
	}

	close(r.release)
	if err := <-done; err != nil {
		t.Fatalf("first trigger: %v", err)
	}
	if s.Running() {
		t.Fatal("flag must clear after the cycle")
	}
	if n := r.runs.Load(); n != 1 {
		t.Fatalf("runs = %d, want 1", n)
	}
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	r := &blockingRunner{started: make(chan struct{}, 8)}
	s := NewScheduler(r, schedule.Schedule{Interval: time.Hour}, telemetry.Nop())
	s.now = func() time.Time { return time.Now().Add(-time.Hour + 10*time.Millisecond) }

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(stopped)
	}()

	select {
	case <-r.started:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled cycle did not start")
	}
	cancel()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
