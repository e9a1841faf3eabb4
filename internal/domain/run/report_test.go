package run_test

import (
	"testing"
	"time"

	"github.com/Strob0t/seogov/internal/domain/run"
)

func TestReportFailed(t *testing.T) {
	r := &run.Report{}
	if got := r.Failed(); len(got) != 0 {
		t.Fatalf("expected no failures, got %v", got)
	}

	r.Sentinel.Error = "snapshot: boom"
	r.Budget.Error = "store down"
	got := r.Failed()
	if len(got) != 2 || got[0] != run.SectionSentinel || got[1] != run.SectionBudget {
		t.Errorf("unexpected failed sections %v", got)
	}
	if msg := r.SectionError(run.SectionBudget); msg != "store down" {
		t.Errorf("budget error = %q", msg)
	}
	if msg := r.SectionError("unknown"); msg != "" {
		t.Errorf("unknown section error = %q", msg)
	}
}

func TestReportDuration(t *testing.T) {
	start := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	r := &run.Report{StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond)}
	if r.Duration() != 1500*time.Millisecond {
		t.Errorf("duration = %v", r.Duration())
	}
}
