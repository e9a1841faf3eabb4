package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Strob0t/seogov/internal/domain/budget"
	"github.com/Strob0t/seogov/internal/domain/issue"
	"github.com/Strob0t/seogov/internal/domain/run"
)

func TestOriginHosts(t *testing.T) {
	tests := []struct {
		origin string
		want   string
	}{
		{"", ""},
		{"*", "*"},
		{"http://localhost:3000", "localhost:3000"},
		{"https://dash.example.com", "dash.example.com"},
		{"not a url", ""},
	}
	for _, tt := range tests {
		got := strings.Join(originHosts(tt.origin), ",")
		if got != tt.want {
			t.Errorf("originHosts(%q) = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestPrintReport(t *testing.T) {
	start := time.Date(2026, 10, 19, 6, 0, 0, 0, time.UTC)
	rep := &run.Report{
		ID:         "c-1",
		StartedAt:  start,
		FinishedAt: start.Add(1200 * time.Millisecond),
		Sentinel:   run.SentinelSection{Evaluation: &issue.Evaluation{Status: issue.StatusEscalated}},
		Reviews:    run.ReviewsSection{Error: "pending reviews: timeout"},
		Budget: run.BudgetSection{Status: &budget.Status{
			State: budget.StandingOnTrack, Spent: 12.5, Budget: 500,
		}},
	}

	var buf bytes.Buffer
	if err := printReport(&buf, rep); err != nil {
		t.Fatalf("printReport: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"c-1", "1.2s", "escalated", "pending reviews: timeout", "12.50/500.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunCommandUnknown(t *testing.T) {
	if err := runCommand("frobnicate", nil); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
