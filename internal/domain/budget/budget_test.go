package budget

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPriceOf(t *testing.T) {
	prices := DefaultPrices()

	tests := []struct {
		name    string
		key     string
		qty     float64
		want    float64
		wantErr bool
	}{
		{name: "content words", key: "content.word", qty: 10, want: 0.20},
		{name: "fractional quantity", key: "content.word", qty: 2.5, want: 0.05},
		{name: "audit", key: "technical.audit", qty: 1, want: 50},
		{name: "zero quantity", key: "monitoring.report", qty: 0, want: 0},
		{name: "no separator", key: "contentword", qty: 1, wantErr: true},
		{name: "too many parts", key: "content.word.extra", qty: 1, wantErr: true},
		{name: "empty item", key: "content.", qty: 1, wantErr: true},
		{name: "unknown category", key: "social.post", qty: 1, wantErr: true},
		{name: "unknown item", key: "content.video", qty: 1, wantErr: true},
		{name: "negative quantity", key: "content.word", qty: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := prices.PriceOf(tt.key, tt.qty)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidActivityKey) {
					t.Fatalf("expected ErrInvalidActivityKey, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !approxEqual(got, tt.want) {
				t.Errorf("PriceOf(%q, %v) = %v, want %v", tt.key, tt.qty, got, tt.want)
			}
		})
	}
}

func TestAdvanceMonth(t *testing.T) {
	s := State{MonthKey: "2026-09", Spent: 40, Budget: 100}

	if s.AdvanceMonth("2026-09") {
		t.Fatal("same month must not roll over")
	}
	if s.Spent != 40 {
		t.Fatalf("spent changed without rollover: %v", s.Spent)
	}

	if !s.AdvanceMonth("2026-10") {
		t.Fatal("expected rollover into new month")
	}
	if s.MonthKey != "2026-10" || s.Spent != 0 {
		t.Fatalf("unexpected state after rollover: %+v", s)
	}
	if s.Budget != 100 {
		t.Errorf("budget must survive rollover, got %v", s.Budget)
	}

	s.Spent = 12
	if s.AdvanceMonth("2026-09") {
		t.Fatal("an earlier month must not roll back")
	}
	if s.MonthKey != "2026-10" || s.Spent != 12 {
		t.Fatalf("state changed by earlier month: %+v", s)
	}
}

func TestAddRejectsNegative(t *testing.T) {
	s := State{Budget: 10}
	if err := s.Add(-1); err == nil {
		t.Fatal("expected error for negative expense")
	}
	if s.Spent != 0 {
		t.Fatalf("spent mutated on rejected add: %v", s.Spent)
	}
}

func TestStatusFreshState(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	s := NewState(5000, now)

	st := s.Status(now)
	if st.Spent != 0 {
		t.Errorf("expected spent 0, got %v", st.Spent)
	}
	if st.State != StandingOnTrack {
		t.Errorf("expected on_track, got %s", st.State)
	}
	if st.MonthKey != "2026-10" {
		t.Errorf("expected month 2026-10, got %s", st.MonthKey)
	}
	if st.Remaining != 5000 {
		t.Errorf("expected remaining 5000, got %v", st.Remaining)
	}
}

func TestStatusProjection(t *testing.T) {
	// Day 10 of a 30-day month: 40 spent -> 4/day -> 120 projected.
	now := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	s := State{MonthKey: "2026-09", Spent: 40, Budget: 100}

	st := s.Status(now)
	if !approxEqual(st.DailyRate, 4) {
		t.Errorf("daily rate = %v, want 4", st.DailyRate)
	}
	if !approxEqual(st.ProjectedSpend, 120) {
		t.Errorf("projected = %v, want 120", st.ProjectedSpend)
	}
	if st.State != StandingOverBudget {
		t.Errorf("expected over_budget, got %s", st.State)
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		in   time.Time
		want int
	}{
		{time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC), 28},
		{time.Date(2028, 2, 5, 0, 0, 0, 0, time.UTC), 29},
		{time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), 31},
		{time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), 30},
	}
	for _, tt := range tests {
		if got := DaysInMonth(tt.in); got != tt.want {
			t.Errorf("DaysInMonth(%s) = %d, want %d", tt.in.Format("2006-01"), got, tt.want)
		}
	}
}

func TestSuggestDoesNotMutate(t *testing.T) {
	prices := DefaultPrices()
	got := prices.Suggest(DefaultDiscounts())

	if !approxEqual(got["content.word"], 0.018) {
		t.Errorf("content.word = %v, want 0.018", got["content.word"])
	}
	if !approxEqual(got["content.image"], 0.08) {
		t.Errorf("content.image = %v, want 0.08", got["content.image"])
	}
	if !approxEqual(got["local_seo.gmb_post"], 0.85) {
		t.Errorf("local_seo.gmb_post = %v, want 0.85", got["local_seo.gmb_post"])
	}
	if prices[CategoryContent]["word"] != 0.02 {
		t.Errorf("live table changed: %v", prices[CategoryContent]["word"])
	}
}

func TestSuggestFloorsAtZero(t *testing.T) {
	prices := DefaultPrices()
	got := prices.Suggest(map[string]float64{"content.word": -2, "bogus.key": 0.5})
	if got["content.word"] != 0 {
		t.Errorf("expected floor at 0, got %v", got["content.word"])
	}
	if _, ok := got["bogus.key"]; ok {
		t.Error("unknown keys must be skipped")
	}
}

func TestLoadPrices(t *testing.T) {
	dir := t.TempDir()

	t.Run("override", func(t *testing.T) {
		path := filepath.Join(dir, "prices.yaml")
		content := "content:\n  word: 0.03\ntechnical:\n  audit: 40\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		prices, err := LoadPrices(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if prices[CategoryContent]["word"] != 0.03 {
			t.Errorf("expected override 0.03, got %v", prices[CategoryContent]["word"])
		}
		if prices[CategoryContent]["image"] != 0.10 {
			t.Errorf("expected default image price kept, got %v", prices[CategoryContent]["image"])
		}
	})

	t.Run("missing file falls back", func(t *testing.T) {
		prices, err := LoadPrices(filepath.Join(dir, "nope.yaml"))
		if err == nil {
			t.Fatal("expected error for missing file")
		}
		if prices[CategoryTechnical]["audit"] != 50 {
			t.Errorf("expected defaults on error, got %v", prices[CategoryTechnical]["audit"])
		}
	})

	t.Run("malformed falls back", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("content: [not, a, map"), 0o644); err != nil {
			t.Fatal(err)
		}
		prices, err := LoadPrices(path)
		if err == nil {
			t.Fatal("expected parse error")
		}
		if prices[CategoryContent]["word"] != 0.02 {
			t.Errorf("expected default price, got %v", prices[CategoryContent]["word"])
		}
	})

	t.Run("negative price rejected", func(t *testing.T) {
		path := filepath.Join(dir, "neg.yaml")
		if err := os.WriteFile(path, []byte("content:\n  word: -1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadPrices(path); err == nil {
			t.Fatal("expected validation error")
		}
	})
}
