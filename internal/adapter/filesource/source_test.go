package filesource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Strob0t/seogov/internal/domain/metrics"
)

const snapshotYAML = `
traffic:
  current: 800
  previous: 1000
search_pages:
  - url: https://example.com/
    clicks: 10
    impressions: 1000
    ctr: 1.0
reviews:
  - id: r1
    author: Ann
    rating: 2
    text: Slow service.
    date: 2026-01-02T10:00:00Z
  - id: r2
    author: Bob
    rating: 5
    text: Great!
    date: 2026-01-03T10:00:00Z
    response: Thanks Bob
content_pages:
  - url: https://example.com/blog
    last_updated: 2025-06-01T00:00:00Z
    word_count: 900
    keyword_density: 1.0
`

type fakeScanner struct {
	pages []metrics.ContentPage
	err   error
}

func (f *fakeScanner) Scan(context.Context) ([]metrics.ContentPage, error) {
	return f.pages, f.err
}

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSnapshotFromFile(t *testing.T) {
	s := New(writeSnapshot(t, snapshotYAML), nil, nil)

	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Traffic.Current != 800 || snap.Traffic.Previous != 1000 {
		t.Errorf("traffic = %+v", snap.Traffic)
	}
	if len(snap.SearchPages) != 1 || len(snap.Reviews) != 2 || len(snap.ContentPages) != 1 {
		t.Fatalf("unexpected snapshot shape: %+v", snap)
	}
	if want := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC); !snap.Reviews[0].Date.Equal(want) {
		t.Errorf("review date = %v, want %v", snap.Reviews[0].Date, want)
	}
}

func TestPendingReviewsSkipsResponded(t *testing.T) {
	s := New(writeSnapshot(t, snapshotYAML), nil, nil)

	got, err := s.PendingReviews(context.Background())
	if err != nil {
		t.Fatalf("PendingReviews: %v", err)
	}
	if len(got) != 1 || got[0].ID != "r1" {
		t.Fatalf("pending = %+v, want only r1", got)
	}
}

func TestSnapshotMissingFileIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent.yaml"), nil, nil)
	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Traffic.Previous != 0 || len(snap.Reviews) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestSnapshotMalformedFile(t *testing.T) {
	s := New(writeSnapshot(t, "traffic: [not, a, map"), nil, nil)
	if _, err := s.Snapshot(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSnapshotMergesScan(t *testing.T) {
	scanned := []metrics.ContentPage{
		{URL: "https://example.com/blog", WordCount: 1500, KeywordDensity: 0.9},
		{URL: "https://example.com/new", WordCount: 300, LastUpdated: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
	}
	s := New(writeSnapshot(t, snapshotYAML), &fakeScanner{pages: scanned}, nil)

	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.ContentPages) != 2 {
		t.Fatalf("pages = %d, want 2", len(snap.ContentPages))
	}
	blog := snap.ContentPages[0]
	if blog.WordCount != 1500 {
		t.Errorf("blog word count = %d, want scanned 1500", blog.WordCount)
	}
	if want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC); !blog.LastUpdated.Equal(want) {
		t.Errorf("blog LastUpdated = %v, want file date %v", blog.LastUpdated, want)
	}
	if snap.ContentPages[1].URL != "https://example.com/new" {
		t.Errorf("second page = %q", snap.ContentPages[1].URL)
	}
}

func TestSnapshotScanFailure(t *testing.T) {
	errScan := errors.New("all pages failed")

	s := New(writeSnapshot(t, snapshotYAML), &fakeScanner{err: errScan}, nil)
	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("file pages should be used when the scan fails: %v", err)
	}
	if len(snap.ContentPages) != 1 {
		t.Fatalf("pages = %d, want 1", len(snap.ContentPages))
	}

	s = New(filepath.Join(t.TempDir(), "absent.yaml"), &fakeScanner{err: errScan}, nil)
	if _, err := s.Snapshot(context.Background()); !errors.Is(err, errScan) {
		t.Fatalf("expected scan error without file pages, got %v", err)
	}
}
