// Package filesource reads site-health snapshots from a YAML or JSON file.
// The file is re-read on every call so edits are picked up by the next cycle.
package filesource

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Strob0t/seogov/internal/domain/metrics"
	"github.com/Strob0t/seogov/internal/domain/review"
	"github.com/Strob0t/seogov/internal/port/source"
)

// Source implements source.Metrics and source.Reviews.
type Source struct {
	path    string
	scanner source.ContentScanner
	log     *slog.Logger
}

var (
	_ source.Metrics = (*Source)(nil)
	_ source.Reviews = (*Source)(nil)
)

// New creates a Source for path. When scanner is non-nil its pages are
// merged into every snapshot.
func New(path string, scanner source.ContentScanner, log *slog.Logger) *Source {
	if log == nil {
		log = slog.Default()
	}
	return &Source{path: path, scanner: scanner, log: log}
}

// Snapshot returns the snapshot stored in the file. A missing file yields an
// empty snapshot so a scanner-only setup still works.
func (s *Source) Snapshot(ctx context.Context) (*metrics.Snapshot, error) {
	snap, err := s.read()
	if err != nil {
		return nil, err
	}
	if s.scanner == nil {
		return snap, nil
	}

	pages, err := s.scanner.Scan(ctx)
	if err != nil {
		if len(snap.ContentPages) == 0 {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		s.log.WarnContext(ctx, "content scan failed, using file pages", "error", err)
		return snap, nil
	}
	snap.ContentPages = Merge(snap.ContentPages, pages)
	return snap, nil
}

// PendingReviews returns the reviews in the file that have no response yet.
func (s *Source) PendingReviews(_ context.Context) ([]review.Review, error) {
	snap, err := s.read()
	if err != nil {
		return nil, err
	}
	var out []review.Review
	for i := range snap.Reviews {
		if !snap.Reviews[i].Responded() {
			out = append(out, snap.Reviews[i])
		}
	}
	return out, nil
}

func (s *Source) read() (*metrics.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &metrics.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}
	var snap metrics.Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", s.path, err)
	}
	return &snap, nil
}

// Merge overlays scanned pages on the file pages by URL. A scanned page
// without a modification time keeps the file's date. Order is file pages
// first, then pages only the scanner knows.
func Merge(file, scanned []metrics.ContentPage) []metrics.ContentPage {
	idx := make(map[string]int, len(file))
	out := make([]metrics.ContentPage, 0, len(file)+len(scanned))
	for _, p := range file {
		idx[p.URL] = len(out)
		out = append(out, p)
	}
	for _, p := range scanned {
		i, ok := idx[p.URL]
		if !ok {
			idx[p.URL] = len(out)
			out = append(out, p)
			continue
		}
		if p.LastUpdated.IsZero() {
			p.LastUpdated = out[i].LastUpdated
		}
		out[i] = p
	}
	return out
}
