// Package source defines the ports the engine reads site health from.
package source

import (
	"context"

	"github.com/Strob0t/seogov/internal/domain/metrics"
	"github.com/Strob0t/seogov/internal/domain/review"
)

// Metrics produces a fresh snapshot of site health.
type Metrics interface {
	Snapshot(ctx context.Context) (*metrics.Snapshot, error)
}

// Reviews lists reviews that are waiting for triage.
type Reviews interface {
	PendingReviews(ctx context.Context) ([]review.Review, error)
}

// ContentScanner inspects live pages and reports their content health.
type ContentScanner interface {
	Scan(ctx context.Context) ([]metrics.ContentPage, error)
}
