// Package outbox defines the port for work handed to downstream executors.
package outbox

import (
	"context"

	"github.com/Strob0t/seogov/internal/domain/issue"
	"github.com/Strob0t/seogov/internal/domain/review"
)

// Outbox accepts scheduled work. Delivery is fire-and-forget from the
// engine's point of view.
type Outbox interface {
	ScheduleResponse(ctx context.Context, r *review.ScheduledResponse) error
	ScheduleRequest(ctx context.Context, r *review.Request) error
	ScheduleRemediation(ctx context.Context, r *issue.Remediation) error
}
