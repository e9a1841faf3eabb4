// Package database defines the database store port (interface).
package database

import (
	"context"
	"time"

	"github.com/Strob0t/seogov/internal/domain/action"
	"github.com/Strob0t/seogov/internal/domain/budget"
	"github.com/Strob0t/seogov/internal/domain/issue"
	"github.com/Strob0t/seogov/internal/domain/run"
)

// Store is the port interface for database operations.
type Store interface {
	// Ledger
	MonthSpend(ctx context.Context, monthKey string) (float64, error)
	InsertExpense(ctx context.Context, e *budget.Expense) error
	ListExpenses(ctx context.Context, monthKey string) ([]budget.Expense, error)

	// Pending actions
	SavePendingAction(ctx context.Context, a *action.Pending) error
	GetPendingAction(ctx context.Context, id string) (*action.Pending, error)
	DeletePendingAction(ctx context.Context, id string) error
	// ClaimPendingAction removes and returns the action in one step, so only
	// one caller can execute it. A missing id is domain.ErrNotFound.
	ClaimPendingAction(ctx context.Context, id string) (*action.Pending, error)
	ListPendingActions(ctx context.Context) ([]action.Pending, error)

	// Handled reviews
	MarkReviewHandled(ctx context.Context, reviewID string, at time.Time) error
	HandledReviews(ctx context.Context, reviewIDs []string) (map[string]bool, error)

	// Cycle reports
	SaveRunReport(ctx context.Context, r *run.Report) error
	LatestRunReport(ctx context.Context) (*run.Report, error)

	// Escalation tickets
	SaveTicket(ctx context.Context, t *issue.Ticket) error
	ListTickets(ctx context.Context, limit int) ([]issue.Ticket, error)
}
