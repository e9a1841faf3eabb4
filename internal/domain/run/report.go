// Package run defines the aggregated report of one governance cycle.
package run

import (
	"time"

	"github.com/Strob0t/seogov/internal/domain/action"
	"github.com/Strob0t/seogov/internal/domain/budget"
	"github.com/Strob0t/seogov/internal/domain/issue"
)

// Section names used in logs, metrics and error entries.
const (
	SectionSentinel = "sentinel"
	SectionReviews  = "reviews"
	SectionBudget   = "budget"
)

// SentinelSection holds the sentinel evaluation or the reason it failed.
type SentinelSection struct {
	Evaluation *issue.Evaluation `json:"evaluation,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// ReviewsSection counts triaged reviews.
type ReviewsSection struct {
	Processed int `json:"processed"`
	Escalated int `json:"escalated"`
	// Skipped counts reviews already answered or awaiting approval.
	Skipped  int      `json:"skipped,omitempty"`
	Failures []string `json:"failures,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// BudgetSection holds the ledger status and, when over budget, the
// suggested unit prices.
type BudgetSection struct {
	Status        *budget.Status     `json:"status,omitempty"`
	Optimizations map[string]float64 `json:"optimizations,omitempty"`
	Error         string             `json:"error,omitempty"`
}

// Report is the result of one cycle. Each section fails independently.
type Report struct {
	ID             string           `json:"id"`
	StartedAt      time.Time        `json:"started_at"`
	FinishedAt     time.Time        `json:"finished_at"`
	MonthRolled    bool             `json:"month_rolled,omitempty"`
	ExpiredActions int              `json:"expired_actions,omitempty"`
	AlreadyQueued  int              `json:"already_queued,omitempty"`
	Sentinel       SentinelSection  `json:"sentinel"`
	Reviews        ReviewsSection   `json:"reviews"`
	Budget         BudgetSection    `json:"budget"`
	PendingActions []action.Pending `json:"pending_actions,omitempty"`
}

// Failed returns the names of sections that recorded an error.
func (r *Report) Failed() []string {
	var out []string
	if r.Sentinel.Error != "" {
		out = append(out, SectionSentinel)
	}
	if r.Reviews.Error != "" {
		out = append(out, SectionReviews)
	}
	if r.Budget.Error != "" {
		out = append(out, SectionBudget)
	}
	return out
}

// Duration is the wall time of the cycle.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// SectionError returns the recorded error of the named section.
func (r *Report) SectionError(section string) string {
	switch section {
	case SectionSentinel:
		return r.Sentinel.Error
	case SectionReviews:
		return r.Reviews.Error
	case SectionBudget:
		return r.Budget.Error
	default:
		return ""
	}
}
