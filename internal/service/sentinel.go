package service

import (
	"context"
	"time"

	"github.com/Strob0t/seogov/internal/domain/issue"
	"github.com/Strob0t/seogov/internal/domain/metrics"
	"github.com/Strob0t/seogov/internal/domain/policy"
	"github.com/Strob0t/seogov/internal/port/outbox"
	"github.com/Strob0t/seogov/internal/port/telemetry"
	"github.com/Strob0t/seogov/internal/port/ticketsink"
)

// SentinelService evaluates metric snapshots against the policy thresholds
// and either escalates the findings to a human or schedules remediations.
type SentinelService struct {
	thresholds policy.Thresholds
	tickets    ticketsink.Sink
	outbox     outbox.Outbox
	obs        telemetry.Observer
	now        func() time.Time
}

// NewSentinelService creates a SentinelService.
func NewSentinelService(t policy.Thresholds, tickets ticketsink.Sink, out outbox.Outbox, obs telemetry.Observer) *SentinelService {
	return &SentinelService{
		thresholds: t,
		tickets:    tickets,
		outbox:     out,
		obs:        obs.With("component", "sentinel"),
		now:        time.Now,
	}
}

// Thresholds returns the active policy.
func (s *SentinelService) Thresholds() policy.Thresholds {
	return s.thresholds
}

// Evaluate runs all checks on snap. Ticket and outbox failures are logged;
// they never change the decision.
func (s *SentinelService) Evaluate(ctx context.Context, snap *metrics.Snapshot) issue.Evaluation {
	now := s.now()
	set := policy.Collect(snap, &s.thresholds, now)
	escalate := policy.NeedsHuman(&set, &s.thresholds)

	s.obs.Recorder.IssuesDetected(ctx, issueCounts(&set), escalate)

	if escalate {
		ticket := issue.NewTicket(set, now)
		if err := s.tickets.CreateTicket(ctx, ticket); err != nil {
			s.obs.Logger.ErrorContext(ctx, "ticket delivery failed", "ticket_id", ticket.ID, "error", err)
		} else {
			s.obs.Logger.InfoContext(ctx, "issues escalated", "ticket_id", ticket.ID, "priority", ticket.Priority)
		}
		return issue.Evaluation{Status: issue.StatusEscalated, Issues: set, Ticket: ticket}
	}

	var remediations []issue.Remediation
	for _, f := range set.Of(issue.CategoryContent) {
		remediations = append(remediations, issue.Remediation{
			Kind: issue.RemediationContentUpdate, Target: f.Target, Issue: f.Message, ScheduledAt: now,
		})
	}
	for _, f := range set.Of(issue.CategoryReviews) {
		remediations = append(remediations, issue.Remediation{
			Kind: issue.RemediationAutoRespond, Target: f.Target, Issue: f.Message, ScheduledAt: now,
		})
	}
	for i := range remediations {
		r := &remediations[i]
		if err := s.outbox.ScheduleRemediation(ctx, r); err != nil {
			s.obs.Logger.ErrorContext(ctx, "schedule remediation failed", "kind", r.Kind, "target", r.Target, "error", err)
			continue
		}
		s.obs.Logger.InfoContext(ctx, "remediation scheduled", "kind", r.Kind, "issue", r.Issue)
	}

	return issue.Evaluation{Status: issue.StatusAutoFixed, Issues: set, Remediations: remediations}
}

func issueCounts(set *issue.Set) map[string]int {
	counts := map[string]int{
		string(issue.CategoryCTR):     len(set.CTR),
		string(issue.CategoryReviews): len(set.Reviews),
		string(issue.CategoryContent): len(set.Content),
	}
	if set.Traffic {
		counts[string(issue.CategoryTraffic)] = 1
	}
	return counts
}
