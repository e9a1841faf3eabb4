package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	sgotel "github.com/Strob0t/seogov/internal/adapter/otel"
	"github.com/Strob0t/seogov/internal/adapter/ws"
	"github.com/Strob0t/seogov/internal/domain"
	"github.com/Strob0t/seogov/internal/domain/action"
	"github.com/Strob0t/seogov/internal/domain/budget"
	"github.com/Strob0t/seogov/internal/domain/issue"
	"github.com/Strob0t/seogov/internal/domain/metrics"
	"github.com/Strob0t/seogov/internal/domain/review"
	"github.com/Strob0t/seogov/internal/domain/run"
	"github.com/Strob0t/seogov/internal/logger"
	"github.com/Strob0t/seogov/internal/port/broadcast"
	"github.com/Strob0t/seogov/internal/port/database"
	"github.com/Strob0t/seogov/internal/port/outbox"
	"github.com/Strob0t/seogov/internal/port/source"
	"github.com/Strob0t/seogov/internal/port/telemetry"
)

// ActivityContentEdit is the price-table key charged per word when an
// approved content update is executed.
const ActivityContentEdit = budget.CategoryContent + ".edit"

// CycleNotifier is told about every finished cycle.
type CycleNotifier interface {
	CycleCompleted(ctx context.Context, r *run.Report) error
}

// GovernanceService runs governance cycles and executes approved actions.
type GovernanceService struct {
	ledger   *LedgerService
	triage   *TriageService
	sentinel *SentinelService
	metrics  source.Metrics
	reviews  source.Reviews
	store    database.Store
	outbox   outbox.Outbox
	hub      broadcast.Broadcaster
	cycles   CycleNotifiers
	ttl      time.Duration
	obs      telemetry.Observer
	now      func() time.Time
	latest   atomic.Pointer[run.Report]
}

// NewGovernanceService wires the orchestrator. hub may be nil.
func NewGovernanceService(
	ledger *LedgerService,
	triage *TriageService,
	sentinel *SentinelService,
	metricsSrc source.Metrics,
	reviewsSrc source.Reviews,
	store database.Store,
	out outbox.Outbox,
	hub broadcast.Broadcaster,
	obs telemetry.Observer,
) *GovernanceService {
	if hub == nil {
		hub = broadcast.Nop{}
	}
	return &GovernanceService{
		ledger:   ledger,
		triage:   triage,
		sentinel: sentinel,
		metrics:  metricsSrc,
		reviews:  reviewsSrc,
		store:    store,
		outbox:   out,
		hub:      hub,
		obs:      obs.With("component", "governance"),
		now:      time.Now,
	}
}

// SetApprovalTTL sets how long queued actions stay approvable. Zero means
// they never expire.
func (s *GovernanceService) SetApprovalTTL(ttl time.Duration) {
	s.ttl = ttl
}

// SetCycleNotifier registers the receivers for finished cycles.
func (s *GovernanceService) SetCycleNotifier(n ...CycleNotifier) {
	s.cycles = CycleNotifiers(n)
}

// CycleNotifiers tells every receiver about a finished cycle.
type CycleNotifiers []CycleNotifier

func (ns CycleNotifiers) CycleCompleted(ctx context.Context, r *run.Report) error {
	var errs []error
	for _, n := range ns {
		if err := n.CycleCompleted(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RunCycle performs one governance pass. The sentinel, review and budget
// sections are isolated: an error or panic in one is recorded in its
// section and the others still run.
func (s *GovernanceService) RunCycle(ctx context.Context) *run.Report {
	rep := &run.Report{ID: uuid.NewString(), StartedAt: s.now()}
	ctx = logger.WithCycleID(ctx, rep.ID)
	ctx, span := sgotel.StartCycleSpan(ctx, rep.ID)
	defer span.End()

	log := s.obs.Logger
	log.InfoContext(ctx, "cycle started")

	rep.MonthRolled = s.ledger.AdvanceMonth(ctx, rep.StartedAt)
	rep.ExpiredActions = s.pruneExpired(ctx, rep.StartedAt)
	known := s.pendingKeys(ctx)

	rep.Sentinel.Error = s.section(ctx, run.SectionSentinel, func(ctx context.Context) error {
		return s.runSentinel(ctx, rep, known)
	})
	rep.Reviews.Error = s.section(ctx, run.SectionReviews, func(ctx context.Context) error {
		return s.runReviews(ctx, rep, known)
	})
	rep.Budget.Error = s.section(ctx, run.SectionBudget, func(context.Context) error {
		st := s.ledger.Status(s.now())
		rep.Budget.Status = &st
		rep.Budget.Optimizations = s.ledger.Optimizations(s.now())
		return nil
	})

	pending, err := s.store.ListPendingActions(ctx)
	if err != nil {
		log.ErrorContext(ctx, "list pending actions", "error", err)
	}
	rep.PendingActions = pending
	rep.FinishedAt = s.now()

	s.finish(ctx, rep)
	return rep
}

// section runs fn and converts its error or panic into a message.
func (s *GovernanceService) section(ctx context.Context, name string, fn func(context.Context) error) (msg string) {
	ctx, span := sgotel.StartSectionSpan(ctx, name)
	var err error
	defer func() { sgotel.EndSpan(span, err) }()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			msg = err.Error()
			s.obs.Logger.ErrorContext(ctx, "cycle section panicked",
				"section", name, "panic", r, "stack", string(debug.Stack()))
		}
	}()

	if err = fn(ctx); err != nil {
		s.obs.Logger.ErrorContext(ctx, "cycle section failed", "section", name, "error", err)
		return err.Error()
	}
	return ""
}

func (s *GovernanceService) runSentinel(ctx context.Context, rep *run.Report, known map[string]bool) error {
	snap, err := s.metrics.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("metrics snapshot: %w", err)
	}
	eval := s.sentinel.Evaluate(ctx, snap)
	rep.Sentinel.Evaluation = &eval
	if eval.Status != issue.StatusEscalated {
		return nil
	}

	var errs []error
	for _, u := range contentUpdates(snap, &eval.Issues, s.sentinel.Thresholds().Content.MinWords) {
		if err := s.queueOnce(ctx, rep, known, u, u.URL); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// contentUpdates turns escalated content findings into one update per
// finding. The edit is sized to the page, or to the word minimum for
// thin and unknown pages.
func contentUpdates(snap *metrics.Snapshot, set *issue.Set, minWords int) []action.ContentUpdate {
	words := make(map[string]int, len(snap.ContentPages))
	for _, p := range snap.ContentPages {
		words[p.URL] = p.WordCount
	}
	var out []action.ContentUpdate
	for _, f := range set.Of(issue.CategoryContent) {
		out = append(out, action.ContentUpdate{
			URL:    f.Target,
			Issues: []string{f.Message},
			Words:  max(words[f.Target], minWords),
		})
	}
	return out
}

func (s *GovernanceService) runReviews(ctx context.Context, rep *run.Report, known map[string]bool) error {
	pending, err := s.reviews.PendingReviews(ctx)
	if err != nil {
		return fmt.Errorf("pending reviews: %w", err)
	}
	todo, err := s.unhandled(ctx, pending, known)
	if err != nil {
		return err
	}
	rep.Reviews.Skipped = len(pending) - len(todo)

	for _, res := range s.triage.ProcessAll(ctx, todo) {
		if res.Err != nil {
			rep.Reviews.Failures = append(rep.Reviews.Failures, res.Err.Error())
			continue
		}
		rep.Reviews.Processed++
		t := res.Value
		if !t.Escalated {
			s.markHandled(ctx, t.Review.ID)
			continue
		}
		rep.Reviews.Escalated++
		payload := action.ReviewResponse{Review: t.Review, Analysis: t.Response.Analysis, Draft: t.Response.Response}
		if err := s.queueOnce(ctx, rep, known, payload, t.Review.ID); err != nil {
			rep.Reviews.Failures = append(rep.Reviews.Failures, err.Error())
		}
	}
	return nil
}

// unhandled drops reviews that were already answered and reviews whose
// escalated reply is still awaiting approval.
func (s *GovernanceService) unhandled(ctx context.Context, reviews []review.Review, known map[string]bool) ([]review.Review, error) {
	ids := make([]string, len(reviews))
	for i := range reviews {
		ids[i] = reviews[i].ID
	}
	handled, err := s.store.HandledReviews(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("handled reviews: %w", err)
	}
	out := make([]review.Review, 0, len(reviews))
	for i := range reviews {
		r := reviews[i]
		if handled[r.ID] || known[action.KeyOf(action.ReviewResponse{Review: r})] {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *GovernanceService) markHandled(ctx context.Context, reviewID string) {
	if err := s.store.MarkReviewHandled(ctx, reviewID, s.now()); err != nil {
		s.obs.Logger.ErrorContext(ctx, "mark review handled", "review_id", reviewID, "error", err)
	}
}

// pendingKeys returns the keys of every queued action.
func (s *GovernanceService) pendingKeys(ctx context.Context) map[string]bool {
	known := make(map[string]bool)
	pending, err := s.store.ListPendingActions(ctx)
	if err != nil {
		s.obs.Logger.ErrorContext(ctx, "list pending actions", "error", err)
		return known
	}
	for i := range pending {
		known[pending[i].Key()] = true
	}
	return known
}

// queueOnce queues p unless an action with the same key is already pending.
func (s *GovernanceService) queueOnce(ctx context.Context, rep *run.Report, known map[string]bool, p action.Payload, target string) error {
	key := action.KeyOf(p)
	if known[key] {
		rep.AlreadyQueued++
		s.obs.Logger.DebugContext(ctx, "action already pending", "key", key)
		return nil
	}
	if _, err := s.queue(ctx, p, target); err != nil {
		return err
	}
	known[key] = true
	return nil
}

// queue stores a new pending action and announces it.
func (s *GovernanceService) queue(ctx context.Context, p action.Payload, target string) (*action.Pending, error) {
	now := s.now()
	a := &action.Pending{ID: uuid.NewString(), Payload: p, CreatedAt: now}
	if s.ttl > 0 {
		a.ExpiresAt = now.Add(s.ttl)
	}
	if err := s.store.SavePendingAction(ctx, a); err != nil {
		return nil, fmt.Errorf("queue %s action: %w", p.Kind(), err)
	}
	s.hub.BroadcastEvent(ctx, broadcast.EventActionQueued, ws.ActionQueuedEvent{
		ActionID: a.ID,
		Kind:     string(a.Kind()),
		Target:   target,
	})
	s.obs.Logger.InfoContext(ctx, "action queued for approval", "action_id", a.ID, "kind", a.Kind(), "target", target)
	return a, nil
}

// pruneExpired drops actions past their deadline and returns how many.
func (s *GovernanceService) pruneExpired(ctx context.Context, now time.Time) int {
	pending, err := s.store.ListPendingActions(ctx)
	if err != nil {
		s.obs.Logger.ErrorContext(ctx, "list pending actions", "error", err)
		return 0
	}
	n := 0
	for i := range pending {
		if !pending[i].Expired(now) {
			continue
		}
		if err := s.store.DeletePendingAction(ctx, pending[i].ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.obs.Logger.ErrorContext(ctx, "delete expired action", "action_id", pending[i].ID, "error", err)
			continue
		}
		n++
	}
	if n > 0 {
		s.obs.Logger.InfoContext(ctx, "expired actions pruned", "count", n)
	}
	return n
}

func (s *GovernanceService) finish(ctx context.Context, rep *run.Report) {
	log := s.obs.Logger
	if err := s.store.SaveRunReport(ctx, rep); err != nil {
		log.ErrorContext(ctx, "save run report", "error", err)
	}
	s.latest.Store(rep)

	failed := rep.Failed()
	escalated := rep.Sentinel.Evaluation != nil && rep.Sentinel.Evaluation.Status == issue.StatusEscalated
	s.hub.BroadcastEvent(ctx, broadcast.EventCycleCompleted, ws.CycleCompletedEvent{
		ReportID:       rep.ID,
		Failed:         failed,
		Escalated:      escalated,
		PendingActions: len(rep.PendingActions),
	})
	s.obs.Recorder.CycleCompleted(ctx, rep.Duration(), failed)
	if err := s.cycles.CycleCompleted(ctx, rep); err != nil {
		log.WarnContext(ctx, "publish cycle summary", "error", err)
	}

	log.InfoContext(ctx, "cycle finished",
		"duration", rep.Duration(),
		"failed", failed,
		"escalated", escalated,
		"reviews_processed", rep.Reviews.Processed,
		"pending_actions", len(rep.PendingActions),
	)
}

// ListPending returns the actions waiting for approval, oldest first.
func (s *GovernanceService) ListPending(ctx context.Context) ([]action.Pending, error) {
	return s.store.ListPendingActions(ctx)
}

// LatestReport returns the most recent cycle report.
func (s *GovernanceService) LatestReport(ctx context.Context) (*run.Report, error) {
	if r := s.latest.Load(); r != nil {
		return r, nil
	}
	return s.store.LatestRunReport(ctx)
}

// Approve executes the pending action id. The action is claimed before it
// runs, so a concurrent approval of the same id gets action.ErrNotFound.
// Executor failures are reported in the Result with a nil error.
func (s *GovernanceService) Approve(ctx context.Context, id string, approval action.Approval) (action.Result, error) {
	a, err := s.store.ClaimPendingAction(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return action.Result{}, fmt.Errorf("%w: %s", action.ErrNotFound, id)
	}
	if err != nil {
		return action.Result{}, err
	}
	if a.Expired(s.now()) {
		return action.Result{}, fmt.Errorf("%w: %s", action.ErrExpired, id)
	}

	ctx, span := sgotel.StartApprovalSpan(ctx, id, string(a.Kind()))
	var detail string
	switch p := a.Payload.(type) {
	case action.ContentUpdate:
		detail, err = s.executeContentUpdate(ctx, p, approval)
	case action.ReviewResponse:
		detail, err = s.executeReviewResponse(ctx, p, approval)
	default:
		err = fmt.Errorf("%w: %q", action.ErrUnknownKind, a.Kind())
		sgotel.EndSpan(span, err)
		return action.Result{}, err
	}
	sgotel.EndSpan(span, err)

	res := action.Result{ActionID: id, Kind: a.Kind(), Status: action.ResultExecuted, Detail: detail}
	if err != nil {
		res.Status = action.ResultFailed
		res.Error = err.Error()
		s.obs.Logger.WarnContext(ctx, "approved action failed", "action_id", id, "kind", a.Kind(), "error", err)
	} else {
		s.obs.Logger.InfoContext(ctx, "approved action executed",
			"action_id", id, "kind", a.Kind(), "approved_by", approval.ApprovedBy)
	}

	s.obs.Recorder.ActionResolved(ctx, string(res.Kind), string(res.Status))
	s.hub.BroadcastEvent(ctx, broadcast.EventActionResolved, ws.ActionResolvedEvent{
		ActionID: id,
		Kind:     string(res.Kind),
		Status:   string(res.Status),
	})
	return res, nil
}

func (s *GovernanceService) executeContentUpdate(ctx context.Context, p action.ContentUpdate, ap action.Approval) (string, error) {
	words := p.Words
	if ap.Words > 0 {
		words = ap.Words
	}
	d, err := s.ledger.Decide(ctx, budget.ApproveRequest{Activity: ActivityContentEdit, Quantity: float64(words)})
	if err != nil {
		return "", fmt.Errorf("budget check: %w", err)
	}
	if !d.Approved {
		return "", fmt.Errorf("budget denied %.2f for %d words: %s", d.Cost, words, d.Reason)
	}

	r := &issue.Remediation{
		Kind:        issue.RemediationContentUpdate,
		Target:      p.URL,
		Issue:       strings.Join(p.Issues, "; "),
		ScheduledAt: s.now(),
	}
	if err := s.outbox.ScheduleRemediation(ctx, r); err != nil {
		return "", fmt.Errorf("schedule content update: %w", err)
	}
	return fmt.Sprintf("content update for %s scheduled (%d words, %.2f)", p.URL, words, d.Cost), nil
}

func (s *GovernanceService) executeReviewResponse(ctx context.Context, p action.ReviewResponse, ap action.Approval) (string, error) {
	text := p.Draft
	if strings.TrimSpace(ap.Response) != "" {
		text = ap.Response
	}
	resp := &review.ScheduledResponse{
		ReviewID:     p.Review.ID,
		Response:     text,
		ScheduleTime: s.now().Add(review.ResponseDelay(p.Analysis.Sentiment)),
		Analysis:     p.Analysis,
	}
	if err := s.outbox.ScheduleResponse(ctx, resp); err != nil {
		return "", fmt.Errorf("schedule review response: %w", err)
	}
	s.markHandled(ctx, p.Review.ID)
	return fmt.Sprintf("reply to review %s scheduled for %s", p.Review.ID, resp.ScheduleTime.Format(time.RFC3339)), nil
}
