package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Strob0t/seogov/internal/domain/action"
	"github.com/Strob0t/seogov/internal/domain/budget"
	"github.com/Strob0t/seogov/internal/domain/metrics"
	"github.com/Strob0t/seogov/internal/domain/review"
	"github.com/Strob0t/seogov/internal/service"
)

// Handlers holds the services behind the HTTP API.
type Handlers struct {
	Governance *service.GovernanceService
	Ledger     *service.LedgerService
	Triage     *service.TriageService
	Sentinel   *service.SentinelService
	Scheduler  *service.Scheduler
	// Now is the clock used for budget projections; nil means time.Now.
	Now func() time.Time
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

type healthResponse struct {
	Status       string `json:"status"`
	CycleRunning bool   `json:"cycle_running"`
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", CycleRunning: h.Scheduler.Running()})
}

// ---------------------------------------------------------------------------
// Cycles
// ---------------------------------------------------------------------------

// TriggerCycle handles POST /api/v1/cycles. The cycle outlives a client
// disconnect; a second trigger while one is running gets a 409.
func (h *Handlers) TriggerCycle(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Scheduler.Trigger(context.WithoutCancel(r.Context()))
	if err != nil {
		writeDomainError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// LatestReport handles GET /api/v1/reports/latest.
func (h *Handlers) LatestReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Governance.LatestReport(r.Context())
	if err != nil {
		writeDomainError(w, err, "no cycle has completed yet")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// ---------------------------------------------------------------------------
// Sentinel
// ---------------------------------------------------------------------------

// EvaluateSnapshot handles POST /api/v1/sentinel/evaluate.
func (h *Handlers) EvaluateSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := readJSON[metrics.Snapshot](w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.Sentinel.Evaluate(r.Context(), &snap))
}

// ---------------------------------------------------------------------------
// Budget
// ---------------------------------------------------------------------------

// BudgetStatus handles GET /api/v1/budget.
func (h *Handlers) BudgetStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Ledger.Status(h.now()))
}

type optimizationsResponse struct {
	State         budget.Standing    `json:"state"`
	Optimizations map[string]float64 `json:"optimizations"`
}

// BudgetOptimizations handles GET /api/v1/budget/optimizations. The map is
// empty unless the month is projected over budget.
func (h *Handlers) BudgetOptimizations(w http.ResponseWriter, _ *http.Request) {
	now := h.now()
	opts := h.Ledger.Optimizations(now)
	if opts == nil {
		opts = map[string]float64{}
	}
	writeJSON(w, http.StatusOK, optimizationsResponse{
		State:         h.Ledger.Status(now).State,
		Optimizations: opts,
	})
}

// ApproveExpense handles POST /api/v1/budget/approve.
func (h *Handlers) ApproveExpense(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[budget.ApproveRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.Activity, "activity") {
		return
	}
	d, err := h.Ledger.Decide(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ---------------------------------------------------------------------------
// Reviews
// ---------------------------------------------------------------------------

// AnalyzeReview handles POST /api/v1/reviews/analyze. It drafts the reply
// without sending it anywhere.
func (h *Handlers) AnalyzeReview(w http.ResponseWriter, r *http.Request) {
	rv, ok := readJSON[review.Review](w, r)
	if !ok {
		return
	}
	if err := rv.Validate(); err != nil {
		writeDomainError(w, err, "")
		return
	}
	resp, err := h.Triage.ScheduleResponse(&rv)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RequestReview handles POST /api/v1/reviews/requests. Events that never
// trigger a request get a 204.
func (h *Handlers) RequestReview(w http.ResponseWriter, r *http.Request) {
	ev, ok := readJSON[review.LifecycleEvent](w, r)
	if !ok {
		return
	}
	if !requireField(w, string(ev.EventType), "event_type") {
		return
	}
	req, err := h.Triage.RequestReview(r.Context(), ev)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if req == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusAccepted, req)
}

// ---------------------------------------------------------------------------
// Pending actions
// ---------------------------------------------------------------------------

// ListActions handles GET /api/v1/actions.
func (h *Handlers) ListActions(w http.ResponseWriter, r *http.Request) {
	pending, err := h.Governance.ListPending(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if pending == nil {
		pending = []action.Pending{}
	}
	writeJSON(w, http.StatusOK, pending)
}

// ApproveAction handles POST /api/v1/actions/{id}/approve. The body is
// optional. A failed execution still answers 200 with status "failed".
func (h *Handlers) ApproveAction(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	if !requireField(w, id, "id") {
		return
	}
	ap, ok := readOptionalJSON[action.Approval](w, r)
	if !ok {
		return
	}
	res, err := h.Governance.Approve(r.Context(), id, ap)
	if err != nil {
		writeDomainError(w, err, "action not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
