package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/seogov/internal/domain/budget"
	"github.com/Strob0t/seogov/internal/port/telemetry"
)

// LedgerStore is the persistence the ledger needs. nil keeps the ledger
// in memory only.
type LedgerStore interface {
	MonthSpend(ctx context.Context, monthKey string) (float64, error)
	InsertExpense(ctx context.Context, e *budget.Expense) error
}

// Denial reasons reported by Decide.
const (
	ReasonApproved           = "approved"
	ReasonInsufficientBudget = "insufficient_budget"
	ReasonInsufficientROI    = "insufficient_roi"
)

// Decision is the outcome of an expenditure request.
type Decision struct {
	Approved bool            `json:"approved"`
	Cost     float64         `json:"cost"`
	Reason   string          `json:"reason"`
	Expense  *budget.Expense `json:"expense,omitempty"`
}

// LedgerService tracks spending against the monthly budget. Every decision
// runs price, budget check, ROI check, record and persist under one lock, so
// concurrent approvals can never overspend.
type LedgerService struct {
	mu     sync.Mutex
	prices budget.PriceTable
	state  budget.State
	store  LedgerStore
	obs    telemetry.Observer
	now    func() time.Time
}

// NewLedgerService creates a ledger for the current month. prices may be nil
// for the defaults.
func NewLedgerService(monthly float64, prices budget.PriceTable, store LedgerStore, obs telemetry.Observer) *LedgerService {
	if prices == nil {
		prices = budget.DefaultPrices()
	}
	return &LedgerService{
		prices: prices,
		state:  budget.NewState(monthly, time.Now()),
		store:  store,
		obs:    obs.With("component", "ledger"),
		now:    time.Now,
	}
}

// Load seeds the current month's spend from the store.
func (s *LedgerService) Load(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollover(ctx, s.now())
	spent, err := s.store.MonthSpend(ctx, s.state.MonthKey)
	if err != nil {
		return fmt.Errorf("load month spend: %w", err)
	}
	s.state.Spent = spent
	s.obs.Logger.InfoContext(ctx, "ledger loaded", "month", s.state.MonthKey, "spent", spent)
	return nil
}

// Prices returns a copy of the live price table.
func (s *LedgerService) Prices() budget.PriceTable {
	return s.prices.Clone()
}

// Approve decides whether quantity units of activity may be bought and
// records the cost when they may. An unknown or malformed activity returns
// budget.ErrInvalidActivityKey.
func (s *LedgerService) Approve(ctx context.Context, activity string, quantity float64, expectedROI *float64) (bool, error) {
	d, err := s.Decide(ctx, budget.ApproveRequest{Activity: activity, Quantity: quantity, ExpectedROI: expectedROI})
	return d.Approved, err
}

// Decide is Approve with the priced outcome. A denial leaves the ledger
// untouched.
func (s *LedgerService) Decide(ctx context.Context, req budget.ApproveRequest) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover(ctx, s.now())

	cost, err := s.prices.PriceOf(req.Activity, req.Quantity)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{Cost: cost}
	switch {
	case !s.state.Fits(cost):
		d.Reason = ReasonInsufficientBudget
	case req.ExpectedROI != nil && !budget.MeetsROI(cost, *req.ExpectedROI):
		d.Reason = ReasonInsufficientROI
	}
	if d.Reason != "" {
		s.obs.Recorder.ExpenseDecided(ctx, req.Activity, cost, false)
		s.obs.Logger.InfoContext(ctx, "expense denied",
			"activity", req.Activity, "cost", cost, "reason", d.Reason, "spent", s.state.Spent)
		return d, nil
	}

	e := &budget.Expense{
		ID:         uuid.NewString(),
		Activity:   req.Activity,
		Quantity:   req.Quantity,
		Cost:       cost,
		MonthKey:   s.state.MonthKey,
		RecordedAt: s.now(),
	}
	if err := s.record(ctx, e); err != nil {
		return Decision{Cost: cost}, err
	}

	s.obs.Recorder.ExpenseDecided(ctx, req.Activity, cost, true)
	s.obs.Logger.InfoContext(ctx, "expense approved",
		"activity", req.Activity, "cost", cost, "spent", s.state.Spent)
	return Decision{Approved: true, Cost: cost, Reason: ReasonApproved, Expense: e}, nil
}

// RecordExpense adds a manual correction to the current month. It does not
// check the budget.
func (s *LedgerService) RecordExpense(ctx context.Context, cost float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover(ctx, s.now())
	return s.record(ctx, &budget.Expense{
		ID:         uuid.NewString(),
		Activity:   "manual",
		Quantity:   1,
		Cost:       cost,
		MonthKey:   s.state.MonthKey,
		RecordedAt: s.now(),
	})
}

// record must be called with s.mu held. The in-memory spend is reverted
// when the store rejects the expense.
func (s *LedgerService) record(ctx context.Context, e *budget.Expense) error {
	if err := s.state.Add(e.Cost); err != nil {
		return err
	}
	if s.store == nil {
		return nil
	}
	if err := s.store.InsertExpense(ctx, e); err != nil {
		s.state.Spent -= e.Cost
		return fmt.Errorf("persist expense: %w", err)
	}
	return nil
}

// AdvanceMonth rolls the ledger over when now falls in a new month and
// reports whether it did.
func (s *LedgerService) AdvanceMonth(ctx context.Context, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollover(ctx, now)
}

// rollover must be called with s.mu held.
func (s *LedgerService) rollover(ctx context.Context, now time.Time) bool {
	prev := s.state.MonthKey
	if !s.state.AdvanceMonth(budget.MonthKey(now)) {
		return false
	}
	s.obs.Logger.InfoContext(ctx, "budget month rolled over", "from", prev, "to", s.state.MonthKey)
	return true
}

// Status projects the current month's spend as of now, rolling the month
// over first when now is in a later month.
func (s *LedgerService) Status(now time.Time) budget.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover(context.Background(), now)
	return s.state.Status(now)
}

// Optimizations suggests reduced unit prices when the month is projected
// over budget. It returns nil when on track. The live table is unchanged.
func (s *LedgerService) Optimizations(now time.Time) map[string]float64 {
	if s.Status(now).State != budget.StandingOverBudget {
		return nil
	}
	return s.prices.Suggest(budget.DefaultDiscounts())
}
