// Package memory is an in-process database.Store for single-instance runs
// and the CLI. Nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Strob0t/seogov/internal/domain"
	"github.com/Strob0t/seogov/internal/domain/action"
	"github.com/Strob0t/seogov/internal/domain/budget"
	"github.com/Strob0t/seogov/internal/domain/issue"
	"github.com/Strob0t/seogov/internal/domain/run"
	"github.com/Strob0t/seogov/internal/port/database"
)

var _ database.Store = (*Store)(nil)

// Store keeps everything in maps guarded by one lock.
type Store struct {
	mu       sync.RWMutex
	expenses []budget.Expense
	pending  map[string]action.Pending
	reports  []run.Report
	tickets  map[string]issue.Ticket
	handled  map[string]time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		pending: make(map[string]action.Pending),
		tickets: make(map[string]issue.Ticket),
		handled: make(map[string]time.Time),
	}
}

func (s *Store) MonthSpend(_ context.Context, monthKey string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for i := range s.expenses {
		if s.expenses[i].MonthKey == monthKey {
			total += s.expenses[i].Cost
		}
	}
	return total, nil
}

func (s *Store) InsertExpense(_ context.Context, e *budget.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, *e)
	return nil
}

func (s *Store) ListExpenses(_ context.Context, monthKey string) ([]budget.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []budget.Expense{}
	for i := range s.expenses {
		if s.expenses[i].MonthKey == monthKey {
			out = append(out, s.expenses[i])
		}
	}
	return out, nil
}

func (s *Store) SavePendingAction(_ context.Context, a *action.Pending) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[a.ID] = *a
	return nil
}

func (s *Store) GetPendingAction(_ context.Context, id string) (*action.Pending, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pending[id]
	if !ok {
		return nil, fmt.Errorf("get pending action %s: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) DeletePendingAction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[id]; !ok {
		return fmt.Errorf("delete pending action %s: %w", id, domain.ErrNotFound)
	}
	delete(s.pending, id)
	return nil
}

func (s *Store) ClaimPendingAction(_ context.Context, id string) (*action.Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[id]
	if !ok {
		return nil, fmt.Errorf("claim pending action %s: %w", id, domain.ErrNotFound)
	}
	delete(s.pending, id)
	return &p, nil
}

// ListPendingActions returns the queue, oldest first.
func (s *Store) ListPendingActions(_ context.Context) ([]action.Pending, error) {
	s.mu.RLock()
	out := make([]action.Pending, 0, len(s.pending))
	for id := range s.pending {
		out = append(out, s.pending[id])
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) MarkReviewHandled(_ context.Context, reviewID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.handled[reviewID]; !ok {
		s.handled[reviewID] = at
	}
	return nil
}

func (s *Store) HandledReviews(_ context.Context, reviewIDs []string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool)
	for _, id := range reviewIDs {
		if _, ok := s.handled[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (s *Store) SaveRunReport(_ context.Context, r *run.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, *r)
	return nil
}

func (s *Store) LatestRunReport(_ context.Context) (*run.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *run.Report
	for i := range s.reports {
		if latest == nil || s.reports[i].FinishedAt.After(latest.FinishedAt) {
			latest = &s.reports[i]
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("latest report: %w", domain.ErrNotFound)
	}
	cp := *latest
	return &cp, nil
}

func (s *Store) SaveTicket(_ context.Context, t *issue.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[t.ID] = *t
	return nil
}

// ListTickets returns the newest tickets first.
func (s *Store) ListTickets(_ context.Context, limit int) ([]issue.Ticket, error) {
	s.mu.RLock()
	out := make([]issue.Ticket, 0, len(s.tickets))
	for id := range s.tickets {
		out = append(out, s.tickets[id])
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
