package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/seogov/internal/domain/budget"
)

// MonthSpend sums the expenses recorded for a month.
func (s *Store) MonthSpend(ctx context.Context, monthKey string) (float64, error) {
	var total float64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(cost), 0) FROM expenses WHERE month_key = $1`, monthKey,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("month spend %s: %w", monthKey, err)
	}
	return total, nil
}

// InsertExpense appends one ledger line.
func (s *Store) InsertExpense(ctx context.Context, e *budget.Expense) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO expenses (id, activity, quantity, cost, month_key, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Activity, e.Quantity, e.Cost, e.MonthKey, e.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert expense %s: %w", e.ID, err)
	}
	return nil
}

// ListExpenses returns a month's ledger lines, oldest first.
func (s *Store) ListExpenses(ctx context.Context, monthKey string) ([]budget.Expense, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, activity, quantity, cost, month_key, recorded_at
		 FROM expenses WHERE month_key = $1 ORDER BY recorded_at, id`, monthKey)
	if err != nil {
		return nil, fmt.Errorf("list expenses %s: %w", monthKey, err)
	}
	defer rows.Close()

	var out []budget.Expense
	for rows.Next() {
		var e budget.Expense
		if err := rows.Scan(&e.ID, &e.Activity, &e.Quantity, &e.Cost, &e.MonthKey, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return orEmpty(out), rows.Err()
}
