package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Strob0t/seogov/internal/domain/issue"
	"github.com/Strob0t/seogov/internal/domain/run"
)

// SaveRunReport stores a finished cycle report.
func (s *Store) SaveRunReport(ctx context.Context, r *run.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report %s: %w", r.ID, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO run_reports (id, started_at, finished_at, failed, report)
		 VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.StartedAt, r.FinishedAt, pgTextArray(r.Failed()), data)
	if err != nil {
		return fmt.Errorf("save report %s: %w", r.ID, err)
	}
	return nil
}

// LatestRunReport returns the most recently finished report.
func (s *Store) LatestRunReport(ctx context.Context) (*run.Report, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT report FROM run_reports ORDER BY finished_at DESC LIMIT 1`,
	).Scan(&data)
	if err != nil {
		return nil, notFoundWrap(err, "latest report")
	}
	var r run.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}

// SaveTicket stores an escalation ticket. Ticket IDs have minute precision,
// so a second escalation within the same minute replaces the first.
func (s *Store) SaveTicket(ctx context.Context, t *issue.Ticket) error {
	issues, err := json.Marshal(t.Issues)
	if err != nil {
		return fmt.Errorf("marshal ticket %s: %w", t.ID, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO tickets (id, title, priority, issues, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, priority = EXCLUDED.priority,
		     issues = EXCLUDED.issues, created_at = EXCLUDED.created_at`,
		t.ID, t.Title, string(t.Priority), issues, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("save ticket %s: %w", t.ID, err)
	}
	return nil
}

// ListTickets returns the newest tickets first.
func (s *Store) ListTickets(ctx context.Context, limit int) ([]issue.Ticket, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, priority, issues, created_at
		 FROM tickets ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var out []issue.Ticket
	for rows.Next() {
		var (
			t        issue.Ticket
			priority string
			issues   []byte
		)
		if err := rows.Scan(&t.ID, &t.Title, &priority, &issues, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		if err := json.Unmarshal(issues, &t.Issues); err != nil {
			return nil, fmt.Errorf("decode ticket %s: %w", t.ID, err)
		}
		t.Priority = issue.Priority(priority)
		out = append(out, t)
	}
	return orEmpty(out), rows.Err()
}
