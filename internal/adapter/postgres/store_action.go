package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Strob0t/seogov/internal/domain/action"
)

const pendingColumns = `id, kind, payload, created_at, expires_at`

// SavePendingAction inserts or replaces a queued action.
func (s *Store) SavePendingAction(ctx context.Context, a *action.Pending) error {
	payload, err := json.Marshal(a.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload %s: %w", a.ID, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO pending_actions (`+pendingColumns+`)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET kind = EXCLUDED.kind, payload = EXCLUDED.payload,
		     expires_at = EXCLUDED.expires_at`,
		a.ID, string(a.Kind()), payload, a.CreatedAt, nullTime(a.ExpiresAt))
	if err != nil {
		return fmt.Errorf("save pending action %s: %w", a.ID, err)
	}
	return nil
}

// GetPendingAction loads one queued action.
func (s *Store) GetPendingAction(ctx context.Context, id string) (*action.Pending, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pendingColumns+` FROM pending_actions WHERE id = $1`, id)
	p, err := scanPending(row)
	if err != nil {
		return nil, notFoundWrap(err, "get pending action %s", id)
	}
	return &p, nil
}

// DeletePendingAction removes a queued action.
func (s *Store) DeletePendingAction(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM pending_actions WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete pending action %s", id)
}

// ClaimPendingAction deletes a queued action and returns it. Concurrent
// claims of one id see exactly one winner.
func (s *Store) ClaimPendingAction(ctx context.Context, id string) (*action.Pending, error) {
	row := s.pool.QueryRow(ctx,
		`DELETE FROM pending_actions WHERE id = $1 RETURNING `+pendingColumns, id)
	p, err := scanPending(row)
	if err != nil {
		return nil, notFoundWrap(err, "claim pending action %s", id)
	}
	return &p, nil
}

// ListPendingActions returns the queue, oldest first.
func (s *Store) ListPendingActions(ctx context.Context) ([]action.Pending, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pendingColumns+` FROM pending_actions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list pending actions: %w", err)
	}
	defer rows.Close()

	var out []action.Pending
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return orEmpty(out), rows.Err()
}

func scanPending(row scannable) (action.Pending, error) {
	var (
		p         action.Pending
		kind      string
		payload   []byte
		expiresAt *time.Time
	)
	if err := row.Scan(&p.ID, &kind, &payload, &p.CreatedAt, &expiresAt); err != nil {
		return p, err
	}
	decoded, err := action.DecodePayload(action.Kind(kind), payload)
	if err != nil {
		return p, fmt.Errorf("pending action %s: %w", p.ID, err)
	}
	p.Payload = decoded
	p.ExpiresAt = timeOrZero(expiresAt)
	return p, nil
}

// MarkReviewHandled records that a review was answered or resolved by an
// approval. Marking twice keeps the first time.
func (s *Store) MarkReviewHandled(ctx context.Context, reviewID string, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO handled_reviews (review_id, handled_at) VALUES ($1, $2)
		 ON CONFLICT (review_id) DO NOTHING`,
		reviewID, at)
	if err != nil {
		return fmt.Errorf("mark review %s handled: %w", reviewID, err)
	}
	return nil
}

// HandledReviews reports which of the given review ids were handled.
func (s *Store) HandledReviews(ctx context.Context, reviewIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(reviewIDs) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT review_id FROM handled_reviews WHERE review_id = ANY($1)`, reviewIDs)
	if err != nil {
		return nil, fmt.Errorf("handled reviews: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan handled review: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}
