// Package ticketsink defines where escalation tickets are delivered.
package ticketsink

import (
	"context"
	"errors"

	"github.com/Strob0t/seogov/internal/domain/issue"
)

// Sink receives escalation tickets. A failed delivery is reported to the
// caller; it never aborts an evaluation.
type Sink interface {
	CreateTicket(ctx context.Context, t *issue.Ticket) error
}

// Fanout delivers every ticket to all sinks. It fails only when every sink
// failed.
type Fanout []Sink

func (f Fanout) CreateTicket(ctx context.Context, t *issue.Ticket) error {
	var errs []error
	for _, s := range f {
		if err := s.CreateTicket(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == len(f) && len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
