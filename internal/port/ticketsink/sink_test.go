package ticketsink

import (
	"context"
	"errors"
	"testing"

	"github.com/Strob0t/seogov/internal/domain/issue"
)

type stubSink struct {
	calls int
	err   error
}

func (s *stubSink) CreateTicket(context.Context, *issue.Ticket) error {
	s.calls++
	return s.err
}

func TestFanout(t *testing.T) {
	errDown := errors.New("down")
	tests := []struct {
		name    string
		errs    []error
		wantErr bool
	}{
		{"all succeed", []error{nil, nil}, false},
		{"one fails", []error{errDown, nil}, false},
		{"all fail", []error{errDown, errDown}, true},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Fanout
			var stubs []*stubSink
			for _, err := range tt.errs {
				s := &stubSink{err: err}
				stubs = append(stubs, s)
				f = append(f, s)
			}
			err := f.CreateTicket(context.Background(), &issue.Ticket{ID: "T"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			for i, s := range stubs {
				if s.calls != 1 {
					t.Errorf("sink %d calls = %d, want 1", i, s.calls)
				}
			}
		})
	}
}
