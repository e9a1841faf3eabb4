// Package action defines automated changes that wait for human approval
// before they are executed.
package action

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Strob0t/seogov/internal/domain/review"
)

var (
	// ErrNotFound is returned when no pending action has the given ID.
	ErrNotFound = errors.New("action not found")
	// ErrUnknownKind is returned for a payload no executor handles.
	ErrUnknownKind = errors.New("unknown action kind")
	// ErrExpired is returned when approving an action past its deadline.
	ErrExpired = errors.New("action expired")
)

// Kind is the discriminator of a Payload.
type Kind string

const (
	KindContentUpdate  Kind = "content_update"
	KindReviewResponse Kind = "review_response"
)

// Payload is the closed set of action bodies. Only types in this package
// implement it.
type Payload interface {
	Kind() Kind
	sealed()
}

// ContentUpdate asks for a page rewrite. Words sizes the edit for pricing.
type ContentUpdate struct {
	URL    string   `json:"url"`
	Issues []string `json:"issues"`
	Words  int      `json:"words"`
}

func (ContentUpdate) Kind() Kind { return KindContentUpdate }
func (ContentUpdate) sealed()    {}

// ReviewResponse holds a drafted reply for an escalated review.
type ReviewResponse struct {
	Review   review.Review   `json:"review"`
	Analysis review.Analysis `json:"analysis"`
	Draft    string          `json:"draft"`
}

func (ReviewResponse) Kind() Kind { return KindReviewResponse }
func (ReviewResponse) sealed()    {}

// Pending is a queued action.
type Pending struct {
	ID        string    `json:"id"`
	Payload   Payload   `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Kind returns the payload discriminator.
func (p *Pending) Kind() Kind {
	if p.Payload == nil {
		return ""
	}
	return p.Payload.Kind()
}

// Target names what the action touches: a page URL or a review ID.
func (p *Pending) Target() string {
	switch v := p.Payload.(type) {
	case ContentUpdate:
		return v.URL
	case ReviewResponse:
		return v.Review.ID
	default:
		return ""
	}
}

// Key identifies the work an action does: its kind and target. Two pending
// actions with the same key would repeat each other.
func (p *Pending) Key() string {
	return string(p.Kind()) + ":" + p.Target()
}

// KeyOf returns the Key a pending action carrying payload would have.
func KeyOf(payload Payload) string {
	return (&Pending{Payload: payload}).Key()
}

// Expired reports whether the action can no longer be approved. A zero
// ExpiresAt never expires.
func (p *Pending) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && !now.Before(p.ExpiresAt)
}

type pendingJSON struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at,omitzero"`
}

// MarshalJSON writes the payload next to its kind discriminator.
func (p Pending) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(p.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(pendingJSON{
		ID:        p.ID,
		Kind:      p.Kind(),
		Payload:   raw,
		CreatedAt: p.CreatedAt,
		ExpiresAt: p.ExpiresAt,
	})
}

// UnmarshalJSON restores the payload variant from its kind.
func (p *Pending) UnmarshalJSON(data []byte) error {
	var v pendingJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	payload, err := DecodePayload(v.Kind, v.Payload)
	if err != nil {
		return err
	}
	*p = Pending{ID: v.ID, Payload: payload, CreatedAt: v.CreatedAt, ExpiresAt: v.ExpiresAt}
	return nil
}

// DecodePayload builds the variant named by kind from raw JSON.
func DecodePayload(kind Kind, raw []byte) (Payload, error) {
	switch kind {
	case KindContentUpdate:
		var c ContentUpdate
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return c, nil
	case KindReviewResponse:
		var r ReviewResponse
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Approval carries the reviewer's input.
type Approval struct {
	ApprovedBy string `json:"approved_by,omitempty"`
	// Response replaces the drafted reply of a review_response action.
	Response string `json:"response,omitempty"`
	// Words overrides the size of a content_update action.
	Words int    `json:"words,omitempty"`
	Note  string `json:"note,omitempty"`
}

// ResultStatus is the outcome of executing an approved action.
type ResultStatus string

const (
	ResultExecuted ResultStatus = "executed"
	ResultFailed   ResultStatus = "failed"
)

// Result is returned by an approval.
type Result struct {
	ActionID string       `json:"action_id"`
	Kind     Kind         `json:"kind"`
	Status   ResultStatus `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Error    string       `json:"error,omitempty"`
}
