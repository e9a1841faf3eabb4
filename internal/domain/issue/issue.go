// Package issue defines sentinel findings, escalation tickets and
// auto-remediation intents.
package issue

import (
	"time"
)

// Category groups findings.
type Category string

const (
	CategoryTraffic Category = "traffic"
	CategoryCTR     Category = "ctr"
	CategoryReviews Category = "reviews"
	CategoryContent Category = "content"
)

// Kind identifies a single kind of finding.
type Kind string

const (
	KindTrafficDrop       Kind = "traffic_drop"
	KindLowCTR            Kind = "low_ctr"
	KindSuspiciousCTR     Kind = "suspicious_ctr"
	KindUnrespondedReview Kind = "unresponded_review"
	KindStaleContent      Kind = "stale_content"
	KindThinContent       Kind = "thin_content"
	KindLowDensity        Kind = "low_keyword_density"
	KindHighDensity       Kind = "high_keyword_density"
)

// Finding is the structured form of one issue message. Target is a page URL
// or a review ID.
type Finding struct {
	Category Category `json:"category"`
	Kind     Kind     `json:"kind"`
	Target   string   `json:"target,omitempty"`
	Message  string   `json:"message"`
}

// Set is the outcome of one sentinel pass. Category slices hold the
// human-readable messages; Findings holds the same data in structured form.
type Set struct {
	Traffic  bool      `json:"traffic,omitempty"`
	CTR      []string  `json:"ctr,omitempty"`
	Reviews  []string  `json:"reviews,omitempty"`
	Content  []string  `json:"content,omitempty"`
	Findings []Finding `json:"findings,omitempty"`
}

// Add records f under its category.
func (s *Set) Add(f Finding) {
	switch f.Category {
	case CategoryTraffic:
		s.Traffic = true
	case CategoryCTR:
		s.CTR = append(s.CTR, f.Message)
	case CategoryReviews:
		s.Reviews = append(s.Reviews, f.Message)
	case CategoryContent:
		s.Content = append(s.Content, f.Message)
	}
	s.Findings = append(s.Findings, f)
}

// Empty reports whether no category has findings.
func (s *Set) Empty() bool {
	return !s.Traffic && len(s.CTR) == 0 && len(s.Reviews) == 0 && len(s.Content) == 0
}

// Of returns the structured findings of one category in detection order.
func (s *Set) Of(c Category) []Finding {
	var out []Finding
	for _, f := range s.Findings {
		if f.Category == c {
			out = append(out, f)
		}
	}
	return out
}

// Priority of an escalation ticket.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

// TicketTitle is the title used for every escalation ticket.
const TicketTitle = "SEO Issues Requiring Review"

// ticketIDLayout is minute precision: TICKET-YYYYMMDDHHmm.
const ticketIDLayout = "200601021504"

// Ticket is an escalation handed to a human.
type Ticket struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Issues    Set       `json:"issues"`
	Priority  Priority  `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTicket builds the ticket for set. Priority is high iff traffic dropped.
func NewTicket(set Set, now time.Time) *Ticket {
	prio := PriorityMedium
	if set.Traffic {
		prio = PriorityHigh
	}
	return &Ticket{
		ID:        TicketID(now),
		Title:     TicketTitle,
		Issues:    set,
		Priority:  prio,
		CreatedAt: now,
	}
}

// TicketID formats the ticket identifier for now.
func TicketID(now time.Time) string {
	return "TICKET-" + now.Format(ticketIDLayout)
}

// RemediationKind names an auto-remediation intent.
type RemediationKind string

const (
	RemediationContentUpdate RemediationKind = "content_update"
	RemediationAutoRespond   RemediationKind = "auto_respond"
)

// Remediation is an intent scheduled by the sentinel. Completion is not
// tracked.
type Remediation struct {
	Kind        RemediationKind `json:"kind"`
	Target      string          `json:"target,omitempty"`
	Issue       string          `json:"issue"`
	ScheduledAt time.Time       `json:"scheduled_at"`
}

// Status is the sentinel decision.
type Status string

const (
	StatusEscalated Status = "escalated"
	StatusAutoFixed Status = "auto_fixed"
)

// Evaluation is the full sentinel result.
type Evaluation struct {
	Status       Status        `json:"status"`
	Issues       Set           `json:"issues"`
	Ticket       *Ticket       `json:"ticket,omitempty"`
	Remediations []Remediation `json:"remediations,omitempty"`
}
