package budget

import (
	"fmt"
	"math"
	"time"
)

// MonthKeyLayout formats a time as a budget month ("YYYY-MM").
const MonthKeyLayout = "2006-01"

// MonthKey returns the budget month containing t.
func MonthKey(t time.Time) string {
	return t.Format(MonthKeyLayout)
}

// DaysInMonth returns the number of days in t's calendar month.
func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// Standing summarizes whether the month-end projection fits the budget.
type Standing string

const (
	StandingOnTrack    Standing = "on_track"
	StandingOverBudget Standing = "over_budget"
)

// State is the live spend for one budget month. Spent is never negative.
type State struct {
	MonthKey string  `json:"month_key"`
	Spent    float64 `json:"spent"`
	Budget   float64 `json:"budget"`
}

// NewState starts an empty month for the given budget.
func NewState(monthlyBudget float64, now time.Time) State {
	return State{MonthKey: MonthKey(now), Budget: monthlyBudget}
}

// AdvanceMonth rolls the state over when month is later than the cached
// key. An earlier month is ignored. Returns true when a rollover happened.
func (s *State) AdvanceMonth(month string) bool {
	if month <= s.MonthKey {
		return false
	}
	s.MonthKey = month
	s.Spent = 0
	return true
}

// Fits reports whether cost can be added without exceeding the budget.
func (s *State) Fits(cost float64) bool {
	return s.Spent+cost <= s.Budget
}

// Add records cost against the current month.
func (s *State) Add(cost float64) error {
	if cost < 0 || math.IsNaN(cost) || math.IsInf(cost, 0) {
		return fmt.Errorf("expense must be a non-negative amount, got %v", cost)
	}
	s.Spent += cost
	return nil
}

// Status is the budget snapshot with month-end projection.
type Status struct {
	MonthKey       string   `json:"month_key"`
	Budget         float64  `json:"budget"`
	Spent          float64  `json:"spent"`
	Remaining      float64  `json:"remaining"`
	DailyRate      float64  `json:"daily_rate"`
	ProjectedSpend float64  `json:"projected_spend"`
	State          Standing `json:"state"`
}

// Status projects the current spend to month end as of now.
func (s *State) Status(now time.Time) Status {
	day := now.Day()
	var rate float64
	if day > 0 {
		rate = s.Spent / float64(day)
	}
	projected := rate * float64(DaysInMonth(now))

	standing := StandingOnTrack
	if projected > s.Budget {
		standing = StandingOverBudget
	}

	return Status{
		MonthKey:       s.MonthKey,
		Budget:         s.Budget,
		Spent:          s.Spent,
		Remaining:      s.Budget - s.Spent,
		DailyRate:      rate,
		ProjectedSpend: projected,
		State:          standing,
	}
}

// DefaultDiscounts are the advisory unit-price reductions suggested when the
// month is projected over budget.
func DefaultDiscounts() map[string]float64 {
	return map[string]float64{
		"content.word":       0.9,
		"content.image":      0.8,
		"local_seo.gmb_post": 0.85,
	}
}

// Suggest applies ratios to the table's unit prices, floored at zero.
// Keys missing from the table are skipped. The table is not modified.
func (t PriceTable) Suggest(ratios map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(ratios))
	for key, ratio := range ratios {
		price, err := t.UnitPrice(key)
		if err != nil {
			continue
		}
		out[key] = math.Max(0, price*ratio)
	}
	return out
}
