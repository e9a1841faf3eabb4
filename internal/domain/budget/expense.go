package budget

import "time"

// Expense is one approved charge against a budget month.
type Expense struct {
	ID         string    `json:"id"`
	Activity   string    `json:"activity"`
	Quantity   float64   `json:"quantity"`
	Cost       float64   `json:"cost"`
	MonthKey   string    `json:"month_key"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ApproveRequest is the input for an expenditure decision.
type ApproveRequest struct {
	Activity    string   `json:"activity"`
	Quantity    float64  `json:"quantity"`
	ExpectedROI *float64 `json:"expected_roi,omitempty"`
}

// MinROIMultiple is the minimum expected return, as a multiple of cost,
// required when an ROI estimate is supplied.
const MinROIMultiple = 3.0

// MeetsROI reports whether expectedROI clears the minimum multiple of cost.
func MeetsROI(cost, expectedROI float64) bool {
	return expectedROI >= cost*MinROIMultiple
}
