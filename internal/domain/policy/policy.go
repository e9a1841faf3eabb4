// Package policy defines the sentinel thresholds and the rules that turn a
// metrics snapshot into an issue set and an escalation decision.
package policy

// Band is an inclusive acceptable range.
type Band struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// ReviewLimits bounds review response handling.
type ReviewLimits struct {
	ResponseTimeHours float64 `json:"response_time_hours" yaml:"response_time_hours"`
}

// ContentLimits bounds content freshness and quality.
type ContentLimits struct {
	FreshnessDays  int  `json:"freshness_days" yaml:"freshness_days"`
	MinWords       int  `json:"min_words" yaml:"min_words"`
	KeywordDensity Band `json:"keyword_density" yaml:"keyword_density"`
}

// EscalationLimits are the per-category counts above which a human must
// review the findings.
type EscalationLimits struct {
	MaxReviewIssues  int `json:"max_review_issues" yaml:"max_review_issues"`
	MaxContentIssues int `json:"max_content_issues" yaml:"max_content_issues"`
}

// Thresholds is the full sentinel policy.
type Thresholds struct {
	TrafficDrop float64          `json:"traffic_drop" yaml:"traffic_drop"` // percent, negative
	CTR         Band             `json:"ctr" yaml:"ctr"`                   // percent
	Reviews     ReviewLimits     `json:"reviews" yaml:"reviews"`
	Content     ContentLimits    `json:"content" yaml:"content"`
	Escalation  EscalationLimits `json:"escalation" yaml:"escalation"`
}

// Defaults returns the built-in thresholds.
func Defaults() Thresholds {
	return Thresholds{
		TrafficDrop: -15,
		CTR:         Band{Min: 2.5, Max: 8},
		Reviews:     ReviewLimits{ResponseTimeHours: 4},
		Content: ContentLimits{
			FreshnessDays:  90,
			MinWords:       1200,
			KeywordDensity: Band{Min: 0.8, Max: 1.2},
		},
		Escalation: EscalationLimits{
			MaxReviewIssues:  3,
			MaxContentIssues: 5,
		},
	}
}
