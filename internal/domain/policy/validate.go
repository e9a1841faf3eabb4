package policy

import "fmt"

// Validate checks that the thresholds are internally consistent.
func (t *Thresholds) Validate() error {
	if t.TrafficDrop > 0 {
		return fmt.Errorf("policy: traffic_drop must be <= 0, got %v", t.TrafficDrop)
	}
	if err := t.CTR.validate("ctr"); err != nil {
		return err
	}
	if t.Reviews.ResponseTimeHours <= 0 {
		return fmt.Errorf("policy: reviews.response_time_hours must be > 0")
	}
	if t.Content.FreshnessDays <= 0 {
		return fmt.Errorf("policy: content.freshness_days must be > 0")
	}
	if t.Content.MinWords < 0 {
		return fmt.Errorf("policy: content.min_words must be >= 0")
	}
	if err := t.Content.KeywordDensity.validate("content.keyword_density"); err != nil {
		return err
	}
	if t.Escalation.MaxReviewIssues < 0 || t.Escalation.MaxContentIssues < 0 {
		return fmt.Errorf("policy: escalation limits must be >= 0")
	}
	return nil
}

func (b Band) validate(name string) error {
	if b.Min < 0 {
		return fmt.Errorf("policy: %s.min must be >= 0", name)
	}
	if b.Max < b.Min {
		return fmt.Errorf("policy: %s.max (%v) below min (%v)", name, b.Max, b.Min)
	}
	return nil
}
