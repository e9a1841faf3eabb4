// Package metrics defines the site-health snapshot evaluated each cycle.
package metrics

import (
	"time"

	"github.com/Strob0t/seogov/internal/domain/review"
)

// Traffic compares visit counts between two equal-length periods.
type Traffic struct {
	Current  int64 `json:"current" yaml:"current"`
	Previous int64 `json:"previous" yaml:"previous"`
}

// ChangePercent returns the relative change from Previous to Current.
// ok is false when Previous is zero.
func (t Traffic) ChangePercent() (pct float64, ok bool) {
	if t.Previous == 0 {
		return 0, false
	}
	return float64(t.Current-t.Previous) / float64(t.Previous) * 100, true
}

// SearchPage is one row of search-console data. CTR is a percentage.
type SearchPage struct {
	URL         string  `json:"url" yaml:"url"`
	Clicks      int64   `json:"clicks" yaml:"clicks"`
	Impressions int64   `json:"impressions" yaml:"impressions"`
	CTR         float64 `json:"ctr" yaml:"ctr"`
	Position    float64 `json:"position" yaml:"position"`
}

// ContentPage describes a published page. KeywordDensity is a percentage.
type ContentPage struct {
	URL            string    `json:"url" yaml:"url"`
	LastUpdated    time.Time `json:"last_updated" yaml:"last_updated"`
	WordCount      int       `json:"word_count" yaml:"word_count"`
	KeywordDensity float64   `json:"keyword_density" yaml:"keyword_density"`
}

// Snapshot is the immutable input of one evaluation.
type Snapshot struct {
	Traffic      Traffic         `json:"traffic" yaml:"traffic"`
	SearchPages  []SearchPage    `json:"search_pages" yaml:"search_pages"`
	Reviews      []review.Review `json:"reviews" yaml:"reviews"`
	ContentPages []ContentPage   `json:"content_pages" yaml:"content_pages"`
}
