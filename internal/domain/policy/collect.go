package policy

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Strob0t/seogov/internal/domain/issue"
	"github.com/Strob0t/seogov/internal/domain/metrics"
	"github.com/Strob0t/seogov/internal/domain/review"
)

// TrafficDropMessage is the message recorded for a traffic finding.
const TrafficDropMessage = "significant_drop"

// Collect runs the four independent checks against snap. It is a pure
// function of its arguments.
func Collect(snap *metrics.Snapshot, t *Thresholds, now time.Time) issue.Set {
	var set issue.Set

	if TrafficDropped(snap.Traffic, t) {
		set.Add(issue.Finding{
			Category: issue.CategoryTraffic,
			Kind:     issue.KindTrafficDrop,
			Message:  TrafficDropMessage,
		})
	}
	for _, p := range snap.SearchPages {
		if f, ok := checkCTR(p, t); ok {
			set.Add(f)
		}
	}
	for i := range snap.Reviews {
		if f, ok := checkReview(&snap.Reviews[i], t, now); ok {
			set.Add(f)
		}
	}
	for _, p := range snap.ContentPages {
		for _, f := range checkContent(p, t, now) {
			set.Add(f)
		}
	}
	return set
}

// TrafficDropped reports whether the traffic change is at or below the drop
// threshold. A zero previous count never counts as a drop.
func TrafficDropped(tr metrics.Traffic, t *Thresholds) bool {
	pct, ok := tr.ChangePercent()
	return ok && pct <= t.TrafficDrop
}

func checkCTR(p metrics.SearchPage, t *Thresholds) (issue.Finding, bool) {
	ctr := strconv.FormatFloat(p.CTR, 'f', -1, 64)
	switch {
	case p.CTR < t.CTR.Min:
		return issue.Finding{
			Category: issue.CategoryCTR,
			Kind:     issue.KindLowCTR,
			Target:   p.URL,
			Message:  fmt.Sprintf("Low CTR on %s: %s%%", p.URL, ctr),
		}, true
	case p.CTR > t.CTR.Max:
		return issue.Finding{
			Category: issue.CategoryCTR,
			Kind:     issue.KindSuspiciousCTR,
			Target:   p.URL,
			Message:  fmt.Sprintf("Suspicious CTR on %s: %s%%", p.URL, ctr),
		}, true
	}
	return issue.Finding{}, false
}

func checkReview(r *review.Review, t *Thresholds, now time.Time) (issue.Finding, bool) {
	if r.Responded() {
		return issue.Finding{}, false
	}
	sla := time.Duration(t.Reviews.ResponseTimeHours * float64(time.Hour))
	if now.Sub(r.Date) <= sla {
		return issue.Finding{}, false
	}
	return issue.Finding{
		Category: issue.CategoryReviews,
		Kind:     issue.KindUnrespondedReview,
		Target:   r.ID,
		Message:  "Unresponded review from " + r.Date.Format(time.RFC3339),
	}, true
}

func checkContent(p metrics.ContentPage, t *Thresholds, now time.Time) []issue.Finding {
	var out []issue.Finding
	add := func(kind issue.Kind, format string) {
		out = append(out, issue.Finding{
			Category: issue.CategoryContent,
			Kind:     kind,
			Target:   p.URL,
			Message:  fmt.Sprintf(format, p.URL),
		})
	}

	freshness := time.Duration(t.Content.FreshnessDays) * 24 * time.Hour
	if now.Sub(p.LastUpdated) > freshness {
		add(issue.KindStaleContent, "Stale content on %s")
	}
	if p.WordCount < t.Content.MinWords {
		add(issue.KindThinContent, "Thin content on %s")
	}
	switch {
	case p.KeywordDensity < t.Content.KeywordDensity.Min:
		add(issue.KindLowDensity, "Low keyword density on %s")
	case p.KeywordDensity > t.Content.KeywordDensity.Max:
		add(issue.KindHighDensity, "High keyword density on %s")
	}
	return out
}

// NeedsHuman is the escalation policy: any traffic drop, or more review or
// content findings than the configured limits.
func NeedsHuman(set *issue.Set, t *Thresholds) bool {
	return set.Traffic ||
		len(set.Reviews) > t.Escalation.MaxReviewIssues ||
		len(set.Content) > t.Escalation.MaxContentIssues
}
