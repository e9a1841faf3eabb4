// Package review defines customer reviews and their deterministic triage:
// sentiment bucketing, highlight extraction and escalation rules.
package review

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Strob0t/seogov/internal/domain"
)

// Sentiment is the bucket derived from a review's star rating.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Review is a customer review pulled from a review platform.
type Review struct {
	ID       string    `json:"id" yaml:"id"`
	Author   string    `json:"author" yaml:"author"`
	Rating   int       `json:"rating" yaml:"rating"`
	Text     string    `json:"text" yaml:"text"`
	Date     time.Time `json:"date" yaml:"date"`
	Response string    `json:"response,omitempty" yaml:"response,omitempty"`
}

// Responded reports whether the business already replied.
func (r *Review) Responded() bool {
	return strings.TrimSpace(r.Response) != ""
}

// ErrInvalidRating is returned by Validate for ratings outside 1..5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// Validate checks the fields required for triage.
func (r *Review) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("%w: %w", domain.ErrValidation, ErrInvalidRating)
	}
	return nil
}

// Analysis is the triage outcome for a single review.
type Analysis struct {
	Sentiment       Sentiment `json:"sentiment"`
	Highlights      []string  `json:"highlights"`
	Rating          int       `json:"rating"`
	Length          int       `json:"length"`
	NeedsEscalation bool      `json:"needs_escalation"`
}

// MaxTextLength is the length in characters above which a review is
// escalated regardless of its rating.
const MaxTextLength = 500

var (
	highlightKeywords  = []string{"great", "good", "bad", "love", "hate"}
	escalationKeywords = []string{"legal", "manager", "refund"}
)

// SentimentFor buckets a star rating.
func SentimentFor(rating int) Sentiment {
	switch {
	case rating >= 4:
		return SentimentPositive
	case rating == 3:
		return SentimentNeutral
	default:
		return SentimentNegative
	}
}

// Analyze derives the triage analysis. It is a pure function of r.
func Analyze(r *Review) Analysis {
	return Analysis{
		Sentiment:       SentimentFor(r.Rating),
		Highlights:      Highlights(r.Text),
		Rating:          r.Rating,
		Length:          utf8.RuneCountInString(r.Text),
		NeedsEscalation: NeedsEscalation(r.Rating, r.Text),
	}
}

// Highlights returns the period-delimited sentences that mention one of the
// highlight keywords, trimmed and in input order.
func Highlights(text string) []string {
	points := []string{}
	for _, sentence := range strings.Split(text, ".") {
		lower := strings.ToLower(sentence)
		if containsAny(lower, highlightKeywords) {
			points = append(points, strings.TrimSpace(sentence))
		}
	}
	return points
}

// NeedsEscalation is true for one-star reviews, reviews mentioning legal
// action, a manager or a refund, and reviews longer than MaxTextLength.
func NeedsEscalation(rating int, text string) bool {
	return rating == 1 ||
		containsAny(strings.ToLower(text), escalationKeywords) ||
		utf8.RuneCountInString(text) > MaxTextLength
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
