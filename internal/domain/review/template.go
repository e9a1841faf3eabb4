package review

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownTemplateKey is returned when no reply template exists for a
// sentiment bucket.
var ErrUnknownTemplateKey = errors.New("unknown template key")

// Template placeholders.
const (
	PlaceholderName      = "{name}"
	PlaceholderRating    = "{rating}"
	PlaceholderHighlight = "{highlight}"
	PlaceholderContact   = "{contact}"
)

const (
	defaultName      = "valued customer"
	defaultHighlight = "our service"
)

// Templates maps a sentiment bucket to a reply template.
type Templates map[Sentiment]string

// DefaultTemplates returns the built-in reply set.
func DefaultTemplates() Templates {
	return Templates{
		SentimentPositive: "Thank you for your {rating}-star review, {name}! We're glad you enjoyed {highlight}.",
		SentimentNeutral:  "Thank you for your feedback, {name}. We appreciate your comments about {highlight} and will consider your suggestions.",
		SentimentNegative: "We're sorry to hear about your experience, {name}. Please contact us at {contact} so we can make this right.",
	}
}

// Contacts holds the addresses offered in replies.
type Contacts struct {
	Priority string `json:"priority" yaml:"priority"` // offered on negative reviews
	General  string `json:"general" yaml:"general"`
}

// DefaultContacts returns the built-in support addresses.
func DefaultContacts() Contacts {
	return Contacts{
		Priority: "support@example.com",
		General:  "contact@example.com",
	}
}

// For returns the contact address appropriate for a sentiment.
func (c Contacts) For(s Sentiment) string {
	if s == SentimentNegative {
		return c.Priority
	}
	return c.General
}

// Render fills the template for a.Sentiment with values from r.
func (t Templates) Render(r *Review, a *Analysis, contacts Contacts) (string, error) {
	tmpl, ok := t[a.Sentiment]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplateKey, a.Sentiment)
	}

	name := r.Author
	if strings.TrimSpace(name) == "" {
		name = defaultName
	}
	highlight := defaultHighlight
	if len(a.Highlights) > 0 {
		highlight = a.Highlights[0]
	}

	replacer := strings.NewReplacer(
		PlaceholderName, name,
		PlaceholderRating, strconv.Itoa(r.Rating),
		PlaceholderHighlight, highlight,
		PlaceholderContact, contacts.For(a.Sentiment),
	)
	return replacer.Replace(tmpl), nil
}

// LoadTemplates reads a sentiment -> template mapping from a YAML or JSON
// file. On any error the defaults are returned alongside the error.
func LoadTemplates(path string) (Templates, error) {
	if path == "" {
		return DefaultTemplates(), nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return DefaultTemplates(), fmt.Errorf("read templates %s: %w", path, err)
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return DefaultTemplates(), fmt.Errorf("parse templates %s: %w", path, err)
	}
	if len(raw) == 0 {
		return DefaultTemplates(), fmt.Errorf("templates %s: no entries", path)
	}

	out := make(Templates, len(raw))
	for k, v := range raw {
		out[Sentiment(strings.ToLower(strings.TrimSpace(k)))] = v
	}
	return out, nil
}
