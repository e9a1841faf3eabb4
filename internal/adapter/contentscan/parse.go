package contentscan

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// modifiedSelectors are checked in order for a page's last edit time.
var modifiedSelectors = []string{
	`meta[property="article:modified_time"]`,
	`meta[property="og:updated_time"]`,
	`meta[name="last-modified"]`,
}

// Measurement is what one page contributes to a snapshot.
type Measurement struct {
	WordCount      int       `json:"word_count"`
	KeywordDensity float64   `json:"keyword_density"`
	Modified       time.Time `json:"modified,omitzero"`
}

// Measure decodes an HTML body and counts the words of its body copy
// (paragraphs and list items). Density is the share of words belonging to
// keyword matches, as a percentage.
func Measure(data []byte, contentType, keyword string) (Measurement, error) {
	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		if !utf8.Valid(data) {
			return Measurement{}, fmt.Errorf("decode body: %w", err)
		}
		utf8data = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		return Measurement{}, fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script,noscript,style").Remove()

	var parts []string
	doc.Find("p,li").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	words := strings.Fields(whitespaceRe.ReplaceAllString(strings.Join(parts, " "), " "))

	m := Measurement{
		WordCount:      len(words),
		KeywordDensity: density(words, keyword),
	}
	for _, sel := range modifiedSelectors {
		if v := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", "")); v != "" {
			if ts, ok := parseTime(v); ok {
				m.Modified = ts
				break
			}
		}
	}
	return m, nil
}

func density(words []string, keyword string) float64 {
	kw := strings.Fields(strings.ToLower(keyword))
	if len(words) == 0 || len(kw) == 0 {
		return 0
	}
	norm := make([]string, len(words))
	for i, w := range words {
		norm[i] = strings.ToLower(strings.Trim(w, `.,;:!?"'()[]`))
	}

	hits := 0
	for i := 0; i+len(kw) <= len(norm); i++ {
		match := true
		for j, k := range kw {
			if norm[i+j] != k {
				match = false
				break
			}
		}
		if match {
			hits++
			i += len(kw) - 1
		}
	}
	return float64(hits*len(kw)) / float64(len(words)) * 100
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", time.RFC1123, time.RFC1123Z}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
