package contentscan

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const article = `<html><head>
<meta property="article:modified_time" content="2026-03-01T10:00:00Z">
<script>var ignored = "local seo local seo";</script>
</head><body>
<p>Local SEO matters. Our local seo guide explains citations.</p>
<ul><li>Claim your listing</li><li>Collect reviews</li></ul>
</body></html>`

func TestMeasure(t *testing.T) {
	m, err := Measure([]byte(article), "text/html; charset=utf-8", "local seo")
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if m.WordCount != 14 {
		t.Errorf("WordCount = %d, want 14", m.WordCount)
	}
	// two matches of a two-word keyword in 14 words
	if want := 4.0 / 14 * 100; math.Abs(m.KeywordDensity-want) > 1e-9 {
		t.Errorf("KeywordDensity = %f, want %f", m.KeywordDensity, want)
	}
	if want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC); !m.Modified.Equal(want) {
		t.Errorf("Modified = %v, want %v", m.Modified, want)
	}
}

func TestDensity(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		keyword string
		want    float64
	}{
		{"no words", "", "seo", 0},
		{"no keyword", "one two", "", 0},
		{"single word", "SEO tips, seo tools", "seo", 50},
		{"phrase not overlapping", "a a a a", "a a", 100},
		{"absent", "plumbing services", "seo", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := density(strings.Fields(tt.text), tt.keyword)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("density = %f, want %f", got, tt.want)
			}
		})
	}
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = map[string][]byte{}
	}
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func TestScanUsesLastModifiedHeaderAndCache(t *testing.T) {
	var hits atomic.Int32
	lastMod := time.Date(2025, 12, 24, 8, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Last-Modified", lastMod.Format(http.TimeFormat))
		_, _ = w.Write([]byte(`<html><body><p>seo for plumbers</p></body></html>`))
	}))
	defer srv.Close()

	s := New(Config{URLs: []string{srv.URL + "/a"}, Keyword: "seo"}, WithCache(&mapCache{}, time.Hour))
	for range 2 {
		pages, err := s.Scan(context.Background())
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		if len(pages) != 1 {
			t.Fatalf("pages = %d, want 1", len(pages))
		}
		p := pages[0]
		if p.WordCount != 3 || !p.LastUpdated.Equal(lastMod) {
			t.Fatalf("page = %+v", p)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("server hits = %d, want 1 (second scan cached)", n)
	}
}

func TestScanSkipsFailedPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<p>hello world</p>`))
	})
	mux.HandleFunc("/json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(Config{URLs: []string{srv.URL + "/json", srv.URL + "/ok", srv.URL + "/gone"}, Concurrency: 2})
	pages, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(pages) != 1 || pages[0].URL != srv.URL+"/ok" {
		t.Fatalf("pages = %+v, want only /ok", pages)
	}
}

func TestScanAllFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
	}))
	defer srv.Close()

	s := New(Config{URLs: []string{srv.URL, "not a url"}})
	_, err := s.Scan(context.Background())
	if !errors.Is(err, ErrNotHTML) || !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected joined ErrNotHTML and ErrInvalidURL, got %v", err)
	}
}
