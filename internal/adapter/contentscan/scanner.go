// Package contentscan fetches configured pages and measures their content
// for the sentinel's freshness, length and keyword-density checks.
package contentscan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Strob0t/seogov/internal/adapter/otel"
	"github.com/Strob0t/seogov/internal/domain/metrics"
	"github.com/Strob0t/seogov/internal/port/cache"
	"github.com/Strob0t/seogov/internal/port/source"
	"github.com/Strob0t/seogov/internal/resilience"
	"github.com/Strob0t/seogov/internal/worker"
)

const (
	userAgent      = "seogov-scanner/1.0"
	defaultMaxBody = 5 << 20
	cachePrefix    = "contentscan:"
)

var (
	// ErrNotHTML is returned for responses with a non-HTML media type.
	ErrNotHTML = errors.New("non-html content")
	// ErrInvalidURL is returned for URLs without scheme or host.
	ErrInvalidURL = errors.New("invalid url")
)

// Config controls what is scanned and how.
type Config struct {
	URLs        []string
	Keyword     string
	Timeout     time.Duration
	Concurrency int
	MaxBody     int64
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithCache stores measurements for ttl so repeated cycles skip the fetch.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Scanner) {
		s.cache, s.ttl = c, ttl
	}
}

// WithBreaker guards fetches with a circuit breaker.
func WithBreaker(b *resilience.Breaker) Option {
	return func(s *Scanner) { s.breaker = b }
}

// WithLogger sets the logger for per-page failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.log = l
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Scanner) {
		if c != nil {
			s.client = c
		}
	}
}

// Scanner implements source.ContentScanner over plain HTTP.
type Scanner struct {
	cfg     Config
	client  *http.Client
	pool    *worker.Pool
	cache   cache.Cache
	ttl     time.Duration
	breaker *resilience.Breaker
	log     *slog.Logger
}

var _ source.ContentScanner = (*Scanner)(nil)

// New creates a Scanner.
func New(cfg Config, opts ...Option) *Scanner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = defaultMaxBody
	}
	s := &Scanner{
		cfg:  cfg,
		pool: worker.NewPool(cfg.Concurrency),
		log:  slog.Default(),
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Scan measures every configured URL. Pages that fail are logged and left
// out; an error is returned only when every page failed.
func (s *Scanner) Scan(ctx context.Context) ([]metrics.ContentPage, error) {
	results := worker.Map(ctx, s.pool, s.cfg.URLs, s.scanPage)

	pages := make([]metrics.ContentPage, 0, len(results))
	var errs []error
	for i, r := range results {
		if r.Err != nil {
			s.log.WarnContext(ctx, "content scan failed", "url", s.cfg.URLs[i], "error", r.Err)
			errs = append(errs, fmt.Errorf("%s: %w", s.cfg.URLs[i], r.Err))
			continue
		}
		pages = append(pages, r.Value)
	}
	if len(pages) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("content scan: %w", errors.Join(errs...))
	}
	return pages, nil
}

func (s *Scanner) scanPage(ctx context.Context, rawURL string) (metrics.ContentPage, error) {
	key := cachePrefix + s.cfg.Keyword + "|" + rawURL
	var m Measurement
	if s.cache != nil {
		ok, err := cache.GetJSON(ctx, s.cache, key, &m)
		if err != nil {
			s.log.DebugContext(ctx, "scan cache get failed", "url", rawURL, "error", err)
		}
		if ok {
			return page(rawURL, m), nil
		}
	}

	ctx, span := otel.StartScanSpan(ctx, rawURL)
	var err error
	if s.breaker != nil {
		err = s.breaker.Do(ctx, func(ctx context.Context) error {
			m, err = s.measure(ctx, rawURL)
			return err
		})
	} else {
		m, err = s.measure(ctx, rawURL)
	}
	otel.EndSpan(span, err)
	if err != nil {
		return metrics.ContentPage{}, err
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, key, m, s.ttl); err != nil {
			s.log.DebugContext(ctx, "scan cache set failed", "url", rawURL, "error", err)
		}
	}
	return page(rawURL, m), nil
}

func page(rawURL string, m Measurement) metrics.ContentPage {
	return metrics.ContentPage{
		URL:            rawURL,
		LastUpdated:    m.Modified,
		WordCount:      m.WordCount,
		KeywordDensity: m.KeywordDensity,
	}
}

// measure fetches one page. The Last-Modified header is used when the
// markup carries no modification time.
func (s *Scanner) measure(ctx context.Context, rawURL string) (Measurement, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Measurement{}, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return Measurement{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return Measurement{}, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return Measurement{}, fmt.Errorf("fetch: http status %d", resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if mediaType, _, _ := mime.ParseMediaType(contentType); mediaType != "" &&
		!strings.Contains(mediaType, "text/html") && !strings.Contains(mediaType, "application/xhtml+xml") {
		return Measurement{}, fmt.Errorf("%w: %s", ErrNotHTML, mediaType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxBody))
	if err != nil {
		return Measurement{}, fmt.Errorf("read body: %w", err)
	}
	m, err := Measure(data, contentType, s.cfg.Keyword)
	if err != nil {
		return Measurement{}, err
	}
	if m.Modified.IsZero() {
		if lm, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
			m.Modified = lm
		}
	}
	return m, nil
}
