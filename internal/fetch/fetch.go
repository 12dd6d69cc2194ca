// Package fetch downloads product and editorial pages and extracts readable
// context for trend analysis.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/TobiSchelling/TrendIntel/internal/logging"
)

const (
	maxBody = 5 << 20

	// DefaultSkipFor is how long a failed domain is skipped when no Reset
	// happens in between.
	DefaultSkipFor = 30 * time.Minute
)

// ErrDomainSkipped is returned for URLs on a domain that already failed
// during the same run.
var ErrDomainSkipped = errors.New("domain skipped after earlier failure")

// Page is the readable context extracted from a URL.
type Page struct {
	URL     string
	Title   string
	Excerpt string
	Image   string
	Text    string
}

// Fetcher fetches pages via HTTP + readability extraction.
type Fetcher struct {
	client    *http.Client
	userAgent string

	skipFor time.Duration
	now     func() time.Time

	mu            sync.Mutex
	failedDomains map[string]time.Time // domain -> skip until
}

// New creates a fetcher. A zero timeout means 15 seconds.
func New(timeout time.Duration) *Fetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent:     "TrendIntel/1.0 (fashion trend tracker)",
		skipFor:       DefaultSkipFor,
		now:           time.Now,
		failedDomains: make(map[string]time.Time),
	}
}

// Reset forgets failed domains. Call between independent runs.
func (f *Fetcher) Reset() {
	f.mu.Lock()
	f.failedDomains = make(map[string]time.Time)
	f.mu.Unlock()
}

// Fetch downloads rawURL and extracts its readable content. An HTTP error
// status marks the domain as failed and later URLs on it are skipped until
// Reset or until the skip period ends.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid url %q", rawURL)
	}
	domain := strings.ToLower(parsed.Host)

	f.mu.Lock()
	until, failed := f.failedDomains[domain]
	if failed && !f.now().Before(until) {
		delete(f.failedDomains, domain)
		failed = false
	}
	f.mu.Unlock()
	if failed {
		return nil, ErrDomainSkipped
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		f.mu.Lock()
		f.failedDomains[domain] = f.now().Add(f.skipFor)
		f.mu.Unlock()
		logging.Debug().Str("url", rawURL).Int("status", resp.StatusCode).
			Msg("HTTP error, skipping remaining URLs from domain")
		return nil, &httpError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", rawURL, err)
	}

	return &Page{
		URL:     rawURL,
		Title:   strings.TrimSpace(article.Title),
		Excerpt: strings.TrimSpace(article.Excerpt),
		Image:   resolve(parsed, article.Image),
		Text:    strings.TrimSpace(article.TextContent),
	}, nil
}

// Summary returns a short prompt-sized description of the page.
func (p *Page) Summary(maxLen int) string {
	var b strings.Builder
	if p.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", p.Title)
	}
	desc := p.Excerpt
	if desc == "" {
		desc = p.Text
	}
	if desc != "" {
		if r := []rune(desc); len(r) > maxLen {
			desc = string(r[:maxLen]) + "..."
		}
		fmt.Fprintf(&b, "Description: %s\n", desc)
	}
	return b.String()
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.code, http.StatusText(e.code))
}
