// Package analysis classifies fashion content with an LLM and generates
// seed data, source suggestions and insights, with mock fallbacks.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/TrendIntel/internal/config"
	"github.com/TobiSchelling/TrendIntel/internal/fetch"
	"github.com/TobiSchelling/TrendIntel/internal/llm"
	"github.com/TobiSchelling/TrendIntel/internal/logging"
	"github.com/TobiSchelling/TrendIntel/internal/metrics"
)

// Analysis modes recorded on results and in metrics.
const (
	ModeMock     = "mock"
	ModeFallback = "fallback"
)

// ErrNotConfigured is returned when live analysis is requested without a provider.
var ErrNotConfigured = errors.New("AI provider not configured: set CLAUDE_API_KEY or enable use_mock")

// Result is the classification of one trend URL.
type Result struct {
	Category           string   `json:"category"`
	Subcategory        *string  `json:"subcategory"`
	Colors             []string `json:"colors"`
	Patterns           []string `json:"patterns"`
	StyleTags          []string `json:"style_tags"`
	PricePoint         string   `json:"price_point"`
	Narrative          string   `json:"narrative"`
	EngagementEstimate int      `json:"engagement_estimate"`
	Demographic        string   `json:"demographic,omitempty"`
	Fabrications       []string `json:"fabrications"`
	ImageURL           string   `json:"image_url,omitempty"`
	Mode               string   `json:"-"`
}

// PageSource supplies readable page context for a URL.
type PageSource interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

// Service runs trend analysis and the AI generators.
type Service struct {
	provider    llm.Provider
	useMock     bool
	maxTokens   int
	concurrency int
	pages       PageSource
	mock        *mocker
}

// Option configures a Service.
type Option func(*Service)

// WithPages enables page context in analysis prompts.
func WithPages(p PageSource) Option {
	return func(s *Service) { s.pages = p }
}

// WithSeed makes mock output deterministic.
func WithSeed(seed uint64) Option {
	return func(s *Service) { s.mock = newMocker(seed) }
}

// New creates a Service. provider may be nil, in which case only mock mode works.
func New(cfg config.AI, provider llm.Provider, opts ...Option) *Service {
	s := &Service{
		provider:    provider,
		useMock:     cfg.UseMock,
		maxTokens:   cfg.MaxTokens,
		concurrency: cfg.Concurrency,
		mock:        newMocker(0),
	}
	if s.maxTokens <= 0 {
		s.maxTokens = 1024
	}
	if s.concurrency <= 0 {
		s.concurrency = 4
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ResetPages clears per-run page fetch state, such as skipped domains.
func (s *Service) ResetPages() {
	if r, ok := s.pages.(interface{ Reset() }); ok {
		r.Reset()
	}
}

// UsesMock reports whether the service only produces mock data.
func (s *Service) UsesMock() bool { return s.useMock }

// Configured reports whether live analysis is possible.
func (s *Service) Configured() bool { return s.provider != nil }

func (s *Service) live() (bool, error) {
	if s.useMock {
		return false, nil
	}
	if s.provider == nil {
		return false, ErrNotConfigured
	}
	return true, nil
}

// MockAnalysis returns a randomized classification.
func (s *Service) MockAnalysis() *Result {
	return s.mock.analysis()
}

const analyzePrompt = `Analyze this fashion trend item from %s.

URL: %s
%s
Please provide a detailed analysis in JSON format with the following fields:
- category: The main fashion item category (e.g., "midi dress", "crop top")
- subcategory: Optional subcategory for more specificity
- colors: List of primary colors in the item
- patterns: List of patterns (solid, plaid, striped, floral, etc.)
- style_tags: List of relevant style tags (e.g., "cottagecore", "y2k", "quiet luxury", "coquette")
- price_point: Estimated price tier (budget, mid, luxury, designer)
- narrative: A brief narrative analysis of why this is trending and its relevance

Return ONLY valid JSON, no additional text.`

// AnalyzeTrend classifies a URL. In mock mode it returns mock data; with no
// provider it returns ErrNotConfigured; any provider or parse failure falls
// back to mock data.
func (s *Service) AnalyzeTrend(ctx context.Context, url, platform string) (*Result, error) {
	live, err := s.live()
	if err != nil {
		return nil, err
	}
	if !live {
		metrics.AnalysisTotal.WithLabelValues(ModeMock).Inc()
		return s.mock.analysis(), nil
	}

	var page *fetch.Page
	pageCtx := ""
	if s.pages != nil {
		if p, err := s.pages.Fetch(ctx, url); err == nil {
			page = p
			if sum := p.Summary(500); sum != "" {
				pageCtx = "\nPage context:\n" + sum
			}
		} else {
			logging.Debug().Err(err).Str("url", url).Msg("No page context for analysis")
		}
	}

	prompt := fmt.Sprintf(analyzePrompt, platform, url, pageCtx)
	text, err := s.provider.Generate(ctx, prompt, s.maxTokens)
	if err != nil {
		return s.fallback(url, err), nil
	}
	data := llm.ParseJSONResponse(text)
	if data == nil {
		return s.fallback(url, errors.New("unparseable response")), nil
	}

	r := fromMap(data)
	r.Mode = llm.ProviderName(s.provider)
	if page != nil {
		r.ImageURL = page.Image
	}
	metrics.AnalysisTotal.WithLabelValues(r.Mode).Inc()
	return r, nil
}

func (s *Service) fallback(url string, err error) *Result {
	logging.Warn().Err(err).Str("url", url).Msg("AI analysis failed, using mock analysis")
	metrics.AnalysisTotal.WithLabelValues(ModeFallback).Inc()
	r := s.mock.analysis()
	r.Mode = ModeFallback
	return r
}

func fromMap(m map[string]any) *Result {
	r := &Result{
		Category:           llm.String(m, "category"),
		Colors:             llm.Strings(m, "colors"),
		Patterns:           llm.Strings(m, "patterns"),
		StyleTags:          llm.Strings(m, "style_tags"),
		PricePoint:         llm.String(m, "price_point"),
		Narrative:          llm.String(m, "narrative"),
		EngagementEstimate: llm.Int(m, "engagement_estimate", 0),
		Demographic:        llm.String(m, "demographic"),
		Fabrications:       llm.Strings(m, "fabrications"),
	}
	if sub := strings.TrimSpace(llm.String(m, "subcategory")); sub != "" {
		r.Subcategory = &sub
	}
	return r
}

// Target is one URL to analyze in a batch.
type Target struct {
	URL      string
	Platform string
}

// BatchAnalyze analyzes targets concurrently. Results are in input order.
func (s *Service) BatchAnalyze(ctx context.Context, targets []Target) ([]*Result, error) {
	results := make([]*Result, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, t := range targets {
		g.Go(func() error {
			r, err := s.AnalyzeTrend(ctx, t.URL, t.Platform)
			if err != nil {
				return fmt.Errorf("analyzing %s: %w", t.URL, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
