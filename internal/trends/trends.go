// Package trends submits, analyzes, seeds and rescores trend items.
package trends

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TobiSchelling/TrendIntel/internal/analysis"
	"github.com/TobiSchelling/TrendIntel/internal/database"
	"github.com/TobiSchelling/TrendIntel/internal/logging"
	"github.com/TobiSchelling/TrendIntel/internal/metrics"
	"github.com/TobiSchelling/TrendIntel/internal/scoring"
)

// DefaultSubmitter is recorded when a submission names no submitter.
const DefaultSubmitter = "Mark Edwards"

var (
	// ErrNotFound is returned when a referenced trend or source does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoSources is returned when seeding finds no active ecommerce sources.
	ErrNoSources = errors.New("no ecommerce sources")
)

// Service wires storage, analysis and scoring for trend items.
type Service struct {
	db     *database.DB
	ai     *analysis.Service
	scorer *scoring.Scorer
}

// New creates a trend service.
func New(db *database.DB, ai *analysis.Service) *Service {
	return &Service{db: db, ai: ai, scorer: scoring.New(db)}
}

// SubmitRequest is a user submission of a trend URL.
type SubmitRequest struct {
	URL            string
	SourcePlatform string
	Platform       string
	ImageURL       string
	SubmittedBy    string
	Demographic    string
	SourceID       *int64
}

// ResolvedPlatform returns source_platform, then platform, then "Other".
func (r SubmitRequest) ResolvedPlatform() string {
	if r.SourcePlatform != "" {
		return r.SourcePlatform
	}
	if r.Platform != "" {
		return r.Platform
	}
	return "Other"
}

// Submit analyzes and stores a new trend URL. Returns database.ErrDuplicate
// when the URL is already tracked.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*database.TrendItem, error) {
	exists, err := s.db.TrendURLExists(req.URL)
	if err != nil {
		return nil, fmt.Errorf("checking url: %w", err)
	}
	if exists {
		return nil, database.ErrDuplicate
	}

	platform := req.ResolvedPlatform()
	res, err := s.ai.AnalyzeTrend(ctx, req.URL, platform)
	if err != nil {
		return nil, err
	}

	submitter := req.SubmittedBy
	if submitter == "" {
		submitter = DefaultSubmitter
	}
	t := fromAnalysis(req.URL, platform, submitter, res)
	t.SourceID = req.SourceID
	if req.ImageURL != "" {
		t.ImageURL = &req.ImageURL
	}
	if res.Demographic == "" && req.Demographic != "" {
		t.Demographic = &req.Demographic
	}

	if err := s.create(t, "submit"); err != nil {
		return nil, err
	}
	return t, nil
}

// AnalyzeFromSource analyzes url on behalf of a watched source.
func (s *Service) AnalyzeFromSource(ctx context.Context, sourceID int64, url string) (*database.TrendItem, error) {
	src, err := s.db.GetSource(sourceID)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, ErrNotFound
	}
	exists, err := s.db.TrendURLExists(url)
	if err != nil {
		return nil, fmt.Errorf("checking url: %w", err)
	}
	if exists {
		return nil, database.ErrDuplicate
	}

	res, err := s.ai.AnalyzeTrend(ctx, url, src.Platform)
	if err != nil {
		return nil, err
	}

	t := fromAnalysis(url, src.Platform, DefaultSubmitter, res)
	t.SourceID = &src.ID
	if t.Demographic == nil && len(src.TargetDemographics) > 0 {
		d := src.TargetDemographics[0]
		t.Demographic = &d
	}

	if err := s.create(t, "source"); err != nil {
		return nil, err
	}
	if err := s.db.IncrementSourceTrendCount(src.ID); err != nil {
		return nil, fmt.Errorf("updating source: %w", err)
	}
	return t, nil
}

// SeedResult summarizes a seed run.
type SeedResult struct {
	Created          int `json:"created"`
	Skipped          int `json:"skipped"`
	SourcesProcessed int `json:"sources_processed"`
	Errors           int `json:"errors"`
}

// SeedFromSources generates best-seller trends for every active ecommerce
// source. Items without a product URL count as errors; known URLs are skipped.
func (s *Service) SeedFromSources(ctx context.Context) (*SeedResult, error) {
	sources, err := s.db.ActiveSources("ecommerce")
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	brands := make([]analysis.Brand, 0, len(sources))
	for _, src := range sources {
		brands = append(brands, analysis.Brand{ID: src.ID, Name: sourceName(src), URL: sourceURL(src)})
	}

	items, err := s.ai.GenerateSeedTrends(ctx, brands)
	if err != nil {
		return nil, err
	}

	result := &SeedResult{SourcesProcessed: len(sources)}
	for _, it := range items {
		if it.ProductURL == "" {
			result.Errors++
			continue
		}
		exists, err := s.db.TrendURLExists(it.ProductURL)
		if err != nil {
			result.Errors++
			continue
		}
		if exists {
			result.Skipped++
			continue
		}

		t := seedTrend(it)
		if err := s.create(t, "seed"); err != nil {
			logging.Warn().Err(err).Str("url", it.ProductURL).Msg("Error creating seed trend")
			result.Errors++
			continue
		}
		result.Created++
	}
	return result, nil
}

// Reanalyze refreshes a trend's classification and scores.
func (s *Service) Reanalyze(ctx context.Context, id int64) (*database.TrendItem, error) {
	t, err := s.db.GetTrend(id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}

	res, err := s.ai.AnalyzeTrend(ctx, t.URL, t.SourcePlatform)
	if err != nil {
		return nil, err
	}
	t.Category = optional(res.Category)
	t.Subcategory = res.Subcategory
	t.Colors = res.Colors
	t.Patterns = res.Patterns
	t.StyleTags = res.StyleTags
	t.PricePoint = optional(res.PricePoint)
	t.AIAnalysisText = optional(res.Narrative)

	if err := s.scorer.Apply(t); err != nil {
		return nil, err
	}
	if err := s.db.UpdateTrend(t); err != nil {
		return nil, fmt.Errorf("saving trend: %w", err)
	}
	return t, nil
}

// RescoreResult summarizes a rescore run.
type RescoreResult struct {
	Rescored int
	Errors   int
}

// Rescore recomputes scores for every active trend from its metrics history
// and records a fresh metrics snapshot.
func (s *Service) Rescore(ctx context.Context) (*RescoreResult, error) {
	items, _, err := s.db.ListTrends(database.TrendFilter{Status: database.StatusActive})
	if err != nil {
		return nil, err
	}

	result := &RescoreResult{}
	for i := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		t := &items[i]
		if err := s.scorer.Apply(t); err != nil {
			logging.Warn().Err(err).Int64("trend_id", t.ID).Msg("Rescore failed")
			result.Errors++
			continue
		}
		if err := s.db.UpdateTrend(t); err != nil {
			result.Errors++
			continue
		}
		if err := s.db.InsertMetrics(t); err != nil {
			result.Errors++
			continue
		}
		result.Rescored++
	}
	logging.Info().Int("rescored", result.Rescored).Int("errors", result.Errors).Msg("Rescore complete")
	return result, nil
}

// Get returns a trend or ErrNotFound.
func (s *Service) Get(id int64) (*database.TrendItem, error) {
	t, err := s.db.GetTrend(id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

// Metrics returns a trend's snapshots from the last hours, oldest first.
func (s *Service) Metrics(id int64, hours int) ([]database.MetricsPoint, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	return s.db.MetricsSince(id, time.Now().UTC().Add(-time.Duration(hours)*time.Hour))
}

// create scores, inserts and records the first metrics row of t.
func (s *Service) create(t *database.TrendItem, origin string) error {
	t.SubmittedAt = time.Now().UTC()
	t.Status = database.StatusActive
	if err := s.scorer.Apply(t); err != nil {
		return err
	}
	if _, err := s.db.InsertTrend(t); err != nil {
		return err
	}
	if err := s.db.InsertMetrics(t); err != nil {
		return fmt.Errorf("recording metrics: %w", err)
	}
	metrics.TrendsSubmitted.WithLabelValues(origin).Inc()
	logging.Info().Int64("id", t.ID).Str("url", t.URL).Float64("score", t.TrendScore).Msg("Trend created")
	return nil
}

func fromAnalysis(url, platform, submitter string, res *analysis.Result) *database.TrendItem {
	est := int64(res.EngagementEstimate)
	t := &database.TrendItem{
		URL:            url,
		SourcePlatform: platform,
		SubmittedBy:    submitter,
		Category:       optional(res.Category),
		Subcategory:    res.Subcategory,
		Colors:         res.Colors,
		Patterns:       res.Patterns,
		StyleTags:      res.StyleTags,
		PricePoint:     optional(res.PricePoint),
		AIAnalysisText: optional(res.Narrative),
		Demographic:    optional(res.Demographic),
		Fabrications:   res.Fabrications,
		Likes:          est / 4,
		Comments:       est / 10,
		Shares:         est / 20,
		Views:          est,
	}
	if res.ImageURL != "" {
		t.ImageURL = &res.ImageURL
	}
	return t
}

func seedTrend(it analysis.SeedTrend) *database.TrendItem {
	price := it.PricePoint
	if price == "" {
		price = "mid"
	}
	demo := it.Demographic
	if demo == "" {
		demo = "junior_girls"
	}
	return &database.TrendItem{
		URL:            it.ProductURL,
		SourcePlatform: "ecommerce",
		SubmittedBy:    "AI Seed Generator",
		SourceID:       it.SourceID,
		Category:       optional(it.Category),
		Colors:         it.Colors,
		Patterns:       it.Patterns,
		StyleTags:      it.StyleTags,
		Fabrications:   it.Fabrications,
		PricePoint:     &price,
		Demographic:    &demo,
		AIAnalysisText: &it.Narrative,
		Likes:          it.EstimatedLikes,
		Comments:       it.EstimatedComments,
		Shares:         it.EstimatedShares,
		Views:          it.EstimatedViews,
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func sourceName(t database.MonitoringTarget) string {
	if t.SourceName != nil && *t.SourceName != "" {
		return *t.SourceName
	}
	return t.Value
}

func sourceURL(t database.MonitoringTarget) string {
	if t.SourceURL != nil && *t.SourceURL != "" {
		return *t.SourceURL
	}
	return t.Value
}
