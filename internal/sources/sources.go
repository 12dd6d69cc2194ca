// Package sources manages watched content sources: ecommerce shops, blogs,
// RSS feeds and social accounts that trends are collected from.
package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/TobiSchelling/TrendIntel/internal/analysis"
	"github.com/TobiSchelling/TrendIntel/internal/database"
	"github.com/TobiSchelling/TrendIntel/internal/logging"
)

// Owner is recorded as added_by on sources added by hand.
const Owner = "Mark Edwards"

var (
	// ErrNotFound is returned when the source does not exist.
	ErrNotFound = errors.New("source not found")
	// ErrInvalidURL is returned for URLs without an http(s) scheme.
	ErrInvalidURL = errors.New("Invalid URL format (must start with http:// or https://)")
	// ErrNoEcommerce is returned when discovery finds no active ecommerce sources.
	ErrNoEcommerce = errors.New("No ecommerce sources found. Add some first.")
)

// Source is the client view of a monitoring target of type source.
type Source struct {
	ID                 int64      `json:"id"`
	URL                string     `json:"url"`
	Platform           string     `json:"platform"`
	Name               string     `json:"name"`
	TargetDemographics []string   `json:"target_demographics"`
	Frequency          string     `json:"frequency"`
	Active             bool       `json:"active"`
	TrendCount         int        `json:"trend_count"`
	LastScrapedAt      *time.Time `json:"last_scraped_at"`
	AddedBy            string     `json:"added_by"`
	AddedAt            time.Time  `json:"added_at"`
}

// View converts a stored target to its client view. URL and name fall back
// to the target value.
func View(t database.MonitoringTarget) Source {
	s := Source{
		ID:                 t.ID,
		URL:                t.Value,
		Platform:           t.Platform,
		Name:               t.Value,
		TargetDemographics: t.TargetDemographics,
		Frequency:          t.Frequency,
		Active:             t.Active,
		TrendCount:         t.TrendCount,
		LastScrapedAt:      t.LastScrapedAt,
		AddedBy:            t.AddedBy,
		AddedAt:            t.AddedAt,
	}
	if t.SourceURL != nil && *t.SourceURL != "" {
		s.URL = *t.SourceURL
	}
	if t.SourceName != nil && *t.SourceName != "" {
		s.Name = *t.SourceName
	}
	if s.TargetDemographics == nil {
		s.TargetDemographics = []string{}
	}
	if s.Frequency == "" {
		s.Frequency = "manual"
	}
	return s
}

// Views converts a list of targets.
func Views(ts []database.MonitoringTarget) []Source {
	out := make([]Source, 0, len(ts))
	for _, t := range ts {
		out = append(out, View(t))
	}
	return out
}

// Input describes a source to add.
type Input struct {
	URL                string   `json:"url" validate:"required"`
	Platform           string   `json:"platform" validate:"required"`
	Name               string   `json:"name" validate:"required"`
	TargetDemographics []string `json:"target_demographics"`
	Frequency          string   `json:"frequency"`
}

// Failure names a source that could not be imported.
type Failure struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// BulkResult reports a bulk import.
type BulkResult struct {
	Succeeded int       `json:"succeeded"`
	Failed    []Failure `json:"failed"`
}

// Discovery reports social accounts found for the ecommerce sources.
type Discovery struct {
	Brands           []analysis.BrandDiscovery `json:"brands"`
	TotalAccounts    int                       `json:"total_accounts"`
	TotalInfluencers int                       `json:"total_influencers"`
}

// Service adds and discovers sources.
type Service struct {
	db *database.DB
	ai *analysis.Service
}

// New creates a source service.
func New(db *database.DB, ai *analysis.Service) *Service {
	return &Service{db: db, ai: ai}
}

// Get returns a source or ErrNotFound.
func (s *Service) Get(id int64) (*database.MonitoringTarget, error) {
	t, err := s.db.GetSource(id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

// Add stores a new active source. Returns database.ErrDuplicate when the URL
// is already watched, then ErrInvalidURL for non-http URLs.
func (s *Service) Add(in Input) (*database.MonitoringTarget, error) {
	exists, err := s.db.SourceURLExists(in.URL)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, database.ErrDuplicate
	}
	if !strings.HasPrefix(in.URL, "http://") && !strings.HasPrefix(in.URL, "https://") {
		return nil, ErrInvalidURL
	}

	url, name := in.URL, in.Name
	t := &database.MonitoringTarget{
		Type:               database.TargetSource,
		Value:              name,
		Platform:           in.Platform,
		Active:             true,
		AddedBy:            Owner,
		SourceURL:          &url,
		SourceName:         &name,
		TargetDemographics: in.TargetDemographics,
		Frequency:          in.Frequency,
	}
	if t.TargetDemographics == nil {
		t.TargetDemographics = []string{}
	}
	if err := s.db.CreateTarget(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Bulk adds each source, collecting failures instead of stopping.
func (s *Service) Bulk(inputs []Input) *BulkResult {
	res := &BulkResult{Failed: []Failure{}}
	for _, in := range inputs {
		_, err := s.Add(in)
		switch {
		case err == nil:
			res.Succeeded++
		case errors.Is(err, database.ErrDuplicate):
			res.Failed = append(res.Failed, Failure{Name: in.Name, URL: in.URL, Reason: "Source already exists"})
		default:
			reason := err.Error()
			if len(reason) > 100 {
				reason = reason[:100]
			}
			res.Failed = append(res.Failed, Failure{Name: in.Name, URL: in.URL, Reason: reason})
		}
	}
	logging.Info().Int("succeeded", res.Succeeded).Int("failed", len(res.Failed)).Msg("Sources imported")
	return res
}

// ReadCSV parses sources from CSV with a header row. Required columns are
// name, url and platform; optional ones are frequency and
// target_demographics (separated by ';').
func ReadCSV(r io.Reader) ([]Input, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, req := range []string{"name", "url", "platform"} {
		if _, ok := col[req]; !ok {
			return nil, fmt.Errorf("missing %q column", req)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []Input
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		in := Input{
			Name:      field(rec, "name"),
			URL:       field(rec, "url"),
			Platform:  field(rec, "platform"),
			Frequency: field(rec, "frequency"),
		}
		if in.URL == "" {
			continue
		}
		for _, d := range strings.Split(field(rec, "target_demographics"), ";") {
			if d = strings.TrimSpace(d); d != "" {
				in.TargetDemographics = append(in.TargetDemographics, d)
			}
		}
		out = append(out, in)
	}
	return out, nil
}

// DiscoverSocial finds social accounts and related influencers for every
// active ecommerce source.
func (s *Service) DiscoverSocial(ctx context.Context) (*Discovery, error) {
	ecommerce, err := s.db.ActiveSources("ecommerce")
	if err != nil {
		return nil, err
	}
	if len(ecommerce) == 0 {
		return nil, ErrNoEcommerce
	}

	brands := make([]analysis.Brand, 0, len(ecommerce))
	for _, t := range ecommerce {
		v := View(t)
		brands = append(brands, analysis.Brand{ID: v.ID, Name: v.Name, URL: v.URL})
	}
	found, err := s.ai.DiscoverSocialAccounts(ctx, brands)
	if err != nil {
		return nil, err
	}

	d := &Discovery{Brands: found}
	if d.Brands == nil {
		d.Brands = []analysis.BrandDiscovery{}
	}
	for _, b := range found {
		d.TotalAccounts += len(b.Accounts)
		d.TotalInfluencers += len(b.RelatedInfluencers)
	}
	return d, nil
}

// Suggest proposes new sources similar to the active ones.
func (s *Service) Suggest(ctx context.Context) ([]analysis.SourceSuggestion, error) {
	active, err := s.db.ActiveSources()
	if err != nil {
		return nil, err
	}
	existing := make([]analysis.ExistingSource, 0, len(active))
	for _, t := range active {
		v := View(t)
		existing = append(existing, analysis.ExistingSource{Name: v.Name, URL: v.URL, Platform: v.Platform})
	}
	out, err := s.ai.SuggestSources(ctx, existing)
	if out == nil && err == nil {
		out = []analysis.SourceSuggestion{}
	}
	return out, err
}
