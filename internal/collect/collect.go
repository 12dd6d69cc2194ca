// Package collect turns entries of watched editorial feeds into trends.
package collect

import (
	"context"
	"errors"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/TrendIntel/internal/config"
	"github.com/TobiSchelling/TrendIntel/internal/database"
	"github.com/TobiSchelling/TrendIntel/internal/logging"
	"github.com/TobiSchelling/TrendIntel/internal/trends"
)

// Submitter is recorded on trends created from feeds.
const Submitter = "RSS Collector"

// FeedPlatforms are the source platforms read as RSS/Atom feeds.
var FeedPlatforms = []string{"rss", "blog"}

// Result holds the results of a collection run.
type Result struct {
	SourcesChecked int            `json:"sources_checked"`
	EntriesFound   int            `json:"entries_found"`
	NewTrends      int            `json:"new_trends"`
	Duplicates     int            `json:"duplicates"`
	Errors         int            `json:"errors"`
	Sources        map[string]int `json:"sources"`
}

// Collector submits recent feed entries of active feed sources.
type Collector struct {
	db       *database.DB
	trends   *trends.Service
	daysBack int
	maxItems int
	now      func() time.Time
}

// New creates a collector.
func New(db *database.DB, svc *trends.Service, cfg config.Collect) *Collector {
	c := &Collector{
		db:       db,
		trends:   svc,
		daysBack: cfg.DaysBack,
		maxItems: cfg.MaxPerFeed,
		now:      time.Now,
	}
	if c.daysBack <= 0 {
		c.daysBack = 3
	}
	return c
}

// Collect parses every active feed source and submits unseen entries.
// A failing feed is logged and counted; collection continues.
func (c *Collector) Collect(ctx context.Context) (*Result, error) {
	sources, err := c.db.ActiveSources(FeedPlatforms...)
	if err != nil {
		return nil, err
	}

	log := logging.Component("collect")
	r := &Result{Sources: make(map[string]int)}
	cutoff := c.now().UTC().AddDate(0, 0, -c.daysBack)
	parser := gofeed.NewParser()

	for _, src := range sources {
		feedURL := src.Value
		if src.SourceURL != nil && *src.SourceURL != "" {
			feedURL = *src.SourceURL
		}
		name := sourceName(feedURL)
		if src.SourceName != nil && *src.SourceName != "" {
			name = *src.SourceName
		}
		r.SourcesChecked++

		entries, err := parseFeed(ctx, parser, feedURL, cutoff, c.maxItems)
		if err != nil {
			if ctx.Err() != nil {
				return r, ctx.Err()
			}
			log.Warn().Err(err).Str("feed", feedURL).Msg("Failed to parse feed")
			r.Errors++
			continue
		}
		r.EntriesFound += len(entries)
		log.Info().Str("source", name).Int("entries", len(entries)).Int("days", c.daysBack).Msg("Parsed feed")

		id := src.ID
		for _, e := range entries {
			_, err := c.trends.Submit(ctx, trends.SubmitRequest{
				URL:            e.URL,
				SourcePlatform: src.Platform,
				ImageURL:       e.ImageURL,
				SubmittedBy:    Submitter,
				Demographic:    firstOf(src.TargetDemographics),
				SourceID:       &id,
			})
			switch {
			case errors.Is(err, database.ErrDuplicate):
				r.Duplicates++
				continue
			case err != nil:
				if ctx.Err() != nil {
					return r, ctx.Err()
				}
				log.Warn().Err(err).Str("url", e.URL).Msg("Failed to submit feed entry")
				r.Errors++
				continue
			}
			r.NewTrends++
			r.Sources[name]++
			if err := c.db.IncrementSourceTrendCount(src.ID); err != nil {
				log.Warn().Err(err).Int64("source_id", src.ID).Msg("Failed to update source")
			}
		}
	}

	log.Info().
		Int("found", r.EntriesFound).
		Int("new", r.NewTrends).
		Int("duplicates", r.Duplicates).
		Msg("Collection complete")
	return r, nil
}

func firstOf(l []string) string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}
