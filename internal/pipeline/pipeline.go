// Package pipeline runs the periodic refresh: collect feeds, scrape
// priority people, rescore trends and regenerate insights.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/TobiSchelling/TrendIntel/internal/analysis"
	"github.com/TobiSchelling/TrendIntel/internal/collect"
	"github.com/TobiSchelling/TrendIntel/internal/config"
	"github.com/TobiSchelling/TrendIntel/internal/database"
	"github.com/TobiSchelling/TrendIntel/internal/insights"
	"github.com/TobiSchelling/TrendIntel/internal/logging"
	"github.com/TobiSchelling/TrendIntel/internal/metrics"
	"github.com/TobiSchelling/TrendIntel/internal/scrape"
	"github.com/TobiSchelling/TrendIntel/internal/trends"
)

// Defaults for the scrape step when no scrape_priority job is scheduled.
const (
	defaultPriorityMax = 3
	defaultScrapeLimit = 50
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	StartedAt time.Time
	Steps     []StepResult
}

// Failed reports whether any step returned an error.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Pipeline orchestrates the 4-step refresh.
type Pipeline struct {
	cfg       *config.Config
	db        *database.DB
	ai        *analysis.Service
	trends    *trends.Service
	collector *collect.Collector
	scraper   *scrape.Scraper
	insights  *insights.Job
}

// New creates a new pipeline. job may be shared with the API server so that
// only one insights generation runs at a time.
func New(cfg *config.Config, db *database.DB, ai *analysis.Service, scraper *scrape.Scraper, job *insights.Job) *Pipeline {
	if job == nil {
		job = insights.New(db, ai)
	}
	svc := trends.New(db, ai)
	return &Pipeline{
		cfg:       cfg,
		db:        db,
		ai:        ai,
		trends:    svc,
		collector: collect.New(db, svc, cfg.Collect),
		scraper:   scraper,
		insights:  job,
	}
}

// ScrapeFilter returns the people selection for the scrape step, taken from
// the first scheduled scrape_priority job.
func (p *Pipeline) ScrapeFilter() database.ScrapeFilter {
	for _, j := range p.cfg.Schedule {
		if j.Kind == "scrape_priority" {
			return database.ScrapeFilter{PriorityMax: j.PriorityMax, Limit: j.Limit}
		}
	}
	return database.ScrapeFilter{PriorityMax: defaultPriorityMax, Limit: defaultScrapeLimit}
}

// Run executes all steps. A failing step is recorded and the run continues,
// except on context cancellation.
func (p *Pipeline) Run(ctx context.Context) *Result {
	r := &Result{StartedAt: time.Now().UTC()}
	p.ai.ResetPages()
	steps := []struct {
		name string
		fn   func(context.Context) StepResult
	}{
		{"Collect", p.runCollect},
		{"Scrape", p.runScrape},
		{"Rescore", p.runRescore},
		{"Insights", p.runInsights},
	}
	for i, s := range steps {
		logging.Info().Msgf("Step %d/%d: %s...", i+1, len(steps), s.name)
		start := time.Now()
		step := s.fn(ctx)
		step.Name = s.name
		metrics.RecordJob("pipeline_"+strings.ToLower(s.name), step.Err, time.Since(start))
		r.Steps = append(r.Steps, step)
		if ctx.Err() != nil {
			break
		}
	}
	return r
}

// DryRun shows what would be done without executing.
func (p *Pipeline) DryRun() *Result {
	r := &Result{StartedAt: time.Now().UTC()}

	feeds, err := p.db.ActiveSources(collect.FeedPlatforms...)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("[dry-run] Would read %d active feed sources", len(feeds)),
		Err:     err,
	})

	f := p.ScrapeFilter()
	people, err := p.db.PeopleForScrape(f)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Scrape",
		Summary: fmt.Sprintf("[dry-run] Would scrape %d people (priority <= %d)", len(people), f.PriorityMax),
		Err:     err,
	})

	active, err := p.db.CountTrends(database.TrendFilter{Status: database.StatusActive})
	r.Steps = append(r.Steps, StepResult{
		Name:    "Rescore",
		Summary: fmt.Sprintf("[dry-run] Would rescore %d active trends", active),
		Err:     err,
	})

	summary := "[dry-run] Would regenerate category insights and themed looks"
	if active == 0 {
		summary = "[dry-run] No active trends; insights would be skipped"
	}
	r.Steps = append(r.Steps, StepResult{Name: "Insights", Summary: summary})
	return r
}

func (p *Pipeline) runCollect(ctx context.Context) StepResult {
	res, err := p.collector.Collect(ctx)
	if err != nil {
		return StepResult{Err: err}
	}
	return StepResult{
		Summary: fmt.Sprintf("Found %d new trends in %d feeds (%d entries, %d duplicates, %d errors)",
			res.NewTrends, res.SourcesChecked, res.EntriesFound, res.Duplicates, res.Errors),
	}
}

func (p *Pipeline) runScrape(ctx context.Context) StepResult {
	res, err := p.scraper.ScrapeBatch(ctx, p.ScrapeFilter())
	if err != nil {
		return StepResult{Err: err}
	}
	return StepResult{
		Summary: fmt.Sprintf("Scraped %d people: %d new posts, %d errors", res.TotalPeople, res.TotalNewPosts, len(res.Errors)),
	}
}

func (p *Pipeline) runRescore(ctx context.Context) StepResult {
	res, err := p.trends.Rescore(ctx)
	if err != nil {
		return StepResult{Err: err}
	}
	return StepResult{Summary: fmt.Sprintf("Rescored %d trends, %d errors", res.Rescored, res.Errors)}
}

func (p *Pipeline) runInsights(ctx context.Context) StepResult {
	active, err := p.db.CountTrends(database.TrendFilter{Status: database.StatusActive})
	if err != nil {
		return StepResult{Err: err}
	}
	if active == 0 {
		return StepResult{Summary: "Skipped: no active trends"}
	}
	if err := p.insights.Run(ctx); err != nil {
		return StepResult{Err: err}
	}
	o, err := insights.Latest(p.db, "")
	if err != nil {
		return StepResult{Err: err}
	}
	return StepResult{
		Summary: fmt.Sprintf("Generated %d category insights and %d themed looks", len(o.CategoryInsights), len(o.ThemedLooks)),
	}
}

// RunJob runs one scheduled job and logs its outcome.
func (p *Pipeline) RunJob(ctx context.Context, j config.ScheduleJob) error {
	p.ai.ResetPages()
	var step StepResult
	switch j.Kind {
	case "scrape_priority", "scrape_type":
		f := database.ScrapeFilter{PriorityMax: j.PriorityMax, Type: j.PersonType, Limit: j.Limit}
		if f.PriorityMax == 0 {
			f.PriorityMax = 10
		}
		res, err := p.scraper.ScrapeBatch(ctx, f)
		if err != nil {
			step.Err = err
			break
		}
		step.Summary = fmt.Sprintf("Scraped %d people: %d new posts, %d errors", res.TotalPeople, res.TotalNewPosts, len(res.Errors))
	case "collect":
		step = p.runCollect(ctx)
	case "rescore":
		step = p.runRescore(ctx)
	case "insights":
		step = p.runInsights(ctx)
	default:
		step.Err = fmt.Errorf("unknown job kind %q", j.Kind)
	}

	log := logging.Component("scheduler")
	if step.Err != nil {
		log.Error().Err(step.Err).Str("job", j.Name).Msg("Scheduled job failed")
		return step.Err
	}
	log.Info().Str("job", j.Name).Str("kind", j.Kind).Msg(step.Summary)
	return nil
}
