// Package insights aggregates active trends into per-category summaries and
// themed looks.
package insights

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/TobiSchelling/TrendIntel/internal/analysis"
	"github.com/TobiSchelling/TrendIntel/internal/database"
	"github.com/TobiSchelling/TrendIntel/internal/logging"
	"github.com/TobiSchelling/TrendIntel/internal/metrics"
	"github.com/TobiSchelling/TrendIntel/internal/tally"
)

// Job states.
const (
	StatusIdle      = "idle"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const maxFeatured = 12

// ErrRunning is returned by Run while another generation is in progress.
var ErrRunning = errors.New("generation already in progress")

// Status is the observable state of the generation job.
type Status struct {
	Status      string     `json:"status"`
	Progress    *string    `json:"progress"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Error       *string    `json:"error"`
}

// Job runs insight generation, at most one at a time.
type Job struct {
	db *database.DB
	ai *analysis.Service

	mu     sync.Mutex
	status Status
	wg     sync.WaitGroup
}

// New creates an idle job.
func New(db *database.DB, ai *analysis.Service) *Job {
	return &Job{db: db, ai: ai, status: Status{Status: StatusIdle}}
}

// Status returns a snapshot of the job state.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Start launches generation in the background. It returns false without
// starting anything when a generation is already running.
func (j *Job) Start(ctx context.Context) bool {
	if !j.begin() {
		return false
	}
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.finish(j.generate(context.WithoutCancel(ctx)))
	}()
	return true
}

// Run generates insights synchronously.
func (j *Job) Run(ctx context.Context) error {
	if !j.begin() {
		return ErrRunning
	}
	err := j.generate(ctx)
	j.finish(err)
	return err
}

// Wait blocks until background generations have finished.
func (j *Job) Wait() {
	j.wg.Wait()
}

func (j *Job) begin() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Status == StatusRunning {
		return false
	}
	now := time.Now().UTC()
	progress := "Starting..."
	j.status = Status{Status: StatusRunning, Progress: &progress, StartedAt: &now}
	return true
}

func (j *Job) progress(msg string) {
	j.mu.Lock()
	j.status.Progress = &msg
	j.mu.Unlock()
}

func (j *Job) finish(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err != nil {
		msg := err.Error()
		j.status.Status = StatusFailed
		j.status.Error = &msg
		logging.Error().Err(err).Msg("Insights generation failed")
		return
	}
	now := time.Now().UTC()
	j.status.Status = StatusCompleted
	j.status.CompletedAt = &now
}

type bucket struct {
	category     string
	items        int
	scores       float64
	colors       *tally.Counter
	patterns     *tally.Counter
	styles       *tally.Counter
	fabrications *tally.Counter
	demographics *tally.Counter
	pricePoints  *tally.Counter
}

func newBucket(category string) *bucket {
	return &bucket{
		category:     category,
		colors:       tally.New(),
		patterns:     tally.New(),
		styles:       tally.New(),
		fabrications: tally.New(),
		demographics: tally.New(),
		pricePoints:  tally.New(),
	}
}

func (j *Job) generate(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { metrics.RecordJob("insights", err, time.Since(start)) }()

	j.progress("Aggregating trend data by category...")
	items, _, err := j.db.ListTrends(database.TrendFilter{Status: database.StatusActive})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return errors.New("No active trends found")
	}

	buckets, order := aggregate(items)
	data := categoryData(buckets, order)

	j.progress(fmt.Sprintf("Generating AI insights for %d categories...", len(data)))
	generated, err := j.ai.GenerateCategoryInsights(ctx, data)
	if err != nil {
		return fmt.Errorf("Category insights failed: %w", err)
	}

	j.progress("Saving category insights...")
	for _, in := range generated {
		if in.Category == "" {
			continue
		}
		row := &database.TrendInsight{
			Category:              in.Category,
			Summary:               in.Summary,
			KeyCharacteristics:    in.KeyCharacteristics,
			StyleTagsDistribution: database.JSONObject{},
		}
		if row.KeyCharacteristics == nil {
			row.KeyCharacteristics = database.JSONObject{}
		}
		if i := slices.IndexFunc(data, func(d analysis.CategoryData) bool { return d.Category == in.Category }); i >= 0 {
			row.TrendingItemsCount = data[i].Count
			row.AvgTrendScore = data[i].AvgScore
		}
		if b, ok := buckets[in.Category]; ok {
			for _, e := range b.styles.MostCommon(10) {
				row.StyleTagsDistribution[e.Key] = e.Count
			}
		}
		if err := j.db.UpsertInsight(row); err != nil {
			return fmt.Errorf("saving insight %q: %w", in.Category, err)
		}
	}

	j.progress("Creating themed fashion looks...")
	looks, err := j.ai.GenerateThemedLooks(ctx, summary(items, buckets, order), order)
	if err != nil {
		logging.Warn().Err(err).Msg("Themed looks generation failed")
		j.progress("Category insights saved. Themed looks generation failed.")
		looks = nil
	}

	if len(looks) > 0 {
		j.progress("Saving themed looks...")
		rows := make([]database.ThemedLook, 0, len(looks))
		for _, l := range looks {
			rows = append(rows, themedLook(l, items))
		}
		if err := j.db.ReplaceThemedLooks(rows); err != nil {
			return fmt.Errorf("saving themed looks: %w", err)
		}
	}

	j.progress(fmt.Sprintf("Generated %d category insights and %d themed looks", len(generated), len(looks)))
	logging.Info().Int("insights", len(generated)).Int("looks", len(looks)).Msg("Insights generated")
	return nil
}

// aggregate groups items by category; order lists categories first-seen.
func aggregate(items []database.TrendItem) (map[string]*bucket, []string) {
	buckets := make(map[string]*bucket)
	var order []string
	for _, t := range items {
		cat := "uncategorized"
		if t.Category != nil && *t.Category != "" {
			cat = *t.Category
		}
		b, ok := buckets[cat]
		if !ok {
			b = newBucket(cat)
			buckets[cat] = b
			order = append(order, cat)
		}
		b.items++
		b.scores += t.TrendScore
		b.colors.AddAll(t.Colors)
		b.patterns.AddAll(t.Patterns)
		b.styles.AddAll(t.StyleTags)
		b.fabrications.AddAll(t.Fabrications)
		if t.Demographic != nil {
			b.demographics.Add(*t.Demographic)
		}
		if t.PricePoint != nil {
			b.pricePoints.Add(*t.PricePoint)
		}
	}
	return buckets, order
}

// categoryData summarizes categories with at least two items, largest first.
func categoryData(buckets map[string]*bucket, order []string) []analysis.CategoryData {
	sorted := slices.Clone(order)
	slices.SortStableFunc(sorted, func(a, b string) int { return buckets[b].items - buckets[a].items })

	var out []analysis.CategoryData
	for _, cat := range sorted {
		b := buckets[cat]
		if b.items < 2 {
			continue
		}
		out = append(out, analysis.CategoryData{
			Category:        cat,
			Count:           b.items,
			AvgScore:        b.scores / float64(b.items),
			TopColors:       b.colors.Keys(5),
			TopPatterns:     b.patterns.Keys(4),
			TopStyles:       b.styles.Keys(5),
			TopFabrications: b.fabrications.Keys(4),
			Demographics:    b.demographics.Keys(3),
			PricePoints:     b.pricePoints.Keys(3),
		})
	}
	return out
}

// summary describes the whole trend set for the themed looks prompt.
func summary(items []database.TrendItem, buckets map[string]*bucket, order []string) string {
	cats, colors, styles, fabrics := tally.New(), tally.New(), tally.New(), tally.New()
	for _, t := range items {
		if t.Category != nil {
			cats.Add(*t.Category)
		} else {
			cats.Add("")
		}
	}
	for _, cat := range order {
		b := buckets[cat]
		for _, e := range b.colors.MostCommon(0) {
			colors.AddN(e.Key, e.Count)
		}
		for _, e := range b.styles.MostCommon(0) {
			styles.AddN(e.Key, e.Count)
		}
		for _, e := range b.fabrications.MostCommon(0) {
			fabrics.AddN(e.Key, e.Count)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Total trends: %d across %d categories.\n", len(items), len(buckets))
	fmt.Fprintf(&sb, "Top categories: %s\n", strings.Join(cats.Keys(10), ", "))
	fmt.Fprintf(&sb, "Top colors: %s\n", strings.Join(colors.Keys(10), ", "))
	fmt.Fprintf(&sb, "Top style tags: %s\n", strings.Join(styles.Keys(10), ", "))
	fmt.Fprintf(&sb, "Top fabrications: %s\n", strings.Join(fabrics.Keys(8), ", "))
	sb.WriteString("Demographics: mostly junior_girls and young_women\n")
	return sb.String()
}

// themedLook converts a generated theme, featuring up to maxFeatured trends
// that share a style tag or a color with it.
func themedLook(l analysis.ThemedLookIdea, items []database.TrendItem) database.ThemedLook {
	styleSet := make(map[string]bool)
	for _, s := range l.StyleTags {
		styleSet[strings.ToLower(s)] = true
	}
	colorSet := make(map[string]bool)
	for _, c := range l.ColorPalette {
		colorSet[strings.ToLower(c)] = true
	}

	featured := []int64{}
	for _, t := range items {
		match := slices.ContainsFunc(t.StyleTags, func(s string) bool { return styleSet[s] }) ||
			slices.ContainsFunc(t.Colors, func(c string) bool { return colorSet[strings.ToLower(c)] })
		if match {
			featured = append(featured, t.ID)
			if len(featured) >= maxFeatured {
				break
			}
		}
	}

	name := l.ThemeName
	if name == "" {
		name = "Untitled"
	}
	look := database.ThemedLook{
		ThemeName:         name,
		Description:       &l.Description,
		ColorPalette:      nonNil(l.ColorPalette),
		KeyItems:          nonNil(l.KeyItems),
		StyleTags:         nonNil(l.StyleTags),
		DemographicAppeal: nonNil(l.DemographicAppeal),
		FeaturedTrendIDs:  featured,
	}
	if l.MoodDescription != "" {
		look.MoodDescription = &l.MoodDescription
	}
	return look
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
