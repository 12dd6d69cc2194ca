// Package scoring computes trend scores from engagement, growth, age and
// cross-platform presence.
package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/TobiSchelling/TrendIntel/internal/database"
)

const (
	engagementWeight   = 0.3
	velocityWeight     = 0.4
	recencyWeight      = 0.3
	crossPlatformBonus = 10.0
	maxTrendScore      = 100.0

	velocityWindow = 24 * time.Hour
)

// Metrics are the raw interaction counts of a trend.
type Metrics struct {
	Likes    int64
	Comments int64
	Shares   int64
	Views    int64
}

// Scores are the stored score fields of a trend.
type Scores struct {
	Trend         float64
	Velocity      float64
	CrossPlatform float64
}

// Engagement maps interaction counts onto 0-100 using log-scaled, weighted terms.
func Engagement(m Metrics) float64 {
	likes := math.Log10(float64(m.Likes)+1) / 5
	comments := math.Log10(float64(m.Comments)+1) / 4
	shares := math.Log10(float64(m.Shares)+1) / 4
	views := math.Log10(float64(m.Views)+1) / 6

	score := (likes*0.3 + comments*0.3 + shares*0.25 + views*0.15) * 100
	return math.Min(score, 100)
}

// Velocity returns a growth multiplier in [1, 3] from the snapshots recorded
// within 24h of now. Points must be ordered oldest first.
func Velocity(history []database.MetricsPoint, now time.Time) float64 {
	cutoff := now.Add(-velocityWindow)
	var window []database.MetricsPoint
	for _, p := range history {
		if !p.RecordedAt.Before(cutoff) {
			window = append(window, p)
		}
	}
	if len(window) < 2 {
		return 1.0
	}

	first, last := window[0], window[len(window)-1]
	growth := func(a, b int64) float64 { return float64(b-a) / float64(a+1) }
	avg := (growth(first.Likes, last.Likes) +
		growth(first.Comments, last.Comments) +
		growth(first.Shares, last.Shares)) / 3

	v := 1.0 + math.Min(avg/2, 2.0)
	return math.Max(1.0, math.Min(v, 3.0))
}

// Recency boosts fresh trends: 1.5 within a day, declining linearly to 1.0
// at seven days. A zero submit time yields 1.0.
func Recency(submitted, now time.Time) float64 {
	if submitted.IsZero() {
		return 1.0
	}
	age := now.Sub(submitted)
	switch {
	case age < 24*time.Hour:
		return 1.5
	case age < 7*24*time.Hour:
		days := age.Hours() / 24
		return 1.5 - 0.5*(days-1)/6
	default:
		return 1.0
	}
}

// CrossPlatform returns the bonus for a category seen on otherPlatforms
// additional platforms.
func CrossPlatform(otherPlatforms int) float64 {
	return crossPlatformBonus * float64(otherPlatforms)
}

// Combine folds the components into the stored scores.
func Combine(engagement, velocity, recency, bonus float64) Scores {
	trend := engagement*engagementWeight +
		engagement*velocity*velocityWeight +
		engagement*recency*recencyWeight +
		bonus
	return Scores{
		Trend:         round2(math.Min(trend, maxTrendScore)),
		Velocity:      round2(velocity * engagement),
		CrossPlatform: round2(bonus),
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Store is the data the scorer reads.
type Store interface {
	MetricsSince(trendID int64, since time.Time) ([]database.MetricsPoint, error)
	ActiveCategoryPlatforms(category, exclude string) ([]string, error)
}

// Scorer computes and applies scores for stored or new trends.
type Scorer struct {
	store Store
	now   func() time.Time
}

// New creates a Scorer reading history and platform presence from store.
func New(store Store) *Scorer {
	return &Scorer{store: store, now: time.Now}
}

// Score computes the scores of t. History is only read for trends that are
// already stored.
func (s *Scorer) Score(t *database.TrendItem) (Scores, error) {
	now := s.now().UTC()

	var history []database.MetricsPoint
	if t.ID != 0 {
		var err error
		history, err = s.store.MetricsSince(t.ID, now.Add(-velocityWindow))
		if err != nil {
			return Scores{}, fmt.Errorf("loading metrics history: %w", err)
		}
	}

	var bonus float64
	if t.Category != nil && *t.Category != "" {
		others, err := s.store.ActiveCategoryPlatforms(*t.Category, t.SourcePlatform)
		if err != nil {
			return Scores{}, fmt.Errorf("loading category platforms: %w", err)
		}
		bonus = CrossPlatform(len(others))
	}

	e := Engagement(Metrics{Likes: t.Likes, Comments: t.Comments, Shares: t.Shares, Views: t.Views})
	return Combine(e, Velocity(history, now), Recency(t.SubmittedAt, now), bonus), nil
}

// Apply scores t and writes the result into its score fields.
func (s *Scorer) Apply(t *database.TrendItem) error {
	sc, err := s.Score(t)
	if err != nil {
		return err
	}
	t.TrendScore = sc.Trend
	t.VelocityScore = sc.Velocity
	t.CrossPlatformScore = sc.CrossPlatform
	return nil
}
