package trends

import (
	"sort"
	"time"

	"github.com/TobiSchelling/TrendIntel/internal/database"
	"github.com/TobiSchelling/TrendIntel/internal/tally"
)

// CategoryStats is a category with its trend count and mean score.
type CategoryStats struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	TrendScore float64 `json:"trend_score"`
}

type ColorStats struct {
	Color string `json:"color"`
	Count int    `json:"count"`
}

type StyleStats struct {
	Style string `json:"style"`
	Count int    `json:"count"`
}

type FabricationStats struct {
	Fabrication string `json:"fabrication"`
	Count       int    `json:"count"`
}

// Leader is a trend ranked by velocity.
type Leader struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Category      *string `json:"category"`
	VelocityScore float64 `json:"velocity_score"`
	TrendScore    float64 `json:"trend_score"`
}

// Summary is the dashboard overview.
type Summary struct {
	TopCategories        []CategoryStats    `json:"top_categories"`
	TrendingColors       []ColorStats       `json:"trending_colors"`
	TrendingStyles       []StyleStats       `json:"trending_styles"`
	TrendingFabrications []FabricationStats `json:"trending_fabrications"`
	VelocityLeaders      []Leader           `json:"velocity_leaders"`
	TotalActiveTrends    int                `json:"total_active_trends"`
	NewToday             int                `json:"new_today"`
	DemographicFilter    *string            `json:"demographic_filter"`
	Timestamp            time.Time          `json:"timestamp"`
}

// Dashboard aggregates active trends submitted in the last days, optionally
// restricted to one demographic.
func (s *Service) Dashboard(days int, demographic string) (*Summary, error) {
	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -days)
	trends, _, err := s.db.ListTrends(database.TrendFilter{Demographic: demographic, Since: &cutoff})
	if err != nil {
		return nil, err
	}

	total, err := s.db.CountTrends(database.TrendFilter{Demographic: demographic})
	if err != nil {
		return nil, err
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	newToday, err := s.db.CountTrends(database.TrendFilter{Demographic: demographic, Since: &midnight})
	if err != nil {
		return nil, err
	}

	cats := tally.New()
	scoreSums := map[string]float64{}
	colors, styles, fabs := tally.New(), tally.New(), tally.New()
	for _, t := range trends {
		if t.Category != nil && *t.Category != "" {
			cats.Add(*t.Category)
			scoreSums[*t.Category] += t.TrendScore
		}
		colors.AddAll(t.Colors)
		styles.AddAll(t.StyleTags)
		fabs.AddAll(t.Fabrications)
	}

	sum := &Summary{
		TopCategories:        []CategoryStats{},
		TrendingColors:       []ColorStats{},
		TrendingStyles:       []StyleStats{},
		TrendingFabrications: []FabricationStats{},
		VelocityLeaders:      []Leader{},
		TotalActiveTrends:    total,
		NewToday:             newToday,
		Timestamp:            now,
	}
	if demographic != "" {
		sum.DemographicFilter = &demographic
	}
	for _, e := range cats.MostCommon(10) {
		sum.TopCategories = append(sum.TopCategories, CategoryStats{
			Name: e.Key, Count: e.Count, TrendScore: scoreSums[e.Key] / float64(e.Count),
		})
	}
	for _, e := range colors.MostCommon(10) {
		sum.TrendingColors = append(sum.TrendingColors, ColorStats{Color: e.Key, Count: e.Count})
	}
	for _, e := range styles.MostCommon(10) {
		sum.TrendingStyles = append(sum.TrendingStyles, StyleStats{Style: e.Key, Count: e.Count})
	}
	for _, e := range fabs.MostCommon(10) {
		sum.TrendingFabrications = append(sum.TrendingFabrications, FabricationStats{Fabrication: e.Key, Count: e.Count})
	}

	sort.SliceStable(trends, func(i, j int) bool { return trends[i].VelocityScore > trends[j].VelocityScore })
	for i := 0; i < len(trends) && i < 5; i++ {
		t := trends[i]
		sum.VelocityLeaders = append(sum.VelocityLeaders, Leader{
			ID:            t.ID,
			Title:         leaderTitle(t.URL),
			Category:      t.Category,
			VelocityScore: t.VelocityScore,
			TrendScore:    t.TrendScore,
		})
	}
	return sum, nil
}

func leaderTitle(url string) string {
	if len(url) > 50 {
		return url[:50] + "..."
	}
	return url
}
