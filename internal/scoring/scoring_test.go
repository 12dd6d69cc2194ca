package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/TobiSchelling/TrendIntel/internal/database"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestEngagementZero(t *testing.T) {
	if got := Engagement(Metrics{}); got != 0 {
		t.Errorf("expected 0 for no engagement, got %v", got)
	}
}

func TestEngagementKnownValue(t *testing.T) {
	// log10(100000)/5 = 1, log10(10000)/4 = 1, log10(1e6)/6 = 1
	m := Metrics{Likes: 99999, Comments: 9999, Shares: 9999, Views: 999999}
	if got := Engagement(m); !approx(got, 100) {
		t.Errorf("expected 100, got %v", got)
	}
}

func TestEngagementCapped(t *testing.T) {
	m := Metrics{Likes: 1e12, Comments: 1e12, Shares: 1e12, Views: 1e12}
	if got := Engagement(m); got != 100 {
		t.Errorf("expected cap at 100, got %v", got)
	}
}

func TestVelocity(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	point := func(ago time.Duration, likes, comments, shares int64) database.MetricsPoint {
		return database.MetricsPoint{RecordedAt: now.Add(-ago), Likes: likes, Comments: comments, Shares: shares}
	}

	tests := []struct {
		name    string
		history []database.MetricsPoint
		want    float64
	}{
		{"no history", nil, 1.0},
		{"single point", []database.MetricsPoint{point(time.Hour, 1, 1, 1)}, 1.0},
		{"only old points", []database.MetricsPoint{point(48*time.Hour, 0, 0, 0), point(30*time.Hour, 100, 0, 0)}, 1.0},
		{"flat", []database.MetricsPoint{point(2*time.Hour, 9, 9, 9), point(time.Hour, 9, 9, 9)}, 1.0},
		// growth 1.0 on each metric -> 1 + 0.5
		{"doubling", []database.MetricsPoint{point(2*time.Hour, 9, 9, 9), point(time.Hour, 19, 19, 19)}, 1.5},
		{"explosive", []database.MetricsPoint{point(2*time.Hour, 0, 0, 0), point(time.Hour, 1000, 1000, 1000)}, 3.0},
		{"declining", []database.MetricsPoint{point(2*time.Hour, 100, 100, 100), point(time.Hour, 0, 0, 0)}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Velocity(tt.history, now); !approx(got, tt.want) {
				t.Errorf("Velocity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecency(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		age  time.Duration
		want float64
	}{
		{"fresh", time.Hour, 1.5},
		{"one day", 24 * time.Hour, 1.5},
		{"four days", 4 * 24 * time.Hour, 1.25},
		{"seven days", 7 * 24 * time.Hour, 1.0},
		{"old", 30 * 24 * time.Hour, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Recency(now.Add(-tt.age), now); !approx(got, tt.want) {
				t.Errorf("Recency = %v, want %v", got, tt.want)
			}
		})
	}
	if got := Recency(time.Time{}, now); got != 1.0 {
		t.Errorf("zero submit time: got %v", got)
	}
}

func TestCombine(t *testing.T) {
	// 50*0.3 + 50*1*0.4 + 50*1.5*0.3 = 15 + 20 + 22.5
	s := Combine(50, 1, 1.5, 0)
	if s.Trend != 57.5 || s.Velocity != 50 || s.CrossPlatform != 0 {
		t.Errorf("unexpected scores: %+v", s)
	}

	s = Combine(80, 3, 1.5, 20)
	if s.Trend != 100 {
		t.Errorf("expected cap at 100, got %v", s.Trend)
	}
	if s.Velocity != 240 || s.CrossPlatform != 20 {
		t.Errorf("unexpected scores: %+v", s)
	}

	s = Combine(33.333333, 1, 1, 0)
	if s.Trend != 33.33 {
		t.Errorf("expected rounding to 2 decimals, got %v", s.Trend)
	}
}

type fakeStore struct {
	history   []database.MetricsPoint
	platforms []string
	gotSince  time.Time
}

func (f *fakeStore) MetricsSince(_ int64, since time.Time) ([]database.MetricsPoint, error) {
	f.gotSince = since
	return f.history, nil
}

func (f *fakeStore) ActiveCategoryPlatforms(_, _ string) ([]string, error) {
	return f.platforms, nil
}

func TestScorerApply(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{platforms: []string{"pinterest", "tiktok"}}
	s := New(store)
	s.now = func() time.Time { return now }

	cat := "Dresses"
	item := &database.TrendItem{
		ID: 7, SourcePlatform: "instagram", Category: &cat, SubmittedAt: now.Add(-time.Hour),
		Likes: 99999, Comments: 9999, Shares: 9999, Views: 999999,
	}
	if err := s.Apply(item); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if item.CrossPlatformScore != 20 {
		t.Errorf("expected bonus 20 for two other platforms, got %v", item.CrossPlatformScore)
	}
	if item.TrendScore != 100 {
		t.Errorf("expected capped score, got %v", item.TrendScore)
	}
	if item.VelocityScore != 100 {
		t.Errorf("expected velocity score 100, got %v", item.VelocityScore)
	}
	if !store.gotSince.Equal(now.Add(-24 * time.Hour)) {
		t.Errorf("history window start = %v", store.gotSince)
	}
}

func TestScorerNewItemSkipsHistory(t *testing.T) {
	store := &fakeStore{history: []database.MetricsPoint{{}, {}}}
	s := New(store)

	item := &database.TrendItem{SourcePlatform: "Other"}
	sc, err := s.Score(item)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !store.gotSince.IsZero() {
		t.Error("expected no history lookup for unsaved trend")
	}
	if sc.Trend != 0 || sc.CrossPlatform != 0 {
		t.Errorf("expected zero scores, got %+v", sc)
	}
}
