package trends

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TobiSchelling/TrendIntel/internal/analysis"
	"github.com/TobiSchelling/TrendIntel/internal/config"
	"github.com/TobiSchelling/TrendIntel/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newService(t *testing.T) (*Service, *database.DB) {
	t.Helper()
	db := openTestDB(t)
	ai := analysis.New(config.AI{UseMock: true}, nil, analysis.WithSeed(11))
	return New(db, ai), db
}

func ptr[T any](v T) *T { return &v }

func addSource(t *testing.T, db *database.DB, name, url, platform string, demos ...string) *database.MonitoringTarget {
	t.Helper()
	src := &database.MonitoringTarget{
		Type:               database.TargetSource,
		Value:              name,
		Platform:           platform,
		Active:             true,
		AddedBy:            "tester",
		SourceURL:          ptr(url),
		SourceName:         ptr(name),
		TargetDemographics: demos,
	}
	if err := db.CreateTarget(src); err != nil {
		t.Fatalf("CreateTarget: %v", err)
	}
	return src
}

func TestSubmitStoresAnalyzedTrend(t *testing.T) {
	svc, db := newService(t)
	item, err := svc.Submit(context.Background(), SubmitRequest{
		URL:         "https://www.tiktok.com/@x/video/1",
		Platform:    "tiktok",
		Demographic: "young_women",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if item.ID == 0 || item.SourcePlatform != "tiktok" || item.SubmittedBy != DefaultSubmitter {
		t.Errorf("unexpected item %+v", item)
	}
	if item.Category == nil || item.AIAnalysisText == nil {
		t.Error("expected analysis fields to be set")
	}
	if item.Demographic == nil || *item.Demographic != "young_women" {
		t.Errorf("expected request demographic, got %v", item.Demographic)
	}
	if item.Views == 0 || item.Likes != item.Views/4 || item.Shares != item.Views/20 {
		t.Errorf("unexpected engagement split: %+v", item)
	}
	if item.TrendScore <= 0 || item.TrendScore > 100 {
		t.Errorf("trend score %v out of range", item.TrendScore)
	}

	history, err := db.MetricsSince(item.ID, item.SubmittedAt.Add(-time.Minute))
	if err != nil {
		t.Fatalf("MetricsSince: %v", err)
	}
	if len(history) != 1 || history[0].TrendScore != item.TrendScore {
		t.Errorf("expected one initial metrics row, got %+v", history)
	}
}

func TestSubmitDuplicate(t *testing.T) {
	svc, _ := newService(t)
	req := SubmitRequest{URL: "https://example.com/dup"}
	if _, err := svc.Submit(context.Background(), req); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if _, err := svc.Submit(context.Background(), req); !errors.Is(err, database.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestResolvedPlatform(t *testing.T) {
	cases := []struct {
		req  SubmitRequest
		want string
	}{
		{SubmitRequest{SourcePlatform: "instagram", Platform: "tiktok"}, "instagram"},
		{SubmitRequest{Platform: "tiktok"}, "tiktok"},
		{SubmitRequest{}, "Other"},
	}
	for _, c := range cases {
		if got := c.req.ResolvedPlatform(); got != c.want {
			t.Errorf("ResolvedPlatform(%+v) = %q, want %q", c.req, got, c.want)
		}
	}
}

func TestAnalyzeFromSource(t *testing.T) {
	svc, db := newService(t)
	src := addSource(t, db, "Edikted", "https://edikted.com", "ecommerce", "junior_girls")

	item, err := svc.AnalyzeFromSource(context.Background(), src.ID, "https://edikted.com/p/1")
	if err != nil {
		t.Fatalf("AnalyzeFromSource: %v", err)
	}
	if item.SourceID == nil || *item.SourceID != src.ID {
		t.Errorf("expected source id %d, got %v", src.ID, item.SourceID)
	}
	if item.Demographic == nil || *item.Demographic != "junior_girls" {
		t.Errorf("expected source demographic, got %v", item.Demographic)
	}

	got, err := db.GetSource(src.ID)
	if err != nil {
		t.Fatalf("GetSource: %v", err)
	}
	if got.TrendCount != 1 || got.LastScrapedAt == nil {
		t.Errorf("expected source stats updated, got %+v", got)
	}

	if _, err := svc.AnalyzeFromSource(context.Background(), src.ID, "https://edikted.com/p/1"); !errors.Is(err, database.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if _, err := svc.AnalyzeFromSource(context.Background(), 9999, "https://x.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSeedFromSources(t *testing.T) {
	svc, db := newService(t)
	if _, err := svc.SeedFromSources(context.Background()); !errors.Is(err, ErrNoSources) {
		t.Fatalf("expected ErrNoSources, got %v", err)
	}

	addSource(t, db, "Princess Polly", "https://us.princesspolly.com", "ecommerce")
	addSource(t, db, "Some Blog", "https://blog.example.com", "blog")

	res, err := svc.SeedFromSources(context.Background())
	if err != nil {
		t.Fatalf("SeedFromSources: %v", err)
	}
	if res.SourcesProcessed != 1 || res.Created != 3 || res.Errors != 0 {
		t.Errorf("unexpected seed result %+v", res)
	}

	items, total, err := db.ListTrends(database.TrendFilter{})
	if err != nil {
		t.Fatalf("ListTrends: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 trends, got %d", total)
	}
	for _, it := range items {
		if it.SubmittedBy != "AI Seed Generator" || it.SourcePlatform != "ecommerce" {
			t.Errorf("unexpected seeded trend %+v", it)
		}
		if !strings.HasPrefix(it.URL, "https://us.princesspolly.com/products/") {
			t.Errorf("unexpected url %q", it.URL)
		}
	}
}

func TestReanalyze(t *testing.T) {
	svc, _ := newService(t)
	item, err := svc.Submit(context.Background(), SubmitRequest{URL: "https://example.com/r"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	again, err := svc.Reanalyze(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("Reanalyze: %v", err)
	}
	if again.ID != item.ID || again.Category == nil {
		t.Errorf("unexpected reanalyzed trend %+v", again)
	}
	if _, err := svc.Reanalyze(context.Background(), 12345); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRescoreRecordsMetrics(t *testing.T) {
	svc, _ := newService(t)
	item, err := svc.Submit(context.Background(), SubmitRequest{URL: "https://example.com/s"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	res, err := svc.Rescore(context.Background())
	if err != nil {
		t.Fatalf("Rescore: %v", err)
	}
	if res.Rescored != 1 || res.Errors != 0 {
		t.Errorf("unexpected rescore result %+v", res)
	}

	points, err := svc.Metrics(item.ID, 24)
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if len(points) != 2 {
		t.Errorf("expected 2 metrics rows, got %d", len(points))
	}
	if _, err := svc.Metrics(999, 24); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDashboard(t *testing.T) {
	svc, db := newService(t)
	for i, cat := range []string{"midi dress", "midi dress", "blazer"} {
		item := &database.TrendItem{
			URL:            "https://example.com/" + string(rune('a'+i)) + strings.Repeat("x", 60),
			SourcePlatform: "instagram",
			SubmittedBy:    "tester",
			Category:       ptr(cat),
			Colors:         []string{"cream"},
			StyleTags:      []string{"y2k"},
			Fabrications:   []string{"linen"},
			Demographic:    ptr("junior_girls"),
			TrendScore:     float64(10 * (i + 1)),
			VelocityScore:  float64(i),
		}
		if _, err := db.InsertTrend(item); err != nil {
			t.Fatalf("InsertTrend: %v", err)
		}
	}

	sum, err := svc.Dashboard(7, "")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if sum.TotalActiveTrends != 3 || sum.NewToday != 3 {
		t.Errorf("unexpected totals %d/%d", sum.TotalActiveTrends, sum.NewToday)
	}
	if len(sum.TopCategories) != 2 || sum.TopCategories[0].Name != "midi dress" || sum.TopCategories[0].TrendScore != 15 {
		t.Errorf("unexpected categories %+v", sum.TopCategories)
	}
	if sum.TrendingColors[0].Count != 3 || sum.TrendingFabrications[0].Fabrication != "linen" {
		t.Errorf("unexpected tag stats %+v %+v", sum.TrendingColors, sum.TrendingFabrications)
	}
	if len(sum.VelocityLeaders) != 3 || sum.VelocityLeaders[0].VelocityScore != 2 {
		t.Errorf("unexpected leaders %+v", sum.VelocityLeaders)
	}
	if !strings.HasSuffix(sum.VelocityLeaders[0].Title, "...") || len(sum.VelocityLeaders[0].Title) != 53 {
		t.Errorf("expected truncated title, got %q", sum.VelocityLeaders[0].Title)
	}

	filtered, err := svc.Dashboard(7, "kids")
	if err != nil {
		t.Fatalf("Dashboard(kids): %v", err)
	}
	if filtered.TotalActiveTrends != 0 || filtered.DemographicFilter == nil {
		t.Errorf("unexpected filtered summary %+v", filtered)
	}
}
