package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/TobiSchelling/TrendIntel/internal/analysis"
	"github.com/TobiSchelling/TrendIntel/internal/config"
	"github.com/TobiSchelling/TrendIntel/internal/database"
	"github.com/TobiSchelling/TrendIntel/internal/trends"
)

func rssFeed(now time.Time) string {
	recent := now.Add(-12 * time.Hour).Format(time.RFC1123Z)
	old := now.AddDate(0, 0, -10).Format(time.RFC1123Z)
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Street Style Daily</title>
  <link>https://streetstyle.example</link>
  <item>
    <title>Butter yellow takes over Copenhagen</title>
    <link>https://streetstyle.example/butter-yellow</link>
    <pubDate>%[1]s</pubDate>
    <enclosure url="https://cdn.streetstyle.example/yellow.jpg" type="image/jpeg" length="1000"/>
  </item>
  <item>
    <title>Ballet flats are back</title>
    <link>https://streetstyle.example/ballet-flats</link>
    <pubDate>%[1]s</pubDate>
  </item>
  <item>
    <title>Last season's denim</title>
    <link>https://streetstyle.example/denim</link>
    <pubDate>%[2]s</pubDate>
  </item>
  <item>
    <title>No link here</title>
  </item>
</channel>
</rss>`, recent, old)
}

func setup(t *testing.T) (*Collector, *database.DB, *httptest.Server) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	now := time.Now()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed.xml" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssFeed(now))
	}))
	t.Cleanup(srv.Close)

	ai := analysis.New(config.AI{UseMock: true}, nil, analysis.WithSeed(3))
	c := New(db, trends.New(db, ai), config.Collect{DaysBack: 3, MaxPerFeed: 20})
	return c, db, srv
}

func addFeedSource(t *testing.T, db *database.DB, name, feedURL, platform string) *database.MonitoringTarget {
	t.Helper()
	src := &database.MonitoringTarget{
		Type:               database.TargetSource,
		Value:              name,
		Platform:           platform,
		Active:             true,
		AddedBy:            "tester",
		SourceURL:          &feedURL,
		SourceName:         &name,
		TargetDemographics: []string{"young_women"},
	}
	if err := db.CreateTarget(src); err != nil {
		t.Fatalf("CreateTarget: %v", err)
	}
	return src
}

func TestCollect(t *testing.T) {
	c, db, srv := setup(t)
	src := addFeedSource(t, db, "Street Style", srv.URL+"/feed.xml", "blog")
	addFeedSource(t, db, "Gone", srv.URL+"/missing.xml", "rss")
	addFeedSource(t, db, "Shop", "https://shop.example", "ecommerce")

	r, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if r.SourcesChecked != 2 {
		t.Errorf("SourcesChecked = %d, want 2", r.SourcesChecked)
	}
	if r.EntriesFound != 2 || r.NewTrends != 2 {
		t.Errorf("found/new = %d/%d, want 2/2", r.EntriesFound, r.NewTrends)
	}
	if r.Errors != 1 {
		t.Errorf("Errors = %d, want 1", r.Errors)
	}
	if r.Sources["Street Style"] != 2 {
		t.Errorf("Sources = %v", r.Sources)
	}

	item, err := db.GetTrendByURL("https://streetstyle.example/butter-yellow")
	if err != nil || item == nil {
		t.Fatalf("GetTrendByURL: %v %v", item, err)
	}
	if item.SubmittedBy != Submitter {
		t.Errorf("SubmittedBy = %q", item.SubmittedBy)
	}
	if item.SourceID == nil || *item.SourceID != src.ID {
		t.Errorf("SourceID = %v, want %d", item.SourceID, src.ID)
	}
	if item.SourcePlatform != "blog" {
		t.Errorf("SourcePlatform = %q", item.SourcePlatform)
	}
	if item.ImageURL == nil || *item.ImageURL != "https://cdn.streetstyle.example/yellow.jpg" {
		t.Errorf("ImageURL = %v", item.ImageURL)
	}
	if exists, _ := db.TrendURLExists("https://streetstyle.example/denim"); exists {
		t.Error("entry outside the window was collected")
	}

	got, _ := db.GetSource(src.ID)
	if got.TrendCount != 2 {
		t.Errorf("TrendCount = %d, want 2", got.TrendCount)
	}

	r, err = c.Collect(context.Background())
	if err != nil {
		t.Fatalf("second Collect: %v", err)
	}
	if r.NewTrends != 0 || r.Duplicates != 2 {
		t.Errorf("second run new/dup = %d/%d, want 0/2", r.NewTrends, r.Duplicates)
	}
}

func TestSourceName(t *testing.T) {
	tests := map[string]string{
		"https://www.vogue.com/feed/rss":  "Vogue",
		"https://feeds.hypebeast.com/x":   "Hypebeast",
		"https://blog.example.co/rss.xml": "Example",
		"http://localhost:8080/feed":      "Localhost",
	}
	for in, want := range tests {
		if got := sourceName(in); got != want {
			t.Errorf("sourceName(%q) = %q, want %q", in, got, want)
		}
	}
}
