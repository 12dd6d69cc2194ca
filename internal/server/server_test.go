package server

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/TobiSchelling/TrendIntel/internal/analysis"
	"github.com/TobiSchelling/TrendIntel/internal/config"
	"github.com/TobiSchelling/TrendIntel/internal/database"
	"github.com/TobiSchelling/TrendIntel/internal/scrape"
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

func newTestServer(t *testing.T) (*Server, *database.DB) {
	t.Helper()
	db := openTestDB(t)
	cfg := config.Default()
	cfg.Server.RateLimit = 0
	ai := analysis.New(config.AI{UseMock: true}, nil, analysis.WithSeed(3))
	scraper := scrape.New(db, scrape.NewApifyClient("", 1), 5)
	srv := New(cfg, db, ai, scraper, nil)
	t.Cleanup(srv.insights.Wait)
	return srv, db
}

func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = strings.NewReader(string(data))
	}
	req := httptest.NewRequest(method, path, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, detail string) {
	t.Helper()
	expectStatus(t, rec, status)
	e := decodeBody[ErrorResponse](t, rec)
	if e.Detail != detail {
		t.Errorf("expected detail %q, got %q", detail, e.Detail)
	}
	if e.Code == "" {
		t.Error("expected an error code")
	}
}

func TestRootAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, "GET", "/", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "Welcome to Trend Intelligence Dashboard") {
		t.Errorf("unexpected root body %s", rec.Body.String())
	}

	rec = do(t, srv, "GET", "/health", nil)
	expectStatus(t, rec, http.StatusOK)
	h := decodeBody[map[string]string](t, rec)
	if h["status"] != "healthy" || h["version"] == "" {
		t.Errorf("unexpected health %v", h)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("expected a request id header")
	}
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	srv, _ := newTestServer(t)
	expectError(t, do(t, srv, "GET", "/api/nope", nil), http.StatusNotFound, "Not Found")
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, "GET", "/health", nil)
	rec := do(t, srv, "GET", "/metrics", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("expected prometheus exposition")
	}
}

func submit(t *testing.T, srv *Server, url string) trendView {
	t.Helper()
	rec := do(t, srv, "POST", "/api/trends/submit", map[string]string{
		"url":         url,
		"platform":    "tiktok",
		"demographic": "young_women",
	})
	expectStatus(t, rec, http.StatusOK)
	return decodeBody[trendView](t, rec)
}

func TestSubmitAndListTrends(t *testing.T) {
	srv, _ := newTestServer(t)

	tr := submit(t, srv, "https://www.tiktok.com/@a/video/1")
	if tr.ID == 0 || tr.Platform != "tiktok" || tr.AIAnalysis == nil {
		t.Errorf("unexpected trend %+v", tr)
	}
	if tr.EngagementCount != tr.Likes+tr.Comments+tr.Shares {
		t.Errorf("engagement_count %d does not match counts", tr.EngagementCount)
	}
	submit(t, srv, "https://www.tiktok.com/@a/video/2")

	expectError(t, do(t, srv, "POST", "/api/trends/submit", map[string]string{"url": "https://www.tiktok.com/@a/video/1"}),
		http.StatusBadRequest, "URL already submitted")

	rec := do(t, srv, "GET", "/api/trends/daily?limit=1", nil)
	expectStatus(t, rec, http.StatusOK)
	list := decodeBody[trendList](t, rec)
	if list.Total != 2 || len(list.Items) != 1 || list.Limit != 1 {
		t.Errorf("unexpected page total=%d items=%d limit=%d", list.Total, len(list.Items), list.Limit)
	}

	rec = do(t, srv, "GET", "/api/trends/daily?demographic=nobody", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[trendList](t, rec); got.Total != 0 {
		t.Errorf("expected no trends for unknown demographic, got %d", got.Total)
	}
}

func TestTrendQueryValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, "GET", "/api/trends/daily?limit=0", nil)
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	rec = do(t, srv, "GET", "/api/trends/daily?limit=abc", nil)
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	rec = do(t, srv, "POST", "/api/trends/submit", map[string]string{"platform": "tiktok"})
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	rec = do(t, srv, "POST", "/api/trends/submit", "{not json")
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	rec = do(t, srv, "GET", "/api/trends/abc", nil)
	expectStatus(t, rec, http.StatusUnprocessableEntity)
}

func TestTrendDetailMetricsAndAnalyze(t *testing.T) {
	srv, _ := newTestServer(t)
	tr := submit(t, srv, "https://www.instagram.com/p/xyz")

	rec := do(t, srv, "GET", fmt.Sprintf("/api/trends/%d", tr.ID), nil)
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, srv, "GET", fmt.Sprintf("/api/trends/metrics/%d", tr.ID), nil)
	expectStatus(t, rec, http.StatusOK)
	if pts := decodeBody[[]metricsView](t, rec); len(pts) != 1 {
		t.Errorf("expected one metrics point, got %d", len(pts))
	}

	rec = do(t, srv, "POST", fmt.Sprintf("/api/trends/%d/analyze", tr.ID), nil)
	expectStatus(t, rec, http.StatusOK)

	expectError(t, do(t, srv, "GET", "/api/trends/9999", nil), http.StatusNotFound, "Trend not found")
	expectError(t, do(t, srv, "GET", "/api/trends/metrics/9999", nil), http.StatusNotFound, "Trend not found")
	expectError(t, do(t, srv, "POST", "/api/trends/9999/analyze", nil), http.StatusNotFound, "Trend not found")
}

func TestSeedTrendsRequiresSources(t *testing.T) {
	srv, _ := newTestServer(t)
	expectError(t, do(t, srv, "POST", "/api/trends/seed", nil), http.StatusBadRequest, "No ecommerce sources found.")
}

func TestDashboardSummary(t *testing.T) {
	srv, _ := newTestServer(t)
	submit(t, srv, "https://example.com/a")
	rec := do(t, srv, "GET", "/api/dashboard/summary?days=7", nil)
	expectStatus(t, rec, http.StatusOK)
	sum := decodeBody[map[string]any](t, rec)
	if sum["total_active_trends"] != float64(1) {
		t.Errorf("expected total_active_trends 1, got %v", sum["total_active_trends"])
	}
	expectStatus(t, do(t, srv, "GET", "/api/dashboard/summary?days=91", nil), http.StatusUnprocessableEntity)
}

func TestMoodBoardCRUD(t *testing.T) {
	srv, _ := newTestServer(t)
	tr := submit(t, srv, "https://example.com/board-item")

	expectError(t, do(t, srv, "POST", "/api/moodboards", map[string]any{
		"title": "Summer", "created_by": "Mark", "item_ids": []int64{tr.ID, 999},
	}), http.StatusBadRequest, "One or more trend items not found")

	rec := do(t, srv, "POST", "/api/moodboards", map[string]any{
		"title": "Summer", "created_by": "Mark", "item_ids": []int64{tr.ID},
	})
	expectStatus(t, rec, http.StatusOK)
	board := decodeBody[database.MoodBoard](t, rec)

	rec = do(t, srv, "GET", fmt.Sprintf("/api/moodboards/%d", board.ID), nil)
	expectStatus(t, rec, http.StatusOK)
	got := decodeBody[struct {
		Items      []int64     `json:"items"`
		TrendItems []trendView `json:"trend_items"`
	}](t, rec)
	if len(got.TrendItems) != 1 || got.TrendItems[0].ID != tr.ID {
		t.Errorf("expected expanded trend items, got %+v", got)
	}

	rec = do(t, srv, "PUT", fmt.Sprintf("/api/moodboards/%d", board.ID), map[string]any{"title": "Autumn", "items": []int64{}})
	expectStatus(t, rec, http.StatusOK)
	updated := decodeBody[database.MoodBoard](t, rec)
	if updated.Title != "Autumn" || len(updated.Items) != 0 {
		t.Errorf("unexpected update %+v", updated)
	}

	rec = do(t, srv, "GET", "/api/moodboards?created_by=Mark", nil)
	expectStatus(t, rec, http.StatusOK)
	if list := decodeBody[[]database.MoodBoard](t, rec); len(list) != 1 {
		t.Errorf("expected one board, got %d", len(list))
	}

	rec = do(t, srv, "DELETE", fmt.Sprintf("/api/moodboards/%d", board.ID), nil)
	expectStatus(t, rec, http.StatusOK)
	expectError(t, do(t, srv, "DELETE", fmt.Sprintf("/api/moodboards/%d", board.ID), nil),
		http.StatusNotFound, "Mood board not found")
	expectError(t, do(t, srv, "PUT", "/api/moodboards/4242", map[string]any{"title": "x"}),
		http.StatusNotFound, "Mood board not found")
}

func TestMonitoringTargets(t *testing.T) {
	srv, _ := newTestServer(t)

	expectStatus(t, do(t, srv, "POST", "/api/monitoring/targets", map[string]string{
		"type": "planet", "value": "x", "platform": "tiktok", "added_by": "Mark",
	}), http.StatusUnprocessableEntity)

	rec := do(t, srv, "POST", "/api/monitoring/targets", map[string]string{
		"type": "hashtag", "value": "#y2k", "platform": "tiktok", "added_by": "Mark",
	})
	expectStatus(t, rec, http.StatusOK)
	target := decodeBody[database.MonitoringTarget](t, rec)
	if !target.Active || target.Frequency != "manual" {
		t.Errorf("unexpected target %+v", target)
	}

	rec = do(t, srv, "PUT", fmt.Sprintf("/api/monitoring/targets/%d", target.ID), map[string]any{"active": false})
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, srv, "GET", "/api/monitoring/targets?active=false", nil)
	expectStatus(t, rec, http.StatusOK)
	if list := decodeBody[[]database.MonitoringTarget](t, rec); len(list) != 1 || list[0].Active {
		t.Errorf("expected one inactive target, got %+v", list)
	}

	expectStatus(t, do(t, srv, "DELETE", fmt.Sprintf("/api/monitoring/targets/%d", target.ID), nil), http.StatusOK)
	expectError(t, do(t, srv, "GET", fmt.Sprintf("/api/monitoring/targets/%d", target.ID), nil),
		http.StatusNotFound, "Monitoring target not found")
}

func TestSourcesLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	expectError(t, do(t, srv, "POST", "/api/sources", map[string]string{
		"url": "edikted.com", "platform": "ecommerce", "name": "Edikted",
	}), http.StatusBadRequest, "Invalid URL format (must start with http:// or https://)")

	rec := do(t, srv, "POST", "/api/sources", map[string]any{
		"url": "https://edikted.com", "platform": "ecommerce", "name": "Edikted",
		"target_demographics": []string{"junior_girls"},
	})
	expectStatus(t, rec, http.StatusOK)
	src := decodeBody[map[string]any](t, rec)
	id := int64(src["id"].(float64))

	expectError(t, do(t, srv, "POST", "/api/sources", map[string]string{
		"url": "https://edikted.com", "platform": "ecommerce", "name": "Again",
	}), http.StatusBadRequest, "Source already exists")

	rec = do(t, srv, "POST", "/api/sources/bulk", map[string]any{"sources": []map[string]string{
		{"url": "https://www.princesspolly.com", "platform": "ecommerce", "name": "Princess Polly"},
		{"url": "https://edikted.com", "platform": "ecommerce", "name": "Edikted"},
	}})
	expectStatus(t, rec, http.StatusOK)
	bulk := decodeBody[map[string]any](t, rec)
	if bulk["succeeded"] != float64(1) || len(bulk["failed"].([]any)) != 1 {
		t.Errorf("unexpected bulk result %v", bulk)
	}

	csv := "name,url,platform\nLucy in the Sky,https://lucyinthesky.com,ecommerce\nBad,,ecommerce\n"
	rec = do(t, srv, "POST", "/api/sources/import", csv)
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, srv, "GET", "/api/sources", nil)
	expectStatus(t, rec, http.StatusOK)
	if list := decodeBody[[]map[string]any](t, rec); len(list) != 3 {
		t.Errorf("expected 3 sources, got %d", len(list))
	}

	rec = do(t, srv, "PUT", fmt.Sprintf("/api/sources/%d", id), map[string]any{"frequency": "daily"})
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[map[string]any](t, rec); got["frequency"] != "daily" {
		t.Errorf("expected daily frequency, got %v", got["frequency"])
	}
	expectStatus(t, do(t, srv, "PUT", fmt.Sprintf("/api/sources/%d", id), map[string]any{"frequency": "yearly"}),
		http.StatusUnprocessableEntity)

	rec = do(t, srv, "POST", fmt.Sprintf("/api/sources/%d/analyze?url=https://edikted.com/p/1", id), nil)
	expectStatus(t, rec, http.StatusOK)
	expectError(t, do(t, srv, "POST", fmt.Sprintf("/api/sources/%d/analyze?url=https://edikted.com/p/1", id), nil),
		http.StatusBadRequest, "URL already analyzed")
	expectError(t, do(t, srv, "POST", "/api/sources/9999/analyze?url=https://x.com/p", nil),
		http.StatusNotFound, "Source not found")

	rec = do(t, srv, "POST", "/api/sources/discover-social", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, srv, "DELETE", fmt.Sprintf("/api/sources/%d", id), nil)
	expectStatus(t, rec, http.StatusOK)
	if m := decodeBody[message](t, rec); m.Message != "Source 'Edikted' deleted" {
		t.Errorf("unexpected delete message %q", m.Message)
	}
	expectError(t, do(t, srv, "GET", fmt.Sprintf("/api/sources/%d", id), nil), http.StatusNotFound, "Source not found")
}

func TestDiscoverSocialWithoutSources(t *testing.T) {
	srv, _ := newTestServer(t)
	expectError(t, do(t, srv, "POST", "/api/sources/discover-social", nil),
		http.StatusBadRequest, "No ecommerce sources found. Add some first.")
}

func addPerson(t *testing.T, srv *Server, name string) database.Person {
	t.Helper()
	rec := do(t, srv, "POST", "/api/people", map[string]any{
		"name": name, "type": "influencer", "primary_region": "US",
		"platforms": []map[string]any{{"platform": "instagram", "handle": "@" + strings.ToLower(name), "follower_count": 1000}},
	})
	expectStatus(t, rec, http.StatusOK)
	return decodeBody[database.Person](t, rec)
}

func TestPeopleEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	p := addPerson(t, srv, "Emma")
	if p.FollowerCountTotal != 1000 || len(p.Platforms) != 1 || p.Platforms[0].Handle != "emma" {
		t.Errorf("unexpected person %+v", p)
	}

	rec := do(t, srv, "POST", fmt.Sprintf("/api/people/%d/platforms", p.ID), map[string]any{
		"platform": "tiktok", "handle": "emma", "follower_count": 500,
	})
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[map[string]string](t, rec); got["status"] != "added" || got["platform"] != "tiktok" {
		t.Errorf("unexpected add platform reply %v", got)
	}
	expectError(t, do(t, srv, "POST", fmt.Sprintf("/api/people/%d/platforms", p.ID), map[string]any{
		"platform": "tiktok", "handle": "emma2",
	}), http.StatusBadRequest, "Already has tiktok handle")

	rec = do(t, srv, "GET", fmt.Sprintf("/api/people/%d", p.ID), nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[database.Person](t, rec); got.FollowerCountTotal != 1500 || len(got.Platforms) != 2 {
		t.Errorf("expected 1500 followers on 2 platforms, got %+v", got)
	}

	rec = do(t, srv, "PUT", fmt.Sprintf("/api/people/%d", p.ID), map[string]any{"tier": "mega", "priority": 1})
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[database.Person](t, rec); got.Tier == nil || *got.Tier != "mega" || got.Priority != 1 {
		t.Errorf("unexpected update %+v", got)
	}
	expectStatus(t, do(t, srv, "PUT", fmt.Sprintf("/api/people/%d", p.ID), map[string]any{"priority": 11}),
		http.StatusUnprocessableEntity)

	rec = do(t, srv, "POST", "/api/people/bulk", map[string]any{"people": []map[string]any{
		{"name": "emma", "type": "influencer"},
		{"name": "Zara Larsson", "type": "celebrity"},
	}})
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[map[string]any](t, rec); got["created"] != float64(1) || got["skipped"] != float64(1) {
		t.Errorf("unexpected bulk result %v", got)
	}

	rec = do(t, srv, "GET", "/api/people?search=zara", nil)
	expectStatus(t, rec, http.StatusOK)
	if list := decodeBody[[]database.Person](t, rec); len(list) != 1 || list[0].Name != "Zara Larsson" {
		t.Errorf("unexpected search result %+v", list)
	}
	expectStatus(t, do(t, srv, "GET", "/api/people?sort_by=shoe_size", nil), http.StatusUnprocessableEntity)

	rec = do(t, srv, "GET", "/api/people/stats", nil)
	expectStatus(t, rec, http.StatusOK)
	if st := decodeBody[database.PeopleStats](t, rec); st.TotalPeople != 2 || st.TotalPlatforms != 2 {
		t.Errorf("unexpected stats %+v", st)
	}

	rec = do(t, srv, "GET", fmt.Sprintf("/api/people/%d/posts", p.ID), nil)
	expectStatus(t, rec, http.StatusOK)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty posts, got %s", rec.Body.String())
	}

	rec = do(t, srv, "DELETE", fmt.Sprintf("/api/people/%d", p.ID), nil)
	expectStatus(t, rec, http.StatusOK)
	if m := decodeBody[message](t, rec); m.Message != "Deleted Emma" {
		t.Errorf("unexpected delete message %q", m.Message)
	}
	expectError(t, do(t, srv, "GET", fmt.Sprintf("/api/people/%d", p.ID), nil), http.StatusNotFound, "Person not found")
}

func TestScrapeWithoutApifyToken(t *testing.T) {
	srv, _ := newTestServer(t)
	p := addPerson(t, srv, "Hailey")

	rec := do(t, srv, "POST", fmt.Sprintf("/api/people/%d/scrape", p.ID), nil)
	expectStatus(t, rec, http.StatusOK)
	got := decodeBody[scrapeResponse](t, rec)
	if got.Status != "completed" || got.NewPosts != 0 || got.Person != "Hailey" || len(got.Debug) == 0 {
		t.Errorf("unexpected scrape reply %+v", got)
	}

	rec = do(t, srv, "POST", "/api/people/scrape-batch?priority_max=10", nil)
	expectStatus(t, rec, http.StatusOK)
	if b := decodeBody[scrape.BatchResult](t, rec); b.TotalPeople != 1 || b.TotalNewPosts != 0 {
		t.Errorf("unexpected batch %+v", b)
	}
	expectStatus(t, do(t, srv, "POST", "/api/people/scrape-batch?priority_max=11", nil), http.StatusUnprocessableEntity)
}

func TestSeedPeople(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, "POST", "/api/people/seed", nil)
	expectStatus(t, rec, http.StatusOK)
	first := decodeBody[map[string]any](t, rec)
	if first["created"].(float64) < 20 || first["created"] != first["total_in_seed"] {
		t.Errorf("unexpected first seed %v", first)
	}
	rec = do(t, srv, "POST", "/api/people/seed", nil)
	if again := decodeBody[map[string]any](t, rec); again["created"] != float64(0) {
		t.Errorf("expected reseed to create nothing, got %v", again)
	}
}

func TestFeedEndpoints(t *testing.T) {
	srv, db := newTestServer(t)
	p := addPerson(t, srv, "Sofia")
	caption := "Loving this oversized blazer in cream #quietluxury #ootd"
	for i, likes := range []int64{100, 900} {
		if _, err := db.UpsertPost(&database.ScrapedPost{
			PersonID:       p.ID,
			Platform:       "instagram",
			PlatformPostID: fmt.Sprintf("p%d", i),
			PostURL:        fmt.Sprintf("https://www.instagram.com/p/p%d/", i),
			Caption:        &caption,
			Hashtags:       []string{"quietluxury", "ootd"},
			Likes:          likes,
		}); err != nil {
			t.Fatalf("UpsertPost: %v", err)
		}
	}

	rec := do(t, srv, "GET", "/api/feed/posts?sort_by=engagement", nil)
	expectStatus(t, rec, http.StatusOK)
	page := decodeBody[struct {
		Total int `json:"total"`
		Posts []struct {
			Likes      int64  `json:"likes"`
			PersonName string `json:"person_name"`
		} `json:"posts"`
	}](t, rec)
	if page.Total != 2 || len(page.Posts) != 2 || page.Posts[0].Likes != 900 || page.Posts[0].PersonName != "Sofia" {
		t.Errorf("unexpected feed page %+v", page)
	}
	expectStatus(t, do(t, srv, "GET", "/api/feed/posts?sort_by=random", nil), http.StatusUnprocessableEntity)

	rec = do(t, srv, "GET", "/api/feed/stats", nil)
	expectStatus(t, rec, http.StatusOK)
	if st := decodeBody[database.FeedStats](t, rec); st.TotalPosts != 2 || st.UniquePeopleScraped != 1 {
		t.Errorf("unexpected feed stats %+v", st)
	}

	rec = do(t, srv, "GET", "/api/feed/trends?min_mentions=2", nil)
	expectStatus(t, rec, http.StatusOK)
	rep := decodeBody[map[string]any](t, rec)
	if rep["total_posts_analyzed"] != float64(2) {
		t.Errorf("unexpected feed report %v", rep)
	}
	expectStatus(t, do(t, srv, "GET", "/api/feed/trends?days=91", nil), http.StatusUnprocessableEntity)
}

func TestInsightsEndpoints(t *testing.T) {
	srv, db := newTestServer(t)
	category := "tops"
	for _, u := range []string{"https://example.com/insight-1", "https://example.com/insight-2"} {
		tr, err := db.GetTrend(submit(t, srv, u).ID)
		if err != nil || tr == nil {
			t.Fatalf("GetTrend: %v", err)
		}
		tr.Category = &category
		if err := db.UpdateTrend(tr); err != nil {
			t.Fatalf("UpdateTrend: %v", err)
		}
	}

	rec := do(t, srv, "POST", "/api/insights/generate", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[generateReply](t, rec); got.Status != "running" {
		t.Errorf("unexpected generate reply %+v", got)
	}
	srv.insights.Wait()

	rec = do(t, srv, "GET", "/api/insights/status", nil)
	expectStatus(t, rec, http.StatusOK)
	if st := decodeBody[map[string]any](t, rec); st["status"] != "completed" {
		t.Errorf("expected completed, got %v", st)
	}

	rec = do(t, srv, "GET", "/api/insights", nil)
	expectStatus(t, rec, http.StatusOK)
	o := decodeBody[map[string]any](t, rec)
	if ci, _ := o["category_insights"].([]any); len(ci) != 1 {
		t.Errorf("expected one stored insight, got %v", o)
	}
	looks, _ := o["themed_looks"].([]any)
	for _, l := range looks {
		if ids, ok := l.(map[string]any)["featured_trend_ids"].([]any); !ok || ids == nil {
			t.Errorf("expected featured_trend_ids to be a list, got %v", l)
		}
	}

	rec = do(t, srv, "GET", "/api/insights/report", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") || !strings.Contains(rec.Body.String(), "<h1>") {
		t.Errorf("expected an html report, got %s", rec.Body.String())
	}
}

func TestRecommendationsFlow(t *testing.T) {
	srv, db := newTestServer(t)

	rec := do(t, srv, "POST", "/api/recommendations/generate", nil)
	expectStatus(t, rec, http.StatusOK)
	if res := decodeBody[map[string]any](t, rec); res["created"].(float64) == 0 {
		t.Fatalf("expected recommendations, got %v", res)
	}

	rec = do(t, srv, "GET", "/api/recommendations?limit=50", nil)
	expectStatus(t, rec, http.StatusOK)
	recs := decodeBody[[]database.Recommendation](t, rec)
	if len(recs) == 0 {
		t.Fatal("expected pending recommendations")
	}

	rec = do(t, srv, "POST", fmt.Sprintf("/api/recommendations/%d/feedback", recs[0].ID), map[string]string{"status": "accepted"})
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[respondReply](t, rec); got.Status != "accepted" || got.RecommendationID != recs[0].ID {
		t.Errorf("unexpected respond reply %+v", got)
	}
	if exists, _ := db.SourceURLExists(recs[0].URL); !exists {
		t.Error("expected accepted recommendation to become a source")
	}
	expectStatus(t, do(t, srv, "POST", fmt.Sprintf("/api/recommendations/%d/feedback", recs[0].ID), map[string]string{"status": "maybe"}),
		http.StatusUnprocessableEntity)
	expectError(t, do(t, srv, "POST", "/api/recommendations/9999/feedback", map[string]string{"status": "rejected"}),
		http.StatusNotFound, "Recommendation not found")

	tr := submit(t, srv, "https://example.com/liked")
	rec = do(t, srv, "POST", fmt.Sprintf("/api/recommendations/trends/%d/feedback", tr.ID), map[string]string{"feedback_type": "thumbs_up"})
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[trendFeedbackReply](t, rec); got.Status != "recorded" || got.Feedback != "thumbs_up" {
		t.Errorf("unexpected feedback reply %+v", got)
	}
	expectError(t, do(t, srv, "POST", "/api/recommendations/trends/9999/feedback", map[string]string{"feedback_type": "thumbs_up"}),
		http.StatusNotFound, "Trend not found")

	rec = do(t, srv, "GET", "/api/recommendations/feedback/summary", nil)
	expectStatus(t, rec, http.StatusOK)
	sum := decodeBody[map[string]any](t, rec)
	if sum["total_thumbs_up"] != float64(2) {
		t.Errorf("expected two thumbs up (trend and accepted recommendation), got %v", sum)
	}
}
