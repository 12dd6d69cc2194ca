package feed

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TobiSchelling/TrendIntel/internal/database"
	"github.com/TobiSchelling/TrendIntel/internal/tally"
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

func ptr[T any](v T) *T { return &v }

func addPerson(t *testing.T, db *database.DB, name, typ string) int64 {
	t.Helper()
	p := &database.Person{Name: name, Type: typ, Tier: ptr("mega")}
	if err := db.CreatePerson(p); err != nil {
		t.Fatalf("CreatePerson: %v", err)
	}
	return p.ID
}

func addPost(t *testing.T, db *database.DB, personID int64, id, platform, caption string, likes, comments int64, tags ...string) {
	t.Helper()
	p := &database.ScrapedPost{
		PersonID:       personID,
		Platform:       platform,
		PlatformPostID: id,
		PostURL:        "https://www." + platform + ".com/p/" + id,
		Caption:        ptr(caption),
		Hashtags:       tags,
		Likes:          likes,
		Comments:       comments,
	}
	if _, err := db.UpsertPost(p); err != nil {
		t.Fatalf("UpsertPost: %v", err)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	e := New(openTestDB(t))
	r, err := e.Analyze(7, 2)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if r.TotalPostsAnalyzed != 0 || r.TrendingHashtags == nil || r.Insights == nil || len(r.Insights) != 0 {
		t.Errorf("unexpected empty report %+v", r)
	}
}

func TestAnalyzeDetectsTrends(t *testing.T) {
	db := openTestDB(t)
	ava := addPerson(t, db, "Ava", "celebrity")
	bea := addPerson(t, db, "Bea", "influencer")
	cleo := addPerson(t, db, "Cleo", "influencer")

	addPost(t, db, ava, "1", "instagram", "Loving this black midi dress in silk #cottagecore", 1000, 10, "cottagecore", "OOTD", "fyp")
	addPost(t, db, bea, "2", "instagram", "Cottagecore picnic in a floral dress", 200, 50, "cottagecore", "ootd")
	addPost(t, db, cleo, "3", "tiktok", "my cottagecore dress haul, black and cream", 50, 5, "cottagecore", "love")
	addPost(t, db, cleo, "4", "tiktok", "new sneakers", 10, 1, "ab")

	e := New(db)
	r, err := e.Analyze(7, 2)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if r.TotalPostsAnalyzed != 4 {
		t.Errorf("expected 4 posts, got %d", r.TotalPostsAnalyzed)
	}

	if len(r.TrendingHashtags) != 2 || r.TrendingHashtags[0].Hashtag != "cottagecore" {
		t.Fatalf("unexpected hashtags %+v", r.TrendingHashtags)
	}
	top := r.TrendingHashtags[0]
	if top.Count != 3 || top.UniquePeople != 3 || top.TotalLikes != 1250 || !top.IsFashionRelated {
		t.Errorf("unexpected cottagecore stats %+v", top)
	}
	if top.AvgEngagement != 438.3 {
		t.Errorf("expected avg engagement 438.3, got %v", top.AvgEngagement)
	}
	if r.TrendingHashtags[1].Hashtag != "ootd" || !r.TrendingHashtags[1].IsFashionRelated {
		t.Errorf("expected ootd second, got %+v", r.TrendingHashtags[1])
	}

	if len(r.TrendingStyles) == 0 || r.TrendingStyles[0].Term != "cottagecore" || r.TrendingStyles[0].Count != 3 {
		t.Errorf("unexpected styles %+v", r.TrendingStyles)
	}
	if len(r.TrendingCategories) == 0 || r.TrendingCategories[0].Term != "dress" || r.TrendingCategories[0].Count != 3 {
		t.Errorf("unexpected categories %+v", r.TrendingCategories)
	}
	if len(r.TrendingColors) != 1 || r.TrendingColors[0].Term != "black" {
		t.Errorf("unexpected colors %+v", r.TrendingColors)
	}

	if len(r.CrossPersonTrends) == 0 || r.CrossPersonTrends[0].PeopleCount != 3 {
		t.Fatalf("unexpected cross-person trends %+v", r.CrossPersonTrends)
	}
	if got := strings.Join(r.CrossPersonTrends[0].People, ","); got != "Ava,Bea,Cleo" {
		t.Errorf("unexpected people %q", got)
	}

	if r.TopPosts[0].PersonName != "Ava" || r.TopPosts[0].Likes != 1000 {
		t.Errorf("unexpected top post %+v", r.TopPosts[0])
	}

	var types []string
	for _, in := range r.Insights {
		types = append(types, in.Type)
	}
	if got := strings.Join(types, ","); got != "style,category,color,convergence,volume" {
		t.Errorf("unexpected insight types %q", got)
	}

	stored, err := db.TopHashtags(10)
	if err != nil {
		t.Fatalf("TopHashtags: %v", err)
	}
	if len(stored) == 0 {
		t.Error("expected trending hashtags to be persisted")
	}
}

func TestBuildInsightsTexts(t *testing.T) {
	styles := tally.New()
	styles.AddN("y2k", 4)
	cats := tally.New()
	cats.AddN("jeans", 2)
	colors := tally.New()
	colors.AddAll([]string{"pink", "black"})
	cross := []CrossPersonTrend{{Trend: "y2k", PeopleCount: 5, People: []string{"A", "B", "C", "D", "E"}}}

	got := buildInsights(styles, cats, colors, cross, 12, 7)
	want := []string{
		"Top aesthetics in the last 7 days: y2k (4 mentions).",
		"Most-mentioned product categories: jeans (2x).",
		"Colors trending across posts: pink, black.",
		`"y2k" is appearing across 5 different people (A, B, C, D).`,
		"Analyzed 12 posts over the last 7 days.",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d insights, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Text != want[i] {
			t.Errorf("insight %d = %q, want %q", i, got[i].Text, want[i])
		}
	}

	none := buildInsights(tally.New(), tally.New(), tally.New(), nil, 0, 7)
	if len(none) != 1 || none[0].Title != "No Data Yet" {
		t.Errorf("unexpected empty insights %+v", none)
	}
}

func TestPostsAndStats(t *testing.T) {
	db := openTestDB(t)
	ava := addPerson(t, db, "Ava", "celebrity")
	for i := 0; i < 3; i++ {
		addPost(t, db, ava, fmt.Sprint(i), "instagram", "post", int64(i*100), 0)
	}

	e := New(db)
	page, err := e.Posts(database.PostFilter{Days: 30, SortBy: "engagement", Limit: 2})
	if err != nil {
		t.Fatalf("Posts: %v", err)
	}
	if page.Total != 3 || len(page.Posts) != 2 || page.Posts[0].Likes != 200 {
		t.Errorf("unexpected page %+v", page)
	}
	if page.Posts[0].PersonTier == nil || *page.Posts[0].PersonTier != "mega" {
		t.Errorf("expected person tier, got %v", page.Posts[0].PersonTier)
	}
	if page.Posts[0].Hashtags == nil || page.Posts[0].StyleTags == nil {
		t.Error("expected non-nil lists")
	}

	stats, err := e.Stats(7)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalPosts != 3 || stats.ByPlatform["instagram"] != 3 || stats.UniquePeopleScraped != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestIsFashionHashtag(t *testing.T) {
	for _, tag := range []string{"y2k", "streetstyle", "ootd", "silk"} {
		if !IsFashionHashtag(tag) {
			t.Errorf("expected %q to be fashion related", tag)
		}
	}
	if IsFashionHashtag("puppy") {
		t.Error("puppy should not be fashion related")
	}
}
