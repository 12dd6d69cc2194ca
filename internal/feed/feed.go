// Package feed analyzes scraped social posts for fashion trends and serves
// the post feed.
package feed

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/TobiSchelling/TrendIntel/internal/database"
	"github.com/TobiSchelling/TrendIntel/internal/logging"
	"github.com/TobiSchelling/TrendIntel/internal/tally"
)

// Engine reads scraped posts and derives trend signals.
type Engine struct {
	db  *database.DB
	now func() time.Time
}

// New creates an Engine.
func New(db *database.DB) *Engine {
	return &Engine{db: db, now: time.Now}
}

type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// HashtagTrend is a hashtag with its engagement totals.
type HashtagTrend struct {
	Hashtag          string  `json:"hashtag"`
	Count            int     `json:"count"`
	TotalLikes       int64   `json:"total_likes"`
	TotalComments    int64   `json:"total_comments"`
	UniquePeople     int     `json:"unique_people"`
	AvgEngagement    float64 `json:"avg_engagement"`
	IsFashionRelated bool    `json:"is_fashion_related"`
}

// CrossPersonTrend is a style or category used by several people.
type CrossPersonTrend struct {
	Trend       string   `json:"trend"`
	Type        string   `json:"type"`
	PeopleCount int      `json:"people_count"`
	People      []string `json:"people"`
}

type TopPost struct {
	ID         int64      `json:"id"`
	PersonName string     `json:"person_name"`
	PersonType string     `json:"person_type"`
	Platform   string     `json:"platform"`
	PostURL    string     `json:"post_url"`
	ImageURLs  []string   `json:"image_urls"`
	Caption    string     `json:"caption"`
	Hashtags   []string   `json:"hashtags"`
	Likes      int64      `json:"likes"`
	Comments   int64      `json:"comments"`
	Shares     int64      `json:"shares"`
	Views      int64      `json:"views"`
	PostedAt   *time.Time `json:"posted_at"`
	ScrapedAt  time.Time  `json:"scraped_at"`
}

type Insight struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Report is the result of Analyze.
type Report struct {
	PeriodDays         int                `json:"period_days"`
	TotalPostsAnalyzed int                `json:"total_posts_analyzed"`
	TrendingHashtags   []HashtagTrend     `json:"trending_hashtags"`
	TrendingStyles     []TermCount        `json:"trending_styles"`
	TrendingCategories []TermCount        `json:"trending_categories"`
	TrendingColors     []TermCount        `json:"trending_colors"`
	TrendingPatterns   []TermCount        `json:"trending_patterns"`
	TrendingFabrics    []TermCount        `json:"trending_fabrics"`
	TopPosts           []TopPost          `json:"top_posts"`
	CrossPersonTrends  []CrossPersonTrend `json:"cross_person_trends"`
	Insights           []Insight          `json:"insights"`
}

func emptyReport(days int) *Report {
	return &Report{
		PeriodDays:         days,
		TrendingHashtags:   []HashtagTrend{},
		TrendingStyles:     []TermCount{},
		TrendingCategories: []TermCount{},
		TrendingColors:     []TermCount{},
		TrendingPatterns:   []TermCount{},
		TrendingFabrics:    []TermCount{},
		TopPosts:           []TopPost{},
		CrossPersonTrends:  []CrossPersonTrend{},
		Insights:           []Insight{},
	}
}

type hashtagStats struct {
	likes, comments int64
	posts           int
	people          map[int64]bool
	platforms       *tally.Counter
}

// Analyze scans posts scraped in the last days. Terms must appear at least
// minMentions times to be reported. Trending hashtags are also persisted.
func (e *Engine) Analyze(days, minMentions int) (*Report, error) {
	cutoff := e.now().UTC().AddDate(0, 0, -days)
	posts, err := e.db.PostsScrapedSince(cutoff)
	if err != nil {
		return nil, fmt.Errorf("loading posts: %w", err)
	}
	if len(posts) == 0 {
		return emptyReport(days), nil
	}

	hashtags := tally.New()
	tagStats := map[string]*hashtagStats{}
	styles, categories := tally.New(), tally.New()
	colors, patterns, fabrics := tally.New(), tally.New(), tally.New()

	// trend key -> people, in first-seen order
	var trendKeys []string
	trendPeople := map[string][]int64{}
	addPersonTrend := func(key string, personID int64) {
		people, seen := trendPeople[key]
		if !seen {
			trendKeys = append(trendKeys, key)
		}
		for _, id := range people {
			if id == personID {
				return
			}
		}
		trendPeople[key] = append(people, personID)
	}

	for _, p := range posts {
		for _, tag := range p.Hashtags {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if NoiseHashtags[tag] || len(tag) < 3 {
				continue
			}
			hashtags.Add(tag)
			st := tagStats[tag]
			if st == nil {
				st = &hashtagStats{people: map[int64]bool{}, platforms: tally.New()}
				tagStats[tag] = st
			}
			st.likes += p.Likes
			st.comments += p.Comments
			st.posts++
			st.people[p.PersonID] = true
			st.platforms.Add(p.Platform)
		}

		text := postText(p)
		for _, term := range StyleTerms {
			if strings.Contains(text, term) {
				styles.Add(term)
				addPersonTrend("style:"+term, p.PersonID)
			}
		}
		for _, m := range categoryMatchers {
			if m.re.MatchString(text) {
				categories.Add(m.term)
				addPersonTrend("cat:"+m.term, p.PersonID)
			}
		}
		countMatches(colors, colorMatchers, text)
		countMatches(patterns, patternMatchers, text)
		countMatches(fabrics, fabricMatchers, text)
	}

	r := emptyReport(days)
	r.TotalPostsAnalyzed = len(posts)

	perPlatform := map[string][]database.HashtagCount{}
	for _, ent := range hashtags.MostCommon(50) {
		if ent.Count < minMentions {
			continue
		}
		st := tagStats[ent.Key]
		avg := 0.0
		if st.posts > 0 {
			avg = math.Round(float64(st.likes+st.comments)/float64(st.posts)*10) / 10
		}
		r.TrendingHashtags = append(r.TrendingHashtags, HashtagTrend{
			Hashtag:          ent.Key,
			Count:            ent.Count,
			TotalLikes:       st.likes,
			TotalComments:    st.comments,
			UniquePeople:     len(st.people),
			AvgEngagement:    avg,
			IsFashionRelated: IsFashionHashtag(ent.Key),
		})
		for _, pc := range st.platforms.MostCommon(0) {
			perPlatform[pc.Key] = append(perPlatform[pc.Key], database.HashtagCount{Hashtag: ent.Key, Count: pc.Count})
		}
	}
	if len(r.TrendingHashtags) > 30 {
		r.TrendingHashtags = r.TrendingHashtags[:30]
	}
	for platform, counts := range perPlatform {
		if err := e.db.RecordHashtags(platform, counts); err != nil {
			logging.Warn().Err(err).Str("platform", platform).Msg("Failed to persist trending hashtags")
		}
	}

	r.TrendingStyles = terms(styles, 20, minMentions)
	r.TrendingCategories = terms(categories, 20, minMentions)
	r.TrendingColors = terms(colors, 15, minMentions)
	r.TrendingPatterns = terms(patterns, 10, minMentions)
	r.TrendingFabrics = terms(fabrics, 10, minMentions)

	cross, err := e.crossPerson(trendKeys, trendPeople, minMentions)
	if err != nil {
		return nil, err
	}
	r.CrossPersonTrends = cross
	if len(r.CrossPersonTrends) > 20 {
		r.CrossPersonTrends = r.CrossPersonTrends[:20]
	}

	r.TopPosts = topPosts(posts, 20)
	r.Insights = buildInsights(styles, categories, colors, cross, len(posts), days)
	return r, nil
}

func postText(p database.ScrapedPost) string {
	text := ""
	if p.Caption != nil {
		text = strings.ToLower(*p.Caption)
	}
	if len(p.Hashtags) > 0 {
		lowered := make([]string, len(p.Hashtags))
		for i, h := range p.Hashtags {
			lowered[i] = strings.ToLower(h)
		}
		text += " " + strings.Join(lowered, " ")
	}
	return text
}

func countMatches(c *tally.Counter, matchers []matcher, text string) {
	for _, m := range matchers {
		if m.re.MatchString(text) {
			c.Add(m.term)
		}
	}
}

func terms(c *tally.Counter, n, minMentions int) []TermCount {
	out := []TermCount{}
	for _, e := range c.MostCommon(n) {
		if e.Count >= minMentions {
			out = append(out, TermCount{Term: e.Key, Count: e.Count})
		}
	}
	return out
}

func (e *Engine) crossPerson(keys []string, people map[string][]int64, minMentions int) ([]CrossPersonTrend, error) {
	out := []CrossPersonTrend{}
	for _, key := range keys {
		ids := people[key]
		if len(ids) < minMentions {
			continue
		}
		names, err := e.db.PersonNames(ids)
		if err != nil {
			return nil, fmt.Errorf("loading person names: %w", err)
		}
		sorted := append([]int64(nil), ids...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		list := []string{}
		for _, id := range sorted {
			if name, ok := names[id]; ok && len(list) < 10 {
				list = append(list, name)
			}
		}

		kind, term, _ := strings.Cut(key, ":")
		typ := "category"
		if kind == "style" {
			typ = "style"
		}
		out = append(out, CrossPersonTrend{Trend: term, Type: typ, PeopleCount: len(ids), People: list})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PeopleCount > out[j].PeopleCount })
	return out, nil
}

func topPosts(posts []database.ScrapedPost, n int) []TopPost {
	ranked := append([]database.ScrapedPost(nil), posts...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Likes+3*ranked[i].Comments > ranked[j].Likes+3*ranked[j].Comments
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	out := make([]TopPost, 0, len(ranked))
	for _, p := range ranked {
		caption := ""
		if p.Caption != nil {
			caption = truncateRunes(*p.Caption, 300)
		}
		out = append(out, TopPost{
			ID:         p.ID,
			PersonName: p.PersonName,
			PersonType: p.PersonType,
			Platform:   p.Platform,
			PostURL:    p.PostURL,
			ImageURLs:  nonNil(p.ImageURLs),
			Caption:    caption,
			Hashtags:   nonNil(p.Hashtags),
			Likes:      p.Likes,
			Comments:   p.Comments,
			Shares:     p.Shares,
			Views:      p.Views,
			PostedAt:   p.PostedAt,
			ScrapedAt:  p.ScrapedAt,
		})
	}
	return out
}

func buildInsights(styles, categories, colors *tally.Counter, cross []CrossPersonTrend, total, days int) []Insight {
	if total == 0 {
		return []Insight{{Type: "info", Title: "No Data Yet", Text: "Scrape some people to start seeing trend insights."}}
	}

	var out []Insight
	if top := styles.MostCommon(3); len(top) > 0 {
		parts := make([]string, len(top))
		for i, e := range top {
			parts[i] = fmt.Sprintf("%s (%d mentions)", e.Key, e.Count)
		}
		out = append(out, Insight{
			Type:  "style",
			Title: "Trending Styles",
			Text:  fmt.Sprintf("Top aesthetics in the last %d days: %s.", days, strings.Join(parts, ", ")),
		})
	}
	if top := categories.MostCommon(3); len(top) > 0 {
		parts := make([]string, len(top))
		for i, e := range top {
			parts[i] = fmt.Sprintf("%s (%dx)", e.Key, e.Count)
		}
		out = append(out, Insight{
			Type:  "category",
			Title: "Hot Categories",
			Text:  fmt.Sprintf("Most-mentioned product categories: %s.", strings.Join(parts, ", ")),
		})
	}
	if top := colors.Keys(3); len(top) > 0 {
		out = append(out, Insight{
			Type:  "color",
			Title: "Color Direction",
			Text:  fmt.Sprintf("Colors trending across posts: %s.", strings.Join(top, ", ")),
		})
	}
	for _, c := range cross {
		if c.PeopleCount >= 3 {
			names := c.People
			if len(names) > 4 {
				names = names[:4]
			}
			out = append(out, Insight{
				Type:  "convergence",
				Title: "Cross-Person Convergence",
				Text:  fmt.Sprintf("%q is appearing across %d different people (%s).", c.Trend, c.PeopleCount, strings.Join(names, ", ")),
			})
			break
		}
	}
	out = append(out, Insight{
		Type:  "volume",
		Title: "Scrape Volume",
		Text:  fmt.Sprintf("Analyzed %d posts over the last %d days.", total, days),
	})
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func nonNil(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}
