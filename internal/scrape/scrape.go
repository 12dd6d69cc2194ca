// Package scrape collects recent posts from tracked people's social accounts.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/TobiSchelling/TrendIntel/internal/database"
	"github.com/TobiSchelling/TrendIntel/internal/logging"
	"github.com/TobiSchelling/TrendIntel/internal/metrics"
)

var hashtagRe = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// PersonResult reports one person's scrape.
type PersonResult struct {
	NewPosts int      `json:"new_posts"`
	Debug    []string `json:"debug"`
}

// BatchError names a person whose scrape failed.
type BatchError struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// BatchResult reports a batch scrape.
type BatchResult struct {
	TotalPeople   int          `json:"total_people"`
	TotalNewPosts int          `json:"total_new_posts"`
	Errors        []BatchError `json:"errors"`
}

// Scraper stores posts fetched through Apify.
type Scraper struct {
	db       *database.DB
	apify    *ApifyClient
	maxPosts int
}

// New creates a scraper. maxPosts caps the posts requested per platform.
func New(db *database.DB, apify *ApifyClient, maxPosts int) *Scraper {
	if maxPosts <= 0 {
		maxPosts = 10
	}
	return &Scraper{db: db, apify: apify, maxPosts: maxPosts}
}

// ScrapePerson fetches every scrape-enabled account of person and stores
// unseen posts. Known posts only get their engagement refreshed. Per-platform
// failures are reported in Debug; the error return is for storage failures.
func (s *Scraper) ScrapePerson(ctx context.Context, person *database.Person) (*PersonResult, error) {
	res := &PersonResult{Debug: []string{}}
	if !s.apify.IsConfigured() {
		res.Debug = append(res.Debug, "NO APIFY_TOKEN configured, cannot scrape")
		return res, nil
	}

	log := logging.Component("scrape")
	for _, pp := range person.Platforms {
		label := fmt.Sprintf("%s/@%s", pp.Platform, pp.Handle)
		if !pp.ScrapeEnabled {
			res.Debug = append(res.Debug, label+": scrape_enabled=False, skipped")
			continue
		}

		var (
			posts []database.ScrapedPost
			err   error
		)
		switch pp.Platform {
		case "instagram":
			posts, err = s.instagram(ctx, pp.Handle)
		case "tiktok":
			posts, err = s.tiktok(ctx, pp.Handle)
		default:
			res.Debug = append(res.Debug, label+": unsupported platform, skipped")
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			metrics.ScrapeErrors.WithLabelValues(pp.Platform).Inc()
			res.Debug = append(res.Debug, fmt.Sprintf("%s: ERROR: %s", label, truncate(err.Error(), 300)))
			log.Error().Err(err).Str("person", person.Name).Str("platform", pp.Platform).Msg("Scrape failed")
			continue
		}

		res.Debug = append(res.Debug, fmt.Sprintf("%s: got %d posts from Apify", label, len(posts)))
		for i := range posts {
			posts[i].PersonID = person.ID
			created, err := s.db.UpsertPost(&posts[i])
			if err != nil {
				return res, err
			}
			if created {
				res.NewPosts++
				metrics.ScrapedPosts.WithLabelValues(pp.Platform).Inc()
			}
		}
		if err := s.db.MarkPlatformChecked(pp.ID); err != nil {
			return res, err
		}
	}

	if err := s.db.MarkPersonScraped(person.ID); err != nil {
		return res, err
	}
	log.Info().Str("person", person.Name).Int("new_posts", res.NewPosts).Msg("Scraped person")
	return res, nil
}

// ScrapeBatch scrapes the people selected by f in priority order.
func (s *Scraper) ScrapeBatch(ctx context.Context, f database.ScrapeFilter) (*BatchResult, error) {
	people, err := s.db.PeopleForScrape(f)
	if err != nil {
		return nil, err
	}

	res := &BatchResult{TotalPeople: len(people), Errors: []BatchError{}}
	for i := range people {
		r, err := s.ScrapePerson(ctx, &people[i])
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return res, err
		}
		if r != nil {
			res.TotalNewPosts += r.NewPosts
		}
		if err != nil {
			res.Errors = append(res.Errors, BatchError{Name: people[i].Name, Error: truncate(err.Error(), 200)})
		}
	}

	logging.Info().
		Int("people", res.TotalPeople).
		Int("new_posts", res.TotalNewPosts).
		Int("errors", len(res.Errors)).
		Msg("Batch scrape complete")
	return res, nil
}

func (s *Scraper) instagram(ctx context.Context, handle string) ([]database.ScrapedPost, error) {
	handle = strings.TrimPrefix(handle, "@")
	items, err := s.apify.RunActor(ctx, Actors["instagram"], map[string]any{
		"username":     []string{handle},
		"resultsLimit": s.maxPosts,
		"resultsType":  "posts",
	})
	if err != nil {
		return nil, err
	}

	posts := make([]database.ScrapedPost, 0, len(items))
	for _, it := range items {
		caption := it.str("caption")
		id := it.str("id")
		if id == "" {
			id = it.str("shortCode")
		}
		postURL := it.str("url")
		if postURL == "" {
			postURL = fmt.Sprintf("https://www.instagram.com/p/%s/", it.str("shortCode"))
		}
		images := it.strs("images")
		if len(images) == 0 {
			if d := it.str("displayUrl"); d != "" {
				images = []string{d}
			}
		}
		posts = append(posts, database.ScrapedPost{
			Platform:       "instagram",
			PlatformPostID: id,
			PostURL:        postURL,
			ImageURLs:      images,
			Caption:        &caption,
			Hashtags:       Hashtags(caption),
			Likes:          it.num("likesCount"),
			Comments:       it.num("commentsCount"),
			Views:          it.num("videoViewCount"),
			PostedAt:       parseTime(it.str("timestamp")),
		})
	}
	return posts, nil
}

func (s *Scraper) tiktok(ctx context.Context, handle string) ([]database.ScrapedPost, error) {
	handle = strings.TrimPrefix(handle, "@")
	items, err := s.apify.RunActor(ctx, Actors["tiktok"], map[string]any{
		"profiles":             []string{handle},
		"resultsPerPage":       s.maxPosts,
		"shouldDownloadVideos": false,
	})
	if err != nil {
		return nil, err
	}

	posts := make([]database.ScrapedPost, 0, len(items))
	for _, it := range items {
		caption := it.str("text")
		id := it.str("id")
		postURL := it.str("webVideoUrl")
		if postURL == "" {
			postURL = fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", handle, id)
		}
		var images []string
		if cover := it.obj("videoMeta").str("coverUrl"); cover != "" {
			images = []string{cover}
		}
		posts = append(posts, database.ScrapedPost{
			Platform:       "tiktok",
			PlatformPostID: id,
			PostURL:        postURL,
			ImageURLs:      images,
			Caption:        &caption,
			Hashtags:       Hashtags(caption),
			Likes:          it.num("diggCount"),
			Comments:       it.num("commentCount"),
			Shares:         it.num("shareCount"),
			Views:          it.num("playCount"),
			PostedAt:       parseTime(it.str("createTimeISO")),
		})
	}
	return posts, nil
}

// Hashtags extracts #tags from text, without the leading #.
func Hashtags(text string) []string {
	out := []string{}
	for _, m := range hashtagRe.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

// ProfileURL builds the public profile URL for a handle, or "" for an
// unknown platform.
func ProfileURL(platform, handle string) string {
	handle = strings.TrimPrefix(handle, "@")
	switch platform {
	case "instagram":
		return "https://www.instagram.com/" + handle + "/"
	case "tiktok":
		return "https://www.tiktok.com/@" + handle
	case "twitter":
		return "https://x.com/" + handle
	case "pinterest":
		return "https://www.pinterest.com/" + handle + "/"
	case "youtube":
		return "https://www.youtube.com/@" + handle
	}
	return ""
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
