package feed

import (
	"time"

	"github.com/TobiSchelling/TrendIntel/internal/database"
)

// Post is one entry of the post feed.
type Post struct {
	ID             int64      `json:"id"`
	PersonID       int64      `json:"person_id"`
	PersonName     string     `json:"person_name"`
	PersonType     string     `json:"person_type"`
	PersonTier     *string    `json:"person_tier"`
	Platform       string     `json:"platform"`
	PostURL        string     `json:"post_url"`
	ImageURLs      []string   `json:"image_urls"`
	Caption        string     `json:"caption"`
	Hashtags       []string   `json:"hashtags"`
	Likes          int64      `json:"likes"`
	Comments       int64      `json:"comments"`
	Shares         int64      `json:"shares"`
	Views          int64      `json:"views"`
	EngagementRate float64    `json:"engagement_rate"`
	PostedAt       *time.Time `json:"posted_at"`
	ScrapedAt      time.Time  `json:"scraped_at"`
	Analyzed       bool       `json:"analyzed"`
	StyleTags      []string   `json:"style_tags"`
	Category       *string    `json:"category"`
	AINarrative    *string    `json:"ai_narrative"`
}

// Page is one page of the post feed.
type Page struct {
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Posts  []Post `json:"posts"`
}

// Posts returns one page of recently scraped posts.
func (e *Engine) Posts(f database.PostFilter) (*Page, error) {
	posts, total, err := e.db.FeedPosts(f)
	if err != nil {
		return nil, err
	}
	page := &Page{Total: total, Limit: f.Limit, Offset: f.Offset, Posts: make([]Post, 0, len(posts))}
	for _, p := range posts {
		caption := ""
		if p.Caption != nil {
			caption = *p.Caption
		}
		page.Posts = append(page.Posts, Post{
			ID:             p.ID,
			PersonID:       p.PersonID,
			PersonName:     p.PersonName,
			PersonType:     p.PersonType,
			PersonTier:     p.PersonTier,
			Platform:       p.Platform,
			PostURL:        p.PostURL,
			ImageURLs:      nonNil(p.ImageURLs),
			Caption:        caption,
			Hashtags:       nonNil(p.Hashtags),
			Likes:          p.Likes,
			Comments:       p.Comments,
			Shares:         p.Shares,
			Views:          p.Views,
			EngagementRate: p.EngagementRate,
			PostedAt:       p.PostedAt,
			ScrapedAt:      p.ScrapedAt,
			Analyzed:       p.Analyzed,
			StyleTags:      nonNil(p.StyleTags),
			Category:       p.Category,
			AINarrative:    p.AINarrative,
		})
	}
	return page, nil
}

// Stats summarizes posts scraped in the last days.
func (e *Engine) Stats(days int) (*database.FeedStats, error) {
	return e.db.GetFeedStats(days)
}
