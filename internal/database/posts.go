package database

import (
	"database/sql"
	"fmt"
	"time"
)

const postColumns = `p.id, p.person_id, p.platform, p.platform_post_id, p.post_url, p.image_urls, p.caption,
	p.hashtags, p.likes, p.comments, p.shares, p.views, p.engagement_rate, p.analyzed, p.category,
	p.colors, p.patterns, p.style_tags, p.ai_narrative, p.trend_item_id, p.posted_at, p.scraped_at,
	COALESCE(pe.name, 'Unknown'), COALESCE(pe.type, 'unknown'), pe.tier`

const postFrom = " FROM scraped_posts p LEFT JOIN people pe ON pe.id = p.person_id"

// PostFilter selects scraped posts for the feed.
type PostFilter struct {
	Platform   string
	PersonID   int64
	PersonType string
	Days       int
	SortBy     string // engagement, recent, views
	Limit      int
	Offset     int
}

// FeedStats summarizes recently scraped posts.
type FeedStats struct {
	PeriodDays          int            `json:"period_days"`
	TotalPosts          int            `json:"total_posts"`
	ByPlatform          map[string]int `json:"by_platform"`
	TotalLikes          int64          `json:"total_likes"`
	TotalComments       int64          `json:"total_comments"`
	TotalViews          int64          `json:"total_views"`
	UniquePeopleScraped int            `json:"unique_people_scraped"`
}

// UpsertPost stores a scraped post. If (platform, platform_post_id) is already
// stored only its engagement counts are refreshed and created is false.
func (db *DB) UpsertPost(p *ScrapedPost) (created bool, err error) {
	var id int64
	err = db.queryRow(
		"SELECT id FROM scraped_posts WHERE platform = ? AND platform_post_id = ?",
		p.Platform, p.PlatformPostID,
	).Scan(&id)
	switch {
	case err == nil:
		p.ID = id
		_, err = db.exec(
			"UPDATE scraped_posts SET likes = ?, comments = ?, shares = ?, views = ? WHERE id = ?",
			p.Likes, p.Comments, p.Shares, p.Views, id,
		)
		return false, err
	case err != sql.ErrNoRows:
		return false, err
	}

	p.ScrapedAt = now()
	id, err = db.insert(
		`INSERT INTO scraped_posts (person_id, platform, platform_post_id, post_url, image_urls, caption,
		hashtags, likes, comments, shares, views, engagement_rate, analyzed, category, colors, patterns,
		style_tags, ai_narrative, trend_item_id, posted_at, scraped_at)
		VALUES (`+placeholders(21)+`)`,
		p.PersonID, p.Platform, p.PlatformPostID, p.PostURL, p.ImageURLs, p.Caption,
		p.Hashtags, p.Likes, p.Comments, p.Shares, p.Views, p.EngagementRate, p.Analyzed, p.Category,
		p.Colors, p.Patterns, p.StyleTags, p.AINarrative, p.TrendItemID, p.PostedAt, p.ScrapedAt,
	)
	if err != nil {
		return false, fmt.Errorf("inserting post %s/%s: %w", p.Platform, p.PlatformPostID, err)
	}
	p.ID = id
	return true, nil
}

// PostsForPerson returns a person's posts, most recently scraped first.
func (db *DB) PostsForPerson(personID int64, limit int, analyzedOnly bool) ([]ScrapedPost, error) {
	query := "SELECT " + postColumns + postFrom + " WHERE p.person_id = ?"
	args := []any{personID}
	if analyzedOnly {
		query += " AND p.analyzed = ?"
		args = append(args, true)
	}
	query += " ORDER BY p.scraped_at DESC, p.id DESC LIMIT ?"
	args = append(args, limit)
	return db.queryPosts(query, args...)
}

// PostsScrapedSince returns all posts scraped at or after t, newest first.
func (db *DB) PostsScrapedSince(t time.Time) ([]ScrapedPost, error) {
	return db.queryPosts(
		"SELECT "+postColumns+postFrom+" WHERE p.scraped_at >= ? ORDER BY p.scraped_at DESC, p.id DESC",
		t.UTC(),
	)
}

// FeedPosts returns one page of the post feed and the total match count.
func (db *DB) FeedPosts(f PostFilter) ([]ScrapedPost, int, error) {
	where := " WHERE p.scraped_at >= ?"
	args := []any{since(f.Days)}
	if f.Platform != "" {
		where += " AND p.platform = ?"
		args = append(args, f.Platform)
	}
	if f.PersonID != 0 {
		where += " AND p.person_id = ?"
		args = append(args, f.PersonID)
	}
	if f.PersonType != "" {
		where += " AND pe.type = ?"
		args = append(args, f.PersonType)
	}

	total, err := db.count("SELECT COUNT(*)"+postFrom+where, args...)
	if err != nil {
		return nil, 0, err
	}

	order := " ORDER BY (p.likes + p.comments * 3) DESC, p.id DESC"
	switch f.SortBy {
	case "recent":
		order = " ORDER BY p.scraped_at DESC, p.id DESC"
	case "views":
		order = " ORDER BY p.views DESC, p.id DESC"
	}
	args = append(args, f.Limit, f.Offset)
	posts, err := db.queryPosts("SELECT "+postColumns+postFrom+where+order+" LIMIT ? OFFSET ?", args...)
	return posts, total, err
}

// GetFeedStats summarizes posts scraped in the last days.
func (db *DB) GetFeedStats(days int) (*FeedStats, error) {
	cutoff := since(days)
	s := &FeedStats{PeriodDays: days}

	err := db.queryRow(
		`SELECT COUNT(*),
		CAST(COALESCE(SUM(likes), 0) AS BIGINT),
		CAST(COALESCE(SUM(comments), 0) AS BIGINT),
		CAST(COALESCE(SUM(views), 0) AS BIGINT),
		COUNT(DISTINCT person_id)
		FROM scraped_posts WHERE scraped_at >= ?`, cutoff,
	).Scan(&s.TotalPosts, &s.TotalLikes, &s.TotalComments, &s.TotalViews, &s.UniquePeopleScraped)
	if err != nil {
		return nil, fmt.Errorf("feed totals: %w", err)
	}

	s.ByPlatform, err = db.groupCount(
		"SELECT platform, COUNT(*) FROM scraped_posts WHERE scraped_at >= ? GROUP BY platform", cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("feed platforms: %w", err)
	}
	return s, nil
}

func (db *DB) queryPosts(query string, args ...any) ([]ScrapedPost, error) {
	rows, err := db.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []ScrapedPost
	for rows.Next() {
		var p ScrapedPost
		if err := rows.Scan(&p.ID, &p.PersonID, &p.Platform, &p.PlatformPostID, &p.PostURL, &p.ImageURLs,
			&p.Caption, &p.Hashtags, &p.Likes, &p.Comments, &p.Shares, &p.Views, &p.EngagementRate,
			&p.Analyzed, &p.Category, &p.Colors, &p.Patterns, &p.StyleTags, &p.AINarrative,
			&p.TrendItemID, &p.PostedAt, &p.ScrapedAt, &p.PersonName, &p.PersonType, &p.PersonTier); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
