package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const trendColumns = `id, url, source_platform, image_url, submitted_by, submitted_at,
	category, subcategory, colors, patterns, style_tags, price_point,
	likes, comments, shares, views, engagement_rate,
	trend_score, velocity_score, cross_platform_score,
	scraped_at, last_updated, status, ai_analysis_text, demographic, fabrications, source_id`

// TrendFilter selects trends for listing. Zero values mean no filter.
type TrendFilter struct {
	Status      string
	Category    string
	Platform    string
	Demographic string
	Since       *time.Time
	SortBy      string
	Limit       int
	Offset      int
}

// InsertTrend stores a new trend and sets its ID. Returns ErrDuplicate if
// the URL is already tracked.
func (db *DB) InsertTrend(t *TrendItem) (int64, error) {
	ts := now()
	if t.SubmittedAt.IsZero() {
		t.SubmittedAt = ts
	}
	t.LastUpdated = ts
	if t.Status == "" {
		t.Status = StatusActive
	}

	id, err := db.insert(
		`INSERT INTO trend_items (url, source_platform, image_url, submitted_by, submitted_at,
		category, subcategory, colors, patterns, style_tags, price_point,
		likes, comments, shares, views, engagement_rate,
		trend_score, velocity_score, cross_platform_score,
		scraped_at, last_updated, status, ai_analysis_text, demographic, fabrications, source_id)
		VALUES (`+placeholders(26)+`)`,
		t.URL, t.SourcePlatform, t.ImageURL, t.SubmittedBy, t.SubmittedAt,
		t.Category, t.Subcategory, t.Colors, t.Patterns, t.StyleTags, t.PricePoint,
		t.Likes, t.Comments, t.Shares, t.Views, t.EngagementRate,
		t.TrendScore, t.VelocityScore, t.CrossPlatformScore,
		t.ScrapedAt, t.LastUpdated, t.Status, t.AIAnalysisText, t.Demographic, t.Fabrications, t.SourceID,
	)
	if err != nil {
		return 0, err
	}
	t.ID = id
	return id, nil
}

// UpdateTrend writes the mutable fields of t back and bumps last_updated.
func (db *DB) UpdateTrend(t *TrendItem) error {
	t.LastUpdated = now()
	_, err := db.exec(
		`UPDATE trend_items SET image_url = ?, category = ?, subcategory = ?, colors = ?,
		patterns = ?, style_tags = ?, price_point = ?, likes = ?, comments = ?, shares = ?,
		views = ?, engagement_rate = ?, trend_score = ?, velocity_score = ?,
		cross_platform_score = ?, scraped_at = ?, last_updated = ?, status = ?,
		ai_analysis_text = ?, demographic = ?, fabrications = ?
		WHERE id = ?`,
		t.ImageURL, t.Category, t.Subcategory, t.Colors,
		t.Patterns, t.StyleTags, t.PricePoint, t.Likes, t.Comments, t.Shares,
		t.Views, t.EngagementRate, t.TrendScore, t.VelocityScore,
		t.CrossPlatformScore, t.ScrapedAt, t.LastUpdated, t.Status,
		t.AIAnalysisText, t.Demographic, t.Fabrications,
		t.ID,
	)
	return err
}

// GetTrend returns a trend by ID, or nil if it does not exist.
func (db *DB) GetTrend(id int64) (*TrendItem, error) {
	t, err := scanTrend(db.queryRow("SELECT "+trendColumns+" FROM trend_items WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// GetTrendByURL returns the trend tracking url, or nil.
func (db *DB) GetTrendByURL(url string) (*TrendItem, error) {
	t, err := scanTrend(db.queryRow("SELECT "+trendColumns+" FROM trend_items WHERE url = ?", url))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// TrendURLExists reports whether url is already tracked.
func (db *DB) TrendURLExists(url string) (bool, error) {
	n, err := db.count("SELECT COUNT(*) FROM trend_items WHERE url = ?", url)
	return n > 0, err
}

// GetTrendsByIDs returns the trends with the given IDs in ID order. Unknown IDs
// are ignored.
func (db *DB) GetTrendsByIDs(ids []int64) ([]TrendItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.query(
		"SELECT "+trendColumns+" FROM trend_items WHERE id IN ("+placeholders(len(ids))+") ORDER BY id",
		int64Args(ids)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrends(rows)
}

// MissingTrendIDs returns the IDs from ids that have no trend row.
func (db *DB) MissingTrendIDs(ids []int64) ([]int64, error) {
	found, err := db.GetTrendsByIDs(ids)
	if err != nil {
		return nil, err
	}
	have := make(map[int64]bool, len(found))
	for _, t := range found {
		have[t.ID] = true
	}
	var missing []int64
	for _, id := range ids {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (f TrendFilter) where() (string, []any) {
	var conds []string
	var args []any
	status := f.Status
	if status == "" {
		status = StatusActive
	}
	conds = append(conds, "status = ?")
	args = append(args, status)
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.Platform != "" {
		conds = append(conds, "source_platform = ?")
		args = append(args, f.Platform)
	}
	if f.Demographic != "" {
		conds = append(conds, "demographic = ?")
		args = append(args, f.Demographic)
	}
	if f.Since != nil {
		conds = append(conds, "submitted_at >= ?")
		args = append(args, f.Since.UTC())
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func trendOrder(sortBy string) string {
	switch sortBy {
	case "velocity_score":
		return " ORDER BY velocity_score DESC, id DESC"
	case "submitted_at", "newest":
		return " ORDER BY submitted_at DESC, id DESC"
	default:
		return " ORDER BY trend_score DESC, id DESC"
	}
}

// ListTrends returns one page of trends matching f and the total match count.
func (db *DB) ListTrends(f TrendFilter) ([]TrendItem, int, error) {
	where, args := f.where()

	total, err := db.count("SELECT COUNT(*) FROM trend_items"+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("counting trends: %w", err)
	}

	query := "SELECT " + trendColumns + " FROM trend_items" + where + trendOrder(f.SortBy)
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := db.query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := scanTrends(rows)
	return items, total, err
}

// CountTrends counts trends matching f, ignoring paging.
func (db *DB) CountTrends(f TrendFilter) (int, error) {
	where, args := f.where()
	return db.count("SELECT COUNT(*) FROM trend_items"+where, args...)
}

// ActiveCategoryPlatforms returns the distinct platforms, other than exclude,
// that carry an active trend in category.
func (db *DB) ActiveCategoryPlatforms(category, exclude string) ([]string, error) {
	rows, err := db.query(
		`SELECT DISTINCT source_platform FROM trend_items
		WHERE status = 'active' AND category = ? AND source_platform <> ?
		ORDER BY source_platform`,
		category, exclude,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var platforms []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		platforms = append(platforms, p)
	}
	return platforms, rows.Err()
}

// InsertMetrics records an engagement snapshot for a trend.
func (db *DB) InsertMetrics(t *TrendItem) error {
	_, err := db.insert(
		`INSERT INTO trend_metrics_history (trend_item_id, recorded_at, likes, comments, shares, views, trend_score)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, now(), t.Likes, t.Comments, t.Shares, t.Views, t.TrendScore,
	)
	return err
}

// MetricsSince returns a trend's snapshots recorded at or after since, oldest first.
func (db *DB) MetricsSince(trendID int64, since time.Time) ([]MetricsPoint, error) {
	rows, err := db.query(
		`SELECT id, trend_item_id, recorded_at, likes, comments, shares, views, trend_score
		FROM trend_metrics_history WHERE trend_item_id = ? AND recorded_at >= ?
		ORDER BY recorded_at, id`,
		trendID, since.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []MetricsPoint
	for rows.Next() {
		var m MetricsPoint
		if err := rows.Scan(&m.ID, &m.TrendItemID, &m.RecordedAt, &m.Likes, &m.Comments,
			&m.Shares, &m.Views, &m.TrendScore); err != nil {
			return nil, err
		}
		points = append(points, m)
	}
	return points, rows.Err()
}

// IncrementSourceTrendCount bumps a source's trend_count and stamps last_scraped_at.
func (db *DB) IncrementSourceTrendCount(sourceID int64) error {
	_, err := db.exec(
		"UPDATE monitoring_targets SET trend_count = trend_count + 1, last_scraped_at = ? WHERE id = ?",
		now(), sourceID,
	)
	return err
}

func scanTrends(rows *sql.Rows) ([]TrendItem, error) {
	var items []TrendItem
	for rows.Next() {
		t, err := scanTrend(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

func scanTrend(s scanner) (*TrendItem, error) {
	var t TrendItem
	if err := s.Scan(&t.ID, &t.URL, &t.SourcePlatform, &t.ImageURL, &t.SubmittedBy, &t.SubmittedAt,
		&t.Category, &t.Subcategory, &t.Colors, &t.Patterns, &t.StyleTags, &t.PricePoint,
		&t.Likes, &t.Comments, &t.Shares, &t.Views, &t.EngagementRate,
		&t.TrendScore, &t.VelocityScore, &t.CrossPlatformScore,
		&t.ScrapedAt, &t.LastUpdated, &t.Status, &t.AIAnalysisText, &t.Demographic, &t.Fabrications,
		&t.SourceID); err != nil {
		return nil, err
	}
	return &t, nil
}
