package database

// TableCounts returns row counts for the main tables, for status output.
func (db *DB) TableCounts() (map[string]int, error) {
	tables := []string{
		"trend_items", "trend_metrics_history", "mood_boards", "monitoring_targets",
		"recommendations", "user_feedback", "trend_insights", "themed_looks",
		"people", "people_platforms", "scraped_posts", "trending_hashtags",
	}
	counts := make(map[string]int, len(tables))
	for _, t := range tables {
		n, err := db.count("SELECT COUNT(*) FROM " + t)
		if err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, nil
}
