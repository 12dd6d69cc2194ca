package database

// HashtagCount is one observed hashtag tally.
type HashtagCount struct {
	Hashtag string
	Count   int
}

// RecordHashtags upserts mention counts for platform. growth_rate is the
// relative change from the previously stored count.
func (db *DB) RecordHashtags(platform string, counts []HashtagCount) error {
	return db.withTx(func(tx *txn) error {
		ts := now()
		for _, c := range counts {
			var prev int
			err := tx.queryRow(
				"SELECT mention_count FROM trending_hashtags WHERE hashtag = ? AND platform = ?",
				c.Hashtag, platform,
			).Scan(&prev)
			if err != nil {
				prev = 0
			}
			growth := 0.0
			if prev > 0 {
				growth = float64(c.Count-prev) / float64(prev)
			}
			_, err = tx.exec(
				`INSERT INTO trending_hashtags (hashtag, platform, mention_count, growth_rate, first_seen, last_updated)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT (hashtag, platform) DO UPDATE SET
					mention_count = excluded.mention_count,
					growth_rate = excluded.growth_rate,
					last_updated = excluded.last_updated`,
				c.Hashtag, platform, c.Count, growth, ts, ts,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// TopHashtags returns stored hashtags with the highest mention counts.
func (db *DB) TopHashtags(limit int) ([]TrendingHashtag, error) {
	rows, err := db.query(
		`SELECT id, hashtag, platform, mention_count, growth_rate, first_seen, last_updated
		FROM trending_hashtags ORDER BY mention_count DESC, hashtag LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrendingHashtag
	for rows.Next() {
		var h TrendingHashtag
		if err := rows.Scan(&h.ID, &h.Hashtag, &h.Platform, &h.MentionCount, &h.GrowthRate,
			&h.FirstSeen, &h.LastUpdated); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
