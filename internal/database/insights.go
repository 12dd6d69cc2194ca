package database

const insightColumns = `id, category, summary, key_characteristics, trending_items_count, avg_trend_score,
	style_tags_distribution, generated_at`

const lookColumns = `id, theme_name, description, color_palette, key_items, style_tags, mood_description,
	demographic_appeal, featured_trend_ids, generated_at`

// UpsertInsight stores the insight for its category, replacing an older one.
func (db *DB) UpsertInsight(in *TrendInsight) error {
	in.GeneratedAt = now()
	_, err := db.exec(
		`INSERT INTO trend_insights (category, summary, key_characteristics, trending_items_count,
		avg_trend_score, style_tags_distribution, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (category) DO UPDATE SET
			summary = excluded.summary,
			key_characteristics = excluded.key_characteristics,
			trending_items_count = excluded.trending_items_count,
			avg_trend_score = excluded.avg_trend_score,
			style_tags_distribution = excluded.style_tags_distribution,
			generated_at = excluded.generated_at`,
		in.Category, in.Summary, in.KeyCharacteristics, in.TrendingItemsCount,
		in.AvgTrendScore, in.StyleTagsDistribution, in.GeneratedAt,
	)
	return err
}

// ListInsights returns all category insights, most trending first.
func (db *DB) ListInsights() ([]TrendInsight, error) {
	rows, err := db.query(
		"SELECT " + insightColumns + " FROM trend_insights ORDER BY trending_items_count DESC, category",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrendInsight
	for rows.Next() {
		var in TrendInsight
		if err := rows.Scan(&in.ID, &in.Category, &in.Summary, &in.KeyCharacteristics,
			&in.TrendingItemsCount, &in.AvgTrendScore, &in.StyleTagsDistribution, &in.GeneratedAt); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// ReplaceThemedLooks deletes all themed looks and stores looks in their place.
func (db *DB) ReplaceThemedLooks(looks []ThemedLook) error {
	return db.withTx(func(tx *txn) error {
		if _, err := tx.exec("DELETE FROM themed_looks"); err != nil {
			return err
		}
		ts := now()
		for i := range looks {
			l := &looks[i]
			l.GeneratedAt = ts
			id, err := tx.insert(
				`INSERT INTO themed_looks (theme_name, description, color_palette, key_items, style_tags,
				mood_description, demographic_appeal, featured_trend_ids, generated_at)
				VALUES (`+placeholders(9)+`)`,
				l.ThemeName, l.Description, l.ColorPalette, l.KeyItems, l.StyleTags,
				l.MoodDescription, l.DemographicAppeal, l.FeaturedTrendIDs, l.GeneratedAt,
			)
			if err != nil {
				return err
			}
			l.ID = id
		}
		return nil
	})
}

// ListThemedLooks returns all themed looks in creation order.
func (db *DB) ListThemedLooks() ([]ThemedLook, error) {
	rows, err := db.query("SELECT " + lookColumns + " FROM themed_looks ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ThemedLook
	for rows.Next() {
		var l ThemedLook
		if err := rows.Scan(&l.ID, &l.ThemeName, &l.Description, &l.ColorPalette, &l.KeyItems,
			&l.StyleTags, &l.MoodDescription, &l.DemographicAppeal, &l.FeaturedTrendIDs,
			&l.GeneratedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
