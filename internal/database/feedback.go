package database

import "database/sql"

// Feedback entity types and values.
const (
	EntityTrend          = "trend"
	EntityRecommendation = "recommendation"

	ThumbsUp   = "thumbs_up"
	ThumbsDown = "thumbs_down"
)

// UpsertFeedback records the latest feedback for an entity, replacing any
// earlier feedback on the same entity.
func (db *DB) UpsertFeedback(entityType string, entityID int64, feedbackType string, context *string) error {
	_, err := db.exec(
		`INSERT INTO user_feedback (entity_type, entity_id, feedback_type, context, recorded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (entity_type, entity_id) DO UPDATE SET
			feedback_type = excluded.feedback_type,
			context = excluded.context,
			recorded_at = excluded.recorded_at`,
		entityType, entityID, feedbackType, context, now(),
	)
	return err
}

// GetFeedback returns the feedback for an entity, or nil.
func (db *DB) GetFeedback(entityType string, entityID int64) (*Feedback, error) {
	row := db.queryRow(
		`SELECT id, entity_type, entity_id, feedback_type, context, recorded_at
		FROM user_feedback WHERE entity_type = ? AND entity_id = ?`,
		entityType, entityID,
	)
	var f Feedback
	if err := row.Scan(&f.ID, &f.EntityType, &f.EntityID, &f.FeedbackType, &f.Context, &f.RecordedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

// RecentFeedback returns the latest feedback entries, newest first.
func (db *DB) RecentFeedback(limit int) ([]Feedback, error) {
	rows, err := db.query(
		`SELECT id, entity_type, entity_id, feedback_type, context, recorded_at
		FROM user_feedback ORDER BY recorded_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Feedback
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(&f.ID, &f.EntityType, &f.EntityID, &f.FeedbackType, &f.Context, &f.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CountFeedback counts feedback entries of one type.
func (db *DB) CountFeedback(feedbackType string) (int, error) {
	return db.count("SELECT COUNT(*) FROM user_feedback WHERE feedback_type = ?", feedbackType)
}

// FeedbackTrendCategories returns the distinct categories of trends that
// received feedbackType.
func (db *DB) FeedbackTrendCategories(feedbackType string) ([]string, error) {
	rows, err := db.query(
		`SELECT DISTINCT t.category FROM user_feedback f
		JOIN trend_items t ON t.id = f.entity_id
		WHERE f.entity_type = ? AND f.feedback_type = ? AND t.category IS NOT NULL
		ORDER BY t.category`,
		EntityTrend, feedbackType,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cats := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}
