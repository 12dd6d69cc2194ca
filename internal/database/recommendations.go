package database

import "database/sql"

const recColumns = `id, type, title, description, url, platform, reason, confidence_score, status,
	created_at, responded_at`

// CreateRecommendation stores a pending recommendation and sets its ID.
func (db *DB) CreateRecommendation(r *Recommendation) error {
	r.CreatedAt = now()
	if r.Status == "" {
		r.Status = RecPending
	}
	id, err := db.insert(
		`INSERT INTO recommendations (type, title, description, url, platform, reason, confidence_score,
		status, created_at, responded_at)
		VALUES (`+placeholders(10)+`)`,
		r.Type, r.Title, r.Description, r.URL, r.Platform, r.Reason, r.ConfidenceScore,
		r.Status, r.CreatedAt, r.RespondedAt,
	)
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

// GetRecommendation returns a recommendation by ID, or nil.
func (db *DB) GetRecommendation(id int64) (*Recommendation, error) {
	r, err := scanRecommendation(db.queryRow("SELECT "+recColumns+" FROM recommendations WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// RecommendationURLExists reports whether url was ever recommended.
func (db *DB) RecommendationURLExists(url string) (bool, error) {
	n, err := db.count("SELECT COUNT(*) FROM recommendations WHERE url = ?", url)
	return n > 0, err
}

// ListRecommendations returns recommendations with status, highest confidence first.
// An empty status means pending.
func (db *DB) ListRecommendations(status string, limit int) ([]Recommendation, error) {
	if status == "" {
		status = RecPending
	}
	return db.queryRecommendations(
		"SELECT "+recColumns+" FROM recommendations WHERE status = ? ORDER BY confidence_score DESC, id LIMIT ?",
		status, limit,
	)
}

// RejectedRecommendationURLs returns URLs of rejected or dismissed recommendations.
func (db *DB) RejectedRecommendationURLs(limit int) ([]string, error) {
	recs, err := db.queryRecommendations(
		"SELECT "+recColumns+" FROM recommendations WHERE status IN (?, ?) ORDER BY id LIMIT ?",
		RecRejected, RecDismissed, limit,
	)
	if err != nil {
		return nil, err
	}
	urls := make([]string, len(recs))
	for i, r := range recs {
		urls[i] = r.URL
	}
	return urls, nil
}

// AcceptedRecommendationTitles returns the titles of accepted recommendations.
func (db *DB) AcceptedRecommendationTitles() ([]string, error) {
	recs, err := db.queryRecommendations(
		"SELECT "+recColumns+" FROM recommendations WHERE status = ? ORDER BY id", RecAccepted,
	)
	if err != nil {
		return nil, err
	}
	titles := make([]string, len(recs))
	for i, r := range recs {
		titles[i] = r.Title
	}
	return titles, nil
}

// SetRecommendationStatus records a response to a recommendation.
func (db *DB) SetRecommendationStatus(id int64, status string) error {
	_, err := db.exec(
		"UPDATE recommendations SET status = ?, responded_at = ? WHERE id = ?", status, now(), id,
	)
	return err
}

func (db *DB) queryRecommendations(query string, args ...any) ([]Recommendation, error) {
	rows, err := db.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Recommendation
	for rows.Next() {
		r, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *r)
	}
	return recs, rows.Err()
}

func scanRecommendation(s scanner) (*Recommendation, error) {
	var r Recommendation
	if err := s.Scan(&r.ID, &r.Type, &r.Title, &r.Description, &r.URL, &r.Platform, &r.Reason,
		&r.ConfidenceScore, &r.Status, &r.CreatedAt, &r.RespondedAt); err != nil {
		return nil, err
	}
	return &r, nil
}
