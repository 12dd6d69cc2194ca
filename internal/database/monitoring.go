package database

import (
	"database/sql"
	"strings"
)

// TargetSource is the monitoring target type used for watched content sources.
const TargetSource = "source"

const targetColumns = `id, type, value, platform, active, added_by, added_at, source_url, source_name,
	target_demographics, frequency, trend_count, last_scraped_at`

// TargetFilter selects monitoring targets. Nil and empty fields are not applied.
type TargetFilter struct {
	Type        string
	Platform    string
	Active      *bool
	Demographic string
	Limit       int
	Offset      int
}

// SourceUpdate holds the optional fields of a source update.
type SourceUpdate struct {
	Name               *string
	Active             *bool
	TargetDemographics *[]string
	Frequency          *string
}

// CreateTarget stores a monitoring target and sets its ID.
func (db *DB) CreateTarget(t *MonitoringTarget) error {
	t.AddedAt = now()
	if t.Frequency == "" {
		t.Frequency = "manual"
	}
	id, err := db.insert(
		`INSERT INTO monitoring_targets (type, value, platform, active, added_by, added_at, source_url,
		source_name, target_demographics, frequency, trend_count, last_scraped_at)
		VALUES (`+placeholders(12)+`)`,
		t.Type, t.Value, t.Platform, t.Active, t.AddedBy, t.AddedAt, t.SourceURL,
		t.SourceName, t.TargetDemographics, t.Frequency, t.TrendCount, t.LastScrapedAt,
	)
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

// GetTarget returns a monitoring target by ID, or nil.
func (db *DB) GetTarget(id int64) (*MonitoringTarget, error) {
	t, err := scanTarget(db.queryRow("SELECT "+targetColumns+" FROM monitoring_targets WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// GetSource returns a target of type source by ID, or nil.
func (db *DB) GetSource(id int64) (*MonitoringTarget, error) {
	t, err := scanTarget(db.queryRow(
		"SELECT "+targetColumns+" FROM monitoring_targets WHERE id = ? AND type = ?", id, TargetSource,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// SourceURLExists reports whether a source with url is already watched.
func (db *DB) SourceURLExists(url string) (bool, error) {
	n, err := db.count(
		"SELECT COUNT(*) FROM monitoring_targets WHERE type = ? AND source_url = ?", TargetSource, url,
	)
	return n > 0, err
}

// ListTargets returns targets newest first. A demographic filter matches
// targets whose target_demographics contains it and is applied before paging.
func (db *DB) ListTargets(f TargetFilter) ([]MonitoringTarget, error) {
	query := "SELECT " + targetColumns + " FROM monitoring_targets WHERE 1=1"
	var args []any
	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, f.Type)
	}
	if f.Platform != "" {
		query += " AND platform = ?"
		args = append(args, f.Platform)
	}
	if f.Active != nil {
		query += " AND active = ?"
		args = append(args, *f.Active)
	}
	query += " ORDER BY added_at DESC, id DESC"
	if f.Limit > 0 && f.Demographic == "" {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := db.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []MonitoringTarget
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		if f.Demographic != "" && !Contains(t.TargetDemographics, f.Demographic) {
			continue
		}
		targets = append(targets, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if f.Demographic != "" && f.Limit > 0 {
		targets = page(targets, f.Limit, f.Offset)
	}
	return targets, nil
}

// ActiveSources returns active sources, optionally restricted to platforms.
func (db *DB) ActiveSources(platforms ...string) ([]MonitoringTarget, error) {
	active := true
	all, err := db.ListTargets(TargetFilter{Type: TargetSource, Active: &active})
	if err != nil {
		return nil, err
	}
	if len(platforms) == 0 {
		return all, nil
	}
	var out []MonitoringTarget
	for _, t := range all {
		for _, p := range platforms {
			if t.Platform == p {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}

// UpdateTarget sets a target's active flag and value when given.
func (db *DB) UpdateTarget(id int64, active *bool, value *string) error {
	var sets []string
	var args []any
	if active != nil {
		sets = append(sets, "active = ?")
		args = append(args, *active)
	}
	if value != nil {
		sets = append(sets, "value = ?")
		args = append(args, *value)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := db.exec("UPDATE monitoring_targets SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	return err
}

// UpdateSource applies the non-nil fields of u. A new name also replaces value.
func (db *DB) UpdateSource(id int64, u SourceUpdate) error {
	var sets []string
	var args []any
	if u.Active != nil {
		sets = append(sets, "active = ?")
		args = append(args, *u.Active)
	}
	if u.Name != nil {
		sets = append(sets, "source_name = ?", "value = ?")
		args = append(args, *u.Name, *u.Name)
	}
	if u.TargetDemographics != nil {
		sets = append(sets, "target_demographics = ?")
		args = append(args, JSONList[string](append([]string{}, *u.TargetDemographics...)))
	}
	if u.Frequency != nil {
		sets = append(sets, "frequency = ?")
		args = append(args, *u.Frequency)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id, TargetSource)
	_, err := db.exec("UPDATE monitoring_targets SET "+strings.Join(sets, ", ")+" WHERE id = ? AND type = ?", args...)
	return err
}

// DeleteTarget removes a monitoring target. Returns false if it did not exist.
func (db *DB) DeleteTarget(id int64) (bool, error) {
	res, err := db.exec("DELETE FROM monitoring_targets WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanTarget(s scanner) (*MonitoringTarget, error) {
	var t MonitoringTarget
	if err := s.Scan(&t.ID, &t.Type, &t.Value, &t.Platform, &t.Active, &t.AddedBy, &t.AddedAt,
		&t.SourceURL, &t.SourceName, &t.TargetDemographics, &t.Frequency, &t.TrendCount,
		&t.LastScrapedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}
