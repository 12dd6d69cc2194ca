package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const personColumns = `id, name, type, tier, bio, primary_region, secondary_regions, demographics,
	style_tags, categories, follower_count_total, avg_engagement_rate, relevance_score, active,
	scrape_frequency, priority, added_at, last_scraped_at, notes`

const platformColumns = `id, person_id, platform, handle, profile_url, follower_count, engagement_rate,
	is_verified, last_checked, last_post_at, scrape_enabled, apify_actor_id`

// PeopleFilter selects people for listing.
type PeopleFilter struct {
	Type     string
	Tier     string
	Region   string
	Platform string
	Active   *bool
	Search   string
	SortBy   string // relevance_score, follower_count_total, name, added_at
	Limit    int
	Offset   int
}

// ScrapeFilter selects people due for scraping.
type ScrapeFilter struct {
	PriorityMax int
	Type        string
	Region      string
	Limit       int
}

// PersonUpdate holds the optional fields of a person update.
type PersonUpdate struct {
	Name            *string
	Type            *string
	Tier            *string
	Bio             *string
	PrimaryRegion   *string
	Demographics    *[]string
	StyleTags       *[]string
	Categories      *[]string
	Active          *bool
	ScrapeFrequency *string
	Priority        *int
	RelevanceScore  *float64
	Notes           *string
}

// PeopleStats summarizes the people table.
type PeopleStats struct {
	TotalPeople    int            `json:"total_people"`
	ByType         map[string]int `json:"by_type"`
	ByRegion       map[string]int `json:"by_region"`
	ByTier         map[string]int `json:"by_tier"`
	TotalPlatforms int            `json:"total_platforms"`
	ActiveCount    int            `json:"active_count"`
}

// CreatePerson stores a person together with p.Platforms in one transaction.
// follower_count_total is the sum of the platform follower counts.
func (db *DB) CreatePerson(p *Person) error {
	p.AddedAt = now()
	p.Active = true
	if p.ScrapeFrequency == "" {
		p.ScrapeFrequency = "daily"
	}
	if p.Priority == 0 {
		p.Priority = 5
	}
	if p.RelevanceScore == 0 {
		p.RelevanceScore = 50
	}
	p.FollowerCountTotal = 0
	for _, pp := range p.Platforms {
		p.FollowerCountTotal += pp.FollowerCount
	}

	return db.withTx(func(tx *txn) error {
		id, err := tx.insert(
			`INSERT INTO people (name, type, tier, bio, primary_region, secondary_regions, demographics,
			style_tags, categories, follower_count_total, avg_engagement_rate, relevance_score, active,
			scrape_frequency, priority, added_at, last_scraped_at, notes)
			VALUES (`+placeholders(18)+`)`,
			p.Name, p.Type, p.Tier, p.Bio, p.PrimaryRegion, p.SecondaryRegions, p.Demographics,
			p.StyleTags, p.Categories, p.FollowerCountTotal, p.AvgEngagementRate, p.RelevanceScore, p.Active,
			p.ScrapeFrequency, p.Priority, p.AddedAt, p.LastScrapedAt, p.Notes,
		)
		if err != nil {
			return fmt.Errorf("inserting person %q: %w", p.Name, err)
		}
		p.ID = id
		for i := range p.Platforms {
			pp := &p.Platforms[i]
			pp.PersonID = id
			pp.ScrapeEnabled = true
			if pp.ID, err = insertPlatform(tx, pp); err != nil {
				return fmt.Errorf("inserting %s platform for %q: %w", pp.Platform, p.Name, err)
			}
		}
		return nil
	})
}

func insertPlatform(tx *txn, pp *PersonPlatform) (int64, error) {
	return tx.insert(
		`INSERT INTO people_platforms (person_id, platform, handle, profile_url, follower_count,
		engagement_rate, is_verified, last_checked, last_post_at, scrape_enabled, apify_actor_id)
		VALUES (`+placeholders(11)+`)`,
		pp.PersonID, pp.Platform, pp.Handle, pp.ProfileURL, pp.FollowerCount,
		pp.EngagementRate, pp.IsVerified, pp.LastChecked, pp.LastPostAt, pp.ScrapeEnabled, pp.ApifyActorID,
	)
}

// AddPlatform attaches a platform account to an existing person and adds its
// followers to the person's total. Returns ErrDuplicate if the person already
// has an account on that platform.
func (db *DB) AddPlatform(pp *PersonPlatform) error {
	pp.ScrapeEnabled = true
	return db.withTx(func(tx *txn) error {
		id, err := insertPlatform(tx, pp)
		if err != nil {
			return err
		}
		pp.ID = id
		_, err = tx.exec(
			"UPDATE people SET follower_count_total = follower_count_total + ? WHERE id = ?",
			pp.FollowerCount, pp.PersonID,
		)
		return err
	})
}

// PersonNameExists reports whether a person with this name exists, ignoring case.
func (db *DB) PersonNameExists(name string) (bool, error) {
	n, err := db.count("SELECT COUNT(*) FROM people WHERE LOWER(name) = LOWER(?)", name)
	return n > 0, err
}

// GetPerson returns a person with platforms, or nil.
func (db *DB) GetPerson(id int64) (*Person, error) {
	p, err := scanPerson(db.queryRow("SELECT "+personColumns+" FROM people WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	people := []Person{*p}
	if err := db.attachPlatforms(people); err != nil {
		return nil, err
	}
	return &people[0], nil
}

// ListPeople returns people matching f with their platforms attached.
func (db *DB) ListPeople(f PeopleFilter) ([]Person, error) {
	query := "SELECT " + personColumns + " FROM people WHERE 1=1"
	var args []any
	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, f.Type)
	}
	if f.Tier != "" {
		query += " AND tier = ?"
		args = append(args, f.Tier)
	}
	if f.Region != "" {
		query += " AND primary_region = ?"
		args = append(args, f.Region)
	}
	if f.Active != nil {
		query += " AND active = ?"
		args = append(args, *f.Active)
	}
	if f.Search != "" {
		query += " AND LOWER(name) LIKE LOWER(?)"
		args = append(args, "%"+f.Search+"%")
	}
	if f.Platform != "" {
		query += " AND id IN (SELECT person_id FROM people_platforms WHERE platform = ?)"
		args = append(args, f.Platform)
	}

	switch f.SortBy {
	case "name":
		query += " ORDER BY name, id"
	case "follower_count_total", "added_at":
		query += " ORDER BY " + f.SortBy + " DESC, id"
	default:
		query += " ORDER BY relevance_score DESC, id"
	}
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	people, err := db.queryPeople(query, args...)
	if err != nil {
		return nil, err
	}
	return people, db.attachPlatforms(people)
}

// PeopleForScrape returns active people with priority <= PriorityMax, highest
// priority first and least recently scraped (never first) within a priority.
func (db *DB) PeopleForScrape(f ScrapeFilter) ([]Person, error) {
	query := "SELECT " + personColumns + " FROM people WHERE active = ? AND priority <= ?"
	args := []any{true, f.PriorityMax}
	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, f.Type)
	}
	if f.Region != "" {
		query += " AND primary_region = ?"
		args = append(args, f.Region)
	}
	query += ` ORDER BY priority,
		CASE WHEN last_scraped_at IS NULL THEN 0 ELSE 1 END,
		last_scraped_at, id`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	people, err := db.queryPeople(query, args...)
	if err != nil {
		return nil, err
	}
	return people, db.attachPlatforms(people)
}

func (db *DB) queryPeople(query string, args ...any) ([]Person, error) {
	rows, err := db.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var people []Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, *p)
	}
	return people, rows.Err()
}

// attachPlatforms loads platforms for all people in one query.
func (db *DB) attachPlatforms(people []Person) error {
	if len(people) == 0 {
		return nil
	}
	ids := make([]int64, len(people))
	index := make(map[int64]int, len(people))
	for i, p := range people {
		ids[i] = p.ID
		index[p.ID] = i
		people[i].Platforms = []PersonPlatform{}
	}

	rows, err := db.query(
		"SELECT "+platformColumns+" FROM people_platforms WHERE person_id IN ("+placeholders(len(ids))+") ORDER BY id",
		int64Args(ids)...,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var pp PersonPlatform
		if err := rows.Scan(&pp.ID, &pp.PersonID, &pp.Platform, &pp.Handle, &pp.ProfileURL,
			&pp.FollowerCount, &pp.EngagementRate, &pp.IsVerified, &pp.LastChecked, &pp.LastPostAt,
			&pp.ScrapeEnabled, &pp.ApifyActorID); err != nil {
			return err
		}
		i := index[pp.PersonID]
		people[i].Platforms = append(people[i].Platforms, pp)
	}
	return rows.Err()
}

// UpdatePerson applies the non-nil fields of u.
func (db *DB) UpdatePerson(id int64, u PersonUpdate) error {
	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Type != nil {
		add("type", *u.Type)
	}
	if u.Tier != nil {
		add("tier", *u.Tier)
	}
	if u.Bio != nil {
		add("bio", *u.Bio)
	}
	if u.PrimaryRegion != nil {
		add("primary_region", *u.PrimaryRegion)
	}
	if u.Demographics != nil {
		add("demographics", JSONList[string](*u.Demographics))
	}
	if u.StyleTags != nil {
		add("style_tags", JSONList[string](*u.StyleTags))
	}
	if u.Categories != nil {
		add("categories", JSONList[string](*u.Categories))
	}
	if u.Active != nil {
		add("active", *u.Active)
	}
	if u.ScrapeFrequency != nil {
		add("scrape_frequency", *u.ScrapeFrequency)
	}
	if u.Priority != nil {
		add("priority", *u.Priority)
	}
	if u.RelevanceScore != nil {
		add("relevance_score", *u.RelevanceScore)
	}
	if u.Notes != nil {
		add("notes", *u.Notes)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := db.exec("UPDATE people SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	return err
}

// DeletePerson removes a person with their platforms and posts.
func (db *DB) DeletePerson(id int64) (bool, error) {
	res, err := db.exec("DELETE FROM people WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkPlatformChecked stamps a platform's last_checked time.
func (db *DB) MarkPlatformChecked(platformID int64) error {
	_, err := db.exec("UPDATE people_platforms SET last_checked = ? WHERE id = ?", now(), platformID)
	return err
}

// MarkPersonScraped stamps a person's last_scraped_at time.
func (db *DB) MarkPersonScraped(personID int64) error {
	_, err := db.exec("UPDATE people SET last_scraped_at = ? WHERE id = ?", now(), personID)
	return err
}

// GetPeopleStats returns aggregate counts over all people.
func (db *DB) GetPeopleStats() (*PeopleStats, error) {
	s := &PeopleStats{}
	var err error
	if s.TotalPeople, err = db.count("SELECT COUNT(*) FROM people"); err != nil {
		return nil, err
	}
	if s.ActiveCount, err = db.count("SELECT COUNT(*) FROM people WHERE active = ?", true); err != nil {
		return nil, err
	}
	if s.TotalPlatforms, err = db.count("SELECT COUNT(*) FROM people_platforms"); err != nil {
		return nil, err
	}
	if s.ByType, err = db.groupCount("SELECT type, COUNT(*) FROM people GROUP BY type"); err != nil {
		return nil, err
	}
	if s.ByRegion, err = db.groupCount(
		"SELECT primary_region, COUNT(*) FROM people WHERE primary_region IS NOT NULL GROUP BY primary_region",
	); err != nil {
		return nil, err
	}
	if s.ByTier, err = db.groupCount("SELECT tier, COUNT(*) FROM people WHERE tier IS NOT NULL GROUP BY tier"); err != nil {
		return nil, err
	}
	return s, nil
}

// PersonNames maps person IDs to names.
func (db *DB) PersonNames(ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	rows, err := db.query(
		"SELECT id, name FROM people WHERE id IN ("+placeholders(len(ids))+")", int64Args(ids)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

func (db *DB) groupCount(query string, args ...any) (map[string]int, error) {
	rows, err := db.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, rows.Err()
}

func scanPerson(s scanner) (*Person, error) {
	var p Person
	if err := s.Scan(&p.ID, &p.Name, &p.Type, &p.Tier, &p.Bio, &p.PrimaryRegion, &p.SecondaryRegions,
		&p.Demographics, &p.StyleTags, &p.Categories, &p.FollowerCountTotal, &p.AvgEngagementRate,
		&p.RelevanceScore, &p.Active, &p.ScrapeFrequency, &p.Priority, &p.AddedAt, &p.LastScrapedAt,
		&p.Notes); err != nil {
		return nil, err
	}
	return &p, nil
}

// since returns the UTC cutoff days before now.
func since(days int) time.Time {
	return now().Add(-time.Duration(days) * 24 * time.Hour)
}
