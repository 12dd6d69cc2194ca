package database

import (
	"database/sql"
	"strings"
)

// MoodBoardUpdate holds the optional fields of a mood board update.
type MoodBoardUpdate struct {
	Title       *string
	Description *string
	Category    *string
	Items       *[]int64
}

const moodBoardColumns = "id, title, description, created_by, created_at, updated_at, category, items"

// CreateMoodBoard stores a new board and sets its ID and timestamps.
func (db *DB) CreateMoodBoard(b *MoodBoard) error {
	ts := now()
	b.CreatedAt, b.UpdatedAt = ts, ts
	if b.Items == nil {
		b.Items = JSONList[int64]{}
	}
	id, err := db.insert(
		`INSERT INTO mood_boards (title, description, created_by, created_at, updated_at, category, items)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.Title, b.Description, b.CreatedBy, b.CreatedAt, b.UpdatedAt, b.Category, b.Items,
	)
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

// GetMoodBoard returns a board by ID, or nil.
func (db *DB) GetMoodBoard(id int64) (*MoodBoard, error) {
	b, err := scanMoodBoard(db.queryRow("SELECT "+moodBoardColumns+" FROM mood_boards WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return b, err
}

// ListMoodBoards returns boards newest first, optionally filtered by creator and category.
func (db *DB) ListMoodBoards(createdBy, category string, limit, offset int) ([]MoodBoard, error) {
	query := "SELECT " + moodBoardColumns + " FROM mood_boards WHERE 1=1"
	var args []any
	if createdBy != "" {
		query += " AND created_by = ?"
		args = append(args, createdBy)
	}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := db.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []MoodBoard
	for rows.Next() {
		b, err := scanMoodBoard(rows)
		if err != nil {
			return nil, err
		}
		boards = append(boards, *b)
	}
	return boards, rows.Err()
}

// UpdateMoodBoard applies the non-nil fields of u and bumps updated_at.
func (db *DB) UpdateMoodBoard(id int64, u MoodBoardUpdate) error {
	sets := []string{"updated_at = ?"}
	args := []any{now()}
	if u.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *u.Title)
	}
	if u.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *u.Description)
	}
	if u.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *u.Category)
	}
	if u.Items != nil {
		sets = append(sets, "items = ?")
		args = append(args, JSONList[int64](append([]int64{}, *u.Items...)))
	}
	args = append(args, id)
	_, err := db.exec("UPDATE mood_boards SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	return err
}

// DeleteMoodBoard removes a board. Returns false if it did not exist.
func (db *DB) DeleteMoodBoard(id int64) (bool, error) {
	res, err := db.exec("DELETE FROM mood_boards WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanMoodBoard(s scanner) (*MoodBoard, error) {
	var b MoodBoard
	if err := s.Scan(&b.ID, &b.Title, &b.Description, &b.CreatedBy, &b.CreatedAt,
		&b.UpdatedAt, &b.Category, &b.Items); err != nil {
		return nil, err
	}
	return &b, nil
}
