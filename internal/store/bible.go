package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/alvslovescyber/dashingly/internal/model"
)

// BibleStore owns the bible_plan and bible_completions tables.
type BibleStore struct {
	db *sql.DB
}

func NewBibleStore(db *sql.DB) *BibleStore {
	return &BibleStore{db: db}
}

// PlanDay returns the reading for a plan day index, or nil when the plan has
// no entry for it.
func (s *BibleStore) PlanDay(dayIndex int) (*model.BiblePlanDay, error) {
	var d model.BiblePlanDay
	var title sql.NullString
	err := s.db.QueryRow(
		`SELECT day_index, reference, source, title FROM bible_plan WHERE day_index = ?`, dayIndex,
	).Scan(&d.DayIndex, &d.Reference, &d.Source, &title)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan day: %w", err)
	}
	if title.Valid {
		d.Title = &title.String
	}
	return &d, nil
}

// UpsertPlanDay writes one reading plan entry.
func (s *BibleStore) UpsertPlanDay(d model.BiblePlanDay) error {
	var title sql.NullString
	if d.Title != nil {
		title = sql.NullString{String: *d.Title, Valid: true}
	}
	_, err := s.db.Exec(
		`INSERT INTO bible_plan (day_index, reference, source, title) VALUES (?, ?, ?, ?)
		 ON CONFLICT(day_index) DO UPDATE SET reference = excluded.reference,
		 source = excluded.source, title = excluded.title`,
		d.DayIndex, d.Reference, d.Source, title,
	)
	if err != nil {
		return fmt.Errorf("upsert plan day: %w", err)
	}
	return nil
}

// IsCompleted reports whether the reading for a logical day is done.
func (s *BibleStore) IsCompleted(day int) (bool, error) {
	var completedAt int64
	err := s.db.QueryRow(`SELECT completed_at FROM bible_completions WHERE date = ?`, day).Scan(&completedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check bible completion: %w", err)
	}
	return true, nil
}

// ToggleCompletion flips the completion state for a logical day inside one
// transaction. Returns the resulting completed state.
func (s *BibleStore) ToggleCompletion(day int) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRow(`SELECT completed_at FROM bible_completions WHERE date = ?`, day).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(`INSERT INTO bible_completions (date, completed_at) VALUES (?, ?)`, day, time.Now().UnixMilli())
		if err != nil {
			return false, fmt.Errorf("insert bible completion: %w", err)
		}
		return true, tx.Commit()
	case err != nil:
		return false, fmt.Errorf("check bible completion: %w", err)
	default:
		if _, err := tx.Exec(`DELETE FROM bible_completions WHERE date = ?`, day); err != nil {
			return false, fmt.Errorf("delete bible completion: %w", err)
		}
		return false, tx.Commit()
	}
}
