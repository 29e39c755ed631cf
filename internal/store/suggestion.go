package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alvslovescyber/dashingly/internal/model"
)

// ErrSuggestionNotFound is returned by Accept for an unknown suggestion id.
// Dismiss deliberately does not share this behavior: dismissing an unknown id
// is a silent no-op, matching the observed product behavior.
var ErrSuggestionNotFound = errors.New("suggestion not found")

// SuggestionStore owns the task_suggestions table.
type SuggestionStore struct {
	db *sql.DB
}

func NewSuggestionStore(db *sql.DB) *SuggestionStore {
	return &SuggestionStore{db: db}
}

const suggestionCols = `id, logical_day, title, reason, source, status, created_at`

func scanSuggestion(scanner interface{ Scan(...any) error }) (*model.TaskSuggestion, error) {
	var s model.TaskSuggestion
	err := scanner.Scan(&s.ID, &s.LogicalDay, &s.Title, &s.Reason, &s.Source, &s.Status, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// PendingForDay returns pending suggestions for a logical day, newest first.
func (s *SuggestionStore) PendingForDay(day int) ([]model.TaskSuggestion, error) {
	rows, err := s.db.Query(
		`SELECT `+suggestionCols+` FROM task_suggestions WHERE status = 'pending' AND logical_day = ? ORDER BY created_at DESC`,
		day,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending suggestions: %w", err)
	}
	defer rows.Close()

	var out []model.TaskSuggestion
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		out = append(out, *sg)
	}
	return out, rows.Err()
}

// CountForDay returns the number of suggestions persisted for a logical day,
// regardless of status. This is the storage-backed daily ceiling that
// survives process restarts.
func (s *SuggestionStore) CountForDay(day int) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM task_suggestions WHERE logical_day = ?`, day).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count suggestions: %w", err)
	}
	return n, nil
}

// Insert persists a new pending suggestion.
func (s *SuggestionStore) Insert(day int, title, reason, source string) (*model.TaskSuggestion, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO task_suggestions (id, logical_day, title, reason, source, status, created_at)
		 VALUES (?, ?, ?, ?, ?, 'pending', ?)`,
		id, day, title, reason, source, time.Now().UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert suggestion: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+suggestionCols+` FROM task_suggestions WHERE id = ?`, id)
	return scanSuggestion(row)
}

// Accept creates a one-off task from the suggestion's title and marks the
// suggestion accepted, in a single transaction so the created task can never
// be silently lost. Unknown ids return ErrSuggestionNotFound.
func (s *SuggestionStore) Accept(id string) (*model.Task, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var title string
	err = tx.QueryRow(`SELECT title FROM task_suggestions WHERE id = ?`, id).Scan(&title)
	if err == sql.ErrNoRows {
		return nil, ErrSuggestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get suggestion: %w", err)
	}

	task := model.Task{
		ID:        uuid.NewString(),
		Title:     title,
		Type:      model.TaskOneoff,
		IsActive:  true,
		CreatedAt: time.Now().UnixMilli(),
	}
	_, err = tx.Exec(
		`INSERT INTO tasks (id, title, type, is_active, created_at) VALUES (?, ?, ?, 1, ?)`,
		task.ID, task.Title, string(task.Type), task.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task from suggestion: %w", err)
	}

	if _, err := tx.Exec(`UPDATE task_suggestions SET status = 'accepted' WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("mark suggestion accepted: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit accept: %w", err)
	}
	return &task, nil
}

// Dismiss sets a suggestion's status to dismissed. An unknown id is a no-op.
func (s *SuggestionStore) Dismiss(id string) error {
	if _, err := s.db.Exec(`UPDATE task_suggestions SET status = 'dismissed' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("dismiss suggestion: %w", err)
	}
	return nil
}
