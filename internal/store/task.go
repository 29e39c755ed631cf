package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alvslovescyber/dashingly/internal/model"
)

// TaskStore owns the tasks and task_completions tables.
type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

const taskCols = `id, title, type, schedule_json, is_active, created_at`

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var schedule sql.NullString
	var active int
	err := scanner.Scan(&t.ID, &t.Title, &t.Type, &schedule, &active, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if schedule.Valid {
		t.ScheduleJSON = &schedule.String
	}
	t.IsActive = active != 0
	return &t, nil
}

// ListActive returns active tasks, newest first.
func (s *TaskStore) ListActive() ([]model.Task, error) {
	rows, err := s.db.Query(`SELECT ` + taskCols + ` FROM tasks WHERE is_active = 1 ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// GetByID returns a task, or nil when absent.
func (s *TaskStore) GetByID(id string) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// Create inserts a new active task and returns it.
func (s *TaskStore) Create(title string, taskType model.TaskType) (*model.Task, error) {
	if taskType == "" {
		taskType = model.TaskDaily
	}
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO tasks (id, title, type, is_active, created_at) VALUES (?, ?, ?, 1, ?)`,
		id, title, string(taskType), time.Now().UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetByID(id)
}

// TaskUpdate carries the optional fields of a partial task update. Nil fields
// are left untouched.
type TaskUpdate struct {
	Title    *string
	Type     *model.TaskType
	IsActive *bool
}

// Update applies only the fields present in upd.
func (s *TaskStore) Update(id string, upd TaskUpdate) (*model.Task, error) {
	if upd.Title != nil {
		if _, err := s.db.Exec(`UPDATE tasks SET title = ? WHERE id = ?`, *upd.Title, id); err != nil {
			return nil, fmt.Errorf("update task title: %w", err)
		}
	}
	if upd.Type != nil {
		if _, err := s.db.Exec(`UPDATE tasks SET type = ? WHERE id = ?`, string(*upd.Type), id); err != nil {
			return nil, fmt.Errorf("update task type: %w", err)
		}
	}
	if upd.IsActive != nil {
		active := 0
		if *upd.IsActive {
			active = 1
		}
		if _, err := s.db.Exec(`UPDATE tasks SET is_active = ? WHERE id = ?`, active, id); err != nil {
			return nil, fmt.Errorf("update task active: %w", err)
		}
	}
	return s.GetByID(id)
}

// Delete hard-deletes a task. Completion rows are deliberately left behind;
// readers must tolerate orphans.
func (s *TaskStore) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// ToggleCompletion flips the completion state of a task for the given logical
// day: delete-if-exists else insert. The existence check and the write run in
// one transaction so racing toggles cannot double-insert. Returns the
// resulting completed state.
func (s *TaskStore) ToggleCompletion(taskID string, day int) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRow(
		`SELECT id FROM task_completions WHERE task_id = ? AND completion_day = ?`,
		taskID, day,
	).Scan(&existing)

	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(
			`INSERT INTO task_completions (id, task_id, completion_day, completed_at) VALUES (?, ?, ?, ?)`,
			uuid.NewString(), taskID, day, time.Now().UnixMilli(),
		)
		if err != nil {
			return false, fmt.Errorf("insert completion: %w", err)
		}
		return true, tx.Commit()
	case err != nil:
		return false, fmt.Errorf("check completion: %w", err)
	default:
		if _, err := tx.Exec(`DELETE FROM task_completions WHERE id = ?`, existing); err != nil {
			return false, fmt.Errorf("delete completion: %w", err)
		}
		return false, tx.Commit()
	}
}

// CompletionsForDay returns all completion rows for a logical day, including
// rows whose task has since been deleted.
func (s *TaskStore) CompletionsForDay(day int) ([]model.TaskCompletion, error) {
	rows, err := s.db.Query(
		`SELECT id, task_id, completion_day, completed_at FROM task_completions WHERE completion_day = ?`,
		day,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []model.TaskCompletion
	for rows.Next() {
		var c model.TaskCompletion
		if err := rows.Scan(&c.ID, &c.TaskID, &c.CompletionDay, &c.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, c)
	}
	return completions, rows.Err()
}

// CompletedTitlesForDay returns the titles of tasks completed on a logical
// day, for the AI context digest.
func (s *TaskStore) CompletedTitlesForDay(day int) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT t.title FROM task_completions c JOIN tasks t ON c.task_id = t.id WHERE c.completion_day = ?`,
		day,
	)
	if err != nil {
		return nil, fmt.Errorf("list completed titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}
