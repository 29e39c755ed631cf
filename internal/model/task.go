package model

// TaskType distinguishes recurring daily habits from one-off todos.
type TaskType string

const (
	TaskDaily  TaskType = "daily"
	TaskOneoff TaskType = "oneoff"
)

// Task is a user-created habit or todo.
type Task struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Type         TaskType `json:"type"`
	ScheduleJSON *string  `json:"scheduleJson,omitempty"`
	IsActive     bool     `json:"isActive"`
	CreatedAt    int64    `json:"createdAt"`
}

// TaskCompletion marks a task as done for one logical day. Presence of a row
// means completed; there is no "incomplete" row.
type TaskCompletion struct {
	ID            string `json:"id"`
	TaskID        string `json:"taskId"`
	CompletionDay int    `json:"completionDay"`
	CompletedAt   int64  `json:"completedAt"`
}

// SuggestionStatus is the lifecycle state of an AI task suggestion.
type SuggestionStatus string

const (
	SuggestionPending   SuggestionStatus = "pending"
	SuggestionAccepted  SuggestionStatus = "accepted"
	SuggestionDismissed SuggestionStatus = "dismissed"
)

// TaskSuggestion is a generated task idea awaiting user review.
type TaskSuggestion struct {
	ID         string           `json:"id"`
	LogicalDay int              `json:"logicalDay"`
	Title      string           `json:"title"`
	Reason     string           `json:"reason"`
	Source     string           `json:"source"`
	Status     SuggestionStatus `json:"status"`
	CreatedAt  int64            `json:"createdAt"`
}

// TaskWithCompletion annotates a task with its completion state for today.
type TaskWithCompletion struct {
	Task
	Completed   bool   `json:"completed"`
	CompletedAt *int64 `json:"completedAt,omitempty"`
}
