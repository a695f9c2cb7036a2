package model

import "time"

// Priority levels. 1 is the most urgent, 4 the default.
const (
	PriorityUrgent  = 1
	PriorityHigh    = 2
	PriorityMedium  = 3
	PriorityDefault = 4
)

type Task struct {
	ID          int        `json:"id"`
	UserID      int        `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    int        `json:"priority"`
	Completed   bool       `json:"completed"`
	ParentID    *int       `json:"parent_id,omitempty"`
	Position    int        `json:"position"`
	CreatedAt   time.Time  `json:"created_at"`

	// Populated on list queries for top-level tasks only.
	Subtasks []Task  `json:"subtasks,omitempty"`
	Labels   []Label `json:"labels,omitempty"`
}

// IsSubtask reports whether the task row belongs to a parent task.
// Subtask rows never appear in top-level listings.
func (t *Task) IsSubtask() bool {
	return t.ParentID != nil
}
