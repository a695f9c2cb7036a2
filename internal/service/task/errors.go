package task

import "errors"

// Task-related errors
var (
	// Validation errors
	ErrEmptyTitle      = errors.New("task title cannot be empty")
	ErrInvalidPriority = errors.New("priority must be between 1 and 4")
	ErrInvalidTaskID   = errors.New("invalid task ID")
	ErrInvalidUserID   = errors.New("invalid user ID")
	ErrInvalidSortKey  = errors.New("unknown sort key")

	// Business logic errors
	ErrTaskNotFound = errors.New("task not found")

	// ErrPartialWrite reports that the task row was saved but a later step of
	// the multi-row mutation failed. There is no rollback; the next full
	// re-fetch shows the actual state.
	ErrPartialWrite = errors.New("task saved, but some subtasks or labels were not")
)
