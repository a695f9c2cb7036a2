package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskmaster/internal/model"
	"taskmaster/pkg/metrics"
)

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

// ListTopLevel returns the user's tasks with a NULL parent reference,
// ordered by the given ORDER BY clause. Callers pass one of the whitelisted
// clauses from the task service; this method never interpolates user input.
func (r *TaskRepository) ListTopLevel(ctx context.Context, userID int, orderBy string) ([]model.Task, error) {
	start := time.Now()
	r.logger.Debug("Listing top-level tasks", zap.Int("user_id", userID))
	query := `
        SELECT id, user_id, title, description, due_date, priority, completed, parent_id, position, created_at
        FROM tasks
        WHERE user_id = $1 AND parent_id IS NULL
        ORDER BY ` + orderBy
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to query tasks",
			zap.Error(err),
			zap.Int("user_id", userID),
		)
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Title,
			&t.Description,
			&t.DueDate,
			&t.Priority,
			&t.Completed,
			&t.ParentID,
			&t.Position,
			&t.CreatedAt,
		); err != nil {
			r.logger.Error("Failed to scan task row",
				zap.Error(err),
				zap.Int("user_id", userID),
			)
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	metrics.RecordDBQueryDuration("list", "tasks", time.Since(start))
	return tasks, nil
}

// ListSubtasks returns every subtask row for the user, keyed by parent task id
// and ordered by position then id within each parent.
func (r *TaskRepository) ListSubtasks(ctx context.Context, userID int) (map[int][]model.Task, error) {
	query := `
        SELECT id, user_id, title, description, due_date, priority, completed, parent_id, position, created_at
        FROM tasks
        WHERE user_id = $1 AND parent_id IS NOT NULL
        ORDER BY position ASC, id ASC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to query subtasks",
			zap.Error(err),
			zap.Int("user_id", userID),
		)
		return nil, err
	}
	defer rows.Close()

	subtasks := map[int][]model.Task{}
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Title,
			&t.Description,
			&t.DueDate,
			&t.Priority,
			&t.Completed,
			&t.ParentID,
			&t.Position,
			&t.CreatedAt,
		); err != nil {
			return nil, err
		}
		if t.ParentID != nil {
			subtasks[*t.ParentID] = append(subtasks[*t.ParentID], t)
		}
	}
	return subtasks, rows.Err()
}

// ListTaskLabels returns the labels attached to each of the user's tasks,
// keyed by task id.
func (r *TaskRepository) ListTaskLabels(ctx context.Context, userID int) (map[int][]model.Label, error) {
	query := `
        SELECT tl.task_id, l.id, l.user_id, l.name, l.color, l.created_at
        FROM task_labels tl
        JOIN labels l ON l.id = tl.label_id
        JOIN tasks t ON t.id = tl.task_id
        WHERE t.user_id = $1
        ORDER BY l.name ASC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to query task labels",
			zap.Error(err),
			zap.Int("user_id", userID),
		)
		return nil, err
	}
	defer rows.Close()

	byTask := map[int][]model.Label{}
	for rows.Next() {
		var taskID int
		var l model.Label
		if err := rows.Scan(&taskID, &l.ID, &l.UserID, &l.Name, &l.Color, &l.CreatedAt); err != nil {
			return nil, err
		}
		byTask[taskID] = append(byTask[taskID], l)
	}
	return byTask, rows.Err()
}

// Insert creates a task row. Used for both top-level tasks and subtasks; a
// subtask carries its parent id.
func (r *TaskRepository) Insert(ctx context.Context, t *model.Task) (int, error) {
	r.logger.Debug("Inserting task",
		zap.Int("user_id", t.UserID),
		zap.String("title", t.Title),
		zap.Bool("is_subtask", t.ParentID != nil),
	)
	query := `
        INSERT INTO tasks (user_id, title, description, due_date, priority, completed, parent_id, position)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		t.UserID,
		t.Title,
		t.Description,
		t.DueDate,
		t.Priority,
		t.Completed,
		t.ParentID,
		t.Position,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert task",
			zap.Error(err),
			zap.Int("user_id", t.UserID),
		)
		return 0, err
	}
	r.logger.Info("Task inserted",
		zap.Int("task_id", t.ID),
		zap.Int("user_id", t.UserID),
	)
	return t.ID, nil
}

// Update rewrites the mutable fields of a task row and reports how many rows
// matched. Zero means no such task for this user.
func (r *TaskRepository) Update(ctx context.Context, userID, taskID int, title, description string, dueDate *time.Time, priority int) (int64, error) {
	query := `
        UPDATE tasks
        SET title = $3, description = $4, due_date = $5, priority = $6
        WHERE id = $2 AND user_id = $1
    `
	tag, err := r.db.Exec(ctx, query, userID, taskID, title, description, dueDate, priority)
	if err != nil {
		r.logger.Error("Failed to update task",
			zap.Error(err),
			zap.Int("task_id", taskID),
		)
		return 0, err
	}
	r.logger.Info("Task updated",
		zap.Int("task_id", taskID),
		zap.Int64("rows_affected", tag.RowsAffected()),
	)
	return tag.RowsAffected(), nil
}

// SetCompleted sets the completion flag on a task or subtask row.
func (r *TaskRepository) SetCompleted(ctx context.Context, userID, taskID int, completed bool) (int64, error) {
	query := `
        UPDATE tasks
        SET completed = $3
        WHERE id = $2 AND user_id = $1
    `
	tag, err := r.db.Exec(ctx, query, userID, taskID, completed)
	if err != nil {
		r.logger.Error("Failed to set task completion",
			zap.Error(err),
			zap.Int("task_id", taskID),
		)
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Delete removes a top-level task row. Subtasks and label associations go
// with it through ON DELETE CASCADE.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID int) (int64, error) {
	query := `
        DELETE FROM tasks
        WHERE id = $2 AND user_id = $1 AND parent_id IS NULL
    `
	tag, err := r.db.Exec(ctx, query, userID, taskID)
	if err != nil {
		r.logger.Error("Failed to delete task",
			zap.Error(err),
			zap.Int("task_id", taskID),
		)
		return 0, err
	}
	r.logger.Info("Task deleted",
		zap.Int("task_id", taskID),
		zap.Int64("rows_affected", tag.RowsAffected()),
	)
	return tag.RowsAffected(), nil
}

// DeleteSubtask removes a single subtask row.
func (r *TaskRepository) DeleteSubtask(ctx context.Context, userID, subtaskID int) (int64, error) {
	query := `
        DELETE FROM tasks
        WHERE id = $2 AND user_id = $1 AND parent_id IS NOT NULL
    `
	tag, err := r.db.Exec(ctx, query, userID, subtaskID)
	if err != nil {
		r.logger.Error("Failed to delete subtask",
			zap.Error(err),
			zap.Int("subtask_id", subtaskID),
		)
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteSubtasksOf removes all subtask rows under a parent task.
func (r *TaskRepository) DeleteSubtasksOf(ctx context.Context, userID, taskID int) error {
	query := `
        DELETE FROM tasks
        WHERE parent_id = $2 AND user_id = $1
    `
	_, err := r.db.Exec(ctx, query, userID, taskID)
	return err
}

// DeleteTaskLabels removes every label association of a task.
func (r *TaskRepository) DeleteTaskLabels(ctx context.Context, taskID int) error {
	query := `
        DELETE FROM task_labels
        WHERE task_id = $1
    `
	_, err := r.db.Exec(ctx, query, taskID)
	return err
}

// InsertTaskLabel attaches a label to a task.
func (r *TaskRepository) InsertTaskLabel(ctx context.Context, taskID, labelID int) error {
	query := `
        INSERT INTO task_labels (task_id, label_id)
        VALUES ($1, $2)
        ON CONFLICT DO NOTHING
    `
	_, err := r.db.Exec(ctx, query, taskID, labelID)
	if err != nil {
		r.logger.Error("Failed to attach label",
			zap.Error(err),
			zap.Int("task_id", taskID),
			zap.Int("label_id", labelID),
		)
	}
	return err
}
