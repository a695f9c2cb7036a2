package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskmaster/internal/model"
	"taskmaster/internal/mq"
	"taskmaster/pkg/metrics"
	"taskmaster/pkg/util"
)

// SortKey selects the ordering of a task listing.
type SortKey string

const (
	SortDueDate  SortKey = "due_date"
	SortCreated  SortKey = "created"
	SortPosition SortKey = "position"
)

// orderClause maps a sort key to its SQL ORDER BY clause. Due-date ordering
// puts undated tasks after every dated one.
func orderClause(key SortKey) (string, error) {
	switch key {
	case SortDueDate:
		return "due_date ASC NULLS LAST, created_at DESC", nil
	case SortCreated, "":
		return "created_at DESC", nil
	case SortPosition:
		return "position ASC, created_at DESC", nil
	default:
		return "", ErrInvalidSortKey
	}
}

// Repository is the task persistence surface the service depends on.
type Repository interface {
	ListTopLevel(ctx context.Context, userID int, orderBy string) ([]model.Task, error)
	ListSubtasks(ctx context.Context, userID int) (map[int][]model.Task, error)
	ListTaskLabels(ctx context.Context, userID int) (map[int][]model.Label, error)
	Insert(ctx context.Context, t *model.Task) (int, error)
	Update(ctx context.Context, userID, taskID int, title, description string, dueDate *time.Time, priority int) (int64, error)
	SetCompleted(ctx context.Context, userID, taskID int, completed bool) (int64, error)
	Delete(ctx context.Context, userID, taskID int) (int64, error)
	DeleteSubtask(ctx context.Context, userID, subtaskID int) (int64, error)
	DeleteSubtasksOf(ctx context.Context, userID, taskID int) error
	DeleteTaskLabels(ctx context.Context, taskID int) error
	InsertTaskLabel(ctx context.Context, taskID, labelID int) error
}

// EventPublisher publishes lifecycle events. A nil publisher disables events.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// CreateRequest encapsulates data for creating a task with its subtasks and
// label associations.
type CreateRequest struct {
	Title         string
	Description   string
	DueDate       *time.Time
	Priority      int // 0 means default (4)
	SubtaskTitles []string
	LabelIDs      []int
}

// UpdateRequest rewrites a task and fully replaces its subtasks and labels.
type UpdateRequest struct {
	Title         string
	Description   string
	DueDate       *time.Time
	Priority      int
	SubtaskTitles []string
	LabelIDs      []int
}

// Service defines all task-related business operations.
type Service interface {
	List(ctx context.Context, userID int, sortKey SortKey) ([]model.Task, error)
	Create(ctx context.Context, userID int, req CreateRequest) (*model.Task, error)
	Update(ctx context.Context, userID, taskID int, req UpdateRequest) error
	ToggleCompletion(ctx context.Context, userID, taskID int, current bool) error
	Delete(ctx context.Context, userID, taskID int) error
	DeleteSubtask(ctx context.Context, userID, subtaskID int) error
}

type service struct {
	repo      Repository
	publisher EventPublisher
	logger    *zap.Logger
}

func NewService(repo Repository, publisher EventPublisher, logger *zap.Logger) Service {
	return &service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// List returns the user's top-level tasks, each carrying its subtasks and
// labels. A missing tasks table yields an empty list so a fresh deployment
// renders an empty inbox, not an error page.
func (s *service) List(ctx context.Context, userID int, sortKey SortKey) ([]model.Task, error) {
	if userID <= 0 {
		return nil, ErrInvalidUserID
	}
	orderBy, err := orderClause(sortKey)
	if err != nil {
		return nil, err
	}

	tasks, err := s.repo.ListTopLevel(ctx, userID, orderBy)
	if err != nil {
		if util.IsTableMissing(err) {
			s.logger.Warn("Tasks table missing, returning empty list", zap.Error(err))
			return []model.Task{}, nil
		}
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	subtasks, err := s.repo.ListSubtasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subtasks: %w", err)
	}
	labels, err := s.repo.ListTaskLabels(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list task labels: %w", err)
	}

	for i := range tasks {
		tasks[i].Subtasks = subtasks[tasks[i].ID]
		tasks[i].Labels = labels[tasks[i].ID]
	}
	return tasks, nil
}

// Create inserts a task, then its subtasks in input order, then its label
// associations. Validation happens before any row is written. A failure after
// the task insert leaves the task in place and is reported as a partial write.
func (s *service) Create(ctx context.Context, userID int, req CreateRequest) (*model.Task, error) {
	if userID <= 0 {
		return nil, ErrInvalidUserID
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	priority := req.Priority
	if priority == 0 {
		priority = model.PriorityDefault
	}
	if priority < model.PriorityUrgent || priority > model.PriorityDefault {
		return nil, ErrInvalidPriority
	}

	t := &model.Task{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		DueDate:     req.DueDate,
		Priority:    priority,
	}
	if _, err := s.repo.Insert(ctx, t); err != nil {
		metrics.RecordTaskMutation("create", "failed")
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if err := s.insertSubtasks(ctx, userID, t.ID, req.SubtaskTitles); err != nil {
		metrics.RecordTaskMutation("create", "partial")
		return t, fmt.Errorf("%w: %v", ErrPartialWrite, err)
	}
	if err := s.attachLabels(ctx, t.ID, req.LabelIDs); err != nil {
		metrics.RecordTaskMutation("create", "partial")
		return t, fmt.Errorf("%w: %v", ErrPartialWrite, err)
	}

	metrics.RecordTaskMutation("create", "success")
	s.publish(mq.RoutingTaskCreated, mq.TaskEventPayload{
		TaskID: t.ID,
		UserID: userID,
		Title:  t.Title,
		At:     time.Now(),
	})
	return t, nil
}

// Update rewrites the task row, then replaces all of its subtasks and label
// associations with the supplied sets. Replacement is delete-all-and-reinsert,
// not an incremental diff.
func (s *service) Update(ctx context.Context, userID, taskID int, req UpdateRequest) error {
	if userID <= 0 {
		return ErrInvalidUserID
	}
	if taskID <= 0 {
		return ErrInvalidTaskID
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return ErrEmptyTitle
	}
	priority := req.Priority
	if priority == 0 {
		priority = model.PriorityDefault
	}
	if priority < model.PriorityUrgent || priority > model.PriorityDefault {
		return ErrInvalidPriority
	}

	affected, err := s.repo.Update(ctx, userID, taskID, title, strings.TrimSpace(req.Description), req.DueDate, priority)
	if err != nil {
		metrics.RecordTaskMutation("update", "failed")
		return fmt.Errorf("failed to update task: %w", err)
	}
	if affected == 0 {
		return ErrTaskNotFound
	}

	if err := s.repo.DeleteSubtasksOf(ctx, userID, taskID); err != nil {
		metrics.RecordTaskMutation("update", "partial")
		return fmt.Errorf("%w: %v", ErrPartialWrite, err)
	}
	if err := s.insertSubtasks(ctx, userID, taskID, req.SubtaskTitles); err != nil {
		metrics.RecordTaskMutation("update", "partial")
		return fmt.Errorf("%w: %v", ErrPartialWrite, err)
	}

	if err := s.repo.DeleteTaskLabels(ctx, taskID); err != nil {
		metrics.RecordTaskMutation("update", "partial")
		return fmt.Errorf("%w: %v", ErrPartialWrite, err)
	}
	if err := s.attachLabels(ctx, taskID, req.LabelIDs); err != nil {
		metrics.RecordTaskMutation("update", "partial")
		return fmt.Errorf("%w: %v", ErrPartialWrite, err)
	}

	metrics.RecordTaskMutation("update", "success")
	return nil
}

// ToggleCompletion flips the completion flag from its current value.
func (s *service) ToggleCompletion(ctx context.Context, userID, taskID int, current bool) error {
	if userID <= 0 {
		return ErrInvalidUserID
	}
	if taskID <= 0 {
		return ErrInvalidTaskID
	}

	affected, err := s.repo.SetCompleted(ctx, userID, taskID, !current)
	if err != nil {
		metrics.RecordTaskMutation("toggle", "failed")
		return fmt.Errorf("failed to toggle task: %w", err)
	}
	if affected == 0 {
		return ErrTaskNotFound
	}

	metrics.RecordTaskMutation("toggle", "success")
	if !current {
		s.publish(mq.RoutingTaskCompleted, mq.TaskEventPayload{
			TaskID:    taskID,
			UserID:    userID,
			Completed: true,
			At:        time.Now(),
		})
	}
	return nil
}

// Delete removes a top-level task. Its subtasks and label associations are
// removed by the schema-level cascade, not by application logic.
func (s *service) Delete(ctx context.Context, userID, taskID int) error {
	if userID <= 0 {
		return ErrInvalidUserID
	}
	if taskID <= 0 {
		return ErrInvalidTaskID
	}

	affected, err := s.repo.Delete(ctx, userID, taskID)
	if err != nil {
		metrics.RecordTaskMutation("delete", "failed")
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if affected == 0 {
		return ErrTaskNotFound
	}

	metrics.RecordTaskMutation("delete", "success")
	s.publish(mq.RoutingTaskDeleted, mq.TaskEventPayload{
		TaskID: taskID,
		UserID: userID,
		At:     time.Now(),
	})
	return nil
}

// DeleteSubtask removes a single subtask row.
func (s *service) DeleteSubtask(ctx context.Context, userID, subtaskID int) error {
	if userID <= 0 {
		return ErrInvalidUserID
	}
	if subtaskID <= 0 {
		return ErrInvalidTaskID
	}

	affected, err := s.repo.DeleteSubtask(ctx, userID, subtaskID)
	if err != nil {
		metrics.RecordTaskMutation("delete_subtask", "failed")
		return fmt.Errorf("failed to delete subtask: %w", err)
	}
	if affected == 0 {
		return ErrTaskNotFound
	}
	metrics.RecordTaskMutation("delete_subtask", "success")
	return nil
}

// insertSubtasks creates one subtask row per non-blank title, positioned in
// input order. Blank titles are skipped without consuming a position.
func (s *service) insertSubtasks(ctx context.Context, userID, parentID int, titles []string) error {
	position := 0
	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		sub := &model.Task{
			UserID:   userID,
			Title:    title,
			Priority: model.PriorityDefault,
			ParentID: &parentID,
			Position: position,
		}
		if _, err := s.repo.Insert(ctx, sub); err != nil {
			return fmt.Errorf("failed to insert subtask %q: %w", title, err)
		}
		position++
	}
	return nil
}

func (s *service) attachLabels(ctx context.Context, taskID int, labelIDs []int) error {
	for _, labelID := range labelIDs {
		if err := s.repo.InsertTaskLabel(ctx, taskID, labelID); err != nil {
			return fmt.Errorf("failed to attach label %d: %w", labelID, err)
		}
	}
	return nil
}

func (s *service) publish(routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		s.logger.Warn("Failed to publish task event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
