package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskmaster/internal/service/task"
	"taskmaster/internal/viewmodel"
	"taskmaster/pkg/util"
)

type TaskHandler struct {
	taskService task.Service
	logger      *zap.Logger
}

func NewTaskHandler(taskService task.Service, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// GetTasks handles GET /tasks?sort=&priority=&label=&show_completed=
// The response carries the view-model's two sequences.
func (h *TaskHandler) GetTasks(c *gin.Context) {
	userID := c.GetInt("user_id")

	sortKey := task.SortKey(c.DefaultQuery("sort", string(task.SortCreated)))
	priority, _ := strconv.Atoi(c.Query("priority"))
	labelID, _ := strconv.Atoi(c.Query("label"))
	showCompleted := c.Query("show_completed") == "true"

	tasks, err := h.taskService.List(c.Request.Context(), userID, sortKey)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	view := viewmodel.Build(tasks, viewmodel.Options{
		Priority:      priority,
		LabelID:       labelID,
		SortKey:       viewmodel.SortKey(sortKey),
		ShowCompleted: showCompleted,
	})

	c.JSON(http.StatusOK, view)
}

type taskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     *string  `json:"due_date"`
	Priority    int      `json:"priority"`
	Subtasks    []string `json:"subtasks"`
	LabelIDs    []int    `json:"label_ids"`
}

// CreateTask handles POST /tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID := c.GetInt("user_id")

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due date"})
		return
	}

	t, err := h.taskService.Create(c.Request.Context(), userID, task.CreateRequest{
		Title:         req.Title,
		Description:   req.Description,
		DueDate:       dueDate,
		Priority:      req.Priority,
		SubtaskTitles: req.Subtasks,
		LabelIDs:      req.LabelIDs,
	})
	if err != nil {
		// The task row may exist even though a later step failed. Report
		// success with a warning so the client re-fetches and shows reality.
		if errors.Is(err, task.ErrPartialWrite) && t != nil {
			c.JSON(http.StatusCreated, gin.H{
				"task":    t,
				"warning": err.Error(),
			})
			return
		}
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"task": t})
}

// UpdateTask handles PUT /tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID := c.GetInt("user_id")
	taskID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due date"})
		return
	}

	err = h.taskService.Update(c.Request.Context(), userID, taskID, task.UpdateRequest{
		Title:         req.Title,
		Description:   req.Description,
		DueDate:       dueDate,
		Priority:      req.Priority,
		SubtaskTitles: req.Subtasks,
		LabelIDs:      req.LabelIDs,
	})
	if err != nil {
		if errors.Is(err, task.ErrPartialWrite) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "updated",
				"warning": err.Error(),
			})
			return
		}
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

type toggleRequest struct {
	Completed bool `json:"completed"` // current value; the server flips it
}

// ToggleTask handles POST /tasks/:id/toggle
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	userID := c.GetInt("user_id")
	taskID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.taskService.ToggleCompletion(c.Request.Context(), userID, taskID, req.Completed); err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "toggled",
		"completed": !req.Completed,
	})
}

// DeleteTask handles DELETE /tasks/:id. The client confirmed with the user
// before calling; subtasks and label rows cascade at the schema level.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID := c.GetInt("user_id")
	taskID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), userID, taskID); err != nil {
		h.respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// DeleteSubtask handles DELETE /subtasks/:id
func (h *TaskHandler) DeleteSubtask(c *gin.Context) {
	userID := c.GetInt("user_id")
	subtaskID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subtask id"})
		return
	}

	if err := h.taskService.DeleteSubtask(c.Request.Context(), userID, subtaskID); err != nil {
		h.respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *TaskHandler) respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, task.ErrEmptyTitle),
		errors.Is(err, task.ErrInvalidPriority),
		errors.Is(err, task.ErrInvalidSortKey),
		errors.Is(err, task.ErrInvalidTaskID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, task.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		errType, message, status := util.ClassifyStoreError(err)
		h.logger.Error("Task operation failed",
			zap.String("error_type", errType),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": message})
	}
}

// parseDueDate accepts RFC 3339 or a bare date.
func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, *raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
