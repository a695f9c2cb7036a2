package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskmaster/internal/service/label"
	"taskmaster/pkg/util"
)

type LabelHandler struct {
	labelService label.Service
	logger       *zap.Logger
}

func NewLabelHandler(labelService label.Service, logger *zap.Logger) *LabelHandler {
	return &LabelHandler{
		labelService: labelService,
		logger:       logger,
	}
}

// GetLabels handles GET /labels
func (h *LabelHandler) GetLabels(c *gin.Context) {
	userID := c.GetInt("user_id")

	labels, err := h.labelService.List(c.Request.Context(), userID)
	if err != nil {
		h.respondLabelError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"labels": labels})
}

type createLabelRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CreateLabel handles POST /labels
func (h *LabelHandler) CreateLabel(c *gin.Context) {
	userID := c.GetInt("user_id")

	var req createLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	l, err := h.labelService.Create(c.Request.Context(), userID, req.Name, req.Color)
	if err != nil {
		h.respondLabelError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"label": l})
}

// DeleteLabel handles DELETE /labels/:id. Association rows cascade.
func (h *LabelHandler) DeleteLabel(c *gin.Context) {
	userID := c.GetInt("user_id")
	labelID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid label id"})
		return
	}

	if err := h.labelService.Delete(c.Request.Context(), userID, labelID); err != nil {
		h.respondLabelError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *LabelHandler) respondLabelError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, label.ErrEmptyName),
		errors.Is(err, label.ErrNameTooLong),
		errors.Is(err, label.ErrInvalidColor),
		errors.Is(err, label.ErrInvalidLabelID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, label.ErrDuplicateName):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, label.ErrLabelNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		errType, message, status := util.ClassifyStoreError(err)
		h.logger.Error("Label operation failed",
			zap.String("error_type", errType),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": message})
	}
}
