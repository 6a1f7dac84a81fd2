package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"codecritic-backend/internal/models"
	"codecritic-backend/internal/supabase"
)

type StatusHandler struct {
	dbClient *supabase.DatabaseClient
}

func NewStatusHandler(dbClient *supabase.DatabaseClient) *StatusHandler {
	return &StatusHandler{dbClient: dbClient}
}

// GetStatus godoc
// @Summary     Poll a task's evaluation status
// @Tags        status
// @Produce     json
// @Security    Bearer
// @Param       task_id path string true "Task ID (UUID)"
// @Success     200 {object} models.StatusResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /tasks/{task_id}/status [get]
func (h *StatusHandler) GetStatus(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid task id"})
		return
	}

	task, err := h.dbClient.GetTask(taskID, userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, supabase.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, models.ErrorResponse{Error: "task not found"})
		return
	}

	resp := models.StatusResponse{
		TaskID:       task.ID.String(),
		Status:       task.Status,
		ErrorMessage: task.ErrorMessage.String,
		UpdatedAt:    task.UpdatedAt,
	}

	if len(task.Evaluation) > 0 {
		var summary struct {
			Score float64 `json:"score"`
		}
		if err := json.Unmarshal(task.Evaluation, &summary); err == nil {
			resp.Score = &summary.Score
		}
	}

	c.JSON(http.StatusOK, resp)
}
