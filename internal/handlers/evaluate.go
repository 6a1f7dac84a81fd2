package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"codecritic-backend/internal/models"
	"codecritic-backend/internal/services"
	"codecritic-backend/internal/supabase"
)

type EvaluateHandler struct {
	dbClient          *supabase.DatabaseClient
	evaluationService *services.EvaluationService
}

func NewEvaluateHandler(dbClient *supabase.DatabaseClient, evaluationService *services.EvaluationService) *EvaluateHandler {
	return &EvaluateHandler{
		dbClient:          dbClient,
		evaluationService: evaluationService,
	}
}

// Evaluate godoc
// @Summary     Request an AI evaluation for a task
// @Description Accepts immediately and runs the evaluation in the background. Re-evaluating a finished task overwrites its previous result.
// @Tags        evaluate
// @Produce     json
// @Security    Bearer
// @Param       task_id path string true "Task ID (UUID)"
// @Success     202 {object} models.EvaluateResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /tasks/{task_id}/evaluate [post]
func (h *EvaluateHandler) Evaluate(c *gin.Context) {
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

	if err := h.evaluationService.StartEvaluation(task); err != nil {
		if errors.Is(err, services.ErrAlreadyProcessing) {
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: "evaluation already in progress"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to start evaluation",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, models.EvaluateResponse{
		TaskID: task.ID.String(),
		Status: models.TaskStatusInProgress,
	})
}
