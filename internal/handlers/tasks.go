package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"codecritic-backend/internal/middleware"
	"codecritic-backend/internal/models"
	"codecritic-backend/internal/supabase"
)

type TasksHandler struct {
	dbClient     *supabase.DatabaseClient
	maxCodeChars int
}

func NewTasksHandler(dbClient *supabase.DatabaseClient, maxCodeChars int) *TasksHandler {
	return &TasksHandler{
		dbClient:     dbClient,
		maxCodeChars: maxCodeChars,
	}
}

// userIDFromContext parses the authenticated caller's id set by the auth
// middleware.
func userIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return uuid.Nil, false
	}
	return userID, true
}

// CreateTask godoc
// @Summary     Create a coding-task submission
// @Description Stores a task with optional code and language tag. Evaluation starts separately.
// @Tags        tasks
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateTaskRequest true "Task submission"
// @Success     200 {object} models.TaskResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     413 {object} models.ErrorResponse
// @Router      /tasks [post]
func (h *TasksHandler) CreateTask(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	// Oversized submissions are rejected before any persistence.
	if len(req.Code) > h.maxCodeChars {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Error: "code submission too large",
		})
		return
	}

	task, err := h.dbClient.CreateTask(userID, req.Title, req.Description, req.Code, req.Language)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create task",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, taskResponse(task, true))
}

// ListTasks godoc
// @Summary     List the caller's tasks
// @Tags        tasks
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.TaskListResponse
// @Router      /tasks [get]
func (h *TasksHandler) ListTasks(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	tasks, err := h.dbClient.ListTasks(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list tasks",
			Message: err.Error(),
		})
		return
	}

	summaries := make([]models.TaskSummary, len(tasks))
	for i, t := range tasks {
		summaries[i] = models.TaskSummary{
			ID:        t.ID.String(),
			Title:     t.Title,
			Language:  t.Language.String,
			Status:    t.Status,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		}
	}

	c.JSON(http.StatusOK, models.TaskListResponse{Tasks: summaries})
}

// GetTask godoc
// @Summary     Get a task with its evaluation report
// @Description Premium insights are included only when the report is unlocked.
// @Tags        tasks
// @Produce     json
// @Security    Bearer
// @Param       task_id path string true "Task ID (UUID)"
// @Success     200 {object} models.TaskResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /tasks/{task_id} [get]
func (h *TasksHandler) GetTask(c *gin.Context) {
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

	unlocked := task.PremiumUnlocked
	if !unlocked {
		if profile, err := h.dbClient.GetOrCreateProfile(userID); err == nil {
			unlocked = profile.IsPremium
		}
	}

	c.JSON(http.StatusOK, taskResponse(task, unlocked))
}

// DeleteTask godoc
// @Summary     Delete a task
// @Tags        tasks
// @Produce     json
// @Security    Bearer
// @Param       task_id path string true "Task ID (UUID)"
// @Success     200 {object} map[string]string
// @Failure     404 {object} models.ErrorResponse
// @Router      /tasks/{task_id} [delete]
func (h *TasksHandler) DeleteTask(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid task id"})
		return
	}

	if err := h.dbClient.DeleteTask(taskID, userID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, supabase.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, models.ErrorResponse{Error: "task not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// taskResponse converts a task row to its API shape. When the premium
// report is not unlocked, the premiumInsights section is stripped from the
// evaluation before it leaves the server.
func taskResponse(task *models.Task, premiumUnlocked bool) models.TaskResponse {
	evaluation := task.Evaluation
	if len(evaluation) > 0 && !premiumUnlocked {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(evaluation, &fields); err == nil {
			delete(fields, "premiumInsights")
			if stripped, err := json.Marshal(fields); err == nil {
				evaluation = stripped
			}
		}
	}

	return models.TaskResponse{
		ID:              task.ID.String(),
		Title:           task.Title,
		Description:     task.Description,
		Code:            task.Code.String,
		Language:        task.Language.String,
		Status:          task.Status,
		Evaluation:      evaluation,
		PremiumUnlocked: task.PremiumUnlocked,
		ErrorMessage:    task.ErrorMessage.String,
		CreatedAt:       task.CreatedAt,
		UpdatedAt:       task.UpdatedAt,
	}
}
