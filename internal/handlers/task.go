package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/yukikurage/workforce-management-api/internal/dto"
	apierrors "github.com/yukikurage/workforce-management-api/internal/errors"
	"github.com/yukikurage/workforce-management-api/internal/middleware"
	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/services"
	"github.com/yukikurage/workforce-management-api/internal/utils"
	"github.com/yukikurage/workforce-management-api/pkg/logger"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns tasks the manager assigned, or tasks assigned to the worker.
// Can filter by status and project_id
func (h *TaskHandler) ListTasks(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	projectID, ok := parseOptionalUint(c, "project_id")
	if !ok {
		return
	}
	var status *models.TaskStatus
	if raw := c.Query("status"); raw != "" {
		s := models.TaskStatus(raw)
		status = &s
	}
	params := utils.GetPaginationParams(c)

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), user, services.ListTasksInput{
		Status:     status,
		ProjectID:  projectID,
		Pagination: params,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks":      dto.ToTaskDTOs(tasks),
		"pagination": params.Response(total),
	})
}

// GetTask returns a specific task by ID
// Task is already loaded with relations by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task and assigns workers by ID or username
func (h *TaskHandler) CreateTask(c *gin.Context) {
	type CreateTaskRequest struct {
		Title               string     `json:"title" binding:"required,max=255"`
		Description         string     `json:"description"`
		ProjectID           *uint64    `json:"project_id"`
		Shift               string     `json:"shift" binding:"max=100"`
		EstimatedCompletion *time.Time `json:"estimated_completion"`
		MinClockCycles      int        `json:"min_clock_cycles" binding:"gte=0"`
		AssigneeIDs         []uint64   `json:"assignee_ids"`
		AssigneeUsernames   []string   `json:"assigned_to"`
	}

	var req CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		Title:               req.Title,
		Description:         req.Description,
		ProjectID:           req.ProjectID,
		Shift:               req.Shift,
		EstimatedCompletion: req.EstimatedCompletion,
		MinClockCycles:      req.MinClockCycles,
		AssigneeIDs:         req.AssigneeIDs,
		AssigneeUsernames:   req.AssigneeUsernames,
		AssignedByID:        user.ID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask updates an existing task. Sending null for project_id or
// estimated_completion clears it.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	type UpdateTaskRequest struct {
		Title               *string            `json:"title" binding:"omitempty,max=255"`
		Description         *string            `json:"description"`
		Status              *models.TaskStatus `json:"status"`
		ProjectID           *uint64            `json:"project_id"`
		Shift               *string            `json:"shift" binding:"omitempty,max=100"`
		EstimatedCompletion *time.Time         `json:"estimated_completion"`
		MinClockCycles      *int               `json:"min_clock_cycles"`
	}

	taskID, ok := parseIDParam(c, "id", "task ID")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		respondBindError(c, err)
		return
	}
	// Parse raw JSON again to detect which fields were sent as null
	var rawReq map[string]any
	if err := c.ShouldBindBodyWith(&rawReq, binding.JSON); err != nil {
		respondBindError(c, err)
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	input := services.UpdateTaskInput{
		Title:               req.Title,
		Description:         req.Description,
		Status:              req.Status,
		ProjectID:           req.ProjectID,
		Shift:               req.Shift,
		EstimatedCompletion: req.EstimatedCompletion,
		MinClockCycles:      req.MinClockCycles,
	}
	if v, sent := rawReq["project_id"]; sent && v == nil {
		input.ClearProject = true
	}
	if v, sent := rawReq["estimated_completion"]; sent && v == nil {
		input.ClearEstimatedCompletion = true
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), user.ID, taskID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id", "task ID")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), taskID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

type assignRequest struct {
	UserIDs   []uint64 `json:"user_ids"`
	Usernames []string `json:"usernames"`
}

// AssignTask assigns users to a task
func (h *TaskHandler) AssignTask(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id", "task ID")
	if !ok {
		return
	}

	var req assignRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.AssignUsers(c.Request.Context(), taskID, req.UserIDs, req.Usernames)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UnassignTask removes users from a task
func (h *TaskHandler) UnassignTask(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id", "task ID")
	if !ok {
		return
	}

	var req assignRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.UnassignUsers(c.Request.Context(), taskID, req.UserIDs)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CompleteTask forces the task to completed without awarding points
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	completed, err := h.taskService.CompleteTask(c.Request.Context(), user, task.ID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*completed))
}

// TaskStatus reports per-assignee clock cycle progress
func (h *TaskHandler) TaskStatus(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}
	userID, _ := middleware.GetUserID(c)

	progress, err := h.taskService.TaskStatus(c.Request.Context(), userID, task.ID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleEmpty),
		errors.Is(err, services.ErrInvalidTaskStatus),
		errors.Is(err, services.ErrInvalidMinClockCycles),
		errors.Is(err, services.ErrNoUserIDsProvided),
		errors.Is(err, services.ErrUnknownUsers):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTaskAlreadyCompleted):
		apierrors.InvalidOperation(c, err.Error())
	case errors.Is(err, services.ErrTaskPermissionDenied):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		logger.From(c.Request.Context()).Error("task request failed", "error", err)
		apierrors.InternalError(c, "")
	}
}
