package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/workforce-management-api/internal/dto"
	apierrors "github.com/yukikurage/workforce-management-api/internal/errors"
	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/services"
	"github.com/yukikurage/workforce-management-api/internal/utils"
	"github.com/yukikurage/workforce-management-api/pkg/logger"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// ListProjects returns the caller's projects, optionally filtered by status
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var status *models.ProjectStatus
	if raw := c.Query("status"); raw != "" {
		s := models.ProjectStatus(raw)
		status = &s
	}
	params := utils.GetPaginationParams(c)

	projects, total, err := h.projectService.ListProjects(c.Request.Context(), user, status, params)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects":   dto.ToProjectDTOs(projects),
		"pagination": params.Response(total),
	})
}

// GetProject returns a project the caller created or works on
func (h *ProjectHandler) GetProject(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "project ID")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(c.Request.Context(), user, id)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// CreateProject creates a project owned by the calling manager
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	type CreateProjectRequest struct {
		Name            string               `json:"name" binding:"required,max=255"`
		Description     string               `json:"description"`
		Status          models.ProjectStatus `json:"status"`
		Budget          float64              `json:"budget" binding:"gte=0"`
		StartDate       *time.Time           `json:"start_date"`
		EndDate         *time.Time           `json:"end_date"`
		WorkerIDs       []uint64             `json:"worker_ids"`
		WorkerUsernames []string             `json:"worker_usernames"`
	}

	var req CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), services.CreateProjectInput{
		Name:            req.Name,
		Description:     req.Description,
		Status:          req.Status,
		Budget:          req.Budget,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		WorkerIDs:       req.WorkerIDs,
		WorkerUsernames: req.WorkerUsernames,
		CreatedByID:     user.ID,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// UpdateProject updates a project; only its creator may do so
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	type UpdateProjectRequest struct {
		Name        *string               `json:"name" binding:"omitempty,max=255"`
		Description *string               `json:"description"`
		Status      *models.ProjectStatus `json:"status"`
		Budget      *float64              `json:"budget"`
		StartDate   *time.Time            `json:"start_date"`
		EndDate     *time.Time            `json:"end_date"`
		WorkerIDs   *[]uint64             `json:"worker_ids"`
	}

	id, ok := parseIDParam(c, "id", "project ID")
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	project, err := h.projectService.UpdateProject(c.Request.Context(), user.ID, id, services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Budget:      req.Budget,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		WorkerIDs:   req.WorkerIDs,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject deletes a project; its tasks are kept
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "project ID")
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(c.Request.Context(), user.ID, id); err != nil {
		respondProjectError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func respondProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProjectNameRequired),
		errors.Is(err, services.ErrInvalidProjectStatus),
		errors.Is(err, services.ErrInvalidProjectDates),
		errors.Is(err, services.ErrNegativeBudget),
		errors.Is(err, services.ErrUnknownUsers):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNotProjectOwner):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		logger.From(c.Request.Context()).Error("project request failed", "error", err)
		apierrors.InternalError(c, "")
	}
}
