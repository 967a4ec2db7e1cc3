package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/workforce-management-api/internal/dto"
	apierrors "github.com/yukikurage/workforce-management-api/internal/errors"
	"github.com/yukikurage/workforce-management-api/internal/middleware"
	"github.com/yukikurage/workforce-management-api/internal/services"
	"github.com/yukikurage/workforce-management-api/internal/utils"
	"github.com/yukikurage/workforce-management-api/pkg/logger"
)

// ProfileHandler serves the caller's own account and the worker directory
type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetProfile returns the caller with both profiles
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	user, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondProfileError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserProfileDTO(*user))
}

// UpdateProfile updates account and profile fields. Manager fields are ignored for workers.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	type UpdateProfileRequest struct {
		FirstName    *string `json:"first_name" binding:"omitempty,max=150"`
		LastName     *string `json:"last_name" binding:"omitempty,max=150"`
		Email        *string `json:"email" binding:"omitempty,email"`
		CompanyName  *string `json:"company_name" binding:"omitempty,max=255"`
		WorkLocation *string `json:"work_location" binding:"omitempty,max=255"`
		profileRequest
	}

	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, _ := middleware.GetUserID(c)
	user, err := h.profileService.UpdateProfile(c.Request.Context(), userID, services.UpdateProfileInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Profile:      req.fields(),
		CompanyName:  req.CompanyName,
		WorkLocation: req.WorkLocation,
	})
	if err != nil {
		respondProfileError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserProfileDTO(*user))
}

// ListWorkers lists every member of the Workers group
func (h *ProfileHandler) ListWorkers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	workers, total, err := h.profileService.ListWorkers(c.Request.Context(), params)
	if err != nil {
		respondProfileError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workers":    dto.ToUserProfileDTOs(workers),
		"pagination": params.Response(total),
	})
}

func respondProfileError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidGender),
		errors.Is(err, services.ErrInvalidWorkAvailability):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		logger.From(c.Request.Context()).Error("profile request failed", "error", err)
		apierrors.InternalError(c, "")
	}
}
