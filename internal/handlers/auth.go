package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/workforce-management-api/internal/constants"
	"github.com/yukikurage/workforce-management-api/internal/dto"
	apierrors "github.com/yukikurage/workforce-management-api/internal/errors"
	"github.com/yukikurage/workforce-management-api/internal/middleware"
	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/services"
	"github.com/yukikurage/workforce-management-api/pkg/logger"
)

// CookieOptions controls how auth cookies are written
type CookieOptions struct {
	Secure bool
	Domain string
}

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
	cookies     CookieOptions
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, cookies CookieOptions) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookies:     cookies,
	}
}

type profileRequest struct {
	PhoneNumber            *string                  `json:"phone_number" binding:"omitempty,max=15"`
	Gender                 *models.Gender           `json:"gender"`
	CurrentAddress         *string                  `json:"current_address"`
	PermanentAddress       *string                  `json:"permanent_address"`
	CityTown               *string                  `json:"city_town" binding:"omitempty,max=100"`
	StateProvince          *string                  `json:"state_province" binding:"omitempty,max=100"`
	EducationLevel         *string                  `json:"education_level" binding:"omitempty,max=100"`
	Certifications         *string                  `json:"certifications"`
	Skills                 []string                 `json:"skills"`
	LanguagesSpoken        []string                 `json:"languages_spoken"`
	WorkAvailability       *models.WorkAvailability `json:"work_availability"`
	WorkSchedulePreference *string                  `json:"work_schedule_preference" binding:"omitempty,max=255"`
}

func (r profileRequest) fields() services.ProfileFields {
	return services.ProfileFields{
		PhoneNumber:            r.PhoneNumber,
		Gender:                 r.Gender,
		CurrentAddress:         r.CurrentAddress,
		PermanentAddress:       r.PermanentAddress,
		CityTown:               r.CityTown,
		StateProvince:          r.StateProvince,
		EducationLevel:         r.EducationLevel,
		Certifications:         r.Certifications,
		Skills:                 r.Skills,
		LanguagesSpoken:        r.LanguagesSpoken,
		WorkAvailability:       r.WorkAvailability,
		WorkSchedulePreference: r.WorkSchedulePreference,
	}
}

type registerRequest struct {
	Username  string      `json:"username" binding:"required,min=3,max=150"`
	Email     string      `json:"email" binding:"omitempty,email"`
	Password  string      `json:"password" binding:"required"`
	FirstName string      `json:"first_name" binding:"max=150"`
	LastName  string      `json:"last_name" binding:"max=150"`
	Role      models.Role `json:"role"`
	profileRequest
}

func (r registerRequest) input() services.RegisterInput {
	return services.RegisterInput{
		Username:  r.Username,
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Role:      r.Role,
		Profile:   r.fields(),
	}
}

// Register creates a user; the role defaults to worker.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.input())
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserProfileDTO(*user))
}

// RegisterManager creates a manager along with the manager profile.
func (h *AuthHandler) RegisterManager(c *gin.Context) {
	type RegisterManagerRequest struct {
		registerRequest
		CompanyName  string `json:"company_name" binding:"max=255"`
		WorkLocation string `json:"work_location" binding:"max=255"`
	}

	var req RegisterManagerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.RegisterManager(c.Request.Context(), services.RegisterManagerInput{
		RegisterInput: req.input(),
		CompanyName:   req.CompanyName,
		WorkLocation:  req.WorkLocation,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserProfileDTO(*user))
}

// Login authenticates a user and sets the token cookies.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, pair, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	h.setTokenCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    dto.ToUserProfileDTO(*user),
	})
}

// Refresh rotates the token cookies using the refresh cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(constants.RefreshTokenCookieName)
	if err != nil || refreshToken == "" {
		apierrors.Unauthorized(c, "Refresh token not found")
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	h.setTokenCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{"refreshed": true})
}

// Logout clears both token cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearCookie(c, constants.AccessTokenCookieName)
	h.clearCookie(c, constants.RefreshTokenCookieName)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Authenticated reports that the access token is valid; RequireAuth has already run.
func (h *AuthHandler) Authenticated(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"authenticated": true})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserProfileDTO(*user))
}

// RequestPasswordReset mails a reset link. It answers success for unknown emails.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	type ResetRequest struct {
		Email string `json:"email" binding:"required,email"`
	}

	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "A valid email is required")
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the email is registered, a reset link has been sent"})
}

// ConfirmPasswordReset sets a new password from a reset link.
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	type ConfirmRequest struct {
		UID         string `json:"uid" binding:"required"`
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}

	var req ConfirmRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ConfirmPasswordReset(c.Request.Context(), req.UID, req.Token, req.NewPassword); err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

func (h *AuthHandler) setTokenCookies(c *gin.Context, pair *services.TokenPair) {
	now := time.Now()
	h.setCookie(c, constants.AccessTokenCookieName, pair.AccessToken, int(pair.AccessExpiresAt.Sub(now).Seconds()))
	h.setCookie(c, constants.RefreshTokenCookieName, pair.RefreshToken, int(pair.RefreshExpiresAt.Sub(now).Seconds()))
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", h.cookies.Domain, h.cookies.Secure, true)
}

func (h *AuthHandler) clearCookie(c *gin.Context, name string) {
	h.setCookie(c, name, "", -1)
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrUsernameRequired),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidGender),
		errors.Is(err, services.ErrInvalidWorkAvailability),
		errors.Is(err, services.ErrInvalidResetLink):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrUsernameTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, err.Error())
	case errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrTokenExpired),
		errors.Is(err, services.ErrUserInactive):
		apierrors.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrFailedToHashPassword),
		errors.Is(err, services.ErrFailedToCreateUser):
		apierrors.InternalError(c, err.Error())
	default:
		logger.From(c.Request.Context()).Error("auth request failed", "error", err)
		apierrors.InternalError(c, "Internal server error")
	}
}
