package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/workforce-management-api/internal/dto"
	apierrors "github.com/yukikurage/workforce-management-api/internal/errors"
	"github.com/yukikurage/workforce-management-api/internal/middleware"
	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/repository"
	"github.com/yukikurage/workforce-management-api/internal/services"
	"github.com/yukikurage/workforce-management-api/internal/utils"
	"github.com/yukikurage/workforce-management-api/pkg/logger"
)

// PointsHandler serves balances, the ledger and badges
type PointsHandler struct {
	pointsService *services.PointsService
}

func NewPointsHandler(pointsService *services.PointsService) *PointsHandler {
	return &PointsHandler{pointsService: pointsService}
}

// Balance returns the caller's balance
func (h *PointsHandler) Balance(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	balance, err := h.pointsService.Balance(c.Request.Context(), userID)
	if err != nil {
		respondPointsError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBalanceDTO(*balance))
}

// History lists the caller's transactions newest first
func (h *PointsHandler) History(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	params := utils.GetPaginationParams(c)

	txs, total, err := h.pointsService.History(c.Request.Context(), userID, params)
	if err != nil {
		respondPointsError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": dto.ToTransactionDTOs(txs),
		"pagination":   params.Response(total),
	})
}

// AllTransactions lists the ledger of every user, filterable by user_id and type
func (h *PointsHandler) AllTransactions(c *gin.Context) {
	userID, ok := parseOptionalUint(c, "user_id")
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)
	filter := repository.TransactionFilter{UserID: userID, Pagination: params}
	if raw := c.Query("type"); raw != "" {
		t := models.TransactionType(raw)
		filter.Type = &t
	}

	txs, total, err := h.pointsService.Transactions(c.Request.Context(), filter)
	if err != nil {
		respondPointsError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": dto.ToTransactionDTOs(txs),
		"pagination":   params.Response(total),
	})
}

// AwardPoints credits a user, addressed by user_id or username
func (h *PointsHandler) AwardPoints(c *gin.Context) {
	type AwardRequest struct {
		UserID      uint64  `json:"user_id"`
		Username    string  `json:"username"`
		Points      int64   `json:"points" binding:"required,gt=0"`
		Description string  `json:"description" binding:"max=255"`
		TaskID      *uint64 `json:"task_id"`
		FeedbackRef string  `json:"feedback_ref" binding:"max=100"`
	}

	var req AwardRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.pointsService.AwardPoints(c.Request.Context(), services.AwardInput{
		UserID:      req.UserID,
		Username:    req.Username,
		Points:      req.Points,
		Description: req.Description,
		TaskID:      req.TaskID,
		FeedbackRef: req.FeedbackRef,
	})
	if err != nil {
		respondPointsError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"balance":     dto.ToBalanceDTO(*result.Balance),
		"transaction": dto.ToTransactionDTO(*result.Transaction),
		"new_badges":  result.NewBadges,
	})
}

// CheckBadges unlocks any badge the caller's lifetime total qualifies for
func (h *PointsHandler) CheckBadges(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	badges, err := h.pointsService.CheckBadges(c.Request.Context(), userID)
	if err != nil {
		respondPointsError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"new_badges": badges})
}

// ListBadges lists the badge catalog
func (h *PointsHandler) ListBadges(c *gin.Context) {
	badges, err := h.pointsService.ListBadges(c.Request.Context())
	if err != nil {
		respondPointsError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"badges": badges})
}

// MyBadges lists the badges the caller has earned
func (h *PointsHandler) MyBadges(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	badges, err := h.pointsService.UserBadges(c.Request.Context(), userID)
	if err != nil {
		respondPointsError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"badges": dto.ToUserBadgeDTOs(badges)})
}

// CreateBadge adds a badge to the catalog
func (h *PointsHandler) CreateBadge(c *gin.Context) {
	type CreateBadgeRequest struct {
		Name           string `json:"name" binding:"required,max=100"`
		Description    string `json:"description"`
		PointsRequired int64  `json:"points_required" binding:"gte=0"`
		Icon           string `json:"icon" binding:"max=50"`
	}

	var req CreateBadgeRequest
	if !bindJSON(c, &req) {
		return
	}

	badge, err := h.pointsService.CreateBadge(c.Request.Context(), services.CreateBadgeInput{
		Name:           req.Name,
		Description:    req.Description,
		PointsRequired: req.PointsRequired,
		Icon:           req.Icon,
	})
	if err != nil {
		respondPointsError(c, err)
		return
	}

	c.JSON(http.StatusCreated, badge)
}

func respondPointsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidPoints),
		errors.Is(err, services.ErrRecipientRequired),
		errors.Is(err, services.ErrBadgeNameRequired),
		errors.Is(err, services.ErrInvalidTransactionType):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrBadgeExists):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		logger.From(c.Request.Context()).Error("points request failed", "error", err)
		apierrors.InternalError(c, "")
	}
}
