package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/workforce-management-api/internal/dto"
	apierrors "github.com/yukikurage/workforce-management-api/internal/errors"
	"github.com/yukikurage/workforce-management-api/internal/middleware"
	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/services"
	"github.com/yukikurage/workforce-management-api/internal/utils"
	"github.com/yukikurage/workforce-management-api/pkg/logger"
)

type RewardHandler struct {
	rewardService *services.RewardService
}

func NewRewardHandler(rewardService *services.RewardService) *RewardHandler {
	return &RewardHandler{rewardService: rewardService}
}

// AvailableRewards lists active rewards the caller may redeem
func (h *RewardHandler) AvailableRewards(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	rewards, err := h.rewardService.AvailableRewards(c.Request.Context(), userID)
	if err != nil {
		respondRewardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rewards": dto.ToRewardDTOs(rewards)})
}

// ManagerRewards lists rewards created by the calling manager
func (h *RewardHandler) ManagerRewards(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	rewards, err := h.rewardService.ManagerRewards(c.Request.Context(), userID)
	if err != nil {
		respondRewardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rewards": dto.ToRewardDTOs(rewards)})
}

// CreateReward adds a reward; eligible_users restricts it to those usernames
func (h *RewardHandler) CreateReward(c *gin.Context) {
	type CreateRewardRequest struct {
		Name                   string            `json:"name" binding:"required,max=100"`
		Description            string            `json:"description"`
		PointCost              int64             `json:"point_cost" binding:"required,gt=0"`
		RewardType             models.RewardType `json:"reward_type"`
		CashValue              *float64          `json:"cash_value" binding:"omitempty,gte=0"`
		DaysOff                *int              `json:"days_off" binding:"omitempty,gte=0"`
		IsActive               *bool             `json:"is_active"`
		RedemptionInstructions string            `json:"redemption_instructions"`
		TaskID                 *uint64           `json:"task_id"`
		EligibleUsers          []string          `json:"eligible_users"`
	}

	var req CreateRewardRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, _ := middleware.GetUserID(c)

	reward, err := h.rewardService.CreateReward(c.Request.Context(), services.CreateRewardInput{
		Name:                   req.Name,
		Description:            req.Description,
		PointCost:              req.PointCost,
		RewardType:             req.RewardType,
		CashValue:              req.CashValue,
		DaysOff:                req.DaysOff,
		IsActive:               req.IsActive,
		RedemptionInstructions: req.RedemptionInstructions,
		TaskID:                 req.TaskID,
		EligibleUsernames:      req.EligibleUsers,
		CreatedByID:            userID,
	})
	if err != nil {
		respondRewardError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToRewardDTO(*reward))
}

// RedeemReward spends the caller's points on a reward named in the body
func (h *RewardHandler) RedeemReward(c *gin.Context) {
	type RedeemRequest struct {
		RewardName string  `json:"reward_name" binding:"required"`
		TaskID     *uint64 `json:"task_id"`
	}

	var req RedeemRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, _ := middleware.GetUserID(c)

	result, err := h.rewardService.RedeemReward(c.Request.Context(), userID, req.RewardName, req.TaskID)
	if err != nil {
		respondRewardError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    result.Message,
		"redemption": dto.ToRedemptionDTO(*result.Redemption),
		"balance":    dto.ToBalanceDTO(*result.Balance),
	})
}

// MyRedemptions lists the caller's redemptions
func (h *RewardHandler) MyRedemptions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	params := utils.GetPaginationParams(c)

	redemptions, total, err := h.rewardService.Redemptions(c.Request.Context(), userID, params)
	if err != nil {
		respondRewardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"redemptions": dto.ToRedemptionDTOs(redemptions),
		"pagination":  params.Response(total),
	})
}

// ManagerRedemptions lists redemptions of the caller's rewards, filterable by status
func (h *RewardHandler) ManagerRedemptions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	params := utils.GetPaginationParams(c)
	var status *models.RedemptionStatus
	if raw := c.Query("status"); raw != "" {
		s := models.RedemptionStatus(raw)
		status = &s
	}

	redemptions, total, err := h.rewardService.ManagerRedemptions(c.Request.Context(), userID, status, params)
	if err != nil {
		respondRewardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"redemptions": dto.ToRedemptionDTOs(redemptions),
		"pagination":  params.Response(total),
	})
}

// ProcessRedemption approves, fulfills or rejects a redemption
func (h *RewardHandler) ProcessRedemption(c *gin.Context) {
	type ProcessRequest struct {
		Status     models.RedemptionStatus `json:"status" binding:"required"`
		AdminNotes string                  `json:"admin_notes"`
	}

	id, ok := parseIDParam(c, "id", "redemption ID")
	if !ok {
		return
	}

	var req ProcessRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, _ := middleware.GetUserID(c)

	redemption, err := h.rewardService.ProcessRedemption(c.Request.Context(), userID, id, services.ProcessRedemptionInput{
		Status:     req.Status,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		respondRewardError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRedemptionDTO(*redemption))
}

func respondRewardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRewardNameRequired),
		errors.Is(err, services.ErrInvalidPointCost),
		errors.Is(err, services.ErrInvalidRewardType),
		errors.Is(err, services.ErrInvalidRedemptionStatus),
		errors.Is(err, services.ErrUnknownUsers):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInsufficientPoints):
		apierrors.InsufficientBalance(c, err.Error())
	case errors.Is(err, services.ErrRedemptionAlreadyFinished):
		apierrors.InvalidOperation(c, err.Error())
	case errors.Is(err, services.ErrNotEligible):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrRewardNotFound),
		errors.Is(err, services.ErrRedemptionNotFound),
		errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		logger.From(c.Request.Context()).Error("reward request failed", "error", err)
		apierrors.InternalError(c, "")
	}
}
