package dto

import (
	"time"

	"github.com/yukikurage/workforce-management-api/internal/models"
)

// BalanceDTO represents a user's points balance
type BalanceDTO struct {
	UserID          uint64 `json:"user_id"`
	TotalPoints     int64  `json:"total_points"`
	AvailablePoints int64  `json:"available_points"`
	RedeemedPoints  int64  `json:"redeemed_points"`
}

// TransactionDTO represents a ledger row
type TransactionDTO struct {
	ID              uint64                 `json:"id"`
	User            *UserDTO               `json:"user,omitempty"`
	TransactionType models.TransactionType `json:"transaction_type"`
	Points          int64                  `json:"points"`
	Description     string                 `json:"description"`
	RelatedTaskID   *uint64                `json:"related_task_id"`
	RelatedRewardID *uint64                `json:"related_reward_id"`
	FeedbackRef     string                 `json:"feedback_ref,omitempty"`
	Timestamp       time.Time              `json:"timestamp"`
}

// UserBadgeDTO is a badge the user has earned
type UserBadgeDTO struct {
	Badge      models.Badge `json:"badge"`
	DateEarned time.Time    `json:"date_earned"`
}

// RewardDTO represents a catalog reward
type RewardDTO struct {
	ID                     uint64            `json:"id"`
	Name                   string            `json:"name"`
	Description            string            `json:"description"`
	PointCost              int64             `json:"point_cost"`
	RewardType             models.RewardType `json:"reward_type"`
	CashValue              *float64          `json:"cash_value"`
	DaysOff                *int              `json:"days_off"`
	IsActive               bool              `json:"is_active"`
	RedemptionInstructions string            `json:"redemption_instructions"`
	TaskID                 *uint64           `json:"task_id"`
	CreatedByID            *uint64           `json:"created_by_id"`
	EligibleUsers          []UserDTO         `json:"eligible_users"`
	CreatedAt              time.Time         `json:"created_at"`
}

// RedemptionDTO represents a redemption request
type RedemptionDTO struct {
	ID              uint64                  `json:"id"`
	User            *UserDTO                `json:"user,omitempty"`
	Reward          RewardDTO               `json:"reward"`
	TaskID          *uint64                 `json:"task_id"`
	PointsUsed      int64                   `json:"points_used"`
	Status          models.RedemptionStatus `json:"status"`
	FulfillmentNote string                  `json:"fulfillment_note"`
	AdminNotes      string                  `json:"admin_notes"`
	RequestedAt     time.Time               `json:"requested_at"`
	ProcessedAt     *time.Time              `json:"processed_at"`
}

func ToBalanceDTO(b models.UserPoints) BalanceDTO {
	return BalanceDTO{
		UserID:          b.UserID,
		TotalPoints:     b.TotalPoints,
		AvailablePoints: b.AvailablePoints,
		RedeemedPoints:  b.RedeemedPoints,
	}
}

func ToTransactionDTO(tx models.PointsTransaction) TransactionDTO {
	return TransactionDTO{
		ID:              tx.ID,
		User:            optionalUser(tx.User),
		TransactionType: tx.TransactionType,
		Points:          tx.Points,
		Description:     tx.Description,
		RelatedTaskID:   tx.RelatedTaskID,
		RelatedRewardID: tx.RelatedRewardID,
		FeedbackRef:     tx.FeedbackRef,
		Timestamp:       tx.Timestamp,
	}
}

func ToTransactionDTOs(txs []models.PointsTransaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = ToTransactionDTO(tx)
	}
	return dtos
}

func ToUserBadgeDTOs(badges []models.UserBadge) []UserBadgeDTO {
	dtos := make([]UserBadgeDTO, len(badges))
	for i, b := range badges {
		dtos[i] = UserBadgeDTO{Badge: b.Badge, DateEarned: b.DateEarned}
	}
	return dtos
}

func ToRewardDTO(r models.Reward) RewardDTO {
	return RewardDTO{
		ID:                     r.ID,
		Name:                   r.Name,
		Description:            r.Description,
		PointCost:              r.PointCost,
		RewardType:             r.RewardType,
		CashValue:              r.CashValue,
		DaysOff:                r.DaysOff,
		IsActive:               r.IsActive,
		RedemptionInstructions: r.RedemptionInstructions,
		TaskID:                 r.TaskID,
		CreatedByID:            r.CreatedByID,
		EligibleUsers:          ToUserDTOs(r.EligibleUsers),
		CreatedAt:              r.CreatedAt,
	}
}

func ToRewardDTOs(rewards []models.Reward) []RewardDTO {
	dtos := make([]RewardDTO, len(rewards))
	for i, r := range rewards {
		dtos[i] = ToRewardDTO(r)
	}
	return dtos
}

func ToRedemptionDTO(r models.RewardRedemption) RedemptionDTO {
	return RedemptionDTO{
		ID:              r.ID,
		User:            optionalUser(r.User),
		Reward:          ToRewardDTO(r.Reward),
		TaskID:          r.TaskID,
		PointsUsed:      r.PointsUsed,
		Status:          r.Status,
		FulfillmentNote: r.FulfillmentNote,
		AdminNotes:      r.AdminNotes,
		RequestedAt:     r.RequestedAt,
		ProcessedAt:     r.ProcessedAt,
	}
}

func ToRedemptionDTOs(rs []models.RewardRedemption) []RedemptionDTO {
	dtos := make([]RedemptionDTO, len(rs))
	for i, r := range rs {
		dtos[i] = ToRedemptionDTO(r)
	}
	return dtos
}
