package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/repository"
	"github.com/yukikurage/workforce-management-api/internal/utils"
	"github.com/yukikurage/workforce-management-api/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrRewardNotFound            = errors.New("reward not found or inactive")
	ErrRewardNameRequired        = errors.New("reward name is required")
	ErrInvalidPointCost          = errors.New("point cost must be a positive number")
	ErrInvalidRewardType         = errors.New("reward type must be one of bonus, timeoff, other")
	ErrNotEligible               = errors.New("you are not eligible for this reward")
	ErrInsufficientPoints        = errors.New("insufficient points")
	ErrRedemptionNotFound        = errors.New("redemption not found")
	ErrInvalidRedemptionStatus   = errors.New("status must be one of approved, rejected, fulfilled")
	ErrRedemptionAlreadyFinished = errors.New("redemption has already been rejected or fulfilled")
)

// RewardService manages the reward catalog and redemptions
type RewardService struct {
	store       *repository.Store
	fulfillment Fulfillment
	now         func() time.Time
}

// NewRewardService creates a new RewardService. A nil fulfillment uses DefaultFulfillment.
func NewRewardService(store *repository.Store, fulfillment Fulfillment) *RewardService {
	if fulfillment == nil {
		fulfillment = DefaultFulfillment()
	}
	return &RewardService{store: store, fulfillment: fulfillment, now: time.Now}
}

// CreateRewardInput represents input for creating a reward
type CreateRewardInput struct {
	Name                   string
	Description            string
	PointCost              int64
	RewardType             models.RewardType
	CashValue              *float64
	DaysOff                *int
	IsActive               *bool
	RedemptionInstructions string
	TaskID                 *uint64
	EligibleUsernames      []string
	CreatedByID            uint64
}

// RedeemResult is returned after a successful redemption
type RedeemResult struct {
	Message    string                   `json:"message"`
	Redemption *models.RewardRedemption `json:"redemption"`
	Balance    *models.UserPoints       `json:"balance"`
}

// ProcessRedemptionInput carries a manager's decision
type ProcessRedemptionInput struct {
	Status     models.RedemptionStatus
	AdminNotes string
}

// CreateReward adds a reward to the catalog. Eligible users restrict who may redeem it.
func (s *RewardService) CreateReward(ctx context.Context, input CreateRewardInput) (*models.Reward, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrRewardNameRequired
	}
	if input.PointCost <= 0 {
		return nil, ErrInvalidPointCost
	}
	if input.RewardType == "" {
		input.RewardType = models.RewardTypeOther
	}
	if !input.RewardType.Valid() {
		return nil, ErrInvalidRewardType
	}
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	var rewardID uint64
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		eligible, err := resolveUsers(ctx, tx.Users, nil, input.EligibleUsernames)
		if err != nil {
			return err
		}
		if input.TaskID != nil {
			if _, err := findTask(ctx, tx, *input.TaskID); err != nil {
				return err
			}
		}

		createdBy := input.CreatedByID
		reward := &models.Reward{
			Name:                   name,
			Description:            input.Description,
			PointCost:              input.PointCost,
			RewardType:             input.RewardType,
			CashValue:              input.CashValue,
			DaysOff:                input.DaysOff,
			IsActive:               active,
			RedemptionInstructions: input.RedemptionInstructions,
			TaskID:                 input.TaskID,
			CreatedByID:            &createdBy,
			EligibleUsers:          eligible,
		}
		if err := tx.Rewards.Create(ctx, reward); err != nil {
			return fmt.Errorf("failed to create reward: %w", err)
		}
		rewardID = reward.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.From(ctx).Info("reward created", "reward_id", rewardID, "created_by", input.CreatedByID)
	reward, err := s.store.Rewards.FindByID(ctx, rewardID, "EligibleUsers")
	if err != nil {
		return nil, fmt.Errorf("failed to load reward: %w", err)
	}
	return reward, nil
}

// AvailableRewards lists active rewards the user may redeem
func (s *RewardService) AvailableRewards(ctx context.Context, userID uint64) ([]models.Reward, error) {
	rewards, err := s.store.Rewards.ListAvailable(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	return rewards, nil
}

// ManagerRewards lists the rewards a manager created
func (s *RewardService) ManagerRewards(ctx context.Context, managerID uint64) ([]models.Reward, error) {
	rewards, err := s.store.Rewards.ListByCreator(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	return rewards, nil
}

// RedeemReward spends the user's points on an active reward, found by
// case-insensitive name. The debit, ledger row, redemption and fulfillment
// note commit together.
func (s *RewardService) RedeemReward(ctx context.Context, userID uint64, rewardName string, taskID *uint64) (*RedeemResult, error) {
	result := &RedeemResult{}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		reward, err := tx.Rewards.FindActiveByName(ctx, strings.TrimSpace(rewardName))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRewardNotFound
			}
			return fmt.Errorf("failed to find reward: %w", err)
		}

		eligible, err := tx.Rewards.IsEligible(ctx, reward.ID, userID)
		if err != nil {
			return fmt.Errorf("failed to check eligibility: %w", err)
		}
		if !eligible {
			return ErrNotEligible
		}

		if err := tx.Points.EnsureBalance(ctx, userID); err != nil {
			return fmt.Errorf("failed to create balance: %w", err)
		}
		ok, err := tx.Points.Debit(ctx, userID, reward.PointCost)
		if err != nil {
			return fmt.Errorf("failed to debit points: %w", err)
		}
		if !ok {
			return ErrInsufficientPoints
		}

		entry := &models.PointsTransaction{
			UserID:          userID,
			TransactionType: models.TransactionRedeem,
			Points:          -reward.PointCost,
			Description:     "Redeemed reward: " + reward.Name,
			RelatedTaskID:   taskID,
			RelatedRewardID: &reward.ID,
		}
		if err := tx.Points.AddTransaction(ctx, entry); err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}

		redemption := &models.RewardRedemption{
			UserID:     userID,
			RewardID:   reward.ID,
			TaskID:     taskID,
			PointsUsed: reward.PointCost,
			Status:     models.RedemptionPending,
		}
		note, err := s.fulfillment.fulfill(ctx, reward, redemption)
		if err != nil {
			return fmt.Errorf("failed to start fulfillment: %w", err)
		}
		redemption.FulfillmentNote = note
		if err := tx.Rewards.CreateRedemption(ctx, redemption); err != nil {
			return fmt.Errorf("failed to create redemption: %w", err)
		}
		redemption.Reward = *reward

		balance, err := tx.Points.FindBalance(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load balance: %w", err)
		}

		result.Message = fmt.Sprintf("Successfully redeemed %s. %s", reward.Name, note)
		result.Redemption = redemption
		result.Balance = balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.From(ctx).Info("reward redeemed",
		"user_id", userID,
		"reward_id", result.Redemption.RewardID,
		"points", result.Redemption.PointsUsed,
	)
	return result, nil
}

// Redemptions lists a user's own redemptions
func (s *RewardService) Redemptions(ctx context.Context, userID uint64, params utils.PaginationParams) ([]models.RewardRedemption, int64, error) {
	return s.listRedemptions(ctx, repository.RedemptionFilter{UserID: &userID, Pagination: params})
}

// ManagerRedemptions lists redemptions of the manager's rewards
func (s *RewardService) ManagerRedemptions(ctx context.Context, managerID uint64, status *models.RedemptionStatus, params utils.PaginationParams) ([]models.RewardRedemption, int64, error) {
	if status != nil && !status.Valid() {
		return nil, 0, ErrInvalidRedemptionStatus
	}
	return s.listRedemptions(ctx, repository.RedemptionFilter{
		RewardCreatedByID: &managerID,
		Status:            status,
		Pagination:        params,
	})
}

func (s *RewardService) listRedemptions(ctx context.Context, filter repository.RedemptionFilter) ([]models.RewardRedemption, int64, error) {
	redemptions, total, err := s.store.Rewards.ListRedemptions(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list redemptions: %w", err)
	}
	return redemptions, total, nil
}

// ProcessRedemption applies a manager's decision. Rejecting refunds the points
// with an adjust transaction; rejected and fulfilled are final.
func (s *RewardService) ProcessRedemption(ctx context.Context, managerID, redemptionID uint64, input ProcessRedemptionInput) (*models.RewardRedemption, error) {
	switch input.Status {
	case models.RedemptionApproved, models.RedemptionRejected, models.RedemptionFulfilled:
	default:
		return nil, ErrInvalidRedemptionStatus
	}

	var redemption *models.RewardRedemption
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		redemption, err = tx.Rewards.FindRedemption(ctx, redemptionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRedemptionNotFound
			}
			return fmt.Errorf("failed to find redemption: %w", err)
		}
		if redemption.Status == models.RedemptionRejected || redemption.Status == models.RedemptionFulfilled {
			return ErrRedemptionAlreadyFinished
		}

		if input.Status == models.RedemptionRejected {
			if err := tx.Points.Refund(ctx, redemption.UserID, redemption.PointsUsed); err != nil {
				return fmt.Errorf("failed to refund points: %w", err)
			}
			entry := &models.PointsTransaction{
				UserID:          redemption.UserID,
				TransactionType: models.TransactionAdjust,
				Points:          redemption.PointsUsed,
				Description:     "Refund for rejected redemption: " + redemption.Reward.Name,
				RelatedTaskID:   redemption.TaskID,
				RelatedRewardID: &redemption.RewardID,
			}
			if err := tx.Points.AddTransaction(ctx, entry); err != nil {
				return fmt.Errorf("failed to record refund: %w", err)
			}
		}

		now := s.now()
		redemption.Status = input.Status
		redemption.AdminNotes = strings.TrimSpace(input.AdminNotes)
		redemption.ProcessedAt = &now
		if err := tx.Rewards.UpdateRedemption(ctx, redemption); err != nil {
			return fmt.Errorf("failed to update redemption: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.From(ctx).Info("redemption processed",
		"redemption_id", redemptionID,
		"status", input.Status,
		"processed_by", managerID,
	)
	return redemption, nil
}
