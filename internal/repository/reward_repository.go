package repository

import (
	"context"

	"github.com/yukikurage/workforce-management-api/internal/database"
	"github.com/yukikurage/workforce-management-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRewardRepository is a GORM implementation of RewardRepository
type GormRewardRepository struct {
	db *gorm.DB
}

// NewRewardRepository creates a new RewardRepository
func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &GormRewardRepository{db: db}
}

// Create creates a reward and links its eligible users
func (r *GormRewardRepository) Create(ctx context.Context, reward *models.Reward) error {
	eligible := reward.EligibleUsers
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(reward).Error; err != nil {
			return err
		}
		if len(eligible) == 0 {
			return nil
		}
		return tx.Model(reward).Omit("EligibleUsers.*").Association("EligibleUsers").Append(eligible)
	})
}

// FindByID finds a reward by ID with optional preloading
func (r *GormRewardRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Reward, error) {
	var reward models.Reward
	query := r.db.WithContext(ctx)
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&reward, id).Error; err != nil {
		return nil, err
	}
	return &reward, nil
}

// FindActiveByName finds an active reward by case-insensitive name
func (r *GormRewardRepository) FindActiveByName(ctx context.Context, name string) (*models.Reward, error) {
	var reward models.Reward
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?) AND is_active = ?", name, true).
		Order("id ASC").
		First(&reward).Error
	if err != nil {
		return nil, err
	}
	return &reward, nil
}

// ListAvailable lists active rewards that are unrestricted or list the user
func (r *GormRewardRepository) ListAvailable(ctx context.Context, userID uint64) ([]models.Reward, error) {
	restricted := r.db.Table("reward_eligible_users").
		Select("1").
		Where("reward_eligible_users.reward_id = rewards.id")
	listed := r.db.Table("reward_eligible_users").
		Select("1").
		Where("reward_eligible_users.reward_id = rewards.id").
		Where("reward_eligible_users.user_id = ?", userID)

	var rewards []models.Reward
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("(NOT EXISTS (?) OR EXISTS (?))", restricted, listed).
		Order("point_cost ASC, id ASC").
		Find(&rewards).Error
	return rewards, err
}

// ListByCreator lists rewards created by a manager
func (r *GormRewardRepository) ListByCreator(ctx context.Context, creatorID uint64) ([]models.Reward, error) {
	var rewards []models.Reward
	err := r.db.WithContext(ctx).
		Preload("EligibleUsers").
		Where("created_by_id = ?", creatorID).
		Order("created_at DESC").
		Find(&rewards).Error
	return rewards, err
}

// IsEligible reports whether the user may redeem the reward
func (r *GormRewardRepository) IsEligible(ctx context.Context, rewardID, userID uint64) (bool, error) {
	var rows []struct {
		UserID uint64
	}
	err := r.db.WithContext(ctx).Table("reward_eligible_users").
		Select("user_id").
		Where("reward_id = ?", rewardID).
		Scan(&rows).Error
	if err != nil {
		return false, err
	}

	if len(rows) == 0 {
		return true, nil
	}
	for _, row := range rows {
		if row.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// CreateRedemption creates a redemption request
func (r *GormRewardRepository) CreateRedemption(ctx context.Context, redemption *models.RewardRedemption) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(redemption).Error
}

// FindRedemption finds a redemption with its reward
func (r *GormRewardRepository) FindRedemption(ctx context.Context, id uint64) (*models.RewardRedemption, error) {
	var redemption models.RewardRedemption
	if err := r.db.WithContext(ctx).Preload("Reward").Preload("User").First(&redemption, id).Error; err != nil {
		return nil, err
	}
	return &redemption, nil
}

// UpdateRedemption saves a redemption's own columns
func (r *GormRewardRepository) UpdateRedemption(ctx context.Context, redemption *models.RewardRedemption) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(redemption).Error
}

// ListRedemptions lists redemptions newest first
func (r *GormRewardRepository) ListRedemptions(ctx context.Context, filter RedemptionFilter) ([]models.RewardRedemption, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RewardRedemption{})
	if filter.UserID != nil {
		query = query.Where("reward_redemptions.user_id = ?", *filter.UserID)
	}
	if filter.RewardCreatedByID != nil {
		owned := r.db.Model(&models.Reward{}).Select("id").Where("created_by_id = ?", *filter.RewardCreatedByID)
		query = query.Where("reward_redemptions.reward_id IN (?)", owned)
	}
	if filter.Status != nil {
		query = query.Where("reward_redemptions.status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var redemptions []models.RewardRedemption
	err := query.
		Preload("Reward").
		Preload("User").
		Order("reward_redemptions.requested_at DESC, reward_redemptions.id DESC").
		Scopes(database.Paginate(filter.Pagination)).
		Find(&redemptions).Error
	if err != nil {
		return nil, 0, err
	}
	return redemptions, total, nil
}
