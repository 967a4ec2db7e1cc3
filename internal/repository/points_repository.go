package repository

import (
	"context"

	"github.com/yukikurage/workforce-management-api/internal/database"
	"github.com/yukikurage/workforce-management-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPointsRepository is a GORM implementation of PointsRepository
type GormPointsRepository struct {
	db *gorm.DB
}

// NewPointsRepository creates a new PointsRepository
func NewPointsRepository(db *gorm.DB) PointsRepository {
	return &GormPointsRepository{db: db}
}

// EnsureBalance creates a zero balance row if none exists
func (r *GormPointsRepository) EnsureBalance(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Omit(clause.Associations).
		Create(&models.UserPoints{UserID: userID}).Error
}

// FindBalance finds the balance row of a user
func (r *GormPointsRepository) FindBalance(ctx context.Context, userID uint64) (*models.UserPoints, error) {
	var balance models.UserPoints
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&balance).Error; err != nil {
		return nil, err
	}
	return &balance, nil
}

// Credit atomically adds points to total and available
func (r *GormPointsRepository) Credit(ctx context.Context, userID uint64, points int64) error {
	result := r.db.WithContext(ctx).Model(&models.UserPoints{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total_points":     gorm.Expr("total_points + ?", points),
			"available_points": gorm.Expr("available_points + ?", points),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Debit moves points from available to redeemed when the balance covers them
func (r *GormPointsRepository) Debit(ctx context.Context, userID uint64, points int64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.UserPoints{}).
		Where("user_id = ? AND available_points >= ?", userID, points).
		Updates(map[string]interface{}{
			"available_points": gorm.Expr("available_points - ?", points),
			"redeemed_points":  gorm.Expr("redeemed_points + ?", points),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Refund moves points from redeemed back to available
func (r *GormPointsRepository) Refund(ctx context.Context, userID uint64, points int64) error {
	result := r.db.WithContext(ctx).Model(&models.UserPoints{}).
		Where("user_id = ? AND redeemed_points >= ?", userID, points).
		Updates(map[string]interface{}{
			"available_points": gorm.Expr("available_points + ?", points),
			"redeemed_points":  gorm.Expr("redeemed_points - ?", points),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddTransaction appends a ledger row
func (r *GormPointsRepository) AddTransaction(ctx context.Context, tx *models.PointsTransaction) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(tx).Error
}

// ListTransactions lists ledger rows newest first
func (r *GormPointsRepository) ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.PointsTransaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PointsTransaction{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Type != nil {
		query = query.Where("transaction_type = ?", *filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txs []models.PointsTransaction
	err := query.
		Preload("User").
		Order("timestamp DESC, id DESC").
		Scopes(database.Paginate(filter.Pagination)).
		Find(&txs).Error
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// CreateBadge creates a badge
func (r *GormPointsRepository) CreateBadge(ctx context.Context, badge *models.Badge) error {
	return r.db.WithContext(ctx).Create(badge).Error
}

// ListBadges lists badges by threshold
func (r *GormPointsRepository) ListBadges(ctx context.Context) ([]models.Badge, error) {
	var badges []models.Badge
	err := r.db.WithContext(ctx).Order("points_required ASC, id ASC").Find(&badges).Error
	return badges, err
}

// UnlockBadges records every reachable badge the user does not hold yet
func (r *GormPointsRepository) UnlockBadges(ctx context.Context, userID uint64, total int64) ([]models.Badge, error) {
	earned := r.db.Model(&models.UserBadge{}).
		Select("badge_id").
		Where("user_id = ?", userID)

	var candidates []models.Badge
	err := r.db.WithContext(ctx).
		Where("points_required <= ?", total).
		Where("id NOT IN (?)", earned).
		Order("points_required ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	unlocked := make([]models.Badge, 0, len(candidates))
	for _, badge := range candidates {
		result := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
				DoNothing: true,
			}).
			Omit(clause.Associations).
			Create(&models.UserBadge{UserID: userID, BadgeID: badge.ID})
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 1 {
			unlocked = append(unlocked, badge)
		}
	}
	return unlocked, nil
}

// ListUserBadges lists the badges a user has earned
func (r *GormPointsRepository) ListUserBadges(ctx context.Context, userID uint64) ([]models.UserBadge, error) {
	var badges []models.UserBadge
	err := r.db.WithContext(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("date_earned ASC, id ASC").
		Find(&badges).Error
	return badges, err
}
