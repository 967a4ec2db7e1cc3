package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/workforce-management-api/internal/database"
	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/utils"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrCreateUser is returned when creating a user fails inside the registration transaction.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrAssignGroup is returned when resolving or joining the role group fails.
	ErrAssignGroup = errors.New("user repository: assign group failed")
	// ErrCreateProfile is returned when storing a profile fails inside the registration transaction.
	ErrCreateProfile = errors.New("user repository: create profile failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// CreateWithGroup creates the user, its group membership and profiles atomically.
func (r *GormUserRepository) CreateWithGroup(ctx context.Context, user *models.User, groupName string, profile *models.UserProfile, managerProfile *models.ManagerProfile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Groups", "Profile", "ManagerProfile").Create(user).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrCreateUser, err)
		}

		var group models.Group
		if err := tx.Where(models.Group{Name: groupName}).FirstOrCreate(&group).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrAssignGroup, err)
		}
		if err := tx.Model(user).Association("Groups").Append(&group); err != nil {
			return fmt.Errorf("%w: %v", ErrAssignGroup, err)
		}

		if profile != nil {
			profile.UserID = user.ID
			if err := tx.Create(profile).Error; err != nil {
				return fmt.Errorf("%w: %v", ErrCreateProfile, err)
			}
			user.Profile = profile
		}

		if managerProfile != nil {
			managerProfile.UserID = user.ID
			if err := tx.Create(managerProfile).Error; err != nil {
				return fmt.Errorf("%w: %v", ErrCreateProfile, err)
			}
			user.ManagerProfile = managerProfile
		}

		return nil
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.User, error) {
	var user models.User
	query := r.db.WithContext(ctx)
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername finds a user by username
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string, preload ...string) (*models.User, error) {
	var user models.User
	query := r.db.WithContext(ctx)
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds the first active user with the given email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?) AND is_active = ?", email, true).
		Order("id").
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsernames returns the users matching the given usernames
func (r *GormUserRepository) FindByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	var users []models.User
	if len(usernames) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("username IN ?", usernames).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ExistsByUsername reports whether a username is taken
func (r *GormUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByIDs counts how many of the given user IDs exist
func (r *GormUserRepository) CountByIDs(ctx context.Context, ids []uint64) (int64, error) {
	var count int64
	if len(ids) == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

// Update saves the user's own columns
func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit("Groups", "Profile", "ManagerProfile", "Assignments").Save(user).Error
}

// UpdatePassword replaces the password hash
func (r *GormUserRepository) UpdatePassword(ctx context.Context, userID uint64, passwordHash string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByGroup lists members of a group with pagination
func (r *GormUserRepository) ListByGroup(ctx context.Context, groupName string, params utils.PaginationParams) ([]models.User, int64, error) {
	members := r.db.Table("user_groups").
		Select("user_groups.user_id").
		Joins("JOIN auth_groups ON auth_groups.id = user_groups.group_id").
		Where("auth_groups.name = ?", groupName)

	query := r.db.WithContext(ctx).Model(&models.User{}).Where("users.id IN (?)", members)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := query.
		Preload("Groups").
		Preload("Profile").
		Order("users.username ASC").
		Scopes(database.Paginate(params)).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// FindProfile finds the worker profile of a user
func (r *GormUserRepository) FindProfile(ctx context.Context, userID uint64) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// SaveProfile inserts or updates a worker profile
func (r *GormUserRepository) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

// FindManagerProfile finds the manager profile of a user
func (r *GormUserRepository) FindManagerProfile(ctx context.Context, userID uint64) (*models.ManagerProfile, error) {
	var profile models.ManagerProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// SaveManagerProfile inserts or updates a manager profile
func (r *GormUserRepository) SaveManagerProfile(ctx context.Context, profile *models.ManagerProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}
