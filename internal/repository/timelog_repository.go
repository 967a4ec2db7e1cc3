package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/workforce-management-api/internal/database"
	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrLogAlreadyClosed is returned when a log was closed between lookup and update.
var ErrLogAlreadyClosed = errors.New("time log repository: log already closed")

// GormTimeLogRepository is a GORM implementation of TimeLogRepository
type GormTimeLogRepository struct {
	db *gorm.DB
}

// NewTimeLogRepository creates a new TimeLogRepository
func NewTimeLogRepository(db *gorm.DB) TimeLogRepository {
	return &GormTimeLogRepository{db: db}
}

// Create inserts a log; the open-user unique index guards concurrent clock-ins
func (r *GormTimeLogRepository) Create(ctx context.Context, log *models.TimeLog) error {
	if log.ClockOut == nil {
		openUserID := log.UserID
		log.OpenUserID = &openUserID
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(log).Error
}

// FindOpen finds the user's open log
func (r *GormTimeLogRepository) FindOpen(ctx context.Context, userID uint64, taskID *uint64) (*models.TimeLog, error) {
	var log models.TimeLog
	query := r.db.WithContext(ctx).
		Preload("Task").
		Where("user_id = ? AND clock_out IS NULL", userID)
	if taskID != nil {
		query = query.Where("task_id = ?", *taskID)
	}

	if err := query.Order("clock_in DESC").First(&log).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

// Close stamps clock_out and releases the open-user slot
func (r *GormTimeLogRepository) Close(ctx context.Context, log *models.TimeLog, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.TimeLog{}).
		Where("id = ? AND clock_out IS NULL", log.ID).
		Updates(map[string]interface{}{
			"clock_out":    at,
			"open_user_id": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLogAlreadyClosed
	}

	log.ClockOut = &at
	log.OpenUserID = nil
	return nil
}

// CountClosedCycles counts closed logs on a task per user
func (r *GormTimeLogRepository) CountClosedCycles(ctx context.Context, taskID uint64, userIDs []uint64) (map[uint64]int64, error) {
	counts := make(map[uint64]int64, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		UserID uint64
		Cycles int64
	}
	err := r.db.WithContext(ctx).Model(&models.TimeLog{}).
		Select("user_id, COUNT(*) AS cycles").
		Where("task_id = ? AND clock_out IS NOT NULL AND user_id IN ?", taskID, userIDs).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, id := range userIDs {
		counts[id] = 0
	}
	for _, row := range rows {
		counts[row.UserID] = row.Cycles
	}
	return counts, nil
}

// ListByUser lists a user's logs newest first
func (r *GormTimeLogRepository) ListByUser(ctx context.Context, userID uint64, params utils.PaginationParams) ([]models.TimeLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TimeLog{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.TimeLog
	err := query.
		Preload("Task").
		Order("clock_in DESC").
		Scopes(database.Paginate(params)).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// CountOpen counts logs that are currently open
func (r *GormTimeLogRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TimeLog{}).Where("clock_out IS NULL").Count(&count).Error
	return count, err
}

// LoggedDurations sums closed log durations per user
func (r *GormTimeLogRepository) LoggedDurations(ctx context.Context) (map[uint64]time.Duration, error) {
	var logs []models.TimeLog
	err := r.db.WithContext(ctx).
		Select("user_id", "clock_in", "clock_out").
		Where("clock_out IS NOT NULL").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}

	durations := make(map[uint64]time.Duration)
	for _, l := range logs {
		durations[l.UserID] += l.ClockOut.Sub(l.ClockIn)
	}
	return durations, nil
}
