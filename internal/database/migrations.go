package database

import (
	"fmt"

	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddIndexes adds composite indexes used by the list and report queries.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		{"time_logs", "idx_time_logs_task_clock_out", "task_id, clock_out"},
		{"time_logs", "idx_time_logs_user_clock_in", "user_id, clock_in"},
		{"points_transactions", "idx_points_tx_user_timestamp", "user_id, timestamp"},
		{"reward_redemptions", "idx_redemptions_user_requested", "user_id, requested_at"},
		{"tasks", "idx_tasks_assigned_by_status", "assigned_by_id, status"},
	}

	log := logger.L()
	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			log.Debug("index already exists, skipping", "index", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index", "index", idx.name, "table", idx.table, "columns", idx.columns)
	}

	return nil
}

// EnsureGroups inserts the Managers and Workers groups if missing.
func EnsureGroups(db *gorm.DB) error {
	groups := []models.Group{
		{Name: models.GroupManagers},
		{Name: models.GroupWorkers},
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&groups).Error
	if err != nil {
		return fmt.Errorf("failed to seed groups: %w", err)
	}
	return nil
}

// DefaultBadges are installed by the seed command.
func DefaultBadges() []models.Badge {
	return []models.Badge{
		{Name: "Bronze", Description: "Earned your first 50 points", PointsRequired: 50, Icon: "medal"},
		{Name: "Silver", Description: "Reached 100 points", PointsRequired: 100, Icon: "medal"},
		{Name: "Gold", Description: "Reached 250 points", PointsRequired: 250, Icon: "trophy"},
		{Name: "Platinum", Description: "Reached 500 points", PointsRequired: 500, Icon: "star"},
	}
}

// SeedBadges inserts DefaultBadges, leaving existing badges with the same name untouched.
func SeedBadges(db *gorm.DB) (int64, error) {
	badges := DefaultBadges()
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&badges)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to seed badges: %w", result.Error)
	}
	return result.RowsAffected, nil
}
