package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles every repository over one *gorm.DB so services can run
// multi-repository work inside a single transaction.
type Store struct {
	db *gorm.DB

	Users    UserRepository
	Projects ProjectRepository
	Tasks    TaskRepository
	TimeLogs TimeLogRepository
	Points   PointsRepository
	Rewards  RewardRepository
}

// NewStore creates a Store backed by db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		Users:    NewUserRepository(db),
		Projects: NewProjectRepository(db),
		Tasks:    NewTaskRepository(db),
		TimeLogs: NewTimeLogRepository(db),
		Points:   NewPointsRepository(db),
		Rewards:  NewRewardRepository(db),
	}
}

// Transaction runs fn with a Store bound to a database transaction. Returning
// an error from fn rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// DB exposes the underlying handle, mainly for health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}
