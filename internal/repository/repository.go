package repository

import (
	"context"
	"time"

	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/utils"
)

// UserRepository defines the interface for user, group and profile data access
type UserRepository interface {
	// CreateWithGroup creates a user, adds it to the named group and stores
	// whichever profiles are non-nil within a single transaction.
	CreateWithGroup(ctx context.Context, user *models.User, groupName string, profile *models.UserProfile, managerProfile *models.ManagerProfile) error

	// FindByID finds a user by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.User, error)

	// FindByUsername finds a user by username with optional preloading
	FindByUsername(ctx context.Context, username string, preload ...string) (*models.User, error)

	// FindByEmail finds the first active user with the given email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByUsernames returns the users matching the given usernames
	FindByUsernames(ctx context.Context, usernames []string) ([]models.User, error)

	// ExistsByUsername reports whether a username is taken
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// CountByIDs counts how many of the given user IDs exist
	CountByIDs(ctx context.Context, ids []uint64) (int64, error)

	// Update saves the user's own columns
	Update(ctx context.Context, user *models.User) error

	// UpdatePassword replaces the password hash
	UpdatePassword(ctx context.Context, userID uint64, passwordHash string) error

	// ListByGroup lists members of a group with pagination
	ListByGroup(ctx context.Context, groupName string, params utils.PaginationParams) ([]models.User, int64, error)

	FindProfile(ctx context.Context, userID uint64) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, profile *models.UserProfile) error
	FindManagerProfile(ctx context.Context, userID uint64) (*models.ManagerProfile, error)
	SaveManagerProfile(ctx context.Context, profile *models.ManagerProfile) error
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a project together with its worker links
	Create(ctx context.Context, project *models.Project) error

	// FindByID finds a project by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Project, error)

	// List retrieves projects with filtering and pagination
	List(ctx context.Context, filter ProjectFilter) ([]models.Project, int64, error)

	// Update saves the project's own columns
	Update(ctx context.Context, project *models.Project) error

	// ReplaceWorkers sets the project's workers to exactly the given users
	ReplaceWorkers(ctx context.Context, project *models.Project, workerIDs []uint64) error

	// Delete soft deletes a project
	Delete(ctx context.Context, id uint64) error

	// CountByStatus counts projects per status, optionally limited to one creator
	CountByStatus(ctx context.Context, createdByID *uint64) (map[models.ProjectStatus]int64, error)
}

// ProjectFilter holds filtering options for listing projects
type ProjectFilter struct {
	CreatedByID *uint64
	WorkerID    *uint64
	Status      *models.ProjectStatus
	Pagination  utils.PaginationParams
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// Update updates a task
	Update(ctx context.Context, task *models.Task) error

	// Delete soft deletes a task
	Delete(ctx context.Context, id uint64) error

	// AssignUsers assigns multiple users to a task
	AssignUsers(ctx context.Context, taskID uint64, userIDs []uint64) error

	// UnassignUsers removes user assignments from a task
	UnassignUsers(ctx context.Context, taskID uint64, userIDs []uint64) error

	// FindAssignment finds a specific task assignment
	FindAssignment(ctx context.Context, taskID, userID uint64) (*models.TaskAssignment, error)

	// AssigneeIDs returns the IDs of users currently assigned to a task
	AssigneeIDs(ctx context.Context, taskID uint64) ([]uint64, error)

	// CountByStatus counts tasks per status using the same filter as List
	CountByStatus(ctx context.Context, filter TaskFilter) (map[models.TaskStatus]int64, error)

	// AssignmentStats aggregates assigned and completed task counts per assignee
	AssignmentStats(ctx context.Context) ([]AssignmentStat, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	AssignedByID   *uint64
	AssignedUserID *uint64
	ProjectID      *uint64
	Status         *models.TaskStatus
	Pagination     utils.PaginationParams
}

// AssignmentStat is one row of AssignmentStats
type AssignmentStat struct {
	UserID    uint64
	Assigned  int64
	Completed int64
}

// TimeLogRepository defines the interface for clock-in/clock-out data access
type TimeLogRepository interface {
	// Create inserts a log. Inserting a second open log for a user fails with gorm.ErrDuplicatedKey.
	Create(ctx context.Context, log *models.TimeLog) error

	// FindOpen finds the user's open log, restricted to a task when taskID is set
	FindOpen(ctx context.Context, userID uint64, taskID *uint64) (*models.TimeLog, error)

	// Close stamps clock_out on an open log. Returns ErrLogAlreadyClosed if it was closed concurrently.
	Close(ctx context.Context, log *models.TimeLog, at time.Time) error

	// CountClosedCycles counts closed logs on a task per user
	CountClosedCycles(ctx context.Context, taskID uint64, userIDs []uint64) (map[uint64]int64, error)

	// ListByUser lists a user's logs newest first
	ListByUser(ctx context.Context, userID uint64, params utils.PaginationParams) ([]models.TimeLog, int64, error)

	// CountOpen counts logs that are currently open
	CountOpen(ctx context.Context) (int64, error)

	// LoggedDurations sums closed log durations per user
	LoggedDurations(ctx context.Context) (map[uint64]time.Duration, error)
}

// PointsRepository defines the interface for balances, the ledger and badges
type PointsRepository interface {
	// EnsureBalance creates a zero balance row for the user if none exists
	EnsureBalance(ctx context.Context, userID uint64) error

	FindBalance(ctx context.Context, userID uint64) (*models.UserPoints, error)

	// Credit atomically adds points to total and available
	Credit(ctx context.Context, userID uint64, points int64) error

	// Debit moves points from available to redeemed only if the balance covers them.
	// It reports false when the balance was insufficient.
	Debit(ctx context.Context, userID uint64, points int64) (bool, error)

	// Refund moves points from redeemed back to available
	Refund(ctx context.Context, userID uint64, points int64) error

	// AddTransaction appends a ledger row
	AddTransaction(ctx context.Context, tx *models.PointsTransaction) error

	// ListTransactions lists ledger rows newest first
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.PointsTransaction, int64, error)

	CreateBadge(ctx context.Context, badge *models.Badge) error
	ListBadges(ctx context.Context) ([]models.Badge, error)

	// UnlockBadges records every badge whose threshold is within total and returns the newly earned ones
	UnlockBadges(ctx context.Context, userID uint64, total int64) ([]models.Badge, error)

	ListUserBadges(ctx context.Context, userID uint64) ([]models.UserBadge, error)
}

// TransactionFilter holds filtering options for the points ledger
type TransactionFilter struct {
	UserID     *uint64
	Type       *models.TransactionType
	Pagination utils.PaginationParams
}

// RewardRepository defines the interface for the reward catalog and redemptions
type RewardRepository interface {
	// Create creates a reward with its eligible users
	Create(ctx context.Context, reward *models.Reward) error

	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Reward, error)

	// FindActiveByName finds an active reward by case-insensitive name
	FindActiveByName(ctx context.Context, name string) (*models.Reward, error)

	// ListAvailable lists active rewards the user is eligible for
	ListAvailable(ctx context.Context, userID uint64) ([]models.Reward, error)

	// ListByCreator lists rewards created by a manager
	ListByCreator(ctx context.Context, creatorID uint64) ([]models.Reward, error)

	// IsEligible reports whether the user may redeem the reward.
	// A reward without eligible users is open to everyone.
	IsEligible(ctx context.Context, rewardID, userID uint64) (bool, error)

	CreateRedemption(ctx context.Context, redemption *models.RewardRedemption) error
	FindRedemption(ctx context.Context, id uint64) (*models.RewardRedemption, error)
	UpdateRedemption(ctx context.Context, redemption *models.RewardRedemption) error

	// ListRedemptions lists redemptions newest first
	ListRedemptions(ctx context.Context, filter RedemptionFilter) ([]models.RewardRedemption, int64, error)
}

// RedemptionFilter holds filtering options for redemptions
type RedemptionFilter struct {
	UserID            *uint64
	RewardCreatedByID *uint64
	Status            *models.RedemptionStatus
	Pagination        utils.PaginationParams
}
