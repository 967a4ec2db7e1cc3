package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/workforce-management-api/internal/constants"
	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/repository"
	"github.com/yukikurage/workforce-management-api/internal/utils"
	"github.com/yukikurage/workforce-management-api/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrInvalidPoints          = errors.New("points must be a positive number")
	ErrRecipientRequired      = errors.New("user_id or username is required")
	ErrBadgeNameRequired      = errors.New("badge name is required")
	ErrBadgeExists            = errors.New("a badge with this name already exists")
	ErrInvalidTransactionType = errors.New("transaction type must be one of earn, redeem, adjust")
)

// PointsService manages balances, the points ledger and badges
type PointsService struct {
	store *repository.Store
}

// NewPointsService creates a new PointsService
func NewPointsService(store *repository.Store) *PointsService {
	return &PointsService{store: store}
}

// AwardInput describes a points award. UserID wins over Username when both are set.
type AwardInput struct {
	UserID      uint64
	Username    string
	Points      int64
	Description string
	TaskID      *uint64
	FeedbackRef string
}

// AwardResult is the state after an award
type AwardResult struct {
	Balance     *models.UserPoints        `json:"balance"`
	Transaction *models.PointsTransaction `json:"transaction"`
	NewBadges   []models.Badge            `json:"new_badges"`
}

// AwardPoints credits a user and records an earn transaction, unlocking badges on the way
func (s *PointsService) AwardPoints(ctx context.Context, input AwardInput) (*AwardResult, error) {
	if input.Points <= 0 {
		return nil, ErrInvalidPoints
	}

	var result *AwardResult
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		userID, err := resolveRecipient(ctx, tx, input)
		if err != nil {
			return err
		}
		input.UserID = userID

		result, err = award(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.From(ctx).Info("points awarded",
		"user_id", input.UserID,
		"points", input.Points,
		"new_badges", len(result.NewBadges),
	)
	return result, nil
}

func resolveRecipient(ctx context.Context, tx *repository.Store, input AwardInput) (uint64, error) {
	var (
		user *models.User
		err  error
	)
	switch {
	case input.UserID != 0:
		user, err = tx.Users.FindByID(ctx, input.UserID)
	case strings.TrimSpace(input.Username) != "":
		user, err = tx.Users.FindByUsername(ctx, strings.TrimSpace(input.Username))
	default:
		return 0, ErrRecipientRequired
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to find user: %w", err)
	}
	return user.ID, nil
}

// award runs inside the caller's transaction so clock-out completion and
// manual awards share one code path.
func award(ctx context.Context, tx *repository.Store, input AwardInput) (*AwardResult, error) {
	if err := tx.Points.EnsureBalance(ctx, input.UserID); err != nil {
		return nil, fmt.Errorf("failed to create balance: %w", err)
	}
	if err := tx.Points.Credit(ctx, input.UserID, input.Points); err != nil {
		return nil, fmt.Errorf("failed to credit points: %w", err)
	}

	entry := &models.PointsTransaction{
		UserID:          input.UserID,
		TransactionType: models.TransactionEarn,
		Points:          input.Points,
		Description:     input.Description,
		RelatedTaskID:   input.TaskID,
		FeedbackRef:     input.FeedbackRef,
	}
	if err := tx.Points.AddTransaction(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	balance, err := tx.Points.FindBalance(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load balance: %w", err)
	}

	badges, err := tx.Points.UnlockBadges(ctx, input.UserID, balance.TotalPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to unlock badges: %w", err)
	}

	return &AwardResult{Balance: balance, Transaction: entry, NewBadges: badges}, nil
}

// CheckBadges awards any badge the user's lifetime total qualifies for.
// Users without a balance row count as having earned nothing.
func (s *PointsService) CheckBadges(ctx context.Context, userID uint64) ([]models.Badge, error) {
	var unlocked []models.Badge
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var total int64
		balance, err := tx.Points.FindBalance(ctx, userID)
		switch {
		case err == nil:
			total = balance.TotalPoints
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to load balance: %w", err)
		}

		unlocked, err = tx.Points.UnlockBadges(ctx, userID, total)
		if err != nil {
			return fmt.Errorf("failed to unlock badges: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return unlocked, nil
}

// Balance returns the user's balance; users who never earned get zeros
func (s *PointsService) Balance(ctx context.Context, userID uint64) (*models.UserPoints, error) {
	balance, err := s.store.Points.FindBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.UserPoints{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to load balance: %w", err)
	}
	return balance, nil
}

// History lists one user's ledger
func (s *PointsService) History(ctx context.Context, userID uint64, params utils.PaginationParams) ([]models.PointsTransaction, int64, error) {
	return s.Transactions(ctx, repository.TransactionFilter{UserID: &userID, Pagination: params})
}

// Transactions lists the ledger across users
func (s *PointsService) Transactions(ctx context.Context, filter repository.TransactionFilter) ([]models.PointsTransaction, int64, error) {
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, 0, ErrInvalidTransactionType
	}

	txs, total, err := s.store.Points.ListTransactions(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, total, nil
}

// CreateBadgeInput represents input for creating a badge
type CreateBadgeInput struct {
	Name           string
	Description    string
	PointsRequired int64
	Icon           string
}

// CreateBadge adds a badge to the catalog
func (s *PointsService) CreateBadge(ctx context.Context, input CreateBadgeInput) (*models.Badge, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrBadgeNameRequired
	}
	if input.PointsRequired < 0 {
		return nil, ErrInvalidPoints
	}
	icon := strings.TrimSpace(input.Icon)
	if icon == "" {
		icon = constants.DefaultBadgeIcon
	}

	badge := &models.Badge{
		Name:           name,
		Description:    input.Description,
		PointsRequired: input.PointsRequired,
		Icon:           icon,
	}
	if err := s.store.Points.CreateBadge(ctx, badge); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrBadgeExists
		}
		return nil, fmt.Errorf("failed to create badge: %w", err)
	}
	return badge, nil
}

// ListBadges lists the badge catalog
func (s *PointsService) ListBadges(ctx context.Context) ([]models.Badge, error) {
	badges, err := s.store.Points.ListBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	return badges, nil
}

// UserBadges lists the badges a user has earned
func (s *PointsService) UserBadges(ctx context.Context, userID uint64) ([]models.UserBadge, error) {
	badges, err := s.store.Points.ListUserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user badges: %w", err)
	}
	return badges, nil
}
