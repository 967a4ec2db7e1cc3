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
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameRequired     = errors.New("username is required")
	ErrUsernameTaken        = errors.New("username already exists")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrInvalidRole          = errors.New("role must be either manager or worker")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserInactive         = errors.New("user account is disabled")
	ErrInvalidResetLink     = errors.New("password reset link is invalid or has expired")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
)

// userPreloads are the associations every authenticated user is loaded with.
var userPreloads = []string{"Groups", "Profile", "ManagerProfile"}

// AuthService handles registration, login, token refresh and password resets.
type AuthService struct {
	userRepo    repository.UserRepository
	tokens      *TokenService
	mailer      Mailer
	frontendURL string
	bcryptCost  int
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tokens *TokenService, mailer Mailer, frontendURL string, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		userRepo:    userRepo,
		tokens:      tokens,
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		bcryptCost:  bcryptCost,
	}
}

// RegisterInput represents the information needed to create a user.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	// Role defaults to worker when empty.
	Role    models.Role
	Profile ProfileFields
}

// RegisterManagerInput adds the manager profile to RegisterInput.
type RegisterManagerInput struct {
	RegisterInput
	CompanyName  string
	WorkLocation string
}

// Register creates a user in the group matching the requested role, defaulting to Workers.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	role := input.Role
	if role == "" {
		role = models.RoleWorker
	}
	if role != models.RoleWorker && role != models.RoleManager {
		return nil, ErrInvalidRole
	}

	var managerProfile *models.ManagerProfile
	if role == models.RoleManager {
		managerProfile = &models.ManagerProfile{}
	}
	return s.register(ctx, input, role, managerProfile)
}

// RegisterManager creates a user in the Managers group along with a manager profile.
func (s *AuthService) RegisterManager(ctx context.Context, input RegisterManagerInput) (*models.User, error) {
	managerProfile := &models.ManagerProfile{
		CompanyName:  strings.TrimSpace(input.CompanyName),
		WorkLocation: strings.TrimSpace(input.WorkLocation),
	}
	return s.register(ctx, input.RegisterInput, models.RoleManager, managerProfile)
}

func (s *AuthService) register(ctx context.Context, input RegisterInput, role models.Role, managerProfile *models.ManagerProfile) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	profile := &models.UserProfile{}
	if err := input.Profile.applyTo(profile); err != nil {
		return nil, err
	}

	taken, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Username:     username,
		Email:        strings.TrimSpace(input.Email),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: string(hashedPassword),
		IsActive:     true,
	}

	if err := s.userRepo.CreateWithGroup(ctx, user, models.GroupForRole(role), profile, managerProfile); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		if errors.Is(err, repository.ErrCreateUser) || errors.Is(err, repository.ErrAssignGroup) || errors.Is(err, repository.ErrCreateProfile) {
			logger.From(ctx).Error("registration failed", "username", username, "error", err)
			return nil, ErrFailedToCreateUser
		}
		return nil, fmt.Errorf("failed to complete registration: %w", err)
	}

	logger.From(ctx).Info("user registered", "user_id", user.ID, "role", role)
	return s.GetUser(ctx, user.ID)
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, *TokenPair, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(input.Username), userPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh validates a refresh token and issues a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	if _, err := s.activeUser(ctx, claims.UserID); err != nil {
		return nil, err
	}
	return s.tokens.IssuePair(claims.UserID)
}

// Authenticate resolves an access token to an active user with its groups loaded.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.tokens.ParseAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	return s.activeUser(ctx, claims.UserID)
}

func (s *AuthService) activeUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id, userPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// RequestPasswordReset mails a reset link when the email belongs to an active
// user. Unknown addresses succeed silently so callers cannot probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	log := logger.From(ctx)

	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Debug("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	token, err := s.tokens.IssuePasswordResetToken(user)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password/%s/%s", s.frontendURL, utils.EncodeUID(user.ID), token)
	mail := Mail{
		To:      user.Email,
		Subject: "Password reset",
		Body:    fmt.Sprintf("Hello %s,\n\nUse the link below to choose a new password:\n%s\n\nThe link expires in one hour.", user.FullName(), link),
	}
	if err := s.mailer.Send(ctx, mail); err != nil {
		return fmt.Errorf("failed to send password reset mail: %w", err)
	}

	log.Info("password reset mail sent", "user_id", user.ID)
	return nil
}

// ConfirmPasswordReset sets a new password when uid and token match.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, uid, token, newPassword string) error {
	userID, err := utils.DecodeUID(uid)
	if err != nil {
		return ErrInvalidResetLink
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetLink
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.tokens.VerifyPasswordResetToken(token, user); err != nil {
		return ErrInvalidResetLink
	}
	if len(newPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return ErrFailedToHashPassword
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hashedPassword)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	logger.From(ctx).Info("password reset completed", "user_id", user.ID)
	return nil
}
