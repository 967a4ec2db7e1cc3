package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/repository"
	"github.com/yukikurage/workforce-management-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrInvalidGender           = errors.New("gender must be one of male, female, others")
	ErrInvalidWorkAvailability = errors.New("work availability must be one of fulltime, parttime, freelance")
)

// ProfileFields carries optional worker profile updates. Nil fields are left untouched.
type ProfileFields struct {
	PhoneNumber            *string
	Gender                 *models.Gender
	CurrentAddress         *string
	PermanentAddress       *string
	CityTown               *string
	StateProvince          *string
	EducationLevel         *string
	Certifications         *string
	Skills                 []string
	LanguagesSpoken        []string
	WorkAvailability       *models.WorkAvailability
	WorkSchedulePreference *string
}

func (f ProfileFields) applyTo(p *models.UserProfile) error {
	if f.Gender != nil && *f.Gender != "" && !f.Gender.Valid() {
		return ErrInvalidGender
	}
	if f.WorkAvailability != nil && *f.WorkAvailability != "" && !f.WorkAvailability.Valid() {
		return ErrInvalidWorkAvailability
	}

	setString(&p.PhoneNumber, f.PhoneNumber)
	setString(&p.CurrentAddress, f.CurrentAddress)
	setString(&p.PermanentAddress, f.PermanentAddress)
	setString(&p.CityTown, f.CityTown)
	setString(&p.StateProvince, f.StateProvince)
	setString(&p.EducationLevel, f.EducationLevel)
	setString(&p.Certifications, f.Certifications)
	setString(&p.WorkSchedulePreference, f.WorkSchedulePreference)
	if f.Gender != nil {
		p.Gender = *f.Gender
	}
	if f.WorkAvailability != nil {
		p.WorkAvailability = *f.WorkAvailability
	}
	if f.Skills != nil {
		p.Skills = trimList(f.Skills)
	}
	if f.LanguagesSpoken != nil {
		p.LanguagesSpoken = trimList(f.LanguagesSpoken)
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ProfileService manages the user's own account data and the worker directory.
type ProfileService struct {
	store *repository.Store
}

// NewProfileService creates a new ProfileService.
func NewProfileService(store *repository.Store) *ProfileService {
	return &ProfileService{store: store}
}

// UpdateProfileInput represents a profile update. Manager fields are ignored for workers.
type UpdateProfileInput struct {
	FirstName    *string
	LastName     *string
	Email        *string
	Profile      ProfileFields
	CompanyName  *string
	WorkLocation *string
}

// GetProfile returns the user with both profiles loaded.
func (s *ProfileService) GetProfile(ctx context.Context, userID uint64) (*models.User, error) {
	user, err := s.store.Users.FindByID(ctx, userID, userPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateProfile updates the user row and profiles in one transaction.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uint64, input UpdateProfileInput) (*models.User, error) {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		user, err := tx.Users.FindByID(ctx, userID, "Groups")
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to find user: %w", err)
		}

		setString(&user.FirstName, input.FirstName)
		setString(&user.LastName, input.LastName)
		setString(&user.Email, input.Email)
		if err := tx.Users.Update(ctx, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		profile, err := tx.Users.FindProfile(ctx, userID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to find profile: %w", err)
			}
			profile = &models.UserProfile{UserID: userID}
		}
		if err := input.Profile.applyTo(profile); err != nil {
			return err
		}
		if err := tx.Users.SaveProfile(ctx, profile); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}

		if !user.IsManager() {
			return nil
		}

		managerProfile, err := tx.Users.FindManagerProfile(ctx, userID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to find manager profile: %w", err)
			}
			managerProfile = &models.ManagerProfile{UserID: userID}
		}
		setString(&managerProfile.CompanyName, input.CompanyName)
		setString(&managerProfile.WorkLocation, input.WorkLocation)
		if err := tx.Users.SaveManagerProfile(ctx, managerProfile); err != nil {
			return fmt.Errorf("failed to save manager profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetProfile(ctx, userID)
}

// ListWorkers lists members of the Workers group.
func (s *ProfileService) ListWorkers(ctx context.Context, params utils.PaginationParams) ([]models.User, int64, error) {
	workers, total, err := s.store.Users.ListByGroup(ctx, models.GroupWorkers, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list workers: %w", err)
	}
	return workers, total, nil
}
