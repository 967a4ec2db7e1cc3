package dto

import (
	"time"

	"github.com/yukikurage/workforce-management-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        uint64      `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email,omitempty"`
	FirstName string      `json:"first_name,omitempty"`
	LastName  string      `json:"last_name,omitempty"`
	Role      models.Role `json:"role,omitempty"`
}

// UserProfileDTO is the full account view returned to the account owner
type UserProfileDTO struct {
	UserDTO
	IsActive       bool                   `json:"is_active"`
	DateJoined     time.Time              `json:"date_joined"`
	Profile        *models.UserProfile    `json:"profile,omitempty"`
	ManagerProfile *models.ManagerProfile `json:"manager_profile,omitempty"`
}

// ToUserDTO converts a User model to UserDTO. Role is only set when groups are loaded.
func ToUserDTO(user models.User) UserDTO {
	dto := UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
	if len(user.Groups) > 0 {
		dto.Role = user.Role()
	}
	return dto
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = ToUserDTO(u)
	}
	return dtos
}

// ToUserProfileDTO converts a user with both profiles preloaded
func ToUserProfileDTO(user models.User) UserProfileDTO {
	return UserProfileDTO{
		UserDTO:        ToUserDTO(user),
		IsActive:       user.IsActive,
		DateJoined:     user.CreatedAt,
		Profile:        user.Profile,
		ManagerProfile: user.ManagerProfile,
	}
}

// ToUserProfileDTOs converts a slice of users with profiles
func ToUserProfileDTOs(users []models.User) []UserProfileDTO {
	dtos := make([]UserProfileDTO, len(users))
	for i, u := range users {
		dtos[i] = ToUserProfileDTO(u)
	}
	return dtos
}

func optionalUser(user models.User) *UserDTO {
	if user.ID == 0 {
		return nil
	}
	dto := ToUserDTO(user)
	return &dto
}
