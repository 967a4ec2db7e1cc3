package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Username     string         `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"type:varchar(255);index" json:"email"`
	FirstName    string         `gorm:"type:varchar(150)" json:"first_name"`
	LastName     string         `gorm:"type:varchar(150)" json:"last_name"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	IsActive     bool           `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Groups         []Group          `gorm:"many2many:user_groups" json:"groups,omitempty"`
	Profile        *UserProfile     `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	ManagerProfile *ManagerProfile  `gorm:"foreignKey:UserID" json:"manager_profile,omitempty"`
	Assignments    []TaskAssignment `gorm:"foreignKey:UserID" json:"-"`
}

// InGroup reports whether the user belongs to the named group. Groups must be preloaded.
func (u *User) InGroup(name string) bool {
	for _, g := range u.Groups {
		if g.Name == name {
			return true
		}
	}
	return false
}

func (u *User) IsManager() bool {
	return u.InGroup(GroupManagers)
}

func (u *User) IsWorker() bool {
	return u.InGroup(GroupWorkers)
}

// Role derives the API facing role name from group membership.
func (u *User) Role() Role {
	if u.IsManager() {
		return RoleManager
	}
	return RoleWorker
}

func (u *User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Username
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	}
	return u.FirstName + " " + u.LastName
}
