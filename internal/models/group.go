package models

import "time"

type Role string

const (
	RoleManager Role = "manager"
	RoleWorker  Role = "worker"
)

const (
	GroupManagers = "Managers"
	GroupWorkers  = "Workers"
)

// GroupForRole maps a requested role to the group that grants it.
func GroupForRole(role Role) string {
	if role == RoleManager {
		return GroupManagers
	}
	return GroupWorkers
}

type Group struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`

	Users []User `gorm:"many2many:user_groups" json:"-"`
}

// TableName avoids GROUPS, a reserved word in MySQL 8.
func (Group) TableName() string {
	return "auth_groups"
}
