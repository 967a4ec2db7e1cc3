package models

import "time"

type Badge struct {
	ID             uint64    `gorm:"primarykey" json:"id"`
	Name           string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description    string    `gorm:"type:text" json:"description"`
	PointsRequired int64     `gorm:"not null;index" json:"points_required"`
	Icon           string    `gorm:"type:varchar(50);not null;default:'medal'" json:"icon"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserBadge records an unlocked badge. Rows are never removed.
type UserBadge struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	UserID     uint64    `gorm:"not null;uniqueIndex:idx_user_badges_user_badge" json:"user_id"`
	BadgeID    uint64    `gorm:"not null;uniqueIndex:idx_user_badges_user_badge" json:"badge_id"`
	DateEarned time.Time `gorm:"autoCreateTime" json:"date_earned"`

	Badge Badge `gorm:"foreignKey:BadgeID" json:"badge"`
	User  User  `gorm:"foreignKey:UserID" json:"-"`
}
