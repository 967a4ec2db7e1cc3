package models

import "time"

// UserPoints caches a user's balance. It must always agree with the sum of the
// user's PointsTransaction rows.
type UserPoints struct {
	ID              uint64    `gorm:"primarykey" json:"id"`
	UserID          uint64    `gorm:"uniqueIndex;not null" json:"user_id"`
	TotalPoints     int64     `gorm:"not null;default:0" json:"total_points"`
	AvailablePoints int64     `gorm:"not null;default:0" json:"available_points"`
	RedeemedPoints  int64     `gorm:"not null;default:0" json:"redeemed_points"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

type TransactionType string

const (
	TransactionEarn   TransactionType = "earn"
	TransactionRedeem TransactionType = "redeem"
	TransactionAdjust TransactionType = "adjust"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionEarn, TransactionRedeem, TransactionAdjust:
		return true
	}
	return false
}

// PointsTransaction is an append-only ledger row. Points are signed.
type PointsTransaction struct {
	ID              uint64          `gorm:"primarykey" json:"id"`
	UserID          uint64          `gorm:"not null;index" json:"user_id"`
	TransactionType TransactionType `gorm:"type:varchar(10);not null" json:"transaction_type"`
	Points          int64           `gorm:"not null" json:"points"`
	Description     string          `gorm:"type:varchar(255)" json:"description"`
	RelatedTaskID   *uint64         `gorm:"index" json:"related_task_id"`
	RelatedRewardID *uint64         `json:"related_reward_id"`
	FeedbackRef     string          `gorm:"type:varchar(100)" json:"feedback_ref,omitempty"`
	Timestamp       time.Time       `gorm:"autoCreateTime;index" json:"timestamp"`

	// Relations
	User        User  `gorm:"foreignKey:UserID" json:"-"`
	RelatedTask *Task `gorm:"foreignKey:RelatedTaskID" json:"-"`
}
