package models

import (
	"time"

	"gorm.io/gorm"
)

type RewardType string

const (
	RewardTypeBonus   RewardType = "bonus"
	RewardTypeTimeOff RewardType = "timeoff"
	RewardTypeOther   RewardType = "other"
)

func (t RewardType) Valid() bool {
	switch t {
	case RewardTypeBonus, RewardTypeTimeOff, RewardTypeOther:
		return true
	}
	return false
}

type Reward struct {
	ID                     uint64         `gorm:"primarykey" json:"id"`
	Name                   string         `gorm:"type:varchar(100);not null;index" json:"name"`
	Description            string         `gorm:"type:text" json:"description"`
	PointCost              int64          `gorm:"not null" json:"point_cost"`
	RewardType             RewardType     `gorm:"type:varchar(20);not null;default:'other'" json:"reward_type"`
	CashValue              *float64       `gorm:"type:decimal(10,2)" json:"cash_value"`
	DaysOff                *int           `json:"days_off"`
	IsActive               bool           `gorm:"not null" json:"is_active"`
	RedemptionInstructions string         `gorm:"type:text" json:"redemption_instructions"`
	TaskID                 *uint64        `json:"task_id"`
	CreatedByID            *uint64        `gorm:"index" json:"created_by_id"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	EligibleUsers []User `gorm:"many2many:reward_eligible_users" json:"eligible_users,omitempty"`
	Task          *Task  `gorm:"foreignKey:TaskID" json:"-"`
}

type RedemptionStatus string

const (
	RedemptionPending   RedemptionStatus = "pending"
	RedemptionApproved  RedemptionStatus = "approved"
	RedemptionRejected  RedemptionStatus = "rejected"
	RedemptionFulfilled RedemptionStatus = "fulfilled"
)

func (s RedemptionStatus) Valid() bool {
	switch s {
	case RedemptionPending, RedemptionApproved, RedemptionRejected, RedemptionFulfilled:
		return true
	}
	return false
}

type RewardRedemption struct {
	ID              uint64           `gorm:"primarykey" json:"id"`
	UserID          uint64           `gorm:"not null;index" json:"user_id"`
	RewardID        uint64           `gorm:"not null;index" json:"reward_id"`
	TaskID          *uint64          `json:"task_id"`
	PointsUsed      int64            `gorm:"not null" json:"points_used"`
	Status          RedemptionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	FulfillmentNote string           `gorm:"type:text" json:"fulfillment_note"`
	AdminNotes      string           `gorm:"type:text" json:"admin_notes"`
	RequestedAt     time.Time        `gorm:"autoCreateTime" json:"requested_at"`
	ProcessedAt     *time.Time       `json:"processed_at"`

	// Relations
	User   User   `gorm:"foreignKey:UserID" json:"-"`
	Reward Reward `gorm:"foreignKey:RewardID" json:"reward"`
}
