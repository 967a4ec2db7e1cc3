package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Clockable reports whether time may still be logged against a task in this status.
func (s TaskStatus) Clockable() bool {
	return s == TaskStatusPending || s == TaskStatusInProgress
}

type Task struct {
	ID                  uint64         `gorm:"primarykey" json:"id"`
	Title               string         `gorm:"type:varchar(255);not null" json:"title"`
	Description         string         `gorm:"type:text" json:"description"`
	ProjectID           *uint64        `gorm:"index" json:"project_id"`
	Status              TaskStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Shift               string         `gorm:"type:varchar(100)" json:"shift"`
	EstimatedCompletion *time.Time     `json:"estimated_completion"`
	MinClockCycles      int            `gorm:"not null;default:1" json:"min_clock_cycles"`
	AssignedByID        uint64         `gorm:"not null;index" json:"assigned_by_id"`
	StatusChangedAt     time.Time      `json:"status_changed_at"`
	CompletedByID       *uint64        `json:"completed_by_id"`
	CompletedAt         *time.Time     `json:"completed_at"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Project     *Project         `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	AssignedBy  User             `gorm:"foreignKey:AssignedByID" json:"assigned_by,omitempty"`
	CompletedBy *User            `gorm:"foreignKey:CompletedByID" json:"completed_by,omitempty"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID" json:"assignments,omitempty"`
}

// SetStatus changes the status and stamps StatusChangedAt when it actually differs.
func (t *Task) SetStatus(status TaskStatus, at time.Time) bool {
	if t.Status == status {
		return false
	}
	t.Status = status
	t.StatusChangedAt = at
	return true
}

// IsAssigned reports whether userID is among the loaded assignments.
func (t *Task) IsAssigned(userID uint64) bool {
	for _, a := range t.Assignments {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

func (t *Task) AssigneeIDs() []uint64 {
	ids := make([]uint64, 0, len(t.Assignments))
	for _, a := range t.Assignments {
		ids = append(ids, a.UserID)
	}
	return ids
}
