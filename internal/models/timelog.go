package models

import "time"

// TimeLog is one clock-in/clock-out interval. While open, OpenUserID mirrors
// UserID; its unique index lets the database reject a second open log for the
// same user. Closing the log sets OpenUserID back to NULL.
type TimeLog struct {
	ID         uint64     `gorm:"primarykey" json:"id"`
	UserID     uint64     `gorm:"not null;index" json:"user_id"`
	TaskID     *uint64    `gorm:"index" json:"task_id"`
	ClockIn    time.Time  `gorm:"not null" json:"clock_in"`
	ClockOut   *time.Time `json:"clock_out"`
	OpenUserID *uint64    `gorm:"uniqueIndex:idx_time_logs_open_user" json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Relations
	User User  `gorm:"foreignKey:UserID" json:"-"`
	Task *Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
}

func (l *TimeLog) IsOpen() bool {
	return l.ClockOut == nil
}

// Duration returns the closed interval length, or the elapsed time up to now while open.
func (l *TimeLog) Duration(now time.Time) time.Duration {
	if l.ClockOut != nil {
		return l.ClockOut.Sub(l.ClockIn)
	}
	return now.Sub(l.ClockIn)
}
