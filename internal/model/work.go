package model

import "time"

// Work is one contiguous work interval on a task by a user.
// At most one non-ended Work exists per task at any time.
type Work struct {
	ID        uint `gorm:"primaryKey"`
	TaskID    uint `gorm:"index"`
	UserID    uint `gorm:"index"`
	StartTime time.Time
	EndTime   *time.Time
	IsEnded   bool `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
