package model

import "time"

// Cost is a point estimate bucket for tasks.
type Cost struct {
	ID        uint   `gorm:"primaryKey"`
	ProjectID uint   `gorm:"index:idx_project_cost_name,unique"`
	Name      string `gorm:"index:idx_project_cost_name,unique"`
	Value     int
	CreatedAt time.Time
	UpdatedAt time.Time
}
