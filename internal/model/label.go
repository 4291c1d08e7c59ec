package model

import "time"

// Label is a colored tag attachable to tasks.
type Label struct {
	ID        uint   `gorm:"primaryKey"`
	ProjectID uint   `gorm:"index:idx_project_label_name,unique"`
	Name      string `gorm:"index:idx_project_label_name,unique"`
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
