package model

import "time"

// Task represents a single item on the board.
type Task struct {
	ID        uint  `gorm:"primaryKey"`
	ProjectID uint  `gorm:"index"`
	StageID   uint  `gorm:"index"`
	UserID    *uint `gorm:"index"` // assignee, nil when the stage is unassigned
	CostID    uint
	Title     string
	Body      string
	IsWorking bool `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Stage     Stage
	User      *User
	Cost      Cost
	Labels    []Label `gorm:"many2many:task_labels"`
	Works     []Work  `gorm:"foreignKey:TaskID"`
}
