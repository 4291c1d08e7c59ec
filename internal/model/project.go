package model

import "time"

// Project is one kanban board with its own stages, costs and labels.
type Project struct {
	ID             uint `gorm:"primaryKey"`
	Name           string
	CreateUserID   uint
	DefaultStageID *uint
	DefaultCostID  *uint
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Stages         []Stage  `gorm:"foreignKey:ProjectID"`
	Costs          []Cost   `gorm:"foreignKey:ProjectID"`
	Labels         []Label  `gorm:"foreignKey:ProjectID"`
	Tasks          []Task   `gorm:"foreignKey:ProjectID"`
	Members        []Member `gorm:"foreignKey:ProjectID"`
}

// Member links a user to a project.
type Member struct {
	ID        uint `gorm:"primaryKey"`
	ProjectID uint `gorm:"index:idx_project_member,unique"`
	UserID    uint `gorm:"index:idx_project_member,unique"`
	IsOwner   bool `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
	User      User
}
