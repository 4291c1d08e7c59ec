package model

import "time"

// Stage is a named lane in the task workflow. Seeded once at project
// creation; exactly one stage per name per project.
type Stage struct {
	ID          uint   `gorm:"primaryKey"`
	ProjectID   uint   `gorm:"index:idx_project_stage_name,unique"`
	Name        string `gorm:"index:idx_project_stage_name,unique"`
	DisplayName string
	Assigned    bool // tasks in this stage must have an assignee
	CanWork     bool // work sessions are permitted in this stage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
