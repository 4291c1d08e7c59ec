package model

import "time"

// GitHubRepository links a project to a user/repo pair on GitHub.
// One repository record per project.
type GitHubRepository struct {
	ID        uint `gorm:"primaryKey"`
	ProjectID uint `gorm:"uniqueIndex"`
	Username  string
	Reponame  string
	Sync      bool `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GitHubTask records the GitHub issue number behind a synchronized task.
// One link row per synchronized task.
type GitHubTask struct {
	ID            uint `gorm:"primaryKey"`
	ProjectID     uint `gorm:"index"`
	TaskID        uint `gorm:"uniqueIndex"`
	Number        int
	IsPullRequest bool `gorm:"default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
