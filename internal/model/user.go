package model

import "time"

// User stores account metadata. Username matches the GitHub login
// for users created by repository import.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"uniqueIndex"`
	IconURI   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
