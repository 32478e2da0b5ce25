package models

import "time"

// SystemBootstrap is a singleton row whose insert decides which user becomes
// the first admin. Two concurrent first-syncs race on the primary key; the
// insert that loses gets a duplicate-key error and falls back to the user role.
type SystemBootstrap struct {
	ID          int       `gorm:"primaryKey"`
	AdminUserID string    `gorm:"not null"`
	CreatedAt   time.Time
}

func (SystemBootstrap) TableName() string {
	return "system_bootstrap"
}
