package models

import "time"

const (
	NotificationTypeQuizAdded   = "quiz_added"
	NotificationTypeQuizUpdated = "quiz_updated"
	NotificationTypeQuizDeleted = "quiz_deleted"
	NotificationTypeSystem      = "system"
)

// Notification is an append-only per-user record. UserID is the recipient's
// identity-provider subject id, not the users table primary key, so a
// notification can be written before the recipient's first full sync.
type Notification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index;index:idx_notifications_user_read,priority:1;not null"`
	Title     string    `json:"title" gorm:"not null"`
	Message   string    `json:"message" gorm:"not null"`
	Type      string    `json:"type" gorm:"not null"`
	Read      bool      `json:"read" gorm:"index:idx_notifications_user_read,priority:2;not null;default:false"`
	QuizID    *string   `json:"quiz_id,omitempty"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}
