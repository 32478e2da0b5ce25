package models

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User mirrors an identity-provider account. ClerkID is the provider's
// subject id and is the key everything else (notifications, push tokens)
// hangs off.
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ClerkID     string    `json:"clerk_id" gorm:"uniqueIndex;not null"`
	Email       string    `json:"email" gorm:"index;not null"`
	Name        *string   `json:"name,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	Role        string    `json:"role" gorm:"index;not null;default:user"`
	PushToken   *string   `json:"push_token,omitempty" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// HasPushToken reports whether the user can receive push notifications.
func (u *User) HasPushToken() bool {
	return u.PushToken != nil && *u.PushToken != ""
}
