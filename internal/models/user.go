// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationPrefs holds a user's notification channel preferences.
type NotificationPrefs struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
}

// User represents a registered K Smart Farm user. Farmers, input sellers
// and forum participants are all the same account type; admins carry the
// IsAdmin flag.
type User struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	Name           string            `gorm:"not null" json:"name"`
	Email          string            `gorm:"unique;not null" json:"email"`
	Password       string            `gorm:"not null" json:"-"`
	Phone          string            `json:"phone"`
	ProfilePicture string            `json:"profile_picture"`
	Language       string            `gorm:"default:en" json:"language"`
	IsAdmin        bool              `gorm:"default:false" json:"is_admin"`
	Notifications  NotificationPrefs `gorm:"embedded;embeddedPrefix:notify_" json:"notifications"`
	LastActiveAt   *time.Time        `json:"last_active_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	DeletedAt      gorm.DeletedAt    `gorm:"index" json:"-"`
}

// UserSummary is the display-safe subset of a user embedded in owned
// resources (never includes the password hash or preferences).
type UserSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// TableName maps UserSummary onto the users table.
func (UserSummary) TableName() string {
	return "users"
}
