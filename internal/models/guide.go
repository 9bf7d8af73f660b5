package models

import (
	"time"

	"gorm.io/gorm"
)

// FarmingGuide is a how-to article for a specific crop, owned by its creator.
type FarmingGuide struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Crop      string         `gorm:"not null;index" json:"crop"`
	Title     string         `gorm:"not null" json:"title"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
