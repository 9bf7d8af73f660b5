package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is a marketplace listing owned by the farmer who created it.
// FarmerID is set from the session at creation and never changes.
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Price       float64        `gorm:"not null" json:"price"`
	FarmerID    uint           `gorm:"not null;index" json:"farmer_id"`
	Farmer      UserSummary    `gorm:"foreignKey:FarmerID" json:"farmer"`
	Description string         `gorm:"type:text" json:"description"`
	City        string         `gorm:"not null" json:"city"`
	Image       string         `json:"image"`
	Category    string         `json:"category"`
	Quantity    int            `gorm:"not null" json:"quantity"`
	Unit        string         `gorm:"not null" json:"unit"`
	Available   bool           `gorm:"default:true" json:"available"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
