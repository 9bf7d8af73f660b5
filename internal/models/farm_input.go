package models

import (
	"time"

	"gorm.io/gorm"
)

// FarmInput categories accepted by the marketplace.
const (
	FarmInputCategorySeeds       = "Seeds"
	FarmInputCategoryFertilizers = "Fertilizers"
	FarmInputCategoryTools       = "Tools"
	FarmInputCategoryPesticides  = "Pesticides"
)

// FarmInputCategories lists every valid farm input category.
var FarmInputCategories = []string{
	FarmInputCategorySeeds,
	FarmInputCategoryFertilizers,
	FarmInputCategoryTools,
	FarmInputCategoryPesticides,
}

// ValidFarmInputCategory reports whether c is an accepted category.
func ValidFarmInputCategory(c string) bool {
	for _, v := range FarmInputCategories {
		if v == c {
			return true
		}
	}
	return false
}

// InputSpecifications holds free-form manufacturer details for a farm input.
// Submitted as a JSON-encoded sub-object on multipart requests.
type InputSpecifications struct {
	Brand               string `json:"brand"`
	Manufacturer        string `json:"manufacturer"`
	ApplicationMethod   string `json:"application_method"`
	SafetyInstructions  string `json:"safety_instructions"`
	StorageInstructions string `json:"storage_instructions"`
}

// FarmInput is a supply listing (seeds, fertilizer, tools, pesticides)
// owned by the seller who created it.
type FarmInput struct {
	ID                 uint                `gorm:"primaryKey" json:"id"`
	Name               string              `gorm:"not null" json:"name"`
	Price              float64             `gorm:"not null" json:"price"`
	SellerID           uint                `gorm:"not null;index" json:"seller_id"`
	Seller             UserSummary         `gorm:"foreignKey:SellerID" json:"seller"`
	Description        string              `gorm:"type:text" json:"description"`
	Category           string              `gorm:"not null;index" json:"category"`
	Image              string              `json:"image"`
	Quantity           int                 `gorm:"not null" json:"quantity"`
	Unit               string              `gorm:"not null" json:"unit"`
	Available          bool                `gorm:"default:true" json:"available"`
	DiscountEligible   bool                `gorm:"default:false" json:"discount_eligible"`
	DiscountThreshold  *int                `json:"discount_threshold,omitempty"`
	DiscountPercentage *float64            `json:"discount_percentage,omitempty"`
	Specifications     InputSpecifications `gorm:"embedded;embeddedPrefix:spec_" json:"specifications"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	DeletedAt          gorm.DeletedAt      `gorm:"index" json:"-"`
}
