package repository

import (
	"context"

	"kfarm/internal/models"

	"gorm.io/gorm"
)

// GuideRepository defines the interface for farming guide data operations
type GuideRepository interface {
	Create(ctx context.Context, guide *models.FarmingGuide) error
	GetByID(ctx context.Context, id uint) (*models.FarmingGuide, error)
	// List returns guides, optionally filtered by crop (empty or "all"
	// means no filter), newest first.
	List(ctx context.Context, crop string) ([]*models.FarmingGuide, error)
	// DistinctCrops returns the crops that currently have guides.
	DistinctCrops(ctx context.Context) ([]string, error)
	Update(ctx context.Context, guide *models.FarmingGuide) error
	Delete(ctx context.Context, id uint) error
}

type guideRepository struct {
	db *gorm.DB
}

// NewGuideRepository creates a new farming guide repository
func NewGuideRepository(db *gorm.DB) GuideRepository {
	return &guideRepository{db: db}
}

func (r *guideRepository) Create(ctx context.Context, guide *models.FarmingGuide) error {
	return r.db.WithContext(ctx).Create(guide).Error
}

func (r *guideRepository) GetByID(ctx context.Context, id uint) (*models.FarmingGuide, error) {
	var guide models.FarmingGuide
	if err := r.db.WithContext(ctx).First(&guide, id).Error; err != nil {
		return nil, err
	}
	return &guide, nil
}

func (r *guideRepository) List(ctx context.Context, crop string) ([]*models.FarmingGuide, error) {
	q := r.db.WithContext(ctx)
	if crop != "" && crop != "all" {
		q = q.Where("crop = ?", crop)
	}

	var guides []*models.FarmingGuide
	err := q.Order("created_at DESC").Find(&guides).Error
	return guides, err
}

func (r *guideRepository) DistinctCrops(ctx context.Context) ([]string, error) {
	var crops []string
	err := r.db.WithContext(ctx).
		Model(&models.FarmingGuide{}).
		Distinct("crop").
		Order("crop ASC").
		Pluck("crop", &crops).Error
	return crops, err
}

func (r *guideRepository) Update(ctx context.Context, guide *models.FarmingGuide) error {
	return r.db.WithContext(ctx).
		Model(guide).
		Select("crop", "title", "content").
		Updates(guide).Error
}

func (r *guideRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.FarmingGuide{}, id).Error
}
