package repository

import (
	"context"

	"kfarm/internal/models"

	"gorm.io/gorm"
)

// FarmInputRepository defines the interface for farm input data operations
type FarmInputRepository interface {
	Create(ctx context.Context, input *models.FarmInput) error
	GetByID(ctx context.Context, id uint) (*models.FarmInput, error)
	// List returns available inputs, optionally filtered by category
	// (empty or "all" means no filter), newest first.
	List(ctx context.Context, category string) ([]*models.FarmInput, error)
	// ListAll returns every input regardless of availability, newest first.
	ListAll(ctx context.Context) ([]*models.FarmInput, error)
	// ListBySeller returns one seller's inputs regardless of availability.
	ListBySeller(ctx context.Context, sellerID uint) ([]*models.FarmInput, error)
	Update(ctx context.Context, input *models.FarmInput) error
	Delete(ctx context.Context, id uint) error
}

type farmInputRepository struct {
	db *gorm.DB
}

// NewFarmInputRepository creates a new farm input repository
func NewFarmInputRepository(db *gorm.DB) FarmInputRepository {
	return &farmInputRepository{db: db}
}

func (r *farmInputRepository) Create(ctx context.Context, input *models.FarmInput) error {
	return r.db.WithContext(ctx).Create(input).Error
}

func (r *farmInputRepository) GetByID(ctx context.Context, id uint) (*models.FarmInput, error) {
	var input models.FarmInput
	err := r.db.WithContext(ctx).
		Preload("Seller").
		First(&input, id).Error
	if err != nil {
		return nil, err
	}
	return &input, nil
}

func (r *farmInputRepository) List(ctx context.Context, category string) ([]*models.FarmInput, error) {
	q := r.db.WithContext(ctx).
		Preload("Seller").
		Where("available = ?", true)
	if category != "" && category != "all" {
		q = q.Where("category = ?", category)
	}

	var inputs []*models.FarmInput
	err := q.Order("created_at DESC").Find(&inputs).Error
	return inputs, err
}

func (r *farmInputRepository) ListAll(ctx context.Context) ([]*models.FarmInput, error) {
	var inputs []*models.FarmInput
	err := r.db.WithContext(ctx).
		Preload("Seller").
		Order("created_at DESC").
		Find(&inputs).Error
	return inputs, err
}

func (r *farmInputRepository) ListBySeller(ctx context.Context, sellerID uint) ([]*models.FarmInput, error) {
	var inputs []*models.FarmInput
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&inputs).Error
	return inputs, err
}

func (r *farmInputRepository) Update(ctx context.Context, input *models.FarmInput) error {
	return r.db.WithContext(ctx).Save(input).Error
}

func (r *farmInputRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.FarmInput{}, id).Error
}
