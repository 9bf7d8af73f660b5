package seed

import (
	"testing"

	"kfarm/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestRunSeedsAllResources(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.FarmInput{},
		&models.ForumPost{},
		&models.ForumComment{},
		&models.ForumLike{},
		&models.FarmingGuide{},
	))

	opts := Options{
		NumUsers:    5,
		NumProducts: 8,
		NumInputs:   6,
		NumPosts:    4,
		NumGuides:   3,
	}
	require.NoError(t, Run(db, opts))

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.EqualValues(t, opts.NumUsers, count)

	db.Model(&models.User{}).Where("is_admin = ?", true).Count(&count)
	assert.EqualValues(t, 1, count, "exactly one seeded admin")

	db.Model(&models.Product{}).Count(&count)
	assert.EqualValues(t, opts.NumProducts, count)

	db.Model(&models.FarmInput{}).Count(&count)
	assert.EqualValues(t, opts.NumInputs, count)

	db.Model(&models.ForumPost{}).Count(&count)
	assert.EqualValues(t, opts.NumPosts, count)

	db.Model(&models.FarmingGuide{}).Count(&count)
	assert.EqualValues(t, opts.NumGuides, count)

	// Every seeded farm input carries a valid category.
	var inputs []models.FarmInput
	require.NoError(t, db.Find(&inputs).Error)
	for _, in := range inputs {
		assert.True(t, models.ValidFarmInputCategory(in.Category))
	}

	// Re-seeding with clean resets to the same counts.
	opts.ShouldClean = true
	require.NoError(t, Run(db, opts))
	db.Model(&models.User{}).Count(&count)
	assert.EqualValues(t, opts.NumUsers, count)
}
