package repository

import (
	"context"
	"testing"
	"time"

	"kfarm/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
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
	return db
}

func createUser(t *testing.T, db *gorm.DB, name, email string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: email, Password: "hashed"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)

	require.NoError(t, users.Create(ctx, &models.User{
		Name: "First", Email: "same@example.com", Password: "hashed",
	}))

	// The unique index violation comes back as the typed gorm error, which
	// handlers map to a conflict response.
	err := users.Create(ctx, &models.User{
		Name: "Second", Email: "same@example.com", Password: "hashed",
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestUserDeleteCascades(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)

	owner := createUser(t, db, "Owner", "owner@example.com")
	other := createUser(t, db, "Other", "other@example.com")

	require.NoError(t, db.Create(&models.Product{
		Name: "Maize", Price: 50, FarmerID: owner.ID, City: "Nakuru", Quantity: 10, Unit: "kg", Available: true,
	}).Error)
	require.NoError(t, db.Create(&models.FarmInput{
		Name: "DAP", Price: 3000, SellerID: owner.ID, Category: models.FarmInputCategoryFertilizers, Quantity: 5, Unit: "bag", Available: true,
	}).Error)
	require.NoError(t, db.Create(&models.FarmingGuide{
		Crop: "maize", Title: "Planting", Content: "...", UserID: owner.ID,
	}).Error)

	ownPost := &models.ForumPost{Category: models.ForumCategoryCropFarming, AuthorID: owner.ID, Title: "Mine", Content: "..."}
	require.NoError(t, db.Create(ownPost).Error)
	otherPost := &models.ForumPost{Category: models.ForumCategoryCropFarming, AuthorID: other.ID, Title: "Theirs", Content: "..."}
	require.NoError(t, db.Create(otherPost).Error)

	// Cross-links: the other user interacted with the owner's post, and the
	// owner interacted with the other user's post.
	require.NoError(t, db.Create(&models.ForumComment{PostID: ownPost.ID, AuthorID: other.ID, Content: "on owner's post"}).Error)
	require.NoError(t, db.Create(&models.ForumComment{PostID: otherPost.ID, AuthorID: owner.ID, Content: "owner's comment elsewhere"}).Error)
	require.NoError(t, db.Create(&models.ForumLike{PostID: ownPost.ID, UserID: other.ID}).Error)
	require.NoError(t, db.Create(&models.ForumLike{PostID: otherPost.ID, UserID: owner.ID}).Error)

	require.NoError(t, users.Delete(ctx, owner.ID))

	var count int64
	db.Model(&models.User{}).Where("id = ?", owner.ID).Count(&count)
	assert.Zero(t, count, "user row should be gone")

	db.Model(&models.Product{}).Where("farmer_id = ?", owner.ID).Count(&count)
	assert.Zero(t, count, "owned products should be gone")

	db.Model(&models.FarmInput{}).Where("seller_id = ?", owner.ID).Count(&count)
	assert.Zero(t, count, "owned farm inputs should be gone")

	db.Model(&models.FarmingGuide{}).Where("user_id = ?", owner.ID).Count(&count)
	assert.Zero(t, count, "owned guides should be gone")

	db.Model(&models.ForumPost{}).Where("author_id = ?", owner.ID).Count(&count)
	assert.Zero(t, count, "owned posts should be gone")

	db.Model(&models.ForumComment{}).Where("post_id = ?", ownPost.ID).Count(&count)
	assert.Zero(t, count, "comments on owned posts should be gone")

	db.Model(&models.ForumComment{}).Where("author_id = ?", owner.ID).Count(&count)
	assert.Zero(t, count, "owner's comments on other posts should be gone")

	db.Model(&models.ForumLike{}).Where("user_id = ?", owner.ID).Count(&count)
	assert.Zero(t, count, "owner's likes should be gone")

	// The other user's content must survive untouched.
	db.Model(&models.ForumPost{}).Where("id = ?", otherPost.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestProductListAvailableNewestFirst(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	products := NewProductRepository(db)

	farmer := createUser(t, db, "Farmer", "farmer@example.com")

	old := &models.Product{Name: "Old", Price: 1, FarmerID: farmer.ID, City: "Eldoret", Quantity: 1, Unit: "kg", Available: true}
	require.NoError(t, db.Create(old).Error)
	require.NoError(t, db.Model(old).Update("created_at", time.Now().Add(-time.Hour)).Error)

	hidden := &models.Product{Name: "Hidden", Price: 2, FarmerID: farmer.ID, City: "Eldoret", Quantity: 1, Unit: "kg", Available: false}
	require.NoError(t, db.Create(hidden).Error)

	fresh := &models.Product{Name: "Fresh", Price: 3, FarmerID: farmer.ID, City: "Eldoret", Quantity: 1, Unit: "kg", Available: true}
	require.NoError(t, db.Create(fresh).Error)

	listed, err := products.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "Fresh", listed[0].Name)
	assert.Equal(t, "Old", listed[1].Name)
	assert.Equal(t, farmer.Name, listed[0].Farmer.Name)

	all, err := products.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestOwnerScopedListings(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	products := NewProductRepository(db)
	inputs := NewFarmInputRepository(db)

	owner := createUser(t, db, "Owner", "owner@example.com")
	other := createUser(t, db, "Other", "other@example.com")

	require.NoError(t, db.Create(&models.Product{
		Name: "Mine", Price: 1, FarmerID: owner.ID, City: "Kisumu", Quantity: 1, Unit: "kg", Available: false,
	}).Error)
	require.NoError(t, db.Create(&models.Product{
		Name: "Theirs", Price: 1, FarmerID: other.ID, City: "Kisumu", Quantity: 1, Unit: "kg", Available: true,
	}).Error)
	require.NoError(t, db.Create(&models.FarmInput{
		Name: "My Tool", Price: 100, SellerID: owner.ID, Category: models.FarmInputCategoryTools, Quantity: 1, Unit: "piece", Available: false,
	}).Error)

	// Unavailable rows are still the owner's.
	mine, err := products.ListByFarmer(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Mine", mine[0].Name)

	stock, err := inputs.ListBySeller(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, stock, 1)
	assert.Equal(t, "My Tool", stock[0].Name)

	none, err := inputs.ListBySeller(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFarmInputListByCategory(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	inputs := NewFarmInputRepository(db)

	seller := createUser(t, db, "Seller", "seller@example.com")

	require.NoError(t, db.Create(&models.FarmInput{
		Name: "Hybrid Seed", Price: 200, SellerID: seller.ID,
		Category: models.FarmInputCategorySeeds, Quantity: 10, Unit: "kg", Available: true,
	}).Error)
	require.NoError(t, db.Create(&models.FarmInput{
		Name: "Hoe", Price: 500, SellerID: seller.ID,
		Category: models.FarmInputCategoryTools, Quantity: 3, Unit: "piece", Available: true,
	}).Error)
	require.NoError(t, db.Create(&models.FarmInput{
		Name: "Sold Out Seed", Price: 150, SellerID: seller.ID,
		Category: models.FarmInputCategorySeeds, Quantity: 0, Unit: "kg", Available: false,
	}).Error)

	seeds, err := inputs.List(ctx, models.FarmInputCategorySeeds)
	require.NoError(t, err)
	require.Len(t, seeds, 1)
	assert.Equal(t, "Hybrid Seed", seeds[0].Name)

	everything, err := inputs.List(ctx, "all")
	require.NoError(t, err)
	assert.Len(t, everything, 2, "unavailable inputs stay hidden even for all")

	unfiltered, err := inputs.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, unfiltered, 3)
}

func TestToggleLikeRoundTrip(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	forum := NewForumRepository(db)

	author := createUser(t, db, "Author", "author@example.com")
	liker := createUser(t, db, "Liker", "liker@example.com")

	post := &models.ForumPost{Category: models.ForumCategoryPestControl, AuthorID: author.ID, Title: "Aphids", Content: "Help"}
	require.NoError(t, forum.CreatePost(ctx, post))

	liked, err := forum.ToggleLike(ctx, post.ID, liker.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	got, err := forum.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{liker.ID}, got.Likes)

	liked, err = forum.ToggleLike(ctx, post.ID, liker.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	got, err = forum.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Likes)
}

func TestDeletePostRemovesCommentsAndLikes(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	forum := NewForumRepository(db)

	author := createUser(t, db, "Author", "author2@example.com")

	post := &models.ForumPost{Category: models.ForumCategoryMarketTrends, AuthorID: author.ID, Title: "Prices", Content: "..."}
	require.NoError(t, forum.CreatePost(ctx, post))

	comment := &models.ForumComment{PostID: post.ID, AuthorID: author.ID, Content: "self reply"}
	require.NoError(t, forum.AddComment(ctx, comment))
	assert.Equal(t, author.Name, comment.Author.Name)

	_, err := forum.ToggleLike(ctx, post.ID, author.ID)
	require.NoError(t, err)

	require.NoError(t, forum.DeletePost(ctx, post.ID))

	var count int64
	db.Model(&models.ForumComment{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.ForumLike{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Zero(t, count)
}

func TestGuideDistinctCrops(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	guides := NewGuideRepository(db)

	user := createUser(t, db, "Writer", "writer@example.com")

	for _, crop := range []string{"maize", "beans", "maize", "kale"} {
		require.NoError(t, guides.Create(ctx, &models.FarmingGuide{
			Crop: crop, Title: crop + " guide", Content: "...", UserID: user.ID,
		}))
	}

	crops, err := guides.DistinctCrops(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"beans", "kale", "maize"}, crops)

	maize, err := guides.List(ctx, "maize")
	require.NoError(t, err)
	assert.Len(t, maize, 2)

	all, err := guides.List(ctx, "all")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestGrowth(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		current  int64
		previous int64
		want     float64
	}{
		{"Both Zero", 0, 0, 0},
		{"From Zero", 5, 0, 100},
		{"Doubled", 10, 5, 100},
		{"Halved", 5, 10, -50},
		{"Rounded", 1, 3, -67},
		{"Flat", 4, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, growth(tt.current, tt.previous))
		})
	}
}

func TestAnalyticsReport(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	analytics := NewAnalyticsRepository(db)

	recent := createUser(t, db, "Recent", "recent@example.com")
	older := createUser(t, db, "Older", "older@example.com")
	// Push one user into the previous window (between 7 and 14 days ago).
	require.NoError(t, db.Model(older).Update("created_at", time.Now().UTC().Add(-10*24*time.Hour)).Error)

	require.NoError(t, db.Create(&models.Product{
		Name: "Tomatoes", Price: 80, FarmerID: recent.ID, City: "Thika",
		Category: "vegetables", Quantity: 20, Unit: "crate", Available: true,
	}).Error)

	report, err := analytics.Report(ctx, "week")
	require.NoError(t, err)

	assert.Equal(t, "week", report.Range)
	assert.EqualValues(t, 2, report.Users.Total)
	assert.EqualValues(t, 1, report.Users.Current)
	assert.EqualValues(t, 1, report.Users.Previous)
	assert.Equal(t, float64(0), report.Users.Growth)

	assert.EqualValues(t, 1, report.Products.Total)
	assert.Equal(t, float64(100), report.Products.Growth)

	require.Len(t, report.NewUsersDaily, 1)
	assert.EqualValues(t, 1, report.NewUsersDaily[0].Count)

	require.Len(t, report.ProductCategories, 1)
	assert.Equal(t, "vegetables", report.ProductCategories[0].Category)
}

func TestAnalyticsRejectsUnknownRange(t *testing.T) {
	db := setupDB(t)
	analytics := NewAnalyticsRepository(db)

	_, err := analytics.Report(context.Background(), "decade")
	assert.Error(t, err)
}
