// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"

	"kfarm/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumProducts int
	NumInputs   int
	NumPosts    int
	NumGuides   int
	ShouldClean bool
}

// DefaultOptions returns a small but representative dataset.
func DefaultOptions() Options {
	return Options{
		NumUsers:    20,
		NumProducts: 40,
		NumInputs:   30,
		NumPosts:    25,
		NumGuides:   12,
	}
}

var productNames = []string{
	"Maize", "Beans", "Tomatoes", "Kale", "Cabbage", "Onions", "Potatoes",
	"Bananas", "Mangoes", "Avocados", "Milk", "Eggs", "Honey", "Carrots",
}

var cities = []string{
	"Nairobi", "Nakuru", "Eldoret", "Kisumu", "Thika", "Nyeri", "Meru", "Kitale",
}

var units = []string{"kg", "crate", "bag", "bunch", "litre", "tray", "piece"}

var crops = []string{"maize", "beans", "tomatoes", "kale", "potatoes", "bananas"}

var inputNamesByCategory = map[string][]string{
	models.FarmInputCategorySeeds:       {"Hybrid Maize Seed", "Bean Seed", "Tomato Seed", "Kale Seed"},
	models.FarmInputCategoryFertilizers: {"DAP Fertilizer", "CAN Fertilizer", "NPK Blend", "Organic Compost"},
	models.FarmInputCategoryTools:       {"Jembe", "Panga", "Knapsack Sprayer", "Wheelbarrow"},
	models.FarmInputCategoryPesticides:  {"Aphid Spray", "Fungicide", "Herbicide", "Cutworm Dust"},
}

// Run populates the database with fake but plausible data.
func Run(db *gorm.DB, opts Options) error {
	if opts.ShouldClean {
		if err := clean(db); err != nil {
			return fmt.Errorf("clean: %w", err)
		}
	}

	// One shared hash keeps seeding fast; every seeded account logs in with
	// "password123".
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		return err
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user := &models.User{
			Name:          gofakeit.Name(),
			Email:         fmt.Sprintf("user%d@%s", i+1, gofakeit.DomainName()),
			Password:      string(hash),
			Phone:         gofakeit.Phone(),
			Language:      "en",
			IsAdmin:       i == 0,
			Notifications: models.NotificationPrefs{Email: true, Push: gofakeit.Bool()},
		}
		if err := db.Create(user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("Seeded %d users (user1 is an admin)", len(users))

	for i := 0; i < opts.NumProducts; i++ {
		owner := users[rand.Intn(len(users))]
		product := &models.Product{
			Name:        productNames[rand.Intn(len(productNames))],
			Price:       float64(gofakeit.Number(20, 5000)),
			FarmerID:    owner.ID,
			Description: gofakeit.Sentence(12),
			City:        cities[rand.Intn(len(cities))],
			Category:    "produce",
			Quantity:    gofakeit.Number(1, 200),
			Unit:        units[rand.Intn(len(units))],
			Available:   rand.Intn(10) > 1,
		}
		if err := db.Create(product).Error; err != nil {
			return fmt.Errorf("create product: %w", err)
		}
	}
	log.Printf("Seeded %d products", opts.NumProducts)

	for i := 0; i < opts.NumInputs; i++ {
		owner := users[rand.Intn(len(users))]
		category := models.FarmInputCategories[rand.Intn(len(models.FarmInputCategories))]
		names := inputNamesByCategory[category]
		input := &models.FarmInput{
			Name:        names[rand.Intn(len(names))],
			Price:       float64(gofakeit.Number(100, 10000)),
			SellerID:    owner.ID,
			Description: gofakeit.Sentence(10),
			Category:    category,
			Quantity:    gofakeit.Number(1, 100),
			Unit:        units[rand.Intn(len(units))],
			Available:   true,
			Specifications: models.InputSpecifications{
				Brand:        gofakeit.Company(),
				Manufacturer: gofakeit.Company(),
			},
		}
		if input.DiscountEligible = gofakeit.Bool(); input.DiscountEligible {
			threshold := gofakeit.Number(10, 50)
			pct := float64(gofakeit.Number(5, 25))
			input.DiscountThreshold = &threshold
			input.DiscountPercentage = &pct
		}
		if err := db.Create(input).Error; err != nil {
			return fmt.Errorf("create farm input: %w", err)
		}
	}
	log.Printf("Seeded %d farm inputs", opts.NumInputs)

	for i := 0; i < opts.NumPosts; i++ {
		author := users[rand.Intn(len(users))]
		post := &models.ForumPost{
			Category: models.ForumCategories[rand.Intn(len(models.ForumCategories))],
			AuthorID: author.ID,
			Title:    gofakeit.Sentence(5),
			Content:  gofakeit.Paragraph(1, 3, 12, " "),
		}
		if err := db.Create(post).Error; err != nil {
			return fmt.Errorf("create forum post: %w", err)
		}

		for j := 0; j < rand.Intn(4); j++ {
			commenter := users[rand.Intn(len(users))]
			comment := &models.ForumComment{
				PostID:   post.ID,
				AuthorID: commenter.ID,
				Content:  gofakeit.Sentence(10),
			}
			if err := db.Create(comment).Error; err != nil {
				return fmt.Errorf("create comment: %w", err)
			}
		}

		seen := map[uint]struct{}{}
		for j := 0; j < rand.Intn(6); j++ {
			liker := users[rand.Intn(len(users))]
			if _, dup := seen[liker.ID]; dup {
				continue
			}
			seen[liker.ID] = struct{}{}
			like := &models.ForumLike{PostID: post.ID, UserID: liker.ID}
			if err := db.Create(like).Error; err != nil {
				return fmt.Errorf("create like: %w", err)
			}
		}
	}
	log.Printf("Seeded %d forum posts", opts.NumPosts)

	for i := 0; i < opts.NumGuides; i++ {
		author := users[rand.Intn(len(users))]
		crop := crops[rand.Intn(len(crops))]
		guide := &models.FarmingGuide{
			Crop:    crop,
			Title:   fmt.Sprintf("Growing %s: %s", crop, gofakeit.Sentence(3)),
			Content: gofakeit.Paragraph(2, 4, 15, "\n\n"),
			UserID:  author.ID,
		}
		if err := db.Create(guide).Error; err != nil {
			return fmt.Errorf("create guide: %w", err)
		}
	}
	log.Printf("Seeded %d farming guides", opts.NumGuides)

	return nil
}

// clean removes all seeded data, children before parents.
func clean(db *gorm.DB) error {
	for _, model := range []interface{}{
		&models.ForumLike{},
		&models.ForumComment{},
		&models.ForumPost{},
		&models.FarmingGuide{},
		&models.FarmInput{},
		&models.Product{},
		&models.User{},
	} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Unscoped().Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
