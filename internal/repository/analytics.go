package repository

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"kfarm/internal/models"

	"gorm.io/gorm"
)

// Analytics window lengths by range name.
var rangeWindows = map[string]time.Duration{
	"week":  7 * 24 * time.Hour,
	"month": 30 * 24 * time.Hour,
	"year":  365 * 24 * time.Hour,
}

// ParseRange maps a range name to its window length.
func ParseRange(name string) (time.Duration, error) {
	if name == "" {
		name = "month"
	}
	window, ok := rangeWindows[name]
	if !ok {
		return 0, fmt.Errorf("invalid range %q: must be week, month, or year", name)
	}
	return window, nil
}

// AnalyticsRepository builds the admin dashboard report.
type AnalyticsRepository interface {
	Report(ctx context.Context, rangeName string) (*models.AnalyticsReport, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) Report(ctx context.Context, rangeName string) (*models.AnalyticsReport, error) {
	if rangeName == "" {
		rangeName = "month"
	}
	window, err := ParseRange(rangeName)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	report := &models.AnalyticsReport{
		Range:       rangeName,
		GeneratedAt: now,
	}

	for _, res := range []struct {
		model interface{}
		stats *models.ResourceStats
	}{
		{&models.User{}, &report.Users},
		{&models.Product{}, &report.Products},
		{&models.FarmInput{}, &report.FarmInputs},
		{&models.ForumPost{}, &report.ForumPosts},
		{&models.FarmingGuide{}, &report.FarmingGuides},
	} {
		stats, err := r.resourceStats(ctx, res.model, now, window)
		if err != nil {
			return nil, err
		}
		*res.stats = stats
	}

	report.NewUsersDaily, err = r.dailyCounts(ctx, &models.User{}, now, window)
	if err != nil {
		return nil, err
	}

	report.ProductCategories, err = r.categoryCounts(ctx, &models.Product{})
	if err != nil {
		return nil, err
	}
	report.FarmInputCategories, err = r.categoryCounts(ctx, &models.FarmInput{})
	if err != nil {
		return nil, err
	}
	report.ForumCategories, err = r.categoryCounts(ctx, &models.ForumPost{})
	if err != nil {
		return nil, err
	}

	return report, nil
}

func (r *analyticsRepository) resourceStats(ctx context.Context, model interface{}, now time.Time, window time.Duration) (models.ResourceStats, error) {
	var stats models.ResourceStats

	if err := r.db.WithContext(ctx).Model(model).
		Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	windowStart := now.Add(-window)
	if err := r.db.WithContext(ctx).Model(model).
		Where("created_at >= ?", windowStart).
		Count(&stats.Current).Error; err != nil {
		return stats, err
	}

	prevStart := now.Add(-2 * window)
	if err := r.db.WithContext(ctx).Model(model).
		Where("created_at >= ? AND created_at < ?", prevStart, windowStart).
		Count(&stats.Previous).Error; err != nil {
		return stats, err
	}

	stats.Growth = growth(stats.Current, stats.Previous)
	return stats, nil
}

// growth is the percentage change from previous to current, rounded to the
// nearest whole number. A previous count of zero yields 100 when anything
// was created and 0 otherwise.
func growth(current, previous int64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return math.Round(100 * float64(current-previous) / float64(previous))
}

// dailyCounts buckets creation timestamps by UTC day in Go so the query
// stays portable across database dialects.
func (r *analyticsRepository) dailyCounts(ctx context.Context, model interface{}, now time.Time, window time.Duration) ([]models.DailyCount, error) {
	since := now.Add(-window)

	var createdAts []time.Time
	err := r.db.WithContext(ctx).Model(model).
		Where("created_at >= ?", since).
		Pluck("created_at", &createdAts).Error
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]int64)
	for _, ts := range createdAts {
		buckets[ts.UTC().Format("2006-01-02")]++
	}

	days := make([]string, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Strings(days)

	counts := make([]models.DailyCount, 0, len(days))
	for _, day := range days {
		counts = append(counts, models.DailyCount{Date: day, Count: buckets[day]})
	}
	return counts, nil
}

func (r *analyticsRepository) categoryCounts(ctx context.Context, model interface{}) ([]models.CategoryCount, error) {
	var counts []models.CategoryCount
	err := r.db.WithContext(ctx).Model(model).
		Select("category, COUNT(*) as count").
		Group("category").
		Order("category ASC").
		Scan(&counts).Error
	return counts, err
}
