package models

import "time"

// ResourceStats summarizes one resource type over an analytics window.
// Current counts records created inside the window, Previous counts the
// window immediately before it.
type ResourceStats struct {
	Total    int64   `json:"total"`
	Current  int64   `json:"current"`
	Previous int64   `json:"previous"`
	Growth   float64 `json:"growth"`
}

// DailyCount is one day's worth of created records.
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// CategoryCount is the number of records in one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// AnalyticsReport is the admin dashboard payload.
type AnalyticsReport struct {
	Range               string          `json:"range"`
	GeneratedAt         time.Time       `json:"generated_at"`
	Users               ResourceStats   `json:"users"`
	Products            ResourceStats   `json:"products"`
	FarmInputs          ResourceStats   `json:"farm_inputs"`
	ForumPosts          ResourceStats   `json:"forum_posts"`
	FarmingGuides       ResourceStats   `json:"farming_guides"`
	NewUsersDaily       []DailyCount    `json:"new_users_daily"`
	ProductCategories   []CategoryCount `json:"product_categories"`
	FarmInputCategories []CategoryCount `json:"farm_input_categories"`
	ForumCategories     []CategoryCount `json:"forum_categories"`
}
