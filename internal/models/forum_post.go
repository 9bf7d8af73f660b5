package models

import (
	"time"

	"gorm.io/gorm"
)

// Forum post categories.
const (
	ForumCategoryCropFarming   = "crop farming"
	ForumCategoryPestControl   = "pest control"
	ForumCategoryMarketTrends  = "market trends"
	ForumCategoryUncategorized = "uncategorized"
)

// ForumCategories lists every valid forum post category.
var ForumCategories = []string{
	ForumCategoryCropFarming,
	ForumCategoryPestControl,
	ForumCategoryMarketTrends,
	ForumCategoryUncategorized,
}

// ValidForumCategory reports whether c is an accepted forum category.
func ValidForumCategory(c string) bool {
	for _, v := range ForumCategories {
		if v == c {
			return true
		}
	}
	return false
}

// ForumPost is a community discussion thread owned by its author.
// Likes holds the ids of users who currently like the post; it is
// computed from forum_likes rows at query time.
type ForumPost struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Category  string         `gorm:"not null;index" json:"category"`
	AuthorID  uint           `gorm:"not null;index" json:"author_id"`
	Author    UserSummary    `gorm:"foreignKey:AuthorID" json:"author"`
	Title     string         `gorm:"not null" json:"title"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	Likes     []uint         `gorm:"-" json:"likes"`
	Comments  []ForumComment `gorm:"foreignKey:PostID" json:"comments"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ForumComment is a comment attached to a forum post, ordered by creation.
type ForumComment struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	PostID    uint        `gorm:"not null;index" json:"post_id"`
	AuthorID  uint        `gorm:"not null" json:"author_id"`
	Author    UserSummary `gorm:"foreignKey:AuthorID" json:"author"`
	Content   string      `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// ForumLike records set membership: one row per (post, user) pair.
type ForumLike struct {
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
