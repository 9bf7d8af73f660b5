package repository

import (
	"context"
	"errors"

	"kfarm/internal/models"

	"gorm.io/gorm"
)

// ForumRepository defines the interface for forum post, comment and like
// data operations
type ForumRepository interface {
	CreatePost(ctx context.Context, post *models.ForumPost) error
	GetPost(ctx context.Context, id uint) (*models.ForumPost, error)
	// ListPosts returns posts filtered by category (empty or "all" means no
	// filter), newest first, with comments and like sets populated.
	ListPosts(ctx context.Context, category string) ([]*models.ForumPost, error)
	UpdatePost(ctx context.Context, post *models.ForumPost) error
	// DeletePost removes the post along with its comments and likes.
	DeletePost(ctx context.Context, id uint) error

	AddComment(ctx context.Context, comment *models.ForumComment) error
	GetComment(ctx context.Context, id uint) (*models.ForumComment, error)
	DeleteComment(ctx context.Context, id uint) error

	// ToggleLike adds the user to the post's like set if absent, removes
	// them if present, and reports whether the post is liked afterwards.
	ToggleLike(ctx context.Context, postID, userID uint) (bool, error)
}

type forumRepository struct {
	db *gorm.DB
}

// NewForumRepository creates a new forum repository
func NewForumRepository(db *gorm.DB) ForumRepository {
	return &forumRepository{db: db}
}

func (r *forumRepository) CreatePost(ctx context.Context, post *models.ForumPost) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *forumRepository) GetPost(ctx context.Context, id uint) (*models.ForumPost, error) {
	var post models.ForumPost
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("forum_comments.created_at ASC")
		}).
		Preload("Comments.Author").
		First(&post, id).Error
	if err != nil {
		return nil, err
	}

	if err := r.loadLikes(ctx, []*models.ForumPost{&post}); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *forumRepository) ListPosts(ctx context.Context, category string) ([]*models.ForumPost, error) {
	q := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("forum_comments.created_at ASC")
		}).
		Preload("Comments.Author")
	if category != "" && category != "all" {
		q = q.Where("category = ?", category)
	}

	var posts []*models.ForumPost
	if err := q.Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, err
	}

	if err := r.loadLikes(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *forumRepository) UpdatePost(ctx context.Context, post *models.ForumPost) error {
	return r.db.WithContext(ctx).
		Model(post).
		Select("category", "title", "content").
		Updates(post).Error
}

func (r *forumRepository) DeletePost(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).
			Delete(&models.ForumComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).
			Delete(&models.ForumLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ForumPost{}, id).Error
	})
}

func (r *forumRepository) AddComment(ctx context.Context, comment *models.ForumComment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return err
	}
	// Reload with the author summary so the response carries display fields.
	return r.db.WithContext(ctx).
		Preload("Author").
		First(comment, comment.ID).Error
}

func (r *forumRepository) GetComment(ctx context.Context, id uint) (*models.ForumComment, error) {
	var comment models.ForumComment
	err := r.db.WithContext(ctx).
		Preload("Author").
		First(&comment, id).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *forumRepository) DeleteComment(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.ForumComment{}, id).Error
}

func (r *forumRepository) ToggleLike(ctx context.Context, postID, userID uint) (bool, error) {
	liked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ForumLike
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).
			First(&existing).Error
		switch {
		case err == nil:
			return tx.Where("post_id = ? AND user_id = ?", postID, userID).
				Delete(&models.ForumLike{}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			liked = true
			return tx.Create(&models.ForumLike{PostID: postID, UserID: userID}).Error
		default:
			return err
		}
	})
	return liked, err
}

// loadLikes fills the Likes slice of each post from forum_likes rows.
func (r *forumRepository) loadLikes(ctx context.Context, posts []*models.ForumPost) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(posts))
	byID := make(map[uint]*models.ForumPost, len(posts))
	for _, p := range posts {
		p.Likes = []uint{}
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}

	var likes []models.ForumLike
	err := r.db.WithContext(ctx).
		Where("post_id IN ?", ids).
		Order("created_at ASC").
		Find(&likes).Error
	if err != nil {
		return err
	}

	for _, l := range likes {
		if p, ok := byID[l.PostID]; ok {
			p.Likes = append(p.Likes, l.UserID)
		}
	}
	return nil
}
