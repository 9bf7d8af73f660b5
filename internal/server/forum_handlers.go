package server

import (
	"errors"
	"strings"

	"kfarm/internal/middleware"
	"kfarm/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetForumPosts lists forum posts, optionally filtered by the category
// query parameter, newest first.
func (s *Server) GetForumPosts(c *fiber.Ctx) error {
	category := c.Query("category")
	if category != "" && category != "all" && !models.ValidForumCategory(category) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid category"))
	}

	posts, err := s.forumRepo.ListPosts(c.Context(), category)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

// GetForumPost returns a single post with its comments and like set.
func (s *Server) GetForumPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.forumRepo.GetPost(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Post", id))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

type forumPostRequest struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

// CreateForumPost creates a discussion thread authored by the session user.
func (s *Server) CreateForumPost(c *fiber.Ctx) error {
	var req forumPostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationErrorWrap("Invalid request body", err))
	}

	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Title and content are required"))
	}
	if req.Category == "" {
		req.Category = models.ForumCategoryUncategorized
	}
	if !models.ValidForumCategory(req.Category) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid category"))
	}

	post := &models.ForumPost{
		Category: req.Category,
		AuthorID: currentUserID(c),
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
	}

	if err := s.forumRepo.CreatePost(c.Context(), post); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	middleware.Logger.InfoContext(c.UserContext(), "forum post created",
		"post_id", post.ID, "user_id", post.AuthorID)

	created, err := s.forumRepo.GetPost(c.Context(), post.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateForumPost edits a post's category, title or content. Author or
// admin only; comments and likes are untouched.
func (s *Server) UpdateForumPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.forumRepo.GetPost(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Post", id))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if err := s.requireOwnerOrAdmin(c, post.AuthorID); err != nil {
		return nil
	}

	var req forumPostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationErrorWrap("Invalid request body", err))
	}

	if req.Category != "" {
		if !models.ValidForumCategory(req.Category) {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid category"))
		}
		post.Category = req.Category
	}
	if strings.TrimSpace(req.Title) != "" {
		post.Title = strings.TrimSpace(req.Title)
	}
	if strings.TrimSpace(req.Content) != "" {
		post.Content = req.Content
	}

	if err := s.forumRepo.UpdatePost(c.Context(), post); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	updated, err := s.forumRepo.GetPost(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.Status(fiber.StatusOK).JSON(updated)
}

// DeleteForumPost removes a post with its comments and likes. Author or
// admin only.
func (s *Server) DeleteForumPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.forumRepo.GetPost(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Post", id))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if err := s.requireOwnerOrAdmin(c, post.AuthorID); err != nil {
		return nil
	}

	if err := s.forumRepo.DeletePost(c.Context(), id); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	middleware.Logger.InfoContext(c.UserContext(), "forum post deleted",
		"post_id", id, "user_id", currentUserID(c))

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Post deleted"})
}

type forumCommentRequest struct {
	Content string `json:"content"`
}

// CreateForumComment appends a comment to a post, authored by the session
// user. Any authenticated user may comment on any post.
func (s *Server) CreateForumComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req forumCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationErrorWrap("Invalid request body", err))
	}
	if strings.TrimSpace(req.Content) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Content is required"))
	}

	if _, err := s.forumRepo.GetPost(c.Context(), postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Post", postID))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	comment := &models.ForumComment{
		PostID:   postID,
		AuthorID: currentUserID(c),
		Content:  req.Content,
	}

	if err := s.forumRepo.AddComment(c.Context(), comment); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteForumComment removes a comment from a post. Moderating comments is
// the post owner's call (or an admin's); the comment's author has no route
// of their own.
func (s *Server) DeleteForumComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	post, err := s.forumRepo.GetPost(c.Context(), postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Post", postID))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	comment, err := s.forumRepo.GetComment(c.Context(), commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Comment", commentID))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	if comment.PostID != post.ID {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Comment", commentID))
	}

	if err := s.requireOwnerOrAdmin(c, post.AuthorID); err != nil {
		return nil
	}

	if err := s.forumRepo.DeleteComment(c.Context(), commentID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	middleware.Logger.InfoContext(c.UserContext(), "comment deleted",
		"comment_id", commentID, "post_id", postID, "user_id", currentUserID(c))

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Comment deleted"})
}

// ToggleForumLike flips the session user's like on a post and returns the
// post's updated like set.
func (s *Server) ToggleForumLike(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.forumRepo.GetPost(c.Context(), postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Post", postID))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	liked, err := s.forumRepo.ToggleLike(c.Context(), postID, currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	post, err := s.forumRepo.GetPost(c.Context(), postID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"liked": liked,
		"likes": post.Likes,
	})
}
