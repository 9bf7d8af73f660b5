package server

import (
	"crypto/subtle"
	"errors"
	"strings"

	"kfarm/internal/middleware"
	"kfarm/internal/models"
	"kfarm/internal/repository"
	"kfarm/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// adminKeyMatches compares the presented key in constant time.
func (s *Server) adminKeyMatches(key string) bool {
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.config.AdminKey)) == 1
}

// AdminGetUsers lists every account for the admin dashboard.
func (s *Server) AdminGetUsers(c *fiber.Ctx) error {
	users, err := s.userRepo.List(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.Status(fiber.StatusOK).JSON(users)
}

// AdminGetProducts lists every product including unavailable ones.
func (s *Server) AdminGetProducts(c *fiber.Ctx) error {
	products, err := s.productRepo.ListAll(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.Status(fiber.StatusOK).JSON(products)
}

// AdminGetFarmInputs lists every farm input including unavailable ones.
func (s *Server) AdminGetFarmInputs(c *fiber.Ctx) error {
	inputs, err := s.farmInputRepo.ListAll(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.Status(fiber.StatusOK).JSON(inputs)
}

// AdminGetForumPosts lists every forum post across categories.
func (s *Server) AdminGetForumPosts(c *fiber.Ctx) error {
	posts, err := s.forumRepo.ListPosts(c.Context(), "all")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

type adminUpdateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Language string `json:"language"`
	IsAdmin  *bool  `json:"is_admin"`
}

// AdminUpdateUser edits any account's profile fields, including the admin
// flag. Partial update: empty fields are left alone.
func (s *Server) AdminUpdateUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("User", id))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	var req adminUpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationErrorWrap("Invalid request body", err))
	}

	if req.Name != "" {
		if err := validation.ValidateName(req.Name); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
		user.Name = strings.TrimSpace(req.Name)
	}
	if req.Email != "" {
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if err := validation.ValidateEmail(email); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
		if email != user.Email {
			if _, err := s.userRepo.GetByEmail(c.Context(), email); err == nil {
				return models.RespondWithError(c, fiber.StatusConflict,
					models.NewConflictError("An account with this email already exists"))
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return models.RespondWithError(c, fiber.StatusInternalServerError,
					models.NewInternalError(err))
			}
			user.Email = email
		}
	}
	if req.Phone != "" {
		if err := validation.ValidatePhone(req.Phone); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
		user.Phone = req.Phone
	}
	if req.Language != "" {
		user.Language = req.Language
	}
	if req.IsAdmin != nil {
		user.IsAdmin = *req.IsAdmin
	}

	if err := s.userRepo.Update(c.Context(), user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.RespondWithError(c, fiber.StatusConflict,
				models.NewConflictError("An account with this email already exists"))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	middleware.Logger.InfoContext(c.UserContext(), "user updated by admin",
		"target_user_id", user.ID, "user_id", currentUserID(c))

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": user})
}

// AdminDeleteComment removes a forum comment by id, bypassing the
// post-owner moderation route.
func (s *Server) AdminDeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.forumRepo.GetComment(c.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Comment", id))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if err := s.forumRepo.DeleteComment(c.Context(), id); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	middleware.Logger.InfoContext(c.UserContext(), "comment removed by admin",
		"comment_id", id, "user_id", currentUserID(c))

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Comment deleted"})
}

// AdminAnalytics returns the dashboard report for the requested range
// (week, month, or year; month is the default).
func (s *Server) AdminAnalytics(c *fiber.Ctx) error {
	rangeName := c.Query("range", "month")
	if _, err := repository.ParseRange(rangeName); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	report, err := s.analyticsRepo.Report(c.Context(), rangeName)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusOK).JSON(report)
}

type registerAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	AdminKey string `json:"admin_key"`
}

// RegisterAdmin creates an admin account. The route is public but gated by
// the deployment's admin key, so no admin session is needed to bootstrap
// the first admin.
func (s *Server) RegisterAdmin(c *fiber.Ctx) error {
	var req registerAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationErrorWrap("Invalid request body", err))
	}

	if !s.adminKeyMatches(req.AdminKey) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Invalid admin key"))
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.ValidateName(req.Name); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	if _, err := s.userRepo.GetByEmail(c.Context(), req.Email); err == nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewConflictError("An account with this email already exists"))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	user := &models.User{
		Name:          strings.TrimSpace(req.Name),
		Email:         req.Email,
		Password:      string(hash),
		Language:      "en",
		IsAdmin:       true,
		Notifications: models.NotificationPrefs{Email: true, Push: true},
	}

	if err := s.userRepo.Create(c.Context(), user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.RespondWithError(c, fiber.StatusConflict,
				models.NewConflictError("An account with this email already exists"))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	middleware.Logger.InfoContext(c.UserContext(), "admin registered",
		"user_id", user.ID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

type upgradeAdminRequest struct {
	AdminKey string `json:"admin_key"`
}

// UpgradeToAdmin promotes the authenticated user to admin when they present
// the deployment's admin key.
func (s *Server) UpgradeToAdmin(c *fiber.Ctx) error {
	var req upgradeAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationErrorWrap("Invalid request body", err))
	}

	if !s.adminKeyMatches(req.AdminKey) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Invalid admin key"))
	}

	user, err := s.userRepo.GetByID(c.Context(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if user.IsAdmin {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": user})
	}

	user.IsAdmin = true
	if err := s.userRepo.Update(c.Context(), user); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	middleware.Logger.InfoContext(c.UserContext(), "user upgraded to admin",
		"user_id", user.ID)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": user})
}
