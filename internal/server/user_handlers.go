package server

import (
	"errors"

	"kfarm/internal/middleware"
	"kfarm/internal/models"
	"kfarm/internal/session"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DeleteUser removes an account and everything it owns. A user may delete
// themselves; an admin may delete anyone. Deleting your own account also
// ends the current session.
func (s *Server) DeleteUser(c *fiber.Ctx) error {
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

	if err := s.requireOwnerOrAdmin(c, user.ID); err != nil {
		return nil
	}

	// Collect stored images before the cascade removes the rows.
	var images []string
	if user.ProfilePicture != "" {
		images = append(images, user.ProfilePicture)
	}
	products, err := s.productRepo.ListByFarmer(c.Context(), user.ID)
	if err == nil {
		for _, p := range products {
			if p.Image != "" {
				images = append(images, p.Image)
			}
		}
	}
	inputs, err := s.farmInputRepo.ListBySeller(c.Context(), user.ID)
	if err == nil {
		for _, in := range inputs {
			if in.Image != "" {
				images = append(images, in.Image)
			}
		}
	}

	if err := s.userRepo.Delete(c.Context(), user.ID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	for _, img := range images {
		s.removeUploadFile(img)
	}

	if user.ID == currentUserID(c) {
		if sid := c.Cookies(session.CookieName); sid != "" {
			_ = s.sessions.Destroy(c.Context(), sid)
		}
		s.clearSessionCookie(c)
	}

	middleware.Logger.InfoContext(c.UserContext(), "user deleted",
		"deleted_user_id", user.ID, "user_id", currentUserID(c))

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "User deleted"})
}
