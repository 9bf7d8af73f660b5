package server

import (
	"errors"
	"strings"

	"kfarm/internal/middleware"
	"kfarm/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetGuides lists farming guides, optionally filtered by the crop query
// parameter, newest first.
func (s *Server) GetGuides(c *fiber.Ctx) error {
	guides, err := s.guideRepo.List(c.Context(), c.Query("crop"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.Status(fiber.StatusOK).JSON(guides)
}

// GetGuideCrops returns the crops that currently have guides.
func (s *Server) GetGuideCrops(c *fiber.Ctx) error {
	crops, err := s.guideRepo.DistinctCrops(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.Status(fiber.StatusOK).JSON(crops)
}

// GetGuide returns a single farming guide by id.
func (s *Server) GetGuide(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	guide, err := s.guideRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Guide", id))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusOK).JSON(guide)
}

type guideRequest struct {
	Crop    string `json:"crop"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreateGuide creates a farming guide owned by the session user.
func (s *Server) CreateGuide(c *fiber.Ctx) error {
	var req guideRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationErrorWrap("Invalid request body", err))
	}

	req.Crop = strings.ToLower(strings.TrimSpace(req.Crop))
	if req.Crop == "" || strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Crop, title and content are required"))
	}

	guide := &models.FarmingGuide{
		Crop:    req.Crop,
		Title:   strings.TrimSpace(req.Title),
		Content: req.Content,
		UserID:  currentUserID(c),
	}

	if err := s.guideRepo.Create(c.Context(), guide); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	middleware.Logger.InfoContext(c.UserContext(), "guide created",
		"guide_id", guide.ID, "user_id", guide.UserID)

	return c.Status(fiber.StatusCreated).JSON(guide)
}

// UpdateGuide edits a guide. Owner or admin only.
func (s *Server) UpdateGuide(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	guide, err := s.guideRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Guide", id))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if err := s.requireOwnerOrAdmin(c, guide.UserID); err != nil {
		return nil
	}

	var req guideRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationErrorWrap("Invalid request body", err))
	}

	if crop := strings.ToLower(strings.TrimSpace(req.Crop)); crop != "" {
		guide.Crop = crop
	}
	if strings.TrimSpace(req.Title) != "" {
		guide.Title = strings.TrimSpace(req.Title)
	}
	if strings.TrimSpace(req.Content) != "" {
		guide.Content = req.Content
	}

	if err := s.guideRepo.Update(c.Context(), guide); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusOK).JSON(guide)
}

// DeleteGuide removes a guide. Owner or admin only.
func (s *Server) DeleteGuide(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	guide, err := s.guideRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Guide", id))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if err := s.requireOwnerOrAdmin(c, guide.UserID); err != nil {
		return nil
	}

	if err := s.guideRepo.Delete(c.Context(), id); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	middleware.Logger.InfoContext(c.UserContext(), "guide deleted",
		"guide_id", id, "user_id", currentUserID(c))

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Guide deleted"})
}
