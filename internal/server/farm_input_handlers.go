package server

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"kfarm/internal/middleware"
	"kfarm/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetFarmInputs lists available farm inputs, optionally filtered by the
// category query parameter, newest first.
func (s *Server) GetFarmInputs(c *fiber.Ctx) error {
	category := c.Query("category")
	if category != "" && category != "all" && !models.ValidFarmInputCategory(category) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid category"))
	}

	inputs, err := s.farmInputRepo.List(c.Context(), category)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.Status(fiber.StatusOK).JSON(inputs)
}

// GetFarmInput returns a single farm input by id.
func (s *Server) GetFarmInput(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	input, err := s.farmInputRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Farm input", id))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusOK).JSON(input)
}

// parseFarmInputForm reads the writable farm input fields from a multipart
// form into the given record. Empty fields leave the record untouched so
// the same parser serves create and update.
func (s *Server) parseFarmInputForm(c *fiber.Ctx, input *models.FarmInput) error {
	if name := c.FormValue("name"); name != "" {
		input.Name = strings.TrimSpace(name)
	}
	if desc := c.FormValue("description"); desc != "" {
		input.Description = desc
	}
	if unit := c.FormValue("unit"); unit != "" {
		input.Unit = unit
	}
	if category := c.FormValue("category"); category != "" {
		if !models.ValidFarmInputCategory(category) {
			return errors.New("invalid category: must be Seeds, Fertilizers, Tools, or Pesticides")
		}
		input.Category = category
	}
	if raw := c.FormValue("price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price < 0 {
			return errors.New("invalid price")
		}
		input.Price = price
	}
	if raw := c.FormValue("quantity"); raw != "" {
		quantity, err := strconv.Atoi(raw)
		if err != nil || quantity < 0 {
			return errors.New("invalid quantity")
		}
		input.Quantity = quantity
	}
	if raw := c.FormValue("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			return errors.New("invalid available value")
		}
		input.Available = available
	}
	if raw := c.FormValue("discount_eligible"); raw != "" {
		eligible, err := strconv.ParseBool(raw)
		if err != nil {
			return errors.New("invalid discount_eligible value")
		}
		input.DiscountEligible = eligible
	}
	if raw := c.FormValue("discount_threshold"); raw != "" {
		threshold, err := strconv.Atoi(raw)
		if err != nil || threshold < 0 {
			return errors.New("invalid discount_threshold")
		}
		input.DiscountThreshold = &threshold
	}
	if raw := c.FormValue("discount_percentage"); raw != "" {
		pct, err := strconv.ParseFloat(raw, 64)
		if err != nil || pct < 0 || pct > 100 {
			return errors.New("invalid discount_percentage")
		}
		input.DiscountPercentage = &pct
	}
	if raw := c.FormValue("specifications"); raw != "" {
		var specs models.InputSpecifications
		if err := json.Unmarshal([]byte(raw), &specs); err != nil {
			return errors.New("invalid specifications: must be a JSON object")
		}
		input.Specifications = specs
	}
	return nil
}

// CreateFarmInput creates a supply listing for the authenticated seller.
func (s *Server) CreateFarmInput(c *fiber.Ctx) error {
	input := &models.FarmInput{
		SellerID:  currentUserID(c),
		Available: true,
	}

	if err := s.parseFarmInputForm(c, input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	if input.Name == "" || input.Unit == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Name and unit are required"))
	}
	if input.Category == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Category is required"))
	}

	image, err := s.saveUpload(c, "image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	input.Image = image

	if err := s.farmInputRepo.Create(c.Context(), input); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	middleware.Logger.InfoContext(c.UserContext(), "farm input created",
		"farm_input_id", input.ID, "user_id", input.SellerID)

	created, err := s.farmInputRepo.GetByID(c.Context(), input.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateFarmInput modifies a supply listing. Only the owning seller or an
// admin may update; the owner never changes.
func (s *Server) UpdateFarmInput(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	input, err := s.farmInputRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Farm input", id))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if err := s.requireOwnerOrAdmin(c, input.SellerID); err != nil {
		return nil
	}

	if err := s.parseFarmInputForm(c, input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	image, err := s.saveUpload(c, "image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if image != "" {
		if input.Image != "" {
			s.removeUploadFile(input.Image)
		}
		input.Image = image
	}

	if err := s.farmInputRepo.Update(c.Context(), input); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusOK).JSON(input)
}

// DeleteFarmInput removes a supply listing and its stored image.
func (s *Server) DeleteFarmInput(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	input, err := s.farmInputRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Farm input", id))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if err := s.requireOwnerOrAdmin(c, input.SellerID); err != nil {
		return nil
	}

	if err := s.farmInputRepo.Delete(c.Context(), id); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if input.Image != "" {
		s.removeUploadFile(input.Image)
	}

	middleware.Logger.InfoContext(c.UserContext(), "farm input deleted",
		"farm_input_id", id, "user_id", currentUserID(c))

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Farm input deleted"})
}
