package server

import (
	"errors"
	"strconv"
	"strings"

	"kfarm/internal/middleware"
	"kfarm/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetProducts lists available marketplace products, newest first.
func (s *Server) GetProducts(c *fiber.Ctx) error {
	products, err := s.productRepo.ListAvailable(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.Status(fiber.StatusOK).JSON(products)
}

// GetProduct returns a single product by id.
func (s *Server) GetProduct(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	product, err := s.productRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Product", id))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusOK).JSON(product)
}

// CreateProduct creates a marketplace listing for the authenticated farmer.
// Sent as multipart so the product image rides along; the farmer is always
// the session user, regardless of what the body claims.
func (s *Server) CreateProduct(c *fiber.Ctx) error {
	product := &models.Product{
		Name:        strings.TrimSpace(c.FormValue("name")),
		Description: c.FormValue("description"),
		City:        strings.TrimSpace(c.FormValue("city")),
		Category:    c.FormValue("category"),
		Unit:        c.FormValue("unit"),
		FarmerID:    currentUserID(c),
		Available:   true,
	}

	if product.Name == "" || product.City == "" || product.Unit == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Name, city and unit are required"))
	}

	price, err := strconv.ParseFloat(c.FormValue("price"), 64)
	if err != nil || price < 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid price"))
	}
	product.Price = price

	quantity, err := strconv.Atoi(c.FormValue("quantity"))
	if err != nil || quantity < 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid quantity"))
	}
	product.Quantity = quantity

	image, err := s.saveUpload(c, "image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	product.Image = image

	if err := s.productRepo.Create(c.Context(), product); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	middleware.Logger.InfoContext(c.UserContext(), "product created",
		"product_id", product.ID, "user_id", product.FarmerID)

	created, err := s.productRepo.GetByID(c.Context(), product.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateProduct modifies a listing. Only the owning farmer or an admin may
// update; the owner never changes.
func (s *Server) UpdateProduct(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	product, err := s.productRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Product", id))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if err := s.requireOwnerOrAdmin(c, product.FarmerID); err != nil {
		return nil
	}

	if name := c.FormValue("name"); name != "" {
		product.Name = strings.TrimSpace(name)
	}
	if desc := c.FormValue("description"); desc != "" {
		product.Description = desc
	}
	if city := c.FormValue("city"); city != "" {
		product.City = strings.TrimSpace(city)
	}
	if category := c.FormValue("category"); category != "" {
		product.Category = category
	}
	if unit := c.FormValue("unit"); unit != "" {
		product.Unit = unit
	}
	if raw := c.FormValue("price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price < 0 {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid price"))
		}
		product.Price = price
	}
	if raw := c.FormValue("quantity"); raw != "" {
		quantity, err := strconv.Atoi(raw)
		if err != nil || quantity < 0 {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid quantity"))
		}
		product.Quantity = quantity
	}
	if raw := c.FormValue("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid available value"))
		}
		product.Available = available
	}

	image, err := s.saveUpload(c, "image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if image != "" {
		if product.Image != "" {
			s.removeUploadFile(product.Image)
		}
		product.Image = image
	}

	if err := s.productRepo.Update(c.Context(), product); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusOK).JSON(product)
}

// DeleteProduct removes a listing and its stored image.
func (s *Server) DeleteProduct(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	product, err := s.productRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Product", id))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if err := s.requireOwnerOrAdmin(c, product.FarmerID); err != nil {
		return nil
	}

	if err := s.productRepo.Delete(c.Context(), id); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if product.Image != "" {
		s.removeUploadFile(product.Image)
	}

	middleware.Logger.InfoContext(c.UserContext(), "product deleted",
		"product_id", id, "user_id", currentUserID(c))

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Product deleted"})
}
