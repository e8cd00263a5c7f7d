package handlers

import (
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/hashicorp/go-hclog"
)

// CatalogHandler handles HTTP requests for categories and attributes.
type CatalogHandler struct {
	service *services.CatalogService
	logger  hclog.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(service *services.CatalogService, logger hclog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.Named("catalog"),
	}
}

// RegisterRoutes registers the category and attribute routes. Mutations go through auth.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	categoryRoutes := router.Group("/categories")
	categoryRoutes.Get("/", h.HandleGetCategories)
	categoryRoutes.Post("/", auth, h.HandleCreateCategory)

	attributeRoutes := router.Group("/attributes")
	attributeRoutes.Get("/", h.HandleGetAttributes)
	attributeRoutes.Post("/", auth, h.HandleCreateAttribute)
}

// HandleGetCategories lists every category.
func (h *CatalogHandler) HandleGetCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(categories)
}

// HandleCreateCategory creates a category.
func (h *CatalogHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var input services.CreateCategoryInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, err)
	}
	category, err := h.service.CreateCategory(c.UserContext(), input)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// HandleGetAttributes lists every attribute with its values.
func (h *CatalogHandler) HandleGetAttributes(c *fiber.Ctx) error {
	attributes, err := h.service.ListAttributes(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(attributes)
}

// HandleCreateAttribute creates an attribute with its values.
func (h *CatalogHandler) HandleCreateAttribute(c *fiber.Ctx) error {
	var input services.CreateAttributeInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, err)
	}
	attribute, err := h.service.CreateAttribute(c.UserContext(), input)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(attribute)
}
