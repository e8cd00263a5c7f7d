package handlers

import (
	"errors"
	"io"

	"catalog/internal/middleware"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/valyala/fasthttp"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
	logger  hclog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, logger hclog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.Named("products"),
	}
}

// RegisterRoutes registers the product routes. Mutations go through auth.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/slug/:slug", h.HandleGetProductBySlug)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Get("/:id/stock-movements", h.HandleGetStockMovements)

	productRoutes.Post("/", auth, h.HandleCreateProduct)
	productRoutes.Post("/bulk", auth, h.HandleBulkCreateProducts)
	productRoutes.Put("/:id", auth, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", auth, h.HandleDeleteProduct)
	productRoutes.Post("/:id/restock", auth, h.HandleRestockProduct)
}

// HandleGetProducts lists products filtered, sorted and paginated by the query string.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	page, err := h.service.GetAllProducts(c.UserContext(), c.Queries())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(page)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(product)
}

// HandleGetProductBySlug retrieves a single product by its slug.
func (h *ProductHandler) HandleGetProductBySlug(c *fiber.Ctx) error {
	product, err := h.service.GetProductBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(product)
}

// HandleGetStockMovements lists a product's stock history.
func (h *ProductHandler) HandleGetStockMovements(c *fiber.Ctx) error {
	movements, err := h.service.ListStockMovements(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(movements)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var input services.CreateProductInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, err)
	}

	product, err := h.service.CreateProduct(c.UserContext(), input)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product created successfully",
		"product": product,
	})
}

// HandleUpdateProduct applies a partial update to a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var input services.UpdateProductInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, err)
	}

	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"message": "Product updated successfully",
		"product": product,
	})
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type restockRequest struct {
	Quantity int     `json:"quantity"`
	Notes    *string `json:"notes,omitempty"`
}

// HandleRestockProduct records an inbound delivery for the product.
func (h *ProductHandler) HandleRestockProduct(c *fiber.Ctx) error {
	var req restockRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	restock, err := h.service.RestockProduct(c.UserContext(), c.Params("id"), req.Quantity, req.Notes, middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product restocked successfully",
		"restock": restock,
	})
}

// HandleBulkCreateProducts imports products from the multipart field "file".
func (h *ProductHandler) HandleBulkCreateProducts(c *fiber.Ctx) error {
	var file *services.ImportFile

	header, err := c.FormFile("file")
	switch {
	case errors.Is(err, fasthttp.ErrMissingFile), errors.Is(err, fasthttp.ErrNoMultipartForm):
	case err != nil:
		return badBody(c, err)
	default:
		f, err := header.Open()
		if err != nil {
			return badBody(c, err)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return badBody(c, err)
		}
		file = &services.ImportFile{MimeType: header.Header.Get("Content-Type"), Data: data}
	}

	count, err := h.service.BulkCreateProducts(c.UserContext(), file)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Products imported successfully",
		"count":   count,
	})
}
