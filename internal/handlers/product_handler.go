package handlers

import (
	"fmt"
	"log"

	"kriya/internal/middleware"
	"kriya/internal/models"
	"kriya/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", middleware.RequireRole(models.RoleArtisan, models.RoleAdmin), h.HandleCreateProduct)
	productRoutes.Put("/:id", middleware.RequireRole(models.RoleArtisan, models.RoleAdmin), h.HandleUpdateProduct)
	productRoutes.Patch("/:id/approve", middleware.RequireRole(models.RoleAdmin), h.HandleApproveProduct)
	productRoutes.Delete("/:id", middleware.RequireRole(models.RoleArtisan, models.RoleAdmin), h.HandleDeleteProduct)
}

// HandleGetProducts lists the catalog. Customers see only approved listings;
// admins see everything.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	var (
		products []models.Product
		err      error
	)
	if actorRole(c) == models.RoleAdmin {
		products, err = h.service.GetAllProducts()
	} else {
		products, err = h.service.GetApprovedProducts()
	}
	if err != nil {
		log.Printf("Error getting products: %v", err)
		return respondError(c, err)
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.Params("id"))
	if err != nil {
		log.Printf("Error getting product %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleCreateProduct lists a new product owned by the authenticated artisan.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		log.Printf("Error parsing create product request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(product); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	if err := h.service.CreateProduct(&product, actorID(c)); err != nil {
		log.Printf("Error creating product: %v", err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct updates a listing owned by the authenticated artisan.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		log.Printf("Error parsing update product request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	product.ID = c.Params("id")

	if err := h.service.UpdateProduct(&product, actorID(c)); err != nil {
		log.Printf("Error updating product %s: %v", product.ID, err)
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleApproveProduct clears a listing for sale. Admin only (enforced by the
// route middleware).
func (h *ProductHandler) HandleApproveProduct(c *fiber.Ctx) error {
	product, err := h.service.ApproveProduct(c.Params("id"))
	if err != nil {
		log.Printf("Error approving product %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct removes a listing.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.Params("id"), actorID(c), actorRole(c)); err != nil {
		log.Printf("Error deleting product %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Product %s deleted successfully", c.Params("id")),
	})
}
