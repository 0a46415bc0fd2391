package handlers

import (
	"fmt"
	"log"

	"kriya/internal/models"
	"kriya/internal/repositories"
	"kriya/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", h.HandlePlaceOrder)
	orderRoutes.Get("/", h.HandleGetMyOrders)
	orderRoutes.Get("/artisan", h.HandleGetArtisanOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", h.HandleUpdateFulfillmentStatus)
	orderRoutes.Post("/:id/cancel", h.HandleCancelOrder)
}

// HandlePlaceOrder runs the checkout flow for the authenticated customer.
func (h *OrderHandler) HandlePlaceOrder(c *fiber.Ctx) error {
	var req services.PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing place-order request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
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
	if err := h.validate.Struct(req.ShippingAddress); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "A complete shipping address is required",
			"error":   err.Error(),
		})
	}

	order, err := h.service.PlaceOrder(actorID(c), req)
	if err != nil {
		log.Printf("Error placing order: %v", err)
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetMyOrders lists the authenticated customer's own orders.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	page := paginationFromQuery(c)
	orders, err := h.service.GetOrdersForUser(actorID(c), page)
	if err != nil {
		log.Printf("Error getting orders for user %s: %v", actorID(c), err)
		return respondError(c, err)
	}
	return c.JSON(orders)
}

// HandleGetArtisanOrders lists orders containing products the authenticated
// artisan fulfills.
func (h *OrderHandler) HandleGetArtisanOrders(c *fiber.Ctx) error {
	page := paginationFromQuery(c)
	orders, err := h.service.GetOrdersForArtisan(actorID(c), page)
	if err != nil {
		log.Printf("Error getting orders for artisan %s: %v", actorID(c), err)
		return respondError(c, err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order, access-checked to the owner,
// a fulfilling artisan, or an admin.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrderByID(c.Params("id"), actorID(c), actorRole(c))
	if err != nil {
		log.Printf("Error getting order %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return c.JSON(order)
}

// FulfillmentUpdateRequest is the artisan's status-advance payload.
type FulfillmentUpdateRequest struct {
	Status         models.OrderStatus `json:"status" validate:"required,oneof=processing shipped delivered cancelled"`
	TrackingNumber string             `json:"tracking_number,omitempty"`
	Notes          string             `json:"notes,omitempty"`
}

// HandleUpdateFulfillmentStatus advances an order's fulfillment state on
// behalf of the authenticated artisan.
func (h *OrderHandler) HandleUpdateFulfillmentStatus(c *fiber.Ctx) error {
	var req FulfillmentUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing status update request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for status update",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "A valid target status is required",
			"error":   err.Error(),
		})
	}

	order, err := h.service.UpdateFulfillmentStatus(c.Params("id"), actorID(c), req.Status, req.TrackingNumber, req.Notes)
	if err != nil {
		log.Printf("Error updating fulfillment status for order %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandleCancelOrder cancels a still-pending order on behalf of its owner.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	order, err := h.service.CancelOrder(c.Params("id"), actorID(c))
	if err != nil {
		log.Printf("Error cancelling order %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return c.JSON(order)
}

func paginationFromQuery(c *fiber.Ctx) repositories.Pagination {
	return repositories.Pagination{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 0),
	}
}
