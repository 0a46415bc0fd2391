package handlers

import (
	"log"

	"kriya/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles HTTP requests for payment intents and reconciliation.
type PaymentHandler struct {
	service  *services.PaymentService
	validate *validator.Validate
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the authenticated payment routes.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/orders/:id/payment/intent", h.HandleCreateIntent)
	router.Post("/orders/:id/payment/reconcile", h.HandleReconcile)
	router.Post("/orders/:id/payment/refund", h.HandleRefund)
}

// RegisterWebhookRoutes registers the processor callback route. It is mounted
// outside the JWT middleware: the processor does not authenticate as a user,
// and reconciliation verifies the transaction server-side anyway.
func (h *PaymentHandler) RegisterWebhookRoutes(router fiber.Router) {
	router.Post("/payments/webhook", h.HandleWebhook)
}

// IntentRequest asks for a processor transaction covering the order total.
type IntentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// HandleCreateIntent opens a payment intent for the order and returns the
// client secret the customer needs to complete payment.
func (h *PaymentHandler) HandleCreateIntent(c *fiber.Ctx) error {
	var req IntentRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing intent request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "A positive payment amount is required",
			"error":   err.Error(),
		})
	}

	intent, err := h.service.CreateIntent(c.Context(), c.Params("id"), actorID(c), req.Amount)
	if err != nil {
		log.Printf("Error creating payment intent for order %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(intent)
}

// HandleReconcile is the synchronous reconciliation path: the client polls the
// outcome it observed and the server verifies it with the processor.
func (h *PaymentHandler) HandleReconcile(c *fiber.Ctx) error {
	var req services.ReconcileRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing reconcile request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Outcome must be 'succeeded' or 'failed'",
			"error":   err.Error(),
		})
	}

	order, err := h.service.Reconcile(c.Context(), c.Params("id"), req)
	if err != nil {
		log.Printf("Error reconciling payment for order %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return c.JSON(order)
}

// WebhookPayload is the processor-initiated callback body.
type WebhookPayload struct {
	OrderID       string `json:"order_id" validate:"required"`
	TransactionID string `json:"transaction_id" validate:"required"`
	Outcome       string `json:"outcome" validate:"required,oneof=succeeded failed"`
	Reason        string `json:"reason,omitempty"`
}

// HandleWebhook is the asynchronous reconciliation path. It converges on the
// same Reconcile logic as the poll endpoint, so duplicate deliveries are
// harmless.
func (h *PaymentHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload WebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid webhook payload",
		})
	}
	if err := h.validate.Struct(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid webhook payload",
			"error":   err.Error(),
		})
	}

	_, err := h.service.Reconcile(c.Context(), payload.OrderID, services.ReconcileRequest{
		TransactionID: payload.TransactionID,
		Outcome:       payload.Outcome,
		Reason:        payload.Reason,
	})
	if err != nil {
		log.Printf("Error reconciling webhook for order %s: %v", payload.OrderID, err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "ok"})
}

// HandleRefund drives a paid order to refunded. The service enforces the
// admin-only rule.
func (h *PaymentHandler) HandleRefund(c *fiber.Ctx) error {
	order, err := h.service.Refund(c.Context(), c.Params("id"), actorRole(c))
	if err != nil {
		log.Printf("Error refunding order %s: %v", c.Params("id"), err)
		return respondError(c, err)
	}
	return c.JSON(order)
}
