package handlers

import (
	"errors"

	"kriya/internal/models"

	"github.com/gofiber/fiber/v2"
)

// respondError maps the typed business errors onto HTTP responses.
// Validation and business-rule rejections are surfaced verbatim; forbidden
// stays generic so nothing leaks about other users' orders; transition errors
// read as "cannot do this now" since they usually mean a race or a stale
// client; anything unmatched is treated as an infrastructure failure.
func respondError(c *fiber.Ctx, err error) error {
	var validationErr *models.ValidationError

	switch {
	// Aggregated validation first: a batch may contain not-found or stock
	// issues and must still come back as one 400 covering all of them.
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	case errors.Is(err, models.ErrOrderNotFound), errors.Is(err, models.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "You do not have permission to perform this action",
		})
	case errors.Is(err, models.ErrProductNotApproved), errors.Is(err, models.ErrInsufficientStock):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrInvalidStatusTransition), errors.Is(err, models.ErrInvalidPaymentTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Cannot perform this action now",
			"error":   err.Error(),
		})
	case errors.Is(err, models.ErrPaymentVerificationFailed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Payment could not be verified with the processor",
		})
	case errors.Is(err, models.ErrVersionConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "The order was modified concurrently, please retry",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "An internal error occurred",
			"error":   err.Error(),
		})
	}
}

// actorID extracts the authenticated user id set by the JWT middleware.
func actorID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// actorRole extracts the authenticated user role set by the JWT middleware.
func actorRole(c *fiber.Ctx) string {
	role, _ := c.Locals("role").(string)
	return role
}
