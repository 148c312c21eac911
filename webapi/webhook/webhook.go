// Package webhook receives asynchronous payment gateway notifications.
package webhook

import (
	reconciliationsvc "github.com/doemais/marketplace/pkg/service/reconciliation"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Routes registers the gateway notification endpoint.
func Routes(app *fiber.App, reconciliationSvc *reconciliationsvc.Service) {
	app.Post("/webhooks/payment", Receive(reconciliationSvc))
}

// Receive returns a Fiber handler for gateway notifications. The provider is
// always acknowledged with 200: reconciliation failures are logged and
// settled by later retries or manual inspection, never by asking the
// provider to redeliver a payload we cannot process.
// @Summary Receive a payment gateway notification
// @Tags webhook
// @Accept json
// @Produce json
// @Success 200 {object} receiveResponse "Notification acknowledged"
// @Router /webhooks/payment [post]
func Receive(reconciliationSvc *reconciliationsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		signature := c.Get("X-Signature")
		if err := reconciliationSvc.Process(c.Context(), c.Body(), signature); err != nil {
			log.Errorf("Webhook processing failed: %v", err)
			return c.Status(fiber.StatusOK).JSON(receiveResponse{
				Success: false,
				Message: "notification received",
			})
		}
		return c.Status(fiber.StatusOK).JSON(receiveResponse{
			Success: true,
			Message: "notification processed",
		})
	}
}

type receiveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
