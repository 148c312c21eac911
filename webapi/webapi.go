// Package webapi provides the HTTP surface of the donation backend. It is
// organized into sub-packages:
// - donation: donation creation and read endpoints
// - webhook: payment gateway notification endpoint
// - subscription: recurring donation management endpoints
package webapi

import (
	"errors"
	"strings"

	"github.com/doemais/marketplace/pkg/app"
	donationweb "github.com/doemais/marketplace/webapi/donation"
	subscriptionweb "github.com/doemais/marketplace/webapi/subscription"
	webhookweb "github.com/doemais/marketplace/webapi/webhook"

	"github.com/doemais/marketplace/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/gofiber/swagger"
)

// SetupApp initializes Fiber with the application routes and middleware.
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})
	fiberApp.Get("/swagger/*", swagger.New(swagger.Config{
		TryItOutEnabled: true,
	}))

	// Rate limiting keyed on the originating client IP. Behind a proxy the
	// X-Forwarded-For chain holds the real client address.
	fiberApp.Use(limiter.New(limiter.Config{
		Max:        a.Config.RateLimit.MaxRequests,
		Expiration: a.Config.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}))
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	// Health check endpoint
	fiberApp.Get(
		"/",
		func(c *fiber.Ctx) error {
			return c.SendString("Doemais donation API is running!")
		},
	)

	donationweb.Routes(fiberApp, a.DonationService, a.Config)
	webhookweb.Routes(fiberApp, a.ReconciliationService)
	subscriptionweb.Routes(fiberApp, a.SubscriptionService, a.Config)
	return fiberApp
}
