// Package subscription exposes the recurring donation management endpoints.
// All routes require an organization token.
package subscription

import (
	"github.com/doemais/marketplace/pkg/config"
	"github.com/doemais/marketplace/pkg/middleware"
	subscriptionsvc "github.com/doemais/marketplace/pkg/service/subscription"
	"github.com/doemais/marketplace/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Routes registers HTTP routes for subscription management.
func Routes(app *fiber.App, subscriptionSvc *subscriptionsvc.Service, cfg *config.App) {
	app.Get(
		"/subscriptions/:id",
		middleware.JwtProtected(cfg.Jwt),
		GetSubscriptionStatus(subscriptionSvc),
	)
	app.Patch(
		"/subscriptions/:id",
		middleware.JwtProtected(cfg.Jwt),
		UpdateSubscriptionAmount(subscriptionSvc),
	)
	app.Delete(
		"/subscriptions/:id",
		middleware.JwtProtected(cfg.Jwt),
		CancelSubscription(subscriptionSvc),
	)
}

// UpdateAmountRequest is the JSON body for amount updates.
type UpdateAmountRequest struct {
	Amount float64 `json:"amount" validate:"required" example:"40.00"`
}

// SubscriptionStatusResponse is the gateway's view of a subscription.
type SubscriptionStatusResponse struct {
	ID              string  `json:"id"`
	Status          string  `json:"status"`
	Amount          float64 `json:"amount"`
	Frequency       string  `json:"frequency"`
	NextBillingDate string  `json:"nextBillingDate,omitempty"`
}

// GetSubscriptionStatus returns a Fiber handler querying the gateway for a
// subscription's current state. The path id is the local donation id.
// @Summary Get subscription status
// @Tags subscription
// @Produce json
// @Success 200 {object} common.Response "Subscription status fetched"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Failure 403 {object} common.ProblemDetails "Forbidden"
// @Failure 404 {object} common.ProblemDetails "Subscription not found"
// @Router /subscriptions/{id} [get]
// @Security Bearer
func GetSubscriptionStatus(subscriptionSvc *subscriptionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, caller, err := parseRequest(c)
		if err != nil {
			return err // error response already written
		}
		status, err := subscriptionSvc.GetStatus(c.Context(), id, caller)
		if err != nil {
			log.Errorf("Failed to get subscription status: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to get subscription status", err)
		}
		resp := &SubscriptionStatusResponse{
			ID:        status.ID,
			Status:    string(status.Status),
			Amount:    float64(status.AmountCentavos) / 100,
			Frequency: status.Frequency,
		}
		if !status.NextBillingDate.IsZero() {
			resp.NextBillingDate = status.NextBillingDate.Format("2006-01-02")
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Subscription status fetched", resp)
	}
}

// UpdateSubscriptionAmount returns a Fiber handler changing the billed amount
// at the gateway.
// @Summary Update subscription amount
// @Tags subscription
// @Accept json
// @Produce json
// @Param request body UpdateAmountRequest true "New amount"
// @Success 200 {object} common.Response "Subscription updated"
// @Failure 400 {object} common.ProblemDetails "Invalid amount"
// @Failure 403 {object} common.ProblemDetails "Forbidden"
// @Failure 422 {object} common.ProblemDetails "Subscription not active"
// @Failure 502 {object} common.ProblemDetails "Payment gateway failure"
// @Router /subscriptions/{id} [patch]
// @Security Bearer
func UpdateSubscriptionAmount(subscriptionSvc *subscriptionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, caller, err := parseRequest(c)
		if err != nil {
			return err
		}
		input, err := common.BindAndValidate[UpdateAmountRequest](c)
		if input == nil {
			return err
		}
		if err := subscriptionSvc.UpdateAmount(c.Context(), id, caller, input.Amount); err != nil {
			log.Errorf("Failed to update subscription: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to update subscription", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Subscription updated", nil)
	}
}

// CancelSubscription returns a Fiber handler cancelling a subscription at the
// gateway and mirroring the cancellation locally.
// @Summary Cancel a subscription
// @Tags subscription
// @Produce json
// @Success 200 {object} common.Response "Subscription cancelled"
// @Failure 403 {object} common.ProblemDetails "Forbidden"
// @Failure 404 {object} common.ProblemDetails "Subscription not found"
// @Failure 422 {object} common.ProblemDetails "Subscription not active"
// @Failure 502 {object} common.ProblemDetails "Payment gateway failure"
// @Router /subscriptions/{id} [delete]
// @Security Bearer
func CancelSubscription(subscriptionSvc *subscriptionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, caller, err := parseRequest(c)
		if err != nil {
			return err
		}
		if err := subscriptionSvc.Cancel(c.Context(), id, caller); err != nil {
			log.Errorf("Failed to cancel subscription: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to cancel subscription", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Subscription cancelled", nil)
	}
}

// parseRequest extracts the donation id from the path and the caller identity
// from the verified token. On failure the error response is already written.
func parseRequest(c *fiber.Ctx) (uuid.UUID, subscriptionsvc.Caller, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, subscriptionsvc.Caller{}, common.ErrorResponseJSON(c,
			fiber.StatusBadRequest, "Invalid subscription ID",
			"Subscription ID must be a valid UUID")
	}
	claims, err := middleware.ClaimsFromContext(c)
	if err != nil {
		return uuid.Nil, subscriptionsvc.Caller{}, common.ErrorResponseJSON(c,
			fiber.StatusUnauthorized, "Unauthorized", "missing user context")
	}
	return id, subscriptionsvc.Caller{
		OrganizationID: claims.OrganizationID,
		IsAdmin:        claims.IsAdmin,
	}, nil
}
