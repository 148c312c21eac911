// Package donation exposes the donation creation and read endpoints.
package donation

import (
	"github.com/doemais/marketplace/pkg/config"
	"github.com/doemais/marketplace/pkg/dto"
	"github.com/doemais/marketplace/pkg/middleware"
	donationsvc "github.com/doemais/marketplace/pkg/service/donation"
	"github.com/doemais/marketplace/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Routes registers HTTP routes for donation operations. Creation and lookup
// are public: donors are not authenticated. The organization listing exposes
// donor contact data and requires the organization's own token.
func Routes(app *fiber.App, donationSvc *donationsvc.Service, cfg *config.App) {
	app.Post("/donations", CreateDonation(donationSvc))
	app.Post("/donations/recurring", CreateRecurringDonation(donationSvc))
	app.Get("/donations/:id", GetDonation(donationSvc))
	app.Get(
		"/organizations/:id/donations",
		middleware.JwtProtected(cfg.Jwt),
		ListOrganizationDonations(donationSvc),
	)
}

// CreateDonation returns a Fiber handler that creates a one-off donation and
// initiates its payment.
// @Summary Create a donation
// @Description Creates a one-off donation for an organization and returns the payment redirect URL.
// @Tags donation
// @Accept json
// @Produce json
// @Param request body CreateDonationRequest true "Donation to create"
// @Success 201 {object} common.Response "Donation created"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 404 {object} common.ProblemDetails "Organization not found"
// @Failure 502 {object} common.ProblemDetails "Payment gateway failure"
// @Router /donations [post]
func CreateDonation(donationSvc *donationsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[CreateDonationRequest](c)
		if input == nil {
			return err // error response already written
		}
		result, err := donationSvc.CreateSingle(c.Context(), input.toDTO())
		if err != nil {
			log.Errorf("Failed to create donation: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to create donation", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Donation created",
			newCreatedResponse(result))
	}
}

// CreateRecurringDonation returns a Fiber handler that creates a recurring
// donation and its subscription at the gateway.
// @Summary Create a recurring donation
// @Description Creates a recurring donation billed on the requested frequency.
// @Tags donation
// @Accept json
// @Produce json
// @Param request body CreateDonationRequest true "Recurring donation to create"
// @Success 201 {object} common.Response "Recurring donation created"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 404 {object} common.ProblemDetails "Organization not found"
// @Failure 502 {object} common.ProblemDetails "Payment gateway failure"
// @Router /donations/recurring [post]
func CreateRecurringDonation(donationSvc *donationsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[CreateDonationRequest](c)
		if input == nil {
			return err // error response already written
		}
		result, err := donationSvc.CreateRecurring(c.Context(), input.toDTO())
		if err != nil {
			log.Errorf("Failed to create recurring donation: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to create recurring donation", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Recurring donation created",
			newRecurringCreatedResponse(result))
	}
}

// GetDonation returns a Fiber handler for reading one donation.
// @Summary Get a donation
// @Description Retrieves a donation by id. Donor identity is masked for anonymous donations.
// @Tags donation
// @Produce json
// @Success 200 {object} common.Response "Donation fetched"
// @Failure 400 {object} common.ProblemDetails "Invalid donation ID"
// @Failure 404 {object} common.ProblemDetails "Donation not found"
// @Router /donations/{id} [get]
func GetDonation(donationSvc *donationsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest,
				"Invalid donation ID", "Donation ID must be a valid UUID")
		}
		d, err := donationSvc.GetByID(c.Context(), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get donation", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Donation fetched",
			dto.NewDonationRead(d))
	}
}

// ListOrganizationDonations returns a Fiber handler listing an organization's
// donations, newest first. Only the organization itself or an admin may list.
// @Summary List an organization's donations
// @Tags donation
// @Produce json
// @Success 200 {object} common.Response "Donations fetched"
// @Failure 400 {object} common.ProblemDetails "Invalid organization ID"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Failure 403 {object} common.ProblemDetails "Forbidden"
// @Router /organizations/{id}/donations [get]
// @Security Bearer
func ListOrganizationDonations(donationSvc *donationsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest,
				"Invalid organization ID", "Organization ID must be a valid UUID")
		}
		claims, err := middleware.ClaimsFromContext(c)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnauthorized,
				"Unauthorized", "missing user context")
		}
		if !claims.IsAdmin && claims.OrganizationID != orgID {
			return common.ErrorResponseJSON(c, fiber.StatusForbidden,
				"Forbidden", "You are not allowed to list this organization's donations")
		}
		donations, err := donationSvc.ListByOrganization(c.Context(), orgID)
		if err != nil {
			log.Errorf("Failed to list donations: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to list donations", err)
		}
		reads := make([]*dto.DonationRead, 0, len(donations))
		for _, d := range donations {
			reads = append(reads, dto.NewDonationRead(d))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Donations fetched", reads)
	}
}
