// Package subscription manages recurring donations after creation: cancel,
// amount updates and status passthrough.
package subscription

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/doemais/marketplace/pkg/domain"
	donationdomain "github.com/doemais/marketplace/pkg/domain/donation"
	"github.com/doemais/marketplace/pkg/dto"
	"github.com/doemais/marketplace/pkg/provider/payment"
	"github.com/doemais/marketplace/pkg/repository"
	donationsvc "github.com/doemais/marketplace/pkg/service/donation"
	"github.com/google/uuid"
)

// Caller identifies who is acting on a subscription. The identity comes from
// the auth subsystem; this service only enforces ownership.
type Caller struct {
	OrganizationID uuid.UUID
	IsAdmin        bool
}

// Service is a thin façade over the gateway for recurring donations. Local
// state only mutates after the gateway call succeeded, so local and remote
// never diverge through this path.
type Service struct {
	repo      repository.DonationRepository
	gateway   payment.Gateway
	validator *donationsvc.RequestValidator
	logger    *slog.Logger
}

// New creates the subscription management service. Amount updates are checked
// against the same policy bounds the creation validator enforces.
func New(
	repo repository.DonationRepository,
	gateway payment.Gateway,
	validator *donationsvc.RequestValidator,
	logger *slog.Logger,
) *Service {
	return &Service{repo: repo, gateway: gateway, validator: validator, logger: logger}
}

// Cancel cancels an approved recurring donation at the gateway, then mirrors
// the cancellation locally.
func (s *Service) Cancel(ctx context.Context, donationID uuid.UUID, caller Caller) error {
	d, err := s.authorize(ctx, donationID, caller)
	if err != nil {
		return err
	}
	if d.Status != donationdomain.StatusApproved {
		return fmt.Errorf("%w: only approved subscriptions can be cancelled (current: %s)",
			donationdomain.ErrInvalidTransition, d.Status)
	}

	if _, err := s.gateway.CancelSubscription(ctx, d.SubscriptionID); err != nil {
		// Local state untouched: the subscription is still live remotely.
		s.logger.Error("gateway cancel failed",
			"donation_id", d.ID,
			"subscription_id", d.SubscriptionID,
			"error", err,
		)
		return err
	}

	cancelled := donationdomain.StatusCancelled
	if err := s.repo.UpdateByID(ctx, d.ID, dto.DonationPatch{Status: &cancelled}); err != nil {
		return fmt.Errorf("subscription cancelled at gateway but local update failed: %w", err)
	}
	s.logger.Info("subscription cancelled", "donation_id", d.ID, "subscription_id", d.SubscriptionID)
	return nil
}

// UpdateAmount changes the billed amount at the gateway. The local record
// keeps the original pledge; the gateway is authoritative for the current
// billing amount, observable through GetStatus.
func (s *Service) UpdateAmount(
	ctx context.Context,
	donationID uuid.UUID,
	caller Caller,
	newAmount float64,
) error {
	d, err := s.authorize(ctx, donationID, caller)
	if err != nil {
		return err
	}
	if d.Status != donationdomain.StatusApproved {
		return fmt.Errorf("%w: only approved subscriptions can be updated (current: %s)",
			donationdomain.ErrInvalidTransition, d.Status)
	}

	amount, err := s.validator.ValidateRecurringAmount(newAmount)
	if err != nil {
		return err
	}

	if _, err := s.gateway.UpdateSubscription(ctx, d.SubscriptionID, &payment.UpdateSubscriptionParams{
		AmountCentavos: amount.Centavos(),
	}); err != nil {
		s.logger.Error("gateway update failed",
			"donation_id", d.ID,
			"subscription_id", d.SubscriptionID,
			"error", err,
		)
		return err
	}
	s.logger.Info("subscription amount updated",
		"donation_id", d.ID,
		"subscription_id", d.SubscriptionID,
		"new_amount", amount.String(),
	)
	return nil
}

// GetStatus queries the gateway for the subscription's current state.
func (s *Service) GetStatus(
	ctx context.Context,
	donationID uuid.UUID,
	caller Caller,
) (*payment.SubscriptionStatus, error) {
	d, err := s.authorize(ctx, donationID, caller)
	if err != nil {
		return nil, err
	}
	return s.gateway.GetSubscriptionStatus(ctx, d.SubscriptionID)
}

// authorize loads the donation and enforces that the caller owns it. Only the
// target organization or an administrative caller may act on a subscription.
func (s *Service) authorize(
	ctx context.Context,
	donationID uuid.UUID,
	caller Caller,
) (*donationdomain.Donation, error) {
	d, err := s.repo.FindByID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if !d.IsRecurring() || d.SubscriptionID == "" {
		return nil, fmt.Errorf("%w: donation %s is not a recurring subscription",
			domain.ErrNotFound, donationID)
	}
	if !caller.IsAdmin && caller.OrganizationID != d.OrganizationID {
		return nil, domain.ErrForbidden
	}
	return d, nil
}
