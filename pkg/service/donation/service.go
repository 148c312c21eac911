// Package donation provides the donation creation lifecycle.
//
// Creation is a three-step flow: validate the request, persist the record as
// pending, then hand the charge to the payment gateway. A gateway failure
// must never leave the record pending: the coordinator marks it failed in the
// same request before propagating the error.
package donation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	donationdomain "github.com/doemais/marketplace/pkg/domain/donation"
	"github.com/doemais/marketplace/pkg/dto"
	"github.com/doemais/marketplace/pkg/provider/payment"
	"github.com/doemais/marketplace/pkg/repository"
	"github.com/google/uuid"
)

// PaymentInitiationError reports a gateway failure during creation. The
// donation record exists and has already been marked failed.
type PaymentInitiationError struct {
	DonationID uuid.UUID
	Err        error
}

func (e *PaymentInitiationError) Error() string {
	return fmt.Sprintf("payment initiation failed for donation %s: %v", e.DonationID, e.Err)
}

func (e *PaymentInitiationError) Unwrap() error { return e.Err }

// CreateResult is returned to the caller after a successful creation.
type CreateResult struct {
	Donation   *donationdomain.Donation
	GatewayRef string
	PaymentURL string
}

// Service coordinates the donation creation lifecycle.
type Service struct {
	repo      repository.DonationRepository
	orgs      repository.OrganizationDirectory
	gateway   payment.Gateway
	validator *RequestValidator
	logger    *slog.Logger
}

// New creates the donation lifecycle service.
func New(
	repo repository.DonationRepository,
	orgs repository.OrganizationDirectory,
	gateway payment.Gateway,
	validator *RequestValidator,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		orgs:      orgs,
		gateway:   gateway,
		validator: validator,
		logger:    logger,
	}
}

// CreateSingle creates a one-off donation.
func (s *Service) CreateSingle(
	ctx context.Context,
	req *dto.DonationCreate,
) (*CreateResult, error) {
	return s.create(ctx, req, donationdomain.TypeSingle)
}

// CreateRecurring creates a recurring donation.
func (s *Service) CreateRecurring(
	ctx context.Context,
	req *dto.DonationCreate,
) (*CreateResult, error) {
	return s.create(ctx, req, donationdomain.TypeRecurring)
}

func (s *Service) create(
	ctx context.Context,
	req *dto.DonationCreate,
	donationType donationdomain.Type,
) (*CreateResult, error) {
	draft, err := s.validator.Validate(req, donationType)
	if err != nil {
		// Validation and policy failures create no record.
		return nil, err
	}

	org, err := s.orgs.Get(ctx, draft.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve organization %s: %w", draft.OrganizationID, err)
	}

	d := &donationdomain.Donation{
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
		Amount:           draft.Amount,
		Type:             draft.Type,
		Frequency:        draft.Frequency,
		DonorName:        draft.DonorName,
		DonorEmail:       draft.DonorEmail,
		DonorPhone:       draft.DonorPhone,
		DonorDocument:    draft.DonorDocument,
		Message:          draft.Message,
		IsAnonymous:      draft.IsAnonymous,
		Status:           donationdomain.StatusPending,
		Metadata:         draft.Metadata,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to persist donation: %w", err)
	}

	logger := s.logger.With(
		"donation_id", d.ID,
		"organization_id", org.ID,
		"type", d.Type,
		"amount", d.Amount.String(),
	)
	logger.Info("donation persisted, initiating payment")

	ref, redirectURL, gatewayStatus, err := s.initiatePayment(ctx, d)
	if err != nil {
		s.markFailed(ctx, d.ID, logger)
		logger.Error("payment initiation failed", "error", err)
		return nil, &PaymentInitiationError{DonationID: d.ID, Err: err}
	}

	patch := dto.DonationPatch{
		Status:        statusPtr(donationdomain.StatusProcessing),
		GatewayStatus: &gatewayStatus,
		PaymentURL:    &redirectURL,
	}
	if d.Type == donationdomain.TypeRecurring {
		patch.SubscriptionID = &ref
		d.SubscriptionID = ref
	} else {
		patch.PaymentID = &ref
		d.PaymentID = ref
	}
	if err := s.repo.UpdateByID(ctx, d.ID, patch); err != nil {
		// The charge exists at the gateway but the local record could not be
		// moved out of pending. Mark it failed rather than leave it dangling;
		// reconciliation via webhook will settle the true outcome.
		s.markFailed(ctx, d.ID, logger)
		logger.Error("failed to attach gateway reference", "error", err)
		return nil, &PaymentInitiationError{DonationID: d.ID, Err: err}
	}

	d.Status = donationdomain.StatusProcessing
	d.GatewayStatus = gatewayStatus
	d.PaymentURL = redirectURL

	logger.Info("payment initiated", "gateway_ref", ref)
	return &CreateResult{Donation: d, GatewayRef: ref, PaymentURL: redirectURL}, nil
}

func (s *Service) initiatePayment(
	ctx context.Context,
	d *donationdomain.Donation,
) (ref, redirectURL, gatewayStatus string, err error) {
	description := fmt.Sprintf("Doação para %s", d.OrganizationName)
	if d.Type == donationdomain.TypeRecurring {
		res, gerr := s.gateway.CreateSubscription(ctx, &payment.CreateSubscriptionParams{
			ExternalReference: d.ID.String(),
			AmountCentavos:    d.Amount.Centavos(),
			Frequency:         string(d.Frequency),
			Description:       description,
			PayerName:         d.DonorName,
			PayerEmail:        d.DonorEmail,
		})
		if gerr != nil {
			return "", "", "", gerr
		}
		return res.ID, res.RedirectURL, string(res.Status), nil
	}

	res, gerr := s.gateway.CreatePayment(ctx, &payment.CreatePaymentParams{
		ExternalReference: d.ID.String(),
		AmountCentavos:    d.Amount.Centavos(),
		Description:       description,
		PayerName:         d.DonorName,
		PayerEmail:        d.DonorEmail,
	})
	if gerr != nil {
		return "", "", "", gerr
	}
	return res.ID, res.RedirectURL, string(res.Status), nil
}

// markFailed transitions an already-persisted record to failed. Cleanup is
// mandatory; a failure here is logged and swallowed so the original gateway
// error reaches the caller.
func (s *Service) markFailed(ctx context.Context, id uuid.UUID, logger *slog.Logger) {
	err := s.repo.UpdateByID(ctx, id, dto.DonationPatch{
		Status: statusPtr(donationdomain.StatusFailed),
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("failed to mark donation as failed", "error", err)
	}
}

// GetByID returns a single donation.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*donationdomain.Donation, error) {
	return s.repo.FindByID(ctx, id)
}

// ListByOrganization returns all donations targeting an organization.
func (s *Service) ListByOrganization(
	ctx context.Context,
	orgID uuid.UUID,
) ([]*donationdomain.Donation, error) {
	return s.repo.ListByOrganization(ctx, orgID)
}

func statusPtr(s donationdomain.Status) *donationdomain.Status { return &s }
