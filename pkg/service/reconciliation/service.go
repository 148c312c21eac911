// Package reconciliation applies asynchronous gateway notifications to local
// donation records.
//
// The provider retries webhook delivery, duplicates notifications and does
// not guarantee ordering. The only correctness mechanism is the idempotent
// check-and-set transition on a single record: re-applying a notification is
// a no-op, and once a record reached a terminal status the first terminal
// transition wins.
package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/doemais/marketplace/pkg/domain"
	donationdomain "github.com/doemais/marketplace/pkg/domain/donation"
	"github.com/doemais/marketplace/pkg/dto"
	"github.com/doemais/marketplace/pkg/provider/payment"
	"github.com/doemais/marketplace/pkg/repository"
)

// Service reconciles gateway notifications against the donation store.
type Service struct {
	repo    repository.DonationRepository
	events  repository.WebhookEventLog
	gateway payment.Gateway
	logger  *slog.Logger
}

// New creates the reconciliation service.
func New(
	repo repository.DonationRepository,
	events repository.WebhookEventLog,
	gateway payment.Gateway,
	logger *slog.Logger,
) *Service {
	return &Service{repo: repo, events: events, gateway: gateway, logger: logger}
}

// Process handles one webhook delivery. The returned error is for logging
// only: the HTTP boundary acknowledges the provider regardless, to avoid
// retry storms.
func (s *Service) Process(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("discarding unparseable webhook payload", "error", err)
		return err
	}

	logger := s.logger.With("gateway_ref", event.Reference, "gateway_status", event.Status)

	// Audit first; a logging failure must not block reconciliation.
	if err := s.events.Record(ctx, &repository.WebhookEvent{
		Reference:  event.Reference,
		Kind:       string(event.Kind),
		Status:     string(event.Status),
		RawPayload: payload,
		ReceivedAt: time.Now().UTC(),
	}); err != nil {
		logger.Error("failed to record webhook event", "error", err)
	}

	d, err := s.repo.FindByGatewayRef(ctx, event.Reference)
	if errors.Is(err, domain.ErrNotFound) {
		// Webhook delivery can race local creation or belong to stale or
		// test data; acknowledge without asking for a retry.
		logger.Info("webhook references unknown donation, acknowledging")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up donation by gateway ref: %w", err)
	}

	logger = logger.With("donation_id", d.ID, "status", d.Status)

	gatewayStatus := string(event.Status)
	target, transitions := mapStatus(event.Status)
	if !transitions {
		// Still-pending provider states only refresh the recorded gateway
		// status.
		if d.GatewayStatus == gatewayStatus {
			return nil
		}
		err := s.repo.TransitionStatus(ctx, d.ID, d.Status, dto.DonationPatch{
			GatewayStatus: &gatewayStatus,
		})
		if errors.Is(err, domain.ErrConflict) {
			logger.Info("donation moved on concurrently, skipping gateway status refresh")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to refresh gateway status: %w", err)
		}
		return nil
	}

	if d.Status == target {
		// Duplicate delivery; nothing to do.
		logger.Debug("webhook already applied, skipping")
		return nil
	}
	if d.Status.IsTerminal() {
		// First terminal transition wins; conflicting notifications are
		// recorded but never overwrite settled state.
		logger.Warn("conflicting webhook for settled donation ignored",
			"attempted_status", target,
		)
		return nil
	}
	if !d.Status.CanTransitionTo(target) {
		logger.Warn("webhook transition not permitted, ignoring",
			"attempted_status", target,
		)
		return nil
	}

	// The observed status is the write precondition: if a concurrent
	// delivery settled the record between our read and this write, the
	// conditional update touches zero rows and the first terminal
	// transition stands.
	err = s.repo.TransitionStatus(ctx, d.ID, d.Status, dto.DonationPatch{
		Status:        &target,
		GatewayStatus: &gatewayStatus,
	})
	if errors.Is(err, domain.ErrConflict) {
		logger.Warn("donation settled concurrently, ignoring webhook",
			"attempted_status", target,
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to apply webhook transition: %w", err)
	}
	logger.Info("donation reconciled", "new_status", target)
	return nil
}

// mapStatus translates the provider vocabulary into the local status. The
// second return is false when the notification carries no lifecycle
// transition (still pending at the provider).
func mapStatus(external payment.Status) (donationdomain.Status, bool) {
	switch external {
	case payment.StatusApproved:
		return donationdomain.StatusApproved, true
	case payment.StatusCancelled:
		// Settled donations never change, so a cancellation only ever
		// applies to an unsettled record, where it is a decline.
		// Cancelling an approved subscription is the subscription
		// service's job, not a webhook transition.
		fallthrough
	case payment.StatusRejected:
		return donationdomain.StatusRejected, true
	default:
		return "", false
	}
}
