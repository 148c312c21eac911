// Package repository defines persistence contracts consumed by the services.
package repository

import (
	"context"

	"github.com/doemais/marketplace/pkg/domain/donation"
	"github.com/doemais/marketplace/pkg/dto"
	"github.com/google/uuid"
)

// DonationRepository persists donation records. Records are immutable history:
// implementations must never delete rows, and UpdateByID only touches the
// lifecycle fields carried by the patch.
type DonationRepository interface {
	// Create persists a new donation, assigning its id when unset.
	Create(ctx context.Context, d *donation.Donation) error

	// UpdateByID applies a partial update. Returns domain.ErrNotFound when
	// no record matches.
	UpdateByID(ctx context.Context, id uuid.UUID, patch dto.DonationPatch) error

	// TransitionStatus applies a partial update only while the record still
	// carries the observed status, as one atomic check-and-set. Returns
	// domain.ErrConflict when the record moved on since it was read.
	TransitionStatus(
		ctx context.Context,
		id uuid.UUID,
		observed donation.Status,
		patch dto.DonationPatch,
	) error

	// FindByID returns the donation or domain.ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*donation.Donation, error)

	// FindByGatewayRef looks a donation up by the provider's payment or
	// subscription id. Returns domain.ErrNotFound when unknown.
	FindByGatewayRef(ctx context.Context, ref string) (*donation.Donation, error)

	// ListByOrganization returns all donations targeting an organization,
	// newest first.
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*donation.Donation, error)
}
