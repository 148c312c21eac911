// Package repository provides the GORM-backed persistence layer.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doemais/marketplace/pkg/domain"
	donationdomain "github.com/doemais/marketplace/pkg/domain/donation"
	"github.com/doemais/marketplace/pkg/dto"
	"github.com/doemais/marketplace/pkg/money"
	"github.com/doemais/marketplace/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type donationRepository struct {
	db *gorm.DB
}

// NewDonationRepository creates a GORM-backed donation repository.
func NewDonationRepository(db *gorm.DB) repository.DonationRepository {
	return &donationRepository{db: db}
}

// Create persists a new donation, assigning its id when unset.
func (r *donationRepository) Create(ctx context.Context, d *donationdomain.Donation) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	model, err := toModel(d)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create donation: %w", err)
	}
	return nil
}

// UpdateByID applies a partial update to the lifecycle fields of a donation.
func (r *donationRepository) UpdateByID(
	ctx context.Context,
	id uuid.UUID,
	patch dto.DonationPatch,
) error {
	result := r.db.WithContext(ctx).
		Model(&Donation{}).
		Where("id = ?", id).
		Updates(patchUpdates(patch))
	if result.Error != nil {
		return fmt.Errorf("failed to update donation %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// TransitionStatus applies a patch with the observed status as a write
// precondition, so concurrent webhook deliveries cannot both settle the same
// record: the database evaluates the condition and the update as one
// statement.
func (r *donationRepository) TransitionStatus(
	ctx context.Context,
	id uuid.UUID,
	observed donationdomain.Status,
	patch dto.DonationPatch,
) error {
	result := r.db.WithContext(ctx).
		Model(&Donation{}).
		Where("id = ? AND status = ?", id, string(observed)).
		Updates(patchUpdates(patch))
	if result.Error != nil {
		return fmt.Errorf("failed to transition donation %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func patchUpdates(patch dto.DonationPatch) map[string]any {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if patch.Status != nil {
		updates["status"] = string(*patch.Status)
	}
	if patch.GatewayStatus != nil {
		updates["gateway_status"] = *patch.GatewayStatus
	}
	if patch.PaymentID != nil {
		updates["payment_id"] = *patch.PaymentID
	}
	if patch.SubscriptionID != nil {
		updates["subscription_id"] = *patch.SubscriptionID
	}
	if patch.PaymentURL != nil {
		updates["payment_url"] = *patch.PaymentURL
	}
	return updates
}

// FindByID returns the donation or domain.ErrNotFound.
func (r *donationRepository) FindByID(
	ctx context.Context,
	id uuid.UUID,
) (*donationdomain.Donation, error) {
	var model Donation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find donation %s: %w", id, err)
	}
	return toEntity(&model)
}

// FindByGatewayRef looks a donation up by the provider's payment or
// subscription id.
func (r *donationRepository) FindByGatewayRef(
	ctx context.Context,
	ref string,
) (*donationdomain.Donation, error) {
	var model Donation
	err := r.db.WithContext(ctx).
		Where("payment_id = ? OR subscription_id = ?", ref, ref).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find donation by gateway ref %s: %w", ref, err)
	}
	return toEntity(&model)
}

// ListByOrganization returns all donations targeting an organization, newest
// first.
func (r *donationRepository) ListByOrganization(
	ctx context.Context,
	orgID uuid.UUID,
) ([]*donationdomain.Donation, error) {
	var models []Donation
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list donations for organization %s: %w", orgID, err)
	}
	entities := make([]*donationdomain.Donation, 0, len(models))
	for i := range models {
		entity, err := toEntity(&models[i])
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func toModel(d *donationdomain.Donation) (*Donation, error) {
	model := &Donation{
		ID:               d.ID,
		OrganizationID:   d.OrganizationID,
		OrganizationName: d.OrganizationName,
		AmountCentavos:   d.Amount.Centavos(),
		Currency:         money.CurrencyCode,
		Type:             string(d.Type),
		Frequency:        string(d.Frequency),
		DonorName:        d.DonorName,
		DonorEmail:       d.DonorEmail,
		DonorPhone:       d.DonorPhone,
		DonorDocument:    d.DonorDocument,
		Message:          d.Message,
		IsAnonymous:      d.IsAnonymous,
		Status:           string(d.Status),
		GatewayStatus:    d.GatewayStatus,
		PaymentURL:       d.PaymentURL,
	}
	if d.PaymentID != "" {
		model.PaymentID = &d.PaymentID
	}
	if d.SubscriptionID != "" {
		model.SubscriptionID = &d.SubscriptionID
	}
	if len(d.Metadata) > 0 {
		raw, err := json.Marshal(d.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode donation metadata: %w", err)
		}
		model.MetadataJSON = string(raw)
	}
	model.CreatedAt = d.CreatedAt
	model.UpdatedAt = d.UpdatedAt
	return model, nil
}

func toEntity(m *Donation) (*donationdomain.Donation, error) {
	d := &donationdomain.Donation{
		ID:               m.ID,
		OrganizationID:   m.OrganizationID,
		OrganizationName: m.OrganizationName,
		Amount:           money.FromCentavos(m.AmountCentavos),
		Type:             donationdomain.Type(m.Type),
		Frequency:        donationdomain.Frequency(m.Frequency),
		DonorName:        m.DonorName,
		DonorEmail:       m.DonorEmail,
		DonorPhone:       m.DonorPhone,
		DonorDocument:    m.DonorDocument,
		Message:          m.Message,
		IsAnonymous:      m.IsAnonymous,
		Status:           donationdomain.Status(m.Status),
		GatewayStatus:    m.GatewayStatus,
		PaymentURL:       m.PaymentURL,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.PaymentID != nil {
		d.PaymentID = *m.PaymentID
	}
	if m.SubscriptionID != nil {
		d.SubscriptionID = *m.SubscriptionID
	}
	if m.MetadataJSON != "" {
		if err := json.Unmarshal([]byte(m.MetadataJSON), &d.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode donation metadata: %w", err)
		}
	}
	return d, nil
}
