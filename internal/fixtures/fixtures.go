// Package fixtures provides in-memory test doubles for the persistence
// contracts.
package fixtures

import (
	"context"
	"sync"
	"time"

	"github.com/doemais/marketplace/pkg/domain"
	donationdomain "github.com/doemais/marketplace/pkg/domain/donation"
	"github.com/doemais/marketplace/pkg/dto"
	"github.com/doemais/marketplace/pkg/repository"
	"github.com/google/uuid"
)

// MemoryDonationRepository is a thread-safe in-memory DonationRepository.
type MemoryDonationRepository struct {
	mu        sync.Mutex
	records   map[uuid.UUID]*donationdomain.Donation
	CreateErr error
	UpdateErr error
	// UpdateCalls counts UpdateByID invocations, including failed ones.
	UpdateCalls int
}

// NewMemoryDonationRepository creates an empty in-memory repository.
func NewMemoryDonationRepository() *MemoryDonationRepository {
	return &MemoryDonationRepository{records: make(map[uuid.UUID]*donationdomain.Donation)}
}

func (r *MemoryDonationRepository) Create(ctx context.Context, d *donationdomain.Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	clone := *d
	r.records[d.ID] = &clone
	return nil
}

func (r *MemoryDonationRepository) UpdateByID(
	ctx context.Context,
	id uuid.UUID,
	patch dto.DonationPatch,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UpdateCalls++
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	d, ok := r.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	applyPatch(d, patch)
	return nil
}

// TransitionStatus applies the patch only while the stored record still has
// the observed status. Check and write happen under one lock, mirroring the
// single-statement conditional update of the real repository.
func (r *MemoryDonationRepository) TransitionStatus(
	ctx context.Context,
	id uuid.UUID,
	observed donationdomain.Status,
	patch dto.DonationPatch,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UpdateCalls++
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	d, ok := r.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	if d.Status != observed {
		return domain.ErrConflict
	}
	applyPatch(d, patch)
	return nil
}

func applyPatch(d *donationdomain.Donation, patch dto.DonationPatch) {
	if patch.Status != nil {
		d.Status = *patch.Status
	}
	if patch.GatewayStatus != nil {
		d.GatewayStatus = *patch.GatewayStatus
	}
	if patch.PaymentID != nil {
		d.PaymentID = *patch.PaymentID
	}
	if patch.SubscriptionID != nil {
		d.SubscriptionID = *patch.SubscriptionID
	}
	if patch.PaymentURL != nil {
		d.PaymentURL = *patch.PaymentURL
	}
	d.UpdatedAt = time.Now().UTC()
}

func (r *MemoryDonationRepository) FindByID(
	ctx context.Context,
	id uuid.UUID,
) (*donationdomain.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *d
	return &clone, nil
}

func (r *MemoryDonationRepository) FindByGatewayRef(
	ctx context.Context,
	ref string,
) (*donationdomain.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.records {
		if d.PaymentID == ref || d.SubscriptionID == ref {
			clone := *d
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MemoryDonationRepository) ListByOrganization(
	ctx context.Context,
	orgID uuid.UUID,
) ([]*donationdomain.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*donationdomain.Donation
	for _, d := range r.records {
		if d.OrganizationID == orgID {
			clone := *d
			out = append(out, &clone)
		}
	}
	return out, nil
}

// Len returns the number of stored records.
func (r *MemoryDonationRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// StaticOrganizationDirectory resolves a fixed set of organizations.
type StaticOrganizationDirectory struct {
	Organizations map[uuid.UUID]string
}

func (d *StaticOrganizationDirectory) Get(
	ctx context.Context,
	id uuid.UUID,
) (*repository.Organization, error) {
	name, ok := d.Organizations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &repository.Organization{ID: id, Name: name}, nil
}

// MemoryWebhookEventLog records webhook events in memory.
type MemoryWebhookEventLog struct {
	mu        sync.Mutex
	Events    []*repository.WebhookEvent
	RecordErr error
}

func (l *MemoryWebhookEventLog) Record(ctx context.Context, event *repository.WebhookEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.RecordErr != nil {
		return l.RecordErr
	}
	l.Events = append(l.Events, event)
	return nil
}
