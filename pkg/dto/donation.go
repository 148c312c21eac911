// Package dto holds data transfer shapes crossing the service boundary.
package dto

import (
	"time"

	"github.com/doemais/marketplace/pkg/domain/donation"
	"github.com/google/uuid"
)

// DonationCreate is the raw, untrusted donation-creation input as received
// from the transport layer, before validation and normalization.
type DonationCreate struct {
	OrganizationID string
	Amount         float64
	Frequency      string
	DonorName      string
	DonorEmail     string
	DonorPhone     string
	DonorDocument  string
	Message        string
	IsAnonymous    bool
	Metadata       map[string]string
}

// DonationPatch is a partial update applied to a persisted donation. Nil
// fields are left untouched. Donor and amount fields are deliberately absent:
// they are immutable after creation.
type DonationPatch struct {
	Status         *donation.Status
	GatewayStatus  *string
	PaymentID      *string
	SubscriptionID *string
	PaymentURL     *string
}

// DonationRead is the read model returned to callers.
type DonationRead struct {
	ID               uuid.UUID          `json:"id"`
	OrganizationID   uuid.UUID          `json:"organizationId"`
	OrganizationName string             `json:"organizationName"`
	Amount           float64            `json:"amount"`
	Type             donation.Type      `json:"type"`
	Frequency        donation.Frequency `json:"frequency,omitempty"`
	DonorName        string             `json:"donorName"`
	Message          string             `json:"message,omitempty"`
	IsAnonymous      bool               `json:"isAnonymous"`
	Status           donation.Status    `json:"status"`
	PaymentURL       string             `json:"paymentUrl,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// NewDonationRead maps a donation entity to its read model. Donor identity is
// masked for anonymous donations.
func NewDonationRead(d *donation.Donation) *DonationRead {
	read := &DonationRead{
		ID:               d.ID,
		OrganizationID:   d.OrganizationID,
		OrganizationName: d.OrganizationName,
		Amount:           d.Amount.Float64(),
		Type:             d.Type,
		Frequency:        d.Frequency,
		DonorName:        d.DonorName,
		Message:          d.Message,
		IsAnonymous:      d.IsAnonymous,
		Status:           d.Status,
		PaymentURL:       d.PaymentURL,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	if d.IsAnonymous {
		read.DonorName = "Anônimo"
	}
	return read
}
