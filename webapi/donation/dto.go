package donation

import (
	"github.com/doemais/marketplace/pkg/dto"
	donationsvc "github.com/doemais/marketplace/pkg/service/donation"
	"github.com/google/uuid"
)

// CreateDonationRequest is the JSON body accepted by the creation endpoints.
// Field-level business rules (amount bounds, frequency, email shape) are
// enforced by the donation service; the struct tags only reject requests with
// missing required fields early.
type CreateDonationRequest struct {
	OrganizationID string            `json:"organizationId" validate:"required" example:"b9b66418-6fdd-4992-b5cd-4c1f16a9b6c2"`
	Amount         float64           `json:"amount" validate:"required" example:"50.00"`
	Frequency      string            `json:"frequency,omitempty" example:"monthly"`
	DonorName      string            `json:"donorName" validate:"required" example:"Maria Silva"`
	DonorEmail     string            `json:"donorEmail" validate:"required" example:"maria@example.com"`
	DonorPhone     string            `json:"donorPhone,omitempty" example:"+55 11 91234-5678"`
	DonorDocument  string            `json:"donorDocument,omitempty"`
	Message        string            `json:"message,omitempty"`
	IsAnonymous    bool              `json:"isAnonymous"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

func (r *CreateDonationRequest) toDTO() *dto.DonationCreate {
	return &dto.DonationCreate{
		OrganizationID: r.OrganizationID,
		Amount:         r.Amount,
		Frequency:      r.Frequency,
		DonorName:      r.DonorName,
		DonorEmail:     r.DonorEmail,
		DonorPhone:     r.DonorPhone,
		DonorDocument:  r.DonorDocument,
		Message:        r.Message,
		IsAnonymous:    r.IsAnonymous,
		Metadata:       r.Metadata,
	}
}

// CreatedResponse is the payload returned after a successful creation.
type CreatedResponse struct {
	DonationID       uuid.UUID `json:"donationId"`
	Status           string    `json:"status"`
	Amount           float64   `json:"amount"`
	GatewayReference string    `json:"gatewayReference"`
	PaymentURL       string    `json:"paymentUrl"`
}

func newCreatedResponse(result *donationsvc.CreateResult) *CreatedResponse {
	return &CreatedResponse{
		DonationID:       result.Donation.ID,
		Status:           string(result.Donation.Status),
		Amount:           result.Donation.Amount.Float64(),
		GatewayReference: result.GatewayRef,
		PaymentURL:       result.PaymentURL,
	}
}

// RecurringCreatedResponse is the payload returned after creating a recurring
// donation. The gateway reference is the subscription id, and the redirect URL
// is where the donor authorizes the recurring billing.
type RecurringCreatedResponse struct {
	DonationID       uuid.UUID `json:"donationId"`
	Status           string    `json:"status"`
	Amount           float64   `json:"amount"`
	Frequency        string    `json:"frequency"`
	OrganizationName string    `json:"organizationName"`
	SubscriptionID   string    `json:"subscriptionId"`
	SubscriptionURL  string    `json:"subscriptionUrl"`
}

func newRecurringCreatedResponse(result *donationsvc.CreateResult) *RecurringCreatedResponse {
	return &RecurringCreatedResponse{
		DonationID:       result.Donation.ID,
		Status:           string(result.Donation.Status),
		Amount:           result.Donation.Amount.Float64(),
		Frequency:        string(result.Donation.Frequency),
		OrganizationName: result.Donation.OrganizationName,
		SubscriptionID:   result.GatewayRef,
		SubscriptionURL:  result.PaymentURL,
	}
}
