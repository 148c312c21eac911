package provider

import (
	"strings"

	"github.com/doemais/marketplace/pkg/provider/payment"
)

// webhookPayload is the provider's notification shape, shared by the live and
// mock gateways.
type webhookPayload struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID                string `json:"id"`
		Status            string `json:"status"`
		ExternalReference string `json:"external_reference"`
	} `json:"data"`
}

func (p *webhookPayload) toEvent() (*payment.WebhookEvent, error) {
	if p.Data.ID == "" {
		return nil, &payment.Error{Message: "webhook payload missing data.id"}
	}
	kind := payment.KindPayment
	if strings.EqualFold(p.Type, "subscription") || strings.EqualFold(p.Type, "preapproval") {
		kind = payment.KindSubscription
	}
	return &payment.WebhookEvent{
		Reference:         p.Data.ID,
		Kind:              kind,
		Status:            normalizeStatus(p.Data.Status),
		ExternalReference: p.Data.ExternalReference,
	}, nil
}

// normalizeStatus maps the provider's status vocabulary onto the adapter's.
func normalizeStatus(s string) payment.Status {
	switch strings.ToLower(s) {
	case "approved", "authorized", "accredited":
		return payment.StatusApproved
	case "rejected", "declined":
		return payment.StatusRejected
	case "cancelled", "canceled":
		return payment.StatusCancelled
	case "in_process", "in_mediation":
		return payment.StatusInProcess
	default:
		return payment.StatusPending
	}
}
