// Package payment defines the contract with the external payment gateway.
package payment

import (
	"context"
)

// Gateway abstracts the external payment provider.
//
// Creation calls carry the local donation id as ExternalReference. The
// provider deduplicates repeated creation calls on this reference, so a retry
// from the coordinator is safe. This is a documented assumption about the
// provider, not something the adapter enforces separately.
type Gateway interface {
	// CreatePayment creates a one-off charge and returns the provider's
	// payment id, status and donor-facing redirect URL.
	CreatePayment(
		ctx context.Context,
		params *CreatePaymentParams,
	) (*PaymentResult, error)

	// CreateSubscription creates a recurring charge on the given frequency.
	CreateSubscription(
		ctx context.Context,
		params *CreateSubscriptionParams,
	) (*SubscriptionResult, error)

	// GetSubscriptionStatus queries the provider for the current state of a
	// subscription.
	GetSubscriptionStatus(
		ctx context.Context,
		subscriptionID string,
	) (*SubscriptionStatus, error)

	// UpdateSubscription changes the billed amount of a subscription.
	UpdateSubscription(
		ctx context.Context,
		subscriptionID string,
		params *UpdateSubscriptionParams,
	) (*SubscriptionResult, error)

	// CancelSubscription cancels a subscription at the provider.
	CancelSubscription(
		ctx context.Context,
		subscriptionID string,
	) (*SubscriptionResult, error)

	// ParseWebhook validates and decodes a provider notification payload
	// into a normalized event.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
