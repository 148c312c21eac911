package payment

import (
	"errors"
	"fmt"
	"time"
)

// Status is the provider's status vocabulary, normalized.
type Status string

const (
	// StatusPending indicates the provider has not settled the charge yet.
	StatusPending Status = "pending"
	// StatusInProcess indicates the provider is still processing the charge.
	StatusInProcess Status = "in_process"
	// StatusApproved indicates the charge settled successfully.
	StatusApproved Status = "approved"
	// StatusRejected indicates the charge was declined.
	StatusRejected Status = "rejected"
	// StatusCancelled indicates the charge or subscription was cancelled.
	StatusCancelled Status = "cancelled"
)

// ReferenceKind distinguishes payment events from subscription events.
type ReferenceKind string

const (
	KindPayment      ReferenceKind = "payment"
	KindSubscription ReferenceKind = "subscription"
)

// CreatePaymentParams holds the parameters for CreatePayment.
type CreatePaymentParams struct {
	// ExternalReference is the local donation id, used by the provider for
	// deduplication of retried creation calls.
	ExternalReference string
	AmountCentavos    int64
	Description       string
	PayerName         string
	PayerEmail        string
}

// CreateSubscriptionParams holds the parameters for CreateSubscription.
type CreateSubscriptionParams struct {
	ExternalReference string
	AmountCentavos    int64
	Frequency         string
	Description       string
	PayerName         string
	PayerEmail        string
}

// UpdateSubscriptionParams holds the parameters for UpdateSubscription.
type UpdateSubscriptionParams struct {
	AmountCentavos int64
}

// PaymentResult is the normalized response for one-off payment operations.
type PaymentResult struct {
	ID          string
	Status      Status
	RedirectURL string
}

// SubscriptionResult is the normalized response for subscription operations.
type SubscriptionResult struct {
	ID          string
	Status      Status
	RedirectURL string
}

// SubscriptionStatus is the provider's view of a subscription.
type SubscriptionStatus struct {
	ID              string
	Status          Status
	AmountCentavos  int64
	Frequency       string
	NextBillingDate time.Time
}

// WebhookEvent is a normalized asynchronous provider notification.
type WebhookEvent struct {
	// Reference is the provider-assigned payment or subscription id.
	Reference string
	Kind      ReferenceKind
	Status    Status
	// ExternalReference echoes the local donation id when the provider
	// includes it; may be empty.
	ExternalReference string
}

// Error wraps a provider rejection or transport failure. Timeouts are
// reported the same way as explicit provider errors.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("payment gateway error (status %d): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("payment gateway error: %s", e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsGatewayError reports whether err is (or wraps) a gateway Error.
func IsGatewayError(err error) bool {
	var ge *Error
	return errors.As(err, &ge)
}
