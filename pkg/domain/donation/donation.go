// Package donation defines the donation entity and its lifecycle state machine.
//
// A donation is created in StatusPending, moves to StatusProcessing once the
// payment gateway accepted the charge, and is settled asynchronously through
// webhook notifications. Terminal statuses are never overwritten, with one
// exception: an approved recurring donation may be cancelled explicitly.
package donation

import (
	"time"

	"github.com/doemais/marketplace/pkg/money"
	"github.com/google/uuid"
)

// Type distinguishes one-off donations from recurring subscriptions.
type Type string

const (
	TypeSingle    Type = "single"
	TypeRecurring Type = "recurring"
)

// Frequency is the billing interval of a recurring donation.
type Frequency string

const (
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// IsValid reports whether f is one of the supported billing intervals.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// Status is the lifecycle state of a donation.
type Status string

const (
	// StatusPending means the record exists locally but the gateway call has
	// not completed yet.
	StatusPending Status = "pending"
	// StatusProcessing means the gateway accepted the charge and settlement
	// is awaited via webhook.
	StatusProcessing Status = "processing"
	// StatusApproved means the gateway confirmed the payment.
	StatusApproved Status = "approved"
	// StatusRejected means the gateway declined the payment.
	StatusRejected Status = "rejected"
	// StatusFailed means the gateway call itself failed during creation.
	StatusFailed Status = "failed"
	// StatusCancelled means an approved recurring donation was cancelled.
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no further webhook-driven transition is expected.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine permits moving from s to
// target. Terminal states accept no transition except approved -> cancelled.
func (s Status) CanTransitionTo(target Status) bool {
	if s == target {
		return false
	}
	switch s {
	case StatusPending:
		return target == StatusProcessing || target == StatusFailed
	case StatusProcessing:
		return target == StatusApproved ||
			target == StatusRejected ||
			target == StatusCancelled ||
			target == StatusFailed
	case StatusApproved:
		return target == StatusCancelled
	}
	return false
}

// Donation is a monetary pledge, one-off or recurring, directed at an
// organization. Donor and amount fields are immutable after creation; only
// status, gateway correlation ids and UpdatedAt change over the lifecycle.
type Donation struct {
	ID               uuid.UUID
	OrganizationID   uuid.UUID
	OrganizationName string

	Amount    money.Money
	Type      Type
	Frequency Frequency // set iff Type == TypeRecurring

	DonorName     string
	DonorEmail    string
	DonorPhone    string
	DonorDocument string
	Message       string
	IsAnonymous   bool

	Status Status

	// GatewayStatus is the provider's own status vocabulary as last reported,
	// kept for audit; the local Status is the source of truth.
	GatewayStatus string

	// PaymentID / SubscriptionID are the gateway correlation ids, set only
	// after a successful gateway call.
	PaymentID      string
	SubscriptionID string
	PaymentURL     string

	// Metadata captures request provenance (client ip, user agent, channel).
	// Audit only, never read by business logic.
	Metadata map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GatewayRef returns the gateway correlation id for this donation, which is
// the subscription id for recurring donations and the payment id otherwise.
func (d *Donation) GatewayRef() string {
	if d.Type == TypeRecurring {
		return d.SubscriptionID
	}
	return d.PaymentID
}

// IsRecurring reports whether the donation bills on a schedule.
func (d *Donation) IsRecurring() bool { return d.Type == TypeRecurring }
