// Package provider contains the payment gateway implementations.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/doemais/marketplace/pkg/provider/payment"
	"github.com/google/uuid"
)

type mockRecord struct {
	id                string
	externalReference string
	amountCentavos    int64
	frequency         string
	status            payment.Status
	createdAt         time.Time
}

// MockStore holds the in-memory state of the mock gateway. It is passed into
// the gateway constructor so each test owns its own state; there is no
// process-global table.
type MockStore struct {
	mu            sync.Mutex
	payments      map[string]*mockRecord
	subscriptions map[string]*mockRecord
	byReference   map[string]*mockRecord
}

// NewMockStore creates an empty mock gateway store.
func NewMockStore() *MockStore {
	return &MockStore{
		payments:      make(map[string]*mockRecord),
		subscriptions: make(map[string]*mockRecord),
		byReference:   make(map[string]*mockRecord),
	}
}

// MockGateway simulates the payment provider for tests and environments
// without live credentials. Results are deterministic in shape; repeated
// creation calls with the same external reference return the original record,
// mirroring the provider's dedupe behavior.
type MockGateway struct {
	store *MockStore
}

// NewMockGateway creates a mock gateway over the given store.
func NewMockGateway(store *MockStore) *MockGateway {
	return &MockGateway{store: store}
}

// CreatePayment simulates creating a one-off charge.
func (g *MockGateway) CreatePayment(
	ctx context.Context,
	params *payment.CreatePaymentParams,
) (*payment.PaymentResult, error) {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()

	if existing, ok := g.store.byReference[params.ExternalReference]; ok {
		return &payment.PaymentResult{
			ID:          existing.id,
			Status:      existing.status,
			RedirectURL: mockRedirectURL("pay", existing.id),
		}, nil
	}

	rec := &mockRecord{
		id:                "pay_" + uuid.New().String(),
		externalReference: params.ExternalReference,
		amountCentavos:    params.AmountCentavos,
		status:            payment.StatusPending,
		createdAt:         time.Now().UTC(),
	}
	g.store.payments[rec.id] = rec
	g.store.byReference[params.ExternalReference] = rec

	return &payment.PaymentResult{
		ID:          rec.id,
		Status:      rec.status,
		RedirectURL: mockRedirectURL("pay", rec.id),
	}, nil
}

// CreateSubscription simulates creating a recurring charge.
func (g *MockGateway) CreateSubscription(
	ctx context.Context,
	params *payment.CreateSubscriptionParams,
) (*payment.SubscriptionResult, error) {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()

	if existing, ok := g.store.byReference[params.ExternalReference]; ok {
		return &payment.SubscriptionResult{
			ID:          existing.id,
			Status:      existing.status,
			RedirectURL: mockRedirectURL("sub", existing.id),
		}, nil
	}

	rec := &mockRecord{
		id:                "sub_" + uuid.New().String(),
		externalReference: params.ExternalReference,
		amountCentavos:    params.AmountCentavos,
		frequency:         params.Frequency,
		status:            payment.StatusPending,
		createdAt:         time.Now().UTC(),
	}
	g.store.subscriptions[rec.id] = rec
	g.store.byReference[params.ExternalReference] = rec

	return &payment.SubscriptionResult{
		ID:          rec.id,
		Status:      rec.status,
		RedirectURL: mockRedirectURL("sub", rec.id),
	}, nil
}

// GetSubscriptionStatus returns the simulated subscription state.
func (g *MockGateway) GetSubscriptionStatus(
	ctx context.Context,
	subscriptionID string,
) (*payment.SubscriptionStatus, error) {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()

	rec, ok := g.store.subscriptions[subscriptionID]
	if !ok {
		return nil, &payment.Error{Code: 404, Message: "subscription not found"}
	}
	return &payment.SubscriptionStatus{
		ID:              rec.id,
		Status:          rec.status,
		AmountCentavos:  rec.amountCentavos,
		Frequency:       rec.frequency,
		NextBillingDate: nextBilling(rec.createdAt, rec.frequency),
	}, nil
}

// UpdateSubscription changes the billed amount of a simulated subscription.
func (g *MockGateway) UpdateSubscription(
	ctx context.Context,
	subscriptionID string,
	params *payment.UpdateSubscriptionParams,
) (*payment.SubscriptionResult, error) {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()

	rec, ok := g.store.subscriptions[subscriptionID]
	if !ok {
		return nil, &payment.Error{Code: 404, Message: "subscription not found"}
	}
	rec.amountCentavos = params.AmountCentavos
	return &payment.SubscriptionResult{ID: rec.id, Status: rec.status}, nil
}

// CancelSubscription cancels a simulated subscription.
func (g *MockGateway) CancelSubscription(
	ctx context.Context,
	subscriptionID string,
) (*payment.SubscriptionResult, error) {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()

	rec, ok := g.store.subscriptions[subscriptionID]
	if !ok {
		return nil, &payment.Error{Code: 404, Message: "subscription not found"}
	}
	rec.status = payment.StatusCancelled
	return &payment.SubscriptionResult{ID: rec.id, Status: payment.StatusCancelled}, nil
}

// ParseWebhook decodes a notification payload. The mock accepts the same
// payload shape the live provider sends; the signature is ignored.
func (g *MockGateway) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	var body webhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, &payment.Error{Message: "malformed webhook payload", Err: err}
	}
	return body.toEvent()
}

// MarkApproved flips a simulated payment or subscription to approved. Test
// hook simulating a gateway-side state change.
func (g *MockGateway) MarkApproved(id string) {
	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	if rec, ok := g.store.payments[id]; ok {
		rec.status = payment.StatusApproved
	}
	if rec, ok := g.store.subscriptions[id]; ok {
		rec.status = payment.StatusApproved
	}
}

func mockRedirectURL(kind, id string) string {
	return fmt.Sprintf("https://checkout.mock.local/%s/%s", kind, id)
}

func nextBilling(createdAt time.Time, frequency string) time.Time {
	switch frequency {
	case "weekly":
		return createdAt.AddDate(0, 0, 7)
	case "yearly":
		return createdAt.AddDate(1, 0, 0)
	default:
		return createdAt.AddDate(0, 1, 0)
	}
}
