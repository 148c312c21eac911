package repository

import (
	"context"
	"time"
)

// WebhookEvent is an audit record of a received gateway notification, written
// before reconciliation runs. Never read by business logic.
type WebhookEvent struct {
	Reference  string
	Kind       string
	Status     string
	RawPayload []byte
	ReceivedAt time.Time
}

// WebhookEventLog records incoming gateway notifications for audit.
type WebhookEventLog interface {
	Record(ctx context.Context, event *WebhookEvent) error
}
