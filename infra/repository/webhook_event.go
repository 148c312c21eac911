package repository

import (
	"context"
	"fmt"

	"github.com/doemais/marketplace/pkg/repository"
	"gorm.io/gorm"
)

type webhookEventLog struct {
	db *gorm.DB
}

// NewWebhookEventLog creates the audit log for received gateway notifications.
func NewWebhookEventLog(db *gorm.DB) repository.WebhookEventLog {
	return &webhookEventLog{db: db}
}

func (r *webhookEventLog) Record(ctx context.Context, event *repository.WebhookEvent) error {
	model := &WebhookEvent{
		Reference:  event.Reference,
		Kind:       event.Kind,
		Status:     event.Status,
		RawPayload: event.RawPayload,
		ReceivedAt: event.ReceivedAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	return nil
}
