package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Donation represents a donation record in the database.
type Donation struct {
	gorm.Model
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	OrganizationID   uuid.UUID `gorm:"type:uuid;index;not null"`
	OrganizationName string    `gorm:"size:255"`

	AmountCentavos int64  `gorm:"not null"`
	Currency       string `gorm:"type:varchar(3);not null;default:'BRL'"`
	Type           string `gorm:"type:varchar(16);not null"`
	Frequency      string `gorm:"type:varchar(16)"`

	DonorName     string `gorm:"size:255;not null"`
	DonorEmail    string `gorm:"size:255;not null"`
	DonorPhone    string `gorm:"size:32"`
	DonorDocument string `gorm:"size:32"`
	Message       string `gorm:"size:1024"`
	IsAnonymous   bool

	Status        string `gorm:"type:varchar(16);index;not null"`
	GatewayStatus string `gorm:"type:varchar(32)"`

	// Gateway correlation ids; nullable so uniqueness only applies once set.
	PaymentID      *string `gorm:"uniqueIndex;size:64"`
	SubscriptionID *string `gorm:"uniqueIndex;size:64"`
	PaymentURL     string  `gorm:"size:1024"`

	MetadataJSON string `gorm:"type:jsonb;column:metadata"`
}

// WebhookEvent is the audit table for received gateway notifications.
type WebhookEvent struct {
	gorm.Model
	Reference  string `gorm:"size:64;index;not null"`
	Kind       string `gorm:"type:varchar(16)"`
	Status     string `gorm:"type:varchar(32)"`
	RawPayload []byte `gorm:"type:jsonb"`
	ReceivedAt time.Time
}

// Organization mirrors the organizations table owned by the marketplace CRUD.
// Read-only here: the donation flow only resolves names and existence.
type Organization struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key"`
	Name string    `gorm:"size:255;not null"`
}
