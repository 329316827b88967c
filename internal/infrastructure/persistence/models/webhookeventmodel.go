package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/leadsyncpro/billing/internal/shared/constants"
)

// WebhookEventModel stores raw gateway notifications. The provider event id
// is unique per provider so redeliveries are rejected by the database.
type WebhookEventModel struct {
	ID              string         `gorm:"primaryKey;size:36"`
	Provider        string         `gorm:"not null;size:32;uniqueIndex:uk_provider_event,priority:1"`
	ProviderEventID string         `gorm:"not null;size:128;uniqueIndex:uk_provider_event,priority:2"`
	EventType       string         `gorm:"not null;size:64"`
	Payload         datatypes.JSON `gorm:"not null"`
	Signature       string         `gorm:"size:512"`
	Status          string         `gorm:"not null;size:20;index:idx_webhook_events_status"`
	ProcessedAt     *time.Time
	CreatedAt       time.Time
}

// TableName specifies the table name for GORM
func (WebhookEventModel) TableName() string {
	return constants.TableWebhookEvents
}
