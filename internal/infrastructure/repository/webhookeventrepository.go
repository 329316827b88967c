package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/leadsyncpro/billing/internal/domain/billing"
	"github.com/leadsyncpro/billing/internal/infrastructure/persistence/mappers"
	"github.com/leadsyncpro/billing/internal/infrastructure/persistence/models"
	"github.com/leadsyncpro/billing/internal/shared/db"
)

type WebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// Create fails with a duplicate key error when the provider event id was
// already stored.
func (r *WebhookEventRepository) Create(ctx context.Context, event *billing.WebhookEvent) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(mappers.WebhookEventToModel(event)).Error; err != nil {
		return fmt.Errorf("failed to create webhook event: %w", err)
	}
	return nil
}

func (r *WebhookEventRepository) Update(ctx context.Context, event *billing.WebhookEvent) error {
	model := mappers.WebhookEventToModel(event)

	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.WebhookEventModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":       model.Status,
			"processed_at": model.ProcessedAt,
		}).Error; err != nil {
		return fmt.Errorf("failed to update webhook event: %w", err)
	}
	return nil
}

func (r *WebhookEventRepository) GetByID(ctx context.Context, id string) (*billing.WebhookEvent, error) {
	var model models.WebhookEventModel

	if err := db.GetTxFromContext(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, billing.NewWebhookEventNotFound(id)
		}
		return nil, fmt.Errorf("failed to get webhook event: %w", err)
	}

	return mappers.WebhookEventToDomain(&model)
}

func (r *WebhookEventRepository) FindByProviderEventID(ctx context.Context, provider, providerEventID string) (*billing.WebhookEvent, error) {
	var model models.WebhookEventModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("provider = ? AND provider_event_id = ?", provider, providerEventID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get webhook event by provider event id: %w", err)
	}

	return mappers.WebhookEventToDomain(&model)
}
