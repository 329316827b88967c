package mappers

import (
	"fmt"

	"gorm.io/datatypes"

	"github.com/leadsyncpro/billing/internal/domain/billing"
	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
	"github.com/leadsyncpro/billing/internal/infrastructure/persistence/models"
)

func WebhookEventToModel(e *billing.WebhookEvent) *models.WebhookEventModel {
	return &models.WebhookEventModel{
		ID:              e.ID(),
		Provider:        e.Provider(),
		ProviderEventID: e.ProviderEventID(),
		EventType:       e.EventType(),
		Payload:         datatypes.JSON(e.Payload()),
		Signature:       e.Signature(),
		Status:          string(e.Status()),
		ProcessedAt:     e.ProcessedAt(),
		CreatedAt:       e.CreatedAt(),
	}
}

func WebhookEventToDomain(model *models.WebhookEventModel) (*billing.WebhookEvent, error) {
	status := vo.WebhookEventStatus(model.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid webhook event status: %s", model.Status)
	}

	return billing.ReconstructWebhookEvent(
		model.ID,
		model.Provider,
		model.EventType,
		[]byte(model.Payload),
		model.Signature,
		model.ProviderEventID,
		status,
		model.ProcessedAt,
		model.CreatedAt,
	), nil
}
