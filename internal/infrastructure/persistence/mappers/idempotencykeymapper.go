package mappers

import (
	"github.com/leadsyncpro/billing/internal/domain/billing"
	"github.com/leadsyncpro/billing/internal/infrastructure/persistence/models"
)

func IdempotencyEntryToModel(e *billing.IdempotencyEntry) *models.IdempotencyKeyModel {
	return &models.IdempotencyKeyModel{
		ID:             e.ID(),
		Key:            e.Key(),
		RequestHash:    e.RequestHash(),
		ResponseBody:   e.ResponseBody(),
		ResponseStatus: e.ResponseStatus(),
		ExpiresAt:      e.ExpiresAt(),
		CreatedAt:      e.CreatedAt(),
	}
}

func IdempotencyEntryToDomain(model *models.IdempotencyKeyModel) *billing.IdempotencyEntry {
	return billing.ReconstructIdempotencyEntry(
		model.ID,
		model.Key,
		model.RequestHash,
		model.ResponseBody,
		model.ResponseStatus,
		model.ExpiresAt,
		model.CreatedAt,
	)
}
