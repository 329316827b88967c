package migration

import (
	"github.com/leadsyncpro/billing/internal/infrastructure/persistence/models"
)

// AutoMigrateModels lists the persistence models. Production schemas come
// from the goose scripts; the list serves in-memory test databases.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.PlanModel{},
		&models.PlanPriceModel{},
		&models.SubscriptionModel{},
		&models.SeatAllocationModel{},
		&models.InvoiceModel{},
		&models.WebhookEventModel{},
		&models.IdempotencyKeyModel{},
	}
}
