package http

import (
	"gorm.io/gorm"

	"github.com/leadsyncpro/billing/internal/domain/billing"
	"github.com/leadsyncpro/billing/internal/infrastructure/repository"
)

// repositories holds all repository instances used by the application.
type repositories struct {
	subscriptionRepo billing.SubscriptionRepository
	seatRepo         billing.SeatAllocationRepository
	planRepo         billing.PlanRepository
	invoiceRepo      billing.InvoiceRepository
	webhookEventRepo billing.WebhookEventRepository
	idempotencyRepo  billing.IdempotencyRepository
}

func newRepositories(db *gorm.DB) *repositories {
	return &repositories{
		subscriptionRepo: repository.NewSubscriptionRepository(db),
		seatRepo:         repository.NewSeatAllocationRepository(db),
		planRepo:         repository.NewPlanRepository(db),
		invoiceRepo:      repository.NewInvoiceRepository(db),
		webhookEventRepo: repository.NewWebhookEventRepository(db),
		idempotencyRepo:  repository.NewIdempotencyRepository(db),
	}
}
