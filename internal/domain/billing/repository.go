package billing

import (
	"context"
	"time"

	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
)

type SubscriptionRepository interface {
	// Create persists a new subscription together with its pending allocations.
	Create(ctx context.Context, sub *Subscription) error
	// Update persists status, plan and period fields plus pending allocations.
	Update(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id string) (*Subscription, error)
	// GetByIDForUpdate locks the row when called inside a transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*Subscription, error)
	GetByExternalID(ctx context.Context, externalID string) (*Subscription, error)
	GetByExternalIDForUpdate(ctx context.Context, externalID string) (*Subscription, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*Subscription, error)
	// ListIDsByStatus returns ids only; the dunning sweep reloads each row under lock.
	ListIDsByStatus(ctx context.Context, status vo.SubscriptionStatus) ([]string, error)
	// ListTrialIDsEndedBy returns trials whose trial_end_at is at or before cutoff.
	ListTrialIDsEndedBy(ctx context.Context, cutoff time.Time) ([]string, error)
}

type SeatAllocationRepository interface {
	SeatAllocationFinder
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*SeatAllocation, error)
}

type PlanRepository interface {
	Create(ctx context.Context, plan *Plan) error
	CreatePrice(ctx context.Context, price *Price) error
	GetByCode(ctx context.Context, code string) (*Plan, error)
	GetByID(ctx context.Context, id string) (*Plan, error)
	// GetPrice returns the price of a plan for the given billing period.
	GetPrice(ctx context.Context, planID string, period vo.BillingPeriod) (*Price, error)
	GetPriceByID(ctx context.Context, id string) (*Price, error)
	// ListActive orders plans by name, ignoring case.
	ListActive(ctx context.Context) ([]*Plan, error)
	ListPrices(ctx context.Context, planID string) ([]*Price, error)
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *Invoice) error
	Update(ctx context.Context, invoice *Invoice) error
	GetByID(ctx context.Context, id string) (*Invoice, error)
	GetByExternalID(ctx context.Context, externalID string) (*Invoice, error)
	// ListByCustomer orders by period start, newest first.
	ListByCustomer(ctx context.Context, customerID string) ([]*Invoice, error)
}

type WebhookEventRepository interface {
	Create(ctx context.Context, event *WebhookEvent) error
	Update(ctx context.Context, event *WebhookEvent) error
	GetByID(ctx context.Context, id string) (*WebhookEvent, error)
	// FindByProviderEventID returns nil, nil when no event exists.
	FindByProviderEventID(ctx context.Context, provider, providerEventID string) (*WebhookEvent, error)
}

type IdempotencyRepository interface {
	// FindActive returns nil, nil when no unexpired entry exists for key.
	FindActive(ctx context.Context, key string, now time.Time) (*IdempotencyEntry, error)
	// DeleteExpired removes the entry for key only if it expired at or before now.
	DeleteExpired(ctx context.Context, key string, now time.Time) error
	// CreateOrGet inserts entry unless the key exists and returns the stored row.
	CreateOrGet(ctx context.Context, entry *IdempotencyEntry) (*IdempotencyEntry, error)
	SaveResponse(ctx context.Context, id string, body []byte, status int, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
}
