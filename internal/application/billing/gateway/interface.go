// Package gateway declares the payment gateway port used by billing.
package gateway

import (
	"context"
	"time"
)

// ProrationBehavior tells the gateway how to bill a mid-period change.
type ProrationBehavior string

const (
	ProrationImmediate ProrationBehavior = "IMMEDIATE"
	ProrationDeferred  ProrationBehavior = "DEFERRED"
)

// Client is the subset of the gateway API billing relies on. Failures are
// returned as retryable gateway errors.
type Client interface {
	CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*SubscriptionResponse, error)
	ChangePlan(ctx context.Context, externalSubscriptionID, priceID string, behavior ProrationBehavior) error
	UpdateSeats(ctx context.Context, externalSubscriptionID string, seatCount int, behavior ProrationBehavior) error
	CancelSubscription(ctx context.Context, externalSubscriptionID string, cancelAtPeriodEnd bool) error
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error)
	// VerifyWebhookSignature checks signature against the raw request body.
	VerifyWebhookSignature(signature string, payload []byte) bool
}

type CreateSubscriptionRequest struct {
	CustomerID string
	PriceID    string
	SeatCount  int
}

type SubscriptionResponse struct {
	SubscriptionID     string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
}

type CreateInvoiceRequest struct {
	ExternalSubscriptionID string
	PeriodStart            time.Time
	PeriodEnd              time.Time
	AmountCents            int64 // minor units
	Currency               string
}

type InvoiceResponse struct {
	InvoiceID   string
	PeriodStart time.Time
	PeriodEnd   time.Time
	AmountCents int64
	Currency    string
}
