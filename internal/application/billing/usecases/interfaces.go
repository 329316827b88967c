package usecases

import (
	"context"
	"time"
)

// Locker provides a cluster-wide mutual exclusion lease.
type Locker interface {
	// TryLock returns acquired=false without error when another holder owns key.
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, acquired bool, err error)
}

// Dunning attempt outcomes reported to DunningMetrics.
const (
	DunningResultRecovered = "recovered"
	DunningResultFailed    = "failed"
	DunningResultCanceled  = "canceled"
)

type DunningMetrics interface {
	RecordDunningAttempt(result string)
}

// Webhook outcomes reported to WebhookMetrics.
const (
	WebhookResultAccepted  = "accepted"
	WebhookResultDuplicate = "duplicate"
	WebhookResultProcessed = "processed"
	WebhookResultFailed    = "failed"
)

type WebhookMetrics interface {
	RecordWebhookEvent(eventType, result string)
}

// WebhookProcessor handles a stored webhook event by id.
type WebhookProcessor interface {
	Execute(ctx context.Context, eventID string) error
}

type noopMetrics struct{}

func (noopMetrics) RecordDunningAttempt(string)       {}
func (noopMetrics) RecordWebhookEvent(string, string) {}
