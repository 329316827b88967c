// Package notification declares the customer-facing billing notices.
package notification

import "context"

// Port delivers dunning outcomes. Delivery failures are logged by callers
// and never roll back billing state.
type Port interface {
	NotifyPaymentRetrySuccess(ctx context.Context, subscriptionID string, attempt int) error
	NotifyPaymentRetryFailure(ctx context.Context, subscriptionID string, attempt int) error
	NotifySubscriptionCanceled(ctx context.Context, subscriptionID string) error
}
