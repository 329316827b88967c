package adapters

import (
	"context"

	"github.com/leadsyncpro/billing/internal/application/billing/notification"
	"github.com/leadsyncpro/billing/internal/shared/logger"
)

// LoggingNotifier records dunning notices in the application log. It is the
// notification.Port used until a customer-facing channel is connected.
type LoggingNotifier struct {
	logger logger.Interface
}

var _ notification.Port = (*LoggingNotifier)(nil)

func NewLoggingNotifier(log logger.Interface) *LoggingNotifier {
	return &LoggingNotifier{logger: log}
}

func (n *LoggingNotifier) NotifyPaymentRetrySuccess(_ context.Context, subscriptionID string, attempt int) error {
	n.logger.Infow("notify: payment retry succeeded",
		"subscription_id", subscriptionID,
		"attempt", attempt,
	)
	return nil
}

func (n *LoggingNotifier) NotifyPaymentRetryFailure(_ context.Context, subscriptionID string, attempt int) error {
	n.logger.Infow("notify: payment retry failed",
		"subscription_id", subscriptionID,
		"attempt", attempt,
	)
	return nil
}

func (n *LoggingNotifier) NotifySubscriptionCanceled(_ context.Context, subscriptionID string) error {
	n.logger.Infow("notify: subscription canceled after failed payments",
		"subscription_id", subscriptionID,
	)
	return nil
}
