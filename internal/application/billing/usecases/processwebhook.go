package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/leadsyncpro/billing/internal/application/billing/payload"
	"github.com/leadsyncpro/billing/internal/application/billing/retry"
	"github.com/leadsyncpro/billing/internal/domain/billing"
	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
	"github.com/leadsyncpro/billing/internal/shared/biztime"
	"github.com/leadsyncpro/billing/internal/shared/db"
	apperrors "github.com/leadsyncpro/billing/internal/shared/errors"
	"github.com/leadsyncpro/billing/internal/shared/logger"
)

// Gateway webhook event types.
const (
	EventPaymentSucceeded     = "payment.succeeded"
	EventPaymentFailed        = "payment.failed"
	EventSubscriptionRenewed  = "subscription.renewed"
	EventSubscriptionCanceled = "subscription.canceled"
	EventInvoicePaid          = "invoice.paid"
	EventInvoicePaymentFailed = "invoice.payment_failed"
)

type ProcessWebhookOption func(*ProcessWebhookUseCase)

func WithRetryPolicy(p retry.Policy) ProcessWebhookOption {
	return func(uc *ProcessWebhookUseCase) { uc.policy = p }
}

func WithWebhookClock(now func() time.Time) ProcessWebhookOption {
	return func(uc *ProcessWebhookUseCase) { uc.now = now }
}

func WithWebhookMetrics(m WebhookMetrics) ProcessWebhookOption {
	return func(uc *ProcessWebhookUseCase) {
		if m != nil {
			uc.metrics = m
		}
	}
}

// ProcessWebhookUseCase applies a stored gateway event to billing state.
type ProcessWebhookUseCase struct {
	eventRepo        billing.WebhookEventRepository
	subscriptionRepo billing.SubscriptionRepository
	invoiceRepo      billing.InvoiceRepository
	machine          *billing.StateMachine
	txMgr            *db.TransactionManager
	metrics          WebhookMetrics
	policy           retry.Policy
	now              func() time.Time
	logger           logger.Interface
}

func NewProcessWebhookUseCase(
	eventRepo billing.WebhookEventRepository,
	subscriptionRepo billing.SubscriptionRepository,
	invoiceRepo billing.InvoiceRepository,
	machine *billing.StateMachine,
	txMgr *db.TransactionManager,
	logger logger.Interface,
	opts ...ProcessWebhookOption,
) *ProcessWebhookUseCase {
	uc := &ProcessWebhookUseCase{
		eventRepo:        eventRepo,
		subscriptionRepo: subscriptionRepo,
		invoiceRepo:      invoiceRepo,
		machine:          machine,
		txMgr:            txMgr,
		metrics:          noopMetrics{},
		policy:           retry.DefaultPolicy(),
		now:              biztime.NowUTC,
		logger:           logger,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute processes the event with retries. Every failure is retried, since a
// transition rejected now may become legal once a concurrent API change
// commits. Once retries are exhausted the event is marked FAILED.
func (uc *ProcessWebhookUseCase) Execute(ctx context.Context, eventID string) error {
	var eventType string

	err := retry.Do(ctx, uc.policy, func(ctx context.Context) error {
		t, err := uc.processOnce(ctx, eventID)
		if t != "" {
			eventType = t
		}
		return err
	}, func(ctx context.Context, err error) {
		uc.markFailed(ctx, eventID, eventType, err)
	})
	if err != nil {
		return err
	}

	uc.metrics.RecordWebhookEvent(eventType, WebhookResultProcessed)
	return nil
}

func (uc *ProcessWebhookUseCase) processOnce(ctx context.Context, eventID string) (string, error) {
	var eventType string
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		event, err := uc.eventRepo.GetByID(txCtx, eventID)
		if err != nil {
			if apperrors.IsNotFoundError(err) {
				return apperrors.NewProcessingError("webhook event not found", err)
			}
			return err
		}
		eventType = event.EventType()

		if event.IsProcessed() {
			uc.logger.Debugw("webhook event already processed", "event_id", eventID)
			return nil
		}

		doc, err := payload.Parse(event.Payload())
		if err != nil {
			return apperrors.NewValidationError("malformed webhook payload", err.Error())
		}
		if err := uc.dispatch(txCtx, event.EventType(), doc); err != nil {
			return err
		}

		event.MarkProcessed(uc.now())
		if err := uc.eventRepo.Update(txCtx, event); err != nil {
			return fmt.Errorf("failed to update webhook event: %w", err)
		}
		return nil
	})
	return eventType, err
}

func (uc *ProcessWebhookUseCase) dispatch(ctx context.Context, eventType string, doc payload.Document) error {
	switch eventType {
	case EventPaymentSucceeded:
		sub, err := uc.lockSubscription(ctx, doc, false)
		if err != nil || sub == nil {
			return err
		}
		return uc.recoverPayment(ctx, sub, nil, nil)

	case EventPaymentFailed:
		sub, err := uc.lockSubscription(ctx, doc, false)
		if err != nil || sub == nil {
			return err
		}
		return uc.markPastDue(ctx, sub)

	case EventSubscriptionRenewed:
		return uc.onSubscriptionRenewed(ctx, doc)

	case EventSubscriptionCanceled:
		return uc.onSubscriptionCanceled(ctx, doc)

	case EventInvoicePaid:
		return uc.onInvoiceOutcome(ctx, doc, true)

	case EventInvoicePaymentFailed:
		return uc.onInvoiceOutcome(ctx, doc, false)

	default:
		uc.logger.Warnw("unsupported webhook event type dropped", "event_type", eventType)
		return nil
	}
}

func (uc *ProcessWebhookUseCase) onSubscriptionRenewed(ctx context.Context, doc payload.Document) error {
	sub, err := uc.lockSubscription(ctx, doc, true)
	if err != nil {
		return err
	}

	var start, end *time.Time
	if t, ok := payload.LookupInstant(doc, payload.PeriodStartFields...); ok {
		start = &t
	}
	if t, ok := payload.LookupInstant(doc, payload.PeriodEndFields...); ok {
		end = &t
	}

	if err := uc.machine.RecoverPayment(sub, start, end); err != nil {
		return err
	}
	return uc.save(ctx, sub)
}

func (uc *ProcessWebhookUseCase) onSubscriptionCanceled(ctx context.Context, doc payload.Document) error {
	sub, err := uc.lockSubscription(ctx, doc, true)
	if err != nil {
		return err
	}
	if sub.Status() == vo.StatusCanceled {
		uc.logger.Infow("subscription already canceled", "subscription_id", sub.ID())
		return nil
	}

	atPeriodEnd, ok := payload.LookupBool(doc, payload.CancelAtEndFields...)
	if !ok {
		atPeriodEnd = true
	}

	switch {
	case atPeriodEnd:
		err = uc.machine.ScheduleCancellation(sub)
	case sub.Status() == vo.StatusPastDue:
		err = uc.machine.Cancel(sub, uc.now())
	default:
		uc.logger.Warnw("immediate cancellation requires PAST_DUE, scheduling at period end instead",
			"subscription_id", sub.ID(),
			"status", sub.Status(),
		)
		err = uc.machine.ScheduleCancellation(sub)
	}
	if err != nil {
		return err
	}
	return uc.save(ctx, sub)
}

func (uc *ProcessWebhookUseCase) onInvoiceOutcome(ctx context.Context, doc payload.Document, paid bool) error {
	ref, ok := payload.LookupText(doc, payload.InvoiceIDFields...)
	if !ok {
		return apperrors.NewValidationError("webhook payload has no invoice reference")
	}
	invoice, err := uc.invoiceRepo.GetByExternalID(ctx, ref)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			return apperrors.NewProcessingError(fmt.Sprintf("invoice %s not found", ref), err)
		}
		return err
	}

	if paid {
		invoice.MarkPaid(uc.now())
	} else {
		invoice.MarkOpen(uc.now())
	}
	if err := uc.invoiceRepo.Update(ctx, invoice); err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}

	sub, err := uc.lockSubscription(ctx, doc, false)
	if err != nil || sub == nil {
		return err
	}
	if paid {
		return uc.recoverPayment(ctx, sub, nil, nil)
	}
	return uc.markPastDue(ctx, sub)
}

// lockSubscription loads the referenced subscription under row lock. An
// optional reference that is absent or unknown yields nil without error.
func (uc *ProcessWebhookUseCase) lockSubscription(ctx context.Context, doc payload.Document, required bool) (*billing.Subscription, error) {
	ref, ok := payload.LookupText(doc, payload.SubscriptionIDFields...)
	if !ok {
		if required {
			return nil, apperrors.NewValidationError("webhook payload has no subscription reference")
		}
		uc.logger.Warnw("webhook payload has no subscription reference")
		return nil, nil
	}

	sub, err := uc.subscriptionRepo.GetByExternalIDForUpdate(ctx, ref)
	if err == nil {
		return sub, nil
	}
	if !apperrors.IsNotFoundError(err) {
		return nil, err
	}
	if required {
		return nil, apperrors.NewProcessingError(fmt.Sprintf("subscription %s not found", ref), err)
	}
	uc.logger.Warnw("webhook references unknown subscription", "external_subscription_id", ref)
	return nil, nil
}

func (uc *ProcessWebhookUseCase) recoverPayment(ctx context.Context, sub *billing.Subscription, start, end *time.Time) error {
	if sub.Status() == vo.StatusCanceled {
		uc.logger.Warnw("payment reported for canceled subscription, ignoring", "subscription_id", sub.ID())
		return nil
	}
	if err := uc.machine.RecoverPayment(sub, start, end); err != nil {
		return err
	}
	return uc.save(ctx, sub)
}

func (uc *ProcessWebhookUseCase) markPastDue(ctx context.Context, sub *billing.Subscription) error {
	switch sub.Status() {
	case vo.StatusPastDue:
		// Saving would reset the dunning clock.
		return nil
	case vo.StatusTrial, vo.StatusCanceled:
		uc.logger.Warnw("payment failure ignored for subscription state",
			"subscription_id", sub.ID(),
			"status", sub.Status(),
		)
		return nil
	}
	if err := uc.machine.MarkPastDue(sub); err != nil {
		return err
	}
	return uc.save(ctx, sub)
}

func (uc *ProcessWebhookUseCase) save(ctx context.Context, sub *billing.Subscription) error {
	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

func (uc *ProcessWebhookUseCase) markFailed(ctx context.Context, eventID, eventType string, cause error) {
	uc.metrics.RecordWebhookEvent(eventType, WebhookResultFailed)
	uc.logger.Errorw("webhook event processing failed",
		"event_id", eventID,
		"event_type", eventType,
		"error", cause,
	)

	event, err := uc.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		uc.logger.Errorw("failed to load webhook event", "event_id", eventID, "error", err)
		return
	}
	event.MarkFailed(uc.now())
	if err := uc.eventRepo.Update(ctx, event); err != nil {
		uc.logger.Errorw("failed to mark webhook event failed", "event_id", eventID, "error", err)
	}
}
