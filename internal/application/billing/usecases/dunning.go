package usecases

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leadsyncpro/billing/internal/application/billing/gateway"
	"github.com/leadsyncpro/billing/internal/application/billing/invoicing"
	"github.com/leadsyncpro/billing/internal/application/billing/notification"
	"github.com/leadsyncpro/billing/internal/domain/billing"
	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
	"github.com/leadsyncpro/billing/internal/shared/biztime"
	"github.com/leadsyncpro/billing/internal/shared/db"
	apperrors "github.com/leadsyncpro/billing/internal/shared/errors"
	"github.com/leadsyncpro/billing/internal/shared/logger"
)

const dunningLockKey = "billing:dunning:lock"

// DunningConfig tunes the dunning sweep.
type DunningConfig struct {
	// Concurrency bounds how many subscriptions are processed at once.
	Concurrency    int
	LockTTL        time.Duration
	GatewayTimeout time.Duration
	// RetryScheduleDays lists the days past due on which collection is
	// retried. Past the last day the subscription is canceled.
	RetryScheduleDays []int
}

func DefaultDunningConfig() DunningConfig {
	return DunningConfig{
		Concurrency:       1,
		LockTTL:           10 * time.Minute,
		GatewayTimeout:    10 * time.Second,
		RetryScheduleDays: []int{1, 3, 5},
	}
}

func (c DunningConfig) withDefaults() DunningConfig {
	d := DefaultDunningConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.LockTTL <= 0 {
		c.LockTTL = d.LockTTL
	}
	if c.GatewayTimeout <= 0 {
		c.GatewayTimeout = d.GatewayTimeout
	}
	if len(c.RetryScheduleDays) == 0 {
		c.RetryScheduleDays = d.RetryScheduleDays
	}
	return c
}

type DunningOption func(*DunningUseCase)

func WithDunningClock(now func() time.Time) DunningOption {
	return func(uc *DunningUseCase) { uc.now = now }
}

func WithDunningIDGenerator(fn func() string) DunningOption {
	return func(uc *DunningUseCase) { uc.newID = fn }
}

// WithDunningLocker makes each tick singleton across replicas.
func WithDunningLocker(l Locker) DunningOption {
	return func(uc *DunningUseCase) { uc.locker = l }
}

func WithDunningMetrics(m DunningMetrics) DunningOption {
	return func(uc *DunningUseCase) {
		if m != nil {
			uc.metrics = m
		}
	}
}

// DunningUseCase activates elapsed trials and retries collection for
// past-due subscriptions.
type DunningUseCase struct {
	subscriptionRepo billing.SubscriptionRepository
	invoiceRepo      billing.InvoiceRepository
	machine          *billing.StateMachine
	engine           *invoicing.Engine
	gateway          gateway.Client
	notifier         notification.Port
	txMgr            *db.TransactionManager
	locker           Locker
	metrics          DunningMetrics
	cfg              DunningConfig
	now              func() time.Time
	newID            func() string
	logger           logger.Interface
}

func NewDunningUseCase(
	subscriptionRepo billing.SubscriptionRepository,
	invoiceRepo billing.InvoiceRepository,
	machine *billing.StateMachine,
	engine *invoicing.Engine,
	gatewayClient gateway.Client,
	notifier notification.Port,
	txMgr *db.TransactionManager,
	cfg DunningConfig,
	logger logger.Interface,
	opts ...DunningOption,
) *DunningUseCase {
	uc := &DunningUseCase{
		subscriptionRepo: subscriptionRepo,
		invoiceRepo:      invoiceRepo,
		machine:          machine,
		engine:           engine,
		gateway:          gatewayClient,
		notifier:         notifier,
		txMgr:            txMgr,
		metrics:          noopMetrics{},
		cfg:              cfg.withDefaults(),
		now:              biztime.NowUTC,
		newID:            uuid.NewString,
		logger:           logger,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// dunningOutcome is what a past-due pass decided; it is reported after commit.
type dunningOutcome struct {
	result  string
	attempt int
}

// Execute runs one dunning tick and returns the number of subscriptions it
// acted on. Per-subscription failures are logged and do not abort the tick.
func (uc *DunningUseCase) Execute(ctx context.Context) (int, error) {
	if uc.locker != nil {
		unlock, acquired, err := uc.locker.TryLock(ctx, dunningLockKey, uc.cfg.LockTTL)
		if err != nil {
			return 0, fmt.Errorf("failed to acquire dunning lock: %w", err)
		}
		if !acquired {
			uc.logger.Infow("dunning tick skipped, another replica holds the lock")
			return 0, nil
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				uc.logger.Warnw("failed to release dunning lock", "error", err)
			}
		}()
	}

	now := uc.now()

	trialIDs, err := uc.subscriptionRepo.ListTrialIDsEndedBy(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list elapsed trials: %w", err)
	}
	activated := uc.forEach(ctx, "activate trial", trialIDs, func(ctx context.Context, id string) (bool, error) {
		return uc.activateTrial(ctx, id)
	})

	pastDueIDs, err := uc.subscriptionRepo.ListIDsByStatus(ctx, vo.StatusPastDue)
	if err != nil {
		return activated, fmt.Errorf("failed to list past due subscriptions: %w", err)
	}
	handled := uc.forEach(ctx, "process past due", pastDueIDs, func(ctx context.Context, id string) (bool, error) {
		return uc.processPastDue(ctx, id, now)
	})

	uc.logger.Infow("dunning tick completed",
		"trials_activated", activated,
		"past_due_handled", handled,
	)
	return activated + handled, nil
}

func (uc *DunningUseCase) forEach(ctx context.Context, op string, ids []string, fn func(ctx context.Context, id string) (bool, error)) int {
	var (
		g     errgroup.Group
		acted atomic.Int64
	)
	g.SetLimit(uc.cfg.Concurrency)

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			ok, err := fn(ctx, id)
			if err != nil {
				uc.logger.Errorw("dunning step failed",
					"operation", op,
					"subscription_id", id,
					"error", err,
				)
				return nil
			}
			if ok {
				acted.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(acted.Load())
}

func (uc *DunningUseCase) activateTrial(ctx context.Context, id string) (bool, error) {
	activated := false
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		sub, err := uc.subscriptionRepo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		// Re-checked under lock; a webhook may have activated it already.
		if sub.Status() != vo.StatusTrial || sub.TrialEndAt() == nil {
			return nil
		}

		if err := uc.machine.ActivateTrial(sub, *sub.TrialEndAt()); err != nil {
			return err
		}
		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		activated = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if activated {
		uc.logger.Infow("trial activated", "subscription_id", id)
	}
	return activated, nil
}

func (uc *DunningUseCase) processPastDue(ctx context.Context, id string, now time.Time) (bool, error) {
	var outcome *dunningOutcome
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		sub, err := uc.subscriptionRepo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if sub.Status() != vo.StatusPastDue {
			return nil
		}

		daysPastDue := biztime.WholeDaysBetween(sub.UpdatedAt(), now)
		schedule := uc.cfg.RetryScheduleDays

		if daysPastDue > int64(schedule[len(schedule)-1]) {
			if err := uc.cancel(txCtx, sub, now); err != nil {
				return err
			}
			outcome = &dunningOutcome{result: DunningResultCanceled}
			return nil
		}

		attempt := retryAttempt(schedule, daysPastDue)
		if attempt == 0 {
			return nil
		}

		invoiceCtx, externalInvoiceID, collectErr := uc.collect(txCtx, sub, now)
		if collectErr == nil {
			if err := uc.recordRecovery(txCtx, sub, invoiceCtx, externalInvoiceID, now); err != nil {
				return err
			}
			outcome = &dunningOutcome{result: DunningResultRecovered, attempt: attempt}
			return nil
		}

		uc.logger.Warnw("payment retry failed",
			"subscription_id", id,
			"attempt", attempt,
			"days_past_due", daysPastDue,
			"error", collectErr,
		)
		if attempt == len(schedule) {
			if err := uc.cancel(txCtx, sub, now); err != nil {
				return err
			}
			outcome = &dunningOutcome{result: DunningResultCanceled, attempt: attempt}
			return nil
		}
		// The subscription is not touched so updatedAt keeps counting days.
		outcome = &dunningOutcome{result: DunningResultFailed, attempt: attempt}
		return nil
	})
	if err != nil {
		return false, err
	}
	if outcome == nil {
		return false, nil
	}

	uc.metrics.RecordDunningAttempt(outcome.result)
	uc.notify(ctx, id, *outcome)
	return true, nil
}

// collect builds the invoice for the current period and charges it through
// the gateway. A zero amount needs no charge.
func (uc *DunningUseCase) collect(ctx context.Context, sub *billing.Subscription, now time.Time) (*invoicing.InvoiceContext, *string, error) {
	seats, err := uc.machine.CurrentSeatCount(ctx, sub)
	if err != nil {
		return nil, nil, err
	}
	start, end := sub.PeriodBounds(now)
	invoiceCtx, err := uc.engine.GenerateInvoiceContext(sub.Price(), seats, start, end)
	if err != nil {
		return nil, nil, err
	}
	if invoiceCtx.AmountCents <= 0 {
		return &invoiceCtx, nil, nil
	}
	if err := ensureGatewayReference(sub); err != nil {
		return nil, nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, uc.cfg.GatewayTimeout)
	defer cancel()

	resp, err := uc.gateway.CreateInvoice(callCtx, gateway.CreateInvoiceRequest{
		ExternalSubscriptionID: sub.ExternalSubscriptionID(),
		PeriodStart:            invoiceCtx.PeriodStart,
		PeriodEnd:              invoiceCtx.PeriodEnd,
		AmountCents:            invoiceCtx.AmountCents,
		Currency:               sub.Price().Currency,
	})
	if err != nil {
		return nil, nil, gatewayError("create invoice", err)
	}
	if resp == nil || resp.InvoiceID == "" {
		return nil, nil, apperrors.NewGatewayError("payment gateway returned no invoice id", nil)
	}

	externalID := resp.InvoiceID
	return &invoiceCtx, &externalID, nil
}

func (uc *DunningUseCase) recordRecovery(ctx context.Context, sub *billing.Subscription, invoiceCtx *invoicing.InvoiceContext, externalInvoiceID *string, now time.Time) error {
	if err := uc.machine.RecoverPayment(sub, &invoiceCtx.PeriodStart, &invoiceCtx.PeriodEnd); err != nil {
		return err
	}
	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	invoice, err := billing.NewInvoice(
		uc.newID(),
		sub.ID(),
		externalInvoiceID,
		invoiceCtx.PeriodStart,
		invoiceCtx.PeriodEnd,
		invoiceCtx.AmountCents,
		sub.Price().Currency,
		vo.InvoiceStatusPaid,
		now,
	)
	if err != nil {
		return err
	}
	if err := uc.invoiceRepo.Create(ctx, invoice); err != nil {
		return fmt.Errorf("failed to record invoice: %w", err)
	}

	uc.logger.Infow("past due subscription recovered",
		"subscription_id", sub.ID(),
		"invoice_id", invoice.ID(),
		"amount_cents", invoiceCtx.AmountCents,
	)
	return nil
}

func (uc *DunningUseCase) cancel(ctx context.Context, sub *billing.Subscription, now time.Time) error {
	if err := uc.machine.Cancel(sub, now); err != nil {
		return err
	}
	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	uc.logger.Infow("past due subscription canceled", "subscription_id", sub.ID())
	return nil
}

func (uc *DunningUseCase) notify(ctx context.Context, subscriptionID string, outcome dunningOutcome) {
	var err error
	switch outcome.result {
	case DunningResultRecovered:
		err = uc.notifier.NotifyPaymentRetrySuccess(ctx, subscriptionID, outcome.attempt)
	case DunningResultFailed:
		err = uc.notifier.NotifyPaymentRetryFailure(ctx, subscriptionID, outcome.attempt)
	case DunningResultCanceled:
		err = uc.notifier.NotifySubscriptionCanceled(ctx, subscriptionID)
	}
	if err != nil {
		uc.logger.Warnw("failed to send dunning notification",
			"subscription_id", subscriptionID,
			"result", outcome.result,
			"error", err,
		)
	}
}

// retryAttempt returns the 1-based attempt number scheduled for days, or 0.
func retryAttempt(schedule []int, days int64) int {
	for i, d := range schedule {
		if int64(d) == days {
			return i + 1
		}
	}
	return 0
}
