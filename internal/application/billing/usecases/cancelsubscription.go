package usecases

import (
	"context"
	"fmt"

	"github.com/leadsyncpro/billing/internal/application/billing/gateway"
	"github.com/leadsyncpro/billing/internal/domain/billing"
	"github.com/leadsyncpro/billing/internal/shared/biztime"
	"github.com/leadsyncpro/billing/internal/shared/db"
	"github.com/leadsyncpro/billing/internal/shared/logger"
)

type CancelSubscriptionCommand struct {
	SubscriptionID    string
	CancelAtPeriodEnd bool
}

type CancelSubscriptionUseCase struct {
	subscriptionRepo billing.SubscriptionRepository
	machine          *billing.StateMachine
	gateway          gateway.Client
	txMgr            *db.TransactionManager
	logger           logger.Interface
}

func NewCancelSubscriptionUseCase(
	subscriptionRepo billing.SubscriptionRepository,
	machine *billing.StateMachine,
	gatewayClient gateway.Client,
	txMgr *db.TransactionManager,
	logger logger.Interface,
) *CancelSubscriptionUseCase {
	return &CancelSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		machine:          machine,
		gateway:          gatewayClient,
		txMgr:            txMgr,
		logger:           logger,
	}
}

// Execute cancels at period end by flagging the subscription. An immediate
// cancel is only legal for PAST_DUE subscriptions and is otherwise a conflict.
func (uc *CancelSubscriptionUseCase) Execute(ctx context.Context, cmd CancelSubscriptionCommand) error {
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		sub, err := uc.subscriptionRepo.GetByIDForUpdate(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}
		if err := ensureGatewayReference(sub); err != nil {
			return err
		}

		if cmd.CancelAtPeriodEnd {
			err = uc.machine.ScheduleCancellation(sub)
		} else {
			err = uc.machine.Cancel(sub, biztime.NowUTC())
		}
		if err != nil {
			return err
		}

		if err := uc.gateway.CancelSubscription(txCtx, sub.ExternalSubscriptionID(), cmd.CancelAtPeriodEnd); err != nil {
			return gatewayError("cancel subscription", err)
		}

		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to cancel subscription",
			"subscription_id", cmd.SubscriptionID,
			"cancel_at_period_end", cmd.CancelAtPeriodEnd,
			"error", err,
		)
		return err
	}

	uc.logger.Infow("subscription cancellation applied",
		"subscription_id", cmd.SubscriptionID,
		"cancel_at_period_end", cmd.CancelAtPeriodEnd,
	)
	return nil
}
