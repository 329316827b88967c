package usecases

import (
	"context"
	"fmt"

	"github.com/leadsyncpro/billing/internal/application/billing/dto"
	"github.com/leadsyncpro/billing/internal/application/billing/gateway"
	"github.com/leadsyncpro/billing/internal/domain/billing"
	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
	"github.com/leadsyncpro/billing/internal/shared/biztime"
	"github.com/leadsyncpro/billing/internal/shared/db"
	"github.com/leadsyncpro/billing/internal/shared/logger"
)

type ChangePlanCommand struct {
	SubscriptionID string
	PlanCode       string
	BillingPeriod  string
	Proration      vo.Proration
}

type ChangePlanUseCase struct {
	subscriptionRepo billing.SubscriptionRepository
	planRepo         billing.PlanRepository
	machine          *billing.StateMachine
	gateway          gateway.Client
	txMgr            *db.TransactionManager
	logger           logger.Interface
}

func NewChangePlanUseCase(
	subscriptionRepo billing.SubscriptionRepository,
	planRepo billing.PlanRepository,
	machine *billing.StateMachine,
	gatewayClient gateway.Client,
	txMgr *db.TransactionManager,
	logger logger.Interface,
) *ChangePlanUseCase {
	return &ChangePlanUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		machine:          machine,
		gateway:          gatewayClient,
		txMgr:            txMgr,
		logger:           logger,
	}
}

func (uc *ChangePlanUseCase) Execute(ctx context.Context, cmd ChangePlanCommand) (*dto.SubscriptionDTO, error) {
	plan, price, err := resolvePlanPrice(ctx, uc.planRepo, cmd.PlanCode, cmd.BillingPeriod)
	if err != nil {
		return nil, err
	}

	var sub *billing.Subscription
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		locked, err := uc.subscriptionRepo.GetByIDForUpdate(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}
		if err := ensureGatewayReference(locked); err != nil {
			return err
		}

		if err := uc.machine.ChangePlan(locked, plan, price, biztime.NowUTC()); err != nil {
			return err
		}
		if err := uc.gateway.ChangePlan(txCtx, locked.ExternalSubscriptionID(), price.ID, prorationBehavior(cmd.Proration)); err != nil {
			return gatewayError("change plan", err)
		}

		if err := uc.subscriptionRepo.Update(txCtx, locked); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		sub = locked
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to change subscription plan",
			"subscription_id", cmd.SubscriptionID,
			"plan_code", cmd.PlanCode,
			"error", err,
		)
		return nil, err
	}

	uc.logger.Infow("subscription plan changed",
		"subscription_id", sub.ID(),
		"plan_code", plan.Code,
		"billing_period", price.BillingPeriod,
	)

	return subscriptionView{plans: uc.planRepo, machine: uc.machine}.render(ctx, sub)
}

func prorationBehavior(p vo.Proration) gateway.ProrationBehavior {
	if p.PaymentCollected() {
		return gateway.ProrationImmediate
	}
	return gateway.ProrationDeferred
}
