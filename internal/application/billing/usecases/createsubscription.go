package usecases

import (
	"context"
	"fmt"

	"github.com/leadsyncpro/billing/internal/application/billing/dto"
	"github.com/leadsyncpro/billing/internal/application/billing/gateway"
	"github.com/leadsyncpro/billing/internal/domain/billing"
	"github.com/leadsyncpro/billing/internal/shared/biztime"
	"github.com/leadsyncpro/billing/internal/shared/db"
	"github.com/leadsyncpro/billing/internal/shared/logger"
)

type CreateSubscriptionCommand struct {
	CustomerID    string
	PlanCode      string
	BillingPeriod string
	SeatCount     int
	// TrialDays overrides the price's trial length when set.
	TrialDays *int
}

type CreateSubscriptionUseCase struct {
	subscriptionRepo billing.SubscriptionRepository
	planRepo         billing.PlanRepository
	machine          *billing.StateMachine
	gateway          gateway.Client
	txMgr            *db.TransactionManager
	logger           logger.Interface
}

func NewCreateSubscriptionUseCase(
	subscriptionRepo billing.SubscriptionRepository,
	planRepo billing.PlanRepository,
	machine *billing.StateMachine,
	gatewayClient gateway.Client,
	txMgr *db.TransactionManager,
	logger logger.Interface,
) *CreateSubscriptionUseCase {
	return &CreateSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		machine:          machine,
		gateway:          gatewayClient,
		txMgr:            txMgr,
		logger:           logger,
	}
}

func (uc *CreateSubscriptionUseCase) Execute(ctx context.Context, cmd CreateSubscriptionCommand) (*dto.SubscriptionDTO, error) {
	plan, price, err := resolvePlanPrice(ctx, uc.planRepo, cmd.PlanCode, cmd.BillingPeriod)
	if err != nil {
		return nil, err
	}

	trialDays := price.TrialDaysOrZero()
	if cmd.TrialDays != nil {
		trialDays = *cmd.TrialDays
	}

	var sub *billing.Subscription
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		created, err := uc.machine.Create(cmd.CustomerID, plan, price, cmd.SeatCount, biztime.NowUTC(), trialDays)
		if err != nil {
			return err
		}

		resp, err := uc.gateway.CreateSubscription(txCtx, gateway.CreateSubscriptionRequest{
			CustomerID: cmd.CustomerID,
			PriceID:    price.ID,
			SeatCount:  cmd.SeatCount,
		})
		if err != nil {
			return gatewayError("create subscription", err)
		}
		if err := uc.machine.ApplyGatewayState(created, resp.SubscriptionID, resp.CurrentPeriodStart, resp.CurrentPeriodEnd, resp.CancelAtPeriodEnd); err != nil {
			return err
		}

		if err := uc.subscriptionRepo.Create(txCtx, created); err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		sub = created
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to create subscription",
			"customer_id", cmd.CustomerID,
			"plan_code", cmd.PlanCode,
			"error", err,
		)
		return nil, err
	}

	uc.logger.Infow("subscription created",
		"subscription_id", sub.ID(),
		"customer_id", sub.CustomerID(),
		"plan_code", plan.Code,
		"status", sub.Status(),
		"external_subscription_id", sub.ExternalSubscriptionID(),
	)

	return dto.ToSubscriptionDTO(sub, plan.Code, cmd.SeatCount), nil
}
