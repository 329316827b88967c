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

type UpdateSeatsCommand struct {
	SubscriptionID string
	SeatCount      int
	Proration      vo.Proration
}

type UpdateSeatsUseCase struct {
	subscriptionRepo billing.SubscriptionRepository
	planRepo         billing.PlanRepository
	machine          *billing.StateMachine
	gateway          gateway.Client
	txMgr            *db.TransactionManager
	logger           logger.Interface
}

func NewUpdateSeatsUseCase(
	subscriptionRepo billing.SubscriptionRepository,
	planRepo billing.PlanRepository,
	machine *billing.StateMachine,
	gatewayClient gateway.Client,
	txMgr *db.TransactionManager,
	logger logger.Interface,
) *UpdateSeatsUseCase {
	return &UpdateSeatsUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		machine:          machine,
		gateway:          gatewayClient,
		txMgr:            txMgr,
		logger:           logger,
	}
}

// Execute appends a seat allocation. Deferred proration leaves the new seats
// unpaid, which moves the subscription to PAST_DUE.
func (uc *UpdateSeatsUseCase) Execute(ctx context.Context, cmd UpdateSeatsCommand) (*dto.SubscriptionDTO, error) {
	proration := vo.ProrationOrDefault(cmd.Proration)

	var sub *billing.Subscription
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		locked, err := uc.subscriptionRepo.GetByIDForUpdate(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}
		if err := ensureGatewayReference(locked); err != nil {
			return err
		}

		if err := uc.machine.UpdateSeats(locked, cmd.SeatCount, biztime.NowUTC(), proration.PaymentCollected()); err != nil {
			return err
		}
		if err := uc.gateway.UpdateSeats(txCtx, locked.ExternalSubscriptionID(), cmd.SeatCount, prorationBehavior(proration)); err != nil {
			return gatewayError("update seats", err)
		}

		if err := uc.subscriptionRepo.Update(txCtx, locked); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		sub = locked
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to update subscription seats",
			"subscription_id", cmd.SubscriptionID,
			"seat_count", cmd.SeatCount,
			"error", err,
		)
		return nil, err
	}

	uc.logger.Infow("subscription seats updated",
		"subscription_id", sub.ID(),
		"seat_count", cmd.SeatCount,
		"proration", proration,
		"status", sub.Status(),
	)

	return subscriptionView{plans: uc.planRepo, machine: uc.machine}.render(ctx, sub)
}
