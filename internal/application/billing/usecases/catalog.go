package usecases

import (
	"context"
	"fmt"

	"github.com/leadsyncpro/billing/internal/application/billing/dto"
	"github.com/leadsyncpro/billing/internal/domain/billing"
	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
	apperrors "github.com/leadsyncpro/billing/internal/shared/errors"
)

// resolvePlanPrice loads an active plan by code and its price for period.
func resolvePlanPrice(ctx context.Context, plans billing.PlanRepository, planCode, period string) (*billing.Plan, *billing.Price, error) {
	billingPeriod, err := vo.ParseBillingPeriod(period)
	if err != nil {
		return nil, nil, apperrors.NewValidationError(err.Error())
	}

	plan, err := plans.GetByCode(ctx, planCode)
	if err != nil {
		return nil, nil, err
	}
	if !plan.Active {
		return nil, nil, apperrors.NewValidationError(fmt.Sprintf("plan %s is not active", planCode))
	}

	price, err := plans.GetPrice(ctx, plan.ID, billingPeriod)
	if err != nil {
		return nil, nil, err
	}
	return plan, price, nil
}

// subscriptionView renders subscriptions with their plan code and seat count.
type subscriptionView struct {
	plans   billing.PlanRepository
	machine *billing.StateMachine
}

func (v subscriptionView) render(ctx context.Context, sub *billing.Subscription) (*dto.SubscriptionDTO, error) {
	plan, err := v.plans.GetByID(ctx, sub.PlanID())
	if err != nil {
		return nil, err
	}
	seats, err := v.machine.CurrentSeatCount(ctx, sub)
	if err != nil {
		return nil, err
	}
	return dto.ToSubscriptionDTO(sub, plan.Code, seats), nil
}

func (v subscriptionView) renderAll(ctx context.Context, subs []*billing.Subscription) ([]*dto.SubscriptionDTO, error) {
	codes := make(map[string]string)
	out := make([]*dto.SubscriptionDTO, 0, len(subs))

	for _, sub := range subs {
		code, ok := codes[sub.PlanID()]
		if !ok {
			plan, err := v.plans.GetByID(ctx, sub.PlanID())
			if err != nil {
				return nil, err
			}
			code = plan.Code
			codes[sub.PlanID()] = code
		}

		seats, err := v.machine.CurrentSeatCount(ctx, sub)
		if err != nil {
			return nil, err
		}
		out = append(out, dto.ToSubscriptionDTO(sub, code, seats))
	}
	return out, nil
}

func ensureGatewayReference(sub *billing.Subscription) error {
	if sub.ExternalSubscriptionID() == "" {
		return apperrors.NewConflictError("subscription is not linked to the payment gateway", sub.ID())
	}
	return nil
}

func gatewayError(op string, err error) error {
	if apperrors.IsGatewayError(err) {
		return err
	}
	return apperrors.NewGatewayError(fmt.Sprintf("payment gateway %s failed", op), err)
}
