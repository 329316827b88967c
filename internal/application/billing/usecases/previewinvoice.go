package usecases

import (
	"context"
	"time"

	"github.com/leadsyncpro/billing/internal/application/billing/dto"
	"github.com/leadsyncpro/billing/internal/application/billing/invoicing"
	"github.com/leadsyncpro/billing/internal/domain/billing"
	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
	apperrors "github.com/leadsyncpro/billing/internal/shared/errors"
	"github.com/leadsyncpro/billing/internal/shared/utils"
)

// Preview proration types.
const (
	PreviewSeatIncrease  = "SEAT_INCREASE"
	PreviewPlanUpgrade   = "PLAN_UPGRADE"
	PreviewPlanDowngrade = "PLAN_DOWNGRADE"
)

type PreviewInvoiceCommand struct {
	PlanCode      string    `json:"planCode" validate:"required"`
	BillingPeriod string    `json:"billingPeriod" validate:"required,oneof=MONTH YEAR"`
	SeatCount     int       `json:"seatCount" validate:"gte=0"`
	PeriodStart   time.Time `json:"periodStart" validate:"required"`
	PeriodEnd     time.Time `json:"periodEnd" validate:"required"`

	// Proration prices a mid-period change instead of the full period.
	Proration *PreviewProration `json:"proration" validate:"omitempty"`
}

// PreviewProration describes the change being previewed. SEAT_INCREASE
// bills SeatCount - PreviousSeats from ChangeEffectiveAt to PeriodEnd. The
// plan change types compare against the previous plan's price.
type PreviewProration struct {
	Type                  string     `json:"type" validate:"required,oneof=SEAT_INCREASE PLAN_UPGRADE PLAN_DOWNGRADE"`
	PreviousSeats         int        `json:"previousSeats" validate:"gte=0"`
	ChangeEffectiveAt     *time.Time `json:"changeEffectiveAt"`
	PreviousPlanCode      string     `json:"previousPlanCode"`
	PreviousBillingPeriod string     `json:"previousBillingPeriod" validate:"omitempty,oneof=MONTH YEAR"`
}

// PreviewInvoiceUseCase prices a hypothetical period without persisting anything.
type PreviewInvoiceUseCase struct {
	planRepo billing.PlanRepository
	engine   *invoicing.Engine
}

func NewPreviewInvoiceUseCase(planRepo billing.PlanRepository, engine *invoicing.Engine) *PreviewInvoiceUseCase {
	return &PreviewInvoiceUseCase{planRepo: planRepo, engine: engine}
}

func (uc *PreviewInvoiceUseCase) Execute(ctx context.Context, cmd PreviewInvoiceCommand) (*dto.InvoicePreviewDTO, error) {
	if err := utils.ValidateStruct(cmd); err != nil {
		return nil, err
	}

	_, price, err := resolvePlanPrice(ctx, uc.planRepo, cmd.PlanCode, cmd.BillingPeriod)
	if err != nil {
		return nil, err
	}

	instruction, err := uc.instruction(ctx, cmd)
	if err != nil {
		return nil, err
	}

	invoiceCtx, err := uc.engine.GenerateInvoiceContextWithProration(price, cmd.SeatCount, cmd.PeriodStart.UTC(), cmd.PeriodEnd.UTC(), instruction)
	if err != nil {
		return nil, err
	}

	out := dto.ToInvoicePreviewDTO(cmd.PlanCode, price, cmd.SeatCount, invoiceCtx)
	if cmd.Proration != nil {
		out.Proration = cmd.Proration.Type
	}
	return out, nil
}

func (uc *PreviewInvoiceUseCase) instruction(ctx context.Context, cmd PreviewInvoiceCommand) (invoicing.ProrationInstruction, error) {
	p := cmd.Proration
	if p == nil {
		return invoicing.None{}, nil
	}

	switch p.Type {
	case PreviewSeatIncrease:
		if p.ChangeEffectiveAt == nil {
			return nil, apperrors.NewValidationError("changeEffectiveAt is required for a seat increase preview")
		}
		return invoicing.SeatIncrease{
			PreviousSeats:      p.PreviousSeats,
			NewSeats:           cmd.SeatCount,
			BillingPeriodStart: cmd.PeriodStart.UTC(),
			ChangeEffectiveAt:  p.ChangeEffectiveAt.UTC(),
		}, nil

	default:
		if p.PreviousPlanCode == "" {
			return nil, apperrors.NewValidationError("previousPlanCode is required for a plan change preview")
		}
		period := p.PreviousBillingPeriod
		if period == "" {
			period = cmd.BillingPeriod
		}
		previous, err := uc.previousPrice(ctx, p.PreviousPlanCode, period)
		if err != nil {
			return nil, err
		}

		changeType := invoicing.PlanUpgrade
		if p.Type == PreviewPlanDowngrade {
			changeType = invoicing.PlanDowngrade
		}
		return invoicing.PlanChange{PreviousPrice: previous, Type: changeType}, nil
	}
}

// previousPrice accepts retired plans, since a subscriber may still be on one.
func (uc *PreviewInvoiceUseCase) previousPrice(ctx context.Context, planCode, period string) (*billing.Price, error) {
	billingPeriod, err := vo.ParseBillingPeriod(period)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	plan, err := uc.planRepo.GetByCode(ctx, planCode)
	if err != nil {
		return nil, err
	}
	return uc.planRepo.GetPrice(ctx, plan.ID, billingPeriod)
}
