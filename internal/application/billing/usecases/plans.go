package usecases

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leadsyncpro/billing/internal/application/billing/dto"
	"github.com/leadsyncpro/billing/internal/domain/billing"
	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
	"github.com/leadsyncpro/billing/internal/shared/biztime"
	"github.com/leadsyncpro/billing/internal/shared/db"
	apperrors "github.com/leadsyncpro/billing/internal/shared/errors"
	"github.com/leadsyncpro/billing/internal/shared/logger"
	"github.com/leadsyncpro/billing/internal/shared/utils"
)

type CreatePlanCommand struct {
	Code        string                `validate:"required,max=64"`
	Name        string                `validate:"required,max=128"`
	Description string                `validate:"max=500"`
	Prices      []PlanPriceDefinition `validate:"required,min=1,dive"`
}

// PlanPriceDefinition is one price point of a new plan, in minor units.
type PlanPriceDefinition struct {
	BillingPeriod      string `validate:"required,oneof=MONTH YEAR"`
	BaseAmountCents    int64  `validate:"gte=0"`
	PerSeatAmountCents int64  `validate:"gte=0"`
	Currency           string `validate:"required,len=3,alpha"`
	SeatLimit          *int   `validate:"omitempty,gte=0"`
	TrialDays          *int   `validate:"omitempty,gte=0"`
}

// CreatePlanUseCase adds an active plan and its prices to the catalog.
type CreatePlanUseCase struct {
	planRepo billing.PlanRepository
	txMgr    *db.TransactionManager
	now      func() time.Time
	newID    func() string
	logger   logger.Interface
}

func NewCreatePlanUseCase(planRepo billing.PlanRepository, txMgr *db.TransactionManager, logger logger.Interface) *CreatePlanUseCase {
	return &CreatePlanUseCase{
		planRepo: planRepo,
		txMgr:    txMgr,
		now:      biztime.NowUTC,
		newID:    uuid.NewString,
		logger:   logger,
	}
}

func (uc *CreatePlanUseCase) Execute(ctx context.Context, cmd CreatePlanCommand) (*dto.PlanDTO, error) {
	cmd.Code = strings.TrimSpace(cmd.Code)
	cmd.Name = strings.TrimSpace(cmd.Name)
	if err := utils.ValidateStruct(cmd); err != nil {
		return nil, err
	}

	plan := &billing.Plan{
		ID:          uc.newID(),
		Code:        cmd.Code,
		Name:        cmd.Name,
		Description: strings.TrimSpace(cmd.Description),
		Active:      true,
		CreatedAt:   uc.now(),
	}
	prices, err := uc.buildPrices(plan.ID, cmd.Prices)
	if err != nil {
		return nil, err
	}

	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		if _, err := uc.planRepo.GetByCode(txCtx, plan.Code); err == nil {
			return billing.NewPlanExists(plan.Code)
		} else if !apperrors.IsNotFoundError(err) {
			return err
		}

		if err := uc.planRepo.Create(txCtx, plan); err != nil {
			if apperrors.IsDuplicateError(err) {
				return billing.NewPlanExists(plan.Code)
			}
			return err
		}
		for _, price := range prices {
			if err := uc.planRepo.CreatePrice(txCtx, price); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		uc.logger.Warnw("failed to create plan", "plan_code", plan.Code, "error", err)
		return nil, err
	}

	uc.logger.Infow("plan created", "plan_id", plan.ID, "plan_code", plan.Code, "prices", len(prices))
	return dto.ToPlanDTO(plan, prices), nil
}

func (uc *CreatePlanUseCase) buildPrices(planID string, defs []PlanPriceDefinition) ([]*billing.Price, error) {
	seen := make(map[vo.BillingPeriod]bool, len(defs))
	prices := make([]*billing.Price, 0, len(defs))

	for _, def := range defs {
		period, err := vo.ParseBillingPeriod(def.BillingPeriod)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
		if seen[period] {
			return nil, billing.NewDuplicatePricePeriod(period)
		}
		seen[period] = true

		prices = append(prices, &billing.Price{
			ID:                 uc.newID(),
			PlanID:             planID,
			BillingPeriod:      period,
			BaseAmountCents:    billing.Cents(def.BaseAmountCents),
			PerSeatAmountCents: billing.Cents(def.PerSeatAmountCents),
			Currency:           strings.ToUpper(def.Currency),
			SeatLimit:          def.SeatLimit,
			TrialDays:          def.TrialDays,
		})
	}
	return prices, nil
}

// ListPublicPlansUseCase returns the active catalog. Plans without any price
// cannot be subscribed to and are left out.
type ListPublicPlansUseCase struct {
	planRepo billing.PlanRepository
	logger   logger.Interface
}

func NewListPublicPlansUseCase(planRepo billing.PlanRepository, logger logger.Interface) *ListPublicPlansUseCase {
	return &ListPublicPlansUseCase{planRepo: planRepo, logger: logger}
}

func (uc *ListPublicPlansUseCase) Execute(ctx context.Context) ([]*dto.PlanDTO, error) {
	plans, err := uc.planRepo.ListActive(ctx)
	if err != nil {
		uc.logger.Errorw("failed to list plans", "error", err)
		return nil, err
	}

	out := make([]*dto.PlanDTO, 0, len(plans))
	for _, plan := range plans {
		prices, err := uc.planRepo.ListPrices(ctx, plan.ID)
		if err != nil {
			return nil, err
		}
		if len(prices) == 0 {
			continue
		}
		out = append(out, dto.ToPlanDTO(plan, prices))
	}
	return out, nil
}
