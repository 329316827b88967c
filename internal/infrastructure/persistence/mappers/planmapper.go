package mappers

import (
	"fmt"

	"github.com/leadsyncpro/billing/internal/domain/billing"
	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
	"github.com/leadsyncpro/billing/internal/infrastructure/persistence/models"
)

func PlanToDomain(model *models.PlanModel) *billing.Plan {
	return &billing.Plan{
		ID:          model.ID,
		Code:        model.Code,
		Name:        model.Name,
		Description: model.Description,
		Active:      model.Active,
		CreatedAt:   model.CreatedAt,
	}
}

func PlanToModel(p *billing.Plan) *models.PlanModel {
	return &models.PlanModel{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
	}
}

func PriceToDomain(model *models.PlanPriceModel) (*billing.Price, error) {
	period, err := vo.ParseBillingPeriod(model.BillingPeriod)
	if err != nil {
		return nil, fmt.Errorf("invalid billing period for price %s: %w", model.ID, err)
	}

	return &billing.Price{
		ID:                 model.ID,
		PlanID:             model.PlanID,
		BillingPeriod:      period,
		BaseAmountCents:    model.BaseAmountCents,
		PerSeatAmountCents: model.PerSeatAmountCents,
		Currency:           model.Currency,
		SeatLimit:          model.SeatLimit,
		TrialDays:          model.TrialDays,
	}, nil
}

func PriceToModel(p *billing.Price) *models.PlanPriceModel {
	return &models.PlanPriceModel{
		ID:                 p.ID,
		PlanID:             p.PlanID,
		BillingPeriod:      string(p.BillingPeriod),
		BaseAmountCents:    p.BaseAmountCents,
		PerSeatAmountCents: p.PerSeatAmountCents,
		Currency:           p.Currency,
		SeatLimit:          p.SeatLimit,
		TrialDays:          p.TrialDays,
	}
}
