package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/leadsyncpro/billing/internal/domain/billing"
	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
	"github.com/leadsyncpro/billing/internal/infrastructure/persistence/mappers"
	"github.com/leadsyncpro/billing/internal/infrastructure/persistence/models"
	"github.com/leadsyncpro/billing/internal/shared/db"
	"github.com/leadsyncpro/billing/internal/shared/mapper"
)

// PlanRepository stores the plan catalog. Prices are immutable once created.
type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) Create(ctx context.Context, plan *billing.Plan) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(mappers.PlanToModel(plan)).Error; err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

func (r *PlanRepository) CreatePrice(ctx context.Context, price *billing.Price) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(mappers.PriceToModel(price)).Error; err != nil {
		return fmt.Errorf("failed to create plan price: %w", err)
	}
	return nil
}

func (r *PlanRepository) GetByCode(ctx context.Context, code string) (*billing.Plan, error) {
	var model models.PlanModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("code = ?", code).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, billing.NewPlanNotFound(code)
		}
		return nil, fmt.Errorf("failed to get plan by code: %w", err)
	}

	return mappers.PlanToDomain(&model), nil
}

func (r *PlanRepository) GetByID(ctx context.Context, id string) (*billing.Plan, error) {
	var model models.PlanModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, billing.NewPlanNotFound(id)
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return mappers.PlanToDomain(&model), nil
}

func (r *PlanRepository) GetPrice(ctx context.Context, planID string, period vo.BillingPeriod) (*billing.Price, error) {
	var model models.PlanPriceModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("plan_id = ? AND billing_period = ?", planID, string(period)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, billing.NewPriceNotFound(planID, period)
		}
		return nil, fmt.Errorf("failed to get plan price: %w", err)
	}

	return mappers.PriceToDomain(&model)
}

func (r *PlanRepository) GetPriceByID(ctx context.Context, id string) (*billing.Price, error) {
	var model models.PlanPriceModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, billing.NewPriceNotFound(id, "")
		}
		return nil, fmt.Errorf("failed to get plan price: %w", err)
	}

	return mappers.PriceToDomain(&model)
}

func (r *PlanRepository) ListActive(ctx context.Context) ([]*billing.Plan, error) {
	var planModels []*models.PlanModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("active = ?", true).
		Order("LOWER(name) ASC").
		Order("code ASC").
		Find(&planModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list active plans: %w", err)
	}

	return mapper.MapSlice(planModels, mappers.PlanToDomain), nil
}

func (r *PlanRepository) ListPrices(ctx context.Context, planID string) ([]*billing.Price, error) {
	var priceModels []*models.PlanPriceModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("plan_id = ?", planID).
		Order("billing_period ASC").
		Find(&priceModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list plan prices: %w", err)
	}

	return mapper.MapRows(priceModels, mappers.PriceToDomain, func(m *models.PlanPriceModel) string { return m.ID })
}
