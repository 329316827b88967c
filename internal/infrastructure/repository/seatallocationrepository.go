package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/leadsyncpro/billing/internal/domain/billing"
	"github.com/leadsyncpro/billing/internal/infrastructure/persistence/mappers"
	"github.com/leadsyncpro/billing/internal/infrastructure/persistence/models"
	"github.com/leadsyncpro/billing/internal/shared/db"
	"github.com/leadsyncpro/billing/internal/shared/mapper"
)

type SeatAllocationRepository struct {
	db     *gorm.DB
	mapper mappers.SubscriptionMapper
}

func NewSeatAllocationRepository(db *gorm.DB) *SeatAllocationRepository {
	return &SeatAllocationRepository{
		db:     db,
		mapper: mappers.NewSubscriptionMapper(),
	}
}

// FindLatest returns the allocation with the greatest effective_from, or nil
// when the subscription has none.
func (r *SeatAllocationRepository) FindLatest(ctx context.Context, subscriptionID string) (*billing.SeatAllocation, error) {
	var model models.SeatAllocationModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("subscription_id = ?", subscriptionID).
		Order("effective_from DESC, created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest seat allocation: %w", err)
	}

	return r.mapper.AllocationToEntity(&model), nil
}

func (r *SeatAllocationRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*billing.SeatAllocation, error) {
	var allocationModels []*models.SeatAllocationModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("subscription_id = ?", subscriptionID).
		Order("effective_from ASC, created_at ASC").
		Find(&allocationModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list seat allocations: %w", err)
	}

	return mapper.MapSlice(allocationModels, r.mapper.AllocationToEntity), nil
}
