package mappers

import (
	"fmt"

	"github.com/leadsyncpro/billing/internal/domain/billing"
	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
	"github.com/leadsyncpro/billing/internal/infrastructure/persistence/models"
	"github.com/leadsyncpro/billing/internal/shared/mapper"
)

type SubscriptionMapper interface {
	// ToEntity needs the subscription's price and allocation history, which
	// live in their own tables.
	ToEntity(model *models.SubscriptionModel, price *billing.Price, allocations []*models.SeatAllocationModel) (*billing.Subscription, error)
	ToModel(entity *billing.Subscription) *models.SubscriptionModel
	AllocationToEntity(model *models.SeatAllocationModel) *billing.SeatAllocation
	AllocationToModel(entity *billing.SeatAllocation) *models.SeatAllocationModel
}

type SubscriptionMapperImpl struct{}

func NewSubscriptionMapper() SubscriptionMapper {
	return &SubscriptionMapperImpl{}
}

func (m *SubscriptionMapperImpl) ToEntity(model *models.SubscriptionModel, price *billing.Price, allocations []*models.SeatAllocationModel) (*billing.Subscription, error) {
	if model == nil {
		return nil, nil
	}

	status := vo.SubscriptionStatus(model.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid subscription status: %s", model.Status)
	}

	externalID := ""
	if model.ExternalSubscriptionID != nil {
		externalID = *model.ExternalSubscriptionID
	}

	entity, err := billing.ReconstructSubscription(billing.SubscriptionReconstructParams{
		ID:                     model.ID,
		CustomerID:             model.CustomerID,
		PlanID:                 model.PlanID,
		Price:                  price,
		Status:                 status,
		StartAt:                model.StartAt,
		CurrentPeriodStart:     model.CurrentPeriodStart,
		CurrentPeriodEnd:       model.CurrentPeriodEnd,
		TrialEndAt:             model.TrialEndAt,
		CancelAtPeriodEnd:      model.CancelAtPeriodEnd,
		ExternalSubscriptionID: externalID,
		SeatAllocations:        mapper.MapSlice(allocations, m.AllocationToEntity),
		CreatedAt:              model.CreatedAt,
		UpdatedAt:              model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct subscription entity: %w", err)
	}

	return entity, nil
}

func (m *SubscriptionMapperImpl) ToModel(entity *billing.Subscription) *models.SubscriptionModel {
	if entity == nil {
		return nil
	}

	// Unlinked subscriptions store NULL so the unique index ignores them.
	var externalID *string
	if id := entity.ExternalSubscriptionID(); id != "" {
		externalID = &id
	}

	priceID := ""
	if entity.Price() != nil {
		priceID = entity.Price().ID
	}

	return &models.SubscriptionModel{
		ID:                     entity.ID(),
		CustomerID:             entity.CustomerID(),
		PlanID:                 entity.PlanID(),
		PriceID:                priceID,
		Status:                 entity.Status().String(),
		StartAt:                entity.StartAt(),
		CurrentPeriodStart:     entity.CurrentPeriodStart(),
		CurrentPeriodEnd:       entity.CurrentPeriodEnd(),
		TrialEndAt:             entity.TrialEndAt(),
		CancelAtPeriodEnd:      entity.CancelAtPeriodEnd(),
		ExternalSubscriptionID: externalID,
		CreatedAt:              entity.CreatedAt(),
		UpdatedAt:              entity.UpdatedAt(),
	}
}

func (m *SubscriptionMapperImpl) AllocationToEntity(model *models.SeatAllocationModel) *billing.SeatAllocation {
	return billing.ReconstructSeatAllocation(model.ID, model.SubscriptionID, model.SeatCount, model.EffectiveFrom, model.CreatedAt)
}

func (m *SubscriptionMapperImpl) AllocationToModel(entity *billing.SeatAllocation) *models.SeatAllocationModel {
	return &models.SeatAllocationModel{
		ID:             entity.ID(),
		SubscriptionID: entity.SubscriptionID(),
		SeatCount:      entity.SeatCount(),
		EffectiveFrom:  entity.EffectiveFrom(),
		CreatedAt:      entity.CreatedAt(),
	}
}
