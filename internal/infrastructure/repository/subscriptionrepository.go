package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/leadsyncpro/billing/internal/domain/billing"
	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
	"github.com/leadsyncpro/billing/internal/infrastructure/persistence/mappers"
	"github.com/leadsyncpro/billing/internal/infrastructure/persistence/models"
	"github.com/leadsyncpro/billing/internal/shared/biztime"
	"github.com/leadsyncpro/billing/internal/shared/db"
)

// SubscriptionRepository persists subscriptions together with their seat
// allocation history.
type SubscriptionRepository struct {
	db     *gorm.DB
	mapper mappers.SubscriptionMapper
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{
		db:     db,
		mapper: mappers.NewSubscriptionMapper(),
	}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *billing.Subscription) error {
	model := r.mapper.ToModel(sub)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return r.savePendingAllocations(ctx, sub)
}

// Update writes every mutable column and stamps updated_at with the current
// time. Days past due are counted from that stamp.
func (r *SubscriptionRepository) Update(ctx context.Context, sub *billing.Subscription) error {
	sub.SetUpdatedAt(biztime.NowUTC())
	model := r.mapper.ToModel(sub)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.SubscriptionModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"plan_id":                  model.PlanID,
			"price_id":                 model.PriceID,
			"status":                   model.Status,
			"current_period_start":     model.CurrentPeriodStart,
			"current_period_end":       model.CurrentPeriodEnd,
			"trial_end_at":             model.TrialEndAt,
			"cancel_at_period_end":     model.CancelAtPeriodEnd,
			"external_subscription_id": model.ExternalSubscriptionID,
			"updated_at":               model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}
	// RowsAffected may be 0 when the stored values are identical.

	return r.savePendingAllocations(ctx, sub)
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id string) (*billing.Subscription, error) {
	return r.findOne(ctx, id, false, "id = ?", id)
}

func (r *SubscriptionRepository) GetByIDForUpdate(ctx context.Context, id string) (*billing.Subscription, error) {
	return r.findOne(ctx, id, true, "id = ?", id)
}

func (r *SubscriptionRepository) GetByExternalID(ctx context.Context, externalID string) (*billing.Subscription, error) {
	return r.findOne(ctx, externalID, false, "external_subscription_id = ?", externalID)
}

func (r *SubscriptionRepository) GetByExternalIDForUpdate(ctx context.Context, externalID string) (*billing.Subscription, error) {
	return r.findOne(ctx, externalID, true, "external_subscription_id = ?", externalID)
}

func (r *SubscriptionRepository) ListByCustomer(ctx context.Context, customerID string) ([]*billing.Subscription, error) {
	var subscriptionModels []*models.SubscriptionModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&subscriptionModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions by customer: %w", err)
	}

	subs := make([]*billing.Subscription, 0, len(subscriptionModels))
	for _, model := range subscriptionModels {
		sub, err := r.hydrate(ctx, model)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (r *SubscriptionRepository) ListIDsByStatus(ctx context.Context, status vo.SubscriptionStatus) ([]string, error) {
	var ids []string

	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.SubscriptionModel{}).
		Where("status = ?", status.String()).
		Order("updated_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions by status: %w", err)
	}
	return ids, nil
}

func (r *SubscriptionRepository) ListTrialIDsEndedBy(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string

	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.SubscriptionModel{}).
		Where("status = ? AND trial_end_at IS NOT NULL AND trial_end_at <= ?", vo.StatusTrial.String(), cutoff.UTC()).
		Order("trial_end_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list elapsed trials: %w", err)
	}
	return ids, nil
}

func (r *SubscriptionRepository) findOne(ctx context.Context, ref string, lock bool, query string, args ...interface{}) (*billing.Subscription, error) {
	var model models.SubscriptionModel

	tx := db.GetTxFromContext(ctx, r.db)
	if lock {
		tx = tx.Scopes(db.ForUpdate(ctx))
	}
	if err := tx.Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, billing.NewSubscriptionNotFound(ref)
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return r.hydrate(ctx, &model)
}

// hydrate loads the price and allocation history of a subscription row.
func (r *SubscriptionRepository) hydrate(ctx context.Context, model *models.SubscriptionModel) (*billing.Subscription, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var priceModel models.PlanPriceModel
	if err := tx.Where("id = ?", model.PriceID).First(&priceModel).Error; err != nil {
		return nil, fmt.Errorf("failed to load price %s of subscription %s: %w", model.PriceID, model.ID, err)
	}
	price, err := mappers.PriceToDomain(&priceModel)
	if err != nil {
		return nil, err
	}

	var allocations []*models.SeatAllocationModel
	if err := tx.Where("subscription_id = ?", model.ID).
		Order("effective_from ASC, created_at ASC").
		Find(&allocations).Error; err != nil {
		return nil, fmt.Errorf("failed to load seat allocations: %w", err)
	}

	return r.mapper.ToEntity(model, price, allocations)
}

func (r *SubscriptionRepository) savePendingAllocations(ctx context.Context, sub *billing.Subscription) error {
	pending := sub.PendingSeatAllocations()
	if len(pending) == 0 {
		return nil
	}

	rows := make([]*models.SeatAllocationModel, 0, len(pending))
	for _, a := range pending {
		rows = append(rows, r.mapper.AllocationToModel(a))
	}
	if err := db.GetTxFromContext(ctx, r.db).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to create seat allocations: %w", err)
	}

	sub.MarkAllocationsPersisted()
	return nil
}
