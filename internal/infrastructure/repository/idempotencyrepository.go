package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leadsyncpro/billing/internal/domain/billing"
	"github.com/leadsyncpro/billing/internal/infrastructure/persistence/mappers"
	"github.com/leadsyncpro/billing/internal/infrastructure/persistence/models"
	"github.com/leadsyncpro/billing/internal/shared/db"
)

type IdempotencyRepository struct {
	db *gorm.DB
}

func NewIdempotencyRepository(db *gorm.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// FindActive ignores entries whose response has expired.
func (r *IdempotencyRepository) FindActive(ctx context.Context, key string, now time.Time) (*billing.IdempotencyEntry, error) {
	var model models.IdempotencyKeyModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("idempotency_key = ? AND (expires_at IS NULL OR expires_at > ?)", key, now.UTC()).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get idempotency entry: %w", err)
	}

	return mappers.IdempotencyEntryToDomain(&model), nil
}

// FindByKey returns the entry regardless of expiry, or nil.
func (r *IdempotencyRepository) FindByKey(ctx context.Context, key string) (*billing.IdempotencyEntry, error) {
	var model models.IdempotencyKeyModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("idempotency_key = ?", key).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get idempotency entry: %w", err)
	}

	return mappers.IdempotencyEntryToDomain(&model), nil
}

// CreateOrGet inserts entry unless its key is taken, then returns whichever
// row holds the key. Concurrent first requests converge on one winner.
func (r *IdempotencyRepository) CreateOrGet(ctx context.Context, entry *billing.IdempotencyEntry) (*billing.IdempotencyEntry, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(mappers.IdempotencyEntryToModel(entry)).Error; err != nil {
		return nil, fmt.Errorf("failed to create idempotency entry: %w", err)
	}

	stored, err := r.FindByKey(ctx, entry.Key())
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("idempotency entry %s vanished after insert: %w", entry.Key(), billing.ErrIdempotencyEntryMissing)
	}
	return stored, nil
}

func (r *IdempotencyRepository) SaveResponse(ctx context.Context, id string, body []byte, status int, expiresAt time.Time) error {
	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.IdempotencyKeyModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"response_body":   body,
			"response_status": status,
			"expires_at":      expiresAt.UTC(),
		}).Error; err != nil {
		return fmt.Errorf("failed to save idempotent response: %w", err)
	}
	return nil
}

// DeleteExpired leaves live entries alone, so a request racing on the same
// key cannot remove an entry another request has just created.
func (r *IdempotencyRepository) DeleteExpired(ctx context.Context, key string, now time.Time) error {
	if err := db.GetTxFromContext(ctx, r.db).
		Where("idempotency_key = ? AND expires_at IS NOT NULL AND expires_at <= ?", key, now.UTC()).
		Delete(&models.IdempotencyKeyModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete expired idempotency entry: %w", err)
	}
	return nil
}

func (r *IdempotencyRepository) Delete(ctx context.Context, id string) error {
	if err := db.GetTxFromContext(ctx, r.db).
		Where("id = ?", id).
		Delete(&models.IdempotencyKeyModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete idempotency entry: %w", err)
	}
	return nil
}
