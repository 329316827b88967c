package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/leadsyncpro/billing/internal/domain/billing"
	"github.com/leadsyncpro/billing/internal/infrastructure/persistence/mappers"
	"github.com/leadsyncpro/billing/internal/infrastructure/persistence/models"
	"github.com/leadsyncpro/billing/internal/shared/constants"
	"github.com/leadsyncpro/billing/internal/shared/db"
	"github.com/leadsyncpro/billing/internal/shared/mapper"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, invoice *billing.Invoice) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(mappers.InvoiceToModel(invoice)).Error; err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) Update(ctx context.Context, invoice *billing.Invoice) error {
	model := mappers.InvoiceToModel(invoice)

	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.InvoiceModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":              model.Status,
			"external_invoice_id": model.ExternalInvoiceID,
			"updated_at":          model.UpdatedAt,
		}).Error; err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*billing.Invoice, error) {
	return r.findOne(ctx, id, "id = ?", id)
}

func (r *InvoiceRepository) GetByExternalID(ctx context.Context, externalID string) (*billing.Invoice, error) {
	return r.findOne(ctx, externalID, "external_invoice_id = ?", externalID)
}

// ListByCustomer returns the invoices of every subscription the customer
// holds, newest period first.
func (r *InvoiceRepository) ListByCustomer(ctx context.Context, customerID string) ([]*billing.Invoice, error) {
	var invoiceModels []*models.InvoiceModel

	if err := db.GetTxFromContext(ctx, r.db).
		Select(constants.TableInvoices + ".*").
		Joins(fmt.Sprintf("JOIN %s s ON s.id = %s.subscription_id", constants.TableSubscriptions, constants.TableInvoices)).
		Where("s.customer_id = ?", customerID).
		Order(constants.TableInvoices + ".period_start DESC").
		Find(&invoiceModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list invoices by customer: %w", err)
	}

	return mapper.MapRows(invoiceModels, mappers.InvoiceToDomain, func(m *models.InvoiceModel) string { return m.ID })
}

func (r *InvoiceRepository) findOne(ctx context.Context, ref, query string, args ...interface{}) (*billing.Invoice, error) {
	var model models.InvoiceModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where(query, args...).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, billing.NewInvoiceNotFound(ref)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	return mappers.InvoiceToDomain(&model)
}
