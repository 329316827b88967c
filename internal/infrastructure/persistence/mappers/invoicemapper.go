package mappers

import (
	"fmt"

	"github.com/leadsyncpro/billing/internal/domain/billing"
	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
	"github.com/leadsyncpro/billing/internal/infrastructure/persistence/models"
)

func InvoiceToModel(i *billing.Invoice) *models.InvoiceModel {
	return &models.InvoiceModel{
		ID:                i.ID(),
		SubscriptionID:    i.SubscriptionID(),
		ExternalInvoiceID: i.ExternalInvoiceID(),
		PeriodStart:       i.PeriodStart(),
		PeriodEnd:         i.PeriodEnd(),
		AmountCents:       i.AmountCents(),
		Currency:          i.Currency(),
		Status:            string(i.Status()),
		CreatedAt:         i.CreatedAt(),
		UpdatedAt:         i.UpdatedAt(),
	}
}

func InvoiceToDomain(model *models.InvoiceModel) (*billing.Invoice, error) {
	status := vo.InvoiceStatus(model.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid invoice status: %s", model.Status)
	}

	return billing.ReconstructInvoice(
		model.ID,
		model.SubscriptionID,
		model.ExternalInvoiceID,
		model.PeriodStart,
		model.PeriodEnd,
		model.AmountCents,
		model.Currency,
		status,
		model.CreatedAt,
		model.UpdatedAt,
	), nil
}
