package billing

import (
	"fmt"
	"time"

	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
)

// Invoice records one billed period. After creation only the status moves.
type Invoice struct {
	id                string
	subscriptionID    string
	externalInvoiceID *string
	periodStart       time.Time
	periodEnd         time.Time
	amountCents       int64
	currency          string
	status            vo.InvoiceStatus
	createdAt         time.Time
	updatedAt         time.Time
}

func NewInvoice(id, subscriptionID string, externalInvoiceID *string, periodStart, periodEnd time.Time, amountCents int64, currency string, status vo.InvoiceStatus, now time.Time) (*Invoice, error) {
	if subscriptionID == "" {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if !periodEnd.After(periodStart) {
		return nil, NewInvalidPeriod()
	}
	if amountCents < 0 {
		return nil, NewAmountOutOfRange("invoice amount must not be negative")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid invoice status: %s", status)
	}
	if externalInvoiceID != nil && *externalInvoiceID == "" {
		externalInvoiceID = nil
	}

	return &Invoice{
		id:                id,
		subscriptionID:    subscriptionID,
		externalInvoiceID: externalInvoiceID,
		periodStart:       periodStart,
		periodEnd:         periodEnd,
		amountCents:       amountCents,
		currency:          currency,
		status:            status,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// ReconstructInvoice rebuilds an invoice from persistence.
func ReconstructInvoice(id, subscriptionID string, externalInvoiceID *string, periodStart, periodEnd time.Time, amountCents int64, currency string, status vo.InvoiceStatus, createdAt, updatedAt time.Time) *Invoice {
	return &Invoice{
		id:                id,
		subscriptionID:    subscriptionID,
		externalInvoiceID: externalInvoiceID,
		periodStart:       periodStart,
		periodEnd:         periodEnd,
		amountCents:       amountCents,
		currency:          currency,
		status:            status,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

func (i *Invoice) ID() string                 { return i.id }
func (i *Invoice) SubscriptionID() string     { return i.subscriptionID }
func (i *Invoice) ExternalInvoiceID() *string { return i.externalInvoiceID }
func (i *Invoice) PeriodStart() time.Time     { return i.periodStart }
func (i *Invoice) PeriodEnd() time.Time       { return i.periodEnd }
func (i *Invoice) AmountCents() int64         { return i.amountCents }
func (i *Invoice) Currency() string           { return i.currency }
func (i *Invoice) Status() vo.InvoiceStatus   { return i.status }
func (i *Invoice) CreatedAt() time.Time       { return i.createdAt }
func (i *Invoice) UpdatedAt() time.Time       { return i.updatedAt }

// MarkPaid is idempotent.
func (i *Invoice) MarkPaid(now time.Time) {
	i.setStatus(vo.InvoiceStatusPaid, now)
}

// MarkOpen reopens an invoice after a failed collection so it can be retried.
func (i *Invoice) MarkOpen(now time.Time) {
	i.setStatus(vo.InvoiceStatusOpen, now)
}

func (i *Invoice) MarkFailed(now time.Time) {
	i.setStatus(vo.InvoiceStatusFailed, now)
}

func (i *Invoice) setStatus(status vo.InvoiceStatus, now time.Time) {
	if i.status == status {
		return
	}
	i.status = status
	i.updatedAt = now
}
