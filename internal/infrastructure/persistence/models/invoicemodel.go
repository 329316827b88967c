package models

import (
	"time"

	"github.com/leadsyncpro/billing/internal/shared/constants"
)

// InvoiceModel represents the database persistence model for invoices
type InvoiceModel struct {
	ID                string    `gorm:"primaryKey;size:36"`
	SubscriptionID    string    `gorm:"not null;size:36;index:idx_subscription"`
	ExternalInvoiceID *string   `gorm:"uniqueIndex;size:128"`
	PeriodStart       time.Time `gorm:"not null"`
	PeriodEnd         time.Time `gorm:"not null"`
	AmountCents       int64     `gorm:"not null"`
	Currency          string    `gorm:"not null;size:3"`
	Status            string    `gorm:"not null;size:20"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName specifies the table name for GORM
func (InvoiceModel) TableName() string {
	return constants.TableInvoices
}
