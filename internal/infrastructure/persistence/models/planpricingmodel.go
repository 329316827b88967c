package models

import (
	"github.com/leadsyncpro/billing/internal/shared/constants"
)

// PlanPriceModel stores one price per plan and billing period. Amounts are
// minor currency units.
type PlanPriceModel struct {
	ID                 string `gorm:"primaryKey;size:36"`
	PlanID             string `gorm:"not null;size:36;uniqueIndex:uk_plan_period,priority:1"`
	BillingPeriod      string `gorm:"not null;size:10;uniqueIndex:uk_plan_period,priority:2"`
	BaseAmountCents    *int64
	PerSeatAmountCents *int64
	Currency           string `gorm:"not null;size:3"`
	SeatLimit          *int
	TrialDays          *int
}

// TableName specifies the table name for GORM
func (PlanPriceModel) TableName() string {
	return constants.TablePlanPrices
}
