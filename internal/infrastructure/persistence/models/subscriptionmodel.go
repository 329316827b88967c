package models

import (
	"time"

	"github.com/leadsyncpro/billing/internal/shared/constants"
)

// SubscriptionModel represents the database persistence model for subscriptions
// This is the anti-corruption layer between domain and database
type SubscriptionModel struct {
	ID                     string    `gorm:"primaryKey;size:36"`
	CustomerID             string    `gorm:"not null;size:64;index:idx_customer"`
	PlanID                 string    `gorm:"not null;size:36"`
	PriceID                string    `gorm:"not null;size:36"`
	Status                 string    `gorm:"not null;size:20;index:idx_subscriptions_status"`
	StartAt                time.Time `gorm:"not null"`
	CurrentPeriodStart     *time.Time
	CurrentPeriodEnd       *time.Time
	TrialEndAt             *time.Time `gorm:"index:idx_trial_end"`
	CancelAtPeriodEnd      bool       `gorm:"not null;default:false"`
	ExternalSubscriptionID *string    `gorm:"uniqueIndex;size:128"`
	CreatedAt              time.Time
	UpdatedAt              time.Time `gorm:"autoUpdateTime:false"`
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

// SeatAllocationModel is an append-only seat count history row.
type SeatAllocationModel struct {
	ID             string    `gorm:"primaryKey;size:36"`
	SubscriptionID string    `gorm:"not null;size:36;index:idx_subscription_effective,priority:1"`
	SeatCount      int       `gorm:"not null"`
	EffectiveFrom  time.Time `gorm:"not null;index:idx_subscription_effective,priority:2"`
	CreatedAt      time.Time
}

// TableName specifies the table name for GORM
func (SeatAllocationModel) TableName() string {
	return constants.TableSeatAllocations
}
