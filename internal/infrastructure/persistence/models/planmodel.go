package models

import (
	"time"

	"github.com/leadsyncpro/billing/internal/shared/constants"
)

// PlanModel represents the database persistence model for billing plans
type PlanModel struct {
	ID          string `gorm:"primaryKey;size:36"`
	Code        string `gorm:"uniqueIndex;not null;size:64"`
	Name        string `gorm:"not null;size:128"`
	Description string `gorm:"size:500"`
	Active      bool   `gorm:"not null"`
	CreatedAt   time.Time
}

// TableName specifies the table name for GORM
func (PlanModel) TableName() string {
	return constants.TablePlans
}
