package invoicing

import (
	"time"

	"github.com/leadsyncpro/billing/internal/domain/billing"
)

// ProrationInstruction describes why an invoice is being generated.
// Implementations are None, SeatIncrease and PlanChange.
type ProrationInstruction interface {
	isProrationInstruction()
}

type None struct{}

// SeatIncrease bills added seats for the remainder of the period.
type SeatIncrease struct {
	PreviousSeats      int
	NewSeats           int
	BillingPeriodStart time.Time
	ChangeEffectiveAt  time.Time
}

type PlanChangeType string

const (
	PlanUpgrade   PlanChangeType = "UPGRADE"
	PlanDowngrade PlanChangeType = "DOWNGRADE"
)

// PlanChange bills the price difference on upgrade and nothing on downgrade.
type PlanChange struct {
	PreviousPrice *billing.Price
	Type          PlanChangeType
}

func (None) isProrationInstruction()         {}
func (SeatIncrease) isProrationInstruction() {}
func (PlanChange) isProrationInstruction()   {}

func (s SeatIncrease) delta() int {
	return s.NewSeats - s.PreviousSeats
}
