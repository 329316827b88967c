package billing

import (
	"time"

	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
)

// Plan is a catalog entry addressed by its code.
type Plan struct {
	ID          string
	Code        string
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
}

// Price is an immutable price point of a plan for one billing period.
// Nil amounts are treated as zero by the pricing engine.
type Price struct {
	ID                 string
	PlanID             string
	BillingPeriod      vo.BillingPeriod
	BaseAmountCents    *int64
	PerSeatAmountCents *int64
	Currency           string
	SeatLimit          *int
	TrialDays          *int
}

// TrialDaysOrZero returns the configured trial length.
func (p *Price) TrialDaysOrZero() int {
	if p == nil || p.TrialDays == nil {
		return 0
	}
	return *p.TrialDays
}

// Cents is a small helper for building prices.
func Cents(v int64) *int64 {
	return &v
}
