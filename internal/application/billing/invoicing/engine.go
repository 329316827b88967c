// Package invoicing turns a price, a seat count and a billing window into
// the amount to charge. Period, proration and tax steps are replaceable hooks.
package invoicing

import (
	"fmt"
	"math/big"
	"time"

	"github.com/leadsyncpro/billing/internal/application/billing/pricing"
	"github.com/leadsyncpro/billing/internal/domain/billing"
	"github.com/leadsyncpro/billing/internal/shared/biztime"
	apperrors "github.com/leadsyncpro/billing/internal/shared/errors"
)

// InvoiceContext is the result of invoice generation.
type InvoiceContext struct {
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	AmountCents int64     `json:"amountCents"`
}

type (
	PeriodHook    func(t time.Time) time.Time
	ProrationHook func(amountCents int64, start, end time.Time, instruction ProrationInstruction) (int64, error)
	TaxHook       func(amountCents int64) (int64, error)
)

type Option func(*Engine)

func WithPeriodStartHook(h PeriodHook) Option {
	return func(e *Engine) { e.periodStart = h }
}

func WithPeriodEndHook(h PeriodHook) Option {
	return func(e *Engine) { e.periodEnd = h }
}

func WithProrationHook(h ProrationHook) Option {
	return func(e *Engine) { e.proration = h }
}

func WithTaxHook(h TaxHook) Option {
	return func(e *Engine) { e.tax = h }
}

func WithRounding(r *MoneyRounding) Option {
	return func(e *Engine) { e.rounding = r }
}

type Engine struct {
	pricing     *pricing.Engine
	rounding    *MoneyRounding
	periodStart PeriodHook
	periodEnd   PeriodHook
	proration   ProrationHook
	tax         TaxHook
}

func NewEngine(pricingEngine *pricing.Engine, opts ...Option) *Engine {
	e := &Engine{
		pricing:     pricingEngine,
		rounding:    NewMoneyRounding(RoundHalfUp),
		periodStart: identityTime,
		periodEnd:   identityTime,
		tax:         func(amount int64) (int64, error) { return amount, nil },
	}
	e.proration = e.defaultProration
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GenerateInvoiceContext bills a full period with no proration.
func (e *Engine) GenerateInvoiceContext(price *billing.Price, seatCount int, start, end time.Time) (InvoiceContext, error) {
	return e.GenerateInvoiceContextWithProration(price, seatCount, start, end, None{})
}

// GenerateInvoiceContextWithProration panics if a hook produces a negative
// final amount.
func (e *Engine) GenerateInvoiceContextWithProration(price *billing.Price, seatCount int, start, end time.Time, instruction ProrationInstruction) (InvoiceContext, error) {
	if price == nil {
		return InvoiceContext{}, apperrors.NewValidationError("price is required")
	}
	if instruction == nil {
		instruction = None{}
	}

	start = e.periodStart(start)
	end = e.periodEnd(end)
	if !end.After(start) {
		return InvoiceContext{}, billing.NewInvalidPeriod()
	}

	amount, err := e.baseAmount(price, seatCount, instruction)
	if err != nil {
		return InvoiceContext{}, err
	}

	amount, err = e.proration(amount, start, end, instruction)
	if err != nil {
		return InvoiceContext{}, err
	}

	amount, err = e.tax(amount)
	if err != nil {
		return InvoiceContext{}, err
	}

	if amount < 0 {
		panic(fmt.Sprintf("invoicing: negative final amount %d", amount))
	}

	return InvoiceContext{PeriodStart: start, PeriodEnd: end, AmountCents: amount}, nil
}

func (e *Engine) baseAmount(price *billing.Price, seatCount int, instruction ProrationInstruction) (int64, error) {
	switch in := instruction.(type) {
	case SeatIncrease:
		if in.PreviousSeats < 0 || in.NewSeats < 0 {
			return 0, apperrors.NewValidationError("seat counts must not be negative")
		}
		delta := in.delta()
		if delta <= 0 {
			return 0, nil
		}
		perSeat := int64(0)
		if price.PerSeatAmountCents != nil {
			perSeat = *price.PerSeatAmountCents
		}
		if perSeat < 0 {
			return 0, billing.NewAmountOutOfRange("per-seat amount must not be negative")
		}
		return pricing.MultiplyCents(perSeat, int64(delta))

	case PlanChange:
		if in.PreviousPrice == nil {
			return 0, apperrors.NewValidationError("previous price is required for a plan change")
		}
		if in.Type == PlanDowngrade {
			return 0, nil
		}
		previous, err := e.pricing.ComputeAmount(in.PreviousPrice, seatCount)
		if err != nil {
			return 0, err
		}
		current, err := e.pricing.ComputeAmount(price, seatCount)
		if err != nil {
			return 0, err
		}
		return max(current-previous, 0), nil

	default:
		return e.pricing.ComputeAmount(price, seatCount)
	}
}

func (e *Engine) defaultProration(amount int64, _, end time.Time, instruction ProrationInstruction) (int64, error) {
	switch in := instruction.(type) {
	case SeatIncrease:
		return e.prorateSeatIncrease(amount, end, in)
	case PlanChange:
		if in.Type == PlanUpgrade {
			return amount, nil
		}
		return 0, nil
	default:
		return amount, nil
	}
}

func (e *Engine) prorateSeatIncrease(amount int64, end time.Time, in SeatIncrease) (int64, error) {
	if amount <= 0 {
		return 0, nil
	}
	if !end.After(in.ChangeEffectiveAt) {
		return 0, nil
	}

	totalDays := biztime.WholeDaysBetween(in.BillingPeriodStart, end)
	if totalDays <= 0 {
		return 0, apperrors.NewValidationError("billing period must span at least one day for proration")
	}
	remainingDays := biztime.WholeDaysBetween(in.ChangeEffectiveAt, end)
	if remainingDays <= 0 {
		return 0, nil
	}

	prorated := new(big.Rat).SetFrac(
		new(big.Int).Mul(big.NewInt(amount), big.NewInt(remainingDays)),
		big.NewInt(totalDays),
	)
	return e.rounding.RoundToMinorUnit(prorated)
}

func identityTime(t time.Time) time.Time {
	return t
}
