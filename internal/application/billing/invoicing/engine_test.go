package invoicing

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadsyncpro/billing/internal/application/billing/pricing"
	"github.com/leadsyncpro/billing/internal/domain/billing"
	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
	apperrors "github.com/leadsyncpro/billing/internal/shared/errors"
)

const day = 24 * time.Hour

var periodStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func seatPrice(base, perSeat int64) *billing.Price {
	return &billing.Price{
		ID:                 "price-1",
		BillingPeriod:      vo.BillingPeriodMonth,
		BaseAmountCents:    billing.Cents(base),
		PerSeatAmountCents: billing.Cents(perSeat),
		Currency:           "TRY",
	}
}

func newEngine(opts ...Option) *Engine {
	return NewEngine(pricing.NewEngine(), opts...)
}

func TestEngine_GenerateInvoiceContext(t *testing.T) {
	e := newEngine()
	end := periodStart.Add(30 * day)

	ctx, err := e.GenerateInvoiceContext(seatPrice(1000, 500), 3, periodStart, end)
	require.NoError(t, err)

	assert.Equal(t, periodStart, ctx.PeriodStart)
	assert.Equal(t, end, ctx.PeriodEnd)
	assert.Equal(t, int64(2500), ctx.AmountCents)
}

func TestEngine_GenerateInvoiceContext_InvalidPeriod(t *testing.T) {
	e := newEngine()

	for name, end := range map[string]time.Time{
		"equal":  periodStart,
		"before": periodStart.Add(-time.Hour),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := e.GenerateInvoiceContext(seatPrice(1000, 0), 1, periodStart, end)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidationError(err))
			assert.True(t, errors.Is(err, billing.ErrInvalidPeriod))
		})
	}
}

func TestEngine_GenerateInvoiceContext_NilPrice(t *testing.T) {
	_, err := newEngine().GenerateInvoiceContext(nil, 1, periodStart, periodStart.Add(day))
	assert.True(t, apperrors.IsValidationError(err))
}

func TestEngine_Hooks(t *testing.T) {
	var calls []string
	e := newEngine(
		WithPeriodStartHook(func(t time.Time) time.Time {
			calls = append(calls, "start")
			return t.Truncate(day)
		}),
		WithPeriodEndHook(func(t time.Time) time.Time {
			calls = append(calls, "end")
			return t.Truncate(day)
		}),
		WithProrationHook(func(amount int64, _, _ time.Time, _ ProrationInstruction) (int64, error) {
			calls = append(calls, "proration")
			return amount / 2, nil
		}),
		WithTaxHook(func(amount int64) (int64, error) {
			calls = append(calls, "tax")
			return amount + amount/5, nil
		}),
	)

	ctx, err := e.GenerateInvoiceContext(seatPrice(1000, 0), 1, periodStart.Add(3*time.Hour), periodStart.Add(2*day+time.Hour))
	require.NoError(t, err)

	assert.Equal(t, []string{"start", "end", "proration", "tax"}, calls)
	assert.Equal(t, periodStart, ctx.PeriodStart)
	assert.Equal(t, periodStart.Add(2*day), ctx.PeriodEnd)
	assert.Equal(t, int64(600), ctx.AmountCents)
}

func TestEngine_NormalizedPeriodIsValidated(t *testing.T) {
	e := newEngine(WithPeriodEndHook(func(time.Time) time.Time { return periodStart }))

	_, err := e.GenerateInvoiceContext(seatPrice(100, 0), 1, periodStart, periodStart.Add(day))
	assert.True(t, errors.Is(err, billing.ErrInvalidPeriod))
}

func TestEngine_NegativeFinalAmountPanics(t *testing.T) {
	e := newEngine(WithTaxHook(func(int64) (int64, error) { return -1, nil }))

	assert.Panics(t, func() {
		_, _ = e.GenerateInvoiceContext(seatPrice(100, 0), 1, periodStart, periodStart.Add(day))
	})
}

func TestEngine_HookErrorIsReturned(t *testing.T) {
	boom := errors.New("tax service down")
	e := newEngine(WithTaxHook(func(int64) (int64, error) { return 0, boom }))

	_, err := e.GenerateInvoiceContext(seatPrice(100, 0), 1, periodStart, periodStart.Add(day))
	assert.ErrorIs(t, err, boom)
}

func TestEngine_SeatIncreaseProration(t *testing.T) {
	end := periodStart.Add(30 * day)

	tests := []struct {
		name        string
		instruction SeatIncrease
		perSeat     int64
		want        int64
	}{
		{
			name: "remaining share of added seats",
			instruction: SeatIncrease{
				PreviousSeats:      10,
				NewSeats:           14,
				BillingPeriodStart: periodStart,
				ChangeEffectiveAt:  periodStart.Add(12 * day),
			},
			perSeat: 1500,
			want:    3600,
		},
		{
			name: "seat decrease bills nothing",
			instruction: SeatIncrease{
				PreviousSeats:      5,
				NewSeats:           3,
				BillingPeriodStart: periodStart,
				ChangeEffectiveAt:  periodStart.Add(day),
			},
			perSeat: 1500,
			want:    0,
		},
		{
			name: "change at period end bills nothing",
			instruction: SeatIncrease{
				PreviousSeats:      1,
				NewSeats:           2,
				BillingPeriodStart: periodStart,
				ChangeEffectiveAt:  end,
			},
			perSeat: 1500,
			want:    0,
		},
		{
			name: "change at period start bills the full delta",
			instruction: SeatIncrease{
				PreviousSeats:      1,
				NewSeats:           3,
				BillingPeriodStart: periodStart,
				ChangeEffectiveAt:  periodStart,
			},
			perSeat: 700,
			want:    1400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine()
			ctx, err := e.GenerateInvoiceContextWithProration(seatPrice(0, tt.perSeat), tt.instruction.NewSeats, periodStart, end, tt.instruction)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ctx.AmountCents)
		})
	}
}

func TestEngine_SeatIncreaseRounding(t *testing.T) {
	// 100 * 1 / 8 = 12.5
	end := periodStart.Add(8 * day)
	instruction := SeatIncrease{
		PreviousSeats:      1,
		NewSeats:           2,
		BillingPeriodStart: periodStart,
		ChangeEffectiveAt:  periodStart.Add(7 * day),
	}

	tests := []struct {
		mode RoundingMode
		want int64
	}{
		{mode: RoundHalfUp, want: 13},
		{mode: RoundHalfEven, want: 12},
		{mode: RoundDown, want: 12},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			e := newEngine(WithRounding(NewMoneyRounding(tt.mode)))
			ctx, err := e.GenerateInvoiceContextWithProration(seatPrice(0, 100), 2, periodStart, end, instruction)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ctx.AmountCents)
		})
	}
}

func TestEngine_SeatIncreaseShortPeriod(t *testing.T) {
	e := newEngine()
	instruction := SeatIncrease{
		PreviousSeats:      1,
		NewSeats:           2,
		BillingPeriodStart: periodStart,
		ChangeEffectiveAt:  periodStart,
	}

	_, err := e.GenerateInvoiceContextWithProration(seatPrice(0, 100), 2, periodStart, periodStart.Add(12*time.Hour), instruction)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestEngine_PlanChangeProration(t *testing.T) {
	end := periodStart.Add(30 * day)
	previous := seatPrice(1000, 100)
	next := seatPrice(3000, 200)

	tests := []struct {
		name        string
		price       *billing.Price
		instruction PlanChange
		want        int64
	}{
		{name: "upgrade bills the difference", price: next, instruction: PlanChange{PreviousPrice: previous, Type: PlanUpgrade}, want: 2200},
		{name: "downgrade bills nothing", price: previous, instruction: PlanChange{PreviousPrice: next, Type: PlanDowngrade}, want: 0},
		{name: "cheaper upgrade is clamped", price: previous, instruction: PlanChange{PreviousPrice: next, Type: PlanUpgrade}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, err := newEngine().GenerateInvoiceContextWithProration(tt.price, 2, periodStart, end, tt.instruction)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ctx.AmountCents)
		})
	}
}

func TestMoneyRounding_RoundToMinorUnit(t *testing.T) {
	r := NewMoneyRounding(RoundHalfUp)

	got, err := r.RoundToMinorUnit(big.NewRat(5, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)

	got, err = r.RoundToMinorUnit(big.NewRat(7, 3))
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)

	_, err = r.RoundToMinorUnit(big.NewRat(-1, 2))
	assert.Error(t, err)

	_, err = r.RoundToMinorUnit(nil)
	assert.Error(t, err)
}

func TestParseRoundingMode(t *testing.T) {
	m, err := ParseRoundingMode("half_even")
	require.NoError(t, err)
	assert.Equal(t, RoundHalfEven, m)

	m, err = ParseRoundingMode("")
	require.NoError(t, err)
	assert.Equal(t, RoundHalfUp, m)

	_, err = ParseRoundingMode("CEILING")
	assert.Error(t, err)
}
