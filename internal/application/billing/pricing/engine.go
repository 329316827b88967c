// Package pricing computes invoice amounts in minor currency units.
package pricing

import (
	"fmt"
	"math"

	"github.com/leadsyncpro/billing/internal/domain/billing"
	apperrors "github.com/leadsyncpro/billing/internal/shared/errors"
)

// Engine is stateless and safe for concurrent use.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// ComputeAmount returns base + perSeat*seatCount in cents. Missing amounts
// count as zero.
func (e *Engine) ComputeAmount(price *billing.Price, seatCount int) (int64, error) {
	if price == nil {
		return 0, apperrors.NewValidationError("price is required")
	}
	if seatCount < 0 {
		return 0, apperrors.NewValidationError("seat count must not be negative")
	}

	base := valueOrZero(price.BaseAmountCents)
	perSeat := valueOrZero(price.PerSeatAmountCents)
	if base < 0 || perSeat < 0 {
		return 0, billing.NewAmountOutOfRange("price amounts must not be negative")
	}

	seatTotal, err := MultiplyCents(perSeat, int64(seatCount))
	if err != nil {
		return 0, err
	}
	return AddCents(base, seatTotal)
}

// MultiplyCents multiplies two non-negative operands and rejects overflow.
func MultiplyCents(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a < 0 || b < 0 || a > math.MaxInt64/b {
		return 0, billing.NewAmountOutOfRange(fmt.Sprintf("%d x %d", a, b))
	}
	return a * b, nil
}

// AddCents adds two non-negative operands and rejects overflow.
func AddCents(a, b int64) (int64, error) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, billing.NewAmountOutOfRange(fmt.Sprintf("%d + %d", a, b))
	}
	return a + b, nil
}

func valueOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
