package invoicing

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/leadsyncpro/billing/internal/domain/billing"
)

// RoundingMode names how fractional minor units are resolved.
type RoundingMode string

const (
	RoundHalfUp   RoundingMode = "HALF_UP"
	RoundHalfEven RoundingMode = "HALF_EVEN"
	RoundDown     RoundingMode = "DOWN"
)

func ParseRoundingMode(s string) (RoundingMode, error) {
	switch m := RoundingMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case "":
		return RoundHalfUp, nil
	case RoundHalfUp, RoundHalfEven, RoundDown:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported rounding mode %q", s)
	}
}

// MoneyRounding rounds exact rationals to whole minor units.
type MoneyRounding struct {
	mode RoundingMode
}

func NewMoneyRounding(mode RoundingMode) *MoneyRounding {
	if mode == "" {
		mode = RoundHalfUp
	}
	return &MoneyRounding{mode: mode}
}

func (r *MoneyRounding) Mode() RoundingMode {
	return r.mode
}

// RoundToMinorUnit rounds a non-negative amount to scale 0.
func (r *MoneyRounding) RoundToMinorUnit(amount *big.Rat) (int64, error) {
	if amount == nil {
		return 0, fmt.Errorf("amount must not be nil")
	}
	if amount.Sign() < 0 {
		return 0, billing.NewAmountOutOfRange("amount must not be negative")
	}

	num := amount.Num()
	den := amount.Denom()
	quo, rem := new(big.Int).QuoRem(num, den, new(big.Int))

	if rem.Sign() != 0 {
		twice := new(big.Int).Lsh(rem, 1)
		switch cmp := twice.Cmp(den); {
		case r.mode == RoundDown:
		case cmp > 0:
			quo.Add(quo, big.NewInt(1))
		case cmp == 0 && r.mode == RoundHalfUp:
			quo.Add(quo, big.NewInt(1))
		case cmp == 0 && r.mode == RoundHalfEven && quo.Bit(0) == 1:
			quo.Add(quo, big.NewInt(1))
		}
	}

	if !quo.IsInt64() {
		return 0, billing.NewAmountOutOfRange(amount.FloatString(2))
	}
	return quo.Int64(), nil
}
