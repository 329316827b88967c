package valueobjects

import "fmt"

type BillingPeriod string

const (
	BillingPeriodMonth BillingPeriod = "MONTH"
	BillingPeriodYear  BillingPeriod = "YEAR"
)

func ParseBillingPeriod(s string) (BillingPeriod, error) {
	switch p := BillingPeriod(s); p {
	case BillingPeriodMonth, BillingPeriodYear:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported billing period %q", s)
	}
}

// Proration selects how a mid-period change is billed.
type Proration string

const (
	// ProrationImmediate charges the difference now.
	ProrationImmediate Proration = "IMMEDIATE"
	// ProrationNextPeriod defers the charge to the next invoice.
	ProrationNextPeriod Proration = "NEXT_PERIOD"
)

// ProrationOrDefault returns p, or IMMEDIATE when p is empty.
func ProrationOrDefault(p Proration) Proration {
	if p == "" {
		return ProrationImmediate
	}
	return p
}

// PaymentCollected reports whether the change is paid at the time it is made.
func (p Proration) PaymentCollected() bool {
	return ProrationOrDefault(p) == ProrationImmediate
}
