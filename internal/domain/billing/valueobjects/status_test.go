package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionStatus_CanTransitionTo(t *testing.T) {
	all := []SubscriptionStatus{StatusTrial, StatusActive, StatusPastDue, StatusCanceled}
	legal := map[SubscriptionStatus]map[SubscriptionStatus]bool{
		StatusNone:    {StatusTrial: true, StatusActive: true},
		StatusTrial:   {StatusActive: true},
		StatusActive:  {StatusPastDue: true},
		StatusPastDue: {StatusCanceled: true},
	}

	for _, from := range append([]SubscriptionStatus{StatusNone}, all...) {
		for _, to := range all {
			t.Run(from.String()+"->"+to.String(), func(t *testing.T) {
				assert.Equal(t, legal[from][to], from.CanTransitionTo(to))
			})
		}
	}
}

func TestSubscriptionStatus_RecoveryIsNotAGenericTransition(t *testing.T) {
	assert.False(t, StatusPastDue.CanTransitionTo(StatusActive))
	assert.True(t, StatusCanceled.IsTerminal())
}

func TestProration(t *testing.T) {
	assert.True(t, Proration("").PaymentCollected())
	assert.True(t, ProrationImmediate.PaymentCollected())
	assert.False(t, ProrationNextPeriod.PaymentCollected())
}

func TestParseBillingPeriod(t *testing.T) {
	p, err := ParseBillingPeriod("YEAR")
	assert.NoError(t, err)
	assert.Equal(t, BillingPeriodYear, p)

	_, err = ParseBillingPeriod("WEEK")
	assert.Error(t, err)
}
