package billing

import (
	"errors"
	"fmt"

	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
	apperrors "github.com/leadsyncpro/billing/internal/shared/errors"
)

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrSubscriptionCanceled    = errors.New("subscription is already canceled")
	ErrTrialNotElapsed         = errors.New("trial has not elapsed")
	ErrInvalidSeatCount        = errors.New("seat count must be greater than zero")
	ErrAmountOutOfRange        = errors.New("amount outside supported range")
	ErrInvalidPeriod           = errors.New("billing period end must be after the start")
	ErrSubscriptionNotFound    = errors.New("subscription not found")
	ErrInvoiceNotFound         = errors.New("invoice not found")
	ErrPlanNotFound            = errors.New("plan not found")
	ErrPriceNotFound           = errors.New("price not found")
	ErrWebhookEventNotFound    = errors.New("webhook event not found")
	ErrIdempotencyEntryMissing = errors.New("idempotency entry not found")
	ErrPlanExists              = errors.New("plan already exists")
	ErrDuplicatePricePeriod    = errors.New("only one price per billing period is allowed")
)

// ErrInvalidTransition reports an illegal lifecycle move as a state conflict.
func ErrInvalidTransition(from, to vo.SubscriptionStatus) error {
	return apperrors.NewConflictError(
		fmt.Sprintf("cannot transition subscription from %s to %s", from, to),
	).WithCause(ErrInvalidStatusTransition)
}

func conflict(cause error, details ...string) error {
	return apperrors.NewConflictError(cause.Error(), details...).WithCause(cause)
}

func invalid(cause error, details ...string) error {
	return apperrors.NewValidationError(cause.Error(), details...).WithCause(cause)
}

func notFound(cause error, details ...string) error {
	return apperrors.NewNotFoundError(cause.Error(), details...).WithCause(cause)
}

// NewSubscriptionNotFound is returned by repositories and use cases.
func NewSubscriptionNotFound(id string) error {
	return notFound(ErrSubscriptionNotFound, id)
}

func NewInvoiceNotFound(ref string) error {
	return notFound(ErrInvoiceNotFound, ref)
}

func NewPlanNotFound(code string) error {
	return notFound(ErrPlanNotFound, code)
}

func NewPlanExists(code string) error {
	return conflict(ErrPlanExists, code)
}

func NewDuplicatePricePeriod(period vo.BillingPeriod) error {
	return invalid(ErrDuplicatePricePeriod, string(period))
}

func NewPriceNotFound(planCode string, period vo.BillingPeriod) error {
	return notFound(ErrPriceNotFound, fmt.Sprintf("plan %s, billing period %s", planCode, period))
}

func NewWebhookEventNotFound(id string) error {
	return notFound(ErrWebhookEventNotFound, id)
}

// NewAmountOutOfRange is the pricing overflow / negative operand error.
func NewAmountOutOfRange(details string) error {
	return invalid(ErrAmountOutOfRange, details)
}

func NewInvalidPeriod() error {
	return invalid(ErrInvalidPeriod)
}
