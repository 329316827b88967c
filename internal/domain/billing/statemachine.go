package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
	apperrors "github.com/leadsyncpro/billing/internal/shared/errors"
)

// TransitionObserver is notified after every status change.
type TransitionObserver interface {
	ObserveTransition(from, to vo.SubscriptionStatus)
}

// SeatAllocationFinder loads the latest persisted allocation. It backs
// CurrentSeatCount when a subscription was loaded without its allocations.
type SeatAllocationFinder interface {
	FindLatest(ctx context.Context, subscriptionID string) (*SeatAllocation, error)
}

type noopObserver struct{}

func (noopObserver) ObserveTransition(vo.SubscriptionStatus, vo.SubscriptionStatus) {}

// StateMachine owns every mutation of Subscription and its seat allocations.
type StateMachine struct {
	seats    SeatAllocationFinder
	observer TransitionObserver
	newID    func() string
	now      func() time.Time
}

type StateMachineOption func(*StateMachine)

// WithTransitionObserver reports status changes, e.g. to metrics.
func WithTransitionObserver(o TransitionObserver) StateMachineOption {
	return func(m *StateMachine) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(fn func() string) StateMachineOption {
	return func(m *StateMachine) { m.newID = fn }
}

// WithClock overrides the clock used for record timestamps.
func WithClock(fn func() time.Time) StateMachineOption {
	return func(m *StateMachine) { m.now = fn }
}

func NewStateMachine(seats SeatAllocationFinder, opts ...StateMachineOption) *StateMachine {
	m := &StateMachine{
		seats:    seats,
		observer: noopObserver{},
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a subscription. It begins in TRIAL when trialDays > 0,
// otherwise ACTIVE, and receives one seat allocation effective at startAt.
func (m *StateMachine) Create(customerID string, plan *Plan, price *Price, seatCount int, startAt time.Time, trialDays int) (*Subscription, error) {
	if customerID == "" {
		return nil, apperrors.NewValidationError("customer is required")
	}
	if plan == nil || price == nil {
		return nil, apperrors.NewValidationError("plan and price are required")
	}
	if seatCount <= 0 {
		return nil, invalid(ErrInvalidSeatCount)
	}
	if trialDays < 0 {
		return nil, apperrors.NewValidationError("trial days must not be negative")
	}
	if startAt.IsZero() {
		return nil, apperrors.NewValidationError("start time is required")
	}

	now := m.now()
	sub := &Subscription{
		id:                 m.newID(),
		customerID:         customerID,
		planID:             plan.ID,
		price:              price,
		status:             vo.StatusNone,
		startAt:            startAt,
		currentPeriodStart: timePtr(startAt),
		createdAt:          now,
		updatedAt:          now,
	}

	initial := vo.StatusActive
	if trialDays > 0 {
		initial = vo.StatusTrial
		sub.trialEndAt = timePtr(startAt.Add(time.Duration(trialDays) * 24 * time.Hour))
	}
	if err := m.transition(sub, initial); err != nil {
		return nil, err
	}

	m.attachSeats(sub, seatCount, startAt)
	return sub, nil
}

// ChangePlan swaps plan and price and restarts the billing period at
// effectiveFrom. A plan change ends a trial.
func (m *StateMachine) ChangePlan(sub *Subscription, plan *Plan, price *Price, effectiveFrom time.Time) error {
	if plan == nil || price == nil {
		return apperrors.NewValidationError("plan and price are required")
	}
	if err := ensureNotCanceled(sub); err != nil {
		return err
	}

	if sub.status == vo.StatusTrial {
		if err := m.transition(sub, vo.StatusActive); err != nil {
			return err
		}
	}

	sub.planID = plan.ID
	sub.price = price
	sub.currentPeriodStart = timePtr(effectiveFrom)
	sub.currentPeriodEnd = nil
	return nil
}

// UpdateSeats appends a seat allocation. When payment was not collected the
// subscription moves to PAST_DUE.
func (m *StateMachine) UpdateSeats(sub *Subscription, seatCount int, effectiveFrom time.Time, paymentCollected bool) error {
	if err := ensureNotCanceled(sub); err != nil {
		return err
	}
	if seatCount <= 0 {
		return invalid(ErrInvalidSeatCount)
	}

	if !paymentCollected {
		if err := m.transition(sub, vo.StatusPastDue); err != nil {
			return err
		}
	}
	m.attachSeats(sub, seatCount, effectiveFrom)
	return nil
}

// ActivateTrial converts an elapsed trial into a paid subscription whose
// period starts at trialEnd.
func (m *StateMachine) ActivateTrial(sub *Subscription, trialEnd time.Time) error {
	if sub.status != vo.StatusTrial {
		return ErrInvalidTransition(sub.status, vo.StatusActive)
	}
	if sub.trialEndAt != nil && trialEnd.Before(*sub.trialEndAt) {
		return conflict(ErrTrialNotElapsed, fmt.Sprintf("trial ends at %s", sub.trialEndAt.Format(time.RFC3339)))
	}
	if err := m.transition(sub, vo.StatusActive); err != nil {
		return err
	}
	sub.currentPeriodStart = timePtr(trialEnd)
	return nil
}

// Cancel terminates a subscription. Only PAST_DUE subscriptions can be
// canceled; an active customer cancels through ScheduleCancellation.
func (m *StateMachine) Cancel(sub *Subscription, effectiveAt time.Time) error {
	if sub.status != vo.StatusPastDue {
		return apperrors.NewConflictError(
			"subscription must be in PAST_DUE state before it can be canceled",
			fmt.Sprintf("current status %s", sub.status),
		).WithCause(ErrInvalidStatusTransition)
	}
	if err := m.transition(sub, vo.StatusCanceled); err != nil {
		return err
	}
	sub.currentPeriodEnd = timePtr(effectiveAt)
	sub.cancelAtPeriodEnd = true
	return nil
}

// RecoverPayment records a successful collection. It is the only path from
// PAST_DUE back to ACTIVE. A TRIAL subscription is activated, an ACTIVE one
// stays ACTIVE. Nil bounds leave the stored period untouched.
func (m *StateMachine) RecoverPayment(sub *Subscription, periodStart, periodEnd *time.Time) error {
	switch sub.status {
	case vo.StatusCanceled:
		return conflict(ErrSubscriptionCanceled)
	case vo.StatusPastDue:
		m.setStatus(sub, vo.StatusActive)
	case vo.StatusTrial:
		if err := m.transition(sub, vo.StatusActive); err != nil {
			return err
		}
	}

	sub.cancelAtPeriodEnd = false
	if periodStart != nil {
		sub.currentPeriodStart = timePtr(*periodStart)
	}
	if periodEnd != nil {
		sub.currentPeriodEnd = timePtr(*periodEnd)
	}
	return nil
}

// MarkPastDue records a failed collection. Already past-due subscriptions
// are left as they are so that the dunning clock is not reset.
func (m *StateMachine) MarkPastDue(sub *Subscription) error {
	if sub.status == vo.StatusPastDue {
		return nil
	}
	return m.transition(sub, vo.StatusPastDue)
}

// ScheduleCancellation flags the subscription to end with its current period
// without changing its status.
func (m *StateMachine) ScheduleCancellation(sub *Subscription) error {
	if err := ensureNotCanceled(sub); err != nil {
		return err
	}
	sub.cancelAtPeriodEnd = true
	return nil
}

// ApplyGatewayState stores the gateway's view of a freshly created subscription.
func (m *StateMachine) ApplyGatewayState(sub *Subscription, externalID string, periodStart, periodEnd *time.Time, cancelAtPeriodEnd bool) error {
	if err := ensureNotCanceled(sub); err != nil {
		return err
	}
	sub.externalSubscriptionID = externalID
	if periodStart != nil {
		sub.currentPeriodStart = timePtr(*periodStart)
	}
	if periodEnd != nil {
		sub.currentPeriodEnd = timePtr(*periodEnd)
	}
	sub.cancelAtPeriodEnd = cancelAtPeriodEnd
	return nil
}

// CurrentSeatCount derives the seat count from the latest allocation,
// querying the store when the subscription carries none in memory.
func (m *StateMachine) CurrentSeatCount(ctx context.Context, sub *Subscription) (int, error) {
	latest := latestAllocation(sub.seatAllocations)
	if latest == nil && m.seats != nil {
		found, err := m.seats.FindLatest(ctx, sub.id)
		if err != nil {
			return 0, fmt.Errorf("failed to load latest seat allocation: %w", err)
		}
		latest = found
	}
	if latest == nil {
		return 0, nil
	}
	return latest.seatCount, nil
}

func (m *StateMachine) attachSeats(sub *Subscription, seatCount int, effectiveFrom time.Time) {
	sub.appendAllocation(newSeatAllocation(m.newID(), sub.id, seatCount, effectiveFrom, m.now()))
}

func (m *StateMachine) transition(sub *Subscription, target vo.SubscriptionStatus) error {
	if sub.status == target {
		return nil
	}
	if !sub.status.CanTransitionTo(target) {
		return ErrInvalidTransition(sub.status, target)
	}
	m.setStatus(sub, target)
	return nil
}

func (m *StateMachine) setStatus(sub *Subscription, target vo.SubscriptionStatus) {
	from := sub.status
	sub.status = target
	m.observer.ObserveTransition(from, target)
}

func ensureNotCanceled(sub *Subscription) error {
	if sub.status == vo.StatusCanceled {
		return conflict(ErrSubscriptionCanceled)
	}
	return nil
}
