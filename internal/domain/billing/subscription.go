package billing

import (
	"fmt"
	"time"

	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
)

// Subscription is the billing aggregate root. It owns its seat allocations.
// Fields change only through StateMachine operations.
type Subscription struct {
	id                     string
	customerID             string
	planID                 string
	price                  *Price
	status                 vo.SubscriptionStatus
	startAt                time.Time
	currentPeriodStart     *time.Time
	currentPeriodEnd       *time.Time
	trialEndAt             *time.Time
	cancelAtPeriodEnd      bool
	externalSubscriptionID string
	seatAllocations        []*SeatAllocation
	pendingAllocations     []*SeatAllocation
	createdAt              time.Time
	updatedAt              time.Time
}

// SubscriptionReconstructParams carries persisted state into ReconstructSubscription.
type SubscriptionReconstructParams struct {
	ID                     string
	CustomerID             string
	PlanID                 string
	Price                  *Price
	Status                 vo.SubscriptionStatus
	StartAt                time.Time
	CurrentPeriodStart     *time.Time
	CurrentPeriodEnd       *time.Time
	TrialEndAt             *time.Time
	CancelAtPeriodEnd      bool
	ExternalSubscriptionID string
	SeatAllocations        []*SeatAllocation
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// ReconstructSubscription rebuilds a subscription from persistence.
// Allocations must be ordered by creation.
func ReconstructSubscription(s SubscriptionReconstructParams) (*Subscription, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("subscription ID cannot be empty")
	}
	if !s.Status.IsValid() {
		return nil, fmt.Errorf("invalid subscription status: %s", s.Status)
	}
	return &Subscription{
		id:                     s.ID,
		customerID:             s.CustomerID,
		planID:                 s.PlanID,
		price:                  s.Price,
		status:                 s.Status,
		startAt:                s.StartAt,
		currentPeriodStart:     s.CurrentPeriodStart,
		currentPeriodEnd:       s.CurrentPeriodEnd,
		trialEndAt:             s.TrialEndAt,
		cancelAtPeriodEnd:      s.CancelAtPeriodEnd,
		externalSubscriptionID: s.ExternalSubscriptionID,
		seatAllocations:        s.SeatAllocations,
		createdAt:              s.CreatedAt,
		updatedAt:              s.UpdatedAt,
	}, nil
}

func (s *Subscription) ID() string                     { return s.id }
func (s *Subscription) CustomerID() string             { return s.customerID }
func (s *Subscription) PlanID() string                 { return s.planID }
func (s *Subscription) Price() *Price                  { return s.price }
func (s *Subscription) Status() vo.SubscriptionStatus  { return s.status }
func (s *Subscription) StartAt() time.Time             { return s.startAt }
func (s *Subscription) CurrentPeriodStart() *time.Time { return s.currentPeriodStart }
func (s *Subscription) CurrentPeriodEnd() *time.Time   { return s.currentPeriodEnd }
func (s *Subscription) TrialEndAt() *time.Time         { return s.trialEndAt }
func (s *Subscription) CancelAtPeriodEnd() bool        { return s.cancelAtPeriodEnd }
func (s *Subscription) ExternalSubscriptionID() string { return s.externalSubscriptionID }
func (s *Subscription) CreatedAt() time.Time           { return s.createdAt }
func (s *Subscription) UpdatedAt() time.Time           { return s.updatedAt }

// SeatAllocations returns a copy of the known allocations in creation order.
func (s *Subscription) SeatAllocations() []*SeatAllocation {
	out := make([]*SeatAllocation, len(s.seatAllocations))
	copy(out, s.seatAllocations)
	return out
}

// PendingSeatAllocations returns allocations appended since the last save.
func (s *Subscription) PendingSeatAllocations() []*SeatAllocation {
	return s.pendingAllocations
}

// MarkAllocationsPersisted is called by the repository after a save.
func (s *Subscription) MarkAllocationsPersisted() {
	s.pendingAllocations = nil
}

// SetUpdatedAt is called by the repository with the stored timestamp.
func (s *Subscription) SetUpdatedAt(t time.Time) {
	s.updatedAt = t
}

// PeriodBounds resolves the billing window used for retries: the current
// period start, falling back to startAt then now, and an end that defaults
// to one day after the start when missing or not after it.
func (s *Subscription) PeriodBounds(now time.Time) (time.Time, time.Time) {
	start := now
	switch {
	case s.currentPeriodStart != nil:
		start = *s.currentPeriodStart
	case !s.startAt.IsZero():
		start = s.startAt
	}

	end := start.Add(24 * time.Hour)
	if s.currentPeriodEnd != nil && s.currentPeriodEnd.After(start) {
		end = *s.currentPeriodEnd
	}
	return start, end
}

func (s *Subscription) appendAllocation(a *SeatAllocation) {
	s.seatAllocations = append(s.seatAllocations, a)
	s.pendingAllocations = append(s.pendingAllocations, a)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
