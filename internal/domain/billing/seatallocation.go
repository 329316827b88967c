package billing

import "time"

// SeatAllocation records how many seats a subscription holds from
// EffectiveFrom onward. Allocations are append-only.
type SeatAllocation struct {
	id             string
	subscriptionID string
	seatCount      int
	effectiveFrom  time.Time
	createdAt      time.Time
}

func newSeatAllocation(id, subscriptionID string, seatCount int, effectiveFrom, createdAt time.Time) *SeatAllocation {
	return &SeatAllocation{
		id:             id,
		subscriptionID: subscriptionID,
		seatCount:      seatCount,
		effectiveFrom:  effectiveFrom,
		createdAt:      createdAt,
	}
}

// ReconstructSeatAllocation rebuilds an allocation from persistence.
func ReconstructSeatAllocation(id, subscriptionID string, seatCount int, effectiveFrom, createdAt time.Time) *SeatAllocation {
	return newSeatAllocation(id, subscriptionID, seatCount, effectiveFrom, createdAt)
}

func (a *SeatAllocation) ID() string               { return a.id }
func (a *SeatAllocation) SubscriptionID() string   { return a.subscriptionID }
func (a *SeatAllocation) SeatCount() int           { return a.seatCount }
func (a *SeatAllocation) EffectiveFrom() time.Time { return a.effectiveFrom }
func (a *SeatAllocation) CreatedAt() time.Time     { return a.createdAt }

// latestAllocation picks the allocation with the greatest effectiveFrom.
// allocations must be in creation order; on ties the later one wins.
func latestAllocation(allocations []*SeatAllocation) *SeatAllocation {
	var latest *SeatAllocation
	for _, a := range allocations {
		if a == nil {
			continue
		}
		if latest == nil || !a.effectiveFrom.Before(latest.effectiveFrom) {
			latest = a
		}
	}
	return latest
}
