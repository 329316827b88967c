package billing

import (
	"time"
)

// IdempotencyEntry stores the outcome of a request made with an
// Idempotency-Key. An entry without a response is still in flight; it
// expires like any other so a crashed request does not hold its key forever.
type IdempotencyEntry struct {
	id             string
	key            string
	requestHash    string
	responseBody   []byte
	responseStatus *int
	expiresAt      *time.Time
	createdAt      time.Time
}

func NewIdempotencyEntry(id, key, requestHash string, now time.Time, ttl time.Duration) *IdempotencyEntry {
	expiresAt := now.Add(ttl)
	return &IdempotencyEntry{
		id:          id,
		key:         key,
		requestHash: requestHash,
		expiresAt:   &expiresAt,
		createdAt:   now,
	}
}

// ReconstructIdempotencyEntry rebuilds an entry from persistence.
func ReconstructIdempotencyEntry(id, key, requestHash string, responseBody []byte, responseStatus *int, expiresAt *time.Time, createdAt time.Time) *IdempotencyEntry {
	return &IdempotencyEntry{
		id:             id,
		key:            key,
		requestHash:    requestHash,
		responseBody:   responseBody,
		responseStatus: responseStatus,
		expiresAt:      expiresAt,
		createdAt:      createdAt,
	}
}

func (e *IdempotencyEntry) ID() string            { return e.id }
func (e *IdempotencyEntry) Key() string           { return e.key }
func (e *IdempotencyEntry) RequestHash() string   { return e.requestHash }
func (e *IdempotencyEntry) ResponseBody() []byte  { return e.responseBody }
func (e *IdempotencyEntry) ResponseStatus() *int  { return e.responseStatus }
func (e *IdempotencyEntry) ExpiresAt() *time.Time { return e.expiresAt }
func (e *IdempotencyEntry) CreatedAt() time.Time  { return e.createdAt }

// HasResponse reports whether a completed response can be replayed.
func (e *IdempotencyEntry) HasResponse() bool {
	return e.responseStatus != nil
}

// IsExpired is false for legacy rows without an expiry.
func (e *IdempotencyEntry) IsExpired(now time.Time) bool {
	return e.expiresAt != nil && !e.expiresAt.After(now)
}

// Matches reports whether a request with hash may reuse this entry.
func (e *IdempotencyEntry) Matches(hash string) bool {
	return e.requestHash == hash
}
