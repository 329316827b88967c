package billing

import (
	"fmt"
	"time"

	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
)

// WebhookEvent is an inbound gateway notification stored verbatim before it
// is processed. ProviderEventID is unique per provider.
type WebhookEvent struct {
	id              string
	provider        string
	eventType       string
	payload         []byte
	signature       string
	providerEventID string
	status          vo.WebhookEventStatus
	processedAt     *time.Time
	createdAt       time.Time
}

func NewWebhookEvent(id, provider, eventType string, payload []byte, signature, providerEventID string, now time.Time) (*WebhookEvent, error) {
	if providerEventID == "" {
		return nil, fmt.Errorf("provider event ID is required")
	}
	if eventType == "" {
		return nil, fmt.Errorf("event type is required")
	}

	return &WebhookEvent{
		id:              id,
		provider:        provider,
		eventType:       eventType,
		payload:         payload,
		signature:       signature,
		providerEventID: providerEventID,
		status:          vo.WebhookStatusPending,
		createdAt:       now,
	}, nil
}

// ReconstructWebhookEvent rebuilds an event from persistence.
func ReconstructWebhookEvent(id, provider, eventType string, payload []byte, signature, providerEventID string, status vo.WebhookEventStatus, processedAt *time.Time, createdAt time.Time) *WebhookEvent {
	return &WebhookEvent{
		id:              id,
		provider:        provider,
		eventType:       eventType,
		payload:         payload,
		signature:       signature,
		providerEventID: providerEventID,
		status:          status,
		processedAt:     processedAt,
		createdAt:       createdAt,
	}
}

func (e *WebhookEvent) ID() string                    { return e.id }
func (e *WebhookEvent) Provider() string              { return e.provider }
func (e *WebhookEvent) EventType() string             { return e.eventType }
func (e *WebhookEvent) Payload() []byte               { return e.payload }
func (e *WebhookEvent) Signature() string             { return e.signature }
func (e *WebhookEvent) ProviderEventID() string       { return e.providerEventID }
func (e *WebhookEvent) Status() vo.WebhookEventStatus { return e.status }
func (e *WebhookEvent) ProcessedAt() *time.Time       { return e.processedAt }
func (e *WebhookEvent) CreatedAt() time.Time          { return e.createdAt }

func (e *WebhookEvent) IsProcessed() bool {
	return e.status == vo.WebhookStatusProcessed
}

func (e *WebhookEvent) MarkProcessed(now time.Time) {
	e.status = vo.WebhookStatusProcessed
	e.processedAt = &now
}

// MarkFailed is terminal for automatic processing.
func (e *WebhookEvent) MarkFailed(now time.Time) {
	e.status = vo.WebhookStatusFailed
	e.processedAt = &now
}
