package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leadsyncpro/billing/internal/application/billing/gateway"
	"github.com/leadsyncpro/billing/internal/application/billing/payload"
	"github.com/leadsyncpro/billing/internal/domain/billing"
	"github.com/leadsyncpro/billing/internal/shared/biztime"
	apperrors "github.com/leadsyncpro/billing/internal/shared/errors"
	"github.com/leadsyncpro/billing/internal/shared/goroutine"
	"github.com/leadsyncpro/billing/internal/shared/logger"
)

// ProviderIyzico names the only gateway whose webhooks are accepted.
const ProviderIyzico = "iyzico"

type IngestWebhookCommand struct {
	Signature string
	Payload   []byte
}

// IngestWebhookResult reports how an inbound webhook was handled. Done is
// closed when asynchronous processing finishes; it is nil for duplicates.
type IngestWebhookResult struct {
	Duplicate bool
	EventID   string
	Done      <-chan struct{}
}

// IngestWebhookUseCase verifies, deduplicates and stores gateway webhooks,
// then hands them to the processor in the background.
type IngestWebhookUseCase struct {
	eventRepo billing.WebhookEventRepository
	gateway   gateway.Client
	processor WebhookProcessor
	metrics   WebhookMetrics
	now       func() time.Time
	newID     func() string
	logger    logger.Interface
}

func NewIngestWebhookUseCase(
	eventRepo billing.WebhookEventRepository,
	gatewayClient gateway.Client,
	processor WebhookProcessor,
	metrics WebhookMetrics,
	logger logger.Interface,
) *IngestWebhookUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &IngestWebhookUseCase{
		eventRepo: eventRepo,
		gateway:   gatewayClient,
		processor: processor,
		metrics:   metrics,
		now:       biztime.NowUTC,
		newID:     uuid.NewString,
		logger:    logger,
	}
}

func (uc *IngestWebhookUseCase) Execute(ctx context.Context, cmd IngestWebhookCommand) (*IngestWebhookResult, error) {
	if cmd.Signature == "" || !uc.gateway.VerifyWebhookSignature(cmd.Signature, cmd.Payload) {
		uc.logger.Warnw("rejected webhook with invalid signature", "provider", ProviderIyzico)
		return nil, apperrors.NewUnauthorizedError("invalid webhook signature")
	}

	doc, err := payload.Parse(cmd.Payload)
	if err != nil {
		return nil, apperrors.NewBadRequestError("malformed webhook payload", err.Error())
	}
	providerEventID, ok := payload.LookupEnvelopeText(doc, payload.ProviderEventFields...)
	if !ok {
		return nil, apperrors.NewBadRequestError("webhook payload has no event id")
	}
	eventType, ok := payload.LookupEnvelopeText(doc, payload.EventTypeFields...)
	if !ok {
		return nil, apperrors.NewBadRequestError("webhook payload has no event type")
	}

	existing, err := uc.eventRepo.FindByProviderEventID(ctx, ProviderIyzico, providerEventID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up webhook event: %w", err)
	}
	if existing != nil {
		return uc.duplicate(eventType, providerEventID, existing.ID()), nil
	}

	event, err := billing.NewWebhookEvent(uc.newID(), ProviderIyzico, eventType, cmd.Payload, cmd.Signature, providerEventID, uc.now())
	if err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	if err := uc.eventRepo.Create(ctx, event); err != nil {
		// Lost a race with a concurrent delivery of the same event.
		if apperrors.IsDuplicateError(err) {
			return uc.duplicate(eventType, providerEventID, ""), nil
		}
		uc.logger.Errorw("failed to store webhook event",
			"provider_event_id", providerEventID,
			"event_type", eventType,
			"error", err,
		)
		return nil, fmt.Errorf("failed to store webhook event: %w", err)
	}

	uc.metrics.RecordWebhookEvent(eventType, WebhookResultAccepted)
	uc.logger.Infow("webhook event accepted",
		"event_id", event.ID(),
		"provider_event_id", providerEventID,
		"event_type", eventType,
	)

	bg := context.WithoutCancel(ctx)
	done := goroutine.SafeGo(uc.logger, "process-webhook", func() {
		if err := uc.processor.Execute(bg, event.ID()); err != nil {
			uc.logger.Warnw("webhook event not processed", "event_id", event.ID(), "error", err)
		}
	})

	return &IngestWebhookResult{EventID: event.ID(), Done: done}, nil
}

func (uc *IngestWebhookUseCase) duplicate(eventType, providerEventID, eventID string) *IngestWebhookResult {
	uc.metrics.RecordWebhookEvent(eventType, WebhookResultDuplicate)
	uc.logger.Infow("duplicate webhook event ignored",
		"provider_event_id", providerEventID,
		"event_type", eventType,
	)
	return &IngestWebhookResult{Duplicate: true, EventID: eventID}
}
