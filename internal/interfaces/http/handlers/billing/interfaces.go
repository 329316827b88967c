package billing

import (
	"context"

	"github.com/leadsyncpro/billing/internal/application/billing/dto"
	"github.com/leadsyncpro/billing/internal/application/billing/usecases"
)

// Use case interfaces for Handler

type createSubscriptionUseCase interface {
	Execute(ctx context.Context, cmd usecases.CreateSubscriptionCommand) (*dto.SubscriptionDTO, error)
}

type changePlanUseCase interface {
	Execute(ctx context.Context, cmd usecases.ChangePlanCommand) (*dto.SubscriptionDTO, error)
}

type updateSeatsUseCase interface {
	Execute(ctx context.Context, cmd usecases.UpdateSeatsCommand) (*dto.SubscriptionDTO, error)
}

type cancelSubscriptionUseCase interface {
	Execute(ctx context.Context, cmd usecases.CancelSubscriptionCommand) error
}

type getSubscriptionUseCase interface {
	Execute(ctx context.Context, subscriptionID string) (*dto.SubscriptionDTO, error)
}

type listSubscriptionsUseCase interface {
	Execute(ctx context.Context, customerID string) ([]*dto.SubscriptionDTO, error)
}

type listInvoicesUseCase interface {
	Execute(ctx context.Context, customerID string) ([]*dto.InvoiceDTO, error)
}

type getInvoiceUseCase interface {
	Execute(ctx context.Context, invoiceID string) (*dto.InvoiceDetailDTO, error)
}

type listPlansUseCase interface {
	Execute(ctx context.Context) ([]*dto.PlanDTO, error)
}

type createPlanUseCase interface {
	Execute(ctx context.Context, cmd usecases.CreatePlanCommand) (*dto.PlanDTO, error)
}

type previewInvoiceUseCase interface {
	Execute(ctx context.Context, cmd usecases.PreviewInvoiceCommand) (*dto.InvoicePreviewDTO, error)
}

type ingestWebhookUseCase interface {
	Execute(ctx context.Context, cmd usecases.IngestWebhookCommand) (*usecases.IngestWebhookResult, error)
}
