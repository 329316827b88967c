package usecases

import (
	"context"

	"github.com/leadsyncpro/billing/internal/application/billing/dto"
	"github.com/leadsyncpro/billing/internal/domain/billing"
	"github.com/leadsyncpro/billing/internal/shared/logger"
)

type GetSubscriptionUseCase struct {
	subscriptionRepo billing.SubscriptionRepository
	view             subscriptionView
	logger           logger.Interface
}

func NewGetSubscriptionUseCase(
	subscriptionRepo billing.SubscriptionRepository,
	planRepo billing.PlanRepository,
	machine *billing.StateMachine,
	logger logger.Interface,
) *GetSubscriptionUseCase {
	return &GetSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		view:             subscriptionView{plans: planRepo, machine: machine},
		logger:           logger,
	}
}

func (uc *GetSubscriptionUseCase) Execute(ctx context.Context, subscriptionID string) (*dto.SubscriptionDTO, error) {
	sub, err := uc.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		uc.logger.Warnw("failed to get subscription", "subscription_id", subscriptionID, "error", err)
		return nil, err
	}
	return uc.view.render(ctx, sub)
}

type ListCustomerSubscriptionsUseCase struct {
	subscriptionRepo billing.SubscriptionRepository
	view             subscriptionView
	logger           logger.Interface
}

func NewListCustomerSubscriptionsUseCase(
	subscriptionRepo billing.SubscriptionRepository,
	planRepo billing.PlanRepository,
	machine *billing.StateMachine,
	logger logger.Interface,
) *ListCustomerSubscriptionsUseCase {
	return &ListCustomerSubscriptionsUseCase{
		subscriptionRepo: subscriptionRepo,
		view:             subscriptionView{plans: planRepo, machine: machine},
		logger:           logger,
	}
}

func (uc *ListCustomerSubscriptionsUseCase) Execute(ctx context.Context, customerID string) ([]*dto.SubscriptionDTO, error) {
	subs, err := uc.subscriptionRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		uc.logger.Errorw("failed to list customer subscriptions", "customer_id", customerID, "error", err)
		return nil, err
	}
	return uc.view.renderAll(ctx, subs)
}

type ListCustomerInvoicesUseCase struct {
	invoiceRepo billing.InvoiceRepository
	logger      logger.Interface
}

func NewListCustomerInvoicesUseCase(invoiceRepo billing.InvoiceRepository, logger logger.Interface) *ListCustomerInvoicesUseCase {
	return &ListCustomerInvoicesUseCase{invoiceRepo: invoiceRepo, logger: logger}
}

// Execute returns the customer's invoices newest period first.
func (uc *ListCustomerInvoicesUseCase) Execute(ctx context.Context, customerID string) ([]*dto.InvoiceDTO, error) {
	invoices, err := uc.invoiceRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		uc.logger.Errorw("failed to list customer invoices", "customer_id", customerID, "error", err)
		return nil, err
	}
	return dto.ToInvoiceDTOList(invoices), nil
}

type GetInvoiceUseCase struct {
	invoiceRepo billing.InvoiceRepository
	logger      logger.Interface
}

func NewGetInvoiceUseCase(invoiceRepo billing.InvoiceRepository, logger logger.Interface) *GetInvoiceUseCase {
	return &GetInvoiceUseCase{invoiceRepo: invoiceRepo, logger: logger}
}

func (uc *GetInvoiceUseCase) Execute(ctx context.Context, invoiceID string) (*dto.InvoiceDetailDTO, error) {
	invoice, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		uc.logger.Warnw("failed to get invoice", "invoice_id", invoiceID, "error", err)
		return nil, err
	}
	return dto.ToInvoiceDetailDTO(invoice), nil
}
