package http

import (
	"github.com/leadsyncpro/billing/internal/application/billing/usecases"
	"github.com/leadsyncpro/billing/internal/infrastructure/lock"
)

// allUseCases holds every use case instance.
type allUseCases struct {
	createSubscription *usecases.CreateSubscriptionUseCase
	changePlan         *usecases.ChangePlanUseCase
	updateSeats        *usecases.UpdateSeatsUseCase
	cancelSubscription *usecases.CancelSubscriptionUseCase
	getSubscription    *usecases.GetSubscriptionUseCase
	listSubscriptions  *usecases.ListCustomerSubscriptionsUseCase
	listInvoices       *usecases.ListCustomerInvoicesUseCase
	getInvoice         *usecases.GetInvoiceUseCase
	previewInvoice     *usecases.PreviewInvoiceUseCase
	listPlans          *usecases.ListPublicPlansUseCase
	createPlan         *usecases.CreatePlanUseCase
	processWebhook     *usecases.ProcessWebhookUseCase
	ingestWebhook      *usecases.IngestWebhookUseCase
	dunning            *usecases.DunningUseCase
}

// ============================================================
// Section 3: Use cases
// ============================================================

func (c *Container) initUseCases() {
	r := c.repos
	log := c.log

	c.ucs = &allUseCases{
		createSubscription: usecases.NewCreateSubscriptionUseCase(r.subscriptionRepo, r.planRepo, c.machine, c.gateway, c.txMgr, log),
		changePlan:         usecases.NewChangePlanUseCase(r.subscriptionRepo, r.planRepo, c.machine, c.gateway, c.txMgr, log),
		updateSeats:        usecases.NewUpdateSeatsUseCase(r.subscriptionRepo, r.planRepo, c.machine, c.gateway, c.txMgr, log),
		cancelSubscription: usecases.NewCancelSubscriptionUseCase(r.subscriptionRepo, c.machine, c.gateway, c.txMgr, log),
		getSubscription:    usecases.NewGetSubscriptionUseCase(r.subscriptionRepo, r.planRepo, c.machine, log),
		listSubscriptions:  usecases.NewListCustomerSubscriptionsUseCase(r.subscriptionRepo, r.planRepo, c.machine, log),
		listInvoices:       usecases.NewListCustomerInvoicesUseCase(r.invoiceRepo, log),
		getInvoice:         usecases.NewGetInvoiceUseCase(r.invoiceRepo, log),
		previewInvoice:     usecases.NewPreviewInvoiceUseCase(r.planRepo, c.invoices),
		listPlans:          usecases.NewListPublicPlansUseCase(r.planRepo, log),
		createPlan:         usecases.NewCreatePlanUseCase(r.planRepo, c.txMgr, log),
	}

	c.ucs.processWebhook = usecases.NewProcessWebhookUseCase(
		r.webhookEventRepo, r.subscriptionRepo, r.invoiceRepo, c.machine, c.txMgr, log,
		usecases.WithWebhookMetrics(c.metrics),
	)
	c.ucs.ingestWebhook = usecases.NewIngestWebhookUseCase(r.webhookEventRepo, c.gateway, c.ucs.processWebhook, c.metrics, log)

	c.ucs.dunning = usecases.NewDunningUseCase(
		r.subscriptionRepo, r.invoiceRepo, c.machine, c.invoices, c.gateway, c.notifier, c.txMgr,
		usecases.DunningConfig{
			Concurrency:       c.cfg.Worker.Concurrency,
			LockTTL:           c.cfg.Worker.LockTTL,
			GatewayTimeout:    c.cfg.Gateway.Timeout,
			RetryScheduleDays: c.cfg.Worker.RetryScheduleDays,
		},
		log,
		usecases.WithDunningLocker(lock.NewRedisLocker(c.redis, log)),
		usecases.WithDunningMetrics(c.metrics),
	)
}
