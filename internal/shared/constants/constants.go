package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderXRequestID       = "X-Request-ID"
	HeaderIdempotencyKey   = "Idempotency-Key"
	HeaderIdempotentReplay = "Idempotent-Replayed"
	HeaderIyzicoSignature  = "X-Iyzi-Signature"

	// Database table names
	TablePlans           = "plans"
	TablePlanPrices      = "plan_prices"
	TableSubscriptions   = "subscriptions"
	TableSeatAllocations = "seat_allocations"
	TableInvoices        = "invoices"
	TableWebhookEvents   = "webhook_events"
	TableIdempotencyKeys = "idempotency_keys"
)
