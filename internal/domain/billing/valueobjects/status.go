package valueobjects

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	StatusTrial    SubscriptionStatus = "TRIAL"
	StatusActive   SubscriptionStatus = "ACTIVE"
	StatusPastDue  SubscriptionStatus = "PAST_DUE"
	StatusCanceled SubscriptionStatus = "CANCELED"
)

// StatusNone marks a subscription that has not been created yet.
const StatusNone SubscriptionStatus = ""

var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	StatusNone:     {StatusTrial, StatusActive},
	StatusTrial:    {StatusActive},
	StatusActive:   {StatusPastDue},
	StatusPastDue:  {StatusCanceled},
	StatusCanceled: {},
}

func (s SubscriptionStatus) String() string {
	if s == StatusNone {
		return "NONE"
	}
	return string(s)
}

func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case StatusTrial, StatusActive, StatusPastDue, StatusCanceled:
		return true
	}
	return false
}

func (s SubscriptionStatus) IsTerminal() bool {
	return s == StatusCanceled
}

// CanTransitionTo reports whether target is reachable from s in one step.
// Payment recovery (PAST_DUE to ACTIVE) is deliberately absent: it is only
// reachable through the state machine's RecoverPayment operation.
func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	for _, allowed := range subscriptionTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// InvoiceStatus tracks collection of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusOpen   InvoiceStatus = "OPEN"
	InvoiceStatusPaid   InvoiceStatus = "PAID"
	InvoiceStatusFailed InvoiceStatus = "FAILED"
)

func (s InvoiceStatus) IsValid() bool {
	return s == InvoiceStatusOpen || s == InvoiceStatusPaid || s == InvoiceStatusFailed
}

// WebhookEventStatus tracks processing of an inbound gateway event.
type WebhookEventStatus string

const (
	WebhookStatusPending   WebhookEventStatus = "PENDING"
	WebhookStatusProcessed WebhookEventStatus = "PROCESSED"
	WebhookStatusFailed    WebhookEventStatus = "FAILED"
)

func (s WebhookEventStatus) IsValid() bool {
	return s == WebhookStatusPending || s == WebhookStatusProcessed || s == WebhookStatusFailed
}
