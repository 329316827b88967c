package dto

import (
	"time"

	"github.com/leadsyncpro/billing/internal/application/billing/invoicing"
	"github.com/leadsyncpro/billing/internal/domain/billing"
)

type SubscriptionDTO struct {
	ID                     string     `json:"id"`
	CustomerID             string     `json:"customerId"`
	PlanCode               string     `json:"planCode"`
	BillingPeriod          string     `json:"billingPeriod"`
	Status                 string     `json:"status"`
	StartAt                time.Time  `json:"startAt"`
	CurrentPeriodStart     *time.Time `json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd       *time.Time `json:"currentPeriodEnd,omitempty"`
	TrialEndAt             *time.Time `json:"trialEndAt,omitempty"`
	CancelAtPeriodEnd      bool       `json:"cancelAtPeriodEnd"`
	SeatCount              int        `json:"seatCount"`
	Currency               string     `json:"currency"`
	ExternalSubscriptionID string     `json:"externalSubscriptionId,omitempty"`
}

type InvoiceDTO struct {
	ID                string    `json:"id"`
	SubscriptionID    string    `json:"subscriptionId"`
	ExternalInvoiceID *string   `json:"externalInvoiceId,omitempty"`
	PeriodStart       time.Time `json:"periodStart"`
	PeriodEnd         time.Time `json:"periodEnd"`
	TotalCents        int64     `json:"totalCents"`
	Currency          string    `json:"currency"`
	Status            string    `json:"status"`
}

// InvoiceDetailDTO adds audit timestamps to InvoiceDTO.
type InvoiceDetailDTO struct {
	InvoiceDTO
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type PlanPriceDTO struct {
	ID                 string `json:"id"`
	BillingPeriod      string `json:"billingPeriod"`
	BaseAmountCents    int64  `json:"baseAmountCents"`
	PerSeatAmountCents int64  `json:"perSeatAmountCents"`
	Currency           string `json:"currency"`
	SeatLimit          *int   `json:"seatLimit,omitempty"`
	TrialDays          int    `json:"trialDays"`
}

type PlanDTO struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Prices      []*PlanPriceDTO `json:"prices"`
}

type InvoicePreviewDTO struct {
	PlanCode      string    `json:"planCode"`
	BillingPeriod string    `json:"billingPeriod"`
	SeatCount     int       `json:"seatCount"`
	PeriodStart   time.Time `json:"periodStart"`
	PeriodEnd     time.Time `json:"periodEnd"`
	AmountCents   int64     `json:"amountCents"`
	Currency      string    `json:"currency"`
	Proration     string    `json:"proration,omitempty"`
}

// ToSubscriptionDTO needs the plan code and derived seat count, which the
// aggregate does not carry.
func ToSubscriptionDTO(sub *billing.Subscription, planCode string, seatCount int) *SubscriptionDTO {
	if sub == nil {
		return nil
	}

	out := &SubscriptionDTO{
		ID:                     sub.ID(),
		CustomerID:             sub.CustomerID(),
		PlanCode:               planCode,
		Status:                 string(sub.Status()),
		StartAt:                sub.StartAt(),
		CurrentPeriodStart:     sub.CurrentPeriodStart(),
		CurrentPeriodEnd:       sub.CurrentPeriodEnd(),
		TrialEndAt:             sub.TrialEndAt(),
		CancelAtPeriodEnd:      sub.CancelAtPeriodEnd(),
		SeatCount:              seatCount,
		ExternalSubscriptionID: sub.ExternalSubscriptionID(),
	}
	if price := sub.Price(); price != nil {
		out.BillingPeriod = string(price.BillingPeriod)
		out.Currency = price.Currency
	}
	return out
}

func ToInvoiceDTO(inv *billing.Invoice) *InvoiceDTO {
	if inv == nil {
		return nil
	}
	return &InvoiceDTO{
		ID:                inv.ID(),
		SubscriptionID:    inv.SubscriptionID(),
		ExternalInvoiceID: inv.ExternalInvoiceID(),
		PeriodStart:       inv.PeriodStart(),
		PeriodEnd:         inv.PeriodEnd(),
		TotalCents:        inv.AmountCents(),
		Currency:          inv.Currency(),
		Status:            string(inv.Status()),
	}
}

func ToInvoiceDetailDTO(inv *billing.Invoice) *InvoiceDetailDTO {
	if inv == nil {
		return nil
	}
	return &InvoiceDetailDTO{
		InvoiceDTO: *ToInvoiceDTO(inv),
		CreatedAt:  inv.CreatedAt(),
		UpdatedAt:  inv.UpdatedAt(),
	}
}

// ToPlanDTO renders a plan with its prices. Nil amounts render as zero.
func ToPlanDTO(plan *billing.Plan, prices []*billing.Price) *PlanDTO {
	out := &PlanDTO{
		ID:          plan.ID,
		Code:        plan.Code,
		Name:        plan.Name,
		Description: plan.Description,
		Prices:      make([]*PlanPriceDTO, 0, len(prices)),
	}
	for _, price := range prices {
		out.Prices = append(out.Prices, &PlanPriceDTO{
			ID:                 price.ID,
			BillingPeriod:      string(price.BillingPeriod),
			BaseAmountCents:    centsOrZero(price.BaseAmountCents),
			PerSeatAmountCents: centsOrZero(price.PerSeatAmountCents),
			Currency:           price.Currency,
			SeatLimit:          price.SeatLimit,
			TrialDays:          price.TrialDaysOrZero(),
		})
	}
	return out
}

func centsOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func ToInvoiceDTOList(invoices []*billing.Invoice) []*InvoiceDTO {
	out := make([]*InvoiceDTO, 0, len(invoices))
	for _, inv := range invoices {
		if inv != nil {
			out = append(out, ToInvoiceDTO(inv))
		}
	}
	return out
}

func ToInvoicePreviewDTO(planCode string, price *billing.Price, seatCount int, ctx invoicing.InvoiceContext) *InvoicePreviewDTO {
	return &InvoicePreviewDTO{
		PlanCode:      planCode,
		BillingPeriod: string(price.BillingPeriod),
		SeatCount:     seatCount,
		PeriodStart:   ctx.PeriodStart,
		PeriodEnd:     ctx.PeriodEnd,
		AmountCents:   ctx.AmountCents,
		Currency:      price.Currency,
	}
}
