// Package billing exposes subscriptions, invoices and gateway webhooks over HTTP.
package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leadsyncpro/billing/internal/application/billing/usecases"
	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
	"github.com/leadsyncpro/billing/internal/shared/logger"
	"github.com/leadsyncpro/billing/internal/shared/mapper"
	"github.com/leadsyncpro/billing/internal/shared/utils"
)

type Handler struct {
	createUC     createSubscriptionUseCase
	changePlanUC changePlanUseCase
	seatsUC      updateSeatsUseCase
	cancelUC     cancelSubscriptionUseCase
	getUC        getSubscriptionUseCase
	listSubsUC   listSubscriptionsUseCase
	listInvUC    listInvoicesUseCase
	getInvUC     getInvoiceUseCase
	previewUC    previewInvoiceUseCase
	listPlansUC  listPlansUseCase
	createPlanUC createPlanUseCase
	logger       logger.Interface
}

func NewHandler(
	createUC createSubscriptionUseCase,
	changePlanUC changePlanUseCase,
	seatsUC updateSeatsUseCase,
	cancelUC cancelSubscriptionUseCase,
	getUC getSubscriptionUseCase,
	listSubsUC listSubscriptionsUseCase,
	listInvUC listInvoicesUseCase,
	getInvUC getInvoiceUseCase,
	previewUC previewInvoiceUseCase,
	listPlansUC listPlansUseCase,
	createPlanUC createPlanUseCase,
	logger logger.Interface,
) *Handler {
	return &Handler{
		createUC:     createUC,
		changePlanUC: changePlanUC,
		seatsUC:      seatsUC,
		cancelUC:     cancelUC,
		getUC:        getUC,
		listSubsUC:   listSubsUC,
		listInvUC:    listInvUC,
		getInvUC:     getInvUC,
		previewUC:    previewUC,
		listPlansUC:  listPlansUC,
		createPlanUC: createPlanUC,
		logger:       logger,
	}
}

type CreateSubscriptionRequest struct {
	CustomerID    string `json:"customerId" binding:"required"`
	PlanCode      string `json:"planCode" binding:"required"`
	BillingPeriod string `json:"billingPeriod" binding:"required,oneof=MONTH YEAR"`
	SeatCount     int    `json:"seatCount" binding:"required,min=1"`
	TrialDays     *int   `json:"trialDays" binding:"omitempty,min=0"`
}

type ChangePlanRequest struct {
	PlanCode      string `json:"planCode" binding:"required"`
	BillingPeriod string `json:"billingPeriod" binding:"required,oneof=MONTH YEAR"`
	Proration     string `json:"proration" binding:"omitempty,oneof=IMMEDIATE NEXT_PERIOD"`
}

type UpdateSeatsRequest struct {
	SeatCount int    `json:"seatCount" binding:"required,min=1"`
	Proration string `json:"proration" binding:"omitempty,oneof=IMMEDIATE NEXT_PERIOD"`
}

type CancelSubscriptionRequest struct {
	CancelAtPeriodEnd *bool `json:"cancelAtPeriodEnd" binding:"required"`
}

type CreatePlanRequest struct {
	Code        string                   `json:"code" binding:"required,max=64"`
	Name        string                   `json:"name" binding:"required,max=128"`
	Description string                   `json:"description" binding:"max=500"`
	Prices      []CreatePlanPriceRequest `json:"prices" binding:"required,min=1,dive"`
}

// CreatePlanPriceRequest amounts are in minor currency units.
type CreatePlanPriceRequest struct {
	BillingPeriod      string `json:"billingPeriod" binding:"required,oneof=MONTH YEAR"`
	BaseAmountCents    int64  `json:"baseAmountCents" binding:"gte=0"`
	PerSeatAmountCents int64  `json:"perSeatAmountCents" binding:"gte=0"`
	Currency           string `json:"currency" binding:"required,len=3,alpha"`
	SeatLimit          *int   `json:"seatLimit" binding:"omitempty,gte=0"`
	TrialDays          *int   `json:"trialDays" binding:"omitempty,gte=0"`
}

func (h *Handler) CreateSubscription(c *gin.Context) {
	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create subscription", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.createUC.Execute(c.Request.Context(), usecases.CreateSubscriptionCommand{
		CustomerID:    req.CustomerID,
		PlanCode:      req.PlanCode,
		BillingPeriod: req.BillingPeriod,
		SeatCount:     req.SeatCount,
		TrialDays:     req.TrialDays,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Subscription created successfully")
}

func (h *Handler) ChangePlan(c *gin.Context) {
	var req ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for change plan", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.changePlanUC.Execute(c.Request.Context(), usecases.ChangePlanCommand{
		SubscriptionID: c.Param("id"),
		PlanCode:       req.PlanCode,
		BillingPeriod:  req.BillingPeriod,
		Proration:      vo.Proration(req.Proration),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Subscription plan changed", result)
}

func (h *Handler) UpdateSeats(c *gin.Context) {
	var req UpdateSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for update seats", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.seatsUC.Execute(c.Request.Context(), usecases.UpdateSeatsCommand{
		SubscriptionID: c.Param("id"),
		SeatCount:      req.SeatCount,
		Proration:      vo.Proration(req.Proration),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Subscription seats updated", result)
}

func (h *Handler) CancelSubscription(c *gin.Context) {
	var req CancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for cancel subscription", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	if err := h.cancelUC.Execute(c.Request.Context(), usecases.CancelSubscriptionCommand{
		SubscriptionID:    c.Param("id"),
		CancelAtPeriodEnd: *req.CancelAtPeriodEnd,
	}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Subscription cancellation applied", nil)
}

func (h *Handler) GetSubscription(c *gin.Context) {
	result, err := h.getUC.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func (h *Handler) ListCustomerSubscriptions(c *gin.Context) {
	result, err := h.listSubsUC.Execute(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func (h *Handler) ListCustomerInvoices(c *gin.Context) {
	result, err := h.listInvUC.Execute(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func (h *Handler) GetInvoice(c *gin.Context) {
	result, err := h.getInvUC.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func (h *Handler) ListPublicPlans(c *gin.Context) {
	result, err := h.listPlansUC.Execute(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func (h *Handler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create plan", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.createPlanUC.Execute(c.Request.Context(), usecases.CreatePlanCommand{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Prices:      mapper.MapSlice(req.Prices, toPriceDefinition),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Plan created successfully")
}

func toPriceDefinition(p CreatePlanPriceRequest) usecases.PlanPriceDefinition {
	return usecases.PlanPriceDefinition{
		BillingPeriod:      p.BillingPeriod,
		BaseAmountCents:    p.BaseAmountCents,
		PerSeatAmountCents: p.PerSeatAmountCents,
		Currency:           p.Currency,
		SeatLimit:          p.SeatLimit,
		TrialDays:          p.TrialDays,
	}
}

func (h *Handler) PreviewInvoice(c *gin.Context) {
	var cmd usecases.PreviewInvoiceCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.previewUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}
