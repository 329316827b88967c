// Package iyzico is a thin JSON client for the iyzico subscription API.
package iyzico

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leadsyncpro/billing/internal/application/billing/gateway"
	sharedConfig "github.com/leadsyncpro/billing/internal/shared/config"
	apperrors "github.com/leadsyncpro/billing/internal/shared/errors"
	"github.com/leadsyncpro/billing/internal/shared/logger"
)

const (
	defaultTimeout = 10 * time.Second
	// Maximum response body size read from the gateway (1MB)
	maxResponseSize = 1 << 20

	headerAuthorization = "Authorization"
	headerRandomKey     = "x-iyzi-rnd"
	authScheme          = "IYZWSv2"

	statusSuccess = "success"

	upgradeNow        = "NOW"
	upgradeNextPeriod = "NEXT_PERIOD"
)

// Client implements gateway.Client over HTTP.
type Client struct {
	baseURL       string
	apiKey        string
	secretKey     string
	webhookSecret string
	httpClient    *http.Client
	newRandomKey  func() string
	logger        logger.Interface
}

var _ gateway.Client = (*Client)(nil)

func NewClient(cfg sharedConfig.GatewayConfig, logger logger.Interface) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		httpClient:    &http.Client{Timeout: timeout},
		newRandomKey:  uuid.NewString,
		logger:        logger,
	}
}

type envelope struct {
	Status       string          `json:"status"`
	ErrorCode    string          `json:"errorCode,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
}

type subscriptionData struct {
	ReferenceCode     string `json:"referenceCode"`
	StartDate         *int64 `json:"startDate,omitempty"`
	EndDate           *int64 `json:"endDate,omitempty"`
	CancelAtPeriodEnd bool   `json:"cancelAtPeriodEnd"`
}

type invoiceData struct {
	ReferenceCode string `json:"referenceCode"`
	PeriodStart   int64  `json:"periodStart"`
	PeriodEnd     int64  `json:"periodEnd"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
}

func (c *Client) CreateSubscription(ctx context.Context, req gateway.CreateSubscriptionRequest) (*gateway.SubscriptionResponse, error) {
	body := map[string]any{
		"customerReferenceCode":    req.CustomerID,
		"pricingPlanReferenceCode": req.PriceID,
		"seatCount":                req.SeatCount,
	}

	var data subscriptionData
	if err := c.do(ctx, http.MethodPost, "/v2/subscription/initialize", body, &data); err != nil {
		return nil, err
	}
	if data.ReferenceCode == "" {
		return nil, apperrors.NewGatewayError("gateway returned no subscription reference", nil)
	}

	return &gateway.SubscriptionResponse{
		SubscriptionID:     data.ReferenceCode,
		CurrentPeriodStart: fromMillis(data.StartDate),
		CurrentPeriodEnd:   fromMillis(data.EndDate),
		CancelAtPeriodEnd:  data.CancelAtPeriodEnd,
	}, nil
}

func (c *Client) ChangePlan(ctx context.Context, externalSubscriptionID, priceID string, behavior gateway.ProrationBehavior) error {
	body := map[string]any{
		"newPricingPlanReferenceCode": priceID,
		"upgradePeriod":               upgradePeriod(behavior),
	}
	return c.do(ctx, http.MethodPost, subscriptionPath(externalSubscriptionID, "upgrade"), body, nil)
}

func (c *Client) UpdateSeats(ctx context.Context, externalSubscriptionID string, seatCount int, behavior gateway.ProrationBehavior) error {
	body := map[string]any{
		"seatCount":     seatCount,
		"upgradePeriod": upgradePeriod(behavior),
	}
	return c.do(ctx, http.MethodPost, subscriptionPath(externalSubscriptionID, "seats"), body, nil)
}

func (c *Client) CancelSubscription(ctx context.Context, externalSubscriptionID string, cancelAtPeriodEnd bool) error {
	body := map[string]any{"cancelAtPeriodEnd": cancelAtPeriodEnd}
	return c.do(ctx, http.MethodPost, subscriptionPath(externalSubscriptionID, "cancel"), body, nil)
}

func (c *Client) CreateInvoice(ctx context.Context, req gateway.CreateInvoiceRequest) (*gateway.InvoiceResponse, error) {
	body := map[string]any{
		"subscriptionReferenceCode": req.ExternalSubscriptionID,
		"periodStart":               req.PeriodStart.UnixMilli(),
		"periodEnd":                 req.PeriodEnd.UnixMilli(),
		"amount":                    req.AmountCents,
		"currency":                  req.Currency,
	}

	var data invoiceData
	if err := c.do(ctx, http.MethodPost, "/v2/subscription/invoices", body, &data); err != nil {
		return nil, err
	}

	return &gateway.InvoiceResponse{
		InvoiceID:   data.ReferenceCode,
		PeriodStart: time.UnixMilli(data.PeriodStart).UTC(),
		PeriodEnd:   time.UnixMilli(data.PeriodEnd).UTC(),
		AmountCents: data.Amount,
		Currency:    data.Currency,
	}, nil
}

// VerifyWebhookSignature compares the base64 HMAC-SHA256 of payload under
// the webhook secret with signature in constant time.
func (c *Client) VerifyWebhookSignature(signature string, payload []byte) bool {
	if c.webhookSecret == "" || signature == "" {
		return false
	}
	provided, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(provided, SignWebhook(c.webhookSecret, payload))
}

// SignWebhook returns the raw HMAC-SHA256 of payload keyed by secret.
func SignWebhook(secret string, payload []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return mac.Sum(nil)
}

func (c *Client) do(ctx context.Context, method, path string, reqBody any, out any) error {
	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to encode gateway request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("failed to create gateway request: %w", err)
	}
	randomKey := c.newRandomKey()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(headerRandomKey, randomKey)
	httpReq.Header.Set(headerAuthorization, c.authorization(randomKey, path, encoded))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warnw("gateway request failed", "path", path, "error", err)
		return apperrors.NewGatewayError("gateway request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return apperrors.NewGatewayError("failed to read gateway response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warnw("gateway returned error status",
			"path", path,
			"status_code", resp.StatusCode,
		)
		return apperrors.NewGatewayError(fmt.Sprintf("gateway returned status %d", resp.StatusCode), nil)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return apperrors.NewGatewayError("failed to decode gateway response", err)
	}
	if env.Status != statusSuccess {
		c.logger.Warnw("gateway rejected request",
			"path", path,
			"error_code", env.ErrorCode,
			"error_message", env.ErrorMessage,
		)
		return apperrors.NewGatewayError(fmt.Sprintf("gateway rejected request: %s %s", env.ErrorCode, env.ErrorMessage), nil)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperrors.NewGatewayError("failed to decode gateway response data", err)
	}
	return nil
}

// authorization builds the IYZWSv2 header: the hex HMAC-SHA256 of
// randomKey + path + body, packed with the api key and base64 encoded.
func (c *Client) authorization(randomKey, path string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(randomKey))
	mac.Write([]byte(path))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	params := "apiKey:" + c.apiKey + "&randomKey:" + randomKey + "&signature:" + signature
	return authScheme + " " + base64.StdEncoding.EncodeToString([]byte(params))
}

func subscriptionPath(referenceCode, action string) string {
	return "/v2/subscription/subscriptions/" + url.PathEscape(referenceCode) + "/" + action
}

func upgradePeriod(behavior gateway.ProrationBehavior) string {
	if behavior == gateway.ProrationDeferred {
		return upgradeNextPeriod
	}
	return upgradeNow
}

func fromMillis(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}
