package iyzico

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadsyncpro/billing/internal/application/billing/gateway"
	sharedConfig "github.com/leadsyncpro/billing/internal/shared/config"
	apperrors "github.com/leadsyncpro/billing/internal/shared/errors"
	"github.com/leadsyncpro/billing/internal/shared/logger"
)

type recordedRequest struct {
	Path   string
	Header http.Header
	Body   map[string]any
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recordedRequest) {
	t.Helper()
	var recorded []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		recorded = append(recorded, recordedRequest{Path: r.URL.Path, Header: r.Header.Clone(), Body: body})
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(sharedConfig.GatewayConfig{
		BaseURL:       srv.URL + "/",
		APIKey:        "api-key",
		SecretKey:     "secret-key",
		WebhookSecret: "whsec",
		Timeout:       2 * time.Second,
	}, logger.NewNopLogger())
	c.newRandomKey = func() string { return "rnd-1" }
	return c, &recorded
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_CreateSubscription(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	c, recorded := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"data": map[string]any{
				"referenceCode": "sub-ext-1",
				"startDate":     start.UnixMilli(),
				"endDate":       end.UnixMilli(),
			},
		})
	})

	resp, err := c.CreateSubscription(context.Background(), gateway.CreateSubscriptionRequest{
		CustomerID: "cust-1",
		PriceID:    "price-1",
		SeatCount:  4,
	})
	require.NoError(t, err)
	assert.Equal(t, "sub-ext-1", resp.SubscriptionID)
	require.NotNil(t, resp.CurrentPeriodStart)
	assert.True(t, start.Equal(*resp.CurrentPeriodStart))
	assert.True(t, end.Equal(*resp.CurrentPeriodEnd))
	assert.False(t, resp.CancelAtPeriodEnd)

	require.Len(t, *recorded, 1)
	req := (*recorded)[0]
	assert.Equal(t, "/v2/subscription/initialize", req.Path)
	assert.Equal(t, "cust-1", req.Body["customerReferenceCode"])
	assert.Equal(t, float64(4), req.Body["seatCount"])
	assert.Equal(t, "rnd-1", req.Header.Get(headerRandomKey))

	auth := req.Header.Get(headerAuthorization)
	require.True(t, strings.HasPrefix(auth, authScheme+" "))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, authScheme+" "))
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "apiKey:api-key&randomKey:rnd-1&signature:")
}

func TestClient_ChangePlanAndSeats(t *testing.T) {
	c, recorded := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
	})
	ctx := context.Background()

	require.NoError(t, c.ChangePlan(ctx, "sub-ext-1", "price-2", gateway.ProrationImmediate))
	require.NoError(t, c.UpdateSeats(ctx, "sub-ext-1", 9, gateway.ProrationDeferred))
	require.NoError(t, c.CancelSubscription(ctx, "sub-ext-1", true))

	require.Len(t, *recorded, 3)
	assert.Equal(t, "/v2/subscription/subscriptions/sub-ext-1/upgrade", (*recorded)[0].Path)
	assert.Equal(t, upgradeNow, (*recorded)[0].Body["upgradePeriod"])
	assert.Equal(t, "/v2/subscription/subscriptions/sub-ext-1/seats", (*recorded)[1].Path)
	assert.Equal(t, upgradeNextPeriod, (*recorded)[1].Body["upgradePeriod"])
	assert.Equal(t, "/v2/subscription/subscriptions/sub-ext-1/cancel", (*recorded)[2].Path)
	assert.Equal(t, true, (*recorded)[2].Body["cancelAtPeriodEnd"])
}

func TestClient_CreateInvoice(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	c, recorded := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"data": map[string]any{
				"referenceCode": "inv-ext-1",
				"periodStart":   start.UnixMilli(),
				"periodEnd":     end.UnixMilli(),
				"amount":        2500,
				"currency":      "TRY",
			},
		})
	})

	resp, err := c.CreateInvoice(context.Background(), gateway.CreateInvoiceRequest{
		ExternalSubscriptionID: "sub-ext-1",
		PeriodStart:            start,
		PeriodEnd:              end,
		AmountCents:            2500,
		Currency:               "TRY",
	})
	require.NoError(t, err)
	assert.Equal(t, "inv-ext-1", resp.InvoiceID)
	assert.Equal(t, int64(2500), resp.AmountCents)
	assert.True(t, end.Equal(resp.PeriodEnd))
	assert.Equal(t, float64(start.UnixMilli()), (*recorded)[0].Body["periodStart"])
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler func(w http.ResponseWriter, r *http.Request)
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "rejected",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{
					"status":       "failure",
					"errorCode":    "100001",
					"errorMessage": "card declined",
				})
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, tt.handler)
			err := c.CancelSubscription(context.Background(), "sub-ext-1", false)
			require.Error(t, err)
			assert.True(t, apperrors.IsGatewayError(err))
			assert.True(t, apperrors.IsRetryable(err))
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	c := NewClient(sharedConfig.GatewayConfig{BaseURL: "http://127.0.0.1:1"}, logger.NewNopLogger())
	_, err := c.CreateInvoice(context.Background(), gateway.CreateInvoiceRequest{ExternalSubscriptionID: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.IsGatewayError(err))
}

func TestClient_MissingSubscriptionReference(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": map[string]any{}})
	})
	_, err := c.CreateSubscription(context.Background(), gateway.CreateSubscriptionRequest{CustomerID: "c"})
	assert.True(t, apperrors.IsGatewayError(err))
}

func TestClient_VerifyWebhookSignature(t *testing.T) {
	c := NewClient(sharedConfig.GatewayConfig{WebhookSecret: "whsec"}, logger.NewNopLogger())
	body := []byte(`{"eventId":"evt-1"}`)
	valid := base64.StdEncoding.EncodeToString(SignWebhook("whsec", body))

	assert.True(t, c.VerifyWebhookSignature(valid, body))
	assert.False(t, c.VerifyWebhookSignature(valid, []byte(`{"eventId":"evt-2"}`)))
	assert.False(t, c.VerifyWebhookSignature(base64.StdEncoding.EncodeToString(SignWebhook("other", body)), body))
	assert.False(t, c.VerifyWebhookSignature("%%%", body))
	assert.False(t, c.VerifyWebhookSignature("", body))

	noSecret := NewClient(sharedConfig.GatewayConfig{}, logger.NewNopLogger())
	assert.False(t, noSecret.VerifyWebhookSignature(valid, body))
}
